package simulated

import (
	"context"
	"strconv"
	"sync"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/crypto/secp256k1"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
	beefytypes "github.com/ComposableFi/centauri/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/centauri/relayer"
	"github.com/ComposableFi/centauri/simapp"
	"github.com/ComposableFi/centauri/testing/simulation"
)

const (
	// ClientTypeGrandpa makes counterparties track the chain with GRANDPA.
	ClientTypeGrandpa = "grandpa"
	// ClientTypeBeefy makes counterparties track the chain with BEEFY.
	ClientTypeBeefy = "beefy"

	finalityBuffer = 16
)

var _ relayer.Chain = (*Chain)(nil)

// Config configures a simulated chain.
type Config struct {
	ChainID string
	ParaID  uint32
	// ClientType is the light client counterparties track the chain with.
	ClientType      string
	Voters          int
	BeefyValidators int
	// BlockTime is added to the block time at every block.
	BlockTime time.Duration
	// GenesisTime is the time of the first block.
	GenesisTime time.Time
	// Accounts are funded with GenesisBalance of NativeDenom.
	Accounts       int
	NativeDenom    string
	GenesisBalance sdk.Int
}

// DefaultConfig returns the configuration of a GRANDPA tracked chain.
func DefaultConfig(chainID string, paraID uint32) Config {
	return Config{
		ChainID:         chainID,
		ParaID:          paraID,
		ClientType:      ClientTypeGrandpa,
		Voters:          4,
		BeefyValidators: 4,
		BlockTime:       6 * time.Second,
		GenesisTime:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Accounts:        2,
		NativeDenom:     "ppica",
		GenesisBalance:  sdk.NewIntWithDecimal(1, 18),
	}
}

// Validate checks the configuration.
func (cfg Config) Validate() error {
	switch {
	case cfg.ChainID == "":
		return errors.New("chain id cannot be empty")
	case cfg.ClientType != ClientTypeGrandpa && cfg.ClientType != ClientTypeBeefy:
		return errors.Errorf("unknown client type %q", cfg.ClientType)
	case cfg.Accounts < 1:
		return errors.New("at least one account is required")
	case cfg.BlockTime <= 0:
		return errors.New("block time must be positive")
	}
	return nil
}

// Chain is a CentauriApp running as a parachain of its own simulated relay
// chain. Every committed block is included in a relay block and announced as
// finalized to the subscribers of the chain. Chain is safe for concurrent use.
type Chain struct {
	mu     sync.Mutex
	cfg    Config
	logger log.Logger

	app    *simapp.CentauriApp
	header tmproto.Header
	tries  *simulation.TrieStore
	para   *simulation.Parachain
	relay  *simulation.RelayChain

	accounts []sdk.AccAddress
	clientID string

	// events are the IBC events of every parachain block
	events      map[uint64][]relayer.IBCEvent
	subscribers map[chan relayer.FinalityEvent]struct{}
}

// NewChain starts a chain from genesis. Accounts are derived from the chain id
// so that restarted chains use the same addresses.
func NewChain(cfg Config, logger log.Logger) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	simapp.SetAddressPrefixes()

	genesis := simapp.NewDefaultGenesisState()
	accounts := make([]sdk.AccAddress, cfg.Accounts)
	for i := range accounts {
		key := secp256k1.GenPrivKeySecp256k1([]byte(cfg.ChainID + "/" + strconv.Itoa(i)))
		accounts[i] = sdk.AccAddress(key.PubKey().Address())
		genesis.Balances = append(genesis.Balances, simapp.Balance{
			Address: accounts[i].String(),
			Coins:   sdk.NewCoins(sdk.NewCoin(cfg.NativeDenom, cfg.GenesisBalance)),
		})
	}
	if err := genesis.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid genesis")
	}

	tries, err := simulation.NewTrieStore()
	if err != nil {
		return nil, err
	}
	relay, err := simulation.NewRelayChain(simulation.RelayChainConfig{
		Seed:            "relay-" + cfg.ChainID,
		Voters:          cfg.Voters,
		BeefyValidators: cfg.BeefyValidators,
	}, tries)
	if err != nil {
		tries.Close()
		return nil, err
	}

	logger = logger.With("chain", cfg.ChainID)
	header := tmproto.Header{ChainID: cfg.ChainID, Height: 1, Time: cfg.GenesisTime.UTC()}
	app := simapp.NewCentauriApp(logger, dbm.NewMemDB())
	app.InitChain(header, genesis)

	c := &Chain{
		cfg:         cfg,
		logger:      logger,
		app:         app,
		header:      header,
		tries:       tries,
		para:        simulation.NewParachain(cfg.ParaID, tries),
		relay:       relay,
		accounts:    accounts,
		events:      make(map[uint64][]relayer.IBCEvent),
		subscribers: make(map[chan relayer.FinalityEvent]struct{}),
	}
	if err := c.commit(); err != nil {
		tries.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the state trie database of the chain. The chain must not be
// used afterwards.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tries.Close()
}

// Name implements relayer.Chain.
func (c *Chain) Name() string {
	return c.cfg.ChainID
}

// ClientID implements relayer.Chain.
func (c *Chain) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clientID
}

// Signer implements relayer.Chain. The first account signs relayed messages.
func (c *Chain) Signer() string {
	return c.accounts[0].String()
}

// Accounts returns the funded accounts of the chain.
func (c *Chain) Accounts() []sdk.AccAddress {
	return c.accounts
}

// CommitmentPrefix implements relayer.Chain.
func (c *Chain) CommitmentPrefix() commitmenttypes.MerklePrefix {
	c.mu.Lock()
	defer c.mu.Unlock()

	return commitmenttypes.NewMerklePrefix(c.app.IBCKeeper.ConnectionKeeper.GetCommitmentPrefix().Bytes())
}

// ProduceBlock commits the block being executed.
func (c *Chain) ProduceBlock() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.commit()
}

// Run produces a block every interval until ctx is done.
func (c *Chain) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.ProduceBlock(); err != nil {
				return err
			}
		}
	}
}

// Deliver executes msgs in the current block and commits it. The results
// of every message are returned along with the first failure.
func (c *Chain) Deliver(msgs ...exported.Msg) (coretypes.Results, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := c.deliver(msgs)
	if err := c.commit(); err != nil {
		return results, err
	}
	return results, results.Err()
}

// SubmitIBCMessages implements relayer.Chain.
func (c *Chain) SubmitIBCMessages(ctx context.Context, msgs []exported.Msg) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.Deliver(msgs...)
	return err
}

// CreateClient creates the client of the chain tracking counterparty. The
// client is the one relayed messages are verified with.
func (c *Chain) CreateClient(counterparty *Chain) (string, error) {
	clientState, consensusState, err := counterparty.clientState()
	if err != nil {
		return "", err
	}

	msg := clienttypes.NewMsgCreateClient(clientState, consensusState, c.Signer())
	res, err := c.Deliver(msg)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.clientID = res[0].Identifier
	c.mu.Unlock()
	return res[0].Identifier, nil
}

// clientState returns the initial state of a client tracking the chain.
func (c *Chain) clientState() (exported.ClientState, exported.ConsensusState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.ClientType == ClientTypeBeefy {
		return c.relay.BeefyClientState(c.cfg.ParaID)
	}
	return c.relay.GrandpaClientState(c.cfg.ChainID, c.cfg.ParaID)
}

// FinalityNotifications implements relayer.Chain.
func (c *Chain) FinalityNotifications(ctx context.Context) (<-chan relayer.FinalityEvent, error) {
	ch := make(chan relayer.FinalityEvent, finalityBuffer)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()

		c.mu.Lock()
		delete(c.subscribers, ch)
		close(ch)
		c.mu.Unlock()
	}()
	return ch, nil
}

// QueryLatestIBCEvents implements relayer.Chain. The update of a GRANDPA
// client stops at the first block enacting an authority set change, such
// updates are mandatory.
func (c *Chain) QueryLatestIBCEvents(
	ctx context.Context, finality relayer.FinalityEvent, counterparty relayer.Chain,
) (relayer.ClientUpdate, []relayer.IBCEvent, relayer.UpdateKind, error) {
	clientID := counterparty.ClientID()
	clientState, err := counterparty.QueryClientState(ctx, clientID)
	if err != nil {
		return relayer.ClientUpdate{}, nil, relayer.UpdateOptional, errors.Wrapf(err, "failed to query client %s on %s", clientID, counterparty.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		from, target, paraHeight uint32
		header                   exported.ClientMessage
		kind                     = relayer.UpdateOptional
	)
	switch cs := clientState.(type) {
	case *grandpatypes.ClientState:
		from, target, paraHeight = cs.LatestRelayHeight, cs.LatestRelayHeight, cs.LatestParaHeight
		if from < c.relay.LatestBlock().Number() {
			if header, err = c.relay.GrandpaHeader(c.cfg.ParaID, from); err != nil {
				return relayer.ClientUpdate{}, nil, kind, err
			}
			target = c.relay.GrandpaTarget(from)
			if block, _ := c.relay.Block(target); block.EnactsChange() {
				kind = relayer.UpdateMandatory
			}
		}

	case *beefytypes.ClientState:
		from, target, paraHeight = cs.LatestBeefyHeight, cs.LatestBeefyHeight, cs.LatestParaHeight
		if from < c.relay.LatestBlock().Number() {
			if header, err = c.relay.BeefyHeader(c.cfg.ParaID, from); err != nil {
				return relayer.ClientUpdate{}, nil, kind, err
			}
			target = c.relay.LatestBlock().Number()
		}

	default:
		return relayer.ClientUpdate{}, nil, kind, errors.Errorf("client type %s is not supported", clientState.ClientType())
	}

	update := relayer.ClientUpdate{Height: clienttypes.NewHeight(0, uint64(paraHeight))}
	if header != nil {
		block, _ := c.relay.Block(target)
		head, ok := block.ParaHead(c.cfg.ParaID)
		if !ok {
			return relayer.ClientUpdate{}, nil, kind, errors.Errorf("relay block %d has no head of para %d", target, c.cfg.ParaID)
		}
		update.Msg = clienttypes.NewMsgUpdateClient(clientID, header, counterparty.Signer())
		update.Height = clienttypes.NewHeight(0, uint64(head.Number()))
	}
	if paraBlock, ok := c.para.Block(uint32(update.Height.RevisionHeight)); ok {
		update.Timestamp = paraBlock.TimestampNano()
	}

	// events the counterparty client already tracks are relayed
	for height := range c.events {
		if height <= uint64(paraHeight) {
			delete(c.events, height)
		}
	}
	var events []relayer.IBCEvent
	for height := uint64(paraHeight) + 1; height <= update.Height.RevisionHeight; height++ {
		events = append(events, c.events[height]...)
	}
	c.logger.Debug("queried events", "finality", finality.RelayHeight, "from", from, "to", target, "events", len(events))
	return update, events, kind, nil
}

// QueryLatestHeight implements relayer.Chain.
func (c *Chain) QueryLatestHeight(context.Context) (clienttypes.Height, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latest := c.para.LatestBlock()
	return clienttypes.NewHeight(0, uint64(latest.Number())), latest.TimestampNano(), nil
}

// QueryClientState implements relayer.Chain.
func (c *Chain) QueryClientState(_ context.Context, clientID string) (exported.ClientState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	clientState, found := c.app.IBCKeeper.ClientKeeper.GetClientState(c.app.Context(), clientID)
	if !found {
		return nil, errors.Wrap(clienttypes.ErrClientNotFound, clientID)
	}
	return clientState, nil
}

// QueryConnection implements relayer.Chain.
func (c *Chain) QueryConnection(_ context.Context, connectionID string) (connectiontypes.ConnectionEnd, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	connection, found := c.app.IBCKeeper.ConnectionKeeper.GetConnection(c.app.Context(), connectionID)
	if !found {
		return connectiontypes.ConnectionEnd{}, errors.Wrap(connectiontypes.ErrConnectionNotFound, connectionID)
	}
	return connection, nil
}

// QueryChannel implements relayer.Chain.
func (c *Chain) QueryChannel(_ context.Context, portID, channelID string) (channeltypes.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel, found := c.app.IBCKeeper.ChannelKeeper.GetChannel(c.app.Context(), portID, channelID)
	if !found {
		return channeltypes.Channel{}, errors.Wrapf(channeltypes.ErrChannelNotFound, "port %s channel %s", portID, channelID)
	}
	return channel, nil
}

// QueryNextSequenceRecv implements relayer.Chain.
func (c *Chain) QueryNextSequenceRecv(_ context.Context, portID, channelID string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sequence, found := c.app.IBCKeeper.ChannelKeeper.GetNextSequenceRecv(c.app.Context(), portID, channelID)
	if !found {
		return 0, errors.Wrapf(channeltypes.ErrSequenceReceiveNotFound, "port %s channel %s", portID, channelID)
	}
	return sequence, nil
}

// QueryPacketReceipt implements relayer.Chain.
func (c *Chain) QueryPacketReceipt(_ context.Context, portID, channelID string, sequence uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, found := c.app.IBCKeeper.ChannelKeeper.GetPacketReceipt(c.app.Context(), portID, channelID, sequence)
	return found, nil
}

// QueryPacketCommitment implements relayer.Chain.
func (c *Chain) QueryPacketCommitment(_ context.Context, portID, channelID string, sequence uint64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.app.IBCKeeper.ChannelKeeper.GetPacketCommitment(c.app.Context(), portID, channelID, sequence), nil
}

// QueryProof implements relayer.Chain.
func (c *Chain) QueryProof(_ context.Context, height clienttypes.Height, key []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.para.ProveState(uint32(height.RevisionHeight), key)
}

// Balance returns the balance of denom held by address.
func (c *Chain) Balance(address sdk.AccAddress, denom string) sdk.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.app.FungiblesKeeper.Balance(c.app.Context(), denom, address)
}

// ScheduleAuthorityChange rotates the GRANDPA voters of the relay chain after
// the next block.
func (c *Chain) ScheduleAuthorityChange(seed string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.relay.ScheduleAuthorityChange(simulation.NewVoterSet(seed, c.cfg.Voters))
}

func (c *Chain) deliver(msgs []exported.Msg) coretypes.Results {
	results := c.app.Deliver(c.accounts[0], msgs...)

	height := uint64(c.header.Height)
	for _, res := range results {
		if !res.Succeeded() {
			c.logger.Debug("message failed", "type", res.MsgType, "err", res.Err)
			continue
		}
		events, err := relayer.ParseIBCEvents(res.Events)
		if err != nil {
			c.logger.Error("failed to parse events", "type", res.MsgType, "err", err)
			continue
		}
		c.events[height] = append(c.events[height], events...)
	}
	return results
}

// commit commits the block being executed, includes it in a relay block and
// notifies the subscribers. The caller holds c.mu.
func (c *Chain) commit() error {
	commitID := c.app.Commit()

	block, err := c.para.ProduceBlock(uint32(commitID.Version), c.header.Time, c.relay.LatestBlock().Number(), c.app.IBCStore())
	if err != nil {
		return errors.Wrapf(err, "failed to produce block %d", commitID.Version)
	}
	relayBlock, err := c.relay.ImportParachainBlock(c.cfg.ParaID, block)
	if err != nil {
		return errors.Wrapf(err, "failed to include block %d", commitID.Version)
	}

	c.header = tmproto.Header{
		ChainID: c.cfg.ChainID,
		Height:  commitID.Version + 1,
		Time:    c.header.Time.Add(c.cfg.BlockTime),
	}
	c.app.BeginBlock(c.header)

	finality := relayer.FinalityEvent{
		RelayHeight: relayBlock.Number(),
		Height:      clienttypes.NewHeight(0, uint64(block.Number())),
		Timestamp:   block.TimestampNano(),
	}
	for ch := range c.subscribers {
		notify(ch, finality)
	}
	return nil
}

// notify sends event to ch, dropping the oldest pending event when ch is
// full. Only the latest finality matters to subscribers.
func notify(ch chan relayer.FinalityEvent, event relayer.FinalityEvent) {
	select {
	case ch <- event:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- event
}
