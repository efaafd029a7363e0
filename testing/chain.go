package ibctesting

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/secp256k1"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
	"github.com/ComposableFi/centauri/simapp"
	"github.com/ComposableFi/centauri/testing/simulation"
)

// TestChain is a testing struct that wraps a CentauriApp running as parachain
// ParaID of a simulated relay chain. Every committed block is sealed as a
// parachain block and included in a new relay chain block, so that light
// clients of the chain on a counterparty are updated with GRANDPA or BEEFY
// proofs of the relay chain.
type TestChain struct {
	testing.TB

	Coordinator   *Coordinator
	App           *simapp.CentauriApp
	ChainID       string
	ParaID        uint32
	CurrentHeader tmproto.Header // header for the block being executed

	Tries     *simulation.TrieStore
	Parachain *simulation.Parachain
	Relay     *simulation.RelayChain

	// SenderAccount submits the messages of the chain, SenderAccounts are
	// funded with NativeDenom at genesis.
	SenderAccount  sdk.AccAddress
	SenderAccounts []sdk.AccAddress
}

// NewTestChain initializes a new test chain with SenderAccounts funded
// accounts. The genesis block is committed and included in the relay chain
// before the chain is returned.
func NewTestChain(tb testing.TB, coord *Coordinator, chainID string, paraID uint32) *TestChain {
	tb.Helper()
	simapp.SetAddressPrefixes()

	genesis := simapp.NewDefaultGenesisState()
	senders := make([]sdk.AccAddress, SenderAccounts)
	for i := range senders {
		senders[i] = sdk.AccAddress(secp256k1.GenPrivKey().PubKey().Address())
		genesis.Balances = append(genesis.Balances, simapp.Balance{
			Address: senders[i].String(),
			Coins:   sdk.NewCoins(sdk.NewCoin(NativeDenom, DefaultGenesisAccBalance)),
		})
	}

	tries, err := simulation.NewTrieStore()
	require.NoError(tb, err)
	relay, err := simulation.NewRelayChain(simulation.RelayChainConfig{
		Seed:            "relay-" + chainID,
		Voters:          RelayVoters,
		BeefyValidators: BeefyValidators,
	}, tries)
	require.NoError(tb, err)

	header := tmproto.Header{
		ChainID: chainID,
		Height:  1,
		Time:    coord.CurrentTime.UTC(),
	}
	app := simapp.NewCentauriApp(log.NewNopLogger(), dbm.NewMemDB())
	app.InitChain(header, genesis)

	chain := &TestChain{
		TB:             tb,
		Coordinator:    coord,
		App:            app,
		ChainID:        chainID,
		ParaID:         paraID,
		CurrentHeader:  header,
		Tries:          tries,
		Parachain:      simulation.NewParachain(paraID, tries),
		Relay:          relay,
		SenderAccount:  senders[0],
		SenderAccounts: senders,
	}
	chain.NextBlock()

	return chain
}

// GetContext returns the context of the block being executed.
func (chain *TestChain) GetContext() sdk.Context {
	return chain.App.Context()
}

// NextBlock commits the current block, seals it as a parachain block, includes
// it in a new relay chain block and begins the next block. The time of the
// next block is unchanged, the coordinator moves it forward.
func (chain *TestChain) NextBlock() {
	commitID := chain.App.Commit()

	block, err := chain.Parachain.ProduceBlock(
		uint32(commitID.Version), chain.CurrentHeader.Time, chain.Relay.LatestBlock().Number(), chain.App.IBCStore(),
	)
	require.NoError(chain.TB, err)
	_, err = chain.Relay.ImportParachainBlock(chain.ParaID, block)
	require.NoError(chain.TB, err)

	chain.CurrentHeader = tmproto.Header{
		ChainID: chain.ChainID,
		Height:  commitID.Version + 1,
		Time:    chain.CurrentHeader.Time,
	}
	chain.App.BeginBlock(chain.CurrentHeader)
}

// SendMsgs delivers msgs in the current block, commits it and moves the
// coordinator time forward. The results of every message are returned along
// with the first failure.
func (chain *TestChain) SendMsgs(msgs ...exported.Msg) (coretypes.Results, error) {
	results := chain.App.Deliver(chain.SenderAccount, msgs...)

	chain.NextBlock()
	chain.Coordinator.IncrementTime()

	return results, results.Err()
}

// LatestHeight returns the height of the latest committed block, which is
// the latest height a counterparty client can be updated to.
func (chain *TestChain) LatestHeight() clienttypes.Height {
	return clienttypes.NewHeight(0, uint64(chain.Parachain.LatestBlock().Number()))
}

// QueryProof performs an abci query with the given key and returns the proto encoded merkle proof
// for the query and the height at which the proof will succeed on a light client which tracks the
// latest committed block of the chain.
func (chain *TestChain) QueryProof(key []byte) ([]byte, clienttypes.Height) {
	return chain.QueryProofAtHeight(key, chain.LatestHeight().RevisionHeight)
}

// QueryProofAtHeight returns the state proof of the IBC store key in the
// parachain block height. Absent keys are proven absent.
func (chain *TestChain) QueryProofAtHeight(key []byte, height uint64) ([]byte, clienttypes.Height) {
	proof, err := chain.Parachain.ProveState(uint32(height), key)
	require.NoError(chain.TB, err)

	return proof, clienttypes.NewHeight(0, height)
}

// GetClientState retrieves the client state for the provided clientID. The client is
// expected to exist otherwise testing will fail.
func (chain *TestChain) GetClientState(clientID string) exported.ClientState {
	clientState, found := chain.App.IBCKeeper.ClientKeeper.GetClientState(chain.GetContext(), clientID)
	require.True(chain.TB, found)

	return clientState
}

// GetConsensusState retrieves the consensus state for the provided clientID and height.
// It will return a success boolean depending on if consensus state exists or not.
func (chain *TestChain) GetConsensusState(clientID string, height exported.Height) (exported.ConsensusState, bool) {
	return chain.App.IBCKeeper.ClientKeeper.GetClientConsensusState(chain.GetContext(), clientID, height)
}

// GetClientLatestHeight returns the latest height of the client.
func (chain *TestChain) GetClientLatestHeight(clientID string) clienttypes.Height {
	return chain.App.IBCKeeper.ClientKeeper.GetClientLatestHeight(chain.GetContext(), clientID)
}

// GetPrefix returns the prefix for used by a chain in connection creation
func (chain *TestChain) GetPrefix() commitmenttypes.MerklePrefix {
	return commitmenttypes.NewMerklePrefix(chain.App.IBCKeeper.ConnectionKeeper.GetCommitmentPrefix().Bytes())
}

// GetTimeoutHeight is a convenience function which returns a IBC packet timeout height
// to be used for testing. It returns the current IBC height + 100 blocks
func (chain *TestChain) GetTimeoutHeight() clienttypes.Height {
	return clienttypes.NewHeight(0, uint64(chain.GetContext().BlockHeight())+100)
}

// Balance returns the balance of denom held by address.
func (chain *TestChain) Balance(address sdk.AccAddress, denom string) sdk.Int {
	return chain.App.FungiblesKeeper.Balance(chain.GetContext(), denom, address)
}
