package simapp

import (
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	contractskeeper "github.com/ComposableFi/centauri/modules/apps/contracts/keeper"
	cvmkeeper "github.com/ComposableFi/centauri/modules/apps/cvm/keeper"
	cvmtypes "github.com/ComposableFi/centauri/modules/apps/cvm/types"
	fungibleskeeper "github.com/ComposableFi/centauri/modules/apps/fungibles/keeper"
	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
	"github.com/ComposableFi/centauri/modules/apps/hooks"
	hookskeeper "github.com/ComposableFi/centauri/modules/apps/hooks/keeper"
	hookstypes "github.com/ComposableFi/centauri/modules/apps/hooks/types"
	ratelimiting "github.com/ComposableFi/centauri/modules/apps/rate-limiting"
	ratelimitkeeper "github.com/ComposableFi/centauri/modules/apps/rate-limiting/keeper"
	ratelimittypes "github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	"github.com/ComposableFi/centauri/modules/apps/transfer"
	transferkeeper "github.com/ComposableFi/centauri/modules/apps/transfer/keeper"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	capabilitykeeper "github.com/ComposableFi/centauri/modules/capability/keeper"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	ibckeeper "github.com/ComposableFi/centauri/modules/core/keeper"
	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
	beefytypes "github.com/ComposableFi/centauri/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/centauri/testing/mock"
)

const (
	// AppName is the name of the application.
	AppName = "centauri"

	// Bech32Prefix is the account address prefix of centauri chains.
	Bech32Prefix = "centauri"
)

// SetAddressPrefixes configures the global sdk config with the centauri
// bech32 prefixes.
func SetAddressPrefixes() {
	config := sdk.GetConfig()
	config.SetBech32PrefixForAccount(Bech32Prefix, Bech32Prefix+sdk.PrefixPublic)
	config.SetBech32PrefixForValidator(Bech32Prefix+sdk.PrefixValidator+sdk.PrefixOperator, Bech32Prefix+sdk.PrefixValidator+sdk.PrefixOperator+sdk.PrefixPublic)
	config.SetBech32PrefixForConsensusNode(Bech32Prefix+sdk.PrefixValidator+sdk.PrefixConsensus, Bech32Prefix+sdk.PrefixValidator+sdk.PrefixConsensus+sdk.PrefixPublic)
}

// CentauriApp wires core IBC, the light clients and the application stack
// (ICS-20 transfer behind rate limiting and memo hooks, the CVM gateway) on
// top of a commit multistore. Blocks are driven explicitly with BeginBlock
// and Commit.
type CentauriApp struct {
	logger log.Logger
	cms    sdk.CommitMultiStore

	keys    map[string]*sdk.KVStoreKey
	memKeys map[string]*sdk.MemoryStoreKey

	// keepers
	CapabilityKeeper *capabilitykeeper.Keeper
	IBCKeeper        *ibckeeper.Keeper
	FungiblesKeeper  fungibleskeeper.Keeper
	TransferKeeper   *transferkeeper.Keeper
	RateLimitKeeper  *ratelimitkeeper.Keeper
	HooksKeeper      *hookskeeper.Keeper
	ContractsKeeper  *contractskeeper.Keeper
	CVMKeeper        *cvmkeeper.Keeper

	// make scoped keepers public for test purposes
	ScopedIBCKeeper      capabilitykeeper.ScopedKeeper
	ScopedTransferKeeper capabilitykeeper.ScopedKeeper

	deliverState *state
}

// state is the branch of the multistore a block executes on.
type state struct {
	ms  sdk.CacheMultiStore
	ctx sdk.Context
}

// NewCentauriApp returns a reference to an initialized CentauriApp backed by db.
func NewCentauriApp(logger log.Logger, db dbm.DB) *CentauriApp {
	keys := sdk.NewKVStoreKeys(
		host.StoreKey, fungiblestypes.StoreKey, transfertypes.StoreKey,
		ratelimittypes.StoreKey, hookstypes.StoreKey, cvmtypes.StoreKey,
	)
	memKeys := sdk.NewMemoryStoreKeys(capabilitytypes.MemStoreKey)

	cms := store.NewCommitMultiStore(db)
	for _, key := range keys {
		cms.MountStoreWithDB(key, sdk.StoreTypeIAVL, nil)
	}
	for _, key := range memKeys {
		cms.MountStoreWithDB(key, sdk.StoreTypeMemory, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		panic(err)
	}

	app := &CentauriApp{
		logger:  logger,
		cms:     cms,
		keys:    keys,
		memKeys: memKeys,
	}

	app.CapabilityKeeper = capabilitykeeper.NewKeeper(memKeys[capabilitytypes.MemStoreKey])
	app.ScopedIBCKeeper = app.CapabilityKeeper.ScopeToModule(host.ModuleName)
	app.ScopedTransferKeeper = app.CapabilityKeeper.ScopeToModule(transfertypes.ModuleName)
	app.CapabilityKeeper.Seal()

	clientRouter := clienttypes.NewRouter().
		AddRoute(grandpatypes.LightClientModule{}).
		AddRoute(beefytypes.LightClientModule{})
	app.IBCKeeper = ibckeeper.NewKeeper(keys[host.StoreKey], clientRouter, app.ScopedIBCKeeper)

	app.FungiblesKeeper = fungibleskeeper.NewKeeper(keys[fungiblestypes.StoreKey])

	// the rate limiting middleware is installed as ICS4Wrapper once it exists
	app.TransferKeeper = transferkeeper.NewKeeper(
		keys[transfertypes.StoreKey], nil,
		app.IBCKeeper.ChannelKeeper, &app.IBCKeeper.PortKeeper,
		app.FungiblesKeeper, app.ScopedTransferKeeper,
	)
	app.RateLimitKeeper = ratelimitkeeper.NewKeeper(
		keys[ratelimittypes.StoreKey], app.IBCKeeper.ChannelKeeper, app.IBCKeeper.ChannelKeeper,
	)

	app.ContractsKeeper = contractskeeper.NewKeeper(app.FungiblesKeeper)
	app.HooksKeeper = hookskeeper.NewKeeper(
		keys[hookstypes.StoreKey], app.TransferKeeper, app.ContractsKeeper, app.IBCKeeper.ChannelKeeper,
	)
	app.CVMKeeper = cvmkeeper.NewKeeper(
		keys[cvmtypes.StoreKey], app.FungiblesKeeper, app.TransferKeeper, app.ContractsKeeper,
	)
	app.ContractsKeeper.RegisterContract(cvmtypes.GatewayAddress, cvmkeeper.NewGateway(app.CVMKeeper))
	app.ContractsKeeper.Seal()

	// transfer stack: hooks -> rate limiting -> transfer
	rateLimitMiddleware := ratelimiting.NewIBCMiddleware(transfer.NewIBCModule(app.TransferKeeper), app.RateLimitKeeper)
	transferStack := hooks.NewIBCMiddleware(rateLimitMiddleware, app.HooksKeeper)
	app.TransferKeeper.SetICS4Wrapper(rateLimitMiddleware)
	app.TransferKeeper.SetHooks(transfertypes.NewMultiTransferHooks(app.HooksKeeper, app.CVMKeeper))

	ibcRouter := porttypes.NewRouter()
	ibcRouter.AddRoute(transfertypes.PortID, transferStack)
	ibcRouter.AddRoute(mock.ModuleName, mock.NewIBCModule(mock.NewIBCApp(mock.PortID)))
	app.IBCKeeper.SetRouter(ibcRouter)

	return app
}

// Logger returns the application logger.
func (app *CentauriApp) Logger() log.Logger {
	return app.logger
}

// InitChain starts the first block and initializes every module from genesis.
func (app *CentauriApp) InitChain(header tmproto.Header, genesis GenesisState) {
	if err := genesis.Validate(); err != nil {
		panic(err)
	}
	app.BeginBlock(header)
	ctx := app.deliverState.ctx

	app.IBCKeeper.ClientKeeper.SetParams(ctx, genesis.Client)
	for _, balance := range genesis.Balances {
		address, err := sdk.AccAddressFromBech32(balance.Address)
		if err != nil {
			panic(err)
		}
		for _, coin := range balance.Coins {
			if err := app.FungiblesKeeper.MintInto(ctx, coin.Denom, address, coin.Amount); err != nil {
				panic(err)
			}
		}
	}
	// the mock port is owned by core IBC, test packets are sent with its capability
	app.IBCKeeper.PortKeeper.BindPort(ctx, mock.PortID)
	app.TransferKeeper.InitGenesis(ctx, genesis.Transfer)
	app.RateLimitKeeper.InitGenesis(ctx, genesis.RateLimit)
	app.CVMKeeper.InitGenesis(ctx, genesis.CVM)
}

// BeginBlock branches the committed state for a new block.
func (app *CentauriApp) BeginBlock(header tmproto.Header) {
	ms := app.cms.CacheMultiStore()
	app.deliverState = &state{
		ms:  ms,
		ctx: sdk.NewContext(ms, header, false, app.logger),
	}
}

// Context returns the context of the block being executed. It panics when no
// block was begun.
func (app *CentauriApp) Context() sdk.Context {
	if app.deliverState == nil {
		panic("no block in progress")
	}
	return app.deliverState.ctx
}

// SetBlockTime moves the time of the block being executed.
func (app *CentauriApp) SetBlockTime(t time.Time) {
	if app.deliverState == nil {
		return
	}
	app.deliverState.ctx = app.deliverState.ctx.WithBlockTime(t)
}

// Commit writes the block state and commits the multistore.
func (app *CentauriApp) Commit() sdk.CommitID {
	app.deliverState.ms.Write()
	commitID := app.cms.Commit()
	app.deliverState = nil
	return commitID
}

// LastCommitID returns the id of the latest committed version.
func (app *CentauriApp) LastCommitID() sdk.CommitID {
	return app.cms.LastCommitID()
}

// IBCStore returns the committed IBC store. Its contents are the state
// committed to by the chain's consensus root.
func (app *CentauriApp) IBCStore() sdk.KVStore {
	return app.cms.GetKVStore(app.keys[host.StoreKey])
}

// GetKey returns the KVStoreKey for the provided store key.
func (app *CentauriApp) GetKey(storeKey string) *sdk.KVStoreKey {
	return app.keys[storeKey]
}
