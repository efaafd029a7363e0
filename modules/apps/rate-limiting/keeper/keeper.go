package keeper

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// Keeper maintains the link to storage and exposes getter/setter methods for the various parts of the state machine
type Keeper struct {
	storeKey sdk.StoreKey

	ics4Wrapper   porttypes.ICS4Wrapper
	channelKeeper types.ChannelKeeper
	limiter       types.RateLimiter
}

// NewKeeper creates a new rate-limiting Keeper instance. The keeper limits
// flows with its own WindowQuota until SetRateLimiter installs another policy.
func NewKeeper(key sdk.StoreKey, ics4Wrapper porttypes.ICS4Wrapper, channelKeeper types.ChannelKeeper) *Keeper {
	k := &Keeper{
		storeKey:      key,
		ics4Wrapper:   ics4Wrapper,
		channelKeeper: channelKeeper,
	}
	k.limiter = NewWindowQuota(k)
	return k
}

// SetICS4Wrapper sets the ICS4Wrapper packets are handed to once allowed.
func (k *Keeper) SetICS4Wrapper(ics4Wrapper porttypes.ICS4Wrapper) {
	k.ics4Wrapper = ics4Wrapper
}

// GetICS4Wrapper returns the ICS4Wrapper.
func (k Keeper) GetICS4Wrapper() porttypes.ICS4Wrapper {
	return k.ics4Wrapper
}

// SetRateLimiter replaces the rate limiting policy.
func (k *Keeper) SetRateLimiter(limiter types.RateLimiter) {
	k.limiter = limiter
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s-%s", host.ModuleName, types.ModuleName))
}

// GetParams returns the rate limiting parameters.
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := ctx.KVStore(k.storeKey).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}

	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		panic(err)
	}
	return params
}

// SetParams sets the rate limiting parameters. Flows recorded so far are kept.
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) {
	bz, err := json.Marshal(params)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(types.ParamsKey, bz)
}

// GetFlow returns the flow of denom, if any was recorded.
func (k Keeper) GetFlow(ctx sdk.Context, denom string) (types.Flow, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.FlowKey(denom))
	if bz == nil {
		return types.Flow{}, false
	}

	var flow types.Flow
	if err := json.Unmarshal(bz, &flow); err != nil {
		panic(err)
	}
	return flow, true
}

// SetFlow stores the flow of denom.
func (k Keeper) SetFlow(ctx sdk.Context, denom string, flow types.Flow) {
	bz, err := json.Marshal(flow)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(types.FlowKey(denom), bz)
}

// InitGenesis initializes the rate limiting state from a provided genesis state.
func (k Keeper) InitGenesis(ctx sdk.Context, state types.GenesisState) {
	if err := state.Validate(); err != nil {
		panic(fmt.Sprintf("invalid rate limiting genesis state: %s", err))
	}
	k.SetParams(ctx, state.Params)
}

// ExportGenesis exports the rate limiting parameters.
func (k Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	return &types.GenesisState{Params: k.GetParams(ctx)}
}
