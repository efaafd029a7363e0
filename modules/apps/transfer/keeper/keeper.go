package keeper

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
	capabilitykeeper "github.com/ComposableFi/centauri/modules/capability/keeper"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// Keeper defines the IBC fungible transfer keeper
type Keeper struct {
	storeKey sdk.StoreKey

	ics4Wrapper     porttypes.ICS4Wrapper
	channelKeeper   types.ChannelKeeper
	portKeeper      types.PortKeeper
	fungiblesKeeper types.FungiblesKeeper
	scopedKeeper    capabilitykeeper.ScopedKeeper

	hooks types.TransferHooks
}

// NewKeeper creates a new IBC transfer Keeper instance
func NewKeeper(
	key sdk.StoreKey,
	ics4Wrapper porttypes.ICS4Wrapper, channelKeeper types.ChannelKeeper, portKeeper types.PortKeeper,
	fungiblesKeeper types.FungiblesKeeper, scopedKeeper capabilitykeeper.ScopedKeeper,
) *Keeper {
	return &Keeper{
		storeKey:        key,
		ics4Wrapper:     ics4Wrapper,
		channelKeeper:   channelKeeper,
		portKeeper:      portKeeper,
		fungiblesKeeper: fungiblesKeeper,
		scopedKeeper:    scopedKeeper,
	}
}

// SetICS4Wrapper sets the ICS4Wrapper. Middleware placed between the transfer
// keeper and core IBC is installed after construction.
func (k *Keeper) SetICS4Wrapper(wrapper porttypes.ICS4Wrapper) {
	k.ics4Wrapper = wrapper
}

// GetICS4Wrapper returns the ICS4Wrapper.
func (k Keeper) GetICS4Wrapper() porttypes.ICS4Wrapper {
	return k.ics4Wrapper
}

// SetHooks sets the transfer hooks. It panics when hooks were already set.
func (k *Keeper) SetHooks(th types.TransferHooks) *Keeper {
	if k.hooks != nil {
		panic("cannot set transfer hooks twice")
	}
	k.hooks = th
	return k
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s-%s", host.ModuleName, types.ModuleName))
}

// IsBound checks if the transfer module is already bound to the desired port
func (k Keeper) IsBound(ctx sdk.Context, portID string) bool {
	_, ok := k.scopedKeeper.GetCapability(ctx, host.PortPath(portID))
	return ok
}

// BindPort defines a wrapper function for the port Keeper's function in
// order to expose it to module's InitGenesis function
func (k Keeper) BindPort(ctx sdk.Context, portID string) error {
	capability := k.portKeeper.BindPort(ctx, portID)
	return k.ClaimCapability(ctx, capability, host.PortPath(portID))
}

// GetPort returns the portID for the transfer module. Used in ExportGenesis
func (k Keeper) GetPort(ctx sdk.Context) string {
	store := ctx.KVStore(k.storeKey)
	return string(store.Get(types.PortKey))
}

// SetPort sets the portID for the transfer module. Used in InitGenesis
func (k Keeper) SetPort(ctx sdk.Context, portID string) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.PortKey, []byte(portID))
}

// GetPortCapability returns the capability of the bound transfer port. Middleware
// in the transfer stack uses it to write asynchronous acknowledgements.
func (k Keeper) GetPortCapability(ctx sdk.Context, portID string) (*capabilitytypes.Capability, error) {
	capability, ok := k.scopedKeeper.GetCapability(ctx, host.PortPath(portID))
	if !ok {
		return nil, sdkerrors.Wrapf(channeltypes.ErrPortCapabilityNotFound, "transfer module does not own port %s", portID)
	}
	return capability, nil
}

// ClaimCapability allows the transfer module that can claim a capability that IBC module
// passes to it
func (k Keeper) ClaimCapability(ctx sdk.Context, cap *capabilitytypes.Capability, name string) error {
	return k.scopedKeeper.ClaimCapability(ctx, cap, name)
}

// GetParams returns the current transfer module parameters.
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}

	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		panic(err)
	}
	return params
}

// SetParams sets the transfer module parameters.
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) {
	bz, err := json.Marshal(params)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(types.ParamsKey, bz)
}

// GetTotalEscrowForDenom gets the total amount of source chain tokens that
// are in escrow, keyed by the denomination.
func (k Keeper) GetTotalEscrowForDenom(ctx sdk.Context, denom string) sdk.Int {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.TotalEscrowForDenomKey(denom))
	if bz == nil {
		return sdk.ZeroInt()
	}

	var amount sdk.Int
	if err := amount.Unmarshal(bz); err != nil {
		panic(err)
	}
	return amount
}

// SetTotalEscrowForDenom stores the total amount of source chain tokens that are in escrow.
// Amount is stored in state if and only if it is not equal to zero. The function will panic
// if the amount is negative.
func (k Keeper) SetTotalEscrowForDenom(ctx sdk.Context, denom string, amount sdk.Int) {
	if amount.IsNegative() {
		panic(fmt.Errorf("amount cannot be negative: %s", amount))
	}

	store := ctx.KVStore(k.storeKey)
	key := types.TotalEscrowForDenomKey(denom)

	if amount.IsZero() {
		store.Delete(key) // delete the key since Cosmos SDK x/bank module will prune any non-zero balances
		return
	}

	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	store.Set(key, bz)
}
