package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	capabilitykeeper "github.com/ComposableFi/centauri/modules/capability/keeper"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	"github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// Keeper defines the IBC port keeper
type Keeper struct {
	scopedKeeper capabilitykeeper.ScopedKeeper
}

// NewKeeper creates a new IBC port Keeper instance
func NewKeeper(sck capabilitykeeper.ScopedKeeper) Keeper {
	return Keeper{
		scopedKeeper: sck,
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s/%s", host.ModuleName, types.SubModuleName))
}

// IsBound checks a given port ID is already bounded.
func (k Keeper) IsBound(ctx sdk.Context, portID string) bool {
	_, ok := k.scopedKeeper.GetCapability(ctx, host.PortPath(portID))
	return ok
}

// BindPort binds to a port and returns the associated capability.
// Ports must be bound statically when the chain starts in `app.go`.
// The capability must then be passed to a module which will need to pass
// it as an extra parameter when calling functions on the IBC module.
func (k *Keeper) BindPort(ctx sdk.Context, portID string) *capabilitytypes.Capability {
	if err := host.PortIdentifierValidator(portID); err != nil {
		panic(err.Error())
	}

	if k.IsBound(ctx, portID) {
		panic(fmt.Sprintf("port %s is already bound", portID))
	}

	key, err := k.scopedKeeper.NewCapability(ctx, host.PortPath(portID))
	if err != nil {
		panic(err.Error())
	}

	k.Logger(ctx).Info("port binded", "port", portID)
	return key
}

// Authenticate authenticates a capability key against a port ID
// by checking if the memory address of the capability was previously
// generated and bound to the port (provided as a parameter) which the capability
// is being authenticated against.
func (k Keeper) Authenticate(ctx sdk.Context, key *capabilitytypes.Capability, portID string) bool {
	if err := host.PortIdentifierValidator(portID); err != nil {
		panic(err.Error())
	}

	return k.scopedKeeper.AuthenticateCapability(ctx, key, host.PortPath(portID))
}

// GetCapability returns the capability bound to the port, which core IBC uses
// when it acts on behalf of the module routed to that port.
func (k Keeper) GetCapability(ctx sdk.Context, portID string) (*capabilitytypes.Capability, error) {
	capability, found := k.scopedKeeper.GetCapability(ctx, host.PortPath(portID))
	if !found {
		return nil, sdkerrors.Wrapf(types.ErrPortNotFound, "port %s is not bound", portID)
	}
	return capability, nil
}
