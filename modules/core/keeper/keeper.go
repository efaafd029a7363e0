package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/libs/log"

	capabilitykeeper "github.com/ComposableFi/centauri/modules/capability/keeper"
	clientkeeper "github.com/ComposableFi/centauri/modules/core/02-client/keeper"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectionkeeper "github.com/ComposableFi/centauri/modules/core/03-connection/keeper"
	channelkeeper "github.com/ComposableFi/centauri/modules/core/04-channel/keeper"
	portkeeper "github.com/ComposableFi/centauri/modules/core/05-port/keeper"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// Keeper defines each ICS keeper for IBC
type Keeper struct {
	ClientKeeper     clientkeeper.Keeper
	ConnectionKeeper connectionkeeper.Keeper
	ChannelKeeper    channelkeeper.Keeper
	PortKeeper       portkeeper.Keeper
	Router           *porttypes.Router
}

// NewKeeper creates a new ibc Keeper. All IBC state lives under a single store
// key so that it is covered by one commitment root.
func NewKeeper(
	key sdk.StoreKey, clientRouter *clienttypes.Router, scopedKeeper capabilitykeeper.ScopedKeeper,
) *Keeper {
	clientKeeper := clientkeeper.NewKeeper(key, clientRouter)
	connectionKeeper := connectionkeeper.NewKeeper(key, clientKeeper)
	portKeeper := portkeeper.NewKeeper(scopedKeeper)
	channelKeeper := channelkeeper.NewKeeper(key, clientKeeper, connectionKeeper, portKeeper)

	return &Keeper{
		ClientKeeper:     clientKeeper,
		ConnectionKeeper: connectionKeeper,
		ChannelKeeper:    channelKeeper,
		PortKeeper:       portKeeper,
	}
}

// SetRouter sets the Router in IBC Keeper and seals it. The method panics if
// there is an existing router that's already sealed.
func (k *Keeper) SetRouter(rtr *porttypes.Router) {
	if k.Router != nil && k.Router.Sealed() {
		panic("cannot reset a sealed router")
	}

	k.Router = rtr
	k.Router.Seal()
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", host.ModuleName))
}
