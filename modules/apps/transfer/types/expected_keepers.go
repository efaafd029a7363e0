package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// FungiblesKeeper defines the expected token ledger
type FungiblesKeeper interface {
	Balance(ctx sdk.Context, denom string, account sdk.AccAddress) sdk.Int
	Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount sdk.Int) error
	MintInto(ctx sdk.Context, denom string, to sdk.AccAddress, amount sdk.Int) error
	BurnFrom(ctx sdk.Context, denom string, from sdk.AccAddress, amount sdk.Int) error
}

// ChannelKeeper defines the expected IBC channel keeper
type ChannelKeeper interface {
	GetChannel(ctx sdk.Context, srcPort, srcChan string) (channel channeltypes.Channel, found bool)
	GetNextSequenceSend(ctx sdk.Context, portID, channelID string) (uint64, bool)
}

// PortKeeper defines the expected IBC port keeper
type PortKeeper interface {
	BindPort(ctx sdk.Context, portID string) *capabilitytypes.Capability
}
