package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// TransferKeeper sends the forwarded transfers and undoes the credit of a
// packet whose forward failed.
type TransferKeeper interface {
	SendTransfer(
		ctx sdk.Context,
		sourcePort, sourceChannel string,
		denom string, amount sdk.Int,
		sender sdk.AccAddress, receiver string,
		timeoutHeight clienttypes.Height, timeoutTimestamp uint64,
		memo string,
	) (uint64, error)
	GetPortCapability(ctx sdk.Context, portID string) (*capabilitytypes.Capability, error)
	UndoRecvPacket(ctx sdk.Context, packet channeltypes.Packet, data transfertypes.FungibleTokenPacketData, holder sdk.AccAddress) error
}

// ContractKeeper executes the contracts named by wasm hooks and callbacks.
type ContractKeeper interface {
	Execute(ctx sdk.Context, contract, sender sdk.AccAddress, msg []byte, funds sdk.Coins) ([]byte, error)
}
