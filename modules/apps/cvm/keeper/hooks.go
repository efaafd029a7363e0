package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

var _ transfertypes.TransferHooks = Keeper{}

// AfterSendTransfer implements transfertypes.TransferHooks. Spawn records are
// written by the interpreter, which knows the origin of the packet.
func (k Keeper) AfterSendTransfer(sdk.Context, string, string, uint64, transfertypes.FungibleTokenPacketData) error {
	return nil
}

// AfterRecvTransfer implements transfertypes.TransferHooks.
func (k Keeper) AfterRecvTransfer(sdk.Context, channeltypes.Packet, transfertypes.FungibleTokenPacketData) error {
	return nil
}

// AfterAcknowledgement settles the spawn record of packet. A failed spawn
// has already been refunded to the interpreter by the transfer module.
func (k Keeper) AfterAcknowledgement(ctx sdk.Context, packet channeltypes.Packet, _ transfertypes.FungibleTokenPacketData, success bool) error {
	record, found := k.GetSpawn(ctx, packet.SourceChannel, packet.Sequence)
	if !found || record.Status != types.SpawnEmitted {
		return nil
	}
	record.Status = types.SpawnAcknowledged
	record.Success = success
	k.advance(ctx, record, types.SpawnSettled)
	return nil
}

// AfterTimeout marks the spawn record of packet refunded.
func (k Keeper) AfterTimeout(ctx sdk.Context, packet channeltypes.Packet, _ transfertypes.FungibleTokenPacketData) error {
	record, found := k.GetSpawn(ctx, packet.SourceChannel, packet.Sequence)
	if !found || record.Status != types.SpawnEmitted {
		return nil
	}
	record.Status = types.SpawnTimedOut
	k.advance(ctx, record, types.SpawnRefunded)
	return nil
}

// advance moves the record from its intermediate status to final.
func (k Keeper) advance(ctx sdk.Context, record types.SpawnRecord, final types.SpawnStatus) {
	k.Logger(ctx).Info(
		"spawn packet completed",
		"channel", record.ChannelID, "sequence", record.Sequence,
		"status", record.Status.String(), "success", record.Success,
	)
	record.Status = final
	k.SetSpawn(ctx, record)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSpawnSettled,
			sdk.NewAttribute(types.AttributeKeyInterpreter, record.Interpreter),
			sdk.NewAttribute(types.AttributeKeyChannel, record.ChannelID),
			sdk.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", record.Sequence)),
			sdk.NewAttribute(types.AttributeKeyStatus, final.String()),
			sdk.NewAttribute(types.AttributeKeySuccess, fmt.Sprintf("%t", record.Success)),
		),
	)
}
