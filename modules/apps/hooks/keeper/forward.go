package keeper

import (
	"fmt"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
)

// ForwardTransferPacket sends denom held by the intermediate account sender to
// the next hop described by metadata. The first attempt records srcPacket as
// in flight; retries pass the existing record, which loses one retry.
func (k Keeper) ForwardTransferPacket(
	ctx sdk.Context,
	inFlightPacket *types.InFlightPacket,
	srcPacket channeltypes.Packet,
	srcPacketSender string,
	sender sdk.AccAddress,
	metadata types.ForwardMetadata,
	denom string,
	amount sdk.Int,
	maxRetries uint8,
	timeout time.Duration,
) error {
	memo := metadata.Next.String()
	timeoutTimestamp := uint64(ctx.BlockTime().UnixNano()) + uint64(timeout.Nanoseconds())

	k.Logger(ctx).Debug("forwarding transfer packet",
		"port", metadata.Port, "channel", metadata.Channel,
		"sender", sender.String(), "receiver", metadata.Receiver,
		"amount", amount.String(), "denom", denom,
	)

	sequence, err := k.transferKeeper.SendTransfer(
		ctx, metadata.Port, metadata.Channel, denom, amount,
		sender, metadata.Receiver, clienttypes.ZeroHeight(), timeoutTimestamp, memo,
	)
	if err != nil {
		k.Logger(ctx).Error("forward transfer failed",
			"port", metadata.Port, "channel", metadata.Channel,
			"sender", sender.String(), "receiver", metadata.Receiver,
			"amount", amount.String(), "denom", denom,
			"error", err,
		)
		return sdkerrors.Wrap(types.ErrForwardTransferFailed, err.Error())
	}

	if inFlightPacket == nil {
		record := types.NewInFlightPacket(srcPacket, srcPacketSender, maxRetries, uint64(timeout.Nanoseconds()))
		inFlightPacket = &record
	} else {
		inFlightPacket.RetriesRemaining--
	}
	k.SetInFlightPacket(ctx, metadata.Channel, metadata.Port, sequence, *inFlightPacket)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeForward,
			sdk.NewAttribute(types.AttributeKeyReceiver, metadata.Receiver),
			sdk.NewAttribute(types.AttributeKeyChannel, metadata.Channel),
			sdk.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", sequence)),
			sdk.NewAttribute(types.AttributeKeyRetries, fmt.Sprintf("%d", inFlightPacket.RetriesRemaining)),
		),
	)

	defer func() {
		telemetry.IncrCounterWithLabels(
			[]string{"ibc", types.ModuleName, "forward"},
			1,
			[]metrics.Label{
				telemetry.NewLabel(coretypes.LabelSourcePort, metadata.Port),
				telemetry.NewLabel(coretypes.LabelSourceChannel, metadata.Channel),
				telemetry.NewLabel(coretypes.LabelDenom, denom),
			},
		)
	}()
	return nil
}

// TimeoutShouldRetry returns the forward record of the timed out packet, or
// nil when the packet was not forwarded. An error is returned together with
// the record once the retries are exhausted.
func (k Keeper) TimeoutShouldRetry(ctx sdk.Context, packet channeltypes.Packet) (*types.InFlightPacket, error) {
	inFlightPacket, found := k.GetInFlightPacket(ctx, packet.SourceChannel, packet.SourcePort, packet.Sequence)
	if !found {
		return nil, nil
	}
	if inFlightPacket.RetriesRemaining <= 0 {
		k.Logger(ctx).Error("forward reached max retries",
			"original-sender-address", inFlightPacket.OriginalSenderAddress,
			"refund-channel-id", inFlightPacket.RefundChannelID,
			"refund-port-id", inFlightPacket.RefundPortID,
		)
		return &inFlightPacket, sdkerrors.Wrapf(types.ErrMaxRetries, "giving up on packet on channel (%s) port (%s)",
			inFlightPacket.RefundChannelID, inFlightPacket.RefundPortID)
	}
	return &inFlightPacket, nil
}

// RetryTimeout resends the content of the timed out packet on the same channel.
// The refund of the timeout already returned the funds to the intermediate account.
func (k Keeper) RetryTimeout(
	ctx sdk.Context,
	packet channeltypes.Packet,
	data transfertypes.FungibleTokenPacketData,
	inFlightPacket *types.InFlightPacket,
) error {
	sender, err := sdk.AccAddressFromBech32(data.Sender)
	if err != nil {
		return sdkerrors.Wrap(types.ErrForwardTransferFailed, err.Error())
	}
	amount, err := data.GetAmount()
	if err != nil {
		return err
	}

	metadata := types.ForwardMetadata{
		Receiver: data.Receiver,
		Port:     packet.SourcePort,
		Channel:  packet.SourceChannel,
	}
	if data.Memo != "" {
		metadata.Next = types.NewJSONObject(data.Memo)
	}

	k.RemoveInFlightPacket(ctx, packet.SourceChannel, packet.SourcePort, packet.Sequence)
	return k.ForwardTransferPacket(
		ctx, inFlightPacket, channeltypes.Packet{}, "",
		sender, metadata, data.Denom, amount,
		uint8(inFlightPacket.RetriesRemaining),
		time.Duration(inFlightPacket.Timeout),
	)
}

// WriteAcknowledgementForForwardedPacket completes the inbound packet recorded
// by inFlightPacket once its forward, packet, was acknowledged or gave up. A
// failed forward undoes the credit of the inbound packet, so that the error
// acknowledgement refunds the previous hop.
func (k Keeper) WriteAcknowledgementForForwardedPacket(
	ctx sdk.Context,
	packet channeltypes.Packet,
	data transfertypes.FungibleTokenPacketData,
	inFlightPacket types.InFlightPacket,
	ack channeltypes.Acknowledgement,
) error {
	k.RemoveInFlightPacket(ctx, packet.SourceChannel, packet.SourcePort, packet.Sequence)

	inboundPacket := inFlightPacket.ChannelPacket()
	if !ack.Success() {
		inboundData, err := transfertypes.UnmarshalPacketData(inboundPacket.Data)
		if err != nil {
			return err
		}
		holder, err := sdk.AccAddressFromBech32(data.Sender)
		if err != nil {
			return err
		}
		if err := k.transferKeeper.UndoRecvPacket(ctx, inboundPacket, inboundData, holder); err != nil {
			return sdkerrors.Wrap(err, "failed to undo the credit of the forwarded packet")
		}
		// the error code is kept, the error string of the next hop is not
		ack = channeltypes.NewErrorAcknowledgement(sdkerrors.Wrap(types.ErrForwardTransferFailed, ack.Error))
	}

	portCap, err := k.transferKeeper.GetPortCapability(ctx, inFlightPacket.RefundPortID)
	if err != nil {
		return err
	}
	if err := k.ics4Wrapper.WriteAcknowledgement(ctx, portCap, inboundPacket, ack); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeForwardComplete,
			sdk.NewAttribute(types.AttributeKeyChannel, inFlightPacket.RefundChannelID),
			sdk.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", inFlightPacket.RefundSequence)),
			sdk.NewAttribute(types.AttributeKeySuccess, fmt.Sprintf("%t", ack.Success())),
		),
	)
	return nil
}
