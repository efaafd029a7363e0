package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// RateLimitedPacketInfo holds the fields of an ICS-20 packet the rate limiter acts on.
type RateLimitedPacketInfo struct {
	ChannelID string
	Denom     string
	Amount    sdk.Int
	Sender    string
	Receiver  string
}

// ParsePacketInfo parses the channel, ledger denom and amount of a transfer
// packet as seen from this chain.
//
// For a SEND packet the channel is the source channel and the denom is the
// packet denom, which is the ledger denom of the escrowed or burned tokens.
// For a RECV packet the channel is the destination channel and the denom is
// the one the receiver is credited with: the sender hop is removed when this
// chain is the source, otherwise the destination hop is prepended.
func ParsePacketInfo(packet channeltypes.Packet, direction types.PacketDirection) (RateLimitedPacketInfo, error) {
	packetData, err := transfertypes.UnmarshalPacketData(packet.GetData())
	if err != nil {
		return RateLimitedPacketInfo{}, sdkerrors.Wrap(types.ErrInvalidPacketData, err.Error())
	}

	amount, err := packetData.GetAmount()
	if err != nil {
		return RateLimitedPacketInfo{}, sdkerrors.Wrap(types.ErrInvalidPacketData, err.Error())
	}

	var channelID, denom string
	switch direction {
	case types.PACKET_SEND:
		channelID = packet.GetSourceChannel()
		denom = packetData.Denom
	case types.PACKET_RECV:
		channelID = packet.GetDestChannel()
		denom = transfertypes.GetReceivedDenom(
			packet.GetSourcePort(), packet.GetSourceChannel(),
			packet.GetDestPort(), packet.GetDestChannel(), packetData.Denom,
		)
	default:
		return RateLimitedPacketInfo{}, sdkerrors.Wrap(types.ErrInvalidDirection, direction.String())
	}

	return RateLimitedPacketInfo{
		ChannelID: channelID,
		Denom:     denom,
		Amount:    amount,
		Sender:    packetData.Sender,
		Receiver:  packetData.Receiver,
	}, nil
}

// SendRateLimitedPacket checks whether the outflow of the packet is allowed
// and records the packet so a failure can undo its outflow. Packets that are
// not ICS-20 transfers pass unchecked.
func (k Keeper) SendRateLimitedPacket(
	ctx sdk.Context, sourcePort, sourceChannel string,
	timeoutHeight clienttypes.Height, timeoutTimestamp uint64, data []byte,
) error {
	seq, found := k.channelKeeper.GetNextSequenceSend(ctx, sourcePort, sourceChannel)
	if !found {
		return sdkerrors.Wrapf(channeltypes.ErrSequenceSendNotFound, "source port: %s, source channel: %s", sourcePort, sourceChannel)
	}

	packet := channeltypes.Packet{
		Sequence:         seq,
		SourcePort:       sourcePort,
		SourceChannel:    sourceChannel,
		TimeoutHeight:    timeoutHeight,
		TimeoutTimestamp: timeoutTimestamp,
		Data:             data,
	}

	packetInfo, err := ParsePacketInfo(packet, types.PACKET_SEND)
	if err != nil {
		k.Logger(ctx).Debug("send packet is not rate limited", "error", err)
		return nil
	}

	if err := k.limiter.CheckAndUpdate(ctx, packetInfo.Denom, packetInfo.Amount, types.PACKET_SEND); err != nil {
		emitRateLimitExceededEvent(ctx, packetInfo, types.PACKET_SEND)
		return err
	}

	k.SetPendingSendPacket(ctx, packetInfo.ChannelID, seq, ctx.BlockTime())
	return nil
}

// ReceiveRateLimitedPacket checks whether the inflow of the packet is allowed.
// Packet data the rate limiter cannot parse is left to the application.
func (k Keeper) ReceiveRateLimitedPacket(ctx sdk.Context, packet channeltypes.Packet) error {
	packetInfo, err := ParsePacketInfo(packet, types.PACKET_RECV)
	if err != nil {
		k.Logger(ctx).Error("unable to parse packet data for rate limiting", "error", err)
		return nil
	}

	if err := k.limiter.CheckAndUpdate(ctx, packetInfo.Denom, packetInfo.Amount, types.PACKET_RECV); err != nil {
		emitRateLimitExceededEvent(ctx, packetInfo, types.PACKET_RECV)
		return err
	}
	return nil
}

// AcknowledgeRateLimitedPacket forgets a successfully acknowledged packet and
// undoes the outflow of a failed one.
func (k Keeper) AcknowledgeRateLimitedPacket(ctx sdk.Context, packet channeltypes.Packet, acknowledgement []byte) error {
	ack, err := channeltypes.UnmarshalAcknowledgement(acknowledgement)
	if err != nil {
		return err
	}

	packetInfo, err := ParsePacketInfo(packet, types.PACKET_SEND)
	if err != nil {
		return err
	}

	if ack.Success() {
		k.RemovePendingSendPacket(ctx, packetInfo.ChannelID, packet.Sequence)
		return nil
	}
	return k.UndoSendPacket(ctx, packetInfo.ChannelID, packet.Sequence, packetInfo.Denom, packetInfo.Amount)
}

// TimeoutRateLimitedPacket undoes the outflow of a timed out packet.
func (k Keeper) TimeoutRateLimitedPacket(ctx sdk.Context, packet channeltypes.Packet) error {
	packetInfo, err := ParsePacketInfo(packet, types.PACKET_SEND)
	if err != nil {
		return err
	}
	return k.UndoSendPacket(ctx, packetInfo.ChannelID, packet.Sequence, packetInfo.Denom, packetInfo.Amount)
}

// UndoSendPacket gives back the outflow of a pending packet to the rate limiter.
func (k Keeper) UndoSendPacket(ctx sdk.Context, channelID string, sequence uint64, denom string, amount sdk.Int) error {
	sentAt, found := k.GetPendingSendPacket(ctx, channelID, sequence)
	if !found {
		return sdkerrors.Wrapf(types.ErrPendingNotFound, "channel %s, sequence %d", channelID, sequence)
	}

	k.limiter.Revert(ctx, denom, amount, types.PACKET_SEND, sentAt)
	k.RemovePendingSendPacket(ctx, channelID, sequence)
	return nil
}

func emitRateLimitExceededEvent(ctx sdk.Context, info RateLimitedPacketInfo, direction types.PacketDirection) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRateLimitExceeded,
			sdk.NewAttribute(types.AttributeKeyDenom, info.Denom),
			sdk.NewAttribute(types.AttributeKeyAmount, info.Amount.String()),
			sdk.NewAttribute(types.AttributeKeyDirection, direction.String()),
			sdk.NewAttribute(types.AttributeKeyChannel, info.ChannelID),
		),
	)
}
