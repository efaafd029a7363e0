package keeper

import (
	"strings"

	metrics "github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
)

// SendTransfer handles transfer sending logic. There are 2 possible cases:
//
// 1. Sender chain is acting as the source zone. The tokens are transferred
// from the sender account to the escrow address of the source channel. The
// denomination travels unchanged and the receiving chain prefixes it with its
// own port and channel.
//
// 2. Sender chain is acting as the sink zone. The denomination starts with the
// source port and channel of this hop, meaning the tokens came from the
// receiving chain. The vouchers are burned on the sender chain and the
// receiving chain unescrows the original tokens.
//
// Note: An IBC Transfer must be initiated using a MsgTransfer via the Transfer
// method. Other modules (memo hooks, the CVM interpreter) call SendTransfer
// directly with the accounts they control.
func (k Keeper) SendTransfer(
	ctx sdk.Context,
	sourcePort,
	sourceChannel string,
	denom string,
	amount sdk.Int,
	sender sdk.AccAddress,
	receiver string,
	timeoutHeight clienttypes.Height,
	timeoutTimestamp uint64,
	memo string,
) (uint64, error) {
	if !k.GetParams(ctx).SendEnabled {
		return 0, types.ErrSendDisabled
	}

	if _, found := k.channelKeeper.GetChannel(ctx, sourcePort, sourceChannel); !found {
		return 0, sdkerrors.Wrapf(channeltypes.ErrChannelNotFound, "port ID (%s) channel ID (%s)", sourcePort, sourceChannel)
	}

	if amount.IsNil() || !amount.IsPositive() {
		return 0, sdkerrors.Wrapf(types.ErrInvalidAmount, "amount must be strictly positive: got %s", amount)
	}

	portCap, err := k.GetPortCapability(ctx, sourcePort)
	if err != nil {
		return 0, err
	}

	labels := []metrics.Label{
		telemetry.NewLabel(coretypes.LabelSourcePort, sourcePort),
		telemetry.NewLabel(coretypes.LabelSourceChannel, sourceChannel),
	}

	// NOTE: SendTransfer simply sends the denomination as it exists on its own
	// chain inside the packet data. The receiving chain will perform denom
	// prefixing as necessary.

	if types.SenderChainIsSource(sourcePort, sourceChannel, denom) {
		labels = append(labels, telemetry.NewLabel(coretypes.LabelSource, "true"))

		// obtain the escrow address for the source channel end
		escrowAddress := types.GetEscrowAddress(sourcePort, sourceChannel)
		if err := k.escrowToken(ctx, sender, escrowAddress, denom, amount); err != nil {
			return 0, err
		}
	} else {
		labels = append(labels, telemetry.NewLabel(coretypes.LabelSource, "false"))

		// burn vouchers from the sender's balance if the source is from another chain
		if err := k.fungiblesKeeper.BurnFrom(ctx, denom, sender, amount); err != nil {
			return 0, sdkerrors.Wrap(err, "failed to burn vouchers")
		}
	}

	packetData := types.NewFungibleTokenPacketData(
		denom, amount.String(), sender.String(), receiver, memo,
	)

	sequence, err := k.ics4Wrapper.SendPacket(ctx, portCap, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, packetData.GetBytes())
	if err != nil {
		return 0, err
	}

	ctx.EventManager().EmitEvents(sdk.Events{
		sdk.NewEvent(
			types.EventTypeTransfer,
			sdk.NewAttribute(types.AttributeKeySender, sender.String()),
			sdk.NewAttribute(types.AttributeKeyReceiver, receiver),
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyMemo, memo),
		),
		sdk.NewEvent(
			sdk.EventTypeMessage,
			sdk.NewAttribute(sdk.AttributeKeyModule, types.ModuleName),
		),
	})

	if k.hooks != nil {
		if err := k.hooks.AfterSendTransfer(ctx, sourcePort, sourceChannel, sequence, packetData); err != nil {
			return 0, err
		}
	}

	defer func() {
		if amount.IsInt64() {
			telemetry.SetGaugeWithLabels(
				[]string{"tx", "msg", "ibc", "transfer"},
				float32(amount.Int64()),
				[]metrics.Label{telemetry.NewLabel(coretypes.LabelDenom, denom)},
			)
		}

		telemetry.IncrCounterWithLabels(
			[]string{"ibc", types.ModuleName, "send"},
			1,
			labels,
		)
	}()

	return sequence, nil
}

// OnRecvPacket processes a cross chain fungible token transfer. If the
// sender chain is the source of minted tokens then vouchers will be minted
// and sent to the receiving address. Otherwise if the sender chain is sending
// back tokens this chain originally transferred to it, the tokens are
// unescrowed and sent to the receiving address.
func (k Keeper) OnRecvPacket(ctx sdk.Context, packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
	// validate packet data upon receiving
	if err := data.ValidateBasic(); err != nil {
		return sdkerrors.Wrapf(err, "error validating ICS-20 transfer packet data")
	}

	if !k.GetParams(ctx).ReceiveEnabled {
		return types.ErrReceiveDisabled
	}

	// decode the receiver address
	receiver, err := sdk.AccAddressFromBech32(data.Receiver)
	if err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "failed to decode receiver address %s: %v", data.Receiver, err)
	}

	amount, err := data.GetAmount()
	if err != nil {
		return err
	}

	labels := []metrics.Label{
		telemetry.NewLabel(coretypes.LabelSourcePort, packet.GetSourcePort()),
		telemetry.NewLabel(coretypes.LabelSourceChannel, packet.GetSourceChannel()),
	}

	// This is the prefix that would have been prefixed to the denomination
	// on sender chain IF and only if the token originally came from the
	// receiving chain.
	//
	// NOTE: We use SourcePort and SourceChannel here, because the counterparty
	// chain would have prefixed with DestPort and DestChannel when originally
	// receiving this coin as seen in the "sender chain is the source" condition.
	denom := types.GetReceivedDenom(packet.GetSourcePort(), packet.GetSourceChannel(), packet.GetDestPort(), packet.GetDestChannel(), data.Denom)

	if types.ReceiverChainIsSource(packet.GetSourcePort(), packet.GetSourceChannel(), data.Denom) {
		labels = append(labels, telemetry.NewLabel(coretypes.LabelSource, "true"))

		// unescrow tokens
		escrowAddress := types.GetEscrowAddress(packet.GetDestPort(), packet.GetDestChannel())
		if err := k.unescrowToken(ctx, escrowAddress, receiver, denom, amount); err != nil {
			return err
		}
	} else {
		labels = append(labels, telemetry.NewLabel(coretypes.LabelSource, "false"))

		// sender chain is the source, mint vouchers
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeDenom,
				sdk.NewAttribute(types.AttributeKeyDenom, denom),
			),
		)

		if err := k.fungiblesKeeper.MintInto(ctx, denom, receiver, amount); err != nil {
			return sdkerrors.Wrapf(err, "failed to mint IBC tokens")
		}
	}

	if k.hooks != nil {
		if err := k.hooks.AfterRecvTransfer(ctx, packet, data); err != nil {
			return err
		}
	}

	defer func() {
		if amount.IsInt64() {
			telemetry.SetGaugeWithLabels(
				[]string{"ibc", types.ModuleName, "packet", "receive"},
				float32(amount.Int64()),
				[]metrics.Label{telemetry.NewLabel(coretypes.LabelDenom, data.Denom)},
			)
		}

		telemetry.IncrCounterWithLabels(
			[]string{"ibc", types.ModuleName, "receive"},
			1,
			labels,
		)
	}()

	return nil
}

// OnAcknowledgementPacket responds to the success or failure of a packet
// acknowledgement written on the receiving chain. If the acknowledgement
// was a success then nothing occurs. If the acknowledgement failed, then
// the sender is refunded their tokens using the refundPacketToken function.
func (k Keeper) OnAcknowledgementPacket(ctx sdk.Context, packet channeltypes.Packet, data types.FungibleTokenPacketData, ack channeltypes.Acknowledgement) error {
	if !ack.Success() {
		if err := k.refundPacketToken(ctx, packet, data); err != nil {
			return err
		}
	}

	if k.hooks != nil {
		return k.hooks.AfterAcknowledgement(ctx, packet, data, ack.Success())
	}
	return nil
}

// OnTimeoutPacket refunds the sender since the original packet sent was
// never received and has been timed out.
func (k Keeper) OnTimeoutPacket(ctx sdk.Context, packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
	if err := k.refundPacketToken(ctx, packet, data); err != nil {
		return err
	}

	if k.hooks != nil {
		return k.hooks.AfterTimeout(ctx, packet, data)
	}
	return nil
}

// UndoRecvPacket reverses the credit made for a received packet whose tokens
// are now held by holder. Unescrowed tokens go back into escrow and minted
// vouchers are burned. Middleware uses it when an action taken on behalf of
// the receiver fails after the packet was acknowledged asynchronously.
func (k Keeper) UndoRecvPacket(ctx sdk.Context, packet channeltypes.Packet, data types.FungibleTokenPacketData, holder sdk.AccAddress) error {
	amount, err := data.GetAmount()
	if err != nil {
		return err
	}

	denom := types.GetReceivedDenom(packet.GetSourcePort(), packet.GetSourceChannel(), packet.GetDestPort(), packet.GetDestChannel(), data.Denom)
	if types.ReceiverChainIsSource(packet.GetSourcePort(), packet.GetSourceChannel(), data.Denom) {
		escrowAddress := types.GetEscrowAddress(packet.GetDestPort(), packet.GetDestChannel())
		return k.escrowToken(ctx, holder, escrowAddress, denom, amount)
	}

	if err := k.fungiblesKeeper.BurnFrom(ctx, denom, holder, amount); err != nil {
		return sdkerrors.Wrap(err, "failed to burn received vouchers")
	}
	return nil
}

// refundPacketToken will unescrow and send back the tokens back to sender
// if the sending chain was the source chain. Otherwise, the sent tokens
// were burnt in the original send so new tokens are minted and sent to
// the sending address.
func (k Keeper) refundPacketToken(ctx sdk.Context, packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
	amount, err := data.GetAmount()
	if err != nil {
		return err
	}

	sender, err := sdk.AccAddressFromBech32(data.Sender)
	if err != nil {
		return err
	}

	if types.SenderChainIsSource(packet.GetSourcePort(), packet.GetSourceChannel(), data.Denom) {
		// unescrow tokens back to sender
		escrowAddress := types.GetEscrowAddress(packet.GetSourcePort(), packet.GetSourceChannel())
		return k.unescrowToken(ctx, escrowAddress, sender, data.Denom, amount)
	}

	// mint vouchers back to sender
	if err := k.fungiblesKeeper.MintInto(ctx, data.Denom, sender, amount); err != nil {
		return sdkerrors.Wrapf(err, "failed to refund vouchers")
	}
	return nil
}

// escrowToken will send the given token from the provided sender to the escrow address. It will also
// update the total escrowed amount by adding the escrowed token to the current total escrow.
func (k Keeper) escrowToken(ctx sdk.Context, sender, escrowAddress sdk.AccAddress, denom string, amount sdk.Int) error {
	if err := k.fungiblesKeeper.Transfer(ctx, denom, sender, escrowAddress, amount); err != nil {
		// failure is expected for insufficient balances
		return err
	}

	// track the total amount in escrow keyed by denomination to allow for efficient iteration
	currentTotalEscrow := k.GetTotalEscrowForDenom(ctx, denom)
	k.SetTotalEscrowForDenom(ctx, denom, currentTotalEscrow.Add(amount))
	return nil
}

// unescrowToken will send the given token from the escrow address to the provided receiver. It will also
// update the total escrow by deducting the unescrowed token from the current total escrow.
func (k Keeper) unescrowToken(ctx sdk.Context, escrowAddress, receiver sdk.AccAddress, denom string, amount sdk.Int) error {
	if strings.TrimSpace(denom) == "" {
		return sdkerrors.Wrap(types.ErrInvalidDenomForTransfer, "denomination cannot be blank")
	}
	if err := k.fungiblesKeeper.Transfer(ctx, denom, escrowAddress, receiver, amount); err != nil {
		// NOTE: this error is only expected to occur given an unexpected bug or a malicious
		// counterparty module. The bug may occur in bank or any part of the code that allows
		// the escrow address to be drained. A malicious counterparty module could drain the
		// escrow address by allowing more tokens to be sent back then were escrowed.
		return sdkerrors.Wrap(err, "unable to unescrow tokens")
	}

	// track the total amount in escrow keyed by denomination to allow for efficient iteration
	currentTotalEscrow := k.GetTotalEscrowForDenom(ctx, denom)
	newTotalEscrow := currentTotalEscrow.Sub(amount)
	if newTotalEscrow.IsNegative() {
		newTotalEscrow = sdk.ZeroInt()
	}
	k.SetTotalEscrowForDenom(ctx, denom, newTotalEscrow)
	return nil
}
