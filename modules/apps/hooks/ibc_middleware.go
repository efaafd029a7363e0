package hooks

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/hooks/keeper"
	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ porttypes.Middleware = IBCMiddleware{}

// IBCMiddleware implements the ICS26 callbacks for the memo hooks middleware.
type IBCMiddleware struct {
	app    porttypes.IBCModule
	keeper *keeper.Keeper
}

// NewIBCMiddleware creates a new IBCMiddleware given the keeper and underlying application.
func NewIBCMiddleware(app porttypes.IBCModule, k *keeper.Keeper) IBCMiddleware {
	return IBCMiddleware{
		app:    app,
		keeper: k,
	}
}

// OnChanOpenInit implements the IBCMiddleware interface. Call underlying app's OnChanOpenInit.
func (im IBCMiddleware) OnChanOpenInit(
	ctx sdk.Context, order channeltypes.Order, connectionHops []string,
	portID, channelID string, counterparty channeltypes.Counterparty, version string,
) (string, error) {
	return im.app.OnChanOpenInit(ctx, order, connectionHops, portID, channelID, counterparty, version)
}

// OnChanOpenTry implements the IBCMiddleware interface. Call underlying app's OnChanOpenTry.
func (im IBCMiddleware) OnChanOpenTry(
	ctx sdk.Context, order channeltypes.Order, connectionHops []string,
	portID, channelID string, counterparty channeltypes.Counterparty, counterpartyVersion string,
) (string, error) {
	return im.app.OnChanOpenTry(ctx, order, connectionHops, portID, channelID, counterparty, counterpartyVersion)
}

// OnChanOpenAck implements the IBCMiddleware interface. Call underlying app's OnChanOpenAck.
func (im IBCMiddleware) OnChanOpenAck(ctx sdk.Context, portID, channelID, counterpartyChannelID, counterpartyVersion string) error {
	return im.app.OnChanOpenAck(ctx, portID, channelID, counterpartyChannelID, counterpartyVersion)
}

// OnChanOpenConfirm implements the IBCMiddleware interface. Call underlying app's OnChanOpenConfirm.
func (im IBCMiddleware) OnChanOpenConfirm(ctx sdk.Context, portID, channelID string) error {
	return im.app.OnChanOpenConfirm(ctx, portID, channelID)
}

// OnChanCloseInit implements the IBCMiddleware interface. Call underlying app's OnChanCloseInit.
func (im IBCMiddleware) OnChanCloseInit(ctx sdk.Context, portID, channelID string) error {
	return im.app.OnChanCloseInit(ctx, portID, channelID)
}

// OnChanCloseConfirm implements the IBCMiddleware interface. Call underlying app's OnChanCloseConfirm.
func (im IBCMiddleware) OnChanCloseConfirm(ctx sdk.Context, portID, channelID string) error {
	return im.app.OnChanCloseConfirm(ctx, portID, channelID)
}

// OnRecvPacket runs the hook named by the memo of a transfer. Packets without
// a hook are handed to the underlying app untouched.
func (im IBCMiddleware) OnRecvPacket(ctx sdk.Context, packet channeltypes.Packet, relayer sdk.AccAddress) exported.Acknowledgement {
	data, err := transfertypes.UnmarshalPacketData(packet.GetData())
	if err != nil {
		return im.app.OnRecvPacket(ctx, packet, relayer)
	}

	memo, ok, err := types.ParseMemo(data.Memo)
	if !ok {
		return im.app.OnRecvPacket(ctx, packet, relayer)
	}
	if err != nil {
		return channeltypes.NewErrorAcknowledgement(err)
	}

	intermediateSender, err := types.IntermediateSender(packet.DestinationChannel, data.Sender)
	if err != nil {
		return channeltypes.NewErrorAcknowledgement(sdkerrors.Wrap(types.ErrInvalidMemo, err.Error()))
	}

	if memo.Wasm != nil {
		return im.onRecvWasmPacket(ctx, packet, data, *memo.Wasm, intermediateSender, relayer)
	}
	return im.onRecvForwardPacket(ctx, packet, data, *memo.Forward, intermediateSender, relayer)
}

func (im IBCMiddleware) onRecvWasmPacket(
	ctx sdk.Context,
	packet channeltypes.Packet,
	data transfertypes.FungibleTokenPacketData,
	wasm types.WasmMetadata,
	intermediateSender sdk.AccAddress,
	relayer sdk.AccAddress,
) exported.Acknowledgement {
	if data.Receiver != wasm.Contract {
		return channeltypes.NewErrorAcknowledgement(sdkerrors.Wrapf(types.ErrInvalidMemo, "receiver %s must be the wasm contract %s", data.Receiver, wasm.Contract))
	}

	ack := im.app.OnRecvPacket(ctx, creditIntermediateSender(packet, data, intermediateSender), relayer)
	if ack == nil || !ack.Success() {
		return ack
	}

	result, err := im.keeper.ExecuteWasmHook(ctx, packet, data, wasm, intermediateSender)
	if err != nil {
		im.keeper.Logger(ctx).Error("wasm hook failed", "contract", wasm.Contract, "sequence", packet.Sequence, "error", err)
		return channeltypes.NewErrorAcknowledgement(err)
	}
	return keeper.NewWasmHookAcknowledgement(result, ack.Acknowledgement())
}

func (im IBCMiddleware) onRecvForwardPacket(
	ctx sdk.Context,
	packet channeltypes.Packet,
	data transfertypes.FungibleTokenPacketData,
	metadata types.ForwardMetadata,
	intermediateSender sdk.AccAddress,
	relayer sdk.AccAddress,
) exported.Acknowledgement {
	ack := im.app.OnRecvPacket(ctx, creditIntermediateSender(packet, data, intermediateSender), relayer)
	if ack == nil || !ack.Success() {
		return ack
	}

	amount, err := data.GetAmount()
	if err != nil {
		return channeltypes.NewErrorAcknowledgement(err)
	}
	denom := transfertypes.GetReceivedDenom(
		packet.SourcePort, packet.SourceChannel,
		packet.DestinationPort, packet.DestinationChannel,
		data.Denom,
	)

	if err := im.keeper.ForwardTransferPacket(
		ctx, nil, packet, data.Sender, intermediateSender, metadata,
		denom, amount, metadata.GetRetries(), metadata.GetTimeout(),
	); err != nil {
		return channeltypes.NewErrorAcknowledgement(err)
	}

	// the acknowledgement is written once the forwarded packet completes
	return nil
}

// OnAcknowledgementPacket calls the underlying app's OnAcknowledgementPacket and
// completes the inbound packet if the acknowledged packet was a forward.
func (im IBCMiddleware) OnAcknowledgementPacket(ctx sdk.Context, packet channeltypes.Packet, acknowledgement []byte, relayer sdk.AccAddress) error {
	if err := im.app.OnAcknowledgementPacket(ctx, packet, acknowledgement, relayer); err != nil {
		return err
	}

	inFlightPacket, found := im.keeper.GetInFlightPacket(ctx, packet.SourceChannel, packet.SourcePort, packet.Sequence)
	if !found {
		return nil
	}

	ack, err := channeltypes.UnmarshalAcknowledgement(acknowledgement)
	if err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrUnknownRequest, "cannot unmarshal forwarded packet acknowledgement: %v", err)
	}
	data, err := transfertypes.UnmarshalPacketData(packet.GetData())
	if err != nil {
		return err
	}
	return im.keeper.WriteAcknowledgementForForwardedPacket(ctx, packet, data, inFlightPacket, ack)
}

// OnTimeoutPacket calls the underlying app's OnTimeoutPacket, which refunds the
// sender, and resends a timed out forward while retries remain.
func (im IBCMiddleware) OnTimeoutPacket(ctx sdk.Context, packet channeltypes.Packet, relayer sdk.AccAddress) error {
	if err := im.app.OnTimeoutPacket(ctx, packet, relayer); err != nil {
		return err
	}

	inFlightPacket, err := im.keeper.TimeoutShouldRetry(ctx, packet)
	if inFlightPacket == nil {
		return nil
	}

	data, dataErr := transfertypes.UnmarshalPacketData(packet.GetData())
	if dataErr != nil {
		return dataErr
	}

	if err == nil {
		cacheCtx, writeFn := ctx.CacheContext()
		cacheCtx = cacheCtx.WithEventManager(sdk.NewEventManager())
		if err = im.keeper.RetryTimeout(cacheCtx, packet, data, inFlightPacket); err == nil {
			writeFn()
			ctx.EventManager().EmitEvents(cacheCtx.EventManager().Events())
			return nil
		}
		im.keeper.Logger(ctx).Error("forward retry failed", "sequence", packet.Sequence, "error", err)
	}

	return im.keeper.WriteAcknowledgementForForwardedPacket(ctx, packet, data, *inFlightPacket, channeltypes.NewErrorAcknowledgement(err))
}

// SendPacket implements the ICS4 Wrapper interface.
func (im IBCMiddleware) SendPacket(
	ctx sdk.Context, portCap *capabilitytypes.Capability, sourcePort, sourceChannel string,
	timeoutHeight clienttypes.Height, timeoutTimestamp uint64, data []byte,
) (uint64, error) {
	return im.keeper.GetICS4Wrapper().SendPacket(ctx, portCap, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
}

// WriteAcknowledgement implements the ICS4 Wrapper interface.
func (im IBCMiddleware) WriteAcknowledgement(
	ctx sdk.Context, portCap *capabilitytypes.Capability, packet exported.PacketI, ack exported.Acknowledgement,
) error {
	return im.keeper.GetICS4Wrapper().WriteAcknowledgement(ctx, portCap, packet, ack)
}

// GetAppVersion returns the application version of the underlying application.
func (im IBCMiddleware) GetAppVersion(ctx sdk.Context, portID, channelID string) (string, bool) {
	return im.keeper.GetICS4Wrapper().GetAppVersion(ctx, portID, channelID)
}

// creditIntermediateSender rewrites the receiver of the packet so that the
// underlying app credits the intermediate sender of the hook.
func creditIntermediateSender(packet channeltypes.Packet, data transfertypes.FungibleTokenPacketData, intermediateSender sdk.AccAddress) channeltypes.Packet {
	data.Receiver = intermediateSender.String()
	packet.Data = data.GetBytes()
	return packet
}
