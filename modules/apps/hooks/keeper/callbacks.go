package keeper

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

var _ transfertypes.TransferHooks = Keeper{}

// IBCLifecycleComplete is the message a callback contract receives.
type IBCLifecycleComplete struct {
	IBCLifecycleComplete LifecycleEvent `json:"ibc_lifecycle_complete"`
}

// LifecycleEvent holds exactly one of the completion outcomes.
type LifecycleEvent struct {
	IBCAck     *IBCAck     `json:"ibc_ack,omitempty"`
	IBCTimeout *IBCTimeout `json:"ibc_timeout,omitempty"`
}

// IBCAck notifies the acknowledgement of a packet.
type IBCAck struct {
	Channel  string `json:"channel"`
	Sequence uint64 `json:"sequence"`
	Success  bool   `json:"success"`
}

// IBCTimeout notifies the timeout of a packet.
type IBCTimeout struct {
	Channel  string `json:"channel"`
	Sequence uint64 `json:"sequence"`
}

// AfterSendTransfer registers the ibc_callback contract of the memo. Only the
// contract itself may ask to be called back.
func (k Keeper) AfterSendTransfer(ctx sdk.Context, _, sourceChannel string, sequence uint64, data transfertypes.FungibleTokenPacketData) error {
	callback, ok := types.ParseCallback(data.Memo)
	if !ok {
		return nil
	}
	if callback != data.Sender {
		return sdkerrors.Wrapf(types.ErrBadCallbackSender, "callback %s, sender %s", callback, data.Sender)
	}
	contract, err := sdk.AccAddressFromBech32(callback)
	if err != nil {
		return sdkerrors.Wrap(types.ErrInvalidMemo, err.Error())
	}
	k.SetCallback(ctx, sourceChannel, sequence, contract)
	return nil
}

// AfterRecvTransfer is a no-op, received packets are handled by the middleware.
func (Keeper) AfterRecvTransfer(sdk.Context, channeltypes.Packet, transfertypes.FungibleTokenPacketData) error {
	return nil
}

// AfterAcknowledgement notifies the callback contract of the packet, if any.
func (k Keeper) AfterAcknowledgement(ctx sdk.Context, packet channeltypes.Packet, _ transfertypes.FungibleTokenPacketData, success bool) error {
	k.notify(ctx, packet, LifecycleEvent{IBCAck: &IBCAck{
		Channel:  packet.SourceChannel,
		Sequence: packet.Sequence,
		Success:  success,
	}})
	return nil
}

// AfterTimeout notifies the callback contract of the packet, if any.
func (k Keeper) AfterTimeout(ctx sdk.Context, packet channeltypes.Packet, _ transfertypes.FungibleTokenPacketData) error {
	k.notify(ctx, packet, LifecycleEvent{IBCTimeout: &IBCTimeout{
		Channel:  packet.SourceChannel,
		Sequence: packet.Sequence,
	}})
	return nil
}

// notify calls the callback contract in a branch of ctx. A failing callback
// is logged and its state changes discarded, the packet lifecycle goes on.
func (k Keeper) notify(ctx sdk.Context, packet channeltypes.Packet, event LifecycleEvent) {
	contract, found := k.GetCallback(ctx, packet.SourceChannel, packet.Sequence)
	if !found {
		return
	}
	k.RemoveCallback(ctx, packet.SourceChannel, packet.Sequence)

	msg, err := json.Marshal(IBCLifecycleComplete{IBCLifecycleComplete: event})
	if err != nil {
		panic(err)
	}

	cacheCtx, writeFn := ctx.CacheContext()
	cacheCtx = cacheCtx.WithEventManager(sdk.NewEventManager())
	_, err = k.contractKeeper.Execute(cacheCtx, contract, ModuleAddress(), msg, nil)

	attributes := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyContract, contract.String()),
		sdk.NewAttribute(types.AttributeKeyChannel, packet.SourceChannel),
		sdk.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", packet.Sequence)),
		sdk.NewAttribute(types.AttributeKeySuccess, fmt.Sprintf("%t", err == nil)),
	}
	if err != nil {
		k.Logger(ctx).Error("ibc callback failed", "contract", contract.String(), "sequence", packet.Sequence, "error", err)
		attributes = append(attributes, sdk.NewAttribute(types.AttributeKeyError, err.Error()))
	} else {
		writeFn()
		ctx.EventManager().EmitEvents(cacheCtx.EventManager().Events())
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent(types.EventTypeCallback, attributes...))
}
