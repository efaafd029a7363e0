package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// TransferHooks are notified about the lifecycle of fungible token packets.
// An error returned by a hook fails the operation that triggered it.
type TransferHooks interface {
	AfterSendTransfer(ctx sdk.Context, sourcePort, sourceChannel string, sequence uint64, data FungibleTokenPacketData) error
	AfterRecvTransfer(ctx sdk.Context, packet channeltypes.Packet, data FungibleTokenPacketData) error
	AfterAcknowledgement(ctx sdk.Context, packet channeltypes.Packet, data FungibleTokenPacketData, success bool) error
	AfterTimeout(ctx sdk.Context, packet channeltypes.Packet, data FungibleTokenPacketData) error
}

var _ TransferHooks = MultiTransferHooks{}

// MultiTransferHooks combines multiple transfer hooks, all hook functions are run in array sequence
type MultiTransferHooks []TransferHooks

// NewMultiTransferHooks returns the hooks run in the given order.
func NewMultiTransferHooks(hooks ...TransferHooks) MultiTransferHooks {
	return hooks
}

func (h MultiTransferHooks) AfterSendTransfer(ctx sdk.Context, sourcePort, sourceChannel string, sequence uint64, data FungibleTokenPacketData) error {
	for i := range h {
		if err := h[i].AfterSendTransfer(ctx, sourcePort, sourceChannel, sequence, data); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiTransferHooks) AfterRecvTransfer(ctx sdk.Context, packet channeltypes.Packet, data FungibleTokenPacketData) error {
	for i := range h {
		if err := h[i].AfterRecvTransfer(ctx, packet, data); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiTransferHooks) AfterAcknowledgement(ctx sdk.Context, packet channeltypes.Packet, data FungibleTokenPacketData, success bool) error {
	for i := range h {
		if err := h[i].AfterAcknowledgement(ctx, packet, data, success); err != nil {
			return err
		}
	}
	return nil
}

func (h MultiTransferHooks) AfterTimeout(ctx sdk.Context, packet channeltypes.Packet, data FungibleTokenPacketData) error {
	for i := range h {
		if err := h[i].AfterTimeout(ctx, packet, data); err != nil {
			return err
		}
	}
	return nil
}
