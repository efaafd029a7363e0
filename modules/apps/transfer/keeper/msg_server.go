package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
)

// Transfer defines a rpc handler method for MsgTransfer.
func (k Keeper) Transfer(ctx sdk.Context, msg *types.MsgTransfer) (uint64, error) {
	sender, err := sdk.AccAddressFromBech32(msg.Sender)
	if err != nil {
		return 0, err
	}

	sequence, err := k.SendTransfer(
		ctx, msg.SourcePort, msg.SourceChannel, msg.Denom, msg.Amount, sender, msg.Receiver,
		msg.TimeoutHeight, msg.TimeoutTimestamp, msg.Memo,
	)
	if err != nil {
		return 0, err
	}

	k.Logger(ctx).Info("IBC fungible token transfer", "denom", msg.Denom, "amount", msg.Amount.String(), "sender", msg.Sender, "receiver", msg.Receiver)

	return sequence, nil
}
