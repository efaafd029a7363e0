package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
)

// Deliver executes a batch of IBC messages submitted by relayer. Every message
// runs in its own branch of the state: a failing message is reverted on its own
// and does not affect the messages around it.
func (k Keeper) Deliver(ctx sdk.Context, relayer sdk.AccAddress, msgs []exported.Msg) coretypes.Results {
	results := make(coretypes.Results, 0, len(msgs))
	for _, msg := range msgs {
		res := k.deliverMsg(ctx, relayer, msg)
		if res.Err != nil {
			if res.AlreadyRelayed() {
				k.Logger(ctx).Debug("no-op on redundant relay", "msg", res.MsgType, "error", res.Err.Error())
			} else {
				k.Logger(ctx).Error("ibc message failed", "msg", res.MsgType, "error", res.Err.Error())
			}
		}
		results = append(results, res)
	}
	return results
}

func (k Keeper) deliverMsg(ctx sdk.Context, relayer sdk.AccAddress, msg exported.Msg) coretypes.Result {
	res := coretypes.Result{MsgType: msg.Type()}
	if err := msg.ValidateBasic(); err != nil {
		res.Err = err
		return res
	}

	cacheCtx, writeFn := cacheContext(ctx)
	id, sequence, err := k.dispatch(cacheCtx, relayer, msg)
	if err != nil {
		res.Err = err
		return res
	}

	writeFn()
	res.Identifier = id
	res.Sequence = sequence
	res.Events = cacheCtx.EventManager().Events()
	ctx.EventManager().EmitEvents(res.Events)
	return res
}

func (k Keeper) dispatch(ctx sdk.Context, relayer sdk.AccAddress, msg exported.Msg) (string, uint64, error) {
	switch msg := msg.(type) {
	case *clienttypes.MsgCreateClient:
		id, err := k.CreateClient(ctx, msg)
		return id, 0, err
	case *clienttypes.MsgUpdateClient:
		return msg.ClientID, 0, k.UpdateClient(ctx, msg)
	case *clienttypes.MsgSubmitMisbehaviour:
		return msg.ClientID, 0, k.SubmitMisbehaviour(ctx, msg)

	case *connectiontypes.MsgConnectionOpenInit:
		id, err := k.ConnectionOpenInit(ctx, msg)
		return id, 0, err
	case *connectiontypes.MsgConnectionOpenTry:
		id, err := k.ConnectionOpenTry(ctx, msg)
		return id, 0, err
	case *connectiontypes.MsgConnectionOpenAck:
		return msg.ConnectionID, 0, k.ConnectionOpenAck(ctx, msg)
	case *connectiontypes.MsgConnectionOpenConfirm:
		return msg.ConnectionID, 0, k.ConnectionOpenConfirm(ctx, msg)

	case *channeltypes.MsgChannelOpenInit:
		id, err := k.ChannelOpenInit(ctx, msg)
		return id, 0, err
	case *channeltypes.MsgChannelOpenTry:
		id, err := k.ChannelOpenTry(ctx, msg)
		return id, 0, err
	case *channeltypes.MsgChannelOpenAck:
		return msg.ChannelID, 0, k.ChannelOpenAck(ctx, msg)
	case *channeltypes.MsgChannelOpenConfirm:
		return msg.ChannelID, 0, k.ChannelOpenConfirm(ctx, msg)
	case *channeltypes.MsgChannelCloseInit:
		return msg.ChannelID, 0, k.ChannelCloseInit(ctx, msg)
	case *channeltypes.MsgChannelCloseConfirm:
		return msg.ChannelID, 0, k.ChannelCloseConfirm(ctx, msg)

	case *channeltypes.MsgRecvPacket:
		return msg.Packet.DestinationChannel, msg.Packet.Sequence, k.RecvPacket(ctx, relayer, msg)
	case *channeltypes.MsgAcknowledgement:
		return msg.Packet.SourceChannel, msg.Packet.Sequence, k.Acknowledgement(ctx, relayer, msg)
	case *channeltypes.MsgTimeout:
		return msg.Packet.SourceChannel, msg.Packet.Sequence, k.Timeout(ctx, relayer, msg)
	case *channeltypes.MsgTimeoutOnClose:
		return msg.Packet.SourceChannel, msg.Packet.Sequence, k.TimeoutOnClose(ctx, relayer, msg)

	default:
		return "", 0, sdkerrors.Wrapf(sdkerrors.ErrUnknownRequest, "unrecognized IBC message type: %T", msg)
	}
}
