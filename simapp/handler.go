package simapp

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	contractstypes "github.com/ComposableFi/centauri/modules/apps/contracts/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
)

// Deliver executes messages in the current block. IBC messages are handed to
// the IBC handler with relayer as the submitter; transfers and contract calls
// are executed on behalf of their signer. Each message is atomic.
func (app *CentauriApp) Deliver(relayer sdk.AccAddress, msgs ...exported.Msg) coretypes.Results {
	ctx := app.Context()
	results := make(coretypes.Results, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.(type) {
		case *transfertypes.MsgTransfer, *contractstypes.MsgExecuteContract:
			results = append(results, app.deliverAppMsg(ctx, msg))
		default:
			results = append(results, app.IBCKeeper.Deliver(ctx, relayer, []exported.Msg{msg})...)
		}
	}
	return results
}

func (app *CentauriApp) deliverAppMsg(ctx sdk.Context, msg exported.Msg) coretypes.Result {
	res := coretypes.Result{MsgType: msg.Type()}
	if err := msg.ValidateBasic(); err != nil {
		res.Err = err
		return res
	}

	cacheCtx, writeFn := ctx.CacheContext()
	cacheCtx = cacheCtx.WithEventManager(sdk.NewEventManager())

	switch msg := msg.(type) {
	case *transfertypes.MsgTransfer:
		res.Sequence, res.Err = app.TransferKeeper.Transfer(cacheCtx, msg)
		res.Identifier = msg.SourceChannel
	case *contractstypes.MsgExecuteContract:
		res.Identifier = msg.Contract
		res.Err = app.executeContract(cacheCtx, msg)
	default:
		res.Err = sdkerrors.Wrapf(sdkerrors.ErrUnknownRequest, "unrecognized message type: %T", msg)
	}
	if res.Err != nil {
		app.logger.Error("message failed", "msg", res.MsgType, "error", res.Err.Error())
		return res
	}

	writeFn()
	res.Events = cacheCtx.EventManager().Events()
	ctx.EventManager().EmitEvents(res.Events)
	app.logger.Debug("message executed", "msg", res.MsgType, "id", res.Identifier, "sequence", strconv.FormatUint(res.Sequence, 10))
	return res
}

func (app *CentauriApp) executeContract(ctx sdk.Context, msg *contractstypes.MsgExecuteContract) error {
	sender, err := sdk.AccAddressFromBech32(msg.Sender)
	if err != nil {
		return err
	}
	contract, err := sdk.AccAddressFromBech32(msg.Contract)
	if err != nil {
		return err
	}
	_, err = app.ContractsKeeper.Execute(ctx, contract, sender, msg.Msg, msg.Funds)
	return err
}
