package keeper

import (
	"encoding/json"
	"fmt"

	"github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
)

// frame is the state of an interpreter while it runs a program.
type frame struct {
	interpreter sdk.AccAddress
	origin      types.InterpreterOrigin
	tip         string
	// result of the last call
	result []byte
}

// Execute runs the instructions of program in order from the interpreter
// account. Each instruction runs in its own cache context and the first
// failure aborts the program.
func (k Keeper) Execute(ctx sdk.Context, interpreter sdk.AccAddress, origin types.InterpreterOrigin, program types.Program, tip string) error {
	f := &frame{
		interpreter: interpreter,
		origin:      origin,
		tip:         tip,
	}

	for i, instruction := range program.Instructions {
		cacheCtx, writeCache := ctx.CacheContext()
		cacheCtx = cacheCtx.WithEventManager(sdk.NewEventManager())

		kind, err := k.executeInstruction(cacheCtx, f, instruction)
		if err != nil {
			k.Logger(ctx).Debug("instruction failed", "interpreter", interpreter.String(), "index", i, "error", err.Error())
			return sdkerrors.Wrapf(err, "instruction %d (%s)", i, kind)
		}
		writeCache()
		ctx.EventManager().EmitEvents(cacheCtx.EventManager().Events())

		telemetry.IncrCounterWithLabels(
			[]string{types.ModuleName, "instruction"},
			1,
			[]metrics.Label{telemetry.NewLabel("kind", kind)},
		)
	}
	return nil
}

func (k Keeper) executeInstruction(ctx sdk.Context, f *frame, instruction types.Instruction) (string, error) {
	switch {
	case instruction.Transfer != nil:
		return "transfer", k.executeTransfer(ctx, f, *instruction.Transfer)
	case instruction.Call != nil:
		return "call", k.executeCall(ctx, f, *instruction.Call)
	case instruction.Spawn != nil:
		return "spawn", k.executeSpawn(ctx, f, *instruction.Spawn)
	default:
		return "unknown", sdkerrors.Wrap(types.ErrInvalidProgram, "empty instruction")
	}
}

// resolve returns the denom of asset and the amount it resolves to against
// the interpreter balance.
func (k Keeper) resolve(ctx sdk.Context, interpreter sdk.AccAddress, asset types.AssetID, amount types.Amount) (string, sdk.Int, error) {
	denom, err := k.denom(ctx, asset)
	if err != nil {
		return "", sdk.Int{}, err
	}
	return denom, amount.Apply(k.fungiblesKeeper.Balance(ctx, denom, interpreter)), nil
}

// resolveNonZero is resolve for amounts that move funds.
func (k Keeper) resolveNonZero(ctx sdk.Context, interpreter sdk.AccAddress, asset types.Asset) (string, sdk.Int, error) {
	denom, amount, err := k.resolve(ctx, interpreter, asset.ID, asset.Amount)
	if err != nil {
		return "", sdk.Int{}, err
	}
	if !amount.IsPositive() {
		return "", sdk.Int{}, sdkerrors.Wrapf(types.ErrZeroAmount, "asset %d (%s)", asset.ID, denom)
	}
	return denom, amount, nil
}

func (k Keeper) executeTransfer(ctx sdk.Context, f *frame, transfer types.Transfer) error {
	to := sdk.AccAddress(transfer.To)
	for _, asset := range transfer.Funds {
		denom, amount, err := k.resolveNonZero(ctx, f.interpreter, asset)
		if err != nil {
			return err
		}
		if err := k.fungiblesKeeper.Transfer(ctx, denom, f.interpreter, to, amount); err != nil {
			return err
		}
	}
	return nil
}

func (k Keeper) executeCall(ctx sdk.Context, f *frame, call types.Call) error {
	payload, err := k.bindPayload(ctx, f, call)
	if err != nil {
		return err
	}

	var request types.CallPayload
	if err := json.Unmarshal(payload, &request); err != nil {
		return sdkerrors.Wrapf(types.ErrInvalidProgram, "call payload: %v", err)
	}
	contract, err := sdk.AccAddressFromBech32(request.Contract)
	if err != nil {
		return sdkerrors.Wrapf(types.ErrInvalidProgram, "call contract: %v", err)
	}
	funds := make(sdk.Coins, 0, len(request.Funds))
	for _, coin := range request.Funds {
		amount, ok := sdk.NewIntFromString(coin.Amount)
		if !ok {
			return sdkerrors.Wrapf(types.ErrInvalidAmount, "call funds %s%s", coin.Amount, coin.Denom)
		}
		funds = append(funds, sdk.Coin{Denom: coin.Denom, Amount: amount})
	}

	result, err := k.contractKeeper.Execute(ctx, contract, f.interpreter, request.Msg, funds.Sort())
	if err != nil {
		return sdkerrors.Wrap(types.ErrCallFailed, err.Error())
	}
	f.result = result
	return nil
}

// bindPayload inserts the value of each binding at its position.
func (k Keeper) bindPayload(ctx sdk.Context, f *frame, call types.Call) ([]byte, error) {
	payload := make([]byte, 0, len(call.Payload))
	last := 0
	for _, binding := range call.Bindings {
		value, err := k.bindingValue(ctx, f, binding.Value)
		if err != nil {
			return nil, err
		}
		payload = append(payload, call.Payload[last:binding.Position]...)
		payload = append(payload, value...)
		last = int(binding.Position)
	}
	return append(payload, call.Payload[last:]...), nil
}

func (k Keeper) bindingValue(ctx sdk.Context, f *frame, value types.BindingValue) ([]byte, error) {
	switch value.Kind {
	case types.BindingSelf:
		return []byte(f.interpreter.String()), nil
	case types.BindingRelayer:
		return []byte(f.tip), nil
	case types.BindingResult:
		return f.result, nil
	case types.BindingAssetAmount:
		_, amount, err := k.resolve(ctx, f.interpreter, value.AssetID, value.Amount)
		if err != nil {
			return nil, err
		}
		return []byte(amount.String()), nil
	case types.BindingAssetID:
		denom, err := k.denom(ctx, value.AssetID)
		if err != nil {
			return nil, err
		}
		return []byte(denom), nil
	default:
		return nil, sdkerrors.Wrapf(types.ErrInvalidBinding, "unknown binding kind %d", value.Kind)
	}
}

// executeSpawn sends one ICS-20 packet per fund to the network. All but the
// last credit the remote interpreter directly; the last pays the remote
// gateway and carries the program in its memo.
func (k Keeper) executeSpawn(ctx sdk.Context, f *frame, spawn types.Spawn) error {
	network, found := k.GetNetwork(ctx, spawn.Network)
	if !found {
		return sdkerrors.Wrapf(types.ErrUnknownNetwork, "network %d", spawn.Network)
	}
	params := k.GetParams(ctx)

	childOrigin := types.InterpreterOrigin{UserOrigin: f.origin.UserOrigin, Salt: spawn.Salt}
	remoteInterpreter, err := bech32.ConvertAndEncode(
		network.Prefix,
		types.DeriveInterpreterAddress(network.CodeID(params.InterpreterCodeID), childOrigin),
	)
	if err != nil {
		return err
	}
	memo := types.NewSpawnMemo(network.GatewayAddress, types.ExecuteProgramPrivilegedMsg{
		CallOrigin:      f.origin.UserOrigin,
		InterpreterSalt: f.origin.Salt,
		Salt:            spawn.Salt,
		Program:         types.EncodeProgram(spawn.Program),
		Tip:             f.tip,
	})
	timeout := uint64(ctx.BlockTime().Add(params.SpawnTimeout).UnixNano())

	for i, asset := range spawn.Funds {
		denom, amount, err := k.resolveNonZero(ctx, f.interpreter, asset)
		if err != nil {
			return err
		}

		receiver, packetMemo := remoteInterpreter, ""
		if i == len(spawn.Funds)-1 {
			receiver, packetMemo = network.GatewayAddress, memo
		}
		sequence, err := k.transferKeeper.SendTransfer(
			ctx, transfertypes.PortID, network.ChannelID,
			denom, amount, f.interpreter, receiver,
			clienttypes.ZeroHeight(), timeout, packetMemo,
		)
		if err != nil {
			return err
		}

		k.SetSpawn(ctx, types.SpawnRecord{
			ChannelID:   network.ChannelID,
			Sequence:    sequence,
			Network:     spawn.Network,
			Interpreter: f.interpreter.String(),
			Origin:      f.origin,
			Denom:       denom,
			Amount:      amount,
			Status:      types.SpawnEmitted,
		})
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeSpawnEmitted,
				sdk.NewAttribute(types.AttributeKeyInterpreter, f.interpreter.String()),
				sdk.NewAttribute(types.AttributeKeyNetwork, fmt.Sprintf("%d", spawn.Network)),
				sdk.NewAttribute(types.AttributeKeyChannel, network.ChannelID),
				sdk.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", sequence)),
			),
		)
	}
	return nil
}
