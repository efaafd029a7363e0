package keeper

import (
	"encoding/json"
	"fmt"

	"github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	contractstypes "github.com/ComposableFi/centauri/modules/apps/contracts/types"
	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
	hookstypes "github.com/ComposableFi/centauri/modules/apps/hooks/types"
)

// ExecuteProgram runs program in the interpreter of caller on this network,
// instantiating it on first use. The assets are moved from caller into the
// interpreter before the program runs.
func (k Keeper) ExecuteProgram(ctx sdk.Context, caller sdk.AccAddress, program types.Program, assets sdk.Coins, tip string) (sdk.AccAddress, error) {
	return k.executeProgram(ctx, caller, caller, program, assets, tip)
}

// executeProgram is ExecuteProgram with the assets held by funder.
func (k Keeper) executeProgram(ctx sdk.Context, caller, funder sdk.AccAddress, program types.Program, assets sdk.Coins, tip string) (sdk.AccAddress, error) {
	params := k.GetParams(ctx)
	if params.Paused {
		return nil, types.ErrPaused
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}

	origin := types.InterpreterOrigin{
		UserOrigin: types.UserOrigin{Network: params.Network, User: caller},
		Salt:       program.Salt,
	}
	return k.run(ctx, origin, funder, program, assets, tip)
}

// ExecuteProgramPrivileged continues a program spawned by another network.
// caller must be the intermediate sender the wasm hook derives for the
// spawning interpreter over the channel registered for its network. The
// funds, held by funder, are moved into the interpreter of the spawned
// origin.
func (k Keeper) ExecuteProgramPrivileged(
	ctx sdk.Context,
	caller, funder sdk.AccAddress,
	msg types.ExecuteProgramPrivilegedMsg,
	funds sdk.Coins,
) (sdk.AccAddress, error) {
	params := k.GetParams(ctx)
	if params.Paused {
		return nil, types.ErrPaused
	}

	source := msg.CallOrigin.Network
	network, found := k.GetNetwork(ctx, source)
	if !found {
		return nil, sdkerrors.Wrapf(types.ErrUnknownNetwork, "network %d", source)
	}
	sourceInterpreter, err := bech32.ConvertAndEncode(
		network.Prefix,
		types.DeriveInterpreterAddress(network.CodeID(params.InterpreterCodeID), msg.SourceOrigin()),
	)
	if err != nil {
		return nil, err
	}
	if err := hookstypes.ValidateIntermediateSender(network.ChannelID, sourceInterpreter, caller.String()); err != nil {
		return nil, sdkerrors.Wrap(types.ErrUnauthorized, err.Error())
	}

	program, err := types.DecodeProgram(msg.Program)
	if err != nil {
		return nil, err
	}
	return k.run(ctx, msg.Origin(), funder, program, funds, msg.Tip)
}

func (k Keeper) run(
	ctx sdk.Context,
	origin types.InterpreterOrigin,
	funder sdk.AccAddress,
	program types.Program,
	assets sdk.Coins,
	tip string,
) (sdk.AccAddress, error) {
	interpreter, err := k.instantiateOrReuse(ctx, origin)
	if err != nil {
		return nil, err
	}

	for _, coin := range assets {
		if _, found := k.GetDenomAsset(ctx, coin.Denom); !found {
			return nil, sdkerrors.Wrapf(types.ErrUnknownAsset, "denom %s", coin.Denom)
		}
		if err := k.fungiblesKeeper.Transfer(ctx, coin.Denom, funder, interpreter, coin.Amount); err != nil {
			return nil, err
		}
	}

	if err := k.Execute(ctx, interpreter, origin, program, tip); err != nil {
		return nil, err
	}

	defer telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "program", "executed"},
		1,
		[]metrics.Label{telemetry.NewLabel(types.AttributeKeyNetwork, fmt.Sprintf("%d", origin.UserOrigin.Network))},
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeProgramExecuted,
			sdk.NewAttribute(types.AttributeKeyInterpreter, interpreter.String()),
			sdk.NewAttribute(types.AttributeKeyOrigin, origin.String()),
			sdk.NewAttribute(types.AttributeKeyInstructions, fmt.Sprintf("%d", len(program.Instructions))),
		),
	)
	return interpreter, nil
}

var _ contractstypes.Contract = Gateway{}

// Gateway is the contract through which users and the wasm hook reach the
// CVM. It is hosted at types.GatewayAddress.
type Gateway struct {
	keeper *Keeper
}

// NewGateway returns the gateway contract backed by keeper.
func NewGateway(keeper *Keeper) Gateway {
	return Gateway{keeper: keeper}
}

// Execute implements contractstypes.Contract.
func (g Gateway) Execute(ctx sdk.Context, env contractstypes.Env, bz []byte) ([]byte, error) {
	msg, err := types.ParseExecuteMsg(bz)
	if err != nil {
		return nil, err
	}

	switch {
	case msg.ExecuteProgram != nil:
		program, err := types.DecodeProgram(msg.ExecuteProgram.Program)
		if err != nil {
			return nil, err
		}
		interpreter, err := g.keeper.executeProgram(ctx, env.Sender, env.Contract, program, env.Funds, msg.ExecuteProgram.Tip)
		if err != nil {
			return nil, err
		}
		return executeResult(interpreter)

	case msg.ExecuteProgramPrivileged != nil:
		interpreter, err := g.keeper.ExecuteProgramPrivileged(ctx, env.Sender, env.Contract, *msg.ExecuteProgramPrivileged, env.Funds)
		if err != nil {
			return nil, err
		}
		return executeResult(interpreter)
	}

	if !g.keeper.IsAdmin(ctx, env.Sender) {
		return nil, sdkerrors.Wrapf(types.ErrUnauthorized, "%s is not the gateway admin", env.Sender)
	}
	if !env.Funds.Empty() {
		return nil, sdkerrors.Wrap(types.ErrInvalidMsg, "admin messages do not accept funds")
	}
	switch {
	case msg.RegisterNetwork != nil:
		err = g.keeper.RegisterNetwork(ctx, msg.RegisterNetwork.ID, msg.RegisterNetwork.Info)
	case msg.RegisterAsset != nil:
		err = g.keeper.RegisterAsset(ctx, *msg.RegisterAsset)
	case msg.Pause != nil:
		g.keeper.SetPaused(ctx, true)
	case msg.Unpause != nil:
		g.keeper.SetPaused(ctx, false)
	}
	if err != nil {
		return nil, err
	}
	return []byte("{}"), nil
}

func executeResult(interpreter sdk.AccAddress) ([]byte, error) {
	return json.Marshal(types.ExecuteResult{Interpreter: interpreter.String()})
}
