package keeper

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// WasmHookResult is the result of an acknowledgement for a packet whose
// funds paid for a contract call.
type WasmHookResult struct {
	ContractResult []byte `json:"contract_result"`
	IBCAck         []byte `json:"ibc_ack"`
}

// ExecuteWasmHook calls the contract named by the memo of packet on behalf of
// the intermediate sender, which has already been credited the received funds.
// The funds are moved to the contract with the call.
func (k Keeper) ExecuteWasmHook(
	ctx sdk.Context,
	packet channeltypes.Packet,
	data transfertypes.FungibleTokenPacketData,
	wasm types.WasmMetadata,
	intermediateSender sdk.AccAddress,
) ([]byte, error) {
	contract, err := sdk.AccAddressFromBech32(wasm.Contract)
	if err != nil {
		return nil, sdkerrors.Wrap(types.ErrInvalidMemo, err.Error())
	}
	amount, err := data.GetAmount()
	if err != nil {
		return nil, err
	}
	denom := transfertypes.GetReceivedDenom(
		packet.SourcePort, packet.SourceChannel,
		packet.DestinationPort, packet.DestinationChannel,
		data.Denom,
	)
	funds := sdk.Coins{{Denom: denom, Amount: amount}}

	result, err := k.contractKeeper.Execute(ctx, contract, intermediateSender, wasm.Msg, funds)
	if err != nil {
		return nil, sdkerrors.Wrap(types.ErrWasmHookFailed, err.Error())
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeWasmHook,
			sdk.NewAttribute(types.AttributeKeyContract, wasm.Contract),
			sdk.NewAttribute(types.AttributeKeyIntermediateSender, intermediateSender.String()),
		),
	)
	return result, nil
}

// NewWasmHookAcknowledgement wraps the contract result and the acknowledgement
// of the transfer into a single result acknowledgement.
func NewWasmHookAcknowledgement(contractResult []byte, ack []byte) channeltypes.Acknowledgement {
	bz, err := json.Marshal(WasmHookResult{ContractResult: contractResult, IBCAck: ack})
	if err != nil {
		panic(err)
	}
	return channeltypes.NewResultAcknowledgement(bz)
}
