package types

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// TypeMsgExecuteContract is the type of MsgExecuteContract
const TypeMsgExecuteContract = "execute_contract"

// MsgExecuteContract calls a native contract with funds.
type MsgExecuteContract struct {
	Sender   string
	Contract string
	Msg      json.RawMessage
	Funds    sdk.Coins
}

// NewMsgExecuteContract creates a new MsgExecuteContract instance
func NewMsgExecuteContract(sender, contract sdk.AccAddress, msg []byte, funds sdk.Coins) *MsgExecuteContract {
	return &MsgExecuteContract{
		Sender:   sender.String(),
		Contract: contract.String(),
		Msg:      msg,
		Funds:    funds,
	}
}

// Type implements exported.Msg
func (MsgExecuteContract) Type() string {
	return TypeMsgExecuteContract
}

// GetSigner implements exported.Msg
func (msg MsgExecuteContract) GetSigner() string {
	return msg.Sender
}

// ValidateBasic implements exported.Msg
func (msg MsgExecuteContract) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Sender); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "invalid sender: %v", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Contract); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "invalid contract: %v", err)
	}
	if !json.Valid(msg.Msg) {
		return sdkerrors.Wrap(ErrInvalidContractMsg, "message must be JSON")
	}
	if err := msg.Funds.Validate(); err != nil {
		return sdkerrors.Wrap(ErrInvalidFunds, err.Error())
	}
	return nil
}
