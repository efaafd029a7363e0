package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// contract host sentinel errors
var (
	ErrContractNotFound   = sdkerrors.Register(ModuleName, 2, "contract not found")
	ErrCallFailed         = sdkerrors.Register(ModuleName, 3, "contract call failed")
	ErrInvalidFunds       = sdkerrors.Register(ModuleName, 4, "invalid funds")
	ErrDuplicateContract  = sdkerrors.Register(ModuleName, 5, "contract already registered")
	ErrInvalidContractMsg = sdkerrors.Register(ModuleName, 6, "invalid contract message")
)
