package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// fungibles ledger sentinel errors
var (
	ErrInvalidDenom      = sdkerrors.Register(ModuleName, 2, "invalid denomination")
	ErrZeroAmount        = sdkerrors.Register(ModuleName, 3, "amount must be positive")
	ErrInsufficientFunds = sdkerrors.Register(ModuleName, 4, "insufficient funds")
	ErrInvalidAccount    = sdkerrors.Register(ModuleName, 5, "invalid account")
)
