package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// rate limiting sentinel errors
var (
	ErrQuotaExceeded     = sdkerrors.Register(ModuleName, 2, "quota exceeded")
	ErrInvalidParams     = sdkerrors.Register(ModuleName, 3, "invalid rate limit parameters")
	ErrInvalidDirection  = sdkerrors.Register(ModuleName, 4, "invalid packet direction")
	ErrPendingNotFound   = sdkerrors.Register(ModuleName, 5, "pending send packet not found")
	ErrInvalidPacketData = sdkerrors.Register(ModuleName, 6, "invalid packet data")
)
