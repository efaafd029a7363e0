package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// CVM sentinel errors
var (
	ErrInvalidProgram      = sdkerrors.Register(ModuleName, 2, "invalid program")
	ErrInvalidBinding      = sdkerrors.Register(ModuleName, 3, "invalid binding")
	ErrInvalidAmount       = sdkerrors.Register(ModuleName, 4, "invalid amount")
	ErrZeroAmount          = sdkerrors.Register(ModuleName, 5, "resolved amount is zero")
	ErrUnknownAsset        = sdkerrors.Register(ModuleName, 6, "asset is not registered")
	ErrUnknownNetwork      = sdkerrors.Register(ModuleName, 7, "network is not registered")
	ErrAssetExists         = sdkerrors.Register(ModuleName, 8, "asset identifier or denom is already registered")
	ErrNetworkExists       = sdkerrors.Register(ModuleName, 9, "network or channel is already registered")
	ErrUnauthorized        = sdkerrors.Register(ModuleName, 10, "unauthorized")
	ErrPaused              = sdkerrors.Register(ModuleName, 11, "program execution is paused")
	ErrCallFailed          = sdkerrors.Register(ModuleName, 12, "call failed")
	ErrInterpreterMismatch = sdkerrors.Register(ModuleName, 13, "interpreter account belongs to another origin")
	ErrInvalidMsg          = sdkerrors.Register(ModuleName, 14, "invalid gateway message")
	ErrInvalidParams       = sdkerrors.Register(ModuleName, 15, "invalid params")
)
