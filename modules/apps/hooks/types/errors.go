package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// memo hooks sentinel errors
var (
	ErrInvalidMemo            = sdkerrors.Register(ModuleName, 2, "invalid hook memo")
	ErrHookSenderMismatch     = sdkerrors.Register(ModuleName, 3, "caller is not the intermediate sender of the hook")
	ErrInvalidForwardMetadata = sdkerrors.Register(ModuleName, 4, "invalid forward metadata")
	ErrForwardTransferFailed  = sdkerrors.Register(ModuleName, 5, "failed to forward transfer packet")
	ErrWasmHookFailed         = sdkerrors.Register(ModuleName, 6, "wasm hook failed")
	ErrBadCallbackSender      = sdkerrors.Register(ModuleName, 7, "ibc callback contract must be the packet sender")
	ErrMaxRetries             = sdkerrors.Register(ModuleName, 8, "forward retries exhausted")
)
