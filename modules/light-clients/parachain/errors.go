package parachain

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// SubModuleName is the error codespace of parachain header verification.
const SubModuleName = "parachain"

// Parachain header proof errors
var (
	ErrInvalidStateProof      = sdkerrors.Register(SubModuleName, 2, "invalid relay chain state proof")
	ErrHeadNotFound           = sdkerrors.Register(SubModuleName, 3, "parachain head not found in relay chain state")
	ErrInvalidHeadData        = sdkerrors.Register(SubModuleName, 4, "invalid parachain head data")
	ErrInvalidExtrinsicProof  = sdkerrors.Register(SubModuleName, 5, "invalid timestamp extrinsic proof")
	ErrTimestampDecodeFailure = sdkerrors.Register(SubModuleName, 6, "failed to decode timestamp extrinsic")
)
