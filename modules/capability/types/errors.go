package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// x/capability module sentinel errors. Codes start above the range used by the
// sdk capability module so both can be linked into one binary.
var (
	ErrInvalidCapabilityName = sdkerrors.Register(ModuleName, 9, "capability name not valid")
	ErrNilCapability         = sdkerrors.Register(ModuleName, 10, "provided capability is nil")
	ErrCapabilityTaken       = sdkerrors.Register(ModuleName, 11, "capability name already taken")
	ErrOwnerClaimed          = sdkerrors.Register(ModuleName, 12, "given owner already claimed capability")
	ErrCapabilityNotOwned    = sdkerrors.Register(ModuleName, 13, "capability not owned by module")
	ErrCapabilityNotFound    = sdkerrors.Register(ModuleName, 14, "capability not found")
)
