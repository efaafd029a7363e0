package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// SubModuleName is the error codespace of the GRANDPA light client.
const SubModuleName = "grandpa-client"

// IBC grandpa client sentinel errors
var (
	ErrInvalidChainID         = sdkerrors.Register(SubModuleName, 2, "invalid chain-id")
	ErrInvalidAuthoritySet    = sdkerrors.Register(SubModuleName, 3, "invalid authority set")
	ErrInvalidJustification   = sdkerrors.Register(SubModuleName, 4, "invalid grandpa justification")
	ErrAuthoritySetMismatch   = sdkerrors.Register(SubModuleName, 5, "precommit signed by an unknown authority")
	ErrInvalidSignature       = sdkerrors.Register(SubModuleName, 6, "invalid precommit signature")
	ErrInsufficientStake      = sdkerrors.Register(SubModuleName, 7, "precommits do not reach a super-majority of the authority set")
	ErrInvalidAncestry        = sdkerrors.Register(SubModuleName, 8, "precommit target is not a descendant of the commit target")
	ErrInvalidHeaderChain     = sdkerrors.Register(SubModuleName, 9, "unknown headers do not link the latest finalized block to the target")
	ErrUnknownRelayHash       = sdkerrors.Register(SubModuleName, 10, "parachain header proven against an unauthenticated relay block")
	ErrInvalidParachainHeader = sdkerrors.Register(SubModuleName, 11, "invalid parachain header")
	ErrUnfinalizedSetChange   = sdkerrors.Register(SubModuleName, 12, "authority set change is not enacted within the update")
)
