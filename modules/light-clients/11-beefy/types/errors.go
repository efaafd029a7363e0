package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// SubModuleName is the error codespace of the BEEFY light client.
const SubModuleName = "beefy-client"

// IBC beefy client errors
var (
	ErrInvalidHeaderHeight         = sdkerrors.Register(SubModuleName, 2, "invalid header height")
	ErrInvalidAuthoritySet         = sdkerrors.Register(SubModuleName, 3, "invalid authority set")
	ErrCommitmentNotFinal          = sdkerrors.Register(SubModuleName, 4, "commitment does not carry enough signatures")
	ErrAuthoritySetUnknown         = sdkerrors.Register(SubModuleName, 5, "commitment signed by an unknown authority set")
	ErrInvalidCommitment           = sdkerrors.Register(SubModuleName, 6, "invalid beefy commitment")
	ErrInvalidCommitmentSignature  = sdkerrors.Register(SubModuleName, 7, "invalid commitment signature")
	ErrInvalidMMRLeaf              = sdkerrors.Register(SubModuleName, 8, "invalid mmr leaf")
	ErrFailedVerifyMMRLeaf         = sdkerrors.Register(SubModuleName, 9, "failed to verify mmr leaf")
	ErrInvalidParachainHeadsProof  = sdkerrors.Register(SubModuleName, 10, "invalid parachain heads proof")
	ErrInvalidParachainHeader      = sdkerrors.Register(SubModuleName, 11, "invalid parachain header")
	ErrMissingMMRRootPayload       = sdkerrors.Register(SubModuleName, 12, "commitment payload carries no mmr root")
	ErrDuplicateAuthoritySignature = sdkerrors.Register(SubModuleName, 13, "authority signed the commitment twice")
)
