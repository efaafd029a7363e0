package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ exported.ClientMessage = (*Misbehaviour)(nil)

// Misbehaviour is evidence that the current authority set finalized two
// different relay chain blocks at the same height.
type Misbehaviour struct {
	FirstFinalityProof  FinalityProof
	SecondFinalityProof FinalityProof
}

// NewMisbehaviour creates a new Misbehaviour instance.
func NewMisbehaviour(first, second FinalityProof) *Misbehaviour {
	return &Misbehaviour{
		FirstFinalityProof:  first,
		SecondFinalityProof: second,
	}
}

// ClientType is GRANDPA light client
func (Misbehaviour) ClientType() string {
	return exported.Grandpa
}

// ValidateBasic implements Misbehaviour interface
func (m Misbehaviour) ValidateBasic() error {
	if err := m.FirstFinalityProof.ValidateBasic(); err != nil {
		return sdkerrors.Wrap(clienttypes.ErrInvalidMisbehaviour, sdkerrors.Wrap(err, "first finality proof failed validation").Error())
	}
	if err := m.SecondFinalityProof.ValidateBasic(); err != nil {
		return sdkerrors.Wrap(clienttypes.ErrInvalidMisbehaviour, sdkerrors.Wrap(err, "second finality proof failed validation").Error())
	}
	if m.FirstFinalityProof.Block == m.SecondFinalityProof.Block {
		return sdkerrors.Wrap(clienttypes.ErrInvalidMisbehaviour, "finality proofs must target different blocks")
	}
	return nil
}
