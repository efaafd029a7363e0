package types

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	"github.com/ComposableFi/centauri/modules/light-clients/parachain"
)

var _ exported.ClientMessage = (*Header)(nil)

// FinalityProof proves the finality of a relay chain block. UnknownHeaders are
// the encoded relay chain headers between the latest finalized block known to
// the client (exclusive) and Block (inclusive), in ascending order.
type FinalityProof struct {
	Block          types.Hash
	Justification  []byte
	UnknownHeaders [][]byte
}

// ParachainHeader is a parachain block proven against the state of the relay
// chain block RelayHash.
type ParachainHeader struct {
	RelayHash types.Hash
	Proofs    parachain.HeaderProofs
}

// Header is a GRANDPA client update: a relay chain finality proof and the
// parachain headers included in the newly finalized relay blocks.
type Header struct {
	FinalityProof    FinalityProof
	ParachainHeaders []ParachainHeader
}

// ClientType defines that the Header is a GRANDPA finality proof.
func (Header) ClientType() string {
	return exported.Grandpa
}

// ValidateBasic checks the header fields without any verification.
func (h Header) ValidateBasic() error {
	if err := h.FinalityProof.ValidateBasic(); err != nil {
		return err
	}
	if len(h.FinalityProof.UnknownHeaders) == 0 {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeader, "finality proof carries no relay chain headers")
	}
	for i, header := range h.ParachainHeaders {
		if len(header.Proofs.StateProof) == 0 || len(header.Proofs.ExtrinsicProof) == 0 {
			return sdkerrors.Wrapf(clienttypes.ErrInvalidHeader, "parachain header %d is missing proofs", i)
		}
		if len(header.Proofs.Extrinsic) == 0 {
			return sdkerrors.Wrapf(clienttypes.ErrInvalidHeader, "parachain header %d is missing the timestamp extrinsic", i)
		}
	}
	return nil
}

// ValidateBasic checks that the finality proof is not empty.
func (fp FinalityProof) ValidateBasic() error {
	if len(fp.Justification) == 0 {
		return sdkerrors.Wrap(ErrInvalidJustification, "justification cannot be empty")
	}
	if fp.Block == (types.Hash{}) {
		return sdkerrors.Wrap(ErrInvalidJustification, "finalized block hash cannot be empty")
	}
	return nil
}
