package types

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ exported.ClientMessage = (*Header)(nil)

// MmrRootPayloadID identifies the MMR root in a commitment payload.
var MmrRootPayloadID = [2]byte{'m', 'h'}

// BeefyAuthoritySet is the merkle commitment to the ethereum addresses of a
// BEEFY validator set.
type BeefyAuthoritySet struct {
	ID            uint64
	Len           uint32
	AuthorityRoot [32]byte
}

// PayloadItem is one entry of the commitment payload.
type PayloadItem struct {
	PayloadID   [2]byte
	PayloadData []byte
}

// Commitment is signed by the BEEFY validators.
type Commitment struct {
	Payload        []PayloadItem
	BlockNumber    uint32
	ValidatorSetID uint64
}

// CommitmentSignature is a recoverable secp256k1 signature of the authority
// at AuthorityIndex in the authority set.
type CommitmentSignature struct {
	Signature      []byte
	AuthorityIndex uint32
}

// SignedCommitment is a commitment with the signatures of the validators.
type SignedCommitment struct {
	Commitment Commitment
	Signatures []CommitmentSignature
}

// BeefyMmrLeaf is the leaf appended to the relay chain MMR for every block.
type BeefyMmrLeaf struct {
	Version               uint8
	ParentNumber          uint32
	ParentHash            types.Hash
	BeefyNextAuthoritySet BeefyAuthoritySet
	ParachainHeads        types.Hash
}

// BeefyMmrLeafPartial is an MMR leaf without its parachain heads root, which is
// recomputed from the parachain heads proof.
type BeefyMmrLeafPartial struct {
	Version               uint8
	ParentNumber          uint32
	ParentHash            types.Hash
	BeefyNextAuthoritySet BeefyAuthoritySet
}

// MmrUpdateProof advances the MMR root known to the client.
type MmrUpdateProof struct {
	MmrLeaf          BeefyMmrLeaf
	MmrLeafIndex     uint64
	MmrProof         [][]byte
	SignedCommitment SignedCommitment
	AuthoritiesProof [][]byte
}

// ParachainHeader is a parachain header proven into the parachain heads root
// of an MMR leaf.
type ParachainHeader struct {
	ParachainHeader     []byte
	MmrLeafPartial      BeefyMmrLeafPartial
	ParaID              uint32
	ParachainHeadsProof [][]byte
	HeadsLeafIndex      uint32
	HeadsTotalCount     uint32
	Extrinsic           []byte
	ExtrinsicProof      [][]byte
}

// Header is a BEEFY client update. MmrUpdateProof is optional: without it the
// parachain headers are proven against the MMR root already known to the client.
type Header struct {
	ParachainHeaders []ParachainHeader
	MmrProofs        [][]byte
	MmrSize          uint64
	MmrUpdateProof   *MmrUpdateProof
}

// ClientType defines that the Header is a Beefy consensus algorithm
func (Header) ClientType() string {
	return exported.Beefy
}

// ValidateBasic checks the header fields without any verification.
func (h Header) ValidateBasic() error {
	if len(h.ParachainHeaders) == 0 && h.MmrUpdateProof == nil {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeader, "header carries neither parachain headers nor an mmr update")
	}
	if len(h.ParachainHeaders) > 0 && h.MmrSize == 0 {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeader, "mmr size cannot be zero")
	}
	for i, header := range h.ParachainHeaders {
		if len(header.ParachainHeader) == 0 {
			return sdkerrors.Wrapf(clienttypes.ErrInvalidHeader, "parachain header %d is empty", i)
		}
		if header.HeadsTotalCount == 0 || header.HeadsLeafIndex >= header.HeadsTotalCount {
			return sdkerrors.Wrapf(ErrInvalidParachainHeadsProof, "leaf index %d of %d heads", header.HeadsLeafIndex, header.HeadsTotalCount)
		}
	}
	if h.MmrUpdateProof != nil && len(h.MmrUpdateProof.SignedCommitment.Signatures) == 0 {
		return sdkerrors.Wrap(ErrCommitmentNotFinal, "commitment carries no signatures")
	}
	return nil
}

// Encode scale encodes a value
func Encode(v interface{}) ([]byte, error) {
	return types.EncodeToBytes(v)
}
