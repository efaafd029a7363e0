package simulation

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	beefytypes "github.com/ComposableFi/centauri/modules/light-clients/11-beefy/types"
)

// BeefyValidatorSet is a BEEFY authority set of secp256k1 validators.
type BeefyValidatorSet struct {
	ID   uint64
	keys []*ecdsa.PrivateKey
}

// NewBeefyValidatorSet derives n validators of set id from seed.
func NewBeefyValidatorSet(seed string, id uint64, n int) (*BeefyValidatorSet, error) {
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		key, err := crypto.ToECDSA(crypto.Keccak256([]byte(fmt.Sprintf("%s/beefy/%d/%d", seed, id, i))))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive beefy validator %d of set %d", i, id)
		}
		keys[i] = key
	}
	return &BeefyValidatorSet{ID: id, keys: keys}, nil
}

// Len returns the number of validators.
func (s *BeefyValidatorSet) Len() int {
	return len(s.keys)
}

// leaves returns the authority merkle leaves, the keccak hashes of the
// validator addresses.
func (s *BeefyValidatorSet) leaves() [][]byte {
	leaves := make([][]byte, len(s.keys))
	for i, key := range s.keys {
		address := crypto.PubkeyToAddress(key.PublicKey)
		leaves[i] = crypto.Keccak256(address[:])
	}
	return leaves
}

// AuthoritySet returns the merkle commitment to the set.
func (s *BeefyValidatorSet) AuthoritySet() beefytypes.BeefyAuthoritySet {
	return beefytypes.BeefyAuthoritySet{
		ID:            s.ID,
		Len:           uint32(len(s.keys)),
		AuthorityRoot: MerkleRoot(s.leaves()),
	}
}

// Sign returns the commitment signed by the first signers validators, and the
// merkle proof of the signing authorities.
func (s *BeefyValidatorSet) Sign(commitment beefytypes.Commitment, signers int) (beefytypes.SignedCommitment, [][]byte, error) {
	if signers > len(s.keys) {
		return beefytypes.SignedCommitment{}, nil, errors.Errorf("%d signers requested from %d validators", signers, len(s.keys))
	}
	encoded, err := beefytypes.Encode(commitment)
	if err != nil {
		return beefytypes.SignedCommitment{}, nil, err
	}
	hash := crypto.Keccak256(encoded)

	signatures := make([]beefytypes.CommitmentSignature, signers)
	for i, key := range s.keys[:signers] {
		signature, err := crypto.Sign(hash, key)
		if err != nil {
			return beefytypes.SignedCommitment{}, nil, errors.Wrapf(err, "validator %d failed to sign", i)
		}
		signatures[i] = beefytypes.CommitmentSignature{Signature: signature, AuthorityIndex: uint32(i)}
	}

	var proof [][]byte
	if signers < len(s.keys) {
		proof = multiMerkleProof(s.leaves(), signers)
	}
	return beefytypes.SignedCommitment{Commitment: commitment, Signatures: signatures}, proof, nil
}

// parachainHeadsLeaf is the heads merkle leaf of a parachain header.
func parachainHeadsLeaf(paraID uint32, encodedHeader []byte) []byte {
	leaf := make([]byte, 4, 4+len(encodedHeader))
	binary.LittleEndian.PutUint32(leaf, paraID)
	return crypto.Keccak256(append(leaf, encodedHeader...))
}
