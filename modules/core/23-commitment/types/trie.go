package types

import (
	"crypto/sha256"

	"github.com/ChainSafe/gossamer/lib/trie"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// TrieProof is the set of encoded state trie nodes proving one or more keys.
// It is transmitted as a SCALE Vec<Vec<u8>>.
type TrieProof [][]byte

// EncodeTrieProof SCALE encodes a set of trie nodes.
func EncodeTrieProof(nodes [][]byte) ([]byte, error) {
	return types.EncodeToBytes(TrieProof(nodes))
}

// DecodeTrieProof decodes a SCALE encoded set of trie nodes.
func DecodeTrieProof(bz []byte) (TrieProof, error) {
	if len(bz) == 0 {
		return nil, sdkerrors.Wrap(ErrInvalidProof, "proof cannot be empty")
	}
	var proof TrieProof
	if err := types.DecodeFromBytes(bz, &proof); err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidProof, "proof couldn't be decoded into trie nodes: %v", err)
	}
	if len(proof) == 0 {
		return nil, sdkerrors.Wrap(ErrInvalidProof, "proof contains no trie nodes")
	}
	return proof, nil
}

// CommitValue is the value stored in the state trie at key for an IBC store
// value: sha256(BE64(len(key)) ‖ key ‖ value). Binding the key keeps the leaves
// of equal values stored under sibling keys distinct.
func CommitValue(key []byte, value []byte) []byte {
	hasher := sha256.New()
	hasher.Write(sdk.Uint64ToBigEndian(uint64(len(key))))
	hasher.Write(key)
	hasher.Write(value)
	return hasher.Sum(nil)
}

// VerifyMembership checks that proof authenticates key -> CommitValue(key, value)
// in the trie with the given root.
func VerifyMembership(proof []byte, root []byte, key []byte, value []byte) error {
	nodes, err := DecodeTrieProof(proof)
	if err != nil {
		return err
	}

	isVerified, err := trie.VerifyProof(nodes, root, []trie.Pair{{Key: key, Value: CommitValue(key, value)}})
	if err != nil {
		return sdkerrors.Wrapf(ErrInvalidTrieProof, "error verifying proof: %v", err)
	}
	if !isVerified {
		return sdkerrors.Wrapf(ErrInvalidTrieProof, "unable to verify key %s", key)
	}
	return nil
}

// VerifyNonMembership checks that the trie rebuilt from proof under root has no
// value stored at key.
func VerifyNonMembership(proof []byte, root []byte, key []byte) error {
	nodes, err := DecodeTrieProof(proof)
	if err != nil {
		return err
	}

	proofTrie := trie.NewEmptyTrie()
	if err := proofTrie.LoadFromProof(nodes, root); err != nil {
		return sdkerrors.Wrapf(ErrInvalidTrieProof, "error loading proof trie: %v", err)
	}
	if value := proofTrie.Get(key); value != nil {
		return sdkerrors.Wrapf(ErrKeyFoundInProof, "key %s", key)
	}
	return nil
}

// ReadTrieValue returns the raw value stored at key in the trie authenticated by
// proof under root.
func ReadTrieValue(nodes [][]byte, root []byte, key []byte) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, sdkerrors.Wrap(ErrInvalidProof, "proof contains no trie nodes")
	}

	proofTrie := trie.NewEmptyTrie()
	if err := proofTrie.LoadFromProof(nodes, root); err != nil {
		return nil, sdkerrors.Wrapf(ErrInvalidTrieProof, "error loading proof trie: %v", err)
	}
	value := proofTrie.Get(key)
	if value == nil {
		return nil, sdkerrors.Wrapf(ErrKeyNotFoundInProof, "key %x", key)
	}
	return value, nil
}
