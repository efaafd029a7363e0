package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/core/exported"
)

// DefaultPrefix is the commitment prefix under which the IBC store is committed
// into the host state.
const DefaultPrefix = "ibc"

var _ exported.Prefix = (*MerklePrefix)(nil)

// MerklePrefix is merkle path prefixed to the key.
// The constructed key from the Path and the key will be append(Path.KeyPath,
// append(Path.KeyPrefix, key...))
type MerklePrefix struct {
	KeyPrefix []byte `json:"key_prefix,omitempty" yaml:"key_prefix"`
}

// NewMerklePrefix constructs new MerklePrefix instance
func NewMerklePrefix(keyPrefix []byte) MerklePrefix {
	return MerklePrefix{
		KeyPrefix: keyPrefix,
	}
}

// Bytes returns the key prefix bytes
func (mp MerklePrefix) Bytes() []byte {
	return mp.KeyPrefix
}

// Empty returns true if the prefix is empty
func (mp MerklePrefix) Empty() bool {
	return len(mp.Bytes()) == 0
}

// ApplyPrefix constructs a new commitment key from the provided path using the
// commitment prefix: prefix || path.
func ApplyPrefix(prefix exported.Prefix, path string) ([]byte, error) {
	if prefix == nil || prefix.Empty() {
		return nil, sdkerrors.Wrap(ErrInvalidPrefix, "prefix can't be empty")
	}
	if len(path) == 0 {
		return nil, sdkerrors.Wrap(ErrInvalidProof, "path can't be empty")
	}

	key := make([]byte, 0, len(prefix.Bytes())+len(path))
	key = append(key, prefix.Bytes()...)
	return append(key, path...), nil
}
