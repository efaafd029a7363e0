package types

import (
	"fmt"
	"strings"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Capability is an unforgeable object capability. Ownership is proven by
// holding the exact pointer handed out by the keeper.
type Capability struct {
	Index uint64 `json:"index" yaml:"index"`
}

// NewCapability returns a reference to a new Capability to be used as an
// actual capability.
func NewCapability(index uint64) *Capability {
	return &Capability{Index: index}
}

// GetIndex returns the capability index.
func (ck *Capability) GetIndex() uint64 {
	return ck.Index
}

// String returns the string representation of a Capability.
func (ck *Capability) String() string {
	return fmt.Sprintf("Capability{%p, %d}", ck, ck.Index)
}

// ValidateName rejects empty capability names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return sdkerrors.Wrap(ErrInvalidCapabilityName, "capability name cannot be empty")
	}
	return nil
}
