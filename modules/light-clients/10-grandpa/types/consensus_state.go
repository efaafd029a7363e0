package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ exported.ConsensusState = (*ConsensusState)(nil)

// ConsensusState is the view of a parachain block: the IBC commitment root
// (the parachain state root) and the block timestamp.
type ConsensusState struct {
	// Timestamp in unix nanoseconds.
	Timestamp uint64
	Root      []byte
}

// NewConsensusState creates a new ConsensusState instance.
func NewConsensusState(timestamp uint64, root []byte) *ConsensusState {
	return &ConsensusState{
		Timestamp: timestamp,
		Root:      root,
	}
}

// ClientType returns GRANDPA
func (ConsensusState) ClientType() string {
	return exported.Grandpa
}

// GetRoot returns the commitment Root for the specific
func (cs ConsensusState) GetRoot() []byte {
	return cs.Root
}

// GetTimestamp returns block time in nanoseconds of the header that created consensus state
func (cs ConsensusState) GetTimestamp() uint64 {
	return cs.Timestamp
}

// ValidateBasic defines a basic validation for the grandpa consensus state.
func (cs ConsensusState) ValidateBasic() error {
	if len(cs.Root) != 32 {
		return sdkerrors.Wrapf(clienttypes.ErrInvalidConsensus, "root must be 32 bytes, got %d", len(cs.Root))
	}
	if cs.Timestamp == 0 {
		return sdkerrors.Wrap(clienttypes.ErrInvalidConsensus, "timestamp cannot be zero")
	}
	return nil
}
