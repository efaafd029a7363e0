package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ exported.ClientState = (*ClientState)(nil)

// ClientState tracks the relay chain MMR root signed by BEEFY validators and
// the parachain ParaID whose heads are committed into its leaves.
type ClientState struct {
	MmrRootHash          [32]byte
	LatestBeefyHeight    uint32
	BeefyActivationBlock uint32
	Authority            BeefyAuthoritySet
	NextAuthoritySet     BeefyAuthoritySet
	ParaID               uint32
	LatestParaHeight     uint32
	// FrozenHeight is the parachain height at which misbehaviour was detected.
	FrozenHeight uint64
}

// NewClientState creates a new ClientState instance
func NewClientState(
	mmrRoot [32]byte, beefyHeight, activationBlock uint32,
	authority, nextAuthoritySet BeefyAuthoritySet, paraID, paraHeight uint32,
) *ClientState {
	return &ClientState{
		MmrRootHash:          mmrRoot,
		LatestBeefyHeight:    beefyHeight,
		BeefyActivationBlock: activationBlock,
		Authority:            authority,
		NextAuthoritySet:     nextAuthoritySet,
		ParaID:               paraID,
		LatestParaHeight:     paraHeight,
	}
}

// ClientType is beefy.
func (cs ClientState) ClientType() string {
	return exported.Beefy
}

// GetLatestHeight returns the latest parachain height with a consensus state.
func (cs ClientState) GetLatestHeight() exported.Height {
	return clienttypes.NewHeight(0, uint64(cs.LatestParaHeight))
}

// Validate performs basic validation of the client state fields.
func (cs ClientState) Validate() error {
	if cs.LatestBeefyHeight == 0 {
		return ErrInvalidHeaderHeight
	}
	if cs.LatestParaHeight == 0 {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeight, "latest parachain height cannot be zero")
	}
	if cs.Authority.Len == 0 || cs.NextAuthoritySet.Len == 0 {
		return sdkerrors.Wrap(ErrInvalidAuthoritySet, "authority sets cannot be empty")
	}
	if cs.NextAuthoritySet.ID != cs.Authority.ID+1 {
		return sdkerrors.Wrapf(ErrInvalidAuthoritySet, "next authority set id %d does not follow %d", cs.NextAuthoritySet.ID, cs.Authority.ID)
	}
	return nil
}

// Status returns the status of the beefy client.
// The client may be:
// - Active: if frozen height is 0
// - Frozen: otherwise beefy client is frozen
func (cs ClientState) Status(_ sdk.Context, _ sdk.KVStore) exported.Status {
	if cs.FrozenHeight > 0 {
		return exported.Frozen
	}

	return exported.Active
}

// Initialize will check that initial consensus state is a beefy consensus state
// and store it together with the client state.
func (cs ClientState) Initialize(ctx sdk.Context, clientStore sdk.KVStore, consState exported.ConsensusState) error {
	consensusState, ok := consState.(*ConsensusState)
	if !ok {
		return sdkerrors.Wrapf(clienttypes.ErrInvalidConsensus, "invalid initial consensus state. expected type: %T, got: %T",
			&ConsensusState{}, consState)
	}
	if err := consensusState.ValidateBasic(); err != nil {
		return err
	}

	clienttypes.SetClientState(clientStore, &cs)
	clienttypes.SetConsensusState(ctx, clientStore, consensusState, cs.GetLatestHeight())
	return nil
}

// GetTimestampAtHeight returns the timestamp in nanoseconds of the consensus state at the given height.
func (cs ClientState) GetTimestampAtHeight(_ sdk.Context, clientStore sdk.KVStore, height exported.Height) (uint64, error) {
	consensusState, err := GetConsensusState(clientStore, height)
	if err != nil {
		return 0, err
	}
	return consensusState.Timestamp, nil
}

// VerifyMembership verifies a proof of the value committed at prefix ++ path.
func (cs ClientState) VerifyMembership(
	_ sdk.Context,
	clientStore sdk.KVStore,
	height exported.Height,
	proof []byte,
	prefix exported.Prefix,
	path string,
	value []byte,
) error {
	consensusState, key, err := produceVerificationArgs(clientStore, cs, height, prefix, path)
	if err != nil {
		return err
	}
	return commitmenttypes.VerifyMembership(proof, consensusState.Root, key, value)
}

// VerifyNonMembership verifies a proof of the absence of prefix ++ path.
func (cs ClientState) VerifyNonMembership(
	_ sdk.Context,
	clientStore sdk.KVStore,
	height exported.Height,
	proof []byte,
	prefix exported.Prefix,
	path string,
) error {
	consensusState, key, err := produceVerificationArgs(clientStore, cs, height, prefix, path)
	if err != nil {
		return err
	}
	return commitmenttypes.VerifyNonMembership(proof, consensusState.Root, key)
}

// produceVerificationArgs perfoms the basic checks on the arguments that are
// shared between the verification functions and returns the consensus state
// at height and the prefixed key.
func produceVerificationArgs(
	clientStore sdk.KVStore,
	cs ClientState,
	height exported.Height,
	prefix exported.Prefix,
	path string,
) (*ConsensusState, []byte, error) {
	if cs.GetLatestHeight().LT(height) {
		return nil, nil, sdkerrors.Wrapf(
			clienttypes.ErrInvalidHeight,
			"client state height < proof height (%s < %s), please ensure the client has been updated", cs.GetLatestHeight(), height,
		)
	}

	if prefix == nil {
		return nil, nil, sdkerrors.Wrap(commitmenttypes.ErrInvalidPrefix, "prefix cannot be empty")
	}
	key, err := commitmenttypes.ApplyPrefix(prefix, path)
	if err != nil {
		return nil, nil, err
	}

	consensusState, err := GetConsensusState(clientStore, height)
	if err != nil {
		return nil, nil, sdkerrors.Wrap(err, "please ensure the proof was constructed against a height that exists on the client")
	}
	return consensusState, key, nil
}

// GetConsensusState retrieves the consensus state from the client prefixed store.
// If the ConsensusState does not exist in state for the provided height a nil value and an error is returned.
func GetConsensusState(clientStore sdk.KVStore, height exported.Height) (*ConsensusState, error) {
	bz, found := clienttypes.GetConsensusStateBytes(clientStore, height)
	if !found {
		return nil, sdkerrors.Wrapf(
			clienttypes.ErrConsensusStateNotFound,
			"consensus state does not exist for height %s", height,
		)
	}

	var consensusState ConsensusState
	if err := clienttypes.UnpackInto(bz, exported.Beefy, &consensusState); err != nil {
		return nil, sdkerrors.Wrapf(clienttypes.ErrInvalidConsensus, "invalid consensus at height %s: %v", height, err)
	}
	return &consensusState, nil
}

// GetLeafIndexForBlockNumber returns the MMR leaf index of the given relay block.
// Leaves are appended from the activation block onwards, or from block 1 when
// BEEFY was active from genesis.
func (cs ClientState) GetLeafIndexForBlockNumber(blockNumber uint32) uint32 {
	if cs.BeefyActivationBlock == 0 {
		// in this case the leaf index is the same as the block number - 1 (leaf index starts at 0)
		return blockNumber - 1
	}
	return blockNumber - cs.BeefyActivationBlock
}

// GetBlockNumberForLeaf is the inverse of GetLeafIndexForBlockNumber.
func (cs ClientState) GetBlockNumberForLeaf(leafIndex uint32) uint32 {
	if cs.BeefyActivationBlock == 0 {
		return leafIndex + 1
	}
	return cs.BeefyActivationBlock + leafIndex
}

func authoritiesThreshold(authoritySet BeefyAuthoritySet) uint32 {
	return 2*authoritySet.Len/3 + 1
}
