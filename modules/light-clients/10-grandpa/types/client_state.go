package types

import (
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ exported.ClientState = (*ClientState)(nil)

// ClientState tracks the finalized relay chain through GRANDPA justifications
// and the parachain ParaID through its heads stored in relay chain state.
type ClientState struct {
	ChainID string
	ParaID  uint32

	CurrentSetID       uint64
	CurrentAuthorities []Authority

	LatestRelayHeight uint32
	LatestRelayHash   types.Hash
	LatestParaHeight  uint32

	// FrozenHeight is the parachain height at which misbehaviour was detected.
	// Zero means the client is not frozen.
	FrozenHeight uint64
}

// NewClientState creates a new ClientState instance
func NewClientState(
	chainID string, paraID uint32, setID uint64, authorities []Authority,
	relayHeight uint32, relayHash types.Hash, paraHeight uint32,
) *ClientState {
	return &ClientState{
		ChainID:            chainID,
		ParaID:             paraID,
		CurrentSetID:       setID,
		CurrentAuthorities: authorities,
		LatestRelayHeight:  relayHeight,
		LatestRelayHash:    relayHash,
		LatestParaHeight:   paraHeight,
	}
}

// ClientType is grandpa.
func (cs ClientState) ClientType() string {
	return exported.Grandpa
}

// GetLatestHeight returns the latest parachain height with a consensus state.
func (cs ClientState) GetLatestHeight() exported.Height {
	return clienttypes.NewHeight(0, uint64(cs.LatestParaHeight))
}

// Validate performs a basic validation of the client state fields.
func (cs ClientState) Validate() error {
	if strings.TrimSpace(cs.ChainID) == "" {
		return sdkerrors.Wrap(ErrInvalidChainID, "chain id cannot be empty string")
	}
	if len(cs.CurrentAuthorities) == 0 {
		return sdkerrors.Wrap(ErrInvalidAuthoritySet, "authority set cannot be empty")
	}
	seen := make(map[[32]byte]bool, len(cs.CurrentAuthorities))
	for _, authority := range cs.CurrentAuthorities {
		if authority.Weight == 0 {
			return sdkerrors.Wrapf(ErrInvalidAuthoritySet, "authority %x has zero weight", authority.Key)
		}
		if seen[authority.Key] {
			return sdkerrors.Wrapf(ErrInvalidAuthoritySet, "duplicate authority %x", authority.Key)
		}
		seen[authority.Key] = true
	}
	if cs.LatestParaHeight == 0 {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeight, "latest parachain height cannot be zero")
	}
	return nil
}

// Status returns the status of the grandpa client.
// The client may be:
// - Active: FrozenHeight is zero
// - Frozen: misbehaviour was detected
func (cs ClientState) Status(_ sdk.Context, _ sdk.KVStore) exported.Status {
	if cs.FrozenHeight > 0 {
		return exported.Frozen
	}
	return exported.Active
}

// Initialize checks that the initial consensus state is a grandpa consensus state
// and stores it together with the client state.
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
	return consensusState.GetTimestamp(), nil
}

// VerifyMembership verifies that value is committed at prefix ++ path in the
// parachain state at height.
func (cs ClientState) VerifyMembership(
	_ sdk.Context,
	clientStore sdk.KVStore,
	height exported.Height,
	proof []byte,
	prefix exported.Prefix,
	path string,
	value []byte,
) error {
	consensusState, key, err := cs.produceVerificationArgs(clientStore, height, prefix, path)
	if err != nil {
		return err
	}
	return commitmenttypes.VerifyMembership(proof, consensusState.Root, key, value)
}

// VerifyNonMembership verifies that nothing is committed at prefix ++ path in
// the parachain state at height.
func (cs ClientState) VerifyNonMembership(
	_ sdk.Context,
	clientStore sdk.KVStore,
	height exported.Height,
	proof []byte,
	prefix exported.Prefix,
	path string,
) error {
	consensusState, key, err := cs.produceVerificationArgs(clientStore, height, prefix, path)
	if err != nil {
		return err
	}
	return commitmenttypes.VerifyNonMembership(proof, consensusState.Root, key)
}

func (cs ClientState) produceVerificationArgs(
	clientStore sdk.KVStore,
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
	if err := clienttypes.UnpackInto(bz, exported.Grandpa, &consensusState); err != nil {
		return nil, sdkerrors.Wrapf(clienttypes.ErrInvalidConsensus, "invalid consensus at height %s: %v", height, err)
	}
	return &consensusState, nil
}
