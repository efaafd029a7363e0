package types

import (
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ clienttypes.LightClientModule = LightClientModule{}

// LightClientModule registers the GRANDPA client types with the client router.
type LightClientModule struct{}

// ClientType returns GRANDPA
func (LightClientModule) ClientType() string {
	return exported.Grandpa
}

// UnmarshalClientState decodes an enveloped grandpa client state.
func (LightClientModule) UnmarshalClientState(bz []byte) (exported.ClientState, error) {
	var clientState ClientState
	if err := clienttypes.UnpackInto(bz, exported.Grandpa, &clientState); err != nil {
		return nil, err
	}
	return &clientState, nil
}

// UnmarshalConsensusState decodes an enveloped grandpa consensus state.
func (LightClientModule) UnmarshalConsensusState(bz []byte) (exported.ConsensusState, error) {
	var consensusState ConsensusState
	if err := clienttypes.UnpackInto(bz, exported.Grandpa, &consensusState); err != nil {
		return nil, err
	}
	return &consensusState, nil
}
