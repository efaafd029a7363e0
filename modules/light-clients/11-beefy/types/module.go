package types

import (
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

var _ clienttypes.LightClientModule = LightClientModule{}

// LightClientModule registers the BEEFY client types with the client router.
type LightClientModule struct{}

// ClientType returns BEEFY
func (LightClientModule) ClientType() string {
	return exported.Beefy
}

// UnmarshalClientState decodes an enveloped beefy client state.
func (LightClientModule) UnmarshalClientState(bz []byte) (exported.ClientState, error) {
	var clientState ClientState
	if err := clienttypes.UnpackInto(bz, exported.Beefy, &clientState); err != nil {
		return nil, err
	}
	return &clientState, nil
}

// UnmarshalConsensusState decodes an enveloped beefy consensus state.
func (LightClientModule) UnmarshalConsensusState(bz []byte) (exported.ConsensusState, error) {
	var consensusState ConsensusState
	if err := clienttypes.UnpackInto(bz, exported.Beefy, &consensusState); err != nil {
		return nil, err
	}
	return &consensusState, nil
}
