package types

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/core/exported"
)

// Any is the stored envelope of a light client type. ClientType selects the
// light client module able to decode Value.
type Any struct {
	ClientType string
	Value      []byte
}

// PackAny SCALE encodes v and wraps it in an Any envelope.
func PackAny(clientType string, v interface{}) ([]byte, error) {
	bz, err := types.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return types.EncodeToBytes(Any{ClientType: clientType, Value: bz})
}

// UnpackAny decodes an Any envelope.
func UnpackAny(bz []byte) (Any, error) {
	var envelope Any
	if err := types.DecodeFromBytes(bz, &envelope); err != nil {
		return Any{}, sdkerrors.Wrap(err, "failed to decode envelope")
	}
	if envelope.ClientType == "" {
		return Any{}, sdkerrors.Wrap(ErrInvalidClientType, "empty client type in envelope")
	}
	return envelope, nil
}

// UnpackInto decodes the envelope bz into the concrete value target after checking
// that it was packed for the expected client type.
func UnpackInto(bz []byte, clientType string, target interface{}) error {
	envelope, err := UnpackAny(bz)
	if err != nil {
		return err
	}
	if envelope.ClientType != clientType {
		return sdkerrors.Wrapf(ErrInvalidClientType, "expected %s, got %s", clientType, envelope.ClientType)
	}
	return types.DecodeFromBytes(envelope.Value, target)
}

// MarshalClientState SCALE encodes a client state inside its envelope.
func MarshalClientState(clientState exported.ClientState) ([]byte, error) {
	return PackAny(clientState.ClientType(), clientState)
}

// MustMarshalClientState attempts to encode a ClientState object and returns the
// raw encoded bytes. It panics on error.
func MustMarshalClientState(clientState exported.ClientState) []byte {
	bz, err := MarshalClientState(clientState)
	if err != nil {
		panic(err)
	}
	return bz
}

// MarshalConsensusState SCALE encodes a consensus state inside its envelope.
func MarshalConsensusState(consensusState exported.ConsensusState) ([]byte, error) {
	return PackAny(consensusState.ClientType(), consensusState)
}

// MustMarshalConsensusState attempts to encode a ConsensusState object and returns the
// raw encoded bytes. It panics on error.
func MustMarshalConsensusState(consensusState exported.ConsensusState) []byte {
	bz, err := MarshalConsensusState(consensusState)
	if err != nil {
		panic(err)
	}
	return bz
}
