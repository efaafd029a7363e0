package parachain

import (
	"bytes"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
)

// HeaderProofs authenticate a parachain header and its timestamp against the
// state root of a finalized relay chain block.
type HeaderProofs struct {
	// StateProof proves the parachain head under HeadsStorageKey in relay chain state.
	StateProof [][]byte
	// Extrinsic is the encoded timestamp extrinsic of the parachain block.
	Extrinsic []byte
	// ExtrinsicProof proves Extrinsic under TimestampExtrinsicKey in the extrinsics trie.
	ExtrinsicProof [][]byte
}

// VerifiedHeader is a parachain header whose inclusion has been proven.
type VerifiedHeader struct {
	Header types.Header
	Hash   types.Hash
	// Timestamp in unix nanoseconds.
	Timestamp uint64
}

// TimestampExtrinsicKey is the extrinsics trie key of the timestamp inherent,
// the SCALE compact encoding of its index 0.
func TimestampExtrinsicKey() []byte {
	return []byte{0x00}
}

// DecodeHeader decodes an encoded substrate header.
func DecodeHeader(bz []byte) (types.Header, error) {
	var header types.Header
	if err := types.DecodeFromBytes(bz, &header); err != nil {
		return types.Header{}, err
	}
	return header, nil
}

// HeaderHash returns the blake2b-256 hash of the SCALE encoded header.
func HeaderHash(header types.Header) (types.Hash, error) {
	bz, err := types.EncodeToBytes(header)
	if err != nil {
		return types.Hash{}, err
	}
	return types.Hash(Blake2_256(bz)), nil
}

// EncodeHeadData wraps the SCALE encoded header into the HeadData stored by the
// relay chain.
func EncodeHeadData(header types.Header) ([]byte, error) {
	encodedHeader, err := types.EncodeToBytes(header)
	if err != nil {
		return nil, err
	}
	return types.EncodeToBytes(types.NewBytes(encodedHeader))
}

// DecodeExtrinsicTimestamp decodes a timestamp.set extrinsic and returns its
// argument in unix milliseconds.
func DecodeExtrinsicTimestamp(encodedExtrinsic []byte) (uint64, error) {
	var extrinsic types.Extrinsic
	if err := types.DecodeFromBytes(encodedExtrinsic, &extrinsic); err != nil {
		return 0, sdkerrors.Wrap(ErrTimestampDecodeFailure, err.Error())
	}

	millis, err := scale.NewDecoder(bytes.NewReader(extrinsic.Method.Args)).DecodeUintCompact()
	if err != nil {
		return 0, sdkerrors.Wrap(ErrTimestampDecodeFailure, err.Error())
	}
	if !millis.IsUint64() {
		return 0, sdkerrors.Wrap(ErrTimestampDecodeFailure, "timestamp overflows u64")
	}
	return millis.Uint64(), nil
}

// VerifyHeader proves the head of paraID in the relay chain state with root
// relayStateRoot, then proves the timestamp extrinsic of that head.
func VerifyHeader(relayStateRoot []byte, paraID uint32, proofs HeaderProofs) (VerifiedHeader, error) {
	headData, err := commitmenttypes.ReadTrieValue(proofs.StateProof, relayStateRoot, HeadsStorageKey(paraID))
	if err != nil {
		if sdkerrors.IsOf(err, commitmenttypes.ErrKeyNotFoundInProof) {
			return VerifiedHeader{}, sdkerrors.Wrapf(ErrHeadNotFound, "para id %d", paraID)
		}
		return VerifiedHeader{}, sdkerrors.Wrap(ErrInvalidStateProof, err.Error())
	}

	var encodedHeader types.Bytes
	if err := types.DecodeFromBytes(headData, &encodedHeader); err != nil {
		return VerifiedHeader{}, sdkerrors.Wrap(ErrInvalidHeadData, err.Error())
	}
	header, err := DecodeHeader(encodedHeader)
	if err != nil {
		return VerifiedHeader{}, sdkerrors.Wrap(ErrInvalidHeadData, err.Error())
	}
	hash := types.Hash(Blake2_256(encodedHeader))

	timestamp, err := VerifyTimestampExtrinsic(header, proofs.Extrinsic, proofs.ExtrinsicProof)
	if err != nil {
		return VerifiedHeader{}, err
	}

	return VerifiedHeader{
		Header:    header,
		Hash:      hash,
		Timestamp: timestamp,
	}, nil
}

// VerifyTimestampExtrinsic proves extrinsic under TimestampExtrinsicKey in the
// extrinsics trie of header and returns the block timestamp in unix nanoseconds.
func VerifyTimestampExtrinsic(header types.Header, extrinsic []byte, proof [][]byte) (uint64, error) {
	proven, err := commitmenttypes.ReadTrieValue(proof, header.ExtrinsicsRoot[:], TimestampExtrinsicKey())
	if err != nil {
		return 0, sdkerrors.Wrap(ErrInvalidExtrinsicProof, err.Error())
	}
	if !bytes.Equal(proven, extrinsic) {
		return 0, sdkerrors.Wrap(ErrInvalidExtrinsicProof, "proven extrinsic does not match the supplied extrinsic")
	}

	millis, err := DecodeExtrinsicTimestamp(proven)
	if err != nil {
		return 0, err
	}
	return uint64(time.Duration(millis) * time.Millisecond), nil
}
