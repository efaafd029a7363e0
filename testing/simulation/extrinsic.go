package simulation

import (
	"bytes"
	"math/big"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

var (
	// parachainSystem.set_validation_data
	validationDataCall = types.CallIndex{SectionIndex: 1, MethodIndex: 0}
	// timestamp.set
	timestampCall = types.CallIndex{SectionIndex: 3, MethodIndex: 0}
)

// validationData is the argument of the validation data inherent.
type validationData struct {
	RelayParentNumber uint32
	ParentHead        types.Hash
}

// ExtrinsicKey returns the extrinsics trie key of the extrinsic at index, the
// SCALE compact encoding of the index.
func ExtrinsicKey(index uint64) ([]byte, error) {
	return types.EncodeToBytes(types.NewUCompactFromUInt(index))
}

// EncodeTimestampExtrinsic returns the unsigned timestamp.set extrinsic
// setting the block time in milliseconds.
func EncodeTimestampExtrinsic(timestamp time.Time) ([]byte, error) {
	millis := uint64(timestamp.UnixNano() / int64(time.Millisecond))

	var args bytes.Buffer
	if err := scale.NewEncoder(&args).EncodeUintCompact(*new(big.Int).SetUint64(millis)); err != nil {
		return nil, err
	}
	return encodeInherent(timestampCall, args.Bytes())
}

func encodeValidationData(relayParent uint32, parentHead types.Hash) ([]byte, error) {
	args, err := types.EncodeToBytes(validationData{RelayParentNumber: relayParent, ParentHead: parentHead})
	if err != nil {
		return nil, err
	}
	return encodeInherent(validationDataCall, args)
}

func encodeInherent(call types.CallIndex, args []byte) ([]byte, error) {
	return types.EncodeToBytes(types.Extrinsic{
		Version: types.ExtrinsicVersion4,
		Method: types.Call{
			CallIndex: call,
			Args:      args,
		},
	})
}
