package simulation

import (
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"

	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	"github.com/ComposableFi/centauri/modules/light-clients/parachain"
)

// ParachainBlock is a sealed parachain block together with the timestamp
// extrinsic and its proof under the extrinsics root.
type ParachainBlock struct {
	Header    types.Header
	Hash      types.Hash
	Encoded   []byte
	Timestamp time.Time

	Extrinsic      []byte
	ExtrinsicProof [][]byte
}

// Number returns the block number.
func (b ParachainBlock) Number() uint32 {
	return uint32(b.Header.Number)
}

// TimestampNano returns the block time in unix nanoseconds as light clients
// read it from the timestamp extrinsic.
func (b ParachainBlock) TimestampNano() uint64 {
	return uint64(b.Timestamp.UnixNano() / int64(time.Millisecond) * int64(time.Millisecond))
}

// Parachain produces the blocks of a parachain whose state root commits to
// the IBC store.
type Parachain struct {
	ID uint32

	tries  *TrieStore
	blocks map[uint32]*ParachainBlock
	latest *ParachainBlock
}

// NewParachain creates a parachain persisting its tries in tries.
func NewParachain(id uint32, tries *TrieStore) *Parachain {
	return &Parachain{
		ID:     id,
		tries:  tries,
		blocks: make(map[uint32]*ParachainBlock),
	}
}

// ProduceBlock seals block number with the IBC store as its state. The block
// is built on the relay parent block relayParent.
func (p *Parachain) ProduceBlock(number uint32, timestamp time.Time, relayParent uint32, store sdk.KVStore) (*ParachainBlock, error) {
	var parentHash types.Hash
	if p.latest != nil {
		if number <= p.latest.Number() {
			return nil, errors.Errorf("block %d does not extend block %d", number, p.latest.Number())
		}
		parentHash = p.latest.Hash
	}

	entries, err := IBCEntries(store)
	if err != nil {
		return nil, err
	}
	stateRoot, err := p.tries.Commit(entries)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to commit state of block %d", number)
	}

	extrinsic, err := EncodeTimestampExtrinsic(timestamp)
	if err != nil {
		return nil, err
	}
	inherent, err := encodeValidationData(relayParent, parentHash)
	if err != nil {
		return nil, err
	}
	inherentKey, err := ExtrinsicKey(1)
	if err != nil {
		return nil, err
	}
	extrinsicsRoot, err := p.tries.Commit([]Entry{
		{Key: parachain.TimestampExtrinsicKey(), Value: extrinsic},
		{Key: inherentKey, Value: inherent},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to commit extrinsics of block %d", number)
	}
	extrinsicProof, err := p.tries.Prove(extrinsicsRoot, parachain.TimestampExtrinsicKey())
	if err != nil {
		return nil, err
	}

	header := types.Header{
		ParentHash:     parentHash,
		Number:         types.BlockNumber(number),
		StateRoot:      stateRoot,
		ExtrinsicsRoot: extrinsicsRoot,
	}
	encoded, err := types.EncodeToBytes(header)
	if err != nil {
		return nil, err
	}

	block := &ParachainBlock{
		Header:         header,
		Hash:           types.Hash(parachain.Blake2_256(encoded)),
		Encoded:        encoded,
		Timestamp:      timestamp,
		Extrinsic:      extrinsic,
		ExtrinsicProof: extrinsicProof,
	}
	p.blocks[number] = block
	p.latest = block
	return block, nil
}

// Block returns the block with the given number.
func (p *Parachain) Block(number uint32) (*ParachainBlock, bool) {
	block, ok := p.blocks[number]
	return block, ok
}

// LatestBlock returns the latest produced block, nil before the first one.
func (p *Parachain) LatestBlock() *ParachainBlock {
	return p.latest
}

// ProveState returns the SCALE encoded proof of the IBC store key in the state
// committed by block number. Absent keys are proven absent.
func (p *Parachain) ProveState(number uint32, key []byte) ([]byte, error) {
	block, ok := p.blocks[number]
	if !ok {
		return nil, errors.Errorf("unknown parachain block %d", number)
	}
	trieKey, err := commitmenttypes.ApplyPrefix(commitmenttypes.NewMerklePrefix([]byte(commitmenttypes.DefaultPrefix)), string(key))
	if err != nil {
		return nil, err
	}
	nodes, err := p.tries.Prove(block.Header.StateRoot, trieKey)
	if err != nil {
		return nil, err
	}
	return commitmenttypes.EncodeTrieProof(nodes)
}
