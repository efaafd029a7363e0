package simulation

import (
	"sort"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
	beefytypes "github.com/ComposableFi/centauri/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/centauri/modules/light-clients/parachain"
)

// RelayBlock is a relay chain block. Its state holds the latest head of every
// parachain imported so far.
type RelayBlock struct {
	Header  types.Header
	Hash    types.Hash
	Encoded []byte

	// SetID is the GRANDPA set finalizing the block.
	SetID uint64
	// Paras are the parachain blocks included in this block.
	Paras map[uint32]*ParachainBlock

	// Leaf is the BEEFY MMR leaf appended by the block, MmrSize the size of
	// the range after appending it. Both are unset for genesis.
	Leaf    beefytypes.BeefyMmrLeaf
	MmrSize uint64

	voters *VoterSet
	beefy  *BeefyValidatorSet
	heads  []paraHead
	enacts bool
}

// Number returns the block number.
func (b RelayBlock) Number() uint32 {
	return uint32(b.Header.Number)
}

// AnnouncesChange reports whether the block schedules a GRANDPA set change.
func (b RelayBlock) AnnouncesChange() bool {
	change, err := grandpatypes.FindScheduledChange(b.Header)
	return err == nil && change != nil
}

// EnactsChange reports whether the block is the last one finalized by its
// GRANDPA set.
func (b RelayBlock) EnactsChange() bool {
	return b.enacts
}

// ParaHead returns the head of paraID in the state of the block.
func (b RelayBlock) ParaHead(paraID uint32) (*ParachainBlock, bool) {
	for _, head := range b.heads {
		if head.id == paraID {
			return head.block, true
		}
	}
	return nil, false
}

type paraHead struct {
	id    uint32
	block *ParachainBlock
}

// RelayChainConfig configures the authorities of a simulated relay chain.
type RelayChainConfig struct {
	Seed            string
	Voters          int
	BeefyValidators int
}

// RelayChain simulates the relay chain of one or more parachains: it imports
// parachain blocks into its state, finalizes them with GRANDPA justifications
// and commits them into a BEEFY MMR.
type RelayChain struct {
	cfg   RelayChainConfig
	tries *TrieStore

	setID  uint64
	voters *VoterSet
	// scheduled is announced by the next block, enacting has been announced
	// and takes over after block enactAt
	scheduled      *VoterSet
	scheduledDelay uint32
	enacting       *VoterSet
	enactAt        uint32

	beefy       *BeefyValidatorSet
	beefyNext   *BeefyValidatorSet
	rotateBeefy bool

	heads  map[uint32]*ParachainBlock
	blocks []*RelayBlock
	mmr    *MMR
}

// NewRelayChain creates a relay chain with its genesis block.
func NewRelayChain(cfg RelayChainConfig, tries *TrieStore) (*RelayChain, error) {
	if cfg.Voters == 0 || cfg.BeefyValidators == 0 {
		return nil, errors.New("relay chain needs grandpa voters and beefy validators")
	}
	beefy, err := NewBeefyValidatorSet(cfg.Seed, 0, cfg.BeefyValidators)
	if err != nil {
		return nil, err
	}
	beefyNext, err := NewBeefyValidatorSet(cfg.Seed, 1, cfg.BeefyValidators)
	if err != nil {
		return nil, err
	}

	r := &RelayChain{
		cfg:       cfg,
		tries:     tries,
		voters:    NewVoterSet(cfg.Seed, cfg.Voters),
		beefy:     beefy,
		beefyNext: beefyNext,
		heads:     make(map[uint32]*ParachainBlock),
		mmr:       &MMR{},
	}
	if _, err := r.produceBlock(nil); err != nil {
		return nil, errors.Wrap(err, "failed to produce genesis")
	}
	return r, nil
}

// ImportParachainBlock produces a relay block including block as the new head
// of paraID.
func (r *RelayChain) ImportParachainBlock(paraID uint32, block *ParachainBlock) (*RelayBlock, error) {
	if head, ok := r.heads[paraID]; ok && block.Number() <= head.Number() {
		return nil, errors.Errorf("para %d block %d does not extend head %d", paraID, block.Number(), head.Number())
	}
	r.heads[paraID] = block
	return r.produceBlock(map[uint32]*ParachainBlock{paraID: block})
}

// ProduceBlock produces a relay block including no parachain block.
func (r *RelayChain) ProduceBlock() (*RelayBlock, error) {
	return r.produceBlock(nil)
}

// ScheduleAuthorityChange announces next in the next block. Blocks after it
// are finalized by next.
func (r *RelayChain) ScheduleAuthorityChange(next *VoterSet) {
	r.ScheduleDelayedAuthorityChange(next, 0)
}

// ScheduleDelayedAuthorityChange announces next in the next block, or once a
// change announced before is enacted. Next finalizes the blocks following
// the delay blocks after the announcing block.
func (r *RelayChain) ScheduleDelayedAuthorityChange(next *VoterSet, delay uint32) {
	r.scheduled, r.scheduledDelay = next, delay
}

// RotateBeefyAuthorities makes the next BEEFY set sign from the next block
// onwards and derives a new next set.
func (r *RelayChain) RotateBeefyAuthorities() {
	r.rotateBeefy = true
}

// Voters returns the GRANDPA set finalizing the next block.
func (r *RelayChain) Voters() (*VoterSet, uint64) {
	return r.voters, r.setID
}

// LatestBlock returns the latest relay block.
func (r *RelayChain) LatestBlock() *RelayBlock {
	return r.blocks[len(r.blocks)-1]
}

// Block returns the relay block with the given number.
func (r *RelayChain) Block(number uint32) (*RelayBlock, bool) {
	if int(number) >= len(r.blocks) {
		return nil, false
	}
	return r.blocks[number], true
}

func (r *RelayChain) produceBlock(included map[uint32]*ParachainBlock) (*RelayBlock, error) {
	number := uint32(len(r.blocks))

	heads := make([]paraHead, 0, len(r.heads))
	for id, block := range r.heads {
		heads = append(heads, paraHead{id: id, block: block})
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].id < heads[j].id })

	entries := make([]Entry, len(heads))
	for i, head := range heads {
		headData, err := parachain.EncodeHeadData(head.block.Header)
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{Key: parachain.HeadsStorageKey(head.id), Value: headData}
	}
	stateRoot, err := r.tries.Commit(entries)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to commit relay state of block %d", number)
	}

	header := types.Header{
		Number:    types.BlockNumber(number),
		StateRoot: stateRoot,
	}
	if number > 0 {
		header.ParentHash = r.LatestBlock().Hash
	}
	announce := r.scheduled != nil && r.enacting == nil
	if announce {
		digest, err := scheduledChangeDigest(r.scheduled, r.scheduledDelay)
		if err != nil {
			return nil, err
		}
		header.Digest = types.Digest{digest}
	}
	encoded, err := types.EncodeToBytes(header)
	if err != nil {
		return nil, err
	}

	if r.rotateBeefy {
		next, err := NewBeefyValidatorSet(r.cfg.Seed, r.beefyNext.ID+1, r.cfg.BeefyValidators)
		if err != nil {
			return nil, err
		}
		r.beefy, r.beefyNext = r.beefyNext, next
		r.rotateBeefy = false
	}

	block := &RelayBlock{
		Header:  header,
		Hash:    types.Hash(parachain.Blake2_256(encoded)),
		Encoded: encoded,
		SetID:   r.setID,
		Paras:   included,
		voters:  r.voters,
		beefy:   r.beefy,
		heads:   heads,
	}

	if number > 0 {
		block.Leaf = beefytypes.BeefyMmrLeaf{
			ParentNumber:          number - 1,
			ParentHash:            r.LatestBlock().Hash,
			BeefyNextAuthoritySet: r.beefyNext.AuthoritySet(),
			ParachainHeads:        MerkleRoot(headsLeaves(heads)),
		}
		leaf, err := beefytypes.Encode(block.Leaf)
		if err != nil {
			return nil, err
		}
		r.mmr.Push(crypto.Keccak256(leaf))
		block.MmrSize = r.mmr.Size()
	}

	if announce {
		r.enacting, r.enactAt = r.scheduled, number+r.scheduledDelay
		r.scheduled = nil
	}
	if r.enacting != nil && number == r.enactAt {
		block.enacts = true
		r.setID++
		r.voters = r.enacting
		r.enacting = nil
	}

	r.blocks = append(r.blocks, block)
	return block, nil
}

func headsLeaves(heads []paraHead) [][]byte {
	leaves := make([][]byte, len(heads))
	for i, head := range heads {
		leaves[i] = parachainHeadsLeaf(head.id, head.block.Encoded)
	}
	return leaves
}

// GrandpaClientState returns the GRANDPA client and consensus state of paraID
// at the latest relay block.
func (r *RelayChain) GrandpaClientState(chainID string, paraID uint32) (*grandpatypes.ClientState, *grandpatypes.ConsensusState, error) {
	head, ok := r.heads[paraID]
	if !ok {
		return nil, nil, errors.Errorf("para %d has no head", paraID)
	}
	if r.enacting != nil {
		return nil, nil, errors.Errorf("grandpa set change enacted at %d is pending", r.enactAt)
	}
	latest := r.LatestBlock()
	clientState := grandpatypes.NewClientState(
		chainID, paraID, r.setID, r.voters.Authorities(), latest.Number(), latest.Hash, head.Number(),
	)
	return clientState, grandpatypes.NewConsensusState(head.TimestampNano(), head.Header.StateRoot[:]), nil
}

// GrandpaTarget returns the block finalized by the update of a GRANDPA
// client that has finalized relay block from: the latest block, or the first
// block after from enacting a set change.
func (r *RelayChain) GrandpaTarget(from uint32) uint32 {
	latest := r.LatestBlock().Number()
	for number := from + 1; number <= latest; number++ {
		if r.blocks[number].EnactsChange() {
			return number
		}
	}
	return latest
}

// GrandpaHeader returns the update of a GRANDPA client of paraID that has
// finalized relay block from. The target is the latest block, or the first
// block after from enacting a set change.
func (r *RelayChain) GrandpaHeader(paraID, from uint32) (*grandpatypes.Header, error) {
	return r.GrandpaHeaderTo(paraID, from, r.GrandpaTarget(from))
}

// GrandpaHeaderTo returns the update of a GRANDPA client of paraID that has
// finalized relay block from to the relay block target, justified by the set
// finalizing target.
func (r *RelayChain) GrandpaHeaderTo(paraID, from, target uint32) (*grandpatypes.Header, error) {
	if target <= from || target > r.LatestBlock().Number() {
		return nil, errors.Errorf("relay block %d cannot be finalized after %d", target, from)
	}

	targetBlock := r.blocks[target]
	justification, err := targetBlock.voters.Justify(targetBlock.Hash, target, uint64(target), targetBlock.SetID, targetBlock.voters.Len())
	if err != nil {
		return nil, err
	}
	encodedJustification, err := grandpatypes.EncodeJustification(justification)
	if err != nil {
		return nil, err
	}

	header := &grandpatypes.Header{
		FinalityProof: grandpatypes.FinalityProof{
			Block:         targetBlock.Hash,
			Justification: encodedJustification,
		},
	}
	for number := from + 1; number <= target; number++ {
		block := r.blocks[number]
		header.FinalityProof.UnknownHeaders = append(header.FinalityProof.UnknownHeaders, block.Encoded)

		paraBlock, ok := block.Paras[paraID]
		if !ok {
			continue
		}
		stateProof, err := r.tries.Prove(block.Header.StateRoot, parachain.HeadsStorageKey(paraID))
		if err != nil {
			return nil, err
		}
		header.ParachainHeaders = append(header.ParachainHeaders, grandpatypes.ParachainHeader{
			RelayHash: block.Hash,
			Proofs: parachain.HeaderProofs{
				StateProof:     stateProof,
				Extrinsic:      paraBlock.Extrinsic,
				ExtrinsicProof: paraBlock.ExtrinsicProof,
			},
		})
	}
	return header, nil
}

// GrandpaMisbehaviour returns evidence of the voters of relay block number
// finalizing both the block and a conflicting fork.
func (r *RelayChain) GrandpaMisbehaviour(number uint32) (*grandpatypes.Misbehaviour, error) {
	block, ok := r.Block(number)
	if !ok {
		return nil, errors.Errorf("unknown relay block %d", number)
	}

	fork := block.Header
	fork.ExtrinsicsRoot = types.NewHash(crypto.Keccak256([]byte("fork")))
	forkHash, err := parachain.HeaderHash(fork)
	if err != nil {
		return nil, err
	}

	proofs := make([]grandpatypes.FinalityProof, 2)
	for i, hash := range []types.Hash{block.Hash, forkHash} {
		justification, err := block.voters.Justify(hash, number, uint64(number), block.SetID, block.voters.Len())
		if err != nil {
			return nil, err
		}
		encoded, err := grandpatypes.EncodeJustification(justification)
		if err != nil {
			return nil, err
		}
		proofs[i] = grandpatypes.FinalityProof{Block: hash, Justification: encoded}
	}
	return grandpatypes.NewMisbehaviour(proofs[0], proofs[1]), nil
}

// BeefyClientState returns the BEEFY client and consensus state of paraID at
// the latest relay block.
func (r *RelayChain) BeefyClientState(paraID uint32) (*beefytypes.ClientState, *beefytypes.ConsensusState, error) {
	head, ok := r.heads[paraID]
	if !ok {
		return nil, nil, errors.Errorf("para %d has no head", paraID)
	}
	latest := r.LatestBlock()
	if latest.MmrSize == 0 {
		return nil, nil, errors.New("no mmr leaf produced yet")
	}
	root, err := r.mmr.Root(latest.MmrSize)
	if err != nil {
		return nil, nil, err
	}
	var mmrRoot [32]byte
	copy(mmrRoot[:], root)

	clientState := beefytypes.NewClientState(
		mmrRoot, latest.Number(), 0, latest.beefy.AuthoritySet(), r.beefyNext.AuthoritySet(), paraID, head.Number(),
	)
	return clientState, beefytypes.NewConsensusState(head.TimestampNano(), head.Header.StateRoot[:]), nil
}

// BeefyHeader returns the update of a BEEFY client of paraID whose latest BEEFY
// height is from: the latest MMR root signed by the current validators and the
// parachain headers included after from.
func (r *RelayChain) BeefyHeader(paraID, from uint32) (*beefytypes.Header, error) {
	latest := r.LatestBlock()
	number := latest.Number()
	if from >= number {
		return nil, errors.Errorf("relay block %d is already the latest", from)
	}

	root, err := r.mmr.Root(latest.MmrSize)
	if err != nil {
		return nil, err
	}
	leafProof, err := r.mmr.Proof(latest.MmrSize, []uint64{uint64(number - 1)})
	if err != nil {
		return nil, err
	}
	commitment := beefytypes.Commitment{
		Payload:        []beefytypes.PayloadItem{{PayloadID: beefytypes.MmrRootPayloadID, PayloadData: root}},
		BlockNumber:    number,
		ValidatorSetID: latest.beefy.ID,
	}
	signed, authoritiesProof, err := latest.beefy.Sign(commitment, latest.beefy.Len())
	if err != nil {
		return nil, err
	}

	header := &beefytypes.Header{
		MmrUpdateProof: &beefytypes.MmrUpdateProof{
			MmrLeaf:          latest.Leaf,
			MmrLeafIndex:     uint64(number - 1),
			MmrProof:         leafProof,
			SignedCommitment: signed,
			AuthoritiesProof: authoritiesProof,
		},
	}

	var leafIndices []uint64
	for n := from + 1; n <= number; n++ {
		block := r.blocks[n]
		paraBlock, ok := block.Paras[paraID]
		if !ok {
			continue
		}
		index := sort.Search(len(block.heads), func(i int) bool { return block.heads[i].id >= paraID })
		leaves := headsLeaves(block.heads)
		header.ParachainHeaders = append(header.ParachainHeaders, beefytypes.ParachainHeader{
			ParachainHeader: paraBlock.Encoded,
			MmrLeafPartial: beefytypes.BeefyMmrLeafPartial{
				Version:               block.Leaf.Version,
				ParentNumber:          block.Leaf.ParentNumber,
				ParentHash:            block.Leaf.ParentHash,
				BeefyNextAuthoritySet: block.Leaf.BeefyNextAuthoritySet,
			},
			ParaID:              paraID,
			ParachainHeadsProof: MerkleProof(leaves, index),
			HeadsLeafIndex:      uint32(index),
			HeadsTotalCount:     uint32(len(leaves)),
			Extrinsic:           paraBlock.Extrinsic,
			ExtrinsicProof:      paraBlock.ExtrinsicProof,
		})
		leafIndices = append(leafIndices, uint64(n-1))
	}

	if len(leafIndices) > 0 {
		header.MmrSize = latest.MmrSize
		header.MmrProofs, err = r.mmr.Proof(latest.MmrSize, leafIndices)
		if err != nil {
			return nil, err
		}
	}
	return header, nil
}
