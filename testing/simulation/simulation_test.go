package simulation_test

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/ComposableFi/go-merkle-trees/merkle"
	"github.com/ComposableFi/go-merkle-trees/mmr"
	"github.com/cosmos/cosmos-sdk/store"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"
	"pgregory.net/rapid"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
	beefytypes "github.com/ComposableFi/centauri/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/centauri/testing/simulation"
)

const paraID = 2000

type SimulationTestSuite struct {
	suite.Suite

	ctx         sdk.Context
	ibcStore    sdk.KVStore
	clientStore sdk.KVStore
	now         time.Time

	tries *simulation.TrieStore
	para  *simulation.Parachain
	relay *simulation.RelayChain
}

func (suite *SimulationTestSuite) SetupTest() {
	ibcKey := sdk.NewKVStoreKey("ibc")
	clientKey := sdk.NewKVStoreKey("client")

	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(ibcKey, sdk.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(clientKey, sdk.StoreTypeIAVL, nil)
	suite.Require().NoError(cms.LoadLatestVersion())

	suite.now = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	suite.ctx = sdk.NewContext(cms, tmproto.Header{Time: suite.now}, false, log.NewNopLogger())
	suite.ibcStore = suite.ctx.KVStore(ibcKey)
	suite.clientStore = prefix.NewStore(suite.ctx.KVStore(clientKey), []byte("clients/10-grandpa-0/"))

	var err error
	suite.tries, err = simulation.NewTrieStore()
	suite.Require().NoError(err)
	suite.para = simulation.NewParachain(paraID, suite.tries)
	suite.relay, err = simulation.NewRelayChain(simulation.RelayChainConfig{
		Seed: "relay", Voters: 4, BeefyValidators: 4,
	}, suite.tries)
	suite.Require().NoError(err)
}

func (suite *SimulationTestSuite) TearDownTest() {
	suite.Require().NoError(suite.tries.Close())
}

func TestSimulationTestSuite(t *testing.T) {
	suite.Run(t, new(SimulationTestSuite))
}

// produceBlocks writes a commitment per block into the IBC store and imports
// n parachain blocks into the relay chain.
func (suite *SimulationTestSuite) produceBlocks(n int) {
	for i := 0; i < n; i++ {
		number := uint32(1)
		if latest := suite.para.LatestBlock(); latest != nil {
			number = latest.Number() + 1
		}
		suite.ibcStore.Set([]byte(fmt.Sprintf("commitments/ports/transfer/channels/channel-0/sequences/%d", number)), []byte{byte(number)})
		suite.now = suite.now.Add(6 * time.Second)

		block, err := suite.para.ProduceBlock(number, suite.now, suite.relay.LatestBlock().Number(), suite.ibcStore)
		suite.Require().NoError(err)
		_, err = suite.relay.ImportParachainBlock(paraID, block)
		suite.Require().NoError(err)
	}
}

func (suite *SimulationTestSuite) initGrandpa() *grandpatypes.ClientState {
	suite.produceBlocks(1)
	clientState, consensusState, err := suite.relay.GrandpaClientState("testchain-0", paraID)
	suite.Require().NoError(err)
	suite.Require().NoError(clientState.Validate())
	suite.Require().NoError(clientState.Initialize(suite.ctx, suite.clientStore, consensusState))
	return clientState
}

func (suite *SimulationTestSuite) grandpaClientState() *grandpatypes.ClientState {
	var clientState grandpatypes.ClientState
	suite.Require().NoError(clienttypes.UnpackInto(suite.clientStore.Get(host.ClientStateKey()), exported.Grandpa, &clientState))
	return &clientState
}

func (suite *SimulationTestSuite) TestStateProof() {
	suite.produceBlocks(2)

	block := suite.para.LatestBlock()
	present := []byte("commitments/ports/transfer/channels/channel-0/sequences/2")
	key, err := commitmenttypes.ApplyPrefix(commitmenttypes.NewMerklePrefix([]byte(commitmenttypes.DefaultPrefix)), string(present))
	suite.Require().NoError(err)

	proof, err := suite.para.ProveState(block.Number(), present)
	suite.Require().NoError(err)
	suite.Require().NoError(commitmenttypes.VerifyMembership(proof, block.Header.StateRoot[:], key, []byte{2}))
	suite.Require().Error(commitmenttypes.VerifyMembership(proof, block.Header.StateRoot[:], key, []byte{3}))

	absent := []byte("commitments/ports/transfer/channels/channel-0/sequences/9")
	absentKey, err := commitmenttypes.ApplyPrefix(commitmenttypes.NewMerklePrefix([]byte(commitmenttypes.DefaultPrefix)), string(absent))
	suite.Require().NoError(err)
	proof, err = suite.para.ProveState(block.Number(), absent)
	suite.Require().NoError(err)
	suite.Require().NoError(commitmenttypes.VerifyNonMembership(proof, block.Header.StateRoot[:], absentKey))
}

func (suite *SimulationTestSuite) TestGrandpaUpdate() {
	clientState := suite.initGrandpa()
	suite.produceBlocks(3)

	header, err := suite.relay.GrandpaHeader(paraID, clientState.LatestRelayHeight)
	suite.Require().NoError(err)
	suite.Require().NoError(header.ValidateBasic())
	suite.Require().Len(header.ParachainHeaders, 3)

	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	suite.Require().False(clientState.CheckForMisbehaviour(suite.ctx, suite.clientStore, header))
	heights := clientState.UpdateState(suite.ctx, suite.clientStore, header)
	suite.Require().Len(heights, 3)

	updated := suite.grandpaClientState()
	latest := suite.para.LatestBlock()
	suite.Require().Equal(latest.Number(), updated.LatestParaHeight)
	suite.Require().Equal(suite.relay.LatestBlock().Hash, updated.LatestRelayHash)

	timestamp, err := updated.GetTimestampAtHeight(suite.ctx, suite.clientStore, clienttypes.NewHeight(0, uint64(latest.Number())))
	suite.Require().NoError(err)
	suite.Require().Equal(latest.TimestampNano(), timestamp)

	// replaying the update is rejected
	suite.Require().Error(updated.VerifyClientMessage(suite.ctx, suite.clientStore, header))
}

func (suite *SimulationTestSuite) TestGrandpaInsufficientSignatures() {
	clientState := suite.initGrandpa()
	suite.produceBlocks(1)

	header, err := suite.relay.GrandpaHeader(paraID, clientState.LatestRelayHeight)
	suite.Require().NoError(err)

	target := suite.relay.LatestBlock()
	voters, setID := suite.relay.Voters()
	// 2 of 4 is not a super-majority
	justification, err := voters.Justify(target.Hash, target.Number(), uint64(target.Number()), setID, 2)
	suite.Require().NoError(err)
	header.FinalityProof.Justification, err = grandpatypes.EncodeJustification(justification)
	suite.Require().NoError(err)

	err = clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header)
	suite.Require().ErrorIs(err, grandpatypes.ErrInsufficientStake)
}

func (suite *SimulationTestSuite) TestGrandpaAuthorityRotation() {
	clientState := suite.initGrandpa()

	next := simulation.NewVoterSet("rotated", 5)
	suite.relay.ScheduleAuthorityChange(next)
	suite.produceBlocks(3)

	// the first update stops at the enacting block
	header, err := suite.relay.GrandpaHeader(paraID, clientState.LatestRelayHeight)
	suite.Require().NoError(err)
	suite.Require().Len(header.FinalityProof.UnknownHeaders, 1)
	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	clientState.UpdateState(suite.ctx, suite.clientStore, header)

	rotated := suite.grandpaClientState()
	suite.Require().Equal(clientState.CurrentSetID+1, rotated.CurrentSetID)
	suite.Require().Equal(next.Authorities(), rotated.CurrentAuthorities)

	// later blocks are finalized by the new set
	header, err = suite.relay.GrandpaHeader(paraID, rotated.LatestRelayHeight)
	suite.Require().NoError(err)
	suite.Require().Len(header.ParachainHeaders, 2)
	suite.Require().NoError(rotated.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	suite.Require().Error(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	rotated.UpdateState(suite.ctx, suite.clientStore, header)
	suite.Require().Equal(suite.para.LatestBlock().Number(), suite.grandpaClientState().LatestParaHeight)
}

func (suite *SimulationTestSuite) TestGrandpaAuthorityRotationWithinUpdate() {
	clientState := suite.initGrandpa()
	voters, setID := suite.relay.Voters()

	next := simulation.NewVoterSet("rotated", 5)
	suite.relay.ScheduleAuthorityChange(next)
	suite.produceBlocks(3)

	// one update crosses the change and is justified by the new set
	latest := suite.relay.LatestBlock()
	header, err := suite.relay.GrandpaHeaderTo(paraID, clientState.LatestRelayHeight, latest.Number())
	suite.Require().NoError(err)
	suite.Require().Len(header.FinalityProof.UnknownHeaders, 3)
	suite.Require().Len(header.ParachainHeaders, 3)
	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	heights := clientState.UpdateState(suite.ctx, suite.clientStore, header)
	suite.Require().Len(heights, 3)

	updated := suite.grandpaClientState()
	suite.Require().Equal(setID+1, updated.CurrentSetID)
	suite.Require().Equal(next.Authorities(), updated.CurrentAuthorities)
	suite.Require().Equal(latest.Hash, updated.LatestRelayHash)
	suite.Require().Equal(suite.para.LatestBlock().Number(), updated.LatestParaHeight)

	// state of a parachain block finalized before the target is provable
	middle := suite.para.LatestBlock().Number() - 1
	path := fmt.Sprintf("commitments/ports/transfer/channels/channel-0/sequences/%d", middle)
	proof, err := suite.para.ProveState(middle, []byte(path))
	suite.Require().NoError(err)
	prefix := commitmenttypes.NewMerklePrefix([]byte(commitmenttypes.DefaultPrefix))
	height := clienttypes.NewHeight(0, uint64(middle))
	suite.Require().NoError(updated.VerifyMembership(suite.ctx, suite.clientStore, height, proof, prefix, path, []byte{byte(middle)}))
	suite.Require().Error(updated.VerifyMembership(suite.ctx, suite.clientStore, height, proof, prefix, path, []byte{byte(middle + 1)}))

	// the old set cannot finalize blocks after the change
	header, err = suite.relay.GrandpaHeaderTo(paraID, clientState.LatestRelayHeight, latest.Number())
	suite.Require().NoError(err)
	justification, err := voters.Justify(latest.Hash, latest.Number(), uint64(latest.Number()), setID, voters.Len())
	suite.Require().NoError(err)
	header.FinalityProof.Justification, err = grandpatypes.EncodeJustification(justification)
	suite.Require().NoError(err)
	err = clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header)
	suite.Require().ErrorIs(err, grandpatypes.ErrAuthoritySetMismatch)
}

func (suite *SimulationTestSuite) TestGrandpaDelayedAuthorityChange() {
	clientState := suite.initGrandpa()
	_, setID := suite.relay.Voters()

	next := simulation.NewVoterSet("rotated", 5)
	suite.relay.ScheduleDelayedAuthorityChange(next, 4)
	suite.produceBlocks(2)

	announcing, ok := suite.relay.Block(suite.relay.LatestBlock().Number() - 1)
	suite.Require().True(ok)
	suite.Require().True(announcing.AnnouncesChange())
	suite.Require().False(announcing.EnactsChange())

	// the change is announced but enacted after the target
	header, err := suite.relay.GrandpaHeader(paraID, clientState.LatestRelayHeight)
	suite.Require().NoError(err)
	err = clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header)
	suite.Require().ErrorIs(err, grandpatypes.ErrUnfinalizedSetChange)

	suite.produceBlocks(4)
	target := suite.relay.GrandpaTarget(clientState.LatestRelayHeight)
	block, ok := suite.relay.Block(target)
	suite.Require().True(ok)
	suite.Require().True(block.EnactsChange())
	suite.Require().Less(target, suite.relay.LatestBlock().Number())

	header, err = suite.relay.GrandpaHeader(paraID, clientState.LatestRelayHeight)
	suite.Require().NoError(err)
	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	clientState.UpdateState(suite.ctx, suite.clientStore, header)

	rotated := suite.grandpaClientState()
	suite.Require().Equal(setID+1, rotated.CurrentSetID)
	suite.Require().Equal(next.Authorities(), rotated.CurrentAuthorities)

	header, err = suite.relay.GrandpaHeader(paraID, rotated.LatestRelayHeight)
	suite.Require().NoError(err)
	suite.Require().NoError(rotated.VerifyClientMessage(suite.ctx, suite.clientStore, header))
}

func (suite *SimulationTestSuite) TestGrandpaMisbehaviour() {
	clientState := suite.initGrandpa()
	suite.produceBlocks(1)

	misbehaviour, err := suite.relay.GrandpaMisbehaviour(suite.relay.LatestBlock().Number())
	suite.Require().NoError(err)
	suite.Require().NoError(misbehaviour.ValidateBasic())
	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, misbehaviour))
	suite.Require().True(clientState.CheckForMisbehaviour(suite.ctx, suite.clientStore, misbehaviour))

	clientState.UpdateStateOnMisbehaviour(suite.ctx, suite.clientStore, misbehaviour)
	suite.Require().NotZero(suite.grandpaClientState().FrozenHeight)
}

func (suite *SimulationTestSuite) initBeefy() *beefytypes.ClientState {
	suite.produceBlocks(1)
	clientState, consensusState, err := suite.relay.BeefyClientState(paraID)
	suite.Require().NoError(err)
	suite.Require().NoError(clientState.Validate())
	suite.Require().NoError(clientState.Initialize(suite.ctx, suite.clientStore, consensusState))
	return clientState
}

func (suite *SimulationTestSuite) beefyClientState() *beefytypes.ClientState {
	var clientState beefytypes.ClientState
	suite.Require().NoError(clienttypes.UnpackInto(suite.clientStore.Get(host.ClientStateKey()), exported.Beefy, &clientState))
	return &clientState
}

func (suite *SimulationTestSuite) TestBeefyUpdate() {
	clientState := suite.initBeefy()
	suite.produceBlocks(4)

	header, err := suite.relay.BeefyHeader(paraID, clientState.LatestBeefyHeight)
	suite.Require().NoError(err)
	suite.Require().NoError(header.ValidateBasic())
	suite.Require().Len(header.ParachainHeaders, 4)

	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	heights := clientState.UpdateState(suite.ctx, suite.clientStore, header)
	suite.Require().Len(heights, 4)

	updated := suite.beefyClientState()
	suite.Require().Equal(suite.relay.LatestBlock().Number(), updated.LatestBeefyHeight)
	suite.Require().Equal(suite.para.LatestBlock().Number(), updated.LatestParaHeight)

	// a tampered parachain header is not under the signed root
	header.ParachainHeaders[0].HeadsLeafIndex = 0
	header.ParachainHeaders[0].ParachainHeader = suite.para.LatestBlock().Encoded
	suite.Require().Error(updated.VerifyClientMessage(suite.ctx, suite.clientStore, header))
}

func (suite *SimulationTestSuite) TestBeefyAuthorityRotation() {
	clientState := suite.initBeefy()

	suite.relay.RotateBeefyAuthorities()
	suite.produceBlocks(2)

	header, err := suite.relay.BeefyHeader(paraID, clientState.LatestBeefyHeight)
	suite.Require().NoError(err)
	suite.Require().Equal(clientState.NextAuthoritySet.ID, header.MmrUpdateProof.SignedCommitment.Commitment.ValidatorSetID)
	suite.Require().NoError(clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header))
	clientState.UpdateState(suite.ctx, suite.clientStore, header)

	rotated := suite.beefyClientState()
	suite.Require().Equal(clientState.NextAuthoritySet, rotated.Authority)
	suite.Require().Equal(clientState.NextAuthoritySet.ID+1, rotated.NextAuthoritySet.ID)
}

func (suite *SimulationTestSuite) TestBeefyInsufficientSignatures() {
	clientState := suite.initBeefy()
	suite.produceBlocks(1)

	header, err := suite.relay.BeefyHeader(paraID, clientState.LatestBeefyHeight)
	suite.Require().NoError(err)
	// 2 of 4 is below 2n/3+1
	header.MmrUpdateProof.SignedCommitment.Signatures = header.MmrUpdateProof.SignedCommitment.Signatures[:2]

	err = clientState.VerifyClientMessage(suite.ctx, suite.clientStore, header)
	suite.Require().ErrorIs(err, beefytypes.ErrCommitmentNotFinal)
}

func TestBeefyPartialSigners(t *testing.T) {
	set, err := simulation.NewBeefyValidatorSet("partial", 0, 7)
	require.NoError(t, err)
	authoritySet := set.AuthoritySet()

	commitment := beefytypes.Commitment{BlockNumber: 10, ValidatorSetID: 0}
	signed, proof, err := set.Sign(commitment, 5)
	require.NoError(t, err)
	require.NotEmpty(t, proof)

	encoded, err := beefytypes.Encode(commitment)
	require.NoError(t, err)
	hash := crypto.Keccak256(encoded)

	leaves := make([]merkle.Leaf, len(signed.Signatures))
	for i, signature := range signed.Signatures {
		pubkey, err := crypto.SigToPub(hash, signature.Signature)
		require.NoError(t, err)
		address := crypto.PubkeyToAddress(*pubkey)
		leaves[i] = merkle.Leaf{Hash: crypto.Keccak256(address[:]), Index: signature.AuthorityIndex}
	}
	valid, err := merkle.NewProof(leaves, proof, authoritySet.Len, beefytypes.Keccak256{}).Verify(authoritySet.AuthorityRoot[:])
	require.NoError(t, err)
	require.True(t, valid)
}

func TestMerkleProof(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 33).Draw(t, "count").(int)
		index := rapid.IntRange(0, count-1).Draw(t, "index").(int)

		leaves := make([][]byte, count)
		for i := range leaves {
			leaves[i] = crypto.Keccak256([]byte{byte(i)})
		}
		root := simulation.MerkleRoot(leaves)

		proof := merkle.NewProof(
			[]merkle.Leaf{{Hash: leaves[index], Index: uint32(index)}},
			simulation.MerkleProof(leaves, index), uint32(count), beefytypes.Keccak256{},
		)
		valid, err := proof.Verify(root[:])
		if err != nil || !valid {
			t.Fatalf("leaf %d of %d not proven: %v", index, count, err)
		}
	})
}

func TestMMRProof(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 64).Draw(t, "count").(int)
		last := uint64(rapid.IntRange(0, count-1).Draw(t, "last").(int))
		drawn := rapid.SliceOfN(rapid.Uint64Range(0, last), 1, 4).Draw(t, "indices").([]uint64)

		seen := make(map[uint64]bool)
		var indices []uint64
		for _, index := range drawn {
			if !seen[index] {
				seen[index] = true
				indices = append(indices, index)
			}
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

		m := &simulation.MMR{}
		hashes := make([][]byte, count)
		for i := range hashes {
			hashes[i] = crypto.Keccak256([]byte(fmt.Sprintf("leaf-%d", i)))
			m.Push(hashes[i])
		}

		size := mmr.LeafIndexToMMRSize(last)
		root, err := m.Root(size)
		if err != nil {
			t.Fatal(err)
		}
		proof, err := m.Proof(size, indices)
		if err != nil {
			t.Fatal(err)
		}

		leaves := make([]mmr.Leaf, len(indices))
		for i, index := range indices {
			leaves[i] = mmr.Leaf{Hash: hashes[index], Index: index}
		}
		if !mmr.NewProof(size, proof, leaves, beefytypes.Keccak256{}).Verify(root) {
			t.Fatalf("leaves %v not proven in mmr of size %d", indices, size)
		}
	})
}

func TestMMRLeafPositions(t *testing.T) {
	// node positions of the first eight leaves in post-order numbering
	for index, pos := range []uint64{0, 1, 3, 4, 7, 8, 10, 11} {
		require.Equal(t, pos, simulation.LeafIndexToPos(uint64(index)), "leaf %d", index)
	}

	m := &simulation.MMR{}
	for i := 0; i < 4; i++ {
		m.Push(crypto.Keccak256([]byte{byte(i)}))
	}
	require.Equal(t, uint64(7), m.Size())
	require.Equal(t, mmr.LeafIndexToMMRSize(3), m.Size())
}
