package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ChainSafe/log15"
	"github.com/ComposableFi/go-merkle-trees/merkle"
	"github.com/ComposableFi/go-merkle-trees/mmr"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ethereum/go-ethereum/crypto"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	"github.com/ComposableFi/centauri/modules/light-clients/parachain"
)

// Keccak256 is the hasher of the authority merkle trees and the relay chain MMR.
type Keccak256 struct{}

func (b Keccak256) Merge(left, right interface{}) interface{} {
	l := left.([]byte)
	r := right.([]byte)
	return crypto.Keccak256(append(append([]byte{}, l...), r...))
}

func (b Keccak256) Hash(data []byte) ([]byte, error) {
	return crypto.Keccak256(data), nil
}

// verifiedParachainBlock is a parachain header proven into the client's MMR.
type verifiedParachainBlock struct {
	height    clienttypes.Height
	timestamp uint64
	root      []byte
}

// VerifyClientMessage checks if the clientMessage is of type Header and verifies the message
func (cs ClientState) VerifyClientMessage(
	_ sdk.Context, _ sdk.KVStore, clientMsg exported.ClientMessage,
) error {
	switch msg := clientMsg.(type) {
	case *Header:
		_, _, err := cs.verifyHeader(msg)
		return err
	default:
		return sdkerrors.Wrapf(clienttypes.ErrInvalidClientType, "expected type %T, got %T", &Header{}, clientMsg)
	}
}

// verifyHeader returns the client state advanced by the header's MMR update and
// the verified parachain blocks. It returns an error if:
// - the signed commitment is not signed by a super-majority of a known authority set
// - the latest MMR leaf is not included under the signed MMR root
// - a parachain header is not included in an MMR leaf under the MMR root
// - a timestamp extrinsic proof is invalid
func (cs ClientState) verifyHeader(beefyHeader *Header) (ClientState, []verifiedParachainBlock, error) {
	if beefyHeader.MmrUpdateProof != nil {
		updated, err := cs.verifyMmrUpdateProof(beefyHeader.MmrUpdateProof)
		if err != nil {
			return ClientState{}, nil, err
		}
		cs = updated
	}

	if len(beefyHeader.ParachainHeaders) == 0 {
		return cs, nil, nil
	}

	mmrProof, err := cs.getMMRProof(beefyHeader)
	if err != nil {
		return ClientState{}, nil, sdkerrors.Wrap(err, "failed to execute getMMRProof")
	}

	// Given the leaves, we should be able to verify that each parachain header was
	// indeed included in the leaves of our mmr.
	if !mmrProof.Verify(cs.MmrRootHash[:]) {
		root, err := mmrProof.CalculateRoot()
		if err != nil {
			log15.Error(fmt.Sprintf("failed to calculate root for mmr leaves: %v", err))
			return ClientState{}, nil, sdkerrors.Wrap(ErrFailedVerifyMMRLeaf, err.Error())
		}
		log15.Error(fmt.Sprintf("failed to verify mmr leaves, calculated root %x", root))
		return ClientState{}, nil, sdkerrors.Wrapf(ErrFailedVerifyMMRLeaf, "calculated root %x", root)
	}

	blocks := make([]verifiedParachainBlock, 0, len(beefyHeader.ParachainHeaders))
	for _, parachainHeader := range beefyHeader.ParachainHeaders {
		if parachainHeader.ParaID != cs.ParaID {
			return ClientState{}, nil, sdkerrors.Wrapf(ErrInvalidParachainHeader, "header of para %d, client tracks para %d", parachainHeader.ParaID, cs.ParaID)
		}
		header, err := parachain.DecodeHeader(parachainHeader.ParachainHeader)
		if err != nil {
			return ClientState{}, nil, sdkerrors.Wrap(ErrInvalidParachainHeader, err.Error())
		}
		timestamp, err := parachain.VerifyTimestampExtrinsic(header, parachainHeader.Extrinsic, parachainHeader.ExtrinsicProof)
		if err != nil {
			return ClientState{}, nil, err
		}
		blocks = append(blocks, verifiedParachainBlock{
			height:    clienttypes.NewHeight(0, uint64(header.Number)),
			timestamp: timestamp,
			root:      append([]byte{}, header.StateRoot[:]...),
		})
	}

	return cs, blocks, nil
}

// verifyMmrUpdateProof checks the signed commitment and returns the client state
// with the new MMR root and, when the next authority set signed, rotated sets.
func (cs ClientState) verifyMmrUpdateProof(mmrUpdateProof *MmrUpdateProof) (ClientState, error) {
	var (
		authoritiesProof = mmrUpdateProof.AuthoritiesProof
		signedCommitment = mmrUpdateProof.SignedCommitment
	)

	var authoritySet BeefyAuthoritySet
	switch signedCommitment.Commitment.ValidatorSetID {
	case cs.Authority.ID:
		authoritySet = cs.Authority
	case cs.NextAuthoritySet.ID:
		authoritySet = cs.NextAuthoritySet
	default:
		return ClientState{}, sdkerrors.Wrapf(ErrAuthoritySetUnknown, "validator set %d", signedCommitment.Commitment.ValidatorSetID)
	}

	// checking signatures is expensive, we want to know if these sigs meet the
	// minimum threshold before proceeding
	if authoritiesThreshold(authoritySet) > uint32(len(signedCommitment.Signatures)) {
		return ClientState{}, sdkerrors.Wrapf(
			ErrCommitmentNotFinal, "%d signatures, %d required", len(signedCommitment.Signatures), authoritiesThreshold(authoritySet),
		)
	}

	// beefy authorities are signing the hash of the scale-encoded Commitment
	commitmentBytes, err := Encode(signedCommitment.Commitment)
	if err != nil {
		return ClientState{}, sdkerrors.Wrap(ErrInvalidCommitment, err.Error())
	}

	// take keccak hash of the commitment scale-encoded
	commitmentHash := crypto.Keccak256(commitmentBytes)

	// array of leaves in the authority merkle root.
	authorityLeaves := make([]merkle.Leaf, 0, len(signedCommitment.Signatures))
	signers := make(map[uint32]bool, len(signedCommitment.Signatures))
	for _, signature := range signedCommitment.Signatures {
		if signers[signature.AuthorityIndex] {
			return ClientState{}, sdkerrors.Wrapf(ErrDuplicateAuthoritySignature, "authority index %d", signature.AuthorityIndex)
		}
		signers[signature.AuthorityIndex] = true

		// recover uncompressed public key from signature
		pubkey, err := crypto.SigToPub(commitmentHash, signature.Signature)
		if err != nil {
			return ClientState{}, sdkerrors.Wrap(ErrInvalidCommitmentSignature, err.Error())
		}

		// convert public key to ethereum address.
		address := crypto.PubkeyToAddress(*pubkey)
		authorityLeaves = append(authorityLeaves, merkle.Leaf{
			Hash:  crypto.Keccak256(address[:]),
			Index: signature.AuthorityIndex,
		})
	}

	// here we construct a merkle proof, and verify that the public keys which produced this signature
	// are part of the signing authority set.
	proof := merkle.NewProof(authorityLeaves, authoritiesProof, authoritySet.Len, Keccak256{})
	valid, err := proof.Verify(authoritySet.AuthorityRoot[:])
	if err != nil {
		return ClientState{}, sdkerrors.Wrap(ErrAuthoritySetUnknown, err.Error())
	}
	if !valid {
		log15.Error(fmt.Sprintf("commitment signers are not members of authority set %d", authoritySet.ID))
		return ClientState{}, sdkerrors.Wrapf(ErrInvalidCommitmentSignature, "signers are not members of authority set %d", authoritySet.ID)
	}

	// only update if we have a higher block number.
	if signedCommitment.Commitment.BlockNumber <= cs.LatestBeefyHeight {
		return cs, nil
	}

	var mmrRoot []byte
	for _, payload := range signedCommitment.Commitment.Payload {
		if payload.PayloadID == MmrRootPayloadID {
			mmrRoot = payload.PayloadData
			break
		}
	}
	if len(mmrRoot) != 32 {
		return ClientState{}, sdkerrors.Wrapf(ErrMissingMMRRootPayload, "block %d", signedCommitment.Commitment.BlockNumber)
	}

	// scale encode the mmr leaf
	mmrLeafBytes, err := Encode(mmrUpdateProof.MmrLeaf)
	if err != nil {
		return ClientState{}, sdkerrors.Wrap(ErrInvalidMMRLeaf, err.Error())
	}
	// we treat this leaf as the latest leaf in the mmr
	mmrSize := mmr.LeafIndexToMMRSize(mmrUpdateProof.MmrLeafIndex)
	mmrLeaves := []mmr.Leaf{
		{
			Hash:  crypto.Keccak256(mmrLeafBytes),
			Index: mmrUpdateProof.MmrLeafIndex,
		},
	}
	mmrProof := mmr.NewProof(mmrSize, mmrUpdateProof.MmrProof, mmrLeaves, Keccak256{})
	// verify that the leaf is valid, for the signed mmr-root-hash
	if !mmrProof.Verify(mmrRoot) {
		return ClientState{}, sdkerrors.Wrap(ErrFailedVerifyMMRLeaf, "latest mmr leaf is not included under the signed root")
	}

	cs.LatestBeefyHeight = signedCommitment.Commitment.BlockNumber
	copy(cs.MmrRootHash[:], mmrRoot)

	// authority set has changed, rotate our view of the authorities
	if authoritySet.ID == cs.NextAuthoritySet.ID {
		cs.Authority = cs.NextAuthoritySet
		// mmr leaf has been verified, use it to update our view of the next authority set
		cs.NextAuthoritySet = mmrUpdateProof.MmrLeaf.BeefyNextAuthoritySet
	}

	return cs, nil
}

// getMMRProof reconstructs the MMR leaf of every parachain header and returns the
// MMR proof of those leaves.
func (cs ClientState) getMMRProof(beefyHeader *Header) (*mmr.Proof, error) {
	mmrLeaves := make([]mmr.Leaf, len(beefyHeader.ParachainHeaders))

	for i, parachainHeader := range beefyHeader.ParachainHeaders {
		// first we need to reconstruct the mmr leaf for this header
		paraIDScale := make([]byte, 4)
		// scale encode para_id
		binary.LittleEndian.PutUint32(paraIDScale, parachainHeader.ParaID)
		// scale encode to get parachain heads leaf bytes
		headsLeafBytes := append(paraIDScale, parachainHeader.ParachainHeader...)
		headsLeaf := []merkle.Leaf{
			{
				Hash:  crypto.Keccak256(headsLeafBytes),
				Index: parachainHeader.HeadsLeafIndex,
			},
		}
		parachainHeadsProof := merkle.NewProof(headsLeaf, parachainHeader.ParachainHeadsProof, parachainHeader.HeadsTotalCount, Keccak256{})
		parachainHeadsRoot, err := parachainHeadsProof.Root()
		if err != nil {
			return nil, sdkerrors.Wrap(ErrInvalidParachainHeadsProof, err.Error())
		}

		var parachainHeads [32]byte
		copy(parachainHeads[:], parachainHeadsRoot)

		mmrLeaf := BeefyMmrLeaf{
			Version:               parachainHeader.MmrLeafPartial.Version,
			ParentNumber:          parachainHeader.MmrLeafPartial.ParentNumber,
			ParentHash:            parachainHeader.MmrLeafPartial.ParentHash,
			BeefyNextAuthoritySet: parachainHeader.MmrLeafPartial.BeefyNextAuthoritySet,
			ParachainHeads:        parachainHeads,
		}

		// the mmr leaf's are a scale-encoded
		mmrLeafBytes, err := Encode(mmrLeaf)
		if err != nil {
			return nil, sdkerrors.Wrap(ErrInvalidMMRLeaf, err.Error())
		}

		mmrLeaves[i] = mmr.Leaf{
			Hash: crypto.Keccak256(mmrLeafBytes),
			// based on our knowledge of the beefy protocol, and the structure of MMRs
			// we are be able to reconstruct the leaf index of this mmr leaf
			// given the parent_number of this leaf, the beefy activation block
			Index: uint64(cs.GetLeafIndexForBlockNumber(parachainHeader.MmrLeafPartial.ParentNumber + 1)),
		}
	}

	return mmr.NewProof(beefyHeader.MmrSize, beefyHeader.MmrProofs, mmrLeaves, Keccak256{}), nil
}

// CheckForMisbehaviour detects headers that conflict with consensus states already
// stored by the client.
func (cs ClientState) CheckForMisbehaviour(_ sdk.Context, clientStore sdk.KVStore, msg exported.ClientMessage) bool {
	header, ok := msg.(*Header)
	if !ok {
		return false
	}
	_, blocks, err := cs.verifyHeader(header)
	if err != nil {
		return false
	}

	for _, block := range blocks {
		existing, found := clienttypes.GetConsensusStateBytes(clientStore, block.height)
		if !found {
			continue
		}
		// A consensus state already exists for this height, but it does not match the provided header.
		if !bytes.Equal(existing, clienttypes.MustMarshalConsensusState(NewConsensusState(block.timestamp, block.root))) {
			return true
		}
	}
	return false
}

// UpdateStateOnMisbehaviour updates state upon misbehaviour, freezing the ClientState. This method should only be called when misbehaviour is detected
// as it does not perform any misbehaviour checks.
func (cs ClientState) UpdateStateOnMisbehaviour(_ sdk.Context, clientStore sdk.KVStore, _ exported.ClientMessage) {
	cs.FrozenHeight = uint64(cs.LatestParaHeight)
	if cs.FrozenHeight == 0 {
		cs.FrozenHeight = 1
	}
	clienttypes.SetClientState(clientStore, &cs)
}

// UpdateState stores the new MMR root and authority sets, and a consensus state
// for every parachain header. It assumes the header has already been verified.
func (cs ClientState) UpdateState(ctx sdk.Context, clientStore sdk.KVStore, clientMsg exported.ClientMessage) []exported.Height {
	beefyHeader, ok := clientMsg.(*Header)
	if !ok {
		panic(sdkerrors.Wrapf(clienttypes.ErrInvalidClientType, "expected type %T, got %T", &Header{}, clientMsg))
	}

	updated, blocks, err := cs.verifyHeader(beefyHeader)
	if err != nil {
		panic(sdkerrors.Wrap(err, "update state called with an unverified header"))
	}

	var heights []exported.Height
	// iterate over each parachain header and set them in the store.
	for _, block := range blocks {
		// check for duplicate consensus state
		if clienttypes.HasConsensusState(clientStore, block.height) {
			continue
		}

		// we store consensus state as (0, HEIGHT) => ConsensusState
		clienttypes.SetConsensusState(ctx, clientStore, NewConsensusState(block.timestamp, block.root), block.height)
		heights = append(heights, block.height)

		if uint32(block.height.RevisionHeight) > updated.LatestParaHeight {
			updated.LatestParaHeight = uint32(block.height.RevisionHeight)
		}
	}

	clienttypes.SetClientState(clientStore, &updated)

	return heights
}
