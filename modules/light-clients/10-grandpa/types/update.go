package types

import (
	"bytes"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	"github.com/ComposableFi/centauri/modules/light-clients/parachain"
)

// verifiedUpdate is the result of verifying a Header against the client state.
// setID and authorities are the set finalizing the blocks after the target.
type verifiedUpdate struct {
	target          types.Header
	targetHash      types.Hash
	setID           uint64
	authorities     []Authority
	parachainBlocks []parachain.VerifiedHeader
}

// VerifyClientMessage checks if the clientMessage is of type Header or Misbehaviour and verifies the message
func (cs ClientState) VerifyClientMessage(
	_ sdk.Context, _ sdk.KVStore, clientMsg exported.ClientMessage,
) error {
	switch msg := clientMsg.(type) {
	case *Header:
		_, err := cs.verifyHeader(msg)
		return err
	case *Misbehaviour:
		return cs.verifyMisbehaviour(msg)
	default:
		return sdkerrors.Wrapf(clienttypes.ErrInvalidClientType, "expected type %T or %T, got %T", &Header{}, &Misbehaviour{}, clientMsg)
	}
}

// verifyHeader returns an error if:
// - the justification cannot be decoded or does not target the finality proof block
// - the target is not above the latest finalized relay height
// - the unknown headers do not link the latest finalized relay block to the target
// - the justification is not signed by a super-majority of the authority set
//   active at the target, after enacting the set changes of the headers below it
// - a set change is not enacted by the target or an earlier header
// - a parachain header is not proven against one of the newly finalized relay blocks
func (cs ClientState) verifyHeader(header *Header) (verifiedUpdate, error) {
	justification, err := DecodeJustification(header.FinalityProof.Justification)
	if err != nil {
		return verifiedUpdate{}, err
	}
	if justification.Commit.TargetHash != header.FinalityProof.Block {
		return verifiedUpdate{}, sdkerrors.Wrap(ErrInvalidJustification, "justification does not target the finality proof block")
	}
	if justification.Commit.TargetNumber <= cs.LatestRelayHeight {
		return verifiedUpdate{}, sdkerrors.Wrapf(
			clienttypes.ErrNonMonotonicHeight,
			"finality target %d is not above latest relay height %d", justification.Commit.TargetNumber, cs.LatestRelayHeight,
		)
	}

	relayHeaders, err := cs.verifyHeaderChain(header.FinalityProof.UnknownHeaders, justification.Commit)
	if err != nil {
		return verifiedUpdate{}, err
	}

	setID, authorities, pending, err := cs.authoritySetAt(relayHeaders)
	if err != nil {
		return verifiedUpdate{}, err
	}
	if err := justification.Verify(setID, authorities); err != nil {
		return verifiedUpdate{}, err
	}

	update := verifiedUpdate{
		target:      relayHeaders[len(relayHeaders)-1].header,
		targetHash:  justification.Commit.TargetHash,
		setID:       setID,
		authorities: authorities,
	}
	// a change enacted by the target takes over from the next block
	if pending != nil {
		update.setID++
		update.authorities = pending.NextAuthorities
	}

	stateRoots := make(map[types.Hash]types.Hash, len(relayHeaders))
	for _, relayHeader := range relayHeaders {
		stateRoots[relayHeader.hash] = relayHeader.header.StateRoot
	}

	for _, paraHeader := range header.ParachainHeaders {
		stateRoot, ok := stateRoots[paraHeader.RelayHash]
		if !ok {
			return verifiedUpdate{}, sdkerrors.Wrapf(ErrUnknownRelayHash, "relay hash %x", paraHeader.RelayHash)
		}
		verified, err := parachain.VerifyHeader(stateRoot[:], cs.ParaID, paraHeader.Proofs)
		if err != nil {
			return verifiedUpdate{}, sdkerrors.Wrap(ErrInvalidParachainHeader, err.Error())
		}
		update.parachainBlocks = append(update.parachainBlocks, verified)
	}

	return update, nil
}

type hashedHeader struct {
	header types.Header
	hash   types.Hash
}

// authoritySetAt walks the authenticated relay headers in ascending order and
// returns the set finalizing the last of them. A change announced at block n
// with delay d is enacted by block n+d, and blocks after it are finalized by
// the next set. A change enacted by the last header is returned as pending.
func (cs ClientState) authoritySetAt(headers []hashedHeader) (uint64, []Authority, *ScheduledChange, error) {
	setID, authorities := cs.CurrentSetID, cs.CurrentAuthorities

	var (
		pending *ScheduledChange
		enactAt uint64
	)
	for _, relayHeader := range headers {
		number := uint64(relayHeader.header.Number)
		if pending != nil && enactAt < number {
			setID++
			authorities = pending.NextAuthorities
			pending = nil
		}

		change, err := FindScheduledChange(relayHeader.header)
		if err != nil {
			return 0, nil, nil, err
		}
		if change == nil {
			continue
		}
		if pending != nil {
			return 0, nil, nil, sdkerrors.Wrapf(
				ErrInvalidAuthoritySet, "relay block %d announces a change while the change of block %d is pending", number, enactAt,
			)
		}
		if len(change.NextAuthorities) == 0 {
			return 0, nil, nil, sdkerrors.Wrapf(ErrInvalidAuthoritySet, "relay block %d schedules an empty authority set", number)
		}
		pending = change
		enactAt = number + uint64(change.Delay)
	}

	last := uint64(headers[len(headers)-1].header.Number)
	if pending != nil && enactAt > last {
		return 0, nil, nil, sdkerrors.Wrapf(
			ErrUnfinalizedSetChange, "change enacted at relay block %d, update ends at %d", enactAt, last,
		)
	}
	return setID, authorities, pending, nil
}

// verifyHeaderChain decodes the unknown headers and checks that they form a
// parent to child chain from the latest finalized relay block to the commit target.
func (cs ClientState) verifyHeaderChain(encodedHeaders [][]byte, commit Commit) ([]hashedHeader, error) {
	if len(encodedHeaders) == 0 {
		return nil, sdkerrors.Wrap(ErrInvalidHeaderChain, "no headers")
	}

	headers := make([]hashedHeader, 0, len(encodedHeaders))
	parentHash := cs.LatestRelayHash
	parentNumber := cs.LatestRelayHeight
	for _, bz := range encodedHeaders {
		header, err := parachain.DecodeHeader(bz)
		if err != nil {
			return nil, sdkerrors.Wrap(ErrInvalidHeaderChain, err.Error())
		}
		if header.ParentHash != parentHash || uint32(header.Number) != parentNumber+1 {
			return nil, sdkerrors.Wrapf(
				ErrInvalidHeaderChain,
				"header %d does not extend block %d (%x)", header.Number, parentNumber, parentHash,
			)
		}
		hash, err := parachain.HeaderHash(header)
		if err != nil {
			return nil, sdkerrors.Wrap(ErrInvalidHeaderChain, err.Error())
		}
		headers = append(headers, hashedHeader{header: header, hash: hash})
		parentHash = hash
		parentNumber = uint32(header.Number)
	}

	if parentHash != commit.TargetHash || parentNumber != commit.TargetNumber {
		return nil, sdkerrors.Wrapf(ErrInvalidHeaderChain, "headers end at %d, justification targets %d", parentNumber, commit.TargetNumber)
	}
	return headers, nil
}

// verifyMisbehaviour checks that both finality proofs are valid justifications of
// the current authority set for different blocks at the same height.
func (cs ClientState) verifyMisbehaviour(misbehaviour *Misbehaviour) error {
	first, err := DecodeJustification(misbehaviour.FirstFinalityProof.Justification)
	if err != nil {
		return err
	}
	second, err := DecodeJustification(misbehaviour.SecondFinalityProof.Justification)
	if err != nil {
		return err
	}

	if first.Commit.TargetNumber != second.Commit.TargetNumber {
		return sdkerrors.Wrapf(
			clienttypes.ErrInvalidMisbehaviour,
			"justifications target different heights (%d != %d)", first.Commit.TargetNumber, second.Commit.TargetNumber,
		)
	}
	if first.Commit.TargetHash == second.Commit.TargetHash {
		return sdkerrors.Wrap(clienttypes.ErrInvalidMisbehaviour, "justifications target the same block")
	}
	if first.Commit.TargetHash != misbehaviour.FirstFinalityProof.Block || second.Commit.TargetHash != misbehaviour.SecondFinalityProof.Block {
		return sdkerrors.Wrap(clienttypes.ErrInvalidMisbehaviour, "justification targets do not match the finality proofs")
	}

	if err := first.Verify(cs.CurrentSetID, cs.CurrentAuthorities); err != nil {
		return sdkerrors.Wrap(err, "failed to verify first justification")
	}
	if err := second.Verify(cs.CurrentSetID, cs.CurrentAuthorities); err != nil {
		return sdkerrors.Wrap(err, "failed to verify second justification")
	}
	return nil
}

// CheckForMisbehaviour detects misbehaviour evidence and headers that conflict
// with consensus states already stored by the client.
func (cs ClientState) CheckForMisbehaviour(_ sdk.Context, clientStore sdk.KVStore, msg exported.ClientMessage) bool {
	switch msg := msg.(type) {
	case *Header:
		update, err := cs.verifyHeader(msg)
		if err != nil {
			return false
		}
		for _, block := range update.parachainBlocks {
			height := clienttypes.NewHeight(0, uint64(block.Header.Number))
			existing, found := clienttypes.GetConsensusStateBytes(clientStore, height)
			if !found {
				continue
			}
			// A consensus state already exists for this height, but it does not match the proven header.
			if !bytes.Equal(existing, clienttypes.MustMarshalConsensusState(consensusStateFromBlock(block))) {
				return true
			}
		}
	case *Misbehaviour:
		// The correctness of Misbehaviour ClientMessage types is ensured by calling VerifyClientMessage prior to this function
		// Thus, here we can return true, as ClientMessage is of type Misbehaviour
		return true
	}

	return false
}

// UpdateStateOnMisbehaviour freezes the client. This method should only be called when misbehaviour is detected
// as it does not perform any misbehaviour checks.
func (cs ClientState) UpdateStateOnMisbehaviour(_ sdk.Context, clientStore sdk.KVStore, _ exported.ClientMessage) {
	cs.FrozenHeight = uint64(cs.LatestParaHeight)
	if cs.FrozenHeight == 0 {
		cs.FrozenHeight = 1
	}
	clienttypes.SetClientState(clientStore, &cs)
}

// UpdateState advances the finalized relay chain, rotates the authority set to
// the one finalizing the blocks after the target and stores a consensus state for every new
// parachain header. It assumes the header has already been verified.
func (cs ClientState) UpdateState(ctx sdk.Context, clientStore sdk.KVStore, clientMsg exported.ClientMessage) []exported.Height {
	header, ok := clientMsg.(*Header)
	if !ok {
		panic(sdkerrors.Wrapf(clienttypes.ErrInvalidClientType, "expected type %T, got %T", &Header{}, clientMsg))
	}

	update, err := cs.verifyHeader(header)
	if err != nil {
		panic(sdkerrors.Wrap(err, "update state called with an unverified header"))
	}

	var heights []exported.Height
	for _, block := range update.parachainBlocks {
		height := clienttypes.NewHeight(0, uint64(block.Header.Number))
		// check for duplicate consensus state
		if clienttypes.HasConsensusState(clientStore, height) {
			continue
		}

		clienttypes.SetConsensusState(ctx, clientStore, consensusStateFromBlock(block), height)
		heights = append(heights, height)

		if uint32(block.Header.Number) > cs.LatestParaHeight {
			cs.LatestParaHeight = uint32(block.Header.Number)
		}
	}

	cs.LatestRelayHeight = uint32(update.target.Number)
	cs.LatestRelayHash = update.targetHash

	// rotate to the set enacted by the update, if any
	cs.CurrentSetID = update.setID
	cs.CurrentAuthorities = update.authorities

	clienttypes.SetClientState(clientStore, &cs)

	return heights
}

func consensusStateFromBlock(block parachain.VerifiedHeader) *ConsensusState {
	return NewConsensusState(block.Timestamp, block.Header.StateRoot[:])
}
