package types

import (
	"encoding/binary"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/crypto/ed25519"

	"github.com/ComposableFi/centauri/modules/light-clients/parachain"
)

const (
	// precommitMessageIndex is the index of the Precommit variant of a GRANDPA vote message.
	precommitMessageIndex uint8 = 1

	// scheduledChangeLogIndex is the index of ScheduledChange in the GRANDPA consensus log.
	scheduledChangeLogIndex uint8 = 1
)

// GrandpaEngineID is the consensus engine id of GRANDPA digests, "FRNK" read as
// a little endian u32.
var GrandpaEngineID = types.ConsensusEngineID(binary.LittleEndian.Uint32([]byte("FRNK")))

// Authority is a GRANDPA voter: an ed25519 public key and its voting weight.
type Authority struct {
	Key    [32]byte
	Weight uint64
}

// Precommit is a vote for a relay chain block.
type Precommit struct {
	TargetHash   types.Hash
	TargetNumber uint32
}

// SignedPrecommit is a precommit with the voter signature.
type SignedPrecommit struct {
	Precommit Precommit
	Signature [64]byte
	ID        [32]byte
}

// Commit is the set of precommits finalizing a target block.
type Commit struct {
	TargetHash   types.Hash
	TargetNumber uint32
	Precommits   []SignedPrecommit
}

// Justification proves the finality of Commit.TargetHash in the given round.
// VotesAncestries carries the headers linking precommit targets back to the
// commit target.
type Justification struct {
	Round           uint64
	Commit          Commit
	VotesAncestries []types.Header
}

// ScheduledChange is a GRANDPA authority set change announced in a header digest.
type ScheduledChange struct {
	NextAuthorities []Authority
	Delay           uint32
}

type signingPayload struct {
	MessageIndex uint8
	Precommit    Precommit
	Round        uint64
	SetID        uint64
}

// DecodeJustification decodes a SCALE encoded justification.
func DecodeJustification(bz []byte) (Justification, error) {
	var justification Justification
	if err := types.DecodeFromBytes(bz, &justification); err != nil {
		return Justification{}, sdkerrors.Wrap(ErrInvalidJustification, err.Error())
	}
	return justification, nil
}

// EncodeJustification SCALE encodes a justification.
func EncodeJustification(justification Justification) ([]byte, error) {
	return types.EncodeToBytes(justification)
}

// PrecommitSigningPayload returns the bytes an authority signs for a precommit:
// the SCALE encoding of (Message::Precommit(precommit), round, set_id).
func PrecommitSigningPayload(precommit Precommit, round, setID uint64) ([]byte, error) {
	return types.EncodeToBytes(signingPayload{
		MessageIndex: precommitMessageIndex,
		Precommit:    precommit,
		Round:        round,
		SetID:        setID,
	})
}

// EncodeScheduledChange returns the consensus digest bytes announcing change.
func EncodeScheduledChange(change ScheduledChange) ([]byte, error) {
	bz, err := types.EncodeToBytes(change)
	if err != nil {
		return nil, err
	}
	return append([]byte{scheduledChangeLogIndex}, bz...), nil
}

// FindScheduledChange returns the GRANDPA ScheduledChange announced in the
// header digest, if any.
func FindScheduledChange(header types.Header) (*ScheduledChange, error) {
	for _, item := range header.Digest {
		if !item.IsConsensus || item.AsConsensus.ConsensusEngineID != GrandpaEngineID {
			continue
		}
		log := item.AsConsensus.Bytes
		if len(log) == 0 || log[0] != scheduledChangeLogIndex {
			continue
		}
		var change ScheduledChange
		if err := types.DecodeFromBytes(log[1:], &change); err != nil {
			return nil, sdkerrors.Wrap(ErrInvalidAuthoritySet, err.Error())
		}
		return &change, nil
	}
	return nil, nil
}

// Verify checks that the justification carries valid precommits from more than
// two thirds of the voting weight of the authority set setID.
func (j Justification) Verify(setID uint64, authorities []Authority) error {
	weights := make(map[[32]byte]uint64, len(authorities))
	totalWeight := new(big.Int)
	for _, authority := range authorities {
		weights[authority.Key] = authority.Weight
		totalWeight.Add(totalWeight, new(big.Int).SetUint64(authority.Weight))
	}

	ancestry, err := newAncestryChain(j.VotesAncestries)
	if err != nil {
		return err
	}

	signed := make(map[[32]byte]bool, len(j.Commit.Precommits))
	signedWeight := new(big.Int)
	for _, signedPrecommit := range j.Commit.Precommits {
		weight, ok := weights[signedPrecommit.ID]
		if !ok {
			return sdkerrors.Wrapf(ErrAuthoritySetMismatch, "voter %x is not in authority set %d", signedPrecommit.ID, setID)
		}

		payload, err := PrecommitSigningPayload(signedPrecommit.Precommit, j.Round, setID)
		if err != nil {
			return sdkerrors.Wrap(ErrInvalidJustification, err.Error())
		}
		if !ed25519.PubKey(signedPrecommit.ID[:]).VerifySignature(payload, signedPrecommit.Signature[:]) {
			return sdkerrors.Wrapf(ErrInvalidSignature, "voter %x", signedPrecommit.ID)
		}

		if err := ancestry.checkDescendant(signedPrecommit.Precommit, j.Commit.TargetHash, j.Commit.TargetNumber); err != nil {
			return err
		}

		if signed[signedPrecommit.ID] {
			continue
		}
		signed[signedPrecommit.ID] = true
		signedWeight.Add(signedWeight, new(big.Int).SetUint64(weight))
	}

	// signed * 3 > total * 2
	lhs := new(big.Int).Mul(signedWeight, big.NewInt(3))
	rhs := new(big.Int).Mul(totalWeight, big.NewInt(2))
	if lhs.Cmp(rhs) <= 0 {
		return sdkerrors.Wrapf(ErrInsufficientStake, "signed weight %s of total %s", signedWeight, totalWeight)
	}
	return nil
}

type ancestryChain map[types.Hash]types.Header

func newAncestryChain(headers []types.Header) (ancestryChain, error) {
	chain := make(ancestryChain, len(headers))
	for _, header := range headers {
		hash, err := parachain.HeaderHash(header)
		if err != nil {
			return nil, sdkerrors.Wrap(ErrInvalidJustification, err.Error())
		}
		chain[hash] = header
	}
	return chain, nil
}

// checkDescendant requires the precommit target to be the commit target or one
// of its descendants known from the votes ancestries.
func (c ancestryChain) checkDescendant(precommit Precommit, base types.Hash, baseNumber uint32) error {
	if precommit.TargetHash == base {
		if precommit.TargetNumber != baseNumber {
			return sdkerrors.Wrap(ErrInvalidAncestry, "precommit number does not match the commit target")
		}
		return nil
	}
	if precommit.TargetNumber <= baseNumber {
		return sdkerrors.Wrapf(ErrInvalidAncestry, "precommit target %d is not above commit target %d", precommit.TargetNumber, baseNumber)
	}

	current := precommit.TargetHash
	for i := 0; i <= len(c); i++ {
		header, ok := c[current]
		if !ok {
			return sdkerrors.Wrapf(ErrInvalidAncestry, "missing ancestry header %x", current)
		}
		if header.ParentHash == base {
			return nil
		}
		current = header.ParentHash
	}
	return sdkerrors.Wrap(ErrInvalidAncestry, "ancestry does not reach the commit target")
}
