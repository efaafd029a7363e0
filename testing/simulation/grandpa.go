package simulation

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/crypto/ed25519"

	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
)

// VoterSet is a GRANDPA authority set of equally weighted ed25519 voters.
type VoterSet struct {
	keys []ed25519.PrivKey
}

// NewVoterSet derives n voters from seed.
func NewVoterSet(seed string, n int) *VoterSet {
	keys := make([]ed25519.PrivKey, n)
	for i := range keys {
		keys[i] = ed25519.GenPrivKeyFromSecret([]byte(fmt.Sprintf("%s/grandpa/%d", seed, i)))
	}
	return &VoterSet{keys: keys}
}

// Authorities returns the authority list of the set.
func (s *VoterSet) Authorities() []grandpatypes.Authority {
	authorities := make([]grandpatypes.Authority, len(s.keys))
	for i, key := range s.keys {
		copy(authorities[i].Key[:], key.PubKey().Bytes())
		authorities[i].Weight = 1
	}
	return authorities
}

// Justify returns the justification of target signed by the first signers
// voters of the set in round.
func (s *VoterSet) Justify(target types.Hash, number uint32, round, setID uint64, signers int) (grandpatypes.Justification, error) {
	if signers > len(s.keys) {
		return grandpatypes.Justification{}, errors.Errorf("%d signers requested from %d voters", signers, len(s.keys))
	}

	precommit := grandpatypes.Precommit{TargetHash: target, TargetNumber: number}
	payload, err := grandpatypes.PrecommitSigningPayload(precommit, round, setID)
	if err != nil {
		return grandpatypes.Justification{}, err
	}

	precommits := make([]grandpatypes.SignedPrecommit, signers)
	for i, key := range s.keys[:signers] {
		signature, err := key.Sign(payload)
		if err != nil {
			return grandpatypes.Justification{}, errors.Wrapf(err, "voter %d failed to sign", i)
		}
		precommits[i].Precommit = precommit
		copy(precommits[i].Signature[:], signature)
		copy(precommits[i].ID[:], key.PubKey().Bytes())
	}

	return grandpatypes.Justification{
		Round: round,
		Commit: grandpatypes.Commit{
			TargetHash:   target,
			TargetNumber: number,
			Precommits:   precommits,
		},
	}, nil
}

// Len returns the number of voters.
func (s *VoterSet) Len() int {
	return len(s.keys)
}

// scheduledChangeDigest announces next as the GRANDPA set taking over delay
// blocks after the block carrying the digest.
func scheduledChangeDigest(next *VoterSet, delay uint32) (types.DigestItem, error) {
	log, err := grandpatypes.EncodeScheduledChange(grandpatypes.ScheduledChange{
		NextAuthorities: next.Authorities(),
		Delay:           delay,
	})
	if err != nil {
		return types.DigestItem{}, err
	}
	return types.DigestItem{
		IsConsensus: true,
		AsConsensus: types.Consensus{
			ConsensusEngineID: grandpatypes.GrandpaEngineID,
			Bytes:             log,
		},
	}, nil
}
