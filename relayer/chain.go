package relayer

import (
	"context"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// UpdateKind tells whether a client update has to be submitted on its own.
type UpdateKind int

const (
	// UpdateOptional updates are only submitted along with other messages.
	UpdateOptional UpdateKind = iota
	// UpdateMandatory updates are submitted even without messages, e.g. when
	// the relay chain announced an authority set change the client must follow.
	UpdateMandatory
)

// String implements fmt.Stringer.
func (k UpdateKind) String() string {
	if k == UpdateMandatory {
		return "mandatory"
	}
	return "optional"
}

// FinalityEvent is emitted by a chain when its relay chain finalized a new
// block including a parachain block of the chain.
type FinalityEvent struct {
	// RelayHeight is the finalized relay chain block.
	RelayHeight uint32
	// Height is the IBC height of the latest finalized parachain block.
	Height clienttypes.Height
	// Timestamp is the timestamp of the parachain block in nanoseconds.
	Timestamp uint64
}

// ClientUpdate is the update of a counterparty client of a chain. Proofs of
// the chain state are valid at Height once Msg is executed.
type ClientUpdate struct {
	// Msg is nil when the counterparty client already tracks Height.
	Msg       exported.Msg
	Height    clienttypes.Height
	Timestamp uint64
}

// Chain is the handle the relayer drives. Queries read the latest state of
// the chain, proofs are generated at a finalized height.
type Chain interface {
	// Name identifies the chain in logs and metrics.
	Name() string
	// ClientID is the client on this chain tracking the counterparty.
	ClientID() string
	// Signer is the account submitting messages to this chain.
	Signer() string
	// CommitmentPrefix is the prefix of the IBC store of this chain.
	CommitmentPrefix() commitmenttypes.MerklePrefix

	// FinalityNotifications streams the finality events of the chain. The
	// channel is closed once ctx is done.
	FinalityNotifications(ctx context.Context) (<-chan FinalityEvent, error)
	// QueryLatestIBCEvents returns the update of the counterparty client up
	// to finality along with the IBC events emitted in the blocks the update
	// makes provable.
	QueryLatestIBCEvents(ctx context.Context, finality FinalityEvent, counterparty Chain) (ClientUpdate, []IBCEvent, UpdateKind, error)
	// SubmitIBCMessages delivers msgs in a single block. Messages failing
	// because they were already relayed are not reported.
	SubmitIBCMessages(ctx context.Context, msgs []exported.Msg) error

	QueryLatestHeight(ctx context.Context) (clienttypes.Height, uint64, error)
	QueryClientState(ctx context.Context, clientID string) (exported.ClientState, error)
	QueryConnection(ctx context.Context, connectionID string) (connectiontypes.ConnectionEnd, error)
	QueryChannel(ctx context.Context, portID, channelID string) (channeltypes.Channel, error)
	QueryNextSequenceRecv(ctx context.Context, portID, channelID string) (uint64, error)
	QueryPacketReceipt(ctx context.Context, portID, channelID string, sequence uint64) (bool, error)
	QueryPacketCommitment(ctx context.Context, portID, channelID string, sequence uint64) ([]byte, error)
	// QueryProof proves the value, or the absence, of key in the IBC store
	// at height.
	QueryProof(ctx context.Context, height clienttypes.Height, key []byte) ([]byte, error)
}
