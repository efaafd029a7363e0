package types

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// State defines if a connection is in one of the following states:
// INIT, TRYOPEN, OPEN or UNINITIALIZED.
type State uint8

const (
	// UNINITIALIZED is the default State
	UNINITIALIZED State = iota
	// INIT is a connection which has been initialized on this chain
	INIT
	// TRYOPEN is a connection which is trying to open on this chain
	TRYOPEN
	// OPEN is a connection which has completed the handshake
	OPEN
)

func (s State) String() string {
	switch s {
	case INIT:
		return "STATE_INIT"
	case TRYOPEN:
		return "STATE_TRYOPEN"
	case OPEN:
		return "STATE_OPEN"
	default:
		return "STATE_UNINITIALIZED_UNSPECIFIED"
	}
}

// Counterparty defines the counterparty chain associated with a connection end.
type Counterparty struct {
	// identifies the client on the counterparty chain associated with a given
	// connection.
	ClientID string `json:"client_id" yaml:"client_id"`
	// identifies the connection end on the counterparty chain associated with a
	// given connection. Empty until the counterparty has executed ConnOpenTry.
	ConnectionID string `json:"connection_id" yaml:"connection_id"`
	// commitment prefix of the counterparty chain's IBC store
	Prefix commitmenttypes.MerklePrefix `json:"prefix" yaml:"prefix"`
}

// NewCounterparty creates a new Counterparty instance.
func NewCounterparty(clientID, connectionID string, prefix commitmenttypes.MerklePrefix) Counterparty {
	return Counterparty{
		ClientID:     clientID,
		ConnectionID: connectionID,
		Prefix:       prefix,
	}
}

// ValidateBasic performs a basic validation check of the identifiers and prefix
func (c Counterparty) ValidateBasic() error {
	if c.ConnectionID != "" {
		if err := host.ConnectionIdentifierValidator(c.ConnectionID); err != nil {
			return sdkerrors.Wrap(err, "invalid counterparty connection ID")
		}
	}
	if err := host.ClientIdentifierValidator(c.ClientID); err != nil {
		return sdkerrors.Wrap(err, "invalid counterparty client ID")
	}
	if c.Prefix.Empty() {
		return sdkerrors.Wrap(ErrInvalidCounterparty, "counterparty prefix cannot be empty")
	}
	return nil
}

// ConnectionEnd defines a stateful object on a chain connected to another
// separate one. It is stored SCALE encoded under connections/{id}.
type ConnectionEnd struct {
	// client associated with this connection.
	ClientID string `json:"client_id" yaml:"client_id"`
	// IBC version which can be utilised to determine encodings or protocols for
	// channels or packets utilising this connection.
	Versions []Version `json:"versions" yaml:"versions"`
	// current state of the connection end.
	State State `json:"state" yaml:"state"`
	// counterparty chain associated with this connection.
	Counterparty Counterparty `json:"counterparty" yaml:"counterparty"`
	// delay period that must pass before a consensus state can be used for
	// packet-verification NOTE: delay period logic is only implemented by some
	// clients.
	DelayPeriod uint64 `json:"delay_period" yaml:"delay_period"`
}

// NewConnectionEnd creates a new ConnectionEnd instance.
func NewConnectionEnd(state State, clientID string, counterparty Counterparty, versions []Version, delayPeriod uint64) ConnectionEnd {
	return ConnectionEnd{
		ClientID:     clientID,
		Versions:     versions,
		State:        state,
		Counterparty: counterparty,
		DelayPeriod:  delayPeriod,
	}
}

// ValidateBasic implements the Connection interface.
// NOTE: the protocol supports that the connection and client IDs match the
// counterparty's.
func (c ConnectionEnd) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(c.ClientID); err != nil {
		return sdkerrors.Wrap(err, "invalid client ID")
	}
	if len(c.Versions) == 0 {
		return sdkerrors.Wrap(ErrInvalidVersion, "empty connection versions")
	}
	for _, version := range c.Versions {
		if err := ValidateVersion(version); err != nil {
			return err
		}
	}
	return c.Counterparty.ValidateBasic()
}

// Marshal SCALE encodes the connection end. These are the bytes committed under
// the connection path.
func (c ConnectionEnd) Marshal() ([]byte, error) {
	return types.EncodeToBytes(c)
}

// MustMarshal encodes the connection end and panics on error.
func (c ConnectionEnd) MustMarshal() []byte {
	bz, err := c.Marshal()
	if err != nil {
		panic(err)
	}
	return bz
}

// UnmarshalConnectionEnd decodes a SCALE encoded connection end.
func UnmarshalConnectionEnd(bz []byte) (ConnectionEnd, error) {
	var connection ConnectionEnd
	if err := types.DecodeFromBytes(bz, &connection); err != nil {
		return ConnectionEnd{}, sdkerrors.Wrap(ErrInvalidConnection, err.Error())
	}
	return connection, nil
}

// IdentifiedConnection defines a connection with additional connection
// identifier field.
type IdentifiedConnection struct {
	ID string `json:"id" yaml:"id"`
	ConnectionEnd
}

// NewIdentifiedConnection creates a new IdentifiedConnection instance
func NewIdentifiedConnection(connectionID string, conn ConnectionEnd) IdentifiedConnection {
	return IdentifiedConnection{
		ID:            connectionID,
		ConnectionEnd: conn,
	}
}

// ClientPaths define all the connection paths for a client state.
type ClientPaths struct {
	Paths []string `json:"paths" yaml:"paths"`
}
