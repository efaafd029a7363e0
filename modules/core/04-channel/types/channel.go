package types

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// State defines if a channel is in one of the following states:
// CLOSED, INIT, TRYOPEN, OPEN or UNINITIALIZED.
type State uint8

const (
	// UNINITIALIZED is the default State
	UNINITIALIZED State = iota
	// INIT is a channel that has just started the opening handshake.
	INIT
	// TRYOPEN is a channel that has acknowledged the handshake step on the counterparty chain.
	TRYOPEN
	// OPEN is a channel that has completed the handshake. Open channels are
	// ready to send and receive packets.
	OPEN
	// CLOSED is a channel that has been closed. A closed channel can no longer be
	// used to send or receive packets.
	CLOSED
)

func (s State) String() string {
	switch s {
	case INIT:
		return "STATE_INIT"
	case TRYOPEN:
		return "STATE_TRYOPEN"
	case OPEN:
		return "STATE_OPEN"
	case CLOSED:
		return "STATE_CLOSED"
	default:
		return "STATE_UNINITIALIZED_UNSPECIFIED"
	}
}

// Order defines if a channel is ORDERED or UNORDERED
type Order uint8

const (
	// NONE is the zero-value of Order and is invalid
	NONE Order = iota
	// UNORDERED packets can be delivered in any order, which may differ from the
	// order in which they were sent.
	UNORDERED
	// ORDERED packets are delivered exactly in the order which they were sent
	ORDERED
)

func (o Order) String() string {
	switch o {
	case UNORDERED:
		return "ORDER_UNORDERED"
	case ORDERED:
		return "ORDER_ORDERED"
	default:
		return "ORDER_NONE_UNSPECIFIED"
	}
}

// OrderFromString parses the string form of an Order.
func OrderFromString(order string) Order {
	switch order {
	case UNORDERED.String():
		return UNORDERED
	case ORDERED.String():
		return ORDERED
	default:
		return NONE
	}
}

// Counterparty defines a channel end counterparty
type Counterparty struct {
	// port on the counterparty chain which owns the other end of the channel.
	PortID string `json:"port_id" yaml:"port_id"`
	// channel end on the counterparty chain
	ChannelID string `json:"channel_id" yaml:"channel_id"`
}

// NewCounterparty returns a new Counterparty instance
func NewCounterparty(portID, channelID string) Counterparty {
	return Counterparty{
		PortID:    portID,
		ChannelID: channelID,
	}
}

// ValidateBasic performs a basic validation check of the identifiers
func (c Counterparty) ValidateBasic() error {
	if err := host.PortIdentifierValidator(c.PortID); err != nil {
		return sdkerrors.Wrap(err, "invalid counterparty port ID")
	}
	if c.ChannelID != "" {
		if err := host.ChannelIdentifierValidator(c.ChannelID); err != nil {
			return sdkerrors.Wrap(err, "invalid counterparty channel ID")
		}
	}
	return nil
}

// Channel defines pipeline for exactly-once packet delivery between specific
// modules on separate blockchains, which has at least one end capable of
// sending packets and one end capable of receiving packets. It is stored SCALE
// encoded under channelEnds/ports/{port}/channels/{channel}.
type Channel struct {
	// current state of the channel end
	State State `json:"state" yaml:"state"`
	// whether the channel is ordered or unordered
	Ordering Order `json:"ordering" yaml:"ordering"`
	// counterparty channel end
	Counterparty Counterparty `json:"counterparty" yaml:"counterparty"`
	// list of connection identifiers, in order, along which packets sent on
	// this channel will travel
	ConnectionHops []string `json:"connection_hops" yaml:"connection_hops"`
	// opaque channel version, which is agreed upon during the handshake
	Version string `json:"version" yaml:"version"`
}

// NewChannel creates a new Channel instance
func NewChannel(
	state State, ordering Order, counterparty Counterparty,
	hops []string, version string,
) Channel {
	return Channel{
		State:          state,
		Ordering:       ordering,
		Counterparty:   counterparty,
		ConnectionHops: hops,
		Version:        version,
	}
}

// ValidateBasic performs a basic validation of the channel fields
func (ch Channel) ValidateBasic() error {
	if ch.State == UNINITIALIZED {
		return ErrInvalidChannelState
	}
	if ch.Ordering != ORDERED && ch.Ordering != UNORDERED {
		return sdkerrors.Wrap(ErrInvalidChannelOrdering, ch.Ordering.String())
	}
	if len(ch.ConnectionHops) != 1 {
		return sdkerrors.Wrap(
			ErrTooManyConnectionHops,
			"current IBC version only supports one connection hop",
		)
	}
	if err := host.ConnectionIdentifierValidator(ch.ConnectionHops[0]); err != nil {
		return sdkerrors.Wrap(err, "invalid connection hop ID")
	}
	return ch.Counterparty.ValidateBasic()
}

// Marshal SCALE encodes the channel end. These are the bytes committed under
// the channel path.
func (ch Channel) Marshal() ([]byte, error) {
	return types.EncodeToBytes(ch)
}

// MustMarshal encodes the channel end and panics on error.
func (ch Channel) MustMarshal() []byte {
	bz, err := ch.Marshal()
	if err != nil {
		panic(err)
	}
	return bz
}

// UnmarshalChannel decodes a SCALE encoded channel end.
func UnmarshalChannel(bz []byte) (Channel, error) {
	var channel Channel
	if err := types.DecodeFromBytes(bz, &channel); err != nil {
		return Channel{}, sdkerrors.Wrap(ErrInvalidChannel, err.Error())
	}
	return channel, nil
}

// IdentifiedChannel defines a channel with additional port and channel
// identifier fields.
type IdentifiedChannel struct {
	PortID    string `json:"port_id" yaml:"port_id"`
	ChannelID string `json:"channel_id" yaml:"channel_id"`
	Channel
}

// NewIdentifiedChannel creates a new IdentifiedChannel instance
func NewIdentifiedChannel(portID, channelID string, ch Channel) IdentifiedChannel {
	return IdentifiedChannel{
		PortID:    portID,
		ChannelID: channelID,
		Channel:   ch,
	}
}
