package relayer

import (
	"encoding/hex"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// IBCEvent is an IBC event emitted by a chain that the relayer acts upon.
type IBCEvent interface {
	EventType() string
}

var (
	_ IBCEvent = EventConnectionOpenInit{}
	_ IBCEvent = EventConnectionOpenTry{}
	_ IBCEvent = EventConnectionOpenAck{}
	_ IBCEvent = EventConnectionOpenConfirm{}
	_ IBCEvent = EventChannelOpenInit{}
	_ IBCEvent = EventChannelOpenTry{}
	_ IBCEvent = EventChannelOpenAck{}
	_ IBCEvent = EventChannelOpenConfirm{}
	_ IBCEvent = EventChannelCloseInit{}
	_ IBCEvent = EventChannelCloseConfirm{}
	_ IBCEvent = EventSendPacket{}
	_ IBCEvent = EventWriteAck{}
)

// ConnectionAttributes are carried by every connection handshake event.
type ConnectionAttributes struct {
	ConnectionID             string
	ClientID                 string
	CounterpartyClientID     string
	CounterpartyConnectionID string
}

type (
	EventConnectionOpenInit    struct{ ConnectionAttributes }
	EventConnectionOpenTry     struct{ ConnectionAttributes }
	EventConnectionOpenAck     struct{ ConnectionAttributes }
	EventConnectionOpenConfirm struct{ ConnectionAttributes }
)

func (EventConnectionOpenInit) EventType() string {
	return connectiontypes.EventTypeConnectionOpenInit
}

func (EventConnectionOpenTry) EventType() string {
	return connectiontypes.EventTypeConnectionOpenTry
}

func (EventConnectionOpenAck) EventType() string {
	return connectiontypes.EventTypeConnectionOpenAck
}

func (EventConnectionOpenConfirm) EventType() string {
	return connectiontypes.EventTypeConnectionOpenConfirm
}

// ChannelAttributes are carried by every channel handshake event.
type ChannelAttributes struct {
	PortID                string
	ChannelID             string
	CounterpartyPortID    string
	CounterpartyChannelID string
	ConnectionID          string
	Version               string
}

type (
	EventChannelOpenInit     struct{ ChannelAttributes }
	EventChannelOpenTry      struct{ ChannelAttributes }
	EventChannelOpenAck      struct{ ChannelAttributes }
	EventChannelOpenConfirm  struct{ ChannelAttributes }
	EventChannelCloseInit    struct{ ChannelAttributes }
	EventChannelCloseConfirm struct{ ChannelAttributes }
)

func (EventChannelOpenInit) EventType() string     { return channeltypes.EventTypeChannelOpenInit }
func (EventChannelOpenTry) EventType() string      { return channeltypes.EventTypeChannelOpenTry }
func (EventChannelOpenAck) EventType() string      { return channeltypes.EventTypeChannelOpenAck }
func (EventChannelOpenConfirm) EventType() string  { return channeltypes.EventTypeChannelOpenConfirm }
func (EventChannelCloseInit) EventType() string    { return channeltypes.EventTypeChannelCloseInit }
func (EventChannelCloseConfirm) EventType() string { return channeltypes.EventTypeChannelCloseConfirm }

// EventSendPacket is emitted when a packet is committed on its source chain.
type EventSendPacket struct {
	Packet       channeltypes.Packet
	Ordering     channeltypes.Order
	ConnectionID string
}

func (EventSendPacket) EventType() string { return channeltypes.EventTypeSendPacket }

// EventWriteAck is emitted when the destination chain of a packet writes its
// acknowledgement.
type EventWriteAck struct {
	Packet       channeltypes.Packet
	Ack          []byte
	ConnectionID string
}

func (EventWriteAck) EventType() string { return channeltypes.EventTypeWriteAck }

// ParseIBCEvents returns the events the relayer acts upon found in events, in
// emission order. Other events are skipped.
func ParseIBCEvents(events sdk.Events) ([]IBCEvent, error) {
	var parsed []IBCEvent
	for _, ev := range events {
		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[string(attr.Key)] = string(attr.Value)
		}

		var (
			event IBCEvent
			err   error
		)
		switch ev.Type {
		case connectiontypes.EventTypeConnectionOpenInit:
			event = EventConnectionOpenInit{connectionAttributes(attrs)}
		case connectiontypes.EventTypeConnectionOpenTry:
			event = EventConnectionOpenTry{connectionAttributes(attrs)}
		case connectiontypes.EventTypeConnectionOpenAck:
			event = EventConnectionOpenAck{connectionAttributes(attrs)}
		case connectiontypes.EventTypeConnectionOpenConfirm:
			event = EventConnectionOpenConfirm{connectionAttributes(attrs)}
		case channeltypes.EventTypeChannelOpenInit:
			event = EventChannelOpenInit{channelAttributes(attrs)}
		case channeltypes.EventTypeChannelOpenTry:
			event = EventChannelOpenTry{channelAttributes(attrs)}
		case channeltypes.EventTypeChannelOpenAck:
			event = EventChannelOpenAck{channelAttributes(attrs)}
		case channeltypes.EventTypeChannelOpenConfirm:
			event = EventChannelOpenConfirm{channelAttributes(attrs)}
		case channeltypes.EventTypeChannelCloseInit:
			event = EventChannelCloseInit{channelAttributes(attrs)}
		case channeltypes.EventTypeChannelCloseConfirm:
			event = EventChannelCloseConfirm{channelAttributes(attrs)}
		case channeltypes.EventTypeSendPacket:
			var packet channeltypes.Packet
			if packet, err = parsePacket(attrs); err == nil {
				event = EventSendPacket{
					Packet:       packet,
					Ordering:     channeltypes.OrderFromString(attrs[channeltypes.AttributeKeyChannelOrdering]),
					ConnectionID: attrs[channeltypes.AttributeKeyConnection],
				}
			}
		case channeltypes.EventTypeWriteAck:
			var packet channeltypes.Packet
			if packet, err = parsePacket(attrs); err == nil {
				var ack []byte
				if ack, err = hex.DecodeString(attrs[channeltypes.AttributeKeyAckHex]); err == nil {
					event = EventWriteAck{Packet: packet, Ack: ack, ConnectionID: attrs[channeltypes.AttributeKeyConnection]}
				}
			}
		default:
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s event", ev.Type)
		}
		if event != nil {
			parsed = append(parsed, event)
		}
	}
	return parsed, nil
}

func connectionAttributes(attrs map[string]string) ConnectionAttributes {
	return ConnectionAttributes{
		ConnectionID:             attrs[connectiontypes.AttributeKeyConnectionID],
		ClientID:                 attrs[connectiontypes.AttributeKeyClientID],
		CounterpartyClientID:     attrs[connectiontypes.AttributeKeyCounterpartyClientID],
		CounterpartyConnectionID: attrs[connectiontypes.AttributeKeyCounterpartyConnectionID],
	}
}

func channelAttributes(attrs map[string]string) ChannelAttributes {
	return ChannelAttributes{
		PortID:                attrs[channeltypes.AttributeKeyPortID],
		ChannelID:             attrs[channeltypes.AttributeKeyChannelID],
		CounterpartyPortID:    attrs[channeltypes.AttributeCounterpartyPortID],
		CounterpartyChannelID: attrs[channeltypes.AttributeCounterpartyChannelID],
		ConnectionID:          attrs[channeltypes.AttributeKeyConnectionID],
		Version:               attrs[channeltypes.AttributeVersion],
	}
}

func parsePacket(attrs map[string]string) (channeltypes.Packet, error) {
	data, err := hex.DecodeString(attrs[channeltypes.AttributeKeyDataHex])
	if err != nil {
		return channeltypes.Packet{}, err
	}
	sequence, err := strconv.ParseUint(attrs[channeltypes.AttributeKeySequence], 10, 64)
	if err != nil {
		return channeltypes.Packet{}, err
	}
	timeoutHeight, err := clienttypes.ParseHeight(attrs[channeltypes.AttributeKeyTimeoutHeight])
	if err != nil {
		return channeltypes.Packet{}, err
	}
	timeoutTimestamp, err := strconv.ParseUint(attrs[channeltypes.AttributeKeyTimeoutTimestamp], 10, 64)
	if err != nil {
		return channeltypes.Packet{}, err
	}

	return channeltypes.NewPacket(
		data, sequence,
		attrs[channeltypes.AttributeKeySrcPort], attrs[channeltypes.AttributeKeySrcChannel],
		attrs[channeltypes.AttributeKeyDstPort], attrs[channeltypes.AttributeKeyDstChannel],
		timeoutHeight, timeoutTimestamp,
	), nil
}
