package ibctesting

import (
	"encoding/hex"
	"fmt"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"
	testifysuite "github.com/stretchr/testify/suite"
	abci "github.com/tendermint/tendermint/abci/types"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// ParsePacketFromEvents parses events emitted from a send packet and returns
// the first EventTypeSendPacket packet found.
// Returns an error if no packet is found.
func ParsePacketFromEvents(events sdk.Events) (channeltypes.Packet, error) {
	packets, err := ParsePacketsFromEvents(channeltypes.EventTypeSendPacket, events)
	if err != nil {
		return channeltypes.Packet{}, err
	}
	return packets[0], nil
}

// ParseRecvPacketFromEvents parses events emitted from a MsgRecvPacket and returns
// the first EventTypeRecvPacket packet found.
// Returns an error if no packet is found.
func ParseRecvPacketFromEvents(events sdk.Events) (channeltypes.Packet, error) {
	packets, err := ParsePacketsFromEvents(channeltypes.EventTypeRecvPacket, events)
	if err != nil {
		return channeltypes.Packet{}, err
	}
	return packets[0], nil
}

// ParsePacketsFromEvents returns all the packets found in events of eventType.
// Returns an error if no packet is found.
func ParsePacketsFromEvents(eventType string, events sdk.Events) ([]channeltypes.Packet, error) {
	ferr := func(err error) ([]channeltypes.Packet, error) {
		return nil, fmt.Errorf("ibctesting.ParsePacketsFromEvents: %w", err)
	}
	var packets []channeltypes.Packet
	for _, ev := range events {
		if ev.Type != eventType {
			continue
		}
		var packet channeltypes.Packet
		for _, attr := range ev.Attributes {
			value := string(attr.Value)
			switch string(attr.Key) {
			case channeltypes.AttributeKeyDataHex:
				data, err := hex.DecodeString(value)
				if err != nil {
					return ferr(err)
				}
				packet.Data = data

			case channeltypes.AttributeKeySequence:
				seq, err := strconv.ParseUint(value, 10, 64)
				if err != nil {
					return ferr(err)
				}
				packet.Sequence = seq

			case channeltypes.AttributeKeySrcPort:
				packet.SourcePort = value

			case channeltypes.AttributeKeySrcChannel:
				packet.SourceChannel = value

			case channeltypes.AttributeKeyDstPort:
				packet.DestinationPort = value

			case channeltypes.AttributeKeyDstChannel:
				packet.DestinationChannel = value

			case channeltypes.AttributeKeyTimeoutHeight:
				height, err := clienttypes.ParseHeight(value)
				if err != nil {
					return ferr(err)
				}
				packet.TimeoutHeight = height

			case channeltypes.AttributeKeyTimeoutTimestamp:
				timestamp, err := strconv.ParseUint(value, 10, 64)
				if err != nil {
					return ferr(err)
				}
				packet.TimeoutTimestamp = timestamp
			}
		}

		packets = append(packets, packet)
	}
	if len(packets) == 0 {
		return ferr(errors.Errorf("no %s event found", eventType))
	}
	return packets, nil
}

// ParseAckFromEvents parses events emitted from a MsgRecvPacket and returns the
// acknowledgement.
func ParseAckFromEvents(events sdk.Events) ([]byte, error) {
	for _, ev := range events {
		if ev.Type == channeltypes.EventTypeWriteAck {
			if attribute, found := attributeByKey(ev.Attributes, channeltypes.AttributeKeyAckHex); found {
				return hex.DecodeString(string(attribute.Value))
			}
		}
	}
	return nil, errors.New("acknowledgement event attribute not found")
}

// AssertEvents asserts that expected events are present in the actual events.
func AssertEvents(
	suite *testifysuite.Suite,
	expected sdk.Events,
	actual sdk.Events,
) {
	foundEvents := make(map[int]bool)

	for i, expectedEvent := range expected {
		for _, actualEvent := range actual {
			if expectedEvent.Type != actualEvent.Type || len(expectedEvent.Attributes) != len(actualEvent.Attributes) {
				continue
			}
			attributeMatch := true
			for _, expectedAttr := range expectedEvent.Attributes {
				// any expected attributes that are not contained in the actual events will cause this event
				// not to match
				attr, found := attributeByKey(actualEvent.Attributes, string(expectedAttr.Key))
				attributeMatch = attributeMatch && found && string(attr.Value) == string(expectedAttr.Value)
			}

			if attributeMatch {
				foundEvents[i] = true
			}
		}
	}

	for i, expectedEvent := range expected {
		suite.Require().True(foundEvents[i], "event: %s was not found in events", expectedEvent.Type)
	}
}

// attributeByKey returns the first attribute with the given key and a boolean
// indicating its presence.
func attributeByKey(attributes []abci.EventAttribute, key string) (abci.EventAttribute, bool) {
	for _, attr := range attributes {
		if string(attr.Key) == key {
			return attr, true
		}
	}
	return abci.EventAttribute{}, false
}
