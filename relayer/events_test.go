package relayer_test

import (
	"encoding/hex"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	"github.com/ComposableFi/centauri/relayer"
)

func packetEvent(eventType string, packet channeltypes.Packet, extra ...sdk.Attribute) sdk.Event {
	attrs := []sdk.Attribute{
		sdk.NewAttribute(channeltypes.AttributeKeyDataHex, hex.EncodeToString(packet.Data)),
		sdk.NewAttribute(channeltypes.AttributeKeyTimeoutHeight, packet.TimeoutHeight.String()),
		sdk.NewAttribute(channeltypes.AttributeKeyTimeoutTimestamp, "1000"),
		sdk.NewAttribute(channeltypes.AttributeKeySequence, "7"),
		sdk.NewAttribute(channeltypes.AttributeKeySrcPort, packet.SourcePort),
		sdk.NewAttribute(channeltypes.AttributeKeySrcChannel, packet.SourceChannel),
		sdk.NewAttribute(channeltypes.AttributeKeyDstPort, packet.DestinationPort),
		sdk.NewAttribute(channeltypes.AttributeKeyDstChannel, packet.DestinationChannel),
		sdk.NewAttribute(channeltypes.AttributeKeyConnection, "connection-0"),
	}
	return sdk.NewEvent(eventType, append(attrs, extra...)...)
}

func TestParseIBCEvents(t *testing.T) {
	packet := channeltypes.NewPacket(
		[]byte(`{"amount":"100"}`), 7, "transfer", "channel-0", "transfer", "channel-1",
		clienttypes.NewHeight(0, 120), 1000,
	)

	var (
		events    sdk.Events
		expEvents []relayer.IBCEvent
	)

	testCases := []struct {
		name     string
		malleate func()
		expPass  bool
	}{
		{
			"unrelated events are skipped",
			func() {
				events = sdk.Events{sdk.NewEvent(sdk.EventTypeMessage, sdk.NewAttribute(sdk.AttributeKeyModule, "ibc_channel"))}
				expEvents = nil
			},
			true,
		},
		{
			"connection open init",
			func() {
				events = sdk.Events{sdk.NewEvent(connectiontypes.EventTypeConnectionOpenInit,
					sdk.NewAttribute(connectiontypes.AttributeKeyConnectionID, "connection-0"),
					sdk.NewAttribute(connectiontypes.AttributeKeyClientID, "10-grandpa-0"),
					sdk.NewAttribute(connectiontypes.AttributeKeyCounterpartyClientID, "10-grandpa-1"),
				)}
				expEvents = []relayer.IBCEvent{relayer.EventConnectionOpenInit{ConnectionAttributes: relayer.ConnectionAttributes{
					ConnectionID:         "connection-0",
					ClientID:             "10-grandpa-0",
					CounterpartyClientID: "10-grandpa-1",
				}}}
			},
			true,
		},
		{
			"channel open try",
			func() {
				events = sdk.Events{sdk.NewEvent(channeltypes.EventTypeChannelOpenTry,
					sdk.NewAttribute(channeltypes.AttributeKeyPortID, "transfer"),
					sdk.NewAttribute(channeltypes.AttributeKeyChannelID, "channel-1"),
					sdk.NewAttribute(channeltypes.AttributeCounterpartyPortID, "transfer"),
					sdk.NewAttribute(channeltypes.AttributeCounterpartyChannelID, "channel-0"),
					sdk.NewAttribute(channeltypes.AttributeKeyConnectionID, "connection-1"),
					sdk.NewAttribute(channeltypes.AttributeVersion, "ics20-1"),
				)}
				expEvents = []relayer.IBCEvent{relayer.EventChannelOpenTry{ChannelAttributes: relayer.ChannelAttributes{
					PortID:                "transfer",
					ChannelID:             "channel-1",
					CounterpartyPortID:    "transfer",
					CounterpartyChannelID: "channel-0",
					ConnectionID:          "connection-1",
					Version:               "ics20-1",
				}}}
			},
			true,
		},
		{
			"send packet and write acknowledgement in order",
			func() {
				ack := []byte(`{"result":"AQ=="}`)
				events = sdk.Events{
					packetEvent(channeltypes.EventTypeSendPacket, packet,
						sdk.NewAttribute(channeltypes.AttributeKeyChannelOrdering, channeltypes.ORDERED.String())),
					packetEvent(channeltypes.EventTypeWriteAck, packet,
						sdk.NewAttribute(channeltypes.AttributeKeyAckHex, hex.EncodeToString(ack))),
				}
				expEvents = []relayer.IBCEvent{
					relayer.EventSendPacket{Packet: packet, Ordering: channeltypes.ORDERED, ConnectionID: "connection-0"},
					relayer.EventWriteAck{Packet: packet, Ack: ack, ConnectionID: "connection-0"},
				}
			},
			true,
		},
		{
			"invalid packet data",
			func() {
				event := packetEvent(channeltypes.EventTypeSendPacket, packet)
				event.Attributes[0].Value = []byte("not hex")
				events = sdk.Events{event}
			},
			false,
		},
		{
			"invalid timeout height",
			func() {
				event := packetEvent(channeltypes.EventTypeSendPacket, packet)
				event.Attributes[1].Value = []byte("120")
				events = sdk.Events{event}
			},
			false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.malleate()

			parsed, err := relayer.ParseIBCEvents(events)
			if tc.expPass {
				require.NoError(t, err)
				require.Equal(t, expEvents, parsed)
			} else {
				require.Error(t, err)
			}
		})
	}
}
