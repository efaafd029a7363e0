package types

import (
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// InFlightPacket records a received packet whose acknowledgement is held
// until the transfer forwarded on its behalf completes.
type InFlightPacket struct {
	OriginalSenderAddress  string             `json:"original_sender_address"`
	RefundChannelID        string             `json:"refund_channel_id"`
	RefundPortID           string             `json:"refund_port_id"`
	RefundSequence         uint64             `json:"refund_sequence"`
	PacketSrcChannelID     string             `json:"packet_src_channel_id"`
	PacketSrcPortID        string             `json:"packet_src_port_id"`
	PacketTimeoutTimestamp uint64             `json:"packet_timeout_timestamp"`
	PacketTimeoutHeight    clienttypes.Height `json:"packet_timeout_height"`
	PacketData             []byte             `json:"packet_data"`
	RetriesRemaining       int32              `json:"retries_remaining"`
	// Timeout is the relative timeout, in nanoseconds, of each forward attempt.
	Timeout uint64 `json:"timeout"`
}

// NewInFlightPacket records the inbound packet forwarded by the intermediate account.
func NewInFlightPacket(packet channeltypes.Packet, originalSender string, retries uint8, timeout uint64) InFlightPacket {
	return InFlightPacket{
		OriginalSenderAddress:  originalSender,
		RefundChannelID:        packet.DestinationChannel,
		RefundPortID:           packet.DestinationPort,
		RefundSequence:         packet.Sequence,
		PacketSrcChannelID:     packet.SourceChannel,
		PacketSrcPortID:        packet.SourcePort,
		PacketTimeoutTimestamp: packet.TimeoutTimestamp,
		PacketTimeoutHeight:    packet.TimeoutHeight,
		PacketData:             packet.Data,
		RetriesRemaining:       int32(retries),
		Timeout:                timeout,
	}
}

// ChannelPacket rebuilds the inbound packet the acknowledgement is owed to.
func (p InFlightPacket) ChannelPacket() channeltypes.Packet {
	return channeltypes.NewPacket(
		p.PacketData, p.RefundSequence,
		p.PacketSrcPortID, p.PacketSrcChannelID,
		p.RefundPortID, p.RefundChannelID,
		p.PacketTimeoutHeight, p.PacketTimeoutTimestamp,
	)
}
