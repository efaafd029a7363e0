package relayer

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// translate returns the message dst needs for an event of src along with the
// key deduplicating it. Proofs are taken at the height update makes provable
// on dst. A nil message means the event calls for nothing on dst.
func (p *pipe) translate(ctx context.Context, event IBCEvent, update ClientUpdate) (exported.Msg, string, error) {
	proofHeight := update.Height
	signer := p.dst.Signer()

	switch ev := event.(type) {
	case EventConnectionOpenInit:
		if ev.CounterpartyClientID != p.dst.ClientID() {
			return nil, "", nil
		}
		connection, proof, err := p.proveConnection(ctx, ev.ConnectionID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		msg := connectiontypes.NewMsgConnectionOpenTry(
			ev.CounterpartyClientID, ev.ConnectionID, ev.ClientID,
			p.src.CommitmentPrefix(), connection.Versions, connection.DelayPeriod,
			proof, proofHeight, signer,
		)
		return msg, eventKey(ev, ev.ConnectionID), nil

	case EventConnectionOpenTry:
		if ev.CounterpartyClientID != p.dst.ClientID() {
			return nil, "", nil
		}
		connection, proof, err := p.proveConnection(ctx, ev.ConnectionID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		if len(connection.Versions) == 0 {
			return nil, "", errors.Errorf("connection %s has no version", ev.ConnectionID)
		}
		msg := connectiontypes.NewMsgConnectionOpenAck(
			ev.CounterpartyConnectionID, ev.ConnectionID,
			proof, proofHeight, connection.Versions[0], signer,
		)
		return msg, eventKey(ev, ev.ConnectionID), nil

	case EventConnectionOpenAck:
		if ev.CounterpartyClientID != p.dst.ClientID() {
			return nil, "", nil
		}
		_, proof, err := p.proveConnection(ctx, ev.ConnectionID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		msg := connectiontypes.NewMsgConnectionOpenConfirm(ev.CounterpartyConnectionID, proof, proofHeight, signer)
		return msg, eventKey(ev, ev.ConnectionID), nil

	case EventChannelOpenInit:
		connection, ok, err := p.connection(ctx, ev.ConnectionID)
		if err != nil || !ok {
			return nil, "", err
		}
		channel, proof, err := p.proveChannel(ctx, ev.PortID, ev.ChannelID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		msg := channeltypes.NewMsgChannelOpenTry(
			channel.Counterparty.PortID, channel.Version, channel.Ordering, []string{connection.Counterparty.ConnectionID},
			ev.PortID, ev.ChannelID, channel.Version,
			proof, proofHeight, signer,
		)
		return msg, eventKey(ev, ev.PortID, ev.ChannelID), nil

	case EventChannelOpenTry:
		if _, ok, err := p.connection(ctx, ev.ConnectionID); err != nil || !ok {
			return nil, "", err
		}
		channel, proof, err := p.proveChannel(ctx, ev.PortID, ev.ChannelID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		msg := channeltypes.NewMsgChannelOpenAck(
			ev.CounterpartyPortID, ev.CounterpartyChannelID, ev.ChannelID, channel.Version,
			proof, proofHeight, signer,
		)
		return msg, eventKey(ev, ev.PortID, ev.ChannelID), nil

	case EventChannelOpenAck:
		if _, ok, err := p.connection(ctx, ev.ConnectionID); err != nil || !ok {
			return nil, "", err
		}
		_, proof, err := p.proveChannel(ctx, ev.PortID, ev.ChannelID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		msg := channeltypes.NewMsgChannelOpenConfirm(ev.CounterpartyPortID, ev.CounterpartyChannelID, proof, proofHeight, signer)
		return msg, eventKey(ev, ev.PortID, ev.ChannelID), nil

	case EventChannelCloseInit:
		if _, ok, err := p.connection(ctx, ev.ConnectionID); err != nil || !ok {
			return nil, "", err
		}
		_, proof, err := p.proveChannel(ctx, ev.PortID, ev.ChannelID, proofHeight)
		if err != nil {
			return nil, "", err
		}
		msg := channeltypes.NewMsgChannelCloseConfirm(ev.CounterpartyPortID, ev.CounterpartyChannelID, proof, proofHeight, signer)
		return msg, eventKey(ev, ev.PortID, ev.ChannelID), nil

	case EventSendPacket:
		if _, ok, err := p.connection(ctx, ev.ConnectionID); err != nil || !ok {
			return nil, "", err
		}
		height, timestamp, err := p.dst.QueryLatestHeight(ctx)
		if err != nil {
			return nil, "", err
		}
		// the packet is received in the block following the latest one
		pending := pendingTimeout{packet: ev.Packet, ordering: ev.Ordering}
		if pending.elapsed(height.Increment().(clienttypes.Height), timestamp) {
			p.logger.Info("packet timed out", "sequence", ev.Packet.Sequence, "timeout_height", ev.Packet.TimeoutHeight)
			p.expired.push(pending)
			return nil, "", nil
		}

		key := host.PacketCommitmentKey(ev.Packet.SourcePort, ev.Packet.SourceChannel, ev.Packet.Sequence)
		proof, err := p.src.QueryProof(ctx, proofHeight, key)
		if err != nil {
			return nil, "", err
		}
		msg := channeltypes.NewMsgRecvPacket(ev.Packet, proof, proofHeight, signer)
		return msg, packetKey(ev, ev.Packet), nil

	case EventWriteAck:
		if _, ok, err := p.connection(ctx, ev.ConnectionID); err != nil || !ok {
			return nil, "", err
		}
		key := host.PacketAcknowledgementKey(ev.Packet.DestinationPort, ev.Packet.DestinationChannel, ev.Packet.Sequence)
		proof, err := p.src.QueryProof(ctx, proofHeight, key)
		if err != nil {
			return nil, "", err
		}
		msg := channeltypes.NewMsgAcknowledgement(ev.Packet, ev.Ack, proof, proofHeight, signer)
		return msg, packetKey(ev, ev.Packet), nil

	default:
		return nil, "", nil
	}
}

// timeoutMsg returns the timeout of a packet sent by dst, or nil when the
// packet was acknowledged, timed out or received meanwhile.
func (p *pipe) timeoutMsg(ctx context.Context, pending pendingTimeout, update ClientUpdate) (exported.Msg, error) {
	packet := pending.packet
	commitment, err := p.dst.QueryPacketCommitment(ctx, packet.SourcePort, packet.SourceChannel, packet.Sequence)
	if err != nil {
		return nil, err
	}
	if len(commitment) == 0 {
		return nil, nil
	}

	nextSequenceRecv, err := p.src.QueryNextSequenceRecv(ctx, packet.DestinationPort, packet.DestinationChannel)
	if err != nil {
		return nil, err
	}

	var key []byte
	switch pending.ordering {
	case channeltypes.ORDERED:
		if nextSequenceRecv > packet.Sequence {
			return nil, nil
		}
		key = host.NextSequenceRecvKey(packet.DestinationPort, packet.DestinationChannel)
	default:
		received, err := p.src.QueryPacketReceipt(ctx, packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
		if err != nil {
			return nil, err
		}
		if received {
			return nil, nil
		}
		key = host.PacketReceiptKey(packet.DestinationPort, packet.DestinationChannel, packet.Sequence)
	}

	proof, err := p.src.QueryProof(ctx, update.Height, key)
	if err != nil {
		return nil, err
	}
	return channeltypes.NewMsgTimeout(packet, nextSequenceRecv, proof, update.Height, p.dst.Signer()), nil
}

// connection returns the connection of src with the given id when it is
// built on the client of src tracking dst.
func (p *pipe) connection(ctx context.Context, connectionID string) (connectiontypes.ConnectionEnd, bool, error) {
	connection, err := p.src.QueryConnection(ctx, connectionID)
	if err != nil {
		return connectiontypes.ConnectionEnd{}, false, err
	}
	return connection, connection.ClientID == p.src.ClientID(), nil
}

func (p *pipe) proveConnection(ctx context.Context, connectionID string, height clienttypes.Height) (connectiontypes.ConnectionEnd, []byte, error) {
	connection, err := p.src.QueryConnection(ctx, connectionID)
	if err != nil {
		return connectiontypes.ConnectionEnd{}, nil, err
	}
	proof, err := p.src.QueryProof(ctx, height, host.ConnectionKey(connectionID))
	if err != nil {
		return connectiontypes.ConnectionEnd{}, nil, err
	}
	return connection, proof, nil
}

func (p *pipe) proveChannel(ctx context.Context, portID, channelID string, height clienttypes.Height) (channeltypes.Channel, []byte, error) {
	channel, err := p.src.QueryChannel(ctx, portID, channelID)
	if err != nil {
		return channeltypes.Channel{}, nil, err
	}
	proof, err := p.src.QueryProof(ctx, height, host.ChannelKey(portID, channelID))
	if err != nil {
		return channeltypes.Channel{}, nil, err
	}
	return channel, proof, nil
}

func eventKey(event IBCEvent, ids ...string) string {
	key := event.EventType()
	for _, id := range ids {
		key += "/" + id
	}
	return key
}

func packetKey(event IBCEvent, packet channeltypes.Packet) string {
	return fmt.Sprintf("%s/%s/%s/%d", event.EventType(), packet.SourcePort, packet.SourceChannel, packet.Sequence)
}
