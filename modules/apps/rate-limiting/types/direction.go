package types

// PacketDirection tells whether tokens leave or enter the chain.
type PacketDirection uint8

const (
	// PACKET_SEND counts towards the outflow of a denom.
	PACKET_SEND PacketDirection = iota + 1
	// PACKET_RECV counts towards the inflow of a denom.
	PACKET_RECV
)

func (d PacketDirection) String() string {
	switch d {
	case PACKET_SEND:
		return "PACKET_SEND"
	case PACKET_RECV:
		return "PACKET_RECV"
	default:
		return "PACKET_DIRECTION_UNSPECIFIED"
	}
}
