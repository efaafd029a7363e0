package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// IBC channel sentinel errors
var (
	ErrChannelExists             = sdkerrors.Register(SubModuleName, 2, "channel already exists")
	ErrChannelNotFound           = sdkerrors.Register(SubModuleName, 3, "channel not found")
	ErrInvalidChannel            = sdkerrors.Register(SubModuleName, 4, "invalid channel")
	ErrInvalidChannelState       = sdkerrors.Register(SubModuleName, 5, "invalid channel state")
	ErrInvalidChannelOrdering    = sdkerrors.Register(SubModuleName, 6, "invalid channel ordering")
	ErrInvalidCounterparty       = sdkerrors.Register(SubModuleName, 7, "invalid counterparty channel")
	ErrInvalidChannelCapability  = sdkerrors.Register(SubModuleName, 8, "invalid channel capability")
	ErrSequenceSendNotFound      = sdkerrors.Register(SubModuleName, 9, "sequence send not found")
	ErrSequenceReceiveNotFound   = sdkerrors.Register(SubModuleName, 10, "sequence receive not found")
	ErrSequenceAckNotFound       = sdkerrors.Register(SubModuleName, 11, "sequence acknowledgement not found")
	ErrInvalidPacket             = sdkerrors.Register(SubModuleName, 12, "invalid packet")
	ErrPacketTimeout             = sdkerrors.Register(SubModuleName, 13, "packet timeout")
	ErrTooManyConnectionHops     = sdkerrors.Register(SubModuleName, 14, "too many connection hops")
	ErrInvalidAcknowledgement    = sdkerrors.Register(SubModuleName, 15, "invalid acknowledgement")
	ErrAcknowledgementExists     = sdkerrors.Register(SubModuleName, 16, "acknowledgement for packet already exists")
	ErrInvalidChannelIdentifier  = sdkerrors.Register(SubModuleName, 17, "invalid channel identifier")
	ErrPacketReceived            = sdkerrors.Register(SubModuleName, 18, "packet already received")
	ErrPacketCommitmentNotFound  = sdkerrors.Register(SubModuleName, 19, "packet commitment not found")
	ErrPacketSequenceOutOfOrder  = sdkerrors.Register(SubModuleName, 20, "packet sequence is out of order")
	ErrInvalidChannelVersion     = sdkerrors.Register(SubModuleName, 21, "invalid channel version")
	ErrPacketNotAwaitingAck      = sdkerrors.Register(SubModuleName, 22, "packet is not awaiting an asynchronous acknowledgement")
	ErrTimeoutNotReached         = sdkerrors.Register(SubModuleName, 23, "timeout not reached")
	ErrInvalidTimeout            = sdkerrors.Register(SubModuleName, 24, "invalid packet timeout")
	ErrPortCapabilityNotFound    = sdkerrors.Register(SubModuleName, 25, "caller does not own the port capability")

	// ErrAlreadyRelayed marks a message whose effect already happened. The message is
	// a no-op and relayers treat it as done.
	ErrAlreadyRelayed = sdkerrors.Register(SubModuleName, 26, "message already relayed")
)
