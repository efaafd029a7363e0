package types

import (
	"fmt"
)

const (
	// ModuleName defines the memo hooks middleware name
	ModuleName = "ibchooks"

	// StoreKey is the store key string for the memo hooks middleware. Store
	// keys must not prefix one another, so it cannot start with "ibc".
	StoreKey = "hooks"

	// SenderPrefix is hashed together with the channel and the original
	// sender to derive the intermediate sender of a hook.
	SenderPrefix = "ibc-wasm-hook-intermediary"
)

var (
	// InFlightPacketPrefix prefixes forwarded packets awaiting their acknowledgement.
	InFlightPacketPrefix = []byte{0x01}
	// CallbackPrefix prefixes packets whose sender asked to be called back.
	CallbackPrefix = []byte{0x02}
)

// InFlightPacketKey returns the key of the forward record for the outgoing
// packet identified by channel, port and sequence.
func InFlightPacketKey(channelID, portID string, sequence uint64) []byte {
	return append(append([]byte{}, InFlightPacketPrefix...), []byte(fmt.Sprintf("%s/%s/%d", channelID, portID, sequence))...)
}

// CallbackKey returns the key of the callback registered for the outgoing
// packet identified by channel and sequence.
func CallbackKey(channelID string, sequence uint64) []byte {
	return append(append([]byte{}, CallbackPrefix...), []byte(fmt.Sprintf("%s/%d", channelID, sequence))...)
}
