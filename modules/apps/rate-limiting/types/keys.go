package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ModuleName defines the IBC rate-limiting name
	ModuleName = "ratelimiting"

	// StoreKey is the store key string for IBC rate-limiting
	StoreKey = ModuleName
)

var (
	// ParamsKey stores the JSON encoded Params.
	ParamsKey = []byte{0x01}
	// FlowKeyPrefix prefixes the per-denom flow records.
	FlowKeyPrefix = []byte{0x02}
	// PendingSendPacketPrefix prefixes outgoing packets whose outflow may still be undone.
	PendingSendPacketPrefix = []byte{0x03}

	PendingSendPacketChannelLength = 16
)

// FlowKey returns the key under which the flow of denom is stored.
func FlowKey(denom string) []byte {
	return append(append([]byte{}, FlowKeyPrefix...), []byte(denom)...)
}

// PendingSendPacketKey returns the pending send packet key relative to
// PendingSendPacketPrefix. The channel ID is padded to a fixed length so the
// sequence can be recovered from the key.
func PendingSendPacketKey(channelID string, sequence uint64) []byte {
	channelIDBz := make([]byte, PendingSendPacketChannelLength)
	copy(channelIDBz, channelID)
	return append(channelIDBz, sdk.Uint64ToBigEndian(sequence)...)
}
