package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/crypto"
)

const (
	// ModuleName defines the CVM module name
	ModuleName = "cvm"

	// StoreKey is the store key string for the CVM module
	StoreKey = ModuleName
)

// store prefixes
var (
	ParamsKey              = []byte{0x01}
	NetworkPrefix          = []byte{0x02}
	ChannelNetworkPrefix   = []byte{0x03}
	AssetPrefix            = []byte{0x04}
	DenomAssetPrefix       = []byte{0x05}
	InterpreterPrefix      = []byte{0x06}
	InterpreterOwnerPrefix = []byte{0x07}
	SpawnPrefix            = []byte{0x08}
)

// GatewayAddress is the account of the gateway contract. Funds sent along
// with program executions are held by it until moved into an interpreter.
var GatewayAddress = sdk.AccAddress(crypto.AddressHash([]byte("cvm-gateway")))

// NetworkKey returns the key of the registered network.
func NetworkKey(network NetworkID) []byte {
	return append(append([]byte{}, NetworkPrefix...), sdk.Uint64ToBigEndian(uint64(network))...)
}

// ChannelNetworkKey returns the key of the network reached over channelID.
func ChannelNetworkKey(channelID string) []byte {
	return append(append([]byte{}, ChannelNetworkPrefix...), []byte(channelID)...)
}

// AssetKey returns the key of the registered asset.
func AssetKey(asset AssetID) []byte {
	return append(append([]byte{}, AssetPrefix...), sdk.Uint64ToBigEndian(uint64(asset))...)
}

// DenomAssetKey returns the key of the asset identifier of denom.
func DenomAssetKey(denom string) []byte {
	return append(append([]byte{}, DenomAssetPrefix...), []byte(denom)...)
}

// InterpreterKey returns the key of the interpreter instantiated for origin.
func InterpreterKey(origin InterpreterOrigin) []byte {
	return append(append([]byte{}, InterpreterPrefix...), origin.Hash()...)
}

// InterpreterOwnerKey returns the key of the origin owning the interpreter account.
func InterpreterOwnerKey(interpreter sdk.AccAddress) []byte {
	return append(append([]byte{}, InterpreterOwnerPrefix...), interpreter...)
}

// SpawnKey returns the key of the spawn record of an outgoing packet.
func SpawnKey(channelID string, sequence uint64) []byte {
	return append(append([]byte{}, SpawnPrefix...), []byte(fmt.Sprintf("%s/%d", channelID, sequence))...)
}
