package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName defines the fungibles ledger name
	ModuleName = "fungibles"

	// StoreKey is the store key string for the fungibles ledger
	StoreKey = ModuleName
)

var (
	// BalancesPrefix is the prefix of the account balances, keyed by denom then address.
	BalancesPrefix = []byte{0x01}
	// SupplyPrefix is the prefix of the total supply of every denom.
	SupplyPrefix = []byte{0x02}
)

// DenomBalancesPrefix returns the prefix under which all balances of denom are stored.
func DenomBalancesPrefix(denom string) []byte {
	key := append([]byte{}, BalancesPrefix...)
	key = append(key, address.MustLengthPrefix([]byte(denom))...)
	return key
}

// BalanceKey returns the key of the balance of addr in denom.
func BalanceKey(denom string, addr sdk.AccAddress) []byte {
	return append(DenomBalancesPrefix(denom), addr...)
}

// SupplyKey returns the key of the total supply of denom.
func SupplyKey(denom string) []byte {
	return append(append([]byte{}, SupplyPrefix...), []byte(denom)...)
}
