package types_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
)

const (
	denom              = "transfer/channel-0/USDT"
	amount             = "100"
	largeAmount        = "18446744073709551616"                                                           // one greater than largest uint64 (^uint64(0))
	invalidLargeAmount = "115792089237316195423570985008687907853269984665640564039457584007913129639936" // 2^256
)

var (
	sender   = "centauri1sender"
	receiver = "centauri1receiver"
)

// TestFungibleTokenPacketDataValidateBasic tests ValidateBasic for FungibleTokenPacketData
func TestFungibleTokenPacketDataValidateBasic(t *testing.T) {
	testCases := []struct {
		name       string
		packetData types.FungibleTokenPacketData
		expPass    bool
	}{
		{"valid packet", types.NewFungibleTokenPacketData(denom, amount, sender, receiver, ""), true},
		{"valid packet with memo", types.NewFungibleTokenPacketData(denom, amount, sender, receiver, `{"forward":{}}`), true},
		{"valid packet with large amount", types.NewFungibleTokenPacketData(denom, largeAmount, sender, receiver, ""), true},
		{"invalid denom", types.NewFungibleTokenPacketData("", amount, sender, receiver, ""), false},
		{"invalid empty amount", types.NewFungibleTokenPacketData(denom, "", sender, receiver, ""), false},
		{"invalid zero amount", types.NewFungibleTokenPacketData(denom, "0", sender, receiver, ""), false},
		{"invalid negative amount", types.NewFungibleTokenPacketData(denom, "-1", sender, receiver, ""), false},
		{"invalid large amount", types.NewFungibleTokenPacketData(denom, invalidLargeAmount, sender, receiver, ""), false},
		{"missing sender address", types.NewFungibleTokenPacketData(denom, amount, "", receiver, ""), false},
		{"missing recipient address", types.NewFungibleTokenPacketData(denom, amount, sender, "", ""), false},
		{"receiver too long", types.NewFungibleTokenPacketData(denom, amount, sender, strings.Repeat("a", types.MaximumReceiverLength+1), ""), false},
		{"memo too long", types.NewFungibleTokenPacketData(denom, amount, sender, receiver, strings.Repeat("a", types.MaximumMemoLength+1)), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.packetData.ValidateBasic()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestPacketDataBytesAreSortedJSON(t *testing.T) {
	data := types.NewFungibleTokenPacketData(denom, amount, sender, receiver, "")
	require.Equal(
		t,
		`{"amount":"100","denom":"transfer/channel-0/USDT","receiver":"centauri1receiver","sender":"centauri1sender"}`,
		string(data.GetBytes()),
	)

	decoded, err := types.UnmarshalPacketData(data.GetBytes())
	require.NoError(t, err)
	require.Equal(t, data, decoded)

	_, err = types.UnmarshalPacketData([]byte("not json"))
	require.Error(t, err)
}

func TestGetCustomPacketData(t *testing.T) {
	key := "forward"

	testCases := []struct {
		name          string
		memo          string
		expCustomData interface{}
	}{
		{"success: memo has key", `{"forward": {"receiver": "cosmos1"}}`, map[string]interface{}{"receiver": "cosmos1"}},
		{"failure: memo is empty", "", nil},
		{"failure: memo is not json", "hello", nil},
		{"failure: memo has no key", `{"wasm": {}}`, nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			packetData := types.NewFungibleTokenPacketData(denom, amount, sender, receiver, tc.memo)
			require.Equal(t, tc.expCustomData, packetData.GetCustomPacketData(key))
		})
	}
}
