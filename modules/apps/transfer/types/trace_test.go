package types_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
)

func TestParseDenomTrace(t *testing.T) {
	testCases := []struct {
		name     string
		denom    string
		expTrace types.DenomTrace
	}{
		{"empty denom", "", types.DenomTrace{}},
		{"base denom", "uatom", types.DenomTrace{BaseDenom: "uatom"}},
		{"base denom ending with '/'", "uatom/", types.DenomTrace{BaseDenom: "uatom/"}},
		{"base denom with single '/'s", "gamm/pool/1", types.DenomTrace{BaseDenom: "gamm/pool/1"}},
		{"base denom with double '/'s", "gamm//pool//1", types.DenomTrace{BaseDenom: "gamm//pool//1"}},
		{"trace info", "transfer/channel-1/uatom", types.DenomTrace{BaseDenom: "uatom", Path: "transfer/channel-1"}},
		{"trace info with base denom ending in '/'", "transfer/channel-1/uatom/", types.DenomTrace{BaseDenom: "uatom/", Path: "transfer/channel-1"}},
		{"trace info with single '/' in base denom", "transfer/channel-1/erc20/0x85bcBCd7e79Ec36f4fBBDc54F90C643d921151AA", types.DenomTrace{BaseDenom: "erc20/0x85bcBCd7e79Ec36f4fBBDc54F90C643d921151AA", Path: "transfer/channel-1"}},
		{"trace info with multiple '/'s in base denom", "transfer/channel-1/gamm/pool/1", types.DenomTrace{BaseDenom: "gamm/pool/1", Path: "transfer/channel-1"}},
		{"trace info with multiple double '/'s in base denom", "transfer/channel-1/gamm//pool//1", types.DenomTrace{BaseDenom: "gamm//pool//1", Path: "transfer/channel-1"}},
		{"trace info with multiple port/channel pairs", "transfer/channel-1/transfer/channel-2/uatom", types.DenomTrace{BaseDenom: "uatom", Path: "transfer/channel-1/transfer/channel-2"}},
		{"incomplete path", "transfer/uatom", types.DenomTrace{BaseDenom: "transfer/uatom"}},
		{"invalid path (1)", "transfer//uatom", types.DenomTrace{BaseDenom: "transfer//uatom"}},
		{"invalid path (2)", "channel-1/transfer/uatom", types.DenomTrace{BaseDenom: "channel-1/transfer/uatom"}},
		{"invalid path (3)", "uatom/transfer", types.DenomTrace{BaseDenom: "uatom/transfer"}},
		{"invalid path (4)", "transfer/channel-1", types.DenomTrace{BaseDenom: "transfer/channel-1"}},
		{"invalid path (5)", "transfer/channel-1/", types.DenomTrace{Path: "transfer/channel-1"}},
		{"invalid path (6)", "transfer/channel-1/transfer", types.DenomTrace{BaseDenom: "transfer", Path: "transfer/channel-1"}},
		{"invalid path (7)", "transfer/channel-1/transfer/channel-2", types.DenomTrace{Path: "transfer/channel-1/transfer/channel-2"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			trace := types.ParseDenomTrace(tc.denom)
			require.Equal(t, tc.expTrace, trace)
		})
	}
}

func TestDenomTrace_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		trace    types.DenomTrace
		expError bool
	}{
		{"base denom only", types.DenomTrace{BaseDenom: "uatom"}, false},
		{"base denom only with single '/'", types.DenomTrace{BaseDenom: "erc20/0x85bcBCd7e79Ec36f4fBBDc54F90C643d921151AA"}, false},
		{"empty DenomTrace", types.DenomTrace{}, true},
		{"valid single trace info", types.DenomTrace{Path: "transfer/channel-1", BaseDenom: "uatom"}, false},
		{"valid multiple trace info", types.DenomTrace{Path: "transfer/channel-1/transfer/channel-2", BaseDenom: "uatom"}, false},
		{"single trace identifier", types.DenomTrace{Path: "transfer", BaseDenom: "uatom"}, true},
		{"invalid channel identifier", types.DenomTrace{Path: "transfer/ch", BaseDenom: "uatom"}, true},
		{"empty base denom with trace", types.DenomTrace{Path: "transfer/channel-1", BaseDenom: ""}, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.trace.Validate()
			if tc.expError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidatePrefixedDenom(t *testing.T) {
	testCases := []struct {
		name     string
		denom    string
		expError bool
	}{
		{"prefixed denom", "transfer/channel-1/uatom", false},
		{"prefixed denom with '/'", "transfer/channel-1/gamm/pool/1", false},
		{"base denom", "uatom", false},
		{"base denom with single '/'s", "gamm/pool/1", false},
		{"base denom with double '/'s", "gamm//pool//1", false},
		{"non-ibc prefix with denom", "notibc/denom", false},
		{"empty prefix", "/uatom", false},
		{"empty identifiers", "//uatom", false},
		{"base denom ending with '/'", "uatom/", true},
		{"empty denom", "", true},
		{"blank base denom", "transfer/channel-1/", true},
		{"invalid port ID", "(transfer)/channel-1/uatom", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := types.ValidatePrefixedDenom(tc.denom)
			if tc.expError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestChainIsSource(t *testing.T) {
	require.True(t, types.SenderChainIsSource("transfer", "channel-0", "uatom"))
	require.True(t, types.SenderChainIsSource("transfer", "channel-0", "transfer/channel-1/uatom"))
	require.False(t, types.SenderChainIsSource("transfer", "channel-0", "transfer/channel-0/uatom"))

	require.True(t, types.ReceiverChainIsSource("transfer", "channel-0", "transfer/channel-0/uatom"))
	require.False(t, types.ReceiverChainIsSource("transfer", "channel-0", "transfer/channel-00/uatom"))
}

func TestGetReceivedDenom(t *testing.T) {
	// a native token arriving from the counterparty gains this chain's hop
	require.Equal(t, "transfer/channel-7/USDT", types.GetReceivedDenom("transfer", "channel-0", "transfer", "channel-7", "USDT"))
	// a voucher returning home loses the counterparty's hop
	require.Equal(t, "USDT", types.GetReceivedDenom("transfer", "channel-0", "transfer", "channel-7", "transfer/channel-0/USDT"))
	require.Equal(t, "transfer/channel-3/USDT", types.GetReceivedDenom("transfer", "channel-0", "transfer", "channel-7", "transfer/channel-0/transfer/channel-3/USDT"))
}

// A denom that travels one hop and back is credited under its original name.
func TestDenomRoundTrip(t *testing.T) {
	identifier := rapid.StringMatching(`[a-z]{2,10}`)
	rapid.Check(t, func(t *rapid.T) {
		base := identifier.Draw(t, "base").(string)
		hops := rapid.IntRange(0, 3).Draw(t, "hops").(int)

		denom := base
		for i := 0; i < hops; i++ {
			denom = types.GetPrefixedDenom("transfer", "channel-"+strings.Repeat("1", i+1), denom)
		}

		srcChannel := "channel-" + rapid.StringMatching(`[0-9]{1,3}`).Draw(t, "src").(string)
		dstChannel := "channel-" + rapid.StringMatching(`[0-9]{1,3}`).Draw(t, "dst").(string)

		if types.ReceiverChainIsSource("transfer", srcChannel, denom) {
			// the denom already carries the sender hop and would be unwound
			return
		}

		// the counterparty receives the denom sent from this chain over srcChannel
		received := types.GetReceivedDenom("transfer", srcChannel, "transfer", dstChannel, denom)
		if received != types.GetPrefixedDenom("transfer", dstChannel, denom) {
			t.Fatalf("received %s", received)
		}

		// sending it back over dstChannel unwinds the hop
		back := types.GetReceivedDenom("transfer", dstChannel, "transfer", srcChannel, received)
		if back != denom {
			t.Fatalf("expected %s after round trip, got %s", denom, back)
		}
		if err := types.ValidatePrefixedDenom(received); err != nil {
			t.Fatalf("received denom %s is invalid: %v", received, err)
		}
	})
}
