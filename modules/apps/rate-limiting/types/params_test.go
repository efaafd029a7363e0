package types_test

import (
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
)

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name    string
		params  types.Params
		expPass bool
	}{
		{"default", types.DefaultParams(), true},
		{"capped", types.NewParams(time.Hour, types.NewCap("USDT", sdk.NewInt(10), sdk.Int{})), true},
		{"zero window", types.NewParams(0), false},
		{"negative window", types.NewParams(-time.Second), false},
		{"invalid denom", types.NewParams(time.Hour, types.NewCap("1", sdk.NewInt(10), sdk.NewInt(10))), false},
		{"duplicate denom", types.NewParams(time.Hour,
			types.NewCap("USDT", sdk.NewInt(10), sdk.NewInt(10)),
			types.NewCap("USDT", sdk.NewInt(20), sdk.NewInt(20)),
		), false},
		{"negative bound", types.NewParams(time.Hour, types.NewCap("USDT", sdk.NewInt(-1), sdk.Int{})), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, types.ErrInvalidParams)
			}
		})
	}
}

func TestFlowExpired(t *testing.T) {
	start := time.Unix(1_000, 0)
	flow := types.NewFlow(start)

	require.False(t, flow.Expired(start, time.Minute))
	require.False(t, flow.Expired(start.Add(time.Minute-1), time.Minute))
	require.True(t, flow.Expired(start.Add(time.Minute), time.Minute))
}

func TestFlowAddSub(t *testing.T) {
	flow := types.NewFlow(time.Unix(0, 0)).
		Add(types.PACKET_SEND, sdk.NewInt(10)).
		Add(types.PACKET_RECV, sdk.NewInt(3))

	require.Equal(t, sdk.NewInt(10), flow.Amount(types.PACKET_SEND))
	require.Equal(t, sdk.NewInt(3), flow.Amount(types.PACKET_RECV))

	flow = flow.Sub(types.PACKET_RECV, sdk.NewInt(5))
	require.True(t, flow.Inflow.IsZero())
	require.Equal(t, sdk.NewInt(10), flow.Outflow)
}

func TestPendingSendPacketKey(t *testing.T) {
	key := types.PendingSendPacketKey("channel-1", 7)
	require.Len(t, key, types.PendingSendPacketChannelLength+8)
	require.Equal(t, []byte("channel-1"), key[:len("channel-1")])
	require.Equal(t, sdk.Uint64ToBigEndian(7), key[types.PendingSendPacketChannelLength:])
}
