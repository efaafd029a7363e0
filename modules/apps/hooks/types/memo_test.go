package types_test

import (
	"encoding/json"
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
)

func TestParseMemo(t *testing.T) {
	contract := sdk.AccAddress([]byte("contract____________")).String()

	testCases := []struct {
		name     string
		memo     string
		expHook  bool
		expErr   error
		validate func(types.Memo)
	}{
		{"empty memo", "", false, nil, nil},
		{"plain text memo", "thanks for the fish", false, nil, nil},
		{"json array", `[1, 2]`, false, nil, nil},
		{"unrelated keys", `{"note": "hi", "ibc_callback": "x"}`, false, nil, nil},
		{"wasm hook", `{"wasm": {"contract": "` + contract + `", "msg": {"ping": {}}}}`, true, nil, func(m types.Memo) {
			require.NotNil(t, m.Wasm)
			require.Nil(t, m.Forward)
			require.Equal(t, contract, m.Wasm.Contract)
			require.JSONEq(t, `{"ping": {}}`, string(m.Wasm.Msg))
		}},
		{"wasm msg not an object", `{"wasm": {"contract": "` + contract + `", "msg": "ping"}}`, true, types.ErrInvalidMemo, nil},
		{"wasm invalid contract", `{"wasm": {"contract": "nope", "msg": {}}}`, true, types.ErrInvalidMemo, nil},
		{"wasm null", `{"wasm": null}`, true, types.ErrInvalidMemo, nil},
		{"forward with defaults", `{"forward": {"receiver": "dest", "port": "transfer", "channel": "channel-1"}}`, true, nil, func(m types.Memo) {
			require.NotNil(t, m.Forward)
			require.Equal(t, types.DefaultForwardTimeout, m.Forward.GetTimeout())
			require.Equal(t, types.DefaultForwardRetries, m.Forward.GetRetries())
			require.Empty(t, m.Forward.Next.String())
		}},
		{"forward with timeout string and nested next", `{"forward": {"receiver": "dest", "port": "transfer", "channel": "channel-1", "timeout": "1h", "retries": 3, "next": {"forward": {"receiver": "x"}}}}`, true, nil, func(m types.Memo) {
			require.Equal(t, time.Hour, m.Forward.GetTimeout())
			require.Equal(t, uint8(3), m.Forward.GetRetries())
			require.JSONEq(t, `{"forward": {"receiver": "x"}}`, m.Forward.Next.String())
		}},
		{"forward with nanosecond timeout and string next", `{"forward": {"receiver": "dest", "port": "transfer", "channel": "channel-1", "timeout": 5000000000, "retries": 0, "next": "hello"}}`, true, nil, func(m types.Memo) {
			require.Equal(t, 5*time.Second, m.Forward.GetTimeout())
			require.Equal(t, uint8(0), m.Forward.GetRetries())
			require.Equal(t, "hello", m.Forward.Next.String())
		}},
		{"forward missing receiver", `{"forward": {"port": "transfer", "channel": "channel-1"}}`, true, types.ErrInvalidForwardMetadata, nil},
		{"forward invalid channel", `{"forward": {"receiver": "dest", "port": "transfer", "channel": "c"}}`, true, types.ErrInvalidForwardMetadata, nil},
		{"forward retries overflow", `{"forward": {"receiver": "dest", "port": "transfer", "channel": "channel-1", "retries": 256}}`, true, types.ErrInvalidMemo, nil},
		{"forward and wasm", `{"forward": {"receiver": "dest", "port": "transfer", "channel": "channel-1"}, "wasm": {"contract": "` + contract + `", "msg": {}}}`, true, types.ErrInvalidMemo, nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			memo, ok, err := types.ParseMemo(tc.memo)
			require.Equal(t, tc.expHook, ok)
			if tc.expErr != nil {
				require.ErrorIs(t, err, tc.expErr)
				return
			}
			require.NoError(t, err)
			if tc.validate != nil {
				tc.validate(memo)
			}
		})
	}
}

func TestParseCallback(t *testing.T) {
	contract, ok := types.ParseCallback(`{"ibc_callback": "centauri1contract", "forward": {}}`)
	require.True(t, ok)
	require.Equal(t, "centauri1contract", contract)

	_, ok = types.ParseCallback(`{"wasm": {}}`)
	require.False(t, ok)
	_, ok = types.ParseCallback("not json")
	require.False(t, ok)
}

func TestJSONObjectRoundTrip(t *testing.T) {
	var metadata types.ForwardMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"receiver": "r", "port": "transfer", "channel": "channel-1", "next": {"wasm": {"a": 1}}}`), &metadata))

	bz, err := json.Marshal(metadata)
	require.NoError(t, err)

	var decoded types.ForwardMetadata
	require.NoError(t, json.Unmarshal(bz, &decoded))
	require.JSONEq(t, metadata.Next.String(), decoded.Next.String())
	require.Equal(t, metadata.GetTimeout(), decoded.GetTimeout())
}
