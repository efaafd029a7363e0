package types_test

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/stretchr/testify/require"

	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	"github.com/ComposableFi/centauri/modules/core/types"
)

func TestConvertToErrorEvents(t *testing.T) {
	var (
		events    sdk.Events
		expEvents sdk.Events
	)

	testCases := []struct {
		name     string
		malleate func()
	}{
		{
			"nil events",
			func() {
				events = nil
				expEvents = nil
			},
		},
		{
			"event with no attributes",
			func() {
				events = sdk.Events{sdk.NewEvent("transfer")}
				expEvents = sdk.Events{sdk.NewEvent("transfer")}
			},
		},
		{
			"event with attributes",
			func() {
				events = sdk.Events{
					sdk.NewEvent("transfer",
						sdk.NewAttribute("denom", "ppica"),
						sdk.NewAttribute("amount", "10"),
					),
				}
				expEvents = sdk.Events{
					sdk.NewEvent("transfer",
						sdk.NewAttribute("denom-error", "ppica"),
						sdk.NewAttribute("amount-error", "10"),
					),
				}
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.malleate()
			require.Equal(t, expEvents, types.ConvertToErrorEvents(events))
		})
	}
}

func TestResultsErr(t *testing.T) {
	relayed := sdkerrors.Wrap(channeltypes.ErrAlreadyRelayed, "packet sequence 1 already received")
	results := types.Results{{MsgType: "recv_packet", Err: relayed}, {MsgType: "update_client"}}
	require.True(t, results[0].AlreadyRelayed())
	require.NoError(t, results.Err())

	results = append(results, types.Result{MsgType: "timeout_packet", Err: channeltypes.ErrPacketTimeout})
	require.ErrorIs(t, results.Err(), channeltypes.ErrPacketTimeout)
}
