package types_test

import (
	"strings"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
)

var (
	validPort    = "transfer"
	validChannel = "channel-0"
	timeout      = clienttypes.NewHeight(0, 10)
	addr         = sdk.AccAddress([]byte("testaddr111111111111")).String()
)

func TestMsgTransferValidation(t *testing.T) {
	coin := sdk.NewInt(100)

	testCases := []struct {
		name    string
		msg     *types.MsgTransfer
		expPass bool
	}{
		{"valid msg", types.NewMsgTransfer(validPort, validChannel, "USDT", coin, addr, "receiver", timeout, 0, ""), true},
		{"valid msg with prefixed denom", types.NewMsgTransfer(validPort, validChannel, "transfer/channel-3/USDT", coin, addr, "receiver", timeout, 0, ""), true},
		{"valid msg with timestamp timeout only", types.NewMsgTransfer(validPort, validChannel, "USDT", coin, addr, "receiver", clienttypes.ZeroHeight(), 100, ""), true},
		{"too short port id", types.NewMsgTransfer("p", validChannel, "USDT", coin, addr, "receiver", timeout, 0, ""), false},
		{"port id contains non-alpha", types.NewMsgTransfer("p/rt", validChannel, "USDT", coin, addr, "receiver", timeout, 0, ""), false},
		{"too short channel id", types.NewMsgTransfer(validPort, "ch", "USDT", coin, addr, "receiver", timeout, 0, ""), false},
		{"invalid denom", types.NewMsgTransfer(validPort, validChannel, "", coin, addr, "receiver", timeout, 0, ""), false},
		{"zero amount", types.NewMsgTransfer(validPort, validChannel, "USDT", sdk.ZeroInt(), addr, "receiver", timeout, 0, ""), false},
		{"nil amount", types.NewMsgTransfer(validPort, validChannel, "USDT", sdk.Int{}, addr, "receiver", timeout, 0, ""), false},
		{"missing sender address", types.NewMsgTransfer(validPort, validChannel, "USDT", coin, "", "receiver", timeout, 0, ""), false},
		{"missing recipient address", types.NewMsgTransfer(validPort, validChannel, "USDT", coin, addr, "", timeout, 0, ""), false},
		{"too long memo", types.NewMsgTransfer(validPort, validChannel, "USDT", coin, addr, "receiver", timeout, 0, strings.Repeat("m", types.MaximumMemoLength+1)), false},
		{"no timeout", types.NewMsgTransfer(validPort, validChannel, "USDT", coin, addr, "receiver", clienttypes.ZeroHeight(), 0, ""), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.ValidateBasic()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestMsgTransferGetSigner(t *testing.T) {
	msg := types.NewMsgTransfer(validPort, validChannel, "USDT", sdk.NewInt(1), addr, "receiver", timeout, 0, "")
	require.Equal(t, addr, msg.GetSigner())
	require.Equal(t, types.TypeMsgTransfer, msg.Type())
}
