package keeper_test

import (
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/keeper"
	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

const (
	transferPort        = "transfer"
	channelOnCentauri   = "channel-0"
	channelOnComposable = "channel-3"
)

func packetData(denom string, amount int64) []byte {
	return transfertypes.NewFungibleTokenPacketData(
		denom, sdk.NewInt(amount).String(), "centauri1sender", "composable1receiver", "",
	).GetBytes()
}

func TestParsePacketInfo(t *testing.T) {
	testCases := []struct {
		name          string
		direction     types.PacketDirection
		packetDenom   string
		expectedDenom string
		expectedChan  string
	}{
		{
			name:          "send native",
			direction:     types.PACKET_SEND,
			packetDenom:   usdt,
			expectedDenom: usdt,
			expectedChan:  channelOnCentauri,
		},
		{
			name:          "send voucher keeps the full path",
			direction:     types.PACKET_SEND,
			packetDenom:   "transfer/channel-0/PICA",
			expectedDenom: "transfer/channel-0/PICA",
			expectedChan:  channelOnCentauri,
		},
		{
			name:          "recv as sink prefixes the destination hop",
			direction:     types.PACKET_RECV,
			packetDenom:   "PICA",
			expectedDenom: "transfer/channel-0/PICA",
			expectedChan:  channelOnCentauri,
		},
		{
			name:          "recv as sink of a multi hop denom",
			direction:     types.PACKET_RECV,
			packetDenom:   "transfer/channel-9/DOT",
			expectedDenom: "transfer/channel-0/transfer/channel-9/DOT",
			expectedChan:  channelOnCentauri,
		},
		{
			name:          "recv as source removes the source hop",
			direction:     types.PACKET_RECV,
			packetDenom:   "transfer/channel-3/USDT",
			expectedDenom: usdt,
			expectedChan:  channelOnCentauri,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			packet := channeltypes.NewPacket(
				packetData(tc.packetDenom, 10), 1,
				transferPort, channelOnCentauri, transferPort, channelOnCentauri,
				clienttypes.NewHeight(0, 100), 0,
			)
			if tc.direction == types.PACKET_RECV {
				packet.SourceChannel = channelOnComposable
			}

			info, err := keeper.ParsePacketInfo(packet, tc.direction)
			require.NoError(t, err)
			require.Equal(t, tc.expectedDenom, info.Denom)
			require.Equal(t, tc.expectedChan, info.ChannelID)
			require.Equal(t, sdk.NewInt(10), info.Amount)
			require.Equal(t, "centauri1sender", info.Sender)
			require.Equal(t, "composable1receiver", info.Receiver)
		})
	}

	_, err := keeper.ParsePacketInfo(channeltypes.Packet{Data: []byte("not json")}, types.PACKET_SEND)
	require.ErrorIs(t, err, types.ErrInvalidPacketData)
}

func (suite *KeeperTestSuite) sentPacket(denom string, amount int64) channeltypes.Packet {
	seq := suite.channelKeeper.nextSequence
	data := packetData(denom, amount)
	timeout := clienttypes.NewHeight(0, 100)

	err := suite.keeper.SendRateLimitedPacket(suite.ctx, transferPort, channelOnCentauri, timeout, 0, data)
	suite.Require().NoError(err)
	suite.channelKeeper.nextSequence++

	return channeltypes.NewPacket(data, seq, transferPort, channelOnCentauri, transferPort, channelOnComposable, timeout, 0)
}

func (suite *KeeperTestSuite) outflow(denom string) sdk.Int {
	flow, found := suite.keeper.GetFlow(suite.ctx, denom)
	if !found {
		return sdk.ZeroInt()
	}
	return flow.Outflow
}

func (suite *KeeperTestSuite) TestSendRateLimitedPacket() {
	packet := suite.sentPacket(usdt, 800)
	suite.Require().Equal(sdk.NewInt(800), suite.outflow(usdt))

	_, found := suite.keeper.GetPendingSendPacket(suite.ctx, channelOnCentauri, packet.Sequence)
	suite.Require().True(found)

	err := suite.keeper.SendRateLimitedPacket(suite.ctx, transferPort, channelOnCentauri, clienttypes.NewHeight(0, 100), 0, packetData(usdt, 201))
	suite.Require().ErrorIs(err, types.ErrQuotaExceeded)
	suite.Require().Equal(sdk.NewInt(800), suite.outflow(usdt))

	events := suite.ctx.EventManager().Events()
	suite.Require().Equal(types.EventTypeRateLimitExceeded, events[len(events)-1].Type)

	// non transfer payloads are not rate limited
	err = suite.keeper.SendRateLimitedPacket(suite.ctx, "custom", channelOnCentauri, clienttypes.NewHeight(0, 100), 0, []byte{0x01})
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestAcknowledgeRateLimitedPacket() {
	testCases := []struct {
		name            string
		ack             []byte
		expectedOutflow sdk.Int
		expPass         bool
	}{
		{
			"success keeps the outflow",
			channeltypes.NewResultAcknowledgement([]byte{1}).Acknowledgement(),
			sdk.NewInt(300),
			true,
		},
		{
			"failure undoes the outflow",
			channeltypes.NewErrorAcknowledgement(types.ErrQuotaExceeded).Acknowledgement(),
			sdk.ZeroInt(),
			true,
		},
		{
			"malformed acknowledgement",
			[]byte("{}"),
			sdk.NewInt(300),
			false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			packet := suite.sentPacket(usdt, 300)

			err := suite.keeper.AcknowledgeRateLimitedPacket(suite.ctx, packet, tc.ack)
			if !tc.expPass {
				suite.Require().Error(err)
				return
			}
			suite.Require().NoError(err)
			suite.Require().True(tc.expectedOutflow.Equal(suite.outflow(usdt)), suite.outflow(usdt).String())

			_, found := suite.keeper.GetPendingSendPacket(suite.ctx, channelOnCentauri, packet.Sequence)
			suite.Require().False(found)
		})
	}
}

func (suite *KeeperTestSuite) TestTimeoutRateLimitedPacket() {
	first := suite.sentPacket(usdt, 300)
	suite.sentPacket(usdt, 200)

	suite.Require().NoError(suite.keeper.TimeoutRateLimitedPacket(suite.ctx, first))
	suite.Require().Equal(sdk.NewInt(200), suite.outflow(usdt))

	// a second timeout of the same packet finds nothing pending
	err := suite.keeper.TimeoutRateLimitedPacket(suite.ctx, first)
	suite.Require().ErrorIs(err, types.ErrPendingNotFound)
	suite.Require().Equal(sdk.NewInt(200), suite.outflow(usdt))
}

func (suite *KeeperTestSuite) TestTimeoutAfterWindowElapsed() {
	packet := suite.sentPacket(usdt, 300)

	suite.ctx = suite.ctx.WithBlockTime(genesisTime.Add(2 * time.Hour))
	suite.sentPacket(usdt, 100)

	suite.Require().NoError(suite.keeper.TimeoutRateLimitedPacket(suite.ctx, packet))
	suite.Require().Equal(sdk.NewInt(100), suite.outflow(usdt))
}

func (suite *KeeperTestSuite) TestReceiveRateLimitedPacket() {
	recv := func(denom string, amount int64) error {
		packet := channeltypes.NewPacket(
			packetData(denom, amount), 1, transferPort, channelOnComposable, transferPort, channelOnCentauri,
			clienttypes.NewHeight(0, 100), 0,
		)
		return suite.keeper.ReceiveRateLimitedPacket(suite.ctx, packet)
	}

	// USDT returning home is credited as USDT
	suite.Require().NoError(recv("transfer/channel-3/USDT", 500))
	suite.Require().ErrorIs(recv("transfer/channel-3/USDT", 1), types.ErrQuotaExceeded)

	// PICA arriving is credited as transfer/channel-0/PICA
	suite.Require().NoError(recv("PICA", 100))
	suite.Require().ErrorIs(recv("PICA", 1), types.ErrQuotaExceeded)

	// unparseable data is left to the application
	packet := channeltypes.NewPacket([]byte("garbage"), 1, transferPort, channelOnComposable, transferPort, channelOnCentauri, clienttypes.NewHeight(0, 100), 0)
	suite.Require().NoError(suite.keeper.ReceiveRateLimitedPacket(suite.ctx, packet))
}

type rejectAll struct{ reverted int }

func (r *rejectAll) CheckAndUpdate(sdk.Context, string, sdk.Int, types.PacketDirection) error {
	return types.ErrQuotaExceeded
}

func (r *rejectAll) Revert(sdk.Context, string, sdk.Int, types.PacketDirection, time.Time) {
	r.reverted++
}

func (suite *KeeperTestSuite) TestSetRateLimiter() {
	suite.keeper.SetRateLimiter(&rejectAll{})

	err := suite.keeper.SendRateLimitedPacket(suite.ctx, transferPort, channelOnCentauri, clienttypes.NewHeight(0, 100), 0, packetData("DOT", 1))
	suite.Require().ErrorIs(err, types.ErrQuotaExceeded)
}
