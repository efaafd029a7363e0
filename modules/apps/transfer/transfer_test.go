package transfer_test

import (
	"fmt"
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"

	cvmtypes "github.com/ComposableFi/centauri/modules/apps/cvm/types"
	contractstypes "github.com/ComposableFi/centauri/modules/apps/contracts/types"
	ratelimittypes "github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	ibctesting "github.com/ComposableFi/centauri/testing"
)

type TransferTestSuite struct {
	suite.Suite

	coordinator *ibctesting.Coordinator

	// testing chains used for convenience and readability
	chainA *ibctesting.TestChain
	chainB *ibctesting.TestChain
	chainC *ibctesting.TestChain
}

func (suite *TransferTestSuite) SetupTest() {
	suite.coordinator = ibctesting.NewCoordinator(suite.T(), 3)
	suite.chainA = suite.coordinator.GetChain(ibctesting.GetChainID(1))
	suite.chainB = suite.coordinator.GetChain(ibctesting.GetChainID(2))
	suite.chainC = suite.coordinator.GetChain(ibctesting.GetChainID(3))
}

func TestTransferTestSuite(t *testing.T) {
	suite.Run(t, new(TransferTestSuite))
}

// transfer sends amount of denom from the sender account of the endpoint
// chain and returns the packet that was sent.
func (suite *TransferTestSuite) transfer(
	endpoint *ibctesting.Endpoint, denom string, amount int64, receiver string, timeoutHeight clienttypes.Height, memo string,
) channeltypes.Packet {
	msg := types.NewMsgTransfer(
		endpoint.ChannelConfig.PortID, endpoint.ChannelID,
		denom, sdk.NewInt(amount),
		endpoint.Chain.SenderAccount.String(), receiver,
		timeoutHeight, 0, memo,
	)
	res, err := endpoint.Chain.SendMsgs(msg)
	suite.Require().NoError(err)

	packet, err := ibctesting.ParsePacketFromEvents(res[0].Events)
	suite.Require().NoError(err)
	return packet
}

func (suite *TransferTestSuite) TestHandleMsgTransfer() {
	path := ibctesting.NewTransferPath(suite.chainA, suite.chainB)
	path.Setup()

	sender := suite.chainA.SenderAccount
	receiver := suite.chainB.SenderAccount
	original := suite.chainA.Balance(sender, ibctesting.NativeDenom)

	// send from chainA to chainB
	packet := suite.transfer(path.EndpointA, ibctesting.NativeDenom, 100, receiver.String(), suite.chainB.GetTimeoutHeight(), "")
	suite.Require().NoError(path.RelayPacket(packet))

	escrow := types.GetEscrowAddress(packet.GetSourcePort(), packet.GetSourceChannel())
	suite.Require().Equal(sdk.NewInt(100), suite.chainA.Balance(escrow, ibctesting.NativeDenom))
	suite.Require().Equal(sdk.NewInt(100), suite.chainA.App.TransferKeeper.GetTotalEscrowForDenom(suite.chainA.GetContext(), ibctesting.NativeDenom))

	voucher := types.GetPrefixedDenom(path.EndpointB.ChannelConfig.PortID, path.EndpointB.ChannelID, ibctesting.NativeDenom)
	suite.Require().Equal(sdk.NewInt(100), suite.chainB.Balance(receiver, voucher))

	// send the vouchers back from chainB to chainA
	packet = suite.transfer(path.EndpointB, voucher, 100, sender.String(), suite.chainA.GetTimeoutHeight(), "")
	suite.Require().NoError(path.RelayPacket(packet))

	suite.Require().True(suite.chainB.Balance(receiver, voucher).IsZero())
	suite.Require().True(suite.chainA.Balance(escrow, ibctesting.NativeDenom).IsZero())
	suite.Require().Equal(original, suite.chainA.Balance(sender, ibctesting.NativeDenom))
}

func (suite *TransferTestSuite) TestTimeoutRefund() {
	path := ibctesting.NewTransferPath(suite.chainA, suite.chainB)
	path.Setup()

	sender := suite.chainA.SenderAccount
	original := suite.chainA.Balance(sender, ibctesting.NativeDenom)

	timeoutHeight := clienttypes.NewHeight(0, uint64(suite.chainB.GetContext().BlockHeight())+2)
	packet := suite.transfer(path.EndpointA, ibctesting.NativeDenom, 100, suite.chainB.SenderAccount.String(), timeoutHeight, "")
	suite.Require().Equal(original.SubRaw(100), suite.chainA.Balance(sender, ibctesting.NativeDenom))

	suite.coordinator.CommitNBlocks(suite.chainB, 3)
	suite.Require().NoError(path.EndpointA.UpdateClient())
	suite.Require().NoError(path.EndpointA.TimeoutPacket(packet))

	suite.Require().Equal(original, suite.chainA.Balance(sender, ibctesting.NativeDenom))
	suite.Require().True(suite.chainA.App.TransferKeeper.GetTotalEscrowForDenom(suite.chainA.GetContext(), ibctesting.NativeDenom).IsZero())
}

func (suite *TransferTestSuite) TestRateLimitedTransfer() {
	path := ibctesting.NewTransferPath(suite.chainA, suite.chainB)
	path.Setup()

	suite.chainA.App.RateLimitKeeper.SetParams(suite.chainA.GetContext(), ratelimittypes.NewParams(
		time.Hour, ratelimittypes.NewCap(ibctesting.NativeDenom, sdk.NewInt(150), sdk.Int{}),
	))
	suite.coordinator.CommitBlock(suite.chainA)

	receiver := suite.chainB.SenderAccount.String()
	suite.transfer(path.EndpointA, ibctesting.NativeDenom, 100, receiver, suite.chainB.GetTimeoutHeight(), "")

	msg := types.NewMsgTransfer(
		path.EndpointA.ChannelConfig.PortID, path.EndpointA.ChannelID,
		ibctesting.NativeDenom, sdk.NewInt(100),
		suite.chainA.SenderAccount.String(), receiver,
		suite.chainB.GetTimeoutHeight(), 0, "",
	)
	_, err := suite.chainA.SendMsgs(msg)
	suite.Require().ErrorIs(err, ratelimittypes.ErrQuotaExceeded)

	// the rejected transfer left no trace
	escrow := types.GetEscrowAddress(path.EndpointA.ChannelConfig.PortID, path.EndpointA.ChannelID)
	suite.Require().Equal(sdk.NewInt(100), suite.chainA.Balance(escrow, ibctesting.NativeDenom))

	// the quota is available again in the next window
	suite.coordinator.IncrementTimeBy(time.Hour)
	_, err = suite.chainA.SendMsgs(msg)
	suite.Require().NoError(err)
}

func (suite *TransferTestSuite) TestForwardMemo() {
	pathAtoB := ibctesting.NewTransferPath(suite.chainA, suite.chainB)
	pathAtoB.Setup()
	pathBtoC := ibctesting.NewTransferPath(suite.chainB, suite.chainC)
	pathBtoC.Setup()

	receiver := suite.chainC.SenderAccount
	memo := fmt.Sprintf(`{"forward":{"receiver":%q,"port":%q,"channel":%q}}`,
		receiver.String(), pathBtoC.EndpointA.ChannelConfig.PortID, pathBtoC.EndpointA.ChannelID)

	packet := suite.transfer(pathAtoB.EndpointA, ibctesting.NativeDenom, 100, suite.chainB.SenderAccount.String(), suite.chainB.GetTimeoutHeight(), memo)

	suite.Require().NoError(pathAtoB.EndpointB.UpdateClient())
	res, err := pathAtoB.EndpointB.RecvPacketWithResult(packet)
	suite.Require().NoError(err)

	// the acknowledgement of the first hop waits for the second hop
	_, found := suite.chainB.App.IBCKeeper.ChannelKeeper.GetPacketAcknowledgement(
		suite.chainB.GetContext(), packet.GetDestPort(), packet.GetDestChannel(), packet.GetSequence(),
	)
	suite.Require().False(found)

	forwarded, err := ibctesting.ParsePacketFromEvents(res.Events)
	suite.Require().NoError(err)
	suite.Require().NoError(pathBtoC.RelayPacket(forwarded))

	voucherB := types.GetPrefixedDenom(pathAtoB.EndpointB.ChannelConfig.PortID, pathAtoB.EndpointB.ChannelID, ibctesting.NativeDenom)
	voucherC := types.GetPrefixedDenom(pathBtoC.EndpointB.ChannelConfig.PortID, pathBtoC.EndpointB.ChannelID, voucherB)
	suite.Require().Equal(sdk.NewInt(100), suite.chainC.Balance(receiver, voucherC))
	suite.Require().True(suite.chainB.Balance(suite.chainB.SenderAccount, voucherB).IsZero())

	_, found = suite.chainB.App.IBCKeeper.ChannelKeeper.GetPacketAcknowledgement(
		suite.chainB.GetContext(), packet.GetDestPort(), packet.GetDestChannel(), packet.GetSequence(),
	)
	suite.Require().True(found)
}

func (suite *TransferTestSuite) TestCVMSpawn() {
	path := ibctesting.NewTransferPath(suite.chainA, suite.chainB)
	path.Setup()

	const (
		networkA cvmtypes.NetworkID = 1
		networkB cvmtypes.NetworkID = 2
		asset    cvmtypes.AssetID   = 1
	)
	voucher := types.GetPrefixedDenom(path.EndpointB.ChannelConfig.PortID, path.EndpointB.ChannelID, ibctesting.NativeDenom)

	register := func(chain *ibctesting.TestChain, local, remote cvmtypes.NetworkID, channelID, denom string) {
		ctx := chain.GetContext()
		chain.App.CVMKeeper.SetParams(ctx, cvmtypes.NewParams("", local, cvmtypes.DefaultInterpreterCodeID, cvmtypes.DefaultSpawnTimeout))
		suite.Require().NoError(chain.App.CVMKeeper.RegisterNetwork(ctx, remote, cvmtypes.NetworkInfo{
			ChannelID:      channelID,
			GatewayAddress: cvmtypes.GatewayAddress.String(),
			Prefix:         sdk.GetConfig().GetBech32AccountAddrPrefix(),
		}))
		suite.Require().NoError(chain.App.CVMKeeper.RegisterAsset(ctx, cvmtypes.AssetInfo{
			ID: asset, Denom: denom, Decimals: 12, ExistentialDeposit: sdk.ZeroInt(),
		}))
	}
	register(suite.chainA, networkA, networkB, path.EndpointA.ChannelID, ibctesting.NativeDenom)
	register(suite.chainB, networkB, networkA, path.EndpointB.ChannelID, voucher)
	suite.coordinator.CommitBlock(suite.chainA, suite.chainB)

	bob := sdk.AccAddress([]byte("bob_________________"))
	program := cvmtypes.Program{
		Salt: []byte("s"),
		Instructions: []cvmtypes.Instruction{{Spawn: &cvmtypes.Spawn{
			Network: networkB,
			Salt:    []byte("child"),
			Funds:   cvmtypes.Funds{{ID: asset, Amount: cvmtypes.Everything()}},
			Program: cvmtypes.Program{Instructions: []cvmtypes.Instruction{{Transfer: &cvmtypes.Transfer{
				To:    bob,
				Funds: cvmtypes.Funds{{ID: asset, Amount: cvmtypes.Fixed(cvmtypes.NewU128(40))}},
			}}}},
		}}},
	}
	execute := cvmtypes.ExecuteMsg{ExecuteProgram: &cvmtypes.ExecuteProgramMsg{Program: cvmtypes.EncodeProgram(program)}}
	msg := contractstypes.NewMsgExecuteContract(
		suite.chainA.SenderAccount, cvmtypes.GatewayAddress, execute.MustMarshal(),
		sdk.NewCoins(sdk.NewInt64Coin(ibctesting.NativeDenom, 100)),
	)
	res, err := suite.chainA.SendMsgs(msg)
	suite.Require().NoError(err)

	packet, err := ibctesting.ParsePacketFromEvents(res[0].Events)
	suite.Require().NoError(err)

	record, found := suite.chainA.App.CVMKeeper.GetSpawn(suite.chainA.GetContext(), packet.GetSourceChannel(), packet.GetSequence())
	suite.Require().True(found)
	suite.Require().Equal(cvmtypes.SpawnEmitted, record.Status)

	_, ack, err := path.RelayPacketWithResults(packet)
	suite.Require().NoError(err)
	suite.Require().Contains(string(ack), "result")

	// the child interpreter received the funds and paid bob
	childOrigin := cvmtypes.InterpreterOrigin{
		UserOrigin: cvmtypes.UserOrigin{Network: networkA, User: suite.chainA.SenderAccount},
		Salt:       []byte("child"),
	}
	child := cvmtypes.DeriveInterpreterAddress(cvmtypes.DefaultInterpreterCodeID, childOrigin)
	suite.Require().Equal(sdk.NewInt(40), suite.chainB.Balance(bob, voucher))
	suite.Require().Equal(sdk.NewInt(60), suite.chainB.Balance(child, voucher))

	record, found = suite.chainA.App.CVMKeeper.GetSpawn(suite.chainA.GetContext(), packet.GetSourceChannel(), packet.GetSequence())
	suite.Require().True(found)
	suite.Require().Equal(cvmtypes.SpawnSettled, record.Status)
	suite.Require().True(record.Success)
}
