package keeper_test

import (
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"

	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

var timeoutHeight = clienttypes.NewHeight(0, 100)

// incomingPacket builds a packet sent by the counterparty over channel-7 to this chain's channel-0.
func incomingPacket(data types.FungibleTokenPacketData) channeltypes.Packet {
	return channeltypes.NewPacket(
		data.GetBytes(), 1, types.PortID, counterpartyChannelID, types.PortID, channelID, timeoutHeight, 0,
	)
}

func (suite *KeeperTestSuite) TestSendTransfer() {
	var (
		denom  string
		amount sdk.Int
		sender sdk.AccAddress
		source string
	)

	voucher := types.GetPrefixedDenom(types.PortID, channelID, "USDT")

	testCases := []struct {
		msg      string
		malleate func()
		expPass  bool
		escrowed bool
	}{
		{"successful escrow of native denom", func() {
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))
		}, true, true},
		{"successful burn of voucher returning home", func() {
			denom = voucher
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, voucher, alice, sdk.NewInt(100)))
		}, true, false},
		{"voucher of another hop is escrowed", func() {
			denom = "transfer/channel-3/USDT"
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, denom, alice, sdk.NewInt(100)))
		}, true, true},
		{"send disabled", func() {
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))
			suite.keeper.SetParams(suite.ctx, types.NewParams(false, true))
		}, false, false},
		{"channel not found", func() {
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))
			source = "channel-9"
		}, false, false},
		{"insufficient funds", func() {}, false, false},
		{"zero amount", func() {
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))
			amount = sdk.ZeroInt()
		}, false, false},
		{"channel rejects the packet", func() {
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))
			suite.ics4.sendErr = channeltypes.ErrInvalidChannelState
		}, false, false},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.msg, func() {
			suite.SetupTest() // reset

			denom = "ppica"
			amount = sdk.NewInt(40)
			sender = alice
			source = channelID

			tc.malleate()

			cacheCtx, write := suite.ctx.CacheContext()
			sequence, err := suite.keeper.SendTransfer(cacheCtx, types.PortID, source, denom, amount, sender, bob.String(), timeoutHeight, 0, "memo")
			if !tc.expPass {
				suite.Require().Error(err)
				suite.Require().Empty(suite.ics4.packets)
				suite.Require().Equal(0, suite.hooks.sent)
				return
			}
			write()

			suite.Require().NoError(err)
			suite.Require().Equal(uint64(1), sequence)
			suite.Require().Len(suite.ics4.packets, 1)
			suite.Require().Equal(1, suite.hooks.sent)

			data, err := types.UnmarshalPacketData(suite.ics4.packets[0].Data)
			suite.Require().NoError(err)
			suite.Require().Equal(types.NewFungibleTokenPacketData(denom, "40", alice.String(), bob.String(), "memo"), data)

			suite.Require().Equal(sdk.NewInt(60), suite.fungibles.Balance(suite.ctx, denom, alice))
			escrow := types.GetEscrowAddress(types.PortID, channelID)
			if tc.escrowed {
				suite.Require().Equal(sdk.NewInt(40), suite.fungibles.Balance(suite.ctx, denom, escrow))
				suite.Require().Equal(sdk.NewInt(40), suite.keeper.GetTotalEscrowForDenom(suite.ctx, denom))
				suite.Require().Equal(sdk.NewInt(100), suite.fungibles.TotalSupply(suite.ctx, denom))
			} else {
				suite.Require().True(suite.fungibles.Balance(suite.ctx, denom, escrow).IsZero())
				suite.Require().Equal(sdk.NewInt(60), suite.fungibles.TotalSupply(suite.ctx, denom))
			}
		})
	}
}

func (suite *KeeperTestSuite) TestOnRecvPacket() {
	var data types.FungibleTokenPacketData

	testCases := []struct {
		msg         string
		malleate    func()
		expPass     bool
		creditDenom string
	}{
		{"foreign token is minted as a voucher", func() {}, true, "transfer/channel-0/USDT"},
		{"token returning home is unescrowed", func() {
			data.Denom = types.GetPrefixedDenom(types.PortID, counterpartyChannelID, "ppica")
			escrow := types.GetEscrowAddress(types.PortID, channelID)
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", escrow, sdk.NewInt(100)))
			suite.keeper.SetTotalEscrowForDenom(suite.ctx, "ppica", sdk.NewInt(100))
		}, true, "ppica"},
		{"multi-hop token gains this hop", func() {
			data.Denom = "transfer/channel-3/USDT"
		}, true, "transfer/channel-0/transfer/channel-3/USDT"},
		{"empty escrow cannot be drained", func() {
			data.Denom = types.GetPrefixedDenom(types.PortID, counterpartyChannelID, "ppica")
		}, false, ""},
		{"receive disabled", func() {
			suite.keeper.SetParams(suite.ctx, types.NewParams(true, false))
		}, false, ""},
		{"invalid receiver", func() {
			data.Receiver = "not-an-address"
		}, false, ""},
		{"invalid amount", func() {
			data.Amount = "0"
		}, false, ""},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.msg, func() {
			suite.SetupTest() // reset

			data = types.NewFungibleTokenPacketData("USDT", "40", "counterparty-sender", bob.String(), "")

			tc.malleate()

			err := suite.keeper.OnRecvPacket(suite.ctx, incomingPacket(data), data)
			if !tc.expPass {
				suite.Require().Error(err)
				suite.Require().Equal(0, suite.hooks.received)
				return
			}

			suite.Require().NoError(err)
			suite.Require().Equal(1, suite.hooks.received)
			suite.Require().Equal(sdk.NewInt(40), suite.fungibles.Balance(suite.ctx, tc.creditDenom, bob))
		})
	}
}

func (suite *KeeperTestSuite) TestUnescrowUpdatesTotalEscrow() {
	escrow := types.GetEscrowAddress(types.PortID, channelID)
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", escrow, sdk.NewInt(100)))
	suite.keeper.SetTotalEscrowForDenom(suite.ctx, "ppica", sdk.NewInt(100))

	data := types.NewFungibleTokenPacketData(types.GetPrefixedDenom(types.PortID, counterpartyChannelID, "ppica"), "30", "counterparty-sender", bob.String(), "")
	suite.Require().NoError(suite.keeper.OnRecvPacket(suite.ctx, incomingPacket(data), data))

	suite.Require().Equal(sdk.NewInt(70), suite.keeper.GetTotalEscrowForDenom(suite.ctx, "ppica"))
	suite.Require().Equal(sdk.NewInt(70), suite.fungibles.Balance(suite.ctx, "ppica", escrow))
}

func (suite *KeeperTestSuite) TestRefund() {
	voucher := types.GetPrefixedDenom(types.PortID, channelID, "USDT")

	testCases := []struct {
		msg    string
		denom  string
		refund func(packet channeltypes.Packet, data types.FungibleTokenPacketData) error
	}{
		{"error acknowledgement refunds escrowed tokens", "ppica", func(packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
			return suite.keeper.OnAcknowledgementPacket(suite.ctx, packet, data, channeltypes.NewErrorAcknowledgement(errors.New("failed")))
		}},
		{"error acknowledgement re-mints burned vouchers", voucher, func(packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
			return suite.keeper.OnAcknowledgementPacket(suite.ctx, packet, data, channeltypes.NewErrorAcknowledgement(errors.New("failed")))
		}},
		{"timeout refunds escrowed tokens", "ppica", func(packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
			return suite.keeper.OnTimeoutPacket(suite.ctx, packet, data)
		}},
		{"timeout re-mints burned vouchers", voucher, func(packet channeltypes.Packet, data types.FungibleTokenPacketData) error {
			return suite.keeper.OnTimeoutPacket(suite.ctx, packet, data)
		}},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.msg, func() {
			suite.SetupTest() // reset

			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, tc.denom, alice, sdk.NewInt(100)))
			_, err := suite.keeper.SendTransfer(suite.ctx, types.PortID, channelID, tc.denom, sdk.NewInt(40), alice, bob.String(), timeoutHeight, 0, "")
			suite.Require().NoError(err)
			suite.Require().Equal(sdk.NewInt(60), suite.fungibles.Balance(suite.ctx, tc.denom, alice))

			packet := suite.ics4.packets[0]
			data, err := types.UnmarshalPacketData(packet.Data)
			suite.Require().NoError(err)

			suite.Require().NoError(tc.refund(packet, data))
			suite.Require().Equal(sdk.NewInt(100), suite.fungibles.Balance(suite.ctx, tc.denom, alice))
			suite.Require().Equal(sdk.NewInt(100), suite.fungibles.TotalSupply(suite.ctx, tc.denom))
			suite.Require().True(suite.keeper.GetTotalEscrowForDenom(suite.ctx, tc.denom).IsZero())
		})
	}
}

func (suite *KeeperTestSuite) TestRefundMultipleTimeouts() {
	voucher := types.GetPrefixedDenom(types.PortID, channelID, "USDT")
	escrow := types.GetEscrowAddress(types.PortID, channelID)

	for _, denom := range []string{"ppica", voucher} {
		denom := denom
		suite.Run(denom, func() {
			suite.SetupTest() // reset

			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, denom, alice, sdk.NewInt(100)))
			for _, amount := range []int64{30, 50} {
				_, err := suite.keeper.SendTransfer(suite.ctx, types.PortID, channelID, denom, sdk.NewInt(amount), alice, bob.String(), timeoutHeight, 0, "")
				suite.Require().NoError(err)
			}
			suite.Require().Len(suite.ics4.packets, 2)
			suite.Require().Equal(sdk.NewInt(20), suite.fungibles.Balance(suite.ctx, denom, alice))

			// both packets time out at the same height and are refunded in turn
			for i, packet := range suite.ics4.packets {
				data, err := types.UnmarshalPacketData(packet.Data)
				suite.Require().NoError(err)
				suite.Require().NoError(suite.keeper.OnTimeoutPacket(suite.ctx, packet, data), "packet %d", i)
			}

			suite.Require().Equal(sdk.NewInt(100), suite.fungibles.Balance(suite.ctx, denom, alice))
			suite.Require().Equal(sdk.NewInt(100), suite.fungibles.TotalSupply(suite.ctx, denom))
			suite.Require().True(suite.fungibles.Balance(suite.ctx, denom, escrow).IsZero())
			suite.Require().True(suite.keeper.GetTotalEscrowForDenom(suite.ctx, denom).IsZero())
		})
	}
}

func (suite *KeeperTestSuite) TestSuccessfulAcknowledgementKeepsTokensAway() {
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))
	_, err := suite.keeper.SendTransfer(suite.ctx, types.PortID, channelID, "ppica", sdk.NewInt(40), alice, bob.String(), timeoutHeight, 0, "")
	suite.Require().NoError(err)

	packet := suite.ics4.packets[0]
	data, err := types.UnmarshalPacketData(packet.Data)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.keeper.OnAcknowledgementPacket(suite.ctx, packet, data, channeltypes.NewResultAcknowledgement([]byte{1})))
	suite.Require().Equal(sdk.NewInt(60), suite.fungibles.Balance(suite.ctx, "ppica", alice))
	suite.Require().Equal(1, suite.hooks.acked)
	suite.Require().True(suite.hooks.lastSuccess)
}

func (suite *KeeperTestSuite) TestTransferMsg() {
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))

	msg := types.NewMsgTransfer(types.PortID, channelID, "ppica", sdk.NewInt(100), alice.String(), bob.String(), timeoutHeight, 0, "")
	sequence, err := suite.keeper.Transfer(suite.ctx, msg)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1), sequence)

	msg.Amount = sdk.NewInt(1)
	_, err = suite.keeper.Transfer(suite.ctx, msg)
	suite.Require().ErrorIs(err, fungiblestypes.ErrInsufficientFunds)
}

func (suite *KeeperTestSuite) TestUndoRecvPacket() {
	// minted vouchers are burned again
	data := types.NewFungibleTokenPacketData("USDT", "40", "counterparty-sender", bob.String(), "")
	packet := incomingPacket(data)
	suite.Require().NoError(suite.keeper.OnRecvPacket(suite.ctx, packet, data))

	voucher := types.GetPrefixedDenom(types.PortID, channelID, "USDT")
	suite.Require().NoError(suite.keeper.UndoRecvPacket(suite.ctx, packet, data, bob))
	suite.Require().True(suite.fungibles.Balance(suite.ctx, voucher, bob).IsZero())
	suite.Require().True(suite.fungibles.TotalSupply(suite.ctx, voucher).IsZero())

	// unescrowed tokens return to escrow
	escrow := types.GetEscrowAddress(types.PortID, channelID)
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", escrow, sdk.NewInt(100)))
	suite.keeper.SetTotalEscrowForDenom(suite.ctx, "ppica", sdk.NewInt(100))

	data = types.NewFungibleTokenPacketData(types.GetPrefixedDenom(types.PortID, counterpartyChannelID, "ppica"), "30", "counterparty-sender", bob.String(), "")
	packet = incomingPacket(data)
	suite.Require().NoError(suite.keeper.OnRecvPacket(suite.ctx, packet, data))
	suite.Require().NoError(suite.keeper.UndoRecvPacket(suite.ctx, packet, data, bob))

	suite.Require().Equal(sdk.NewInt(100), suite.fungibles.Balance(suite.ctx, "ppica", escrow))
	suite.Require().Equal(sdk.NewInt(100), suite.keeper.GetTotalEscrowForDenom(suite.ctx, "ppica"))

	// the holder must still own the credit
	err := suite.keeper.UndoRecvPacket(suite.ctx, packet, data, bob)
	suite.Require().ErrorIs(err, fungiblestypes.ErrInsufficientFunds)
}
