package keeper_test

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"

	contractstypes "github.com/ComposableFi/centauri/modules/apps/contracts/types"
	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
	hookstypes "github.com/ComposableFi/centauri/modules/apps/hooks/types"
)

func (suite *KeeperTestSuite) executeGateway(sender sdk.AccAddress, msg types.ExecuteMsg, funds sdk.Coins) ([]byte, error) {
	ctx, writeCache := suite.ctx.CacheContext()
	result, err := suite.contracts.Execute(ctx, types.GatewayAddress, sender, msg.MustMarshal(), funds)
	if err == nil {
		writeCache()
	}
	return result, err
}

// requireGatewayError checks a gateway failure surfaced through the contract host.
func (suite *KeeperTestSuite) requireGatewayError(err, expErr error) {
	suite.Require().ErrorIs(err, contractstypes.ErrCallFailed)
	suite.Require().Contains(err.Error(), expErr.Error())
}

func (suite *KeeperTestSuite) TestGatewayExecuteProgram() {
	program := types.Program{Salt: []byte("s"), Instructions: []types.Instruction{transferTo(bob, stake, fixed(5))}}
	msg := types.ExecuteMsg{ExecuteProgram: &types.ExecuteProgramMsg{Program: types.EncodeProgram(program)}}

	bz, err := suite.executeGateway(alice, msg, sdk.NewCoins(sdk.NewInt64Coin("stake", 20)))
	suite.Require().NoError(err)

	var result types.ExecuteResult
	suite.Require().NoError(json.Unmarshal(bz, &result))
	interpreter := suite.keeper.InterpreterAddress(suite.ctx, suite.aliceOrigin("s"))
	suite.Require().Equal(interpreter.String(), result.Interpreter)
	suite.Require().Equal(int64(15), suite.balance("stake", interpreter))
	suite.Require().Equal(int64(5), suite.balance("stake", bob))
	suite.Require().Zero(suite.balance("stake", types.GatewayAddress))

	// a malformed program is rejected before any funds move
	msg.ExecuteProgram.Program = []byte{0x0a}
	_, err = suite.executeGateway(alice, msg, sdk.NewCoins(sdk.NewInt64Coin("stake", 20)))
	suite.requireGatewayError(err, types.ErrInvalidProgram)
	suite.Require().Equal(int64(980), suite.balance("stake", alice))
}

func (suite *KeeperTestSuite) TestGatewayAdmin() {
	asset := types.AssetInfo{ID: 7, Denom: "uatom", ExistentialDeposit: sdk.ZeroInt()}

	testCases := []struct {
		name   string
		sender sdk.AccAddress
		msg    types.ExecuteMsg
		funds  sdk.Coins
		expErr error
	}{
		{"register asset", admin, types.ExecuteMsg{RegisterAsset: &asset}, nil, nil},
		{"register asset from user", alice, types.ExecuteMsg{RegisterAsset: &asset}, nil, types.ErrUnauthorized},
		{"pause from user", alice, types.ExecuteMsg{Pause: &struct{}{}}, nil, types.ErrUnauthorized},
		{"admin message with funds", admin, types.ExecuteMsg{Pause: &struct{}{}}, sdk.NewCoins(sdk.NewInt64Coin("stake", 1)), types.ErrInvalidMsg},
		{
			"register network", admin,
			types.ExecuteMsg{RegisterNetwork: &types.Network{ID: 3, Info: types.NetworkInfo{
				ChannelID: "channel-3", GatewayAddress: mustBech32("third", types.GatewayAddress), Prefix: "third",
			}}},
			nil, nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			if !tc.funds.Empty() {
				suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "stake", tc.sender, sdk.NewInt(1)))
			}

			_, err := suite.executeGateway(tc.sender, tc.msg, tc.funds)
			if tc.expErr != nil {
				suite.requireGatewayError(err, tc.expErr)
				return
			}
			suite.Require().NoError(err)
		})
	}

	_, err := suite.executeGateway(admin, types.ExecuteMsg{Pause: &struct{}{}}, nil)
	suite.Require().NoError(err)
	suite.Require().True(suite.keeper.GetParams(suite.ctx).Paused)

	program := types.Program{Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}}
	_, err = suite.executeGateway(alice, types.ExecuteMsg{ExecuteProgram: &types.ExecuteProgramMsg{Program: types.EncodeProgram(program)}}, nil)
	suite.requireGatewayError(err, types.ErrPaused)

	_, err = suite.executeGateway(admin, types.ExecuteMsg{Unpause: &struct{}{}}, nil)
	suite.Require().NoError(err)
	suite.Require().False(suite.keeper.GetParams(suite.ctx).Paused)
}

func (suite *KeeperTestSuite) TestGatewayExecuteProgramPrivileged() {
	remoteUser := []byte("remote_user_________")
	msg := types.ExecuteProgramPrivilegedMsg{
		CallOrigin:      types.UserOrigin{Network: remoteNetwork, User: remoteUser},
		InterpreterSalt: []byte("source"),
		Salt:            []byte("child"),
		Program: types.EncodeProgram(types.Program{Instructions: []types.Instruction{
			transferTo(bob, voucher, types.Everything()),
		}}),
	}

	// the wasm hook calls the gateway from the intermediate sender of the
	// source interpreter
	sourceInterpreter := mustBech32(remotePrefix, types.DeriveInterpreterAddress(types.DefaultInterpreterCodeID, msg.SourceOrigin()))
	hookSender, err := hookstypes.IntermediateSender(remoteChannel, sourceInterpreter)
	suite.Require().NoError(err)
	funds := sdk.NewCoins(sdk.NewInt64Coin(voucherDenom, 42))
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, voucherDenom, hookSender, sdk.NewInt(42)))
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, voucherDenom, alice, sdk.NewInt(42)))

	testCases := []struct {
		name     string
		sender   sdk.AccAddress
		malleate func()
		expErr   error
	}{
		{"caller is not the intermediate sender", alice, func() {}, types.ErrUnauthorized},
		{"forged source salt", hookSender, func() { msg.InterpreterSalt = []byte("other") }, types.ErrUnauthorized},
		{"unknown source network", hookSender, func() { msg.CallOrigin.Network = 9 }, types.ErrUnknownNetwork},
		{"paused", hookSender, func() { suite.keeper.SetPaused(suite.ctx, true) }, types.ErrPaused},
		{"success", hookSender, func() {}, nil},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			original := msg
			defer func() {
				msg = original
				suite.keeper.SetPaused(suite.ctx, false)
			}()
			tc.malleate()

			bz, err := suite.executeGateway(tc.sender, types.ExecuteMsg{ExecuteProgramPrivileged: &msg}, funds)
			if tc.expErr != nil {
				suite.requireGatewayError(err, tc.expErr)
				return
			}
			suite.Require().NoError(err)

			child := suite.keeper.InterpreterAddress(suite.ctx, msg.Origin())
			var result types.ExecuteResult
			suite.Require().NoError(json.Unmarshal(bz, &result))
			suite.Require().Equal(child.String(), result.Interpreter)
			suite.Require().Equal(int64(42), suite.balance(voucherDenom, bob))
			suite.Require().Zero(suite.balance(voucherDenom, child))
		})
	}
}
