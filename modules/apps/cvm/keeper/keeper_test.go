package keeper_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	contractskeeper "github.com/ComposableFi/centauri/modules/apps/contracts/keeper"
	contractstypes "github.com/ComposableFi/centauri/modules/apps/contracts/types"
	"github.com/ComposableFi/centauri/modules/apps/cvm/keeper"
	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
	fungibleskeeper "github.com/ComposableFi/centauri/modules/apps/fungibles/keeper"
	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

const (
	remoteNetwork types.NetworkID = 2
	remoteChannel                 = "channel-0"
	remotePrefix                  = "remote"

	stake   types.AssetID = 1
	voucher types.AssetID = 2

	voucherDenom = "transfer/channel-0/uremote"
)

var (
	admin  = sdk.AccAddress([]byte("admin_______________"))
	alice  = sdk.AccAddress([]byte("alice_______________"))
	bob    = sdk.AccAddress([]byte("bob_________________"))
	tip    = sdk.AccAddress([]byte("relayer_____________"))
	echo   = sdk.AccAddress([]byte("echo_contract_______"))
	escrow = sdk.AccAddress([]byte("transfer_escrow_____"))
)

type sentTransfer struct {
	channel  string
	denom    string
	amount   sdk.Int
	sender   sdk.AccAddress
	receiver string
	timeout  uint64
	memo     string
}

// mockTransferKeeper escrows the funds of sent transfers.
type mockTransferKeeper struct {
	fungibles fungibleskeeper.Keeper
	sent      []sentTransfer
	fail      bool
}

func (m *mockTransferKeeper) SendTransfer(
	ctx sdk.Context, _, sourceChannel string, denom string, amount sdk.Int,
	sender sdk.AccAddress, receiver string, _ clienttypes.Height, timeoutTimestamp uint64, memo string,
) (uint64, error) {
	if m.fail {
		return 0, errors.New("channel closed")
	}
	if err := m.fungibles.Transfer(ctx, denom, sender, escrow, amount); err != nil {
		return 0, err
	}
	m.sent = append(m.sent, sentTransfer{
		channel: sourceChannel, denom: denom, amount: amount,
		sender: sender, receiver: receiver, timeout: timeoutTimestamp, memo: memo,
	})
	return uint64(len(m.sent)), nil
}

// echoContract returns the message it was called with.
type echoContract struct {
	calls []contractstypes.Env
	msgs  []string
}

func (c *echoContract) Execute(_ sdk.Context, env contractstypes.Env, msg []byte) ([]byte, error) {
	var req struct {
		Fail bool `json:"fail"`
	}
	_ = json.Unmarshal(msg, &req)
	if req.Fail {
		return nil, errors.New("echo failed")
	}
	c.calls = append(c.calls, env)
	c.msgs = append(c.msgs, string(msg))
	return msg, nil
}

type KeeperTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	fungibles fungibleskeeper.Keeper
	transfer  *mockTransferKeeper
	contracts *contractskeeper.Keeper
	echo      *echoContract
	keeper    *keeper.Keeper
}

func (suite *KeeperTestSuite) SetupTest() {
	fungiblesKey := sdk.NewKVStoreKey(fungiblestypes.StoreKey)
	cvmKey := sdk.NewKVStoreKey(types.StoreKey)

	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(fungiblesKey, sdk.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(cvmKey, sdk.StoreTypeIAVL, nil)
	suite.Require().NoError(cms.LoadLatestVersion())

	suite.ctx = sdk.NewContext(cms, tmproto.Header{Time: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)}, false, log.NewNopLogger())

	suite.fungibles = fungibleskeeper.NewKeeper(fungiblesKey)
	suite.transfer = &mockTransferKeeper{fungibles: suite.fungibles}
	suite.contracts = contractskeeper.NewKeeper(suite.fungibles)
	suite.keeper = keeper.NewKeeper(cvmKey, suite.fungibles, suite.transfer, suite.contracts)

	suite.echo = &echoContract{}
	suite.contracts.RegisterContract(types.GatewayAddress, keeper.NewGateway(suite.keeper))
	suite.contracts.RegisterContract(echo, suite.echo)
	suite.contracts.Seal()

	genesis := types.DefaultGenesisState()
	genesis.Params.Admin = admin.String()
	genesis.Networks = []types.Network{{ID: remoteNetwork, Info: types.NetworkInfo{
		ChannelID:      remoteChannel,
		GatewayAddress: mustBech32(remotePrefix, types.GatewayAddress),
		Prefix:         remotePrefix,
	}}}
	genesis.Assets = []types.AssetInfo{
		{ID: stake, Denom: "stake", Decimals: 6, ExistentialDeposit: sdk.ZeroInt()},
		{ID: voucher, Denom: voucherDenom, Decimals: 6, ExistentialDeposit: sdk.ZeroInt()},
	}
	suite.keeper.InitGenesis(suite.ctx, *genesis)

	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "stake", alice, sdk.NewInt(1000)))
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func mustBech32(prefix string, address sdk.AccAddress) string {
	encoded, err := bech32.ConvertAndEncode(prefix, address)
	if err != nil {
		panic(err)
	}
	return encoded
}

func transferTo(to sdk.AccAddress, id types.AssetID, amount types.Amount) types.Instruction {
	return types.Instruction{Transfer: &types.Transfer{To: to, Funds: types.Funds{{ID: id, Amount: amount}}}}
}

func fixed(v uint64) types.Amount {
	return types.Fixed(types.NewU128(v))
}

func (suite *KeeperTestSuite) balance(denom string, account sdk.AccAddress) int64 {
	return suite.fungibles.Balance(suite.ctx, denom, account).Int64()
}

func (suite *KeeperTestSuite) aliceOrigin(salt string) types.InterpreterOrigin {
	return types.InterpreterOrigin{
		UserOrigin: types.UserOrigin{Network: 1, User: alice},
		Salt:       []byte(salt),
	}
}

func (suite *KeeperTestSuite) TestExecuteProgramTransfer() {
	testCases := []struct {
		name       string
		amount     types.Amount
		expBob     int64
		expErr     error
		unregister bool
	}{
		{"fixed amount", fixed(40), 40, nil, false},
		{"whole balance", types.Everything(), 100, nil, false},
		{"quarter of the balance", types.Ratio(types.NewU128(1 << 62)), 25, nil, false},
		{"ratio resolving to zero", types.Ratio(types.NewU128(1)), 0, types.ErrZeroAmount, false},
		{"more than the balance", fixed(101), 0, fungiblestypes.ErrInsufficientFunds, false},
		{"unknown asset", fixed(1), 0, types.ErrUnknownAsset, true},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()

			id := stake
			if tc.unregister {
				id = 99
			}
			program := types.Program{
				Salt:         []byte("s"),
				Instructions: []types.Instruction{transferTo(bob, id, tc.amount)},
			}

			cacheCtx, writeCache := suite.ctx.CacheContext()
			interpreter, err := suite.keeper.ExecuteProgram(cacheCtx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 100)), tip.String())
			if tc.expErr != nil {
				suite.Require().ErrorIs(err, tc.expErr)
				suite.Require().Equal(int64(1000), suite.balance("stake", alice))
				return
			}
			suite.Require().NoError(err)
			writeCache()

			suite.Require().Equal(types.DeriveInterpreterAddress(types.DefaultInterpreterCodeID, suite.aliceOrigin("s")), interpreter)
			suite.Require().Equal(tc.expBob, suite.balance("stake", bob))
			suite.Require().Equal(100-tc.expBob, suite.balance("stake", interpreter))
			suite.Require().Equal(int64(900), suite.balance("stake", alice))
		})
	}
}

func (suite *KeeperTestSuite) TestInstantiateOrReuse() {
	program := types.Program{Salt: []byte("s"), Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}}
	assets := sdk.NewCoins(sdk.NewInt64Coin("stake", 10))

	first, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, assets, "")
	suite.Require().NoError(err)

	suite.ctx = suite.ctx.WithEventManager(sdk.NewEventManager())
	second, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, assets, "")
	suite.Require().NoError(err)
	suite.Require().Equal(first, second)
	for _, event := range suite.ctx.EventManager().Events() {
		suite.Require().NotEqual(types.EventTypeInterpreterInstantiated, event.Type)
	}

	origin, found := suite.keeper.GetInterpreterOrigin(suite.ctx, first)
	suite.Require().True(found)
	suite.Require().Equal(suite.aliceOrigin("s"), origin)

	// another salt is another interpreter
	program.Salt = []byte("t")
	third, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, assets, "")
	suite.Require().NoError(err)
	suite.Require().NotEqual(first, third)
}

func (suite *KeeperTestSuite) TestInterpreterMismatch() {
	// the account derived for alice is already owned by another origin
	suite.keeper.InitGenesis(suite.ctx, types.GenesisState{
		Params: suite.keeper.GetParams(suite.ctx),
		Interpreters: []types.Interpreter{{
			Origin:  types.InterpreterOrigin{UserOrigin: types.UserOrigin{Network: 3, User: bob}},
			Address: suite.keeper.InterpreterAddress(suite.ctx, suite.aliceOrigin("s")).String(),
		}},
	})

	program := types.Program{Salt: []byte("s"), Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}}
	_, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, nil, "")
	suite.Require().ErrorIs(err, types.ErrInterpreterMismatch)
}

func (suite *KeeperTestSuite) TestCallBindings() {
	// {"contract":"<echo>","msg":{"self":"<Self>","amount":"<AssetAmount>","denom":"<AssetID>","tip":"<Relayer>"}}
	prefix := `{"contract":"` + echo.String() + `","msg":{"self":"`
	parts := []string{prefix, `","amount":"`, `","denom":"`, `","tip":"`, `"}}`}
	payload := ""
	var positions []uint32
	for i, part := range parts {
		payload += part
		if i < len(parts)-1 {
			positions = append(positions, uint32(len(payload)))
		}
	}
	call := &types.Call{
		Payload: []byte(payload),
		Bindings: []types.Binding{
			{Position: positions[0], Value: types.BindingValue{Kind: types.BindingSelf}},
			{Position: positions[1], Value: types.BindingValue{Kind: types.BindingAssetAmount, AssetID: stake, Amount: types.Ratio(types.NewU128(1 << 63))}},
			{Position: positions[2], Value: types.BindingValue{Kind: types.BindingAssetID, AssetID: stake}},
			{Position: positions[3], Value: types.BindingValue{Kind: types.BindingRelayer}},
		},
	}
	program := types.Program{Salt: []byte("s"), Instructions: []types.Instruction{{Call: call}}}

	interpreter, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 100)), tip.String())
	suite.Require().NoError(err)

	suite.Require().Len(suite.echo.calls, 1)
	suite.Require().Equal(interpreter, suite.echo.calls[0].Sender)
	var msg map[string]string
	suite.Require().NoError(json.Unmarshal([]byte(suite.echo.msgs[0]), &msg))
	suite.Require().Equal(map[string]string{
		"self":   interpreter.String(),
		"amount": "50",
		"denom":  "stake",
		"tip":    tip.String(),
	}, msg)
}

func (suite *KeeperTestSuite) TestCallResultAndFunds() {
	first := []byte(`{"contract":"` + echo.String() + `","msg":{"n":1},"funds":[{"denom":"stake","amount":"30"}]}`)
	// the second call forwards the result of the first one as its message
	secondPrefix := `{"contract":"` + echo.String() + `","msg":`
	second := []byte(secondPrefix + `}`)
	program := types.Program{Instructions: []types.Instruction{
		{Call: &types.Call{Payload: first}},
		{Call: &types.Call{
			Payload:  second,
			Bindings: []types.Binding{{Position: uint32(len(secondPrefix)), Value: types.BindingValue{Kind: types.BindingResult}}},
		}},
	}}

	interpreter, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 100)), "")
	suite.Require().NoError(err)
	suite.Require().Equal([]string{`{"n":1}`, `{"n":1}`}, suite.echo.msgs)
	suite.Require().Equal(int64(30), suite.balance("stake", echo))
	suite.Require().Equal(int64(70), suite.balance("stake", interpreter))
}

func (suite *KeeperTestSuite) TestFailingInstructionAbortsProgram() {
	program := types.Program{Instructions: []types.Instruction{
		transferTo(bob, stake, fixed(10)),
		{Call: &types.Call{Payload: []byte(`{"contract":"` + echo.String() + `","msg":{"fail":true}}`)}},
		transferTo(bob, stake, fixed(10)),
	}}

	cacheCtx, _ := suite.ctx.CacheContext()
	_, err := suite.keeper.ExecuteProgram(cacheCtx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 100)), "")
	suite.Require().ErrorIs(err, types.ErrCallFailed)
	suite.Require().Contains(err.Error(), "instruction 1 (call)")
	suite.Require().Empty(suite.echo.calls)
}

func (suite *KeeperTestSuite) TestSpawn() {
	child := types.Program{Instructions: []types.Instruction{{Call: &types.Call{Payload: []byte("{}")}}}}
	program := types.Program{Salt: []byte("s"), Instructions: []types.Instruction{{Spawn: &types.Spawn{
		Network: remoteNetwork,
		Salt:    []byte("child"),
		Funds: types.Funds{
			{ID: stake, Amount: fixed(30)},
			{ID: stake, Amount: types.Everything()},
		},
		Program: child,
	}}}}

	interpreter, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 100)), tip.String())
	suite.Require().NoError(err)
	suite.Require().Len(suite.transfer.sent, 2)

	childOrigin := suite.aliceOrigin("child")
	remoteInterpreter := mustBech32(remotePrefix, types.DeriveInterpreterAddress(types.DefaultInterpreterCodeID, childOrigin))
	remoteGateway := mustBech32(remotePrefix, types.GatewayAddress)

	first, last := suite.transfer.sent[0], suite.transfer.sent[1]
	suite.Require().Equal(remoteChannel, first.channel)
	suite.Require().Equal(interpreter, first.sender)
	suite.Require().Equal(remoteInterpreter, first.receiver)
	suite.Require().Empty(first.memo)
	suite.Require().Equal(int64(30), first.amount.Int64())

	suite.Require().Equal(remoteGateway, last.receiver)
	suite.Require().Equal(int64(70), last.amount.Int64())
	suite.Require().Equal(uint64(suite.ctx.BlockTime().Add(types.DefaultSpawnTimeout).UnixNano()), last.timeout)

	var memo types.SpawnMemo
	suite.Require().NoError(json.Unmarshal([]byte(last.memo), &memo))
	suite.Require().Equal(remoteGateway, memo.Wasm.Contract)
	privileged := memo.Wasm.Msg.ExecuteProgramPrivileged
	suite.Require().NotNil(privileged)
	suite.Require().Equal(childOrigin, privileged.Origin())
	suite.Require().Equal(suite.aliceOrigin("s"), privileged.SourceOrigin())
	suite.Require().Equal(tip.String(), privileged.Tip)
	decoded, err := types.DecodeProgram(privileged.Program)
	suite.Require().NoError(err)
	suite.Require().Equal(child.Instructions[0].Call.Payload, decoded.Instructions[0].Call.Payload)

	for i := range suite.transfer.sent {
		record, found := suite.keeper.GetSpawn(suite.ctx, remoteChannel, uint64(i+1))
		suite.Require().True(found)
		suite.Require().Equal(types.SpawnEmitted, record.Status)
		suite.Require().Equal(interpreter.String(), record.Interpreter)
	}
}

func (suite *KeeperTestSuite) TestSpawnFailures() {
	spawn := func(network types.NetworkID) types.Program {
		return types.Program{Instructions: []types.Instruction{{Spawn: &types.Spawn{
			Network: network,
			Funds:   types.Funds{{ID: stake, Amount: types.Everything()}},
			Program: types.Program{Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}},
		}}}}
	}
	assets := sdk.NewCoins(sdk.NewInt64Coin("stake", 10))

	cacheCtx, _ := suite.ctx.CacheContext()
	_, err := suite.keeper.ExecuteProgram(cacheCtx, alice, spawn(7), assets, "")
	suite.Require().ErrorIs(err, types.ErrUnknownNetwork)

	suite.transfer.fail = true
	cacheCtx, _ = suite.ctx.CacheContext()
	_, err = suite.keeper.ExecuteProgram(cacheCtx, alice, spawn(remoteNetwork), assets, "")
	suite.Require().Error(err)
	suite.Require().Empty(suite.transfer.sent)
}

func (suite *KeeperTestSuite) TestSpawnLifecycle() {
	program := types.Program{Instructions: []types.Instruction{{Spawn: &types.Spawn{
		Network: remoteNetwork,
		Funds:   types.Funds{{ID: stake, Amount: fixed(1)}},
		Program: types.Program{Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}},
	}}}}
	assets := sdk.NewCoins(sdk.NewInt64Coin("stake", 10))
	for i := 0; i < 3; i++ {
		_, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, assets, "")
		suite.Require().NoError(err)
	}

	packet := func(sequence uint64) channeltypes.Packet {
		return channeltypes.Packet{Sequence: sequence, SourcePort: "transfer", SourceChannel: remoteChannel}
	}
	data := transfertypes.FungibleTokenPacketData{}

	suite.Require().NoError(suite.keeper.AfterAcknowledgement(suite.ctx, packet(1), data, true))
	suite.Require().NoError(suite.keeper.AfterAcknowledgement(suite.ctx, packet(2), data, false))
	suite.Require().NoError(suite.keeper.AfterTimeout(suite.ctx, packet(3), data))
	// packets not emitted by a spawn are ignored
	suite.Require().NoError(suite.keeper.AfterTimeout(suite.ctx, packet(4), data))

	expected := []struct {
		status  types.SpawnStatus
		success bool
	}{
		{types.SpawnSettled, true},
		{types.SpawnSettled, false},
		{types.SpawnRefunded, false},
	}
	for i, exp := range expected {
		record, found := suite.keeper.GetSpawn(suite.ctx, remoteChannel, uint64(i+1))
		suite.Require().True(found)
		suite.Require().Equal(exp.status, record.Status)
		suite.Require().Equal(exp.success, record.Success)
		suite.Require().True(record.Final())
	}

	// a settled record is not advanced again
	suite.Require().NoError(suite.keeper.AfterTimeout(suite.ctx, packet(1), data))
	record, _ := suite.keeper.GetSpawn(suite.ctx, remoteChannel, 1)
	suite.Require().Equal(types.SpawnSettled, record.Status)
}

func (suite *KeeperTestSuite) TestPause() {
	program := types.Program{Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}}

	suite.keeper.SetPaused(suite.ctx, true)
	_, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, nil, "")
	suite.Require().ErrorIs(err, types.ErrPaused)

	suite.keeper.SetPaused(suite.ctx, false)
	_, err = suite.keeper.ExecuteProgram(suite.ctx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 1)), "")
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestRegistries() {
	info := types.NetworkInfo{
		ChannelID:      "channel-5",
		GatewayAddress: mustBech32("third", types.GatewayAddress),
		Prefix:         "third",
	}
	suite.Require().NoError(suite.keeper.RegisterNetwork(suite.ctx, 3, info))
	network, found := suite.keeper.GetChannelNetwork(suite.ctx, "channel-5")
	suite.Require().True(found)
	suite.Require().Equal(types.NetworkID(3), network)

	suite.Require().ErrorIs(suite.keeper.RegisterNetwork(suite.ctx, 3, info), types.ErrNetworkExists)
	suite.Require().ErrorIs(suite.keeper.RegisterNetwork(suite.ctx, 4, info), types.ErrNetworkExists)
	suite.Require().ErrorIs(suite.keeper.RegisterNetwork(suite.ctx, 1, info), types.ErrInvalidParams)

	asset := types.AssetInfo{ID: 3, Denom: "uatom", ExistentialDeposit: sdk.ZeroInt()}
	suite.Require().NoError(suite.keeper.RegisterAsset(suite.ctx, asset))
	id, found := suite.keeper.GetDenomAsset(suite.ctx, "uatom")
	suite.Require().True(found)
	suite.Require().Equal(types.AssetID(3), id)

	// both sides of the asset mapping are unique
	suite.Require().ErrorIs(suite.keeper.RegisterAsset(suite.ctx, types.AssetInfo{ID: 3, Denom: "uosmo"}), types.ErrAssetExists)
	suite.Require().ErrorIs(suite.keeper.RegisterAsset(suite.ctx, types.AssetInfo{ID: 4, Denom: "uatom"}), types.ErrAssetExists)
}

func (suite *KeeperTestSuite) TestGenesis() {
	program := types.Program{Instructions: []types.Instruction{{Spawn: &types.Spawn{
		Network: remoteNetwork,
		Funds:   types.Funds{{ID: stake, Amount: fixed(1)}},
		Program: types.Program{Instructions: []types.Instruction{transferTo(bob, stake, fixed(1))}},
	}}}}
	_, err := suite.keeper.ExecuteProgram(suite.ctx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", 1)), "")
	suite.Require().NoError(err)

	exported := suite.keeper.ExportGenesis(suite.ctx)
	suite.Require().NoError(exported.Validate())
	suite.Require().Len(exported.Networks, 1)
	suite.Require().Len(exported.Assets, 2)
	suite.Require().Len(exported.Interpreters, 1)
	suite.Require().Len(exported.Spawns, 1)

	// a fresh chain started from the export holds the same state
	cvmKey := sdk.NewKVStoreKey(types.StoreKey)
	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(cvmKey, sdk.StoreTypeIAVL, nil)
	suite.Require().NoError(cms.LoadLatestVersion())
	ctx := sdk.NewContext(cms, tmproto.Header{}, false, log.NewNopLogger())

	imported := keeper.NewKeeper(cvmKey, suite.fungibles, suite.transfer, suite.contracts)
	imported.InitGenesis(ctx, *exported)
	suite.Require().Equal(exported, imported.ExportGenesis(ctx))

	// registries are one to one
	suite.Require().Panics(func() { imported.InitGenesis(ctx, *exported) })
}
