package keeper_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/ComposableFi/centauri/modules/apps/contracts/keeper"
	"github.com/ComposableFi/centauri/modules/apps/contracts/types"
	fungibleskeeper "github.com/ComposableFi/centauri/modules/apps/fungibles/keeper"
	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
)

var (
	alice   = sdk.AccAddress([]byte("alice_______________"))
	counter = sdk.AccAddress([]byte("counter_contract____"))
)

// counterContract counts executions and echoes the funds it received.
type counterContract struct {
	calls int
	last  types.Env
}

func (c *counterContract) Execute(_ sdk.Context, env types.Env, msg []byte) ([]byte, error) {
	var req struct {
		Fail bool `json:"fail"`
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return nil, err
	}
	if req.Fail {
		return nil, errors.New("requested failure")
	}
	c.calls++
	c.last = env
	return []byte(env.Funds.String()), nil
}

type KeeperTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	keeper    *keeper.Keeper
	fungibles fungibleskeeper.Keeper
	counter   *counterContract
}

func (suite *KeeperTestSuite) SetupTest() {
	key := sdk.NewKVStoreKey(fungiblestypes.StoreKey)
	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(key, sdk.StoreTypeIAVL, nil)
	suite.Require().NoError(cms.LoadLatestVersion())
	suite.ctx = sdk.NewContext(cms, tmproto.Header{}, false, log.NewNopLogger())

	suite.fungibles = fungibleskeeper.NewKeeper(key)
	suite.counter = &counterContract{}
	suite.keeper = keeper.NewKeeper(suite.fungibles)
	suite.keeper.RegisterContract(counter, suite.counter)
	suite.keeper.Seal()
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) TestRegisterContract() {
	suite.Require().True(suite.keeper.HasContract(counter))
	suite.Require().False(suite.keeper.HasContract(alice))
	suite.Require().Equal([]string{counter.String()}, suite.keeper.Contracts())

	suite.Require().Panics(func() {
		suite.keeper.RegisterContract(alice, suite.counter)
	})

	unsealed := keeper.NewKeeper(suite.fungibles)
	unsealed.RegisterContract(counter, suite.counter)
	suite.Require().Panics(func() {
		unsealed.RegisterContract(counter, suite.counter)
	})
}

func (suite *KeeperTestSuite) TestExecute() {
	var (
		msg   []byte
		funds sdk.Coins
		to    sdk.AccAddress
	)

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{"success without funds", func() {}, nil},
		{"success with funds", func() {
			funds = sdk.NewCoins(sdk.NewInt64Coin("ppica", 40))
		}, nil},
		{"unknown contract", func() {
			to = alice
		}, types.ErrContractNotFound},
		{"message is not JSON", func() {
			msg = []byte("{")
		}, types.ErrInvalidContractMsg},
		{"insufficient funds", func() {
			funds = sdk.NewCoins(sdk.NewInt64Coin("ppica", 1000))
		}, fungiblestypes.ErrInsufficientFunds},
		{"contract failure", func() {
			msg = []byte(`{"fail":true}`)
		}, types.ErrCallFailed},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))

			msg = []byte(`{}`)
			funds = sdk.NewCoins()
			to = counter

			tc.malleate()

			result, err := suite.keeper.Execute(suite.ctx, to, alice, msg, funds)
			if tc.expErr != nil {
				suite.Require().ErrorIs(err, tc.expErr)
				suite.Require().Equal(0, suite.counter.calls)
				return
			}

			suite.Require().NoError(err)
			suite.Require().Equal(1, suite.counter.calls)
			suite.Require().Equal(funds.String(), string(result))
			suite.Require().Equal(alice, suite.counter.last.Sender)
			suite.Require().Equal(counter, suite.counter.last.Contract)
			suite.Require().Equal(sdk.NewInt(100).Sub(funds.AmountOf("ppica")).String(), suite.fungibles.Balance(suite.ctx, "ppica", alice).String())
			suite.Require().Equal(funds.AmountOf("ppica").String(), suite.fungibles.Balance(suite.ctx, "ppica", counter).String())
		})
	}
}

func (suite *KeeperTestSuite) TestContractFunc() {
	k := keeper.NewKeeper(suite.fungibles)
	k.RegisterContract(alice, types.ContractFunc(func(_ sdk.Context, env types.Env, _ []byte) ([]byte, error) {
		return env.Sender, nil
	}))

	result, err := k.Execute(suite.ctx, alice, counter, []byte(`"ping"`), nil)
	suite.Require().NoError(err)
	suite.Require().Equal([]byte(counter), result)
}
