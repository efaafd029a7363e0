package keeper_test

import (
	"testing"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/ComposableFi/centauri/modules/capability/keeper"
	"github.com/ComposableFi/centauri/modules/capability/types"
)

type KeeperTestSuite struct {
	suite.Suite

	ctx    sdk.Context
	keeper *keeper.Keeper
}

func (suite *KeeperTestSuite) SetupTest() {
	memKey := sdk.NewMemoryStoreKeys(types.MemStoreKey)[types.MemStoreKey]

	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(memKey, sdk.StoreTypeMemory, nil)
	suite.Require().NoError(cms.LoadLatestVersion())

	suite.ctx = sdk.NewContext(cms, tmproto.Header{}, false, log.NewNopLogger())
	suite.keeper = keeper.NewKeeper(memKey)
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) TestScopeToModule() {
	suite.keeper.ScopeToModule("ibc")
	suite.Require().Panics(func() { suite.keeper.ScopeToModule("ibc") })
	suite.Require().Panics(func() { suite.keeper.ScopeToModule(" ") })

	suite.keeper.Seal()
	suite.Require().True(suite.keeper.IsSealed())
	suite.Require().Panics(func() { suite.keeper.ScopeToModule("transfer") })
	suite.Require().Panics(func() { suite.keeper.Seal() })
}

func (suite *KeeperTestSuite) TestNewCapability() {
	sk := suite.keeper.ScopeToModule("ibc")

	cap, err := sk.NewCapability(suite.ctx, "ports/transfer")
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1), cap.GetIndex())

	got, ok := sk.GetCapability(suite.ctx, "ports/transfer")
	suite.Require().True(ok)
	suite.Require().True(got == cap, "capability must be returned by reference")

	_, err = sk.NewCapability(suite.ctx, "ports/transfer")
	suite.Require().ErrorIs(err, types.ErrCapabilityTaken)

	second, err := sk.NewCapability(suite.ctx, "ports/cvm")
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2), second.GetIndex())

	_, err = sk.NewCapability(suite.ctx, "")
	suite.Require().ErrorIs(err, types.ErrInvalidCapabilityName)
}

func (suite *KeeperTestSuite) TestAuthenticateCapability() {
	ibcKeeper := suite.keeper.ScopeToModule("ibc")
	transferKeeper := suite.keeper.ScopeToModule("transfer")

	cap, err := ibcKeeper.NewCapability(suite.ctx, "ports/transfer")
	suite.Require().NoError(err)

	suite.Require().True(ibcKeeper.AuthenticateCapability(suite.ctx, cap, "ports/transfer"))
	suite.Require().False(ibcKeeper.AuthenticateCapability(suite.ctx, cap, "ports/cvm"))
	suite.Require().False(ibcKeeper.AuthenticateCapability(suite.ctx, nil, "ports/transfer"))

	// a forged capability with the same index is a different object
	forged := types.NewCapability(cap.GetIndex())
	suite.Require().False(ibcKeeper.AuthenticateCapability(suite.ctx, forged, "ports/transfer"))

	// transfer does not own the capability until it claims it
	suite.Require().False(transferKeeper.AuthenticateCapability(suite.ctx, cap, "ports/transfer"))
	suite.Require().NoError(transferKeeper.ClaimCapability(suite.ctx, cap, "ports/transfer"))
	suite.Require().True(transferKeeper.AuthenticateCapability(suite.ctx, cap, "ports/transfer"))
	suite.Require().ErrorIs(transferKeeper.ClaimCapability(suite.ctx, cap, "ports/transfer"), types.ErrOwnerClaimed)
	suite.Require().ErrorIs(transferKeeper.ClaimCapability(suite.ctx, forged, "ports/other"), types.ErrCapabilityNotFound)

	suite.Require().NoError(transferKeeper.ReleaseCapability(suite.ctx, cap))
	suite.Require().False(transferKeeper.AuthenticateCapability(suite.ctx, cap, "ports/transfer"))
	suite.Require().True(ibcKeeper.AuthenticateCapability(suite.ctx, cap, "ports/transfer"))
}

func (suite *KeeperTestSuite) TestCapabilityRevertedWithCacheContext() {
	sk := suite.keeper.ScopeToModule("ibc")

	cacheCtx, _ := suite.ctx.CacheContext()
	_, err := sk.NewCapability(cacheCtx, "ports/transfer")
	suite.Require().NoError(err)

	// the cache context was never written back
	_, ok := sk.GetCapability(suite.ctx, "ports/transfer")
	suite.Require().False(ok)

	_, err = sk.NewCapability(suite.ctx, "ports/transfer")
	suite.Require().NoError(err)
}
