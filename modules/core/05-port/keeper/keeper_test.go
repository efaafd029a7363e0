package keeper_test

import (
	"testing"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	capabilitykeeper "github.com/ComposableFi/centauri/modules/capability/keeper"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	"github.com/ComposableFi/centauri/modules/core/05-port/keeper"
	"github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

var (
	validPort   = "validportid"
	invalidPort = "(invalidPortID)"
)

type KeeperTestSuite struct {
	suite.Suite

	ctx       sdk.Context
	keeper    *keeper.Keeper
	scopedApp capabilitykeeper.ScopedKeeper
}

func (suite *KeeperTestSuite) SetupTest() {
	memKey := sdk.NewMemoryStoreKeys(capabilitytypes.MemStoreKey)[capabilitytypes.MemStoreKey]

	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(memKey, sdk.StoreTypeMemory, nil)
	suite.Require().NoError(cms.LoadLatestVersion())

	suite.ctx = sdk.NewContext(cms, tmproto.Header{}, false, log.NewNopLogger())

	capabilityKeeper := capabilitykeeper.NewKeeper(memKey)
	portKeeper := keeper.NewKeeper(capabilityKeeper.ScopeToModule(host.ModuleName))
	suite.keeper = &portKeeper
	suite.scopedApp = capabilityKeeper.ScopeToModule("app")
	capabilityKeeper.Seal()
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) TestBind() {
	// Test that invalid portID causes panic
	require.Panics(suite.T(), func() { suite.keeper.BindPort(suite.ctx, invalidPort) }, "Did not panic on invalid portID")

	// Test that valid BindPort returns capability key
	capKey := suite.keeper.BindPort(suite.ctx, validPort)
	require.NotNil(suite.T(), capKey, "capabilityKey is nil on valid BindPort")

	isBound := suite.keeper.IsBound(suite.ctx, validPort)
	require.True(suite.T(), isBound, "port is bound successfully")

	isNotBound := suite.keeper.IsBound(suite.ctx, "not-a-port")
	require.False(suite.T(), isNotBound, "port is not bound")

	// Test that rebinding the same portid causes panic
	require.Panics(suite.T(), func() { suite.keeper.BindPort(suite.ctx, validPort) }, "did not panic on re-binding the same port")
}

func (suite *KeeperTestSuite) TestAuthenticate() {
	capKey := suite.keeper.BindPort(suite.ctx, validPort)

	// Require that passing in invalid portID causes panic
	require.Panics(suite.T(), func() { suite.keeper.Authenticate(suite.ctx, capKey, invalidPort) }, "did not panic on invalid portID")

	// Valid authentication should return true
	auth := suite.keeper.Authenticate(suite.ctx, capKey, validPort)
	require.True(suite.T(), auth, "valid authentication failed")

	// Test that authenticating against incorrect portid fails
	auth = suite.keeper.Authenticate(suite.ctx, capKey, "wrongportid")
	require.False(suite.T(), auth, "invalid authentication failed")

	// Test that authenticating port against different valid
	// capability key fails
	capKey2 := suite.keeper.BindPort(suite.ctx, "otherportid")
	auth = suite.keeper.Authenticate(suite.ctx, capKey2, validPort)
	require.False(suite.T(), auth, "invalid authentication for different capKey failed")

	// a forged capability with the same index is not the bound capability
	forged := capabilitytypes.NewCapability(capKey.GetIndex())
	require.False(suite.T(), suite.keeper.Authenticate(suite.ctx, forged, validPort))
}

func (suite *KeeperTestSuite) TestClaimedPortCapability() {
	capKey := suite.keeper.BindPort(suite.ctx, validPort)
	suite.Require().NoError(suite.scopedApp.ClaimCapability(suite.ctx, capKey, host.PortPath(validPort)))

	claimed, ok := suite.scopedApp.GetCapability(suite.ctx, host.PortPath(validPort))
	suite.Require().True(ok)
	suite.Require().True(suite.keeper.Authenticate(suite.ctx, claimed, validPort))

	got, err := suite.keeper.GetCapability(suite.ctx, validPort)
	suite.Require().NoError(err)
	suite.Require().True(got == claimed)

	_, err = suite.keeper.GetCapability(suite.ctx, "unbound")
	suite.Require().ErrorIs(err, types.ErrPortNotFound)
}
