package simapp_test

import (
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/secp256k1"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	cvmtypes "github.com/ComposableFi/centauri/modules/apps/cvm/types"
	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
	hookstypes "github.com/ComposableFi/centauri/modules/apps/hooks/types"
	ratelimittypes "github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/simapp"
)

func init() {
	simapp.SetAddressPrefixes()
}

func TestInitChain(t *testing.T) {
	app := simapp.NewCentauriApp(log.NewNopLogger(), dbm.NewMemDB())

	account := sdk.AccAddress(secp256k1.GenPrivKey().PubKey().Address())
	genesis := simapp.NewDefaultGenesisState()
	genesis.Balances = []simapp.Balance{{
		Address: account.String(),
		Coins:   sdk.NewCoins(sdk.NewInt64Coin("ppica", 1_000_000)),
	}}

	app.InitChain(tmproto.Header{ChainID: "centauri-1", Height: 1, Time: time.Unix(1_650_000_000, 0)}, genesis)
	commitID := app.Commit()
	require.Equal(t, int64(1), commitID.Version)
	require.Equal(t, commitID, app.LastCommitID())
	require.NotEmpty(t, commitID.Hash)

	app.BeginBlock(tmproto.Header{ChainID: "centauri-1", Height: 2, Time: time.Unix(1_650_000_005, 0)})
	ctx := app.Context()

	require.Equal(t, sdk.NewInt(1_000_000), app.FungiblesKeeper.Balance(ctx, "ppica", account))
	require.True(t, app.TransferKeeper.IsBound(ctx, transfertypes.PortID))
	require.Equal(t, cvmtypes.DefaultParams(), app.CVMKeeper.GetParams(ctx))
}

func TestStoreKeys(t *testing.T) {
	var app *simapp.CentauriApp
	require.NotPanics(t, func() { app = simapp.NewCentauriApp(log.NewNopLogger(), dbm.NewMemDB()) })

	for _, name := range []string{
		host.StoreKey, fungiblestypes.StoreKey, transfertypes.StoreKey,
		ratelimittypes.StoreKey, hookstypes.StoreKey, cvmtypes.StoreKey,
	} {
		require.NotNil(t, app.GetKey(name), name)
	}
}

func TestContextWithoutBlock(t *testing.T) {
	app := simapp.NewCentauriApp(log.NewNopLogger(), dbm.NewMemDB())
	require.Panics(t, func() { app.Context() })
}

func TestInvalidGenesis(t *testing.T) {
	app := simapp.NewCentauriApp(log.NewNopLogger(), dbm.NewMemDB())

	genesis := simapp.NewDefaultGenesisState()
	genesis.Balances = []simapp.Balance{{Address: "not-an-address", Coins: sdk.NewCoins(sdk.NewInt64Coin("ppica", 1))}}
	require.Panics(t, func() { app.InitChain(tmproto.Header{Height: 1}, genesis) })
}

func TestGenesisJSON(t *testing.T) {
	genesis := simapp.NewDefaultGenesisState()
	require.NoError(t, genesis.Validate())
	require.Contains(t, string(genesis.MustMarshalJSON()), `"rate_limit"`)
}
