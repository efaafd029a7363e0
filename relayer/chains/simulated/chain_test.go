package simulated_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
	"github.com/ComposableFi/centauri/relayer"
	"github.com/ComposableFi/centauri/relayer/chains/simulated"
)

func newChains(t *testing.T, clientType string) (*simulated.Chain, *simulated.Chain) {
	cfgA := simulated.DefaultConfig("centauri-a", 2000)
	cfgA.ClientType = clientType
	a, err := simulated.NewChain(cfgA, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	cfgB := simulated.DefaultConfig("centauri-b", 2001)
	cfgB.ClientType = clientType
	b, err := simulated.NewChain(cfgB, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, b.Close()) })

	require.NoError(t, simulated.Connect(a, b))
	return a, b
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name     string
		malleate func(cfg *simulated.Config)
		expPass  bool
	}{
		{"default", func(*simulated.Config) {}, true},
		{"beefy", func(cfg *simulated.Config) { cfg.ClientType = simulated.ClientTypeBeefy }, true},
		{"empty chain id", func(cfg *simulated.Config) { cfg.ChainID = "" }, false},
		{"unknown client type", func(cfg *simulated.Config) { cfg.ClientType = "tendermint" }, false},
		{"no accounts", func(cfg *simulated.Config) { cfg.Accounts = 0 }, false},
		{"zero block time", func(cfg *simulated.Config) { cfg.BlockTime = 0 }, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := simulated.DefaultConfig("centauri-a", 2000)
			tc.malleate(&cfg)

			err := cfg.Validate()
			if tc.expPass {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestQueryLatestIBCEvents(t *testing.T) {
	ctx := context.Background()
	a, b := newChains(t, simulated.ClientTypeGrandpa)

	// the client of b tracks the latest block of a
	update, events, kind, err := a.QueryLatestIBCEvents(ctx, relayer.FinalityEvent{}, b)
	require.NoError(t, err)
	require.Nil(t, update.Msg)
	require.Empty(t, events)
	require.Equal(t, relayer.UpdateOptional, kind)

	connectionID, err := a.InitConnection(b)
	require.NoError(t, err)

	update, events, kind, err = a.QueryLatestIBCEvents(ctx, relayer.FinalityEvent{}, b)
	require.NoError(t, err)
	require.NotNil(t, update.Msg)
	require.Equal(t, relayer.UpdateOptional, kind)
	require.Len(t, events, 1)

	init, ok := events[0].(relayer.EventConnectionOpenInit)
	require.True(t, ok)
	require.Equal(t, connectionID, init.ConnectionID)
	require.Equal(t, a.ClientID(), init.ClientID)
	require.Equal(t, b.ClientID(), init.CounterpartyClientID)

	latest, timestamp, err := a.QueryLatestHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, latest, update.Height)
	require.Equal(t, timestamp, update.Timestamp)

	// events are not returned once the client tracks their block
	require.NoError(t, b.SubmitIBCMessages(ctx, []exported.Msg{update.Msg}))
	update, events, _, err = a.QueryLatestIBCEvents(ctx, relayer.FinalityEvent{}, b)
	require.NoError(t, err)
	require.Nil(t, update.Msg)
	require.Empty(t, events)
}

func TestQueryLatestIBCEventsAuthorityChange(t *testing.T) {
	ctx := context.Background()
	a, b := newChains(t, simulated.ClientTypeGrandpa)

	clientState, err := b.QueryClientState(ctx, b.ClientID())
	require.NoError(t, err)
	setID := clientState.(*grandpatypes.ClientState).CurrentSetID

	a.ScheduleAuthorityChange("rotated")
	for i := 0; i < 3; i++ {
		require.NoError(t, a.ProduceBlock())
	}

	// the update stops at the block enacting the change
	update, _, kind, err := a.QueryLatestIBCEvents(ctx, relayer.FinalityEvent{}, b)
	require.NoError(t, err)
	require.Equal(t, relayer.UpdateMandatory, kind)
	require.NotNil(t, update.Msg)

	latest, _, err := a.QueryLatestHeight(ctx)
	require.NoError(t, err)
	require.True(t, update.Height.LT(latest))
	require.NoError(t, b.SubmitIBCMessages(ctx, []exported.Msg{update.Msg}))

	clientState, err = b.QueryClientState(ctx, b.ClientID())
	require.NoError(t, err)
	require.Equal(t, setID+1, clientState.(*grandpatypes.ClientState).CurrentSetID)

	// the rotated set finalizes the remaining blocks
	update, _, kind, err = a.QueryLatestIBCEvents(ctx, relayer.FinalityEvent{}, b)
	require.NoError(t, err)
	require.Equal(t, relayer.UpdateOptional, kind)
	require.NotNil(t, update.Msg)
	require.NoError(t, b.SubmitIBCMessages(ctx, []exported.Msg{update.Msg}))

	clientState, err = b.QueryClientState(ctx, b.ClientID())
	require.NoError(t, err)
	require.Equal(t, clientState.GetLatestHeight(), update.Height)
}

func TestQueryLatestIBCEventsBeefy(t *testing.T) {
	ctx := context.Background()
	a, b := newChains(t, simulated.ClientTypeBeefy)

	require.NoError(t, a.ProduceBlock())
	update, _, kind, err := a.QueryLatestIBCEvents(ctx, relayer.FinalityEvent{}, b)
	require.NoError(t, err)
	require.Equal(t, relayer.UpdateOptional, kind)
	require.NotNil(t, update.Msg)
	require.NoError(t, b.SubmitIBCMessages(ctx, []exported.Msg{update.Msg}))

	clientState, err := b.QueryClientState(ctx, b.ClientID())
	require.NoError(t, err)
	require.Equal(t, exported.Beefy, clientState.ClientType())
	require.Equal(t, update.Height, clientState.GetLatestHeight())
}

func TestFinalityNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a, b := newChains(t, simulated.ClientTypeGrandpa)

	finality, err := a.FinalityNotifications(ctx)
	require.NoError(t, err)

	_, err = a.InitConnection(b)
	require.NoError(t, err)

	event := <-finality
	latest, timestamp, err := a.QueryLatestHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, latest, event.Height)
	require.Equal(t, timestamp, event.Timestamp)

	connection, err := a.QueryConnection(ctx, "connection-0")
	require.NoError(t, err)
	require.Equal(t, connectiontypes.INIT, connection.State)

	cancel()
	for range finality {
	}
}
