package ratelimiting_test

import (
	"testing"
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	ratelimiting "github.com/ComposableFi/centauri/modules/apps/rate-limiting"
	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/keeper"
	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// recordingApp acknowledges every packet successfully and counts callbacks.
type recordingApp struct {
	porttypes.IBCModule
	received, acked, timedOut int
}

func (a *recordingApp) OnRecvPacket(sdk.Context, channeltypes.Packet, sdk.AccAddress) exported.Acknowledgement {
	a.received++
	return channeltypes.NewResultAcknowledgement([]byte{1})
}

func (a *recordingApp) OnAcknowledgementPacket(sdk.Context, channeltypes.Packet, []byte, sdk.AccAddress) error {
	a.acked++
	return nil
}

func (a *recordingApp) OnTimeoutPacket(sdk.Context, channeltypes.Packet, sdk.AccAddress) error {
	a.timedOut++
	return nil
}

type sequencer struct{ next uint64 }

func (s *sequencer) GetNextSequenceSend(sdk.Context, string, string) (uint64, bool) {
	return s.next, true
}

func (s *sequencer) SendPacket(
	sdk.Context, *capabilitytypes.Capability, string, string, clienttypes.Height, uint64, []byte,
) (uint64, error) {
	seq := s.next
	s.next++
	return seq, nil
}

func (s *sequencer) WriteAcknowledgement(sdk.Context, *capabilitytypes.Capability, exported.PacketI, exported.Acknowledgement) error {
	return nil
}

func (s *sequencer) GetAppVersion(sdk.Context, string, string) (string, bool) {
	return transfertypes.Version, true
}

func setupMiddleware(t *testing.T) (sdk.Context, ratelimiting.IBCMiddleware, *recordingApp, *keeper.Keeper) {
	key := sdk.NewKVStoreKey(types.StoreKey)
	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(key, sdk.StoreTypeIAVL, nil)
	require.NoError(t, cms.LoadLatestVersion())
	ctx := sdk.NewContext(cms, tmproto.Header{Time: time.Unix(1_650_000_000, 0)}, false, log.NewNopLogger())

	seq := &sequencer{next: 1}
	k := keeper.NewKeeper(key, seq, seq)
	k.InitGenesis(ctx, types.GenesisState{
		Params: types.NewParams(time.Hour, types.NewCap("USDT", sdk.NewInt(100), sdk.NewInt(100))),
	})

	app := &recordingApp{}
	return ctx, ratelimiting.NewIBCMiddleware(app, k), app, k
}

func transferData(denom string, amount int64) []byte {
	return transfertypes.NewFungibleTokenPacketData(denom, sdk.NewInt(amount).String(), "alice", "bob", "").GetBytes()
}

func TestOnRecvPacketRateLimited(t *testing.T) {
	ctx, middleware, app, _ := setupMiddleware(t)

	packet := channeltypes.NewPacket(
		transferData("transfer/channel-5/USDT", 60), 1, "transfer", "channel-5", "transfer", "channel-0",
		clienttypes.NewHeight(0, 10), 0,
	)

	ack := middleware.OnRecvPacket(ctx, packet, nil)
	require.True(t, ack.Success())
	require.Equal(t, 1, app.received)

	packet.Sequence = 2
	ack = middleware.OnRecvPacket(ctx, packet, nil)
	require.False(t, ack.Success())
	require.Equal(t, 1, app.received, "rate limited packet must not reach the application")
}

func TestSendPacketAndTimeout(t *testing.T) {
	ctx, middleware, app, k := setupMiddleware(t)
	timeout := clienttypes.NewHeight(0, 10)

	seq, err := middleware.SendPacket(ctx, nil, "transfer", "channel-0", timeout, 0, transferData("USDT", 100))
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	_, err = middleware.SendPacket(ctx, nil, "transfer", "channel-0", timeout, 0, transferData("USDT", 1))
	require.ErrorIs(t, err, types.ErrQuotaExceeded)

	packet := channeltypes.NewPacket(transferData("USDT", 100), seq, "transfer", "channel-0", "transfer", "channel-5", timeout, 0)
	require.NoError(t, middleware.OnTimeoutPacket(ctx, packet, nil))
	require.Equal(t, 1, app.timedOut)

	flow, found := k.GetFlow(ctx, "USDT")
	require.True(t, found)
	require.True(t, flow.Outflow.IsZero())

	_, err = middleware.SendPacket(ctx, nil, "transfer", "channel-0", timeout, 0, transferData("USDT", 100))
	require.NoError(t, err)
}

func TestOnAcknowledgementPacketFailure(t *testing.T) {
	ctx, middleware, app, k := setupMiddleware(t)
	timeout := clienttypes.NewHeight(0, 10)

	seq, err := middleware.SendPacket(ctx, nil, "transfer", "channel-0", timeout, 0, transferData("USDT", 40))
	require.NoError(t, err)

	packet := channeltypes.NewPacket(transferData("USDT", 40), seq, "transfer", "channel-0", "transfer", "channel-5", timeout, 0)
	ack := channeltypes.NewErrorAcknowledgement(transfertypes.ErrReceiveDisabled)
	require.NoError(t, middleware.OnAcknowledgementPacket(ctx, packet, ack.Acknowledgement(), nil))
	require.Equal(t, 1, app.acked)

	flow, _ := k.GetFlow(ctx, "USDT")
	require.True(t, flow.Outflow.IsZero())
}
