package hooks_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/suite"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	contractskeeper "github.com/ComposableFi/centauri/modules/apps/contracts/keeper"
	contractstypes "github.com/ComposableFi/centauri/modules/apps/contracts/types"
	fungibleskeeper "github.com/ComposableFi/centauri/modules/apps/fungibles/keeper"
	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
	"github.com/ComposableFi/centauri/modules/apps/hooks"
	"github.com/ComposableFi/centauri/modules/apps/hooks/keeper"
	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
	"github.com/ComposableFi/centauri/modules/apps/transfer"
	transferkeeper "github.com/ComposableFi/centauri/modules/apps/transfer/keeper"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	capabilitykeeper "github.com/ComposableFi/centauri/modules/capability/keeper"
	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	portkeeper "github.com/ComposableFi/centauri/modules/core/05-port/keeper"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

const (
	// packets arrive from the counterparty channel-7 on channel-0
	inboundChannel             = "channel-0"
	inboundCounterpartyChannel = "channel-7"
	// forwards leave on channel-1 towards the counterparty channel-9
	outboundChannel             = "channel-1"
	outboundCounterpartyChannel = "channel-9"

	remoteSender = "osmo1remotesender"
)

var (
	alice    = sdk.AccAddress([]byte("alice_______________"))
	contract = sdk.AccAddress([]byte("swap_contract_______"))
	relayer  = sdk.AccAddress([]byte("relayer_____________"))
)

type writtenAck struct {
	packet exported.PacketI
	ack    exported.Acknowledgement
}

// mockICS4Wrapper stands in for the channel keeper.
type mockICS4Wrapper struct {
	portKeeper portkeeper.Keeper
	sent       []channeltypes.Packet
	acks       []writtenAck
}

func (w *mockICS4Wrapper) SendPacket(
	ctx sdk.Context, portCap *capabilitytypes.Capability, sourcePort, sourceChannel string,
	timeoutHeight clienttypes.Height, timeoutTimestamp uint64, data []byte,
) (uint64, error) {
	if !w.portKeeper.Authenticate(ctx, portCap, sourcePort) {
		return 0, channeltypes.ErrPortCapabilityNotFound
	}
	sequence := uint64(len(w.sent) + 1)
	w.sent = append(w.sent, channeltypes.NewPacket(
		data, sequence, sourcePort, sourceChannel, transfertypes.PortID, counterpartyOf(sourceChannel), timeoutHeight, timeoutTimestamp,
	))
	return sequence, nil
}

func (w *mockICS4Wrapper) WriteAcknowledgement(ctx sdk.Context, portCap *capabilitytypes.Capability, packet exported.PacketI, ack exported.Acknowledgement) error {
	if !w.portKeeper.Authenticate(ctx, portCap, packet.GetDestPort()) {
		return channeltypes.ErrPortCapabilityNotFound
	}
	w.acks = append(w.acks, writtenAck{packet: packet, ack: ack})
	return nil
}

func (w *mockICS4Wrapper) GetAppVersion(sdk.Context, string, string) (string, bool) {
	return transfertypes.Version, true
}

type mockChannelKeeper struct{}

func (mockChannelKeeper) GetChannel(_ sdk.Context, _, channelID string) (channeltypes.Channel, bool) {
	if channelID != inboundChannel && channelID != outboundChannel {
		return channeltypes.Channel{}, false
	}
	return channeltypes.NewChannel(
		channeltypes.OPEN, channeltypes.UNORDERED,
		channeltypes.NewCounterparty(transfertypes.PortID, counterpartyOf(channelID)), []string{"connection-0"}, transfertypes.Version,
	), true
}

func (mockChannelKeeper) GetNextSequenceSend(sdk.Context, string, string) (uint64, bool) {
	return 1, true
}

func counterpartyOf(channelID string) string {
	if channelID == outboundChannel {
		return outboundCounterpartyChannel
	}
	return inboundCounterpartyChannel
}

// recordingContract remembers its calls and fails when asked to.
type recordingContract struct {
	calls []contractstypes.Env
	msgs  [][]byte
}

func (c *recordingContract) Execute(_ sdk.Context, env contractstypes.Env, msg []byte) ([]byte, error) {
	var req struct {
		Fail bool `json:"fail"`
	}
	_ = json.Unmarshal(msg, &req)
	if req.Fail {
		return nil, errors.New("swap failed")
	}
	c.calls = append(c.calls, env)
	c.msgs = append(c.msgs, msg)
	return []byte(`{"swapped":true}`), nil
}

type HooksTestSuite struct {
	suite.Suite

	ctx        sdk.Context
	fungibles  fungibleskeeper.Keeper
	transfer   *transferkeeper.Keeper
	keeper     *keeper.Keeper
	ics4       *mockICS4Wrapper
	contract   *recordingContract
	middleware hooks.IBCMiddleware
}

func (suite *HooksTestSuite) SetupTest() {
	transferKey := sdk.NewKVStoreKey(transfertypes.StoreKey)
	fungiblesKey := sdk.NewKVStoreKey(fungiblestypes.StoreKey)
	hooksKey := sdk.NewKVStoreKey(types.StoreKey)
	memKey := sdk.NewMemoryStoreKeys(capabilitytypes.MemStoreKey)[capabilitytypes.MemStoreKey]

	cms := store.NewCommitMultiStore(dbm.NewMemDB())
	cms.MountStoreWithDB(transferKey, sdk.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(fungiblesKey, sdk.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(hooksKey, sdk.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(memKey, sdk.StoreTypeMemory, nil)
	suite.Require().NoError(cms.LoadLatestVersion())

	suite.ctx = sdk.NewContext(cms, tmproto.Header{Time: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)}, false, log.NewNopLogger())

	capabilityKeeper := capabilitykeeper.NewKeeper(memKey)
	portKeeper := portkeeper.NewKeeper(capabilityKeeper.ScopeToModule("ibc"))
	scopedTransfer := capabilityKeeper.ScopeToModule(transfertypes.ModuleName)

	suite.fungibles = fungibleskeeper.NewKeeper(fungiblesKey)
	suite.ics4 = &mockICS4Wrapper{portKeeper: portKeeper}
	suite.transfer = transferkeeper.NewKeeper(transferKey, suite.ics4, mockChannelKeeper{}, &portKeeper, suite.fungibles, scopedTransfer)
	suite.transfer.InitGenesis(suite.ctx, *transfertypes.DefaultGenesisState())

	contracts := contractskeeper.NewKeeper(suite.fungibles)
	suite.contract = &recordingContract{}
	contracts.RegisterContract(contract, suite.contract)
	contracts.Seal()

	suite.keeper = keeper.NewKeeper(hooksKey, suite.transfer, contracts, suite.ics4)
	suite.transfer.SetHooks(suite.keeper)
	suite.middleware = hooks.NewIBCMiddleware(transfer.NewIBCModule(suite.transfer), suite.keeper)
}

func TestHooksTestSuite(t *testing.T) {
	suite.Run(t, new(HooksTestSuite))
}

// recv delivers packet the way core does: state changes are discarded on an
// error acknowledgement.
func (suite *HooksTestSuite) recv(packet channeltypes.Packet) exported.Acknowledgement {
	cacheCtx, writeFn := suite.ctx.CacheContext()
	ack := suite.middleware.OnRecvPacket(cacheCtx, packet, relayer)
	if ack == nil || ack.Success() {
		writeFn()
	}
	return ack
}

func inboundPacket(sequence uint64, denom, receiver, memo string) channeltypes.Packet {
	data := transfertypes.NewFungibleTokenPacketData(denom, "100", remoteSender, receiver, memo)
	return channeltypes.NewPacket(
		data.GetBytes(), sequence, transfertypes.PortID, inboundCounterpartyChannel,
		transfertypes.PortID, inboundChannel, clienttypes.NewHeight(0, 100), 0,
	)
}

func (suite *HooksTestSuite) intermediateSender() sdk.AccAddress {
	address, err := types.IntermediateSender(inboundChannel, remoteSender)
	suite.Require().NoError(err)
	return address
}

func (suite *HooksTestSuite) balance(denom string, account sdk.AccAddress) int64 {
	return suite.fungibles.Balance(suite.ctx, denom, account).Int64()
}

func wasmMemo(msg string) string {
	return `{"wasm": {"contract": "` + contract.String() + `", "msg": ` + msg + `}}`
}

func forwardMemo(retries int) string {
	bz, err := json.Marshal(map[string]interface{}{
		"forward": map[string]interface{}{
			"receiver": "picasso1finalreceiver",
			"port":     transfertypes.PortID,
			"channel":  outboundChannel,
			"timeout":  "10m",
			"retries":  retries,
			"next":     map[string]interface{}{"note": "last hop"},
		},
	})
	if err != nil {
		panic(err)
	}
	return string(bz)
}

var voucher = transfertypes.GetPrefixedDenom(transfertypes.PortID, inboundChannel, "USDT")

func (suite *HooksTestSuite) TestOnRecvPacketWithoutHook() {
	for _, memo := range []string{"", "gm", `{"note": "no hook here"}`} {
		ack := suite.recv(inboundPacket(1, "USDT", alice.String(), memo))
		suite.Require().True(ack.Success(), memo)
	}
	suite.Require().Equal(int64(300), suite.balance(voucher, alice))
	suite.Require().Empty(suite.contract.calls)
}

func (suite *HooksTestSuite) TestOnRecvPacketInvalidHook() {
	ack := suite.recv(inboundPacket(1, "USDT", alice.String(), `{"wasm": {"contract": "nope"}}`))
	suite.Require().False(ack.Success())
	suite.Require().True(suite.fungibles.TotalSupply(suite.ctx, voucher).IsZero())
}

func (suite *HooksTestSuite) TestOnRecvWasmHook() {
	testCases := []struct {
		msg      string
		receiver string
		memo     string
		expPass  bool
	}{
		{"contract executed with the received funds", contract.String(), wasmMemo(`{"swap": {}}`), true},
		{"contract call fails", contract.String(), wasmMemo(`{"fail": true}`), false},
		{"receiver is not the contract", alice.String(), wasmMemo(`{"swap": {}}`), false},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.msg, func() {
			suite.SetupTest() // reset

			ack := suite.recv(inboundPacket(1, "USDT", tc.receiver, tc.memo))
			intermediate := suite.intermediateSender()

			if !tc.expPass {
				suite.Require().False(ack.Success())
				suite.Require().True(suite.fungibles.TotalSupply(suite.ctx, voucher).IsZero())
				suite.Require().Empty(suite.contract.calls)
				return
			}

			suite.Require().True(ack.Success())
			suite.Require().Len(suite.contract.calls, 1)
			env := suite.contract.calls[0]
			suite.Require().Equal(intermediate, env.Sender)
			suite.Require().Equal(voucher, env.Funds[0].Denom)
			suite.Require().Equal(int64(100), env.Funds[0].Amount.Int64())

			suite.Require().Equal(int64(100), suite.balance(voucher, contract))
			suite.Require().Zero(suite.balance(voucher, intermediate))

			var result keeper.WasmHookResult
			suite.Require().NoError(json.Unmarshal(ack.(channeltypes.Acknowledgement).Result, &result))
			suite.Require().JSONEq(`{"swapped":true}`, string(result.ContractResult))
			suite.Require().NoError(types.ValidateIntermediateSender(inboundChannel, remoteSender, env.Sender.String()))
		})
	}
}

// forward receives a packet asking to be forwarded and returns the packet
// sent on the next hop.
func (suite *HooksTestSuite) forward(retries int) (channeltypes.Packet, channeltypes.Packet) {
	inbound := inboundPacket(5, "USDT", "centauri1ignored", forwardMemo(retries))
	ack := suite.recv(inbound)
	suite.Require().Nil(ack, "the acknowledgement is held until the forward completes")
	suite.Require().NotEmpty(suite.ics4.sent)
	return inbound, suite.ics4.sent[len(suite.ics4.sent)-1]
}

func (suite *HooksTestSuite) TestForwardSuccess() {
	inbound, outbound := suite.forward(1)

	data, err := transfertypes.UnmarshalPacketData(outbound.Data)
	suite.Require().NoError(err)
	suite.Require().Equal(outboundChannel, outbound.SourceChannel)
	suite.Require().Equal("picasso1finalreceiver", data.Receiver)
	suite.Require().Equal(suite.intermediateSender().String(), data.Sender)
	suite.Require().Equal(voucher, data.Denom)
	suite.Require().JSONEq(`{"note": "last hop"}`, data.Memo)
	suite.Require().Equal(uint64(suite.ctx.BlockTime().Add(10*time.Minute).UnixNano()), outbound.TimeoutTimestamp)

	// the voucher is escrowed on the next hop
	escrow := transfertypes.GetEscrowAddress(transfertypes.PortID, outboundChannel)
	suite.Require().Equal(int64(100), suite.balance(voucher, escrow))

	inFlight, found := suite.keeper.GetInFlightPacket(suite.ctx, outboundChannel, transfertypes.PortID, outbound.Sequence)
	suite.Require().True(found)
	suite.Require().Equal(inbound, inFlight.ChannelPacket())
	suite.Require().Equal(int32(1), inFlight.RetriesRemaining)

	ack := channeltypes.NewResultAcknowledgement([]byte{1})
	suite.Require().NoError(suite.middleware.OnAcknowledgementPacket(suite.ctx, outbound, ack.Acknowledgement(), relayer))

	suite.Require().Len(suite.ics4.acks, 1)
	suite.Require().Equal(inbound.Sequence, suite.ics4.acks[0].packet.GetSequence())
	suite.Require().Equal(inboundChannel, suite.ics4.acks[0].packet.GetDestChannel())
	suite.Require().True(suite.ics4.acks[0].ack.Success())

	_, found = suite.keeper.GetInFlightPacket(suite.ctx, outboundChannel, transfertypes.PortID, outbound.Sequence)
	suite.Require().False(found)
	suite.Require().Equal(int64(100), suite.fungibles.TotalSupply(suite.ctx, voucher).Int64())
}

func (suite *HooksTestSuite) TestForwardFailureRefunds() {
	inbound, outbound := suite.forward(1)

	ack := channeltypes.NewErrorAcknowledgement(errors.New("receiver rejected"))
	suite.Require().NoError(suite.middleware.OnAcknowledgementPacket(suite.ctx, outbound, ack.Acknowledgement(), relayer))

	suite.Require().Len(suite.ics4.acks, 1)
	suite.Require().Equal(inbound.Sequence, suite.ics4.acks[0].packet.GetSequence())
	suite.Require().False(suite.ics4.acks[0].ack.Success())

	// the vouchers minted for the inbound packet are burned again, the
	// error acknowledgement refunds the previous hop
	suite.Require().True(suite.fungibles.TotalSupply(suite.ctx, voucher).IsZero())
	suite.Require().Zero(suite.balance(voucher, suite.intermediateSender()))
}

func (suite *HooksTestSuite) TestForwardTimeoutRetries() {
	inbound, outbound := suite.forward(1)

	suite.Require().NoError(suite.middleware.OnTimeoutPacket(suite.ctx, outbound, relayer))
	suite.Require().Len(suite.ics4.sent, 2, "the forward is sent again")
	suite.Require().Empty(suite.ics4.acks)

	_, found := suite.keeper.GetInFlightPacket(suite.ctx, outboundChannel, transfertypes.PortID, outbound.Sequence)
	suite.Require().False(found)

	retry := suite.ics4.sent[1]
	inFlight, found := suite.keeper.GetInFlightPacket(suite.ctx, outboundChannel, transfertypes.PortID, retry.Sequence)
	suite.Require().True(found)
	suite.Require().Zero(inFlight.RetriesRemaining)
	suite.Require().Equal(outbound.Data, retry.Data)

	// no retries left
	suite.Require().NoError(suite.middleware.OnTimeoutPacket(suite.ctx, retry, relayer))
	suite.Require().Len(suite.ics4.sent, 2)
	suite.Require().Len(suite.ics4.acks, 1)
	suite.Require().Equal(inbound.Sequence, suite.ics4.acks[0].packet.GetSequence())
	suite.Require().False(suite.ics4.acks[0].ack.Success())
	suite.Require().True(suite.fungibles.TotalSupply(suite.ctx, voucher).IsZero())
}

func (suite *HooksTestSuite) TestCallbacks() {
	callbackMemo := `{"ibc_callback": "` + contract.String() + `"}`
	send := func(sender sdk.AccAddress) (uint64, error) {
		return suite.transfer.SendTransfer(
			suite.ctx, transfertypes.PortID, outboundChannel, "ppica", sdk.NewInt(10),
			sender, "picasso1receiver", clienttypes.NewHeight(0, 100), 0, callbackMemo,
		)
	}
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", contract, sdk.NewInt(100)))
	suite.Require().NoError(suite.fungibles.MintInto(suite.ctx, "ppica", alice, sdk.NewInt(100)))

	_, err := send(alice)
	suite.Require().ErrorIs(err, types.ErrBadCallbackSender)

	sequence, err := send(contract)
	suite.Require().NoError(err)
	_, found := suite.keeper.GetCallback(suite.ctx, outboundChannel, sequence)
	suite.Require().True(found)

	packet := suite.ics4.sent[len(suite.ics4.sent)-1]
	ack := channeltypes.NewResultAcknowledgement([]byte{1})
	suite.Require().NoError(suite.middleware.OnAcknowledgementPacket(suite.ctx, packet, ack.Acknowledgement(), relayer))

	suite.Require().Len(suite.contract.msgs, 1)
	suite.Require().JSONEq(
		fmt.Sprintf(`{"ibc_lifecycle_complete": {"ibc_ack": {"channel": "channel-1", "sequence": %d, "success": true}}}`, sequence),
		string(suite.contract.msgs[0]),
	)
	suite.Require().Equal(keeper.ModuleAddress(), suite.contract.calls[0].Sender)
	_, found = suite.keeper.GetCallback(suite.ctx, outboundChannel, sequence)
	suite.Require().False(found)

	// timeouts are notified as well
	sequence, err = send(contract)
	suite.Require().NoError(err)
	packet = suite.ics4.sent[len(suite.ics4.sent)-1]
	suite.Require().NoError(suite.middleware.OnTimeoutPacket(suite.ctx, packet, relayer))
	suite.Require().Len(suite.contract.msgs, 2)
	suite.Require().JSONEq(
		fmt.Sprintf(`{"ibc_lifecycle_complete": {"ibc_timeout": {"channel": "channel-1", "sequence": %d}}}`, sequence),
		string(suite.contract.msgs[1]),
	)
	suite.Require().Equal(int64(90), suite.balance("ppica", contract), "the timed out transfer is refunded")
}
