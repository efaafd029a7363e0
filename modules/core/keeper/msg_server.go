package keeper

import (
	metrics "github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	capabilitytypes "github.com/ComposableFi/centauri/modules/capability/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
)

// CreateClient defines a rpc handler method for MsgCreateClient.
func (k Keeper) CreateClient(ctx sdk.Context, msg *clienttypes.MsgCreateClient) (string, error) {
	return k.ClientKeeper.CreateClient(ctx, msg.ClientState, msg.ConsensusState)
}

// UpdateClient defines a rpc handler method for MsgUpdateClient.
func (k Keeper) UpdateClient(ctx sdk.Context, msg *clienttypes.MsgUpdateClient) error {
	return k.ClientKeeper.UpdateClient(ctx, msg.ClientID, msg.ClientMessage)
}

// SubmitMisbehaviour defines a rpc handler method for MsgSubmitMisbehaviour.
func (k Keeper) SubmitMisbehaviour(ctx sdk.Context, msg *clienttypes.MsgSubmitMisbehaviour) error {
	return k.ClientKeeper.SubmitMisbehaviour(ctx, msg.ClientID, msg.Misbehaviour)
}

// ConnectionOpenInit defines a rpc handler method for MsgConnectionOpenInit.
func (k Keeper) ConnectionOpenInit(ctx sdk.Context, msg *connectiontypes.MsgConnectionOpenInit) (string, error) {
	connectionID, err := k.ConnectionKeeper.ConnOpenInit(ctx, msg.ClientID, msg.Counterparty, msg.Version, msg.DelayPeriod)
	if err != nil {
		return "", sdkerrors.Wrap(err, "connection handshake open init failed")
	}
	return connectionID, nil
}

// ConnectionOpenTry defines a rpc handler method for MsgConnectionOpenTry.
func (k Keeper) ConnectionOpenTry(ctx sdk.Context, msg *connectiontypes.MsgConnectionOpenTry) (string, error) {
	connectionID, err := k.ConnectionKeeper.ConnOpenTry(
		ctx, msg.Counterparty, msg.DelayPeriod, msg.ClientID,
		msg.CounterpartyVersions, msg.ProofInit, msg.ProofHeight,
	)
	if err != nil {
		return "", sdkerrors.Wrap(err, "connection handshake open try failed")
	}
	return connectionID, nil
}

// ConnectionOpenAck defines a rpc handler method for MsgConnectionOpenAck.
func (k Keeper) ConnectionOpenAck(ctx sdk.Context, msg *connectiontypes.MsgConnectionOpenAck) error {
	if err := k.ConnectionKeeper.ConnOpenAck(
		ctx, msg.ConnectionID, msg.Version, msg.CounterpartyConnectionID,
		msg.ProofTry, msg.ProofHeight,
	); err != nil {
		return sdkerrors.Wrap(err, "connection handshake open ack failed")
	}
	return nil
}

// ConnectionOpenConfirm defines a rpc handler method for MsgConnectionOpenConfirm.
func (k Keeper) ConnectionOpenConfirm(ctx sdk.Context, msg *connectiontypes.MsgConnectionOpenConfirm) error {
	if err := k.ConnectionKeeper.ConnOpenConfirm(ctx, msg.ConnectionID, msg.ProofAck, msg.ProofHeight); err != nil {
		return sdkerrors.Wrap(err, "connection handshake open confirm failed")
	}
	return nil
}

// ChannelOpenInit defines a rpc handler method for MsgChannelOpenInit.
// ChannelOpenInit will perform 04-channel checks, route to the application
// callback, and write an OpenInit channel into state upon successful execution.
func (k Keeper) ChannelOpenInit(ctx sdk.Context, msg *channeltypes.MsgChannelOpenInit) (string, error) {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.PortID)
	if err != nil {
		return "", err
	}

	// Perform 04-channel verification
	channelID, err := k.ChannelKeeper.ChanOpenInit(
		ctx, msg.Channel.Ordering, msg.Channel.ConnectionHops, msg.PortID, portCap,
		msg.Channel.Counterparty, msg.Channel.Version,
	)
	if err != nil {
		return "", sdkerrors.Wrap(err, "channel handshake open init failed")
	}

	// Perform application logic callback
	version, err := cbs.OnChanOpenInit(ctx, msg.Channel.Ordering, msg.Channel.ConnectionHops, msg.PortID, channelID, msg.Channel.Counterparty, msg.Channel.Version)
	if err != nil {
		return "", sdkerrors.Wrap(err, "channel open init callback failed")
	}

	// Write channel into state
	k.ChannelKeeper.WriteOpenInitChannel(ctx, msg.PortID, channelID, msg.Channel.Ordering, msg.Channel.ConnectionHops, msg.Channel.Counterparty, version)

	return channelID, nil
}

// ChannelOpenTry defines a rpc handler method for MsgChannelOpenTry.
// ChannelOpenTry will perform 04-channel checks, route to the application
// callback, and write an OpenTry channel into state upon successful execution.
func (k Keeper) ChannelOpenTry(ctx sdk.Context, msg *channeltypes.MsgChannelOpenTry) (string, error) {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.PortID)
	if err != nil {
		return "", err
	}

	// Perform 04-channel verification
	channelID, err := k.ChannelKeeper.ChanOpenTry(ctx, msg.Channel.Ordering, msg.Channel.ConnectionHops, msg.PortID,
		portCap, msg.Channel.Counterparty, msg.CounterpartyVersion, msg.ProofInit, msg.ProofHeight,
	)
	if err != nil {
		return "", sdkerrors.Wrap(err, "channel handshake open try failed")
	}

	// Perform application logic callback
	version, err := cbs.OnChanOpenTry(ctx, msg.Channel.Ordering, msg.Channel.ConnectionHops, msg.PortID, channelID, msg.Channel.Counterparty, msg.CounterpartyVersion)
	if err != nil {
		return "", sdkerrors.Wrap(err, "channel open try callback failed")
	}

	// Write channel into state
	k.ChannelKeeper.WriteOpenTryChannel(ctx, msg.PortID, channelID, msg.Channel.Ordering, msg.Channel.ConnectionHops, msg.Channel.Counterparty, version)

	return channelID, nil
}

// ChannelOpenAck defines a rpc handler method for MsgChannelOpenAck.
// ChannelOpenAck will perform 04-channel checks, route to the application
// callback, and write an OpenAck channel into state upon successful execution.
func (k Keeper) ChannelOpenAck(ctx sdk.Context, msg *channeltypes.MsgChannelOpenAck) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.PortID)
	if err != nil {
		return err
	}

	// Perform 04-channel verification
	if err = k.ChannelKeeper.ChanOpenAck(
		ctx, msg.PortID, msg.ChannelID, portCap, msg.CounterpartyVersion, msg.CounterpartyChannelID, msg.ProofTry, msg.ProofHeight,
	); err != nil {
		return sdkerrors.Wrap(err, "channel handshake open ack failed")
	}

	// Perform application logic callback
	if err = cbs.OnChanOpenAck(ctx, msg.PortID, msg.ChannelID, msg.CounterpartyChannelID, msg.CounterpartyVersion); err != nil {
		return sdkerrors.Wrap(err, "channel open ack callback failed")
	}

	// Write channel into state
	k.ChannelKeeper.WriteOpenAckChannel(ctx, msg.PortID, msg.ChannelID, msg.CounterpartyVersion, msg.CounterpartyChannelID)

	return nil
}

// ChannelOpenConfirm defines a rpc handler method for MsgChannelOpenConfirm.
// ChannelOpenConfirm will perform 04-channel checks, route to the application
// callback, and write an OpenConfirm channel into state upon successful execution.
func (k Keeper) ChannelOpenConfirm(ctx sdk.Context, msg *channeltypes.MsgChannelOpenConfirm) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.PortID)
	if err != nil {
		return err
	}

	// Perform 04-channel verification
	if err = k.ChannelKeeper.ChanOpenConfirm(ctx, msg.PortID, msg.ChannelID, portCap, msg.ProofAck, msg.ProofHeight); err != nil {
		return sdkerrors.Wrap(err, "channel handshake open confirm failed")
	}

	// Perform application logic callback
	if err = cbs.OnChanOpenConfirm(ctx, msg.PortID, msg.ChannelID); err != nil {
		return sdkerrors.Wrap(err, "channel open confirm callback failed")
	}

	// Write channel into state
	k.ChannelKeeper.WriteOpenConfirmChannel(ctx, msg.PortID, msg.ChannelID)

	return nil
}

// ChannelCloseInit defines a rpc handler method for MsgChannelCloseInit.
func (k Keeper) ChannelCloseInit(ctx sdk.Context, msg *channeltypes.MsgChannelCloseInit) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.PortID)
	if err != nil {
		return err
	}

	if err = cbs.OnChanCloseInit(ctx, msg.PortID, msg.ChannelID); err != nil {
		return sdkerrors.Wrap(err, "channel close init callback failed")
	}

	if err = k.ChannelKeeper.ChanCloseInit(ctx, msg.PortID, msg.ChannelID, portCap); err != nil {
		return sdkerrors.Wrap(err, "channel handshake close init failed")
	}

	return nil
}

// ChannelCloseConfirm defines a rpc handler method for MsgChannelCloseConfirm.
func (k Keeper) ChannelCloseConfirm(ctx sdk.Context, msg *channeltypes.MsgChannelCloseConfirm) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.PortID)
	if err != nil {
		return err
	}

	if err = k.ChannelKeeper.ChanCloseConfirm(ctx, msg.PortID, msg.ChannelID, portCap, msg.ProofInit, msg.ProofHeight); err != nil {
		return sdkerrors.Wrap(err, "channel handshake close confirm failed")
	}

	if err = cbs.OnChanCloseConfirm(ctx, msg.PortID, msg.ChannelID); err != nil {
		return sdkerrors.Wrap(err, "channel close confirm callback failed")
	}

	return nil
}

// RecvPacket defines a rpc handler method for MsgRecvPacket.
func (k Keeper) RecvPacket(ctx sdk.Context, relayer sdk.AccAddress, msg *channeltypes.MsgRecvPacket) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.Packet.DestinationPort)
	if err != nil {
		return err
	}

	// Perform TAO verification
	//
	// If the packet was already received, the error is returned untouched so
	// that the delivery result can be recognised as a relay race.
	if err := k.ChannelKeeper.RecvPacket(ctx, msg.Packet, msg.ProofCommitment, msg.ProofHeight); err != nil {
		if sdkerrors.IsOf(err, channeltypes.ErrAlreadyRelayed) {
			return err
		}
		return sdkerrors.Wrap(err, "receive packet verification failed")
	}

	// Perform application logic callback
	//
	// Cache context so that we may discard state changes from callback if the acknowledgement is unsuccessful.
	cacheCtx, writeFn := cacheContext(ctx)
	ack := cbs.OnRecvPacket(cacheCtx, msg.Packet, relayer)
	if ack == nil || ack.Success() {
		// write application state changes for asynchronous and successful acknowledgements
		writeFn()
		ctx.EventManager().EmitEvents(cacheCtx.EventManager().Events())
	} else {
		// the events of the discarded state changes are kept, marked as errors
		ctx.EventManager().EmitEvents(coretypes.ConvertToErrorEvents(cacheCtx.EventManager().Events()))
	}

	// Set packet acknowledgement only if the acknowledgement is not nil.
	// NOTE: IBC applications modules may call the WriteAcknowledgement asynchronously if the
	// acknowledgement is nil.
	if ack != nil {
		if err := k.ChannelKeeper.WriteAcknowledgement(ctx, portCap, msg.Packet, ack); err != nil {
			return err
		}
	}

	defer func() {
		telemetry.IncrCounterWithLabels(
			[]string{"tx", "msg", "ibc", channeltypes.EventTypeRecvPacket},
			1,
			[]metrics.Label{
				telemetry.NewLabel(coretypes.LabelSourcePort, msg.Packet.SourcePort),
				telemetry.NewLabel(coretypes.LabelSourceChannel, msg.Packet.SourceChannel),
				telemetry.NewLabel(coretypes.LabelDestinationPort, msg.Packet.DestinationPort),
				telemetry.NewLabel(coretypes.LabelDestinationChannel, msg.Packet.DestinationChannel),
			},
		)
	}()

	return nil
}

// Timeout defines a rpc handler method for MsgTimeout.
func (k Keeper) Timeout(ctx sdk.Context, relayer sdk.AccAddress, msg *channeltypes.MsgTimeout) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.Packet.SourcePort)
	if err != nil {
		return err
	}

	// Perform TAO verification
	if err := k.ChannelKeeper.TimeoutPacket(ctx, msg.Packet, msg.ProofUnreceived, msg.ProofHeight, msg.NextSequenceRecv); err != nil {
		if sdkerrors.IsOf(err, channeltypes.ErrAlreadyRelayed) {
			return err
		}
		return sdkerrors.Wrap(err, "timeout packet verification failed")
	}

	// Perform application logic callback
	if err := cbs.OnTimeoutPacket(ctx, msg.Packet, relayer); err != nil {
		return sdkerrors.Wrap(err, "timeout packet callback failed")
	}

	// Delete packet commitment
	if err := k.ChannelKeeper.TimeoutExecuted(ctx, portCap, msg.Packet); err != nil {
		return err
	}

	defer func() {
		telemetry.IncrCounterWithLabels(
			[]string{"ibc", "timeout", "packet"},
			1,
			[]metrics.Label{
				telemetry.NewLabel(coretypes.LabelSourcePort, msg.Packet.SourcePort),
				telemetry.NewLabel(coretypes.LabelSourceChannel, msg.Packet.SourceChannel),
				telemetry.NewLabel(coretypes.LabelDestinationPort, msg.Packet.DestinationPort),
				telemetry.NewLabel(coretypes.LabelDestinationChannel, msg.Packet.DestinationChannel),
				telemetry.NewLabel(coretypes.LabelTimeoutType, "height"),
			},
		)
	}()

	return nil
}

// TimeoutOnClose defines a rpc handler method for MsgTimeoutOnClose.
func (k Keeper) TimeoutOnClose(ctx sdk.Context, relayer sdk.AccAddress, msg *channeltypes.MsgTimeoutOnClose) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.Packet.SourcePort)
	if err != nil {
		return err
	}

	// Perform TAO verification
	if err := k.ChannelKeeper.TimeoutOnClose(ctx, portCap, msg.Packet, msg.ProofUnreceived, msg.ProofClose, msg.ProofHeight, msg.NextSequenceRecv); err != nil {
		if sdkerrors.IsOf(err, channeltypes.ErrAlreadyRelayed) {
			return err
		}
		return sdkerrors.Wrap(err, "timeout on close packet verification failed")
	}

	// Perform application logic callback
	//
	// NOTE: MsgTimeout and MsgTimeoutOnClose use the same "OnTimeoutPacket"
	// application logic callback.
	if err := cbs.OnTimeoutPacket(ctx, msg.Packet, relayer); err != nil {
		return sdkerrors.Wrap(err, "timeout packet callback failed")
	}

	// Delete packet commitment
	if err := k.ChannelKeeper.TimeoutExecuted(ctx, portCap, msg.Packet); err != nil {
		return err
	}

	defer func() {
		telemetry.IncrCounterWithLabels(
			[]string{"ibc", "timeout", "packet"},
			1,
			[]metrics.Label{
				telemetry.NewLabel(coretypes.LabelSourcePort, msg.Packet.SourcePort),
				telemetry.NewLabel(coretypes.LabelSourceChannel, msg.Packet.SourceChannel),
				telemetry.NewLabel(coretypes.LabelDestinationPort, msg.Packet.DestinationPort),
				telemetry.NewLabel(coretypes.LabelDestinationChannel, msg.Packet.DestinationChannel),
				telemetry.NewLabel(coretypes.LabelTimeoutType, "channel-closed"),
			},
		)
	}()

	return nil
}

// Acknowledgement defines a rpc handler method for MsgAcknowledgement.
func (k Keeper) Acknowledgement(ctx sdk.Context, relayer sdk.AccAddress, msg *channeltypes.MsgAcknowledgement) error {
	portCap, cbs, err := k.lookupModuleByPort(ctx, msg.Packet.SourcePort)
	if err != nil {
		return err
	}

	// Perform TAO verification
	if err := k.ChannelKeeper.AcknowledgePacket(ctx, portCap, msg.Packet, msg.Acknowledgement, msg.ProofAcked, msg.ProofHeight); err != nil {
		if sdkerrors.IsOf(err, channeltypes.ErrAlreadyRelayed) {
			return err
		}
		return sdkerrors.Wrap(err, "acknowledge packet verification failed")
	}

	// Perform application logic callback
	if err := cbs.OnAcknowledgementPacket(ctx, msg.Packet, msg.Acknowledgement, relayer); err != nil {
		return sdkerrors.Wrap(err, "acknowledge packet callback failed")
	}

	defer func() {
		telemetry.IncrCounterWithLabels(
			[]string{"tx", "msg", "ibc", channeltypes.EventTypeAcknowledgePacket},
			1,
			[]metrics.Label{
				telemetry.NewLabel(coretypes.LabelSourcePort, msg.Packet.SourcePort),
				telemetry.NewLabel(coretypes.LabelSourceChannel, msg.Packet.SourceChannel),
				telemetry.NewLabel(coretypes.LabelDestinationPort, msg.Packet.DestinationPort),
				telemetry.NewLabel(coretypes.LabelDestinationChannel, msg.Packet.DestinationChannel),
			},
		)
	}()

	return nil
}

// lookupModuleByPort returns the capability bound to the port together with
// the application callbacks routed to it.
func (k Keeper) lookupModuleByPort(ctx sdk.Context, portID string) (*capabilitytypes.Capability, porttypes.IBCModule, error) {
	if k.Router == nil {
		return nil, nil, sdkerrors.Wrap(porttypes.ErrInvalidRoute, "router is not set")
	}
	portCap, err := k.PortKeeper.GetCapability(ctx, portID)
	if err != nil {
		return nil, nil, sdkerrors.Wrap(err, "could not retrieve module from port-id")
	}
	cbs, ok := k.Router.GetRoute(portID)
	if !ok {
		return nil, nil, sdkerrors.Wrapf(porttypes.ErrInvalidRoute, "route not found to module: %s", portID)
	}
	return portCap, cbs, nil
}

// cacheContext branches both the multistore and the event manager of ctx.
// Events of the branch are not visible on ctx until the caller emits them.
func cacheContext(ctx sdk.Context) (sdk.Context, func()) {
	cacheCtx, writeFn := ctx.CacheContext()
	return cacheCtx.WithEventManager(sdk.NewEventManager()), writeFn
}
