package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// VerifyConnectionState verifies a proof of the connection state of the
// specified connection end stored on the target machine.
func (k Keeper) VerifyConnectionState(
	ctx sdk.Context,
	connection types.ConnectionEnd,
	height exported.Height,
	proof []byte,
	connectionID string,
	counterpartyConnection types.ConnectionEnd, // opposite connection
) error {
	clientState, clientStore, err := k.getActiveClientState(ctx, connection.ClientID)
	if err != nil {
		return err
	}

	bz, err := counterpartyConnection.Marshal()
	if err != nil {
		return err
	}

	if err := clientState.VerifyMembership(
		ctx, clientStore, height, proof,
		connection.Counterparty.Prefix, host.ConnectionPath(connectionID), bz,
	); err != nil {
		return sdkerrors.Wrapf(clienttypes.ErrFailedConnectionStateVerification, "failed connection state verification for client (%s): %v", connection.ClientID, err)
	}

	return nil
}

// VerifyChannelState verifies a proof of the channel state of the specified
// channel end, under the specified port, stored on the target machine.
func (k Keeper) VerifyChannelState(
	ctx sdk.Context,
	connection types.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	channel channeltypes.Channel,
) error {
	clientState, clientStore, err := k.getActiveClientState(ctx, connection.ClientID)
	if err != nil {
		return err
	}

	bz, err := channel.Marshal()
	if err != nil {
		return err
	}

	if err := clientState.VerifyMembership(
		ctx, clientStore, height, proof,
		connection.Counterparty.Prefix, host.ChannelPath(portID, channelID), bz,
	); err != nil {
		return sdkerrors.Wrapf(clienttypes.ErrFailedChannelStateVerification, "failed channel state verification for client (%s): %v", connection.ClientID, err)
	}

	return nil
}

// VerifyPacketCommitment verifies a proof of an outgoing packet commitment at
// the specified port, specified channel, and specified sequence.
func (k Keeper) VerifyPacketCommitment(
	ctx sdk.Context,
	connection types.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	sequence uint64,
	commitmentBytes []byte,
) error {
	clientState, clientStore, err := k.getActiveClientState(ctx, connection.ClientID)
	if err != nil {
		return err
	}

	if err := verifyDelayPeriodPassed(ctx, clientStore, height, connection.DelayPeriod); err != nil {
		return err
	}

	if err := clientState.VerifyMembership(
		ctx, clientStore, height, proof,
		connection.Counterparty.Prefix, host.PacketCommitmentPath(portID, channelID, sequence), commitmentBytes,
	); err != nil {
		return sdkerrors.Wrapf(clienttypes.ErrFailedPacketCommitmentVerification, "failed packet commitment verification for client (%s): %v", connection.ClientID, err)
	}

	return nil
}

// VerifyPacketAcknowledgement verifies a proof of an incoming packet
// acknowledgement at the specified port, specified channel, and specified sequence.
func (k Keeper) VerifyPacketAcknowledgement(
	ctx sdk.Context,
	connection types.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	sequence uint64,
	acknowledgement []byte,
) error {
	clientState, clientStore, err := k.getActiveClientState(ctx, connection.ClientID)
	if err != nil {
		return err
	}

	if err := verifyDelayPeriodPassed(ctx, clientStore, height, connection.DelayPeriod); err != nil {
		return err
	}

	if err := clientState.VerifyMembership(
		ctx, clientStore, height, proof,
		connection.Counterparty.Prefix, host.PacketAcknowledgementPath(portID, channelID, sequence),
		channeltypes.CommitAcknowledgement(acknowledgement),
	); err != nil {
		return sdkerrors.Wrapf(clienttypes.ErrFailedPacketAckVerification, "failed packet acknowledgement verification for client (%s): %v", connection.ClientID, err)
	}

	return nil
}

// VerifyPacketReceiptAbsence verifies a proof of the absence of an
// incoming packet receipt at the specified port, specified channel, and
// specified sequence.
func (k Keeper) VerifyPacketReceiptAbsence(
	ctx sdk.Context,
	connection types.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	sequence uint64,
) error {
	clientState, clientStore, err := k.getActiveClientState(ctx, connection.ClientID)
	if err != nil {
		return err
	}

	if err := verifyDelayPeriodPassed(ctx, clientStore, height, connection.DelayPeriod); err != nil {
		return err
	}

	if err := clientState.VerifyNonMembership(
		ctx, clientStore, height, proof,
		connection.Counterparty.Prefix, host.PacketReceiptPath(portID, channelID, sequence),
	); err != nil {
		return sdkerrors.Wrapf(clienttypes.ErrFailedPacketReceiptVerification, "failed packet receipt absence verification for client (%s): %v", connection.ClientID, err)
	}

	return nil
}

// VerifyNextSequenceRecv verifies a proof of the next sequence number to be
// received of the specified channel at the specified port.
func (k Keeper) VerifyNextSequenceRecv(
	ctx sdk.Context,
	connection types.ConnectionEnd,
	height exported.Height,
	proof []byte,
	portID,
	channelID string,
	nextSequenceRecv uint64,
) error {
	clientState, clientStore, err := k.getActiveClientState(ctx, connection.ClientID)
	if err != nil {
		return err
	}

	if err := verifyDelayPeriodPassed(ctx, clientStore, height, connection.DelayPeriod); err != nil {
		return err
	}

	if err := clientState.VerifyMembership(
		ctx, clientStore, height, proof,
		connection.Counterparty.Prefix, host.NextSequenceRecvPath(portID, channelID),
		sdk.Uint64ToBigEndian(nextSequenceRecv),
	); err != nil {
		return sdkerrors.Wrapf(clienttypes.ErrFailedNextSeqRecvVerification, "failed next sequence receive verification for client (%s): %v", connection.ClientID, err)
	}

	return nil
}

// verifyDelayPeriodPassed will ensure that at least delayTimePeriod amount of time has passed
// since the consensus state at proofHeight was processed.
func verifyDelayPeriodPassed(ctx sdk.Context, clientStore sdk.KVStore, proofHeight exported.Height, delayTimePeriod uint64) error {
	if delayTimePeriod == 0 {
		return nil
	}

	processedTime, ok := clienttypes.GetProcessedTime(clientStore, proofHeight)
	if !ok {
		return sdkerrors.Wrapf(clienttypes.ErrConsensusStateNotFound, "processed time not found for height: %s", proofHeight)
	}

	currentTimestamp := uint64(ctx.BlockTime().UnixNano())
	validTime := processedTime + delayTimePeriod
	// NOTE: delay time period is inclusive, so if currentTimestamp is validTime, then we return no error
	if currentTimestamp < validTime {
		return sdkerrors.Wrapf(types.ErrDelayPeriodNotPassed, "cannot verify packet until time: %d, current time: %d", validTime, currentTimestamp)
	}
	return nil
}

// getActiveClientState returns the client state and store of an active client.
func (k Keeper) getActiveClientState(ctx sdk.Context, clientID string) (exported.ClientState, sdk.KVStore, error) {
	clientState, found := k.clientKeeper.GetClientState(ctx, clientID)
	if !found {
		return nil, nil, sdkerrors.Wrap(clienttypes.ErrClientNotFound, clientID)
	}

	clientStore := k.clientKeeper.ClientStore(ctx, clientID)
	if status := clientState.Status(ctx, clientStore); status != exported.Active {
		return nil, nil, sdkerrors.Wrapf(clienttypes.ErrClientNotActive, "client (%s) status is %s", clientID, status)
	}
	return clientState, clientStore, nil
}
