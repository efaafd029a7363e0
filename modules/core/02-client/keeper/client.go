package keeper

import (
	metrics "github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/core/02-client/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// CreateClient generates a new client identifier and isolated prefix store for the provided client state.
// The client state is responsible for setting any client-specific data in the store via the Initialize method.
// This includes the client state, initial consensus state and any associated metadata.
func (k Keeper) CreateClient(
	ctx sdk.Context, clientState exported.ClientState, consensusState exported.ConsensusState,
) (string, error) {
	params := k.GetParams(ctx)
	if !params.IsAllowedClient(clientState.ClientType()) {
		return "", sdkerrors.Wrapf(
			types.ErrInvalidClientType,
			"client state type %s is not registered in the allowlist", clientState.ClientType(),
		)
	}

	if !k.router.HasRoute(clientState.ClientType()) {
		return "", sdkerrors.Wrap(types.ErrRouteNotFound, clientState.ClientType())
	}

	if err := clientState.Validate(); err != nil {
		return "", err
	}

	clientID := k.GenerateClientIdentifier(ctx, clientState.ClientType())
	clientStore := k.ClientStore(ctx, clientID)

	if err := clientState.Initialize(ctx, clientStore, consensusState); err != nil {
		return "", err
	}

	if status := k.GetClientStatus(ctx, clientID); status != exported.Active {
		return "", sdkerrors.Wrapf(types.ErrClientNotActive, "cannot create client (%s) with status %s", clientID, status)
	}

	k.Logger(ctx).Info("client created at height", "client-id", clientID, "height", clientState.GetLatestHeight().String())

	defer telemetry.IncrCounterWithLabels(
		[]string{"ibc", "client", "create"},
		1,
		[]metrics.Label{telemetry.NewLabel(types.LabelClientType, clientState.ClientType())},
	)

	emitCreateClientEvent(ctx, clientID, clientState)

	return clientID, nil
}

// UpdateClient updates the consensus state and the state root from a provided header.
// Misbehaviour is submitted through the same path: a verified client message that
// proves misbehaviour freezes the client.
func (k Keeper) UpdateClient(ctx sdk.Context, clientID string, clientMsg exported.ClientMessage) error {
	clientState, found := k.GetClientState(ctx, clientID)
	if !found {
		return sdkerrors.Wrapf(types.ErrClientNotFound, "cannot update client with ID %s", clientID)
	}

	clientStore := k.ClientStore(ctx, clientID)

	if status := clientState.Status(ctx, clientStore); status != exported.Active {
		return sdkerrors.Wrapf(types.ErrClientNotActive, "cannot update client (%s) with status %s", clientID, status)
	}

	if clientMsg.ClientType() != clientState.ClientType() {
		return sdkerrors.Wrapf(types.ErrInvalidClientType, "client message of type %s cannot update %s client", clientMsg.ClientType(), clientState.ClientType())
	}

	if err := clientState.VerifyClientMessage(ctx, clientStore, clientMsg); err != nil {
		return err
	}

	foundMisbehaviour := clientState.CheckForMisbehaviour(ctx, clientStore, clientMsg)
	if foundMisbehaviour {
		clientState.UpdateStateOnMisbehaviour(ctx, clientStore, clientMsg)

		k.Logger(ctx).Info("client frozen due to misbehaviour", "client-id", clientID)

		defer telemetry.IncrCounterWithLabels(
			[]string{"ibc", "client", "misbehaviour"},
			1,
			[]metrics.Label{
				telemetry.NewLabel(types.LabelClientType, clientState.ClientType()),
				telemetry.NewLabel(types.LabelClientID, clientID),
				telemetry.NewLabel(types.LabelMsgType, "update"),
			},
		)

		emitSubmitMisbehaviourEvent(ctx, clientID, clientState.ClientType())

		return nil
	}

	consensusHeights := clientState.UpdateState(ctx, clientStore, clientMsg)

	if pruned := types.PruneConsensusStates(clientStore, k.GetParams(ctx).MaxConsensusStates); pruned > 0 {
		k.Logger(ctx).Debug("pruned consensus states", "client-id", clientID, "count", pruned)
	}

	k.Logger(ctx).Info("client state updated", "client-id", clientID, "heights", consensusHeights)

	defer telemetry.IncrCounterWithLabels(
		[]string{"ibc", "client", "update"},
		1,
		[]metrics.Label{
			telemetry.NewLabel(types.LabelClientType, clientState.ClientType()),
			telemetry.NewLabel(types.LabelClientID, clientID),
			telemetry.NewLabel(types.LabelUpdateType, "msg"),
		},
	)

	// emitting events in the keeper emits for both begin block and handler client updates
	emitUpdateClientEvent(ctx, clientID, clientState.ClientType(), consensusHeights)

	return nil
}

// SubmitMisbehaviour verifies misbehaviour evidence against the client and freezes it.
// Evidence that does not prove misbehaviour is rejected without any state change.
func (k Keeper) SubmitMisbehaviour(ctx sdk.Context, clientID string, misbehaviour exported.ClientMessage) error {
	clientState, found := k.GetClientState(ctx, clientID)
	if !found {
		return sdkerrors.Wrapf(types.ErrClientNotFound, "cannot check misbehaviour for client with ID %s", clientID)
	}

	clientStore := k.ClientStore(ctx, clientID)

	if status := clientState.Status(ctx, clientStore); status != exported.Active {
		return sdkerrors.Wrapf(types.ErrClientNotActive, "cannot process misbehaviour for client (%s) with status %s", clientID, status)
	}

	if err := clientState.VerifyClientMessage(ctx, clientStore, misbehaviour); err != nil {
		return err
	}

	if !clientState.CheckForMisbehaviour(ctx, clientStore, misbehaviour) {
		return sdkerrors.Wrapf(types.ErrInvalidMisbehaviour, "client message does not prove misbehaviour of client %s", clientID)
	}

	clientState.UpdateStateOnMisbehaviour(ctx, clientStore, misbehaviour)

	k.Logger(ctx).Info("client frozen due to misbehaviour", "client-id", clientID)

	defer telemetry.IncrCounterWithLabels(
		[]string{"ibc", "client", "misbehaviour"},
		1,
		[]metrics.Label{
			telemetry.NewLabel(types.LabelClientType, clientState.ClientType()),
			telemetry.NewLabel(types.LabelClientID, clientID),
			telemetry.NewLabel(types.LabelMsgType, "misbehaviour"),
		},
	)

	emitSubmitMisbehaviourEvent(ctx, clientID, clientState.ClientType())

	return nil
}
