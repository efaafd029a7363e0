package keeper

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/core/02-client/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// Keeper represents a type that grants read and write permissions to any client
// state information
type Keeper struct {
	storeKey sdk.StoreKey
	router   *types.Router
}

// NewKeeper creates a new NewKeeper instance
func NewKeeper(key sdk.StoreKey, router *types.Router) Keeper {
	return Keeper{
		storeKey: key,
		router:   router,
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s/%s", host.ModuleName, types.SubModuleName))
}

// GenerateClientIdentifier returns the next client identifier.
func (k Keeper) GenerateClientIdentifier(ctx sdk.Context, clientType string) string {
	nextClientSeq := k.GetNextClientSequence(ctx)
	clientID := types.FormatClientIdentifier(clientType, nextClientSeq)

	nextClientSeq++
	k.SetNextClientSequence(ctx, nextClientSeq)
	return clientID
}

// GetNextClientSequence gets the next client sequence from the store.
func (k Keeper) GetNextClientSequence(ctx sdk.Context) uint64 {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get([]byte(types.KeyNextClientSequence))
	if bz == nil {
		return 0
	}
	return sdk.BigEndianToUint64(bz)
}

// SetNextClientSequence sets the next client sequence to the store.
func (k Keeper) SetNextClientSequence(ctx sdk.Context, sequence uint64) {
	store := ctx.KVStore(k.storeKey)
	store.Set([]byte(types.KeyNextClientSequence), sdk.Uint64ToBigEndian(sequence))
}

// GetParams returns the client parameters. The defaults apply until parameters are set.
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := ctx.KVStore(k.storeKey).Get([]byte(types.KeyParams))
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		panic(err)
	}
	return params
}

// SetParams sets the client parameters.
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) {
	bz, err := json.Marshal(params)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set([]byte(types.KeyParams), bz)
}

// GetClientState gets a particular client from the store
func (k Keeper) GetClientState(ctx sdk.Context, clientID string) (exported.ClientState, bool) {
	store := k.ClientStore(ctx, clientID)
	bz := store.Get(host.ClientStateKey())
	if bz == nil {
		return nil, false
	}

	clientState, err := k.router.UnmarshalClientState(bz)
	if err != nil {
		panic(err)
	}
	return clientState, true
}

// SetClientState sets a particular Client to the store
func (k Keeper) SetClientState(ctx sdk.Context, clientID string, clientState exported.ClientState) {
	types.SetClientState(k.ClientStore(ctx, clientID), clientState)
}

// GetClientConsensusState gets the stored consensus state from a client at a given height.
func (k Keeper) GetClientConsensusState(ctx sdk.Context, clientID string, height exported.Height) (exported.ConsensusState, bool) {
	bz, found := types.GetConsensusStateBytes(k.ClientStore(ctx, clientID), height)
	if !found {
		return nil, false
	}

	consensusState, err := k.router.UnmarshalConsensusState(bz)
	if err != nil {
		panic(err)
	}
	return consensusState, true
}

// SetClientConsensusState sets a ConsensusState to a particular client at the given
// height. Consensus states are immutable: rewriting identical bytes is a no-op while
// different bytes return ErrConsensusStateConflict.
func (k Keeper) SetClientConsensusState(ctx sdk.Context, clientID string, height exported.Height, consensusState exported.ConsensusState) error {
	clientStore := k.ClientStore(ctx, clientID)
	bz, err := types.MarshalConsensusState(consensusState)
	if err != nil {
		return err
	}

	if existing, found := types.GetConsensusStateBytes(clientStore, height); found {
		if string(existing) == string(bz) {
			return nil
		}
		return sdkerrors.Wrapf(types.ErrConsensusStateConflict, "client %s height %s", clientID, height)
	}

	types.SetConsensusState(ctx, clientStore, consensusState, height)
	return nil
}

// GetLatestClientConsensusState gets the latest ConsensusState stored for a given client
func (k Keeper) GetLatestClientConsensusState(ctx sdk.Context, clientID string) (exported.ConsensusState, bool) {
	clientState, ok := k.GetClientState(ctx, clientID)
	if !ok {
		return nil, false
	}
	return k.GetClientConsensusState(ctx, clientID, clientState.GetLatestHeight())
}

// GetClientStatus returns the status for a given client
func (k Keeper) GetClientStatus(ctx sdk.Context, clientID string) exported.Status {
	clientState, found := k.GetClientState(ctx, clientID)
	if !found {
		return exported.Unknown
	}
	return clientState.Status(ctx, k.ClientStore(ctx, clientID))
}

// GetClientLatestHeight returns the latest height of the given client or a zero height
// if the client does not exist.
func (k Keeper) GetClientLatestHeight(ctx sdk.Context, clientID string) types.Height {
	clientState, found := k.GetClientState(ctx, clientID)
	if !found {
		return types.ZeroHeight()
	}
	height, ok := clientState.GetLatestHeight().(types.Height)
	if !ok {
		return types.ZeroHeight()
	}
	return height
}

// GetClientTimestampAtHeight returns the timestamp in nanoseconds of the consensus
// state at the given height.
func (k Keeper) GetClientTimestampAtHeight(ctx sdk.Context, clientID string, height exported.Height) (uint64, error) {
	clientState, found := k.GetClientState(ctx, clientID)
	if !found {
		return 0, sdkerrors.Wrapf(types.ErrClientNotFound, "client (%s) not found", clientID)
	}
	return clientState.GetTimestampAtHeight(ctx, k.ClientStore(ctx, clientID), height)
}

// IterateClientStates provides an iterator over all stored light client State
// objects. For each State object, cb will be called. If the cb returns true,
// the iterator will close and stop.
func (k Keeper) IterateClientStates(ctx sdk.Context, cb func(clientID string, cs exported.ClientState) bool) {
	store := ctx.KVStore(k.storeKey)
	iterator := sdk.KVStorePrefixIterator(store, host.KeyClientStorePrefix)

	defer iterator.Close()
	for ; iterator.Valid(); iterator.Next() {
		path := string(iterator.Key())
		clientID, isClientState := parseClientStatePath(path)
		if !isClientState {
			continue
		}
		clientState, err := k.router.UnmarshalClientState(iterator.Value())
		if err != nil {
			panic(err)
		}

		if cb(clientID, clientState) {
			break
		}
	}
}

// ClientStore returns isolated prefix store for each client so they can read/write in separate
// namespace without being able to read/write other client's data
func (k Keeper) ClientStore(ctx sdk.Context, clientID string) sdk.KVStore {
	clientPrefix := []byte(fmt.Sprintf("%s/%s/", host.KeyClientStorePrefix, clientID))
	return prefix.NewStore(ctx.KVStore(k.storeKey), clientPrefix)
}

// parseClientStatePath returns the client id of a "clients/{id}/clientState" path.
func parseClientStatePath(path string) (string, bool) {
	suffix := "/" + host.KeyClientState
	prefixLen := len(host.KeyClientStorePrefix) + 1
	if len(path) <= prefixLen+len(suffix) || path[len(path)-len(suffix):] != suffix {
		return "", false
	}
	clientID := path[prefixLen : len(path)-len(suffix)]
	return clientID, types.IsValidClientID(clientID)
}
