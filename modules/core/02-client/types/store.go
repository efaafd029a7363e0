package types

import (
	"encoding/binary"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"

	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// KeyIterateConsensusStatePrefix is the client store prefix of the height ordered
// consensus state index.
const KeyIterateConsensusStatePrefix = "iterateConsensusStates"

var (
	// KeyProcessedTime is appended to consensus state key to store the processed time
	KeyProcessedTime = []byte("/processedTime")
	// KeyProcessedHeight is appended to consensus state key to store the processed height
	KeyProcessedHeight = []byte("/processedHeight")
)

func bigEndianHeightBytes(height exported.Height) []byte {
	heightBytes := make([]byte, 16)
	binary.BigEndian.PutUint64(heightBytes, height.GetRevisionNumber())
	binary.BigEndian.PutUint64(heightBytes[8:], height.GetRevisionHeight())
	return heightBytes
}

func heightFromBigEndian(bz []byte) Height {
	return NewHeight(binary.BigEndian.Uint64(bz[:8]), binary.BigEndian.Uint64(bz[8:16]))
}

// SetClientState stores the client state in the client prefixed store.
func SetClientState(clientStore sdk.KVStore, clientState exported.ClientState) {
	clientStore.Set(host.ClientStateKey(), MustMarshalClientState(clientState))
}

// SetConsensusState stores the consensus state at the given height together with
// the metadata used for ordered iteration and pruning.
func SetConsensusState(ctx sdk.Context, clientStore sdk.KVStore, consensusState exported.ConsensusState, height exported.Height) {
	clientStore.Set(host.ConsensusStateKey(height), MustMarshalConsensusState(consensusState))
	setConsensusMetadata(ctx, clientStore, height)
}

// GetConsensusStateBytes returns the raw stored consensus state at the given height.
func GetConsensusStateBytes(clientStore sdk.KVStore, height exported.Height) ([]byte, bool) {
	bz := clientStore.Get(host.ConsensusStateKey(height))
	return bz, bz != nil
}

// HasConsensusState reports whether a consensus state was stored at height.
func HasConsensusState(clientStore sdk.KVStore, height exported.Height) bool {
	return clientStore.Has(host.ConsensusStateKey(height))
}

// setConsensusMetadata sets context time as processed time and set context height as processed height.
// The iteration key provides the ability for efficient ordered iteration of consensus states.
func setConsensusMetadata(ctx sdk.Context, clientStore sdk.KVStore, height exported.Height) {
	SetProcessedTime(clientStore, height, uint64(ctx.BlockTime().UnixNano()))
	SetProcessedHeight(clientStore, height, GetSelfHeight(ctx))
	SetIterationKey(clientStore, height)
}

// SetProcessedTime stores the time at which a header was processed and the corresponding consensus state was created.
func SetProcessedTime(clientStore sdk.KVStore, height exported.Height, timeNs uint64) {
	clientStore.Set(ProcessedTimeKey(height), sdk.Uint64ToBigEndian(timeNs))
}

// GetProcessedTime gets the time (in nanoseconds) at which this chain received and processed a consensus header.
func GetProcessedTime(clientStore sdk.KVStore, height exported.Height) (uint64, bool) {
	bz := clientStore.Get(ProcessedTimeKey(height))
	if bz == nil {
		return 0, false
	}
	return sdk.BigEndianToUint64(bz), true
}

// ProcessedTimeKey returns the key under which the processed time will be stored in the client store.
func ProcessedTimeKey(height exported.Height) []byte {
	return append(host.ConsensusStateKey(height), KeyProcessedTime...)
}

// ProcessedHeightKey returns the key under which the processed height will be stored in the client store.
func ProcessedHeightKey(height exported.Height) []byte {
	return append(host.ConsensusStateKey(height), KeyProcessedHeight...)
}

// SetProcessedHeight stores the height at which a header was processed and the corresponding consensus state was created.
func SetProcessedHeight(clientStore sdk.KVStore, consHeight, processedHeight exported.Height) {
	clientStore.Set(ProcessedHeightKey(consHeight), []byte(processedHeight.String()))
}

// SetIterationKey stores the consensus state key under a key that is more efficient for ordered iteration
func SetIterationKey(clientStore sdk.KVStore, height exported.Height) {
	clientStore.Set(IterationKey(height), host.ConsensusStateKey(height))
}

// IterationKey returns the key under which the consensus state key will be stored.
// The iteration key is a BigEndian representation of the consensus state key to support efficient iteration.
func IterationKey(height exported.Height) []byte {
	heightBytes := bigEndianHeightBytes(height)
	return append([]byte(KeyIterateConsensusStatePrefix), heightBytes...)
}

// IterateConsensusStateHeights calls cb for every stored consensus height in ascending
// order until cb returns true.
func IterateConsensusStateHeights(clientStore sdk.KVStore, cb func(height Height) (stop bool)) {
	iterator := sdk.KVStorePrefixIterator(clientStore, []byte(KeyIterateConsensusStatePrefix))
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		key := iterator.Key()[len(KeyIterateConsensusStatePrefix):]
		if cb(heightFromBigEndian(key)) {
			break
		}
	}
}

// deleteConsensusState removes the consensus state and all of its metadata.
func deleteConsensusState(clientStore sdk.KVStore, height exported.Height) {
	clientStore.Delete(host.ConsensusStateKey(height))
	clientStore.Delete(ProcessedTimeKey(height))
	clientStore.Delete(ProcessedHeightKey(height))
	clientStore.Delete(IterationKey(height))
}

// PruneConsensusStates deletes the oldest consensus states until at most max remain.
// A max of 0 disables pruning. The number of pruned states is returned.
func PruneConsensusStates(clientStore sdk.KVStore, max uint64) int {
	if max == 0 {
		return 0
	}

	var heights []Height
	IterateConsensusStateHeights(clientStore, func(height Height) bool {
		heights = append(heights, height)
		return false
	})

	if uint64(len(heights)) <= max {
		return 0
	}

	excess := heights[:uint64(len(heights))-max]
	for _, height := range excess {
		deleteConsensusState(clientStore, height)
	}
	return len(excess)
}

// LatestConsensusHeight returns the greatest height with a stored consensus state.
func LatestConsensusHeight(clientStore sdk.KVStore) (Height, bool) {
	iterateStore := prefix.NewStore(clientStore, []byte(KeyIterateConsensusStatePrefix))
	iterator := iterateStore.ReverseIterator(nil, nil)
	defer iterator.Close()

	if !iterator.Valid() {
		return Height{}, false
	}
	return heightFromBigEndian(iterator.Key()), true
}
