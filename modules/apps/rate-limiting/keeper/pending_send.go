package keeper

import (
	"time"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
)

// SetPendingSendPacket records the block time a packet was sent at.
func (k Keeper) SetPendingSendPacket(ctx sdk.Context, channelID string, sequence uint64, sentAt time.Time) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.PendingSendPacketPrefix)
	store.Set(types.PendingSendPacketKey(channelID, sequence), sdk.FormatTimeBytes(sentAt))
}

// GetPendingSendPacket returns the block time a pending packet was sent at.
func (k Keeper) GetPendingSendPacket(ctx sdk.Context, channelID string, sequence uint64) (time.Time, bool) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.PendingSendPacketPrefix)
	bz := store.Get(types.PendingSendPacketKey(channelID, sequence))
	if len(bz) == 0 {
		return time.Time{}, false
	}
	sentAt, err := sdk.ParseTimeBytes(bz)
	if err != nil {
		panic(err)
	}
	return sentAt, true
}

// RemovePendingSendPacket forgets a pending packet once it was acknowledged or timed out.
func (k Keeper) RemovePendingSendPacket(ctx sdk.Context, channelID string, sequence uint64) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.PendingSendPacketPrefix)
	store.Delete(types.PendingSendPacketKey(channelID, sequence))
}
