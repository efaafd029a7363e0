package types

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ChannelKeeper defines the expected IBC channel keeper
type ChannelKeeper interface {
	GetNextSequenceSend(ctx sdk.Context, portID, channelID string) (uint64, bool)
}

// RateLimiter decides whether amount of denom may flow in direction and
// records the flow when it is allowed. Revert gives back a flow recorded at
// recordedAt.
type RateLimiter interface {
	CheckAndUpdate(ctx sdk.Context, denom string, amount sdk.Int, direction PacketDirection) error
	Revert(ctx sdk.Context, denom string, amount sdk.Int, direction PacketDirection, recordedAt time.Time)
}
