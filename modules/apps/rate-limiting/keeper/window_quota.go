package keeper

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
)

var _ types.RateLimiter = WindowQuota{}

// WindowQuota caps the flow of each denom over a window of block time. The
// window opens with the first flow of a denom and the counters restart once
// it has elapsed.
type WindowQuota struct {
	keeper *Keeper
}

// NewWindowQuota returns a WindowQuota backed by the keeper's store and params.
func NewWindowQuota(k *Keeper) WindowQuota {
	return WindowQuota{keeper: k}
}

// CheckAndUpdate records amount in the flow of denom, or returns
// ErrQuotaExceeded when the cap for direction would be passed.
func (q WindowQuota) CheckAndUpdate(ctx sdk.Context, denom string, amount sdk.Int, direction types.PacketDirection) error {
	params := q.keeper.GetParams(ctx)
	limit, found := params.GetCap(denom)
	if !found {
		return nil
	}
	max, ok := limit.Max(direction)
	if !ok {
		return nil
	}

	flow := q.currentFlow(ctx, denom, params.Window)
	updated := flow.Add(direction, amount)
	if updated.Amount(direction).GT(max) {
		return sdkerrors.Wrapf(
			types.ErrQuotaExceeded,
			"%s of %s%s would pass the cap of %s (already %s since %s)",
			direction, amount, denom, max, flow.Amount(direction), flow.WindowStart.UTC().Format(time.RFC3339),
		)
	}

	q.keeper.SetFlow(ctx, denom, updated)
	return nil
}

// Revert removes amount from the flow of denom when it was recorded in the
// current window. Flows from an elapsed window are already forgotten.
func (q WindowQuota) Revert(ctx sdk.Context, denom string, amount sdk.Int, direction types.PacketDirection, recordedAt time.Time) {
	flow, found := q.keeper.GetFlow(ctx, denom)
	if !found {
		return
	}
	window := q.keeper.GetParams(ctx).Window
	if flow.Expired(ctx.BlockTime(), window) || recordedAt.Before(flow.WindowStart) {
		return
	}
	q.keeper.SetFlow(ctx, denom, flow.Sub(direction, amount))
}

func (q WindowQuota) currentFlow(ctx sdk.Context, denom string, window time.Duration) types.Flow {
	flow, found := q.keeper.GetFlow(ctx, denom)
	if !found || flow.Expired(ctx.BlockTime(), window) {
		return types.NewFlow(ctx.BlockTime())
	}
	return flow
}
