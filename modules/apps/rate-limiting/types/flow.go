package types

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Flow is the amount of a denom that entered and left the chain since
// WindowStart.
type Flow struct {
	WindowStart time.Time `json:"window_start" yaml:"window_start"`
	Inflow      sdk.Int   `json:"inflow" yaml:"inflow"`
	Outflow     sdk.Int   `json:"outflow" yaml:"outflow"`
}

// NewFlow returns an empty flow whose window opens at start.
func NewFlow(start time.Time) Flow {
	return Flow{
		WindowStart: start,
		Inflow:      sdk.ZeroInt(),
		Outflow:     sdk.ZeroInt(),
	}
}

// Expired reports whether the window opened at WindowStart has elapsed at now.
func (f Flow) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(f.WindowStart.Add(window))
}

// Amount returns the flow recorded in the given direction.
func (f Flow) Amount(direction PacketDirection) sdk.Int {
	if direction == PACKET_RECV {
		return f.Inflow
	}
	return f.Outflow
}

// Add returns the flow with amount added in the given direction.
func (f Flow) Add(direction PacketDirection, amount sdk.Int) Flow {
	if direction == PACKET_RECV {
		f.Inflow = f.Inflow.Add(amount)
	} else {
		f.Outflow = f.Outflow.Add(amount)
	}
	return f
}

// Sub returns the flow with amount removed in the given direction, floored at zero.
func (f Flow) Sub(direction PacketDirection, amount sdk.Int) Flow {
	if direction == PACKET_RECV {
		f.Inflow = sdk.MaxInt(f.Inflow.Sub(amount), sdk.ZeroInt())
	} else {
		f.Outflow = sdk.MaxInt(f.Outflow.Sub(amount), sdk.ZeroInt())
	}
	return f
}
