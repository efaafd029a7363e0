package types

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// DefaultWindow is the length of a quota window when none is configured.
const DefaultWindow = 24 * time.Hour

// Cap bounds the amount of a denom that may flow in each direction within a
// window. A missing bound leaves that direction unlimited.
type Cap struct {
	Denom      string   `json:"denom" yaml:"denom"`
	MaxOutflow *sdk.Int `json:"max_outflow,omitempty" yaml:"max_outflow"`
	MaxInflow  *sdk.Int `json:"max_inflow,omitempty" yaml:"max_inflow"`
}

// NewCap creates a new Cap instance. Pass a nil sdk.Int to leave a direction
// unlimited.
func NewCap(denom string, maxOutflow, maxInflow sdk.Int) Cap {
	return Cap{
		Denom:      denom,
		MaxOutflow: boundOf(maxOutflow),
		MaxInflow:  boundOf(maxInflow),
	}
}

// Max returns the bound for the given direction and whether one is set.
func (c Cap) Max(direction PacketDirection) (sdk.Int, bool) {
	bound := c.MaxOutflow
	if direction == PACKET_RECV {
		bound = c.MaxInflow
	}
	if bound == nil || bound.IsNil() {
		return sdk.Int{}, false
	}
	return *bound, true
}

func boundOf(amount sdk.Int) *sdk.Int {
	if amount.IsNil() {
		return nil
	}
	return &amount
}

// Params defines the rate limiting parameters. Denoms without a cap are
// unlimited.
type Params struct {
	Window time.Duration `json:"window" yaml:"window"`
	Caps   []Cap         `json:"caps" yaml:"caps"`
}

// NewParams creates a new Params instance
func NewParams(window time.Duration, caps ...Cap) Params {
	return Params{
		Window: window,
		Caps:   caps,
	}
}

// DefaultParams returns a window of DefaultWindow without caps.
func DefaultParams() Params {
	return NewParams(DefaultWindow)
}

// GetCap returns the cap configured for denom.
func (p Params) GetCap(denom string) (Cap, bool) {
	for _, c := range p.Caps {
		if c.Denom == denom {
			return c, true
		}
	}
	return Cap{}, false
}

// Validate checks the window is positive, every denom is capped at most once
// and every bound is non-negative.
func (p Params) Validate() error {
	if p.Window <= 0 {
		return sdkerrors.Wrapf(ErrInvalidParams, "window must be positive (got %s)", p.Window)
	}
	seen := make(map[string]bool, len(p.Caps))
	for _, c := range p.Caps {
		if err := sdk.ValidateDenom(c.Denom); err != nil {
			return sdkerrors.Wrap(ErrInvalidParams, err.Error())
		}
		if seen[c.Denom] {
			return sdkerrors.Wrapf(ErrInvalidParams, "duplicate cap for %s", c.Denom)
		}
		seen[c.Denom] = true
		for _, direction := range []PacketDirection{PACKET_SEND, PACKET_RECV} {
			if bound, ok := c.Max(direction); ok && bound.IsNegative() {
				return sdkerrors.Wrapf(ErrInvalidParams, "%s bound for %s is negative", direction, c.Denom)
			}
		}
	}
	return nil
}
