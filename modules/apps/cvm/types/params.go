package types

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

const (
	// DefaultInterpreterCodeID is the code id interpreters are derived from.
	DefaultInterpreterCodeID uint64 = 1

	// DefaultSpawnTimeout is the relative timestamp timeout of spawn packets.
	DefaultSpawnTimeout = 10 * time.Minute
)

// Params defines the gateway parameters.
type Params struct {
	// Admin may register networks and assets and pause the gateway. An empty
	// admin leaves registry writes to governance only.
	Admin string `json:"admin" yaml:"admin"`
	// Paused rejects program execution.
	Paused bool `json:"paused" yaml:"paused"`
	// Network is the identifier of this chain.
	Network NetworkID `json:"network" yaml:"network"`
	// InterpreterCodeID seeds the derivation of interpreter addresses.
	InterpreterCodeID uint64 `json:"interpreter_code_id" yaml:"interpreter_code_id"`
	// SpawnTimeout bounds the lifetime of spawn packets.
	SpawnTimeout time.Duration `json:"spawn_timeout" yaml:"spawn_timeout"`
}

// NewParams creates a new Params instance
func NewParams(admin string, network NetworkID, codeID uint64, spawnTimeout time.Duration) Params {
	return Params{
		Admin:             admin,
		Network:           network,
		InterpreterCodeID: codeID,
		SpawnTimeout:      spawnTimeout,
	}
}

// DefaultParams returns the parameters of network 1 without an admin.
func DefaultParams() Params {
	return NewParams("", 1, DefaultInterpreterCodeID, DefaultSpawnTimeout)
}

// Validate performs basic validation of the parameters.
func (p Params) Validate() error {
	if p.Admin != "" {
		if _, err := sdk.AccAddressFromBech32(p.Admin); err != nil {
			return sdkerrors.Wrapf(ErrInvalidParams, "invalid admin %s: %v", p.Admin, err)
		}
	}
	if p.Network == 0 {
		return sdkerrors.Wrap(ErrInvalidParams, "network cannot be zero")
	}
	if p.SpawnTimeout <= 0 {
		return sdkerrors.Wrap(ErrInvalidParams, "spawn timeout must be positive")
	}
	return nil
}
