package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// SpawnStatus is the lifecycle state of a spawn packet.
type SpawnStatus uint8

const (
	// SpawnEmitted packets were sent and await their acknowledgement.
	SpawnEmitted SpawnStatus = iota + 1
	// SpawnAcknowledged packets were acknowledged; Success tells the outcome.
	SpawnAcknowledged
	// SpawnSettled packets are final after an acknowledgement.
	SpawnSettled
	// SpawnTimedOut packets timed out before being received.
	SpawnTimedOut
	// SpawnRefunded packets are final after a timeout returned the funds.
	SpawnRefunded
)

func (s SpawnStatus) String() string {
	switch s {
	case SpawnEmitted:
		return "emitted"
	case SpawnAcknowledged:
		return "acknowledged"
	case SpawnSettled:
		return "settled"
	case SpawnTimedOut:
		return "timed_out"
	case SpawnRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// SpawnRecord tracks one packet emitted by a Spawn instruction.
type SpawnRecord struct {
	ChannelID   string            `json:"channel_id"`
	Sequence    uint64            `json:"sequence"`
	Network     NetworkID         `json:"network"`
	Interpreter string            `json:"interpreter"`
	Origin      InterpreterOrigin `json:"origin"`
	Denom       string            `json:"denom"`
	Amount      sdk.Int           `json:"amount"`
	Status      SpawnStatus       `json:"status"`
	Success     bool              `json:"success"`
}

// Final reports whether the record reached a terminal state.
func (r SpawnRecord) Final() bool {
	return r.Status == SpawnSettled || r.Status == SpawnRefunded
}
