package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
)

// Timeout is the height and timestamp after which a packet can no longer be received.
// Either may be zero, meaning that bound is disabled.
type Timeout struct {
	Height    clienttypes.Height
	Timestamp uint64
}

// NewTimeout returns a new Timeout instance.
func NewTimeout(height clienttypes.Height, timestamp uint64) Timeout {
	return Timeout{
		Height:    height,
		Timestamp: timestamp,
	}
}

// IsValid returns true if either the height or timestamp is non-zero
func (t Timeout) IsValid() bool {
	return !t.Height.IsZero() || t.Timestamp != 0
}

// Elapsed returns true if either the provided height or timestamp is past the
// respective absolute timeout values.
func (t Timeout) Elapsed(height clienttypes.Height, timestamp uint64) bool {
	return t.heightElapsed(height) || t.timestampElapsed(timestamp)
}

// ErrTimeoutElapsed returns a timeout elapsed error indicating which timeout value
// has elapsed.
func (t Timeout) ErrTimeoutElapsed(height clienttypes.Height, timestamp uint64) error {
	if t.heightElapsed(height) {
		return sdkerrors.Wrapf(ErrPacketTimeout, "current height: %s, timeout height %s", height, t.Height)
	}

	return sdkerrors.Wrapf(ErrPacketTimeout, "current timestamp: %d, timeout timestamp %d", timestamp, t.Timestamp)
}

// ErrTimeoutNotReached returns a timeout not reached error indicating which timeout value
// has not been reached.
func (t Timeout) ErrTimeoutNotReached(height clienttypes.Height, timestamp uint64) error {
	// only return height information if the height is set
	// t.heightElapsed() will return false when it is empty
	if !t.Height.IsZero() && !t.heightElapsed(height) {
		return sdkerrors.Wrapf(ErrTimeoutNotReached, "current height: %s, timeout height %s", height, t.Height)
	}

	return sdkerrors.Wrapf(ErrTimeoutNotReached, "current timestamp: %d, timeout timestamp %d", timestamp, t.Timestamp)
}

// heightElapsed returns true if the timeout height is non empty
// and the timeout height is less than or equal to the provided height.
// A timeout height without revision compares block numbers only.
func (t Timeout) heightElapsed(height clienttypes.Height) bool {
	if t.Height.IsZero() {
		return false
	}
	if t.Height.RevisionNumber == 0 {
		return height.RevisionHeight >= t.Height.RevisionHeight
	}
	return height.GTE(t.Height)
}

// timestampElapsed returns true if the timeout timestamp is non empty
// and the timeout timestamp is less than or equal to the provided timestamp.
func (t Timeout) timestampElapsed(timestamp uint64) bool {
	if t.Timestamp == 0 {
		return false
	}

	return timestamp >= t.Timestamp
}
