package types

import (
	"errors"

	sdk "github.com/cosmos/cosmos-sdk/types"

	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// Result is the outcome of delivering one message. A failed message carries
// its error and leaves no state behind.
type Result struct {
	MsgType string
	// Identifier is the client, connection or channel created by the message, if any.
	Identifier string
	// Sequence is set for packet receipts.
	Sequence uint64
	Events   sdk.Events
	Err      error
}

// Succeeded returns true when the message was applied.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// AlreadyRelayed returns true when the message failed only because another
// relayer delivered it first.
func (r Result) AlreadyRelayed() bool {
	return errors.Is(r.Err, channeltypes.ErrAlreadyRelayed)
}

// Results is the outcome of a batch of messages, in submission order.
type Results []Result

// Err returns the first error in results that is not a benign relay race.
func (results Results) Err() error {
	for _, res := range results {
		if res.Err != nil && !res.AlreadyRelayed() {
			return res.Err
		}
	}
	return nil
}
