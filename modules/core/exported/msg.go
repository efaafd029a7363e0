package exported

// Msg is a message understood by the IBC handler. Messages are delivered in
// batches and each one is executed atomically.
type Msg interface {
	// Type returns a short name of the message used in events and logs.
	Type() string

	// ValidateBasic performs stateless validation.
	ValidateBasic() error

	// GetSigner returns the address of the account that submitted the message.
	GetSigner() string
}
