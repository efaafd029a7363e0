package types

const (
	// DefaultSendEnabled enabled
	DefaultSendEnabled = true
	// DefaultReceiveEnabled enabled
	DefaultReceiveEnabled = true
)

// Params defines the set of IBC transfer parameters.
type Params struct {
	// SendEnabled enables or disables all cross-chain token transfers from this chain.
	SendEnabled bool `json:"send_enabled" yaml:"send_enabled"`
	// ReceiveEnabled enables or disables all cross-chain token transfers to this chain.
	ReceiveEnabled bool `json:"receive_enabled" yaml:"receive_enabled"`
}

// NewParams creates a new parameter configuration for the ibc transfer module
func NewParams(enableSend, enableReceive bool) Params {
	return Params{
		SendEnabled:    enableSend,
		ReceiveEnabled: enableReceive,
	}
}

// DefaultParams is the default parameter configuration for the ibc-transfer module
func DefaultParams() Params {
	return NewParams(DefaultSendEnabled, DefaultReceiveEnabled)
}
