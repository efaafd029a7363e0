package types

// GenesisState defines the rate limiting genesis state
type GenesisState struct {
	Params Params `json:"params" yaml:"params"`
}

// DefaultGenesisState returns the default rate limiting genesis state.
func DefaultGenesisState() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	return gs.Params.Validate()
}
