package types

import (
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// GenesisState defines the ibc-transfer genesis state
type GenesisState struct {
	PortID string `json:"port_id" yaml:"port_id"`
	Params Params `json:"params" yaml:"params"`
}

// NewGenesisState creates a new ibc-transfer GenesisState instance.
func NewGenesisState(portID string, params Params) *GenesisState {
	return &GenesisState{
		PortID: portID,
		Params: params,
	}
}

// DefaultGenesisState returns a GenesisState with "transfer" as the default PortID.
func DefaultGenesisState() *GenesisState {
	return &GenesisState{
		PortID: PortID,
		Params: DefaultParams(),
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	return host.PortIdentifierValidator(gs.PortID)
}
