package types

import (
	"fmt"
	"strings"

	"github.com/ComposableFi/centauri/modules/core/exported"
)

// DefaultMaxConsensusStates is the default number of consensus states retained per client.
const DefaultMaxConsensusStates = 256

// Params defines the set of IBC light client parameters.
type Params struct {
	// AllowedClients defines the list of allowed client state types.
	AllowedClients []string `json:"allowed_clients" yaml:"allowed_clients"`
	// MaxConsensusStates bounds the consensus states kept per client. 0 keeps all of them.
	MaxConsensusStates uint64 `json:"max_consensus_states" yaml:"max_consensus_states"`
}

// NewParams creates a new parameter configuration for the ibc client module
func NewParams(maxConsensusStates uint64, allowedClients ...string) Params {
	return Params{
		AllowedClients:     allowedClients,
		MaxConsensusStates: maxConsensusStates,
	}
}

// DefaultParams is the default parameter configuration for the ibc-client module.
func DefaultParams() Params {
	return NewParams(DefaultMaxConsensusStates, exported.Grandpa, exported.Beefy)
}

// Validate all ibc-client module parameters
func (p Params) Validate() error {
	return validateClients(p.AllowedClients)
}

// IsAllowedClient checks if the given client type is registered on the allowlist.
func (p Params) IsAllowedClient(clientType string) bool {
	for _, allowedClient := range p.AllowedClients {
		if allowedClient == clientType {
			return true
		}
	}
	return false
}

func validateClients(clients []string) error {
	for i, clientType := range clients {
		if strings.TrimSpace(clientType) == "" {
			return fmt.Errorf("client type %d cannot be blank", i)
		}
	}
	return nil
}
