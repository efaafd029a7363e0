package ibctesting

import (
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	"github.com/ComposableFi/centauri/testing/mock"
)

type ClientConfig interface {
	GetClientType() string
}

// GrandpaConfig creates GRANDPA clients of the counterparty parachain.
type GrandpaConfig struct {
	// ChainID is recorded in the client state. The counterparty chain id is
	// used when empty.
	ChainID string
}

func NewGrandpaConfig() *GrandpaConfig {
	return &GrandpaConfig{}
}

func (*GrandpaConfig) GetClientType() string {
	return exported.Grandpa
}

// BeefyConfig creates BEEFY clients of the counterparty parachain.
type BeefyConfig struct{}

func NewBeefyConfig() *BeefyConfig {
	return &BeefyConfig{}
}

func (*BeefyConfig) GetClientType() string {
	return exported.Beefy
}

type ConnectionConfig struct {
	DelayPeriod uint64
	Version     *connectiontypes.Version
}

func NewConnectionConfig() *ConnectionConfig {
	version := ConnectionVersion
	return &ConnectionConfig{
		DelayPeriod: DefaultDelayPeriod,
		Version:     &version,
	}
}

type ChannelConfig struct {
	PortID  string
	Version string
	Order   channeltypes.Order
}

func NewChannelConfig() *ChannelConfig {
	return &ChannelConfig{
		PortID:  mock.PortID,
		Version: DefaultChannelVersion,
		Order:   channeltypes.UNORDERED,
	}
}
