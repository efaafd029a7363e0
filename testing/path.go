package ibctesting

import (
	"bytes"
	"fmt"

	"github.com/stretchr/testify/require"

	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	coretypes "github.com/ComposableFi/centauri/modules/core/types"
)

// Path contains two endpoints representing two chains connected over IBC
type Path struct {
	EndpointA *Endpoint
	EndpointB *Endpoint
}

// NewPath constructs an endpoint for each chain using the default values
// for the endpoints. Each endpoint is updated to have a pointer to the
// counterparty endpoint.
func NewPath(chainA, chainB *TestChain) *Path {
	endpointA := NewDefaultEndpoint(chainA)
	endpointB := NewDefaultEndpoint(chainB)

	endpointA.Counterparty = endpointB
	endpointB.Counterparty = endpointA

	return &Path{
		EndpointA: endpointA,
		EndpointB: endpointB,
	}
}

// NewTransferPath constructs a new path between each chain suitable for use with
// the transfer module.
func NewTransferPath(chainA, chainB *TestChain) *Path {
	path := NewPath(chainA, chainB)
	path.EndpointA.ChannelConfig.PortID = TransferPort
	path.EndpointB.ChannelConfig.PortID = TransferPort

	path.EndpointA.ChannelConfig.Version = TransferVersion
	path.EndpointB.ChannelConfig.Version = TransferVersion

	return path
}

// NewBeefyPath constructs a path whose endpoints track each other with BEEFY
// clients.
func NewBeefyPath(chainA, chainB *TestChain) *Path {
	path := NewPath(chainA, chainB)
	path.EndpointA.ClientConfig = NewBeefyConfig()
	path.EndpointB.ClientConfig = NewBeefyConfig()

	return path
}

// SetChannelOrdered sets the channel order for both endpoints to ORDERED.
func (path *Path) SetChannelOrdered() {
	path.EndpointA.ChannelConfig.Order = channeltypes.ORDERED
	path.EndpointB.ChannelConfig.Order = channeltypes.ORDERED
}

// RelayPacket attempts to relay the packet first on EndpointA and then on EndpointB
// if EndpointA does not contain a packet commitment for that packet. An error is returned
// if a relay step fails or the packet commitment does not exist on either endpoint.
func (path *Path) RelayPacket(packet channeltypes.Packet) error {
	_, _, err := path.RelayPacketWithResults(packet)
	return err
}

// RelayPacketWithResults attempts to relay the packet first on EndpointA and then on EndpointB
// if EndpointA does not contain a packet commitment for that packet. The function returns:
// - The result of the packet receive transaction.
// - The acknowledgement written on the receiving chain.
// - An error if a relay step fails or the packet commitment does not exist on either endpoint.
func (path *Path) RelayPacketWithResults(packet channeltypes.Packet) (res coretypes.Result, ack []byte, err error) {
	pc := path.EndpointA.Chain.App.IBCKeeper.ChannelKeeper.GetPacketCommitment(path.EndpointA.Chain.GetContext(), packet.GetSourcePort(), packet.GetSourceChannel(), packet.GetSequence())
	if bytes.Equal(pc, channeltypes.CommitPacket(packet)) {
		// packet found, relay from A to B
		return relayPacket(path.EndpointA, path.EndpointB, packet)
	}

	pc = path.EndpointB.Chain.App.IBCKeeper.ChannelKeeper.GetPacketCommitment(path.EndpointB.Chain.GetContext(), packet.GetSourcePort(), packet.GetSourceChannel(), packet.GetSequence())
	if bytes.Equal(pc, channeltypes.CommitPacket(packet)) {
		// packet found, relay B to A
		return relayPacket(path.EndpointB, path.EndpointA, packet)
	}

	return coretypes.Result{}, nil, fmt.Errorf("packet commitment does not exist on either endpoint for provided packet")
}

// relayPacket receives packet on dst and acknowledges it on src. The result
// of the receive is returned with the written acknowledgement.
func relayPacket(src, dst *Endpoint, packet channeltypes.Packet) (coretypes.Result, []byte, error) {
	if err := dst.UpdateClient(); err != nil {
		return coretypes.Result{}, nil, err
	}

	res, err := dst.RecvPacketWithResult(packet)
	if err != nil {
		return res, nil, err
	}

	ack, err := ParseAckFromEvents(res.Events)
	if err != nil {
		return res, nil, err
	}

	if err := src.AcknowledgePacket(packet, ack); err != nil {
		return res, nil, err
	}

	return res, ack, nil
}

// Setup constructs a GRANDPA or BEEFY client, connection, and channel on both chains provided. It will
// fail if any error occurs.
func (path *Path) Setup() {
	path.SetupConnections()

	// channels can also be referenced through the returned connections
	path.CreateChannels()
}

// SetupClients is a helper function to create clients on both chains. It assumes the
// caller does not anticipate any errors.
func (path *Path) SetupClients() {
	err := path.EndpointA.CreateClient()
	require.NoError(path.EndpointA.Chain.TB, err)

	err = path.EndpointB.CreateClient()
	require.NoError(path.EndpointB.Chain.TB, err)
}

// SetupConnections is a helper function to create clients and the appropriate
// connections on both the source and counterparty chain. It assumes the caller does not
// anticipate any errors.
func (path *Path) SetupConnections() {
	path.SetupClients()

	path.CreateConnections()
}

// CreateConnections constructs and executes connection handshake messages in order to create
// OPEN connections on chainA and chainB. The function expects the connections to be
// successfully opened otherwise testing will fail.
func (path *Path) CreateConnections() {
	err := path.EndpointA.ConnOpenInit()
	require.NoError(path.EndpointA.Chain.TB, err)

	err = path.EndpointB.ConnOpenTry()
	require.NoError(path.EndpointB.Chain.TB, err)

	err = path.EndpointA.ConnOpenAck()
	require.NoError(path.EndpointA.Chain.TB, err)

	err = path.EndpointB.ConnOpenConfirm()
	require.NoError(path.EndpointB.Chain.TB, err)

	// ensure counterparty is up to date
	err = path.EndpointA.UpdateClient()
	require.NoError(path.EndpointA.Chain.TB, err)
}

// CreateChannels constructs and executes channel handshake messages in order to create
// OPEN channels on chainA and chainB. The function expects the channels to be
// successfully opened otherwise testing will fail.
func (path *Path) CreateChannels() {
	err := path.EndpointA.ChanOpenInit()
	require.NoError(path.EndpointA.Chain.TB, err)

	err = path.EndpointB.ChanOpenTry()
	require.NoError(path.EndpointB.Chain.TB, err)

	err = path.EndpointA.ChanOpenAck()
	require.NoError(path.EndpointA.Chain.TB, err)

	err = path.EndpointB.ChanOpenConfirm()
	require.NoError(path.EndpointB.Chain.TB, err)

	// ensure counterparty is up to date
	err = path.EndpointA.UpdateClient()
	require.NoError(path.EndpointA.Chain.TB, err)
}
