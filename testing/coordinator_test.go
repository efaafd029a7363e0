package ibctesting_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	"github.com/ComposableFi/centauri/modules/core/exported"
	grandpatypes "github.com/ComposableFi/centauri/modules/light-clients/10-grandpa/types"
	beefytypes "github.com/ComposableFi/centauri/modules/light-clients/11-beefy/types"
	ibctesting "github.com/ComposableFi/centauri/testing"
	"github.com/ComposableFi/centauri/testing/simulation"
)

func TestSetupGrandpaPath(t *testing.T) {
	coord := ibctesting.NewCoordinator(t, 2)
	chainA := coord.GetChain(ibctesting.GetChainID(1))
	chainB := coord.GetChain(ibctesting.GetChainID(2))

	path := ibctesting.NewPath(chainA, chainB)
	path.Setup()

	require.Equal(t, ibctesting.FirstClientID, path.EndpointA.ClientID)
	require.Equal(t, ibctesting.FirstConnectionID, path.EndpointA.ConnectionID)
	require.Equal(t, ibctesting.FirstChannelID, path.EndpointA.ChannelID)
	require.Equal(t, channeltypes.OPEN, path.EndpointA.GetChannel().State)
	require.Equal(t, channeltypes.OPEN, path.EndpointB.GetChannel().State)

	clientState, ok := path.EndpointA.GetClientState().(*grandpatypes.ClientState)
	require.True(t, ok)
	require.Equal(t, chainB.ParaID, clientState.ParaID)
	require.Equal(t, exported.Active, chainA.App.IBCKeeper.ClientKeeper.GetClientStatus(chainA.GetContext(), path.EndpointA.ClientID))
}

func TestSetupBeefyPath(t *testing.T) {
	coord := ibctesting.NewCoordinator(t, 2)
	chainA := coord.GetChain(ibctesting.GetChainID(1))
	chainB := coord.GetChain(ibctesting.GetChainID(2))

	path := ibctesting.NewBeefyPath(chainA, chainB)
	path.Setup()

	require.Equal(t, ibctesting.FirstBeefyID, path.EndpointA.ClientID)
	_, ok := path.EndpointB.GetClientState().(*beefytypes.ClientState)
	require.True(t, ok)
	require.Equal(t, channeltypes.OPEN, path.EndpointB.GetChannel().State)
}

func TestRelayMockPacket(t *testing.T) {
	for _, newPath := range []func(a, b *ibctesting.TestChain) *ibctesting.Path{
		ibctesting.NewPath, ibctesting.NewBeefyPath,
	} {
		coord := ibctesting.NewCoordinator(t, 2)
		path := newPath(coord.GetChain(ibctesting.GetChainID(1)), coord.GetChain(ibctesting.GetChainID(2)))
		path.Setup()

		timeoutHeight := path.EndpointB.Chain.GetTimeoutHeight()
		sequence, err := path.EndpointA.SendPacket(timeoutHeight, 0, ibctesting.MockPacketData)
		require.NoError(t, err)

		packet := channeltypes.NewPacket(
			ibctesting.MockPacketData, sequence,
			path.EndpointA.ChannelConfig.PortID, path.EndpointA.ChannelID,
			path.EndpointB.ChannelConfig.PortID, path.EndpointB.ChannelID,
			timeoutHeight, 0,
		)
		res, ack, err := path.RelayPacketWithResults(packet)
		require.NoError(t, err)
		require.True(t, res.Succeeded())
		require.Equal(t, ibctesting.MockAcknowledgement, ack)

		commitment := path.EndpointA.Chain.App.IBCKeeper.ChannelKeeper.GetPacketCommitment(
			path.EndpointA.Chain.GetContext(), packet.GetSourcePort(), packet.GetSourceChannel(), sequence,
		)
		require.Empty(t, commitment)
	}
}

func TestUpdateClientAcrossAuthorityChange(t *testing.T) {
	coord := ibctesting.NewCoordinator(t, 2)
	chainA := coord.GetChain(ibctesting.GetChainID(1))
	chainB := coord.GetChain(ibctesting.GetChainID(2))

	path := ibctesting.NewPath(chainA, chainB)
	path.SetupClients()

	before := path.EndpointA.GetClientState().(*grandpatypes.ClientState)

	chainB.Relay.ScheduleAuthorityChange(simulation.NewVoterSet("rotated", ibctesting.RelayVoters))
	coord.CommitNBlocks(chainB, 3)

	require.NoError(t, path.EndpointA.UpdateClient())

	after := path.EndpointA.GetClientState().(*grandpatypes.ClientState)
	require.Equal(t, before.CurrentSetID+1, after.CurrentSetID)
	require.Equal(t, chainB.Relay.LatestBlock().Number(), after.LatestRelayHeight)
	require.Equal(t, chainB.Parachain.LatestBlock().Number(), after.LatestParaHeight)
}
