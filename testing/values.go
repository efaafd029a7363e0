/*
This file contains the variables, constants, and default values
used in the testing package and commonly defined in tests.
*/
package ibctesting

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	"github.com/ComposableFi/centauri/testing/mock"
)

const (
	FirstClientID     = "10-grandpa-0"
	FirstBeefyID      = "11-beefy-0"
	FirstChannelID    = "channel-0"
	FirstConnectionID = "connection-0"

	// ParaIDOffset is added to the chain index to derive its parachain id.
	ParaIDOffset = 2000

	// relay chains of test chains are finalized by these many voters
	RelayVoters     = 4
	BeefyValidators = 4

	DefaultDelayPeriod uint64 = 0

	DefaultChannelVersion = mock.Version
	InvalidID             = "IDisInvalid"

	// Application Ports
	TransferPort = transfertypes.PortID
	MockPort     = mock.ModuleName

	TransferVersion = transfertypes.Version

	// NativeDenom is the denomination funded to sender accounts at genesis.
	NativeDenom = "ppica"

	// SenderAccounts is the number of funded accounts of every test chain.
	SenderAccounts = 3
)

var (
	DefaultGenesisAccBalance = sdk.NewIntWithDecimal(1, 18)

	ConnectionVersion = connectiontypes.DefaultIBCVersion

	// DefaultTimeoutHeightDelta is added to the counterparty client height
	// for packets sent without an explicit timeout.
	DefaultTimeoutHeightDelta uint64 = 1000

	MockAcknowledgement = mock.MockAcknowledgement.Acknowledgement()
	MockPacketData      = mock.MockPacketData
	MockFailPacketData  = mock.MockFailPacketData
)
