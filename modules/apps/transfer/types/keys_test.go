package types_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/centauri/modules/apps/transfer/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

func TestGetEscrowAddress(t *testing.T) {
	preImage := append([]byte("ics20-1\x00"), []byte("transfer/channel-0")...)
	hash := sha256.Sum256(preImage)

	require.Equal(t, hash[:20], []byte(types.GetEscrowAddress("transfer", "channel-0")))
	require.NotEqual(t, types.GetEscrowAddress("transfer", "channel-0"), types.GetEscrowAddress("transfer", "channel-1"))
	// identifiers cannot contain the separator, so port and channel stay apart
	require.Error(t, host.PortIdentifierValidator("transfer/a"))
	require.Error(t, host.ChannelIdentifierValidator("a/b"))
}
