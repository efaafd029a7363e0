package simulated

import (
	"context"
	"time"

	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// Connect creates the clients of a and b tracking each other.
func Connect(a, b *Chain) error {
	if _, err := a.CreateClient(b); err != nil {
		return err
	}
	_, err := b.CreateClient(a)
	return err
}

// InitConnection starts a connection handshake with counterparty over the
// clients of both chains. A relayer completes the handshake.
func (c *Chain) InitConnection(counterparty *Chain) (string, error) {
	version := connectiontypes.DefaultIBCVersion
	msg := connectiontypes.NewMsgConnectionOpenInit(
		c.ClientID(), counterparty.ClientID(), counterparty.CommitmentPrefix(),
		&version, 0, c.Signer(),
	)
	res, err := c.Deliver(msg)
	if err != nil {
		return "", err
	}
	return res[0].Identifier, nil
}

// InitChannel starts a channel handshake between portID and
// counterpartyPortID over connectionID. A relayer completes the handshake.
func (c *Chain) InitChannel(connectionID, portID, counterpartyPortID, version string, order channeltypes.Order) (string, error) {
	msg := channeltypes.NewMsgChannelOpenInit(portID, version, order, []string{connectionID}, counterpartyPortID, c.Signer())
	res, err := c.Deliver(msg)
	if err != nil {
		return "", err
	}
	return res[0].Identifier, nil
}

// ConnectionOpen reports whether connectionID completed its handshake.
func (c *Chain) ConnectionOpen(connectionID string) bool {
	connection, err := c.QueryConnection(context.Background(), connectionID)
	return err == nil && connection.State == connectiontypes.OPEN
}

// ChannelOpen reports whether the channel completed its handshake.
func (c *Chain) ChannelOpen(portID, channelID string) bool {
	channel, err := c.QueryChannel(context.Background(), portID, channelID)
	return err == nil && channel.State == channeltypes.OPEN
}

// Await polls cond every interval until it holds or ctx is done.
func Await(ctx context.Context, interval time.Duration, cond func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// OpenChannel starts a connection and a channel handshake on a and waits
// until a relayer opened both ends. It returns the channel ids on a and b.
func OpenChannel(
	ctx context.Context, a, b *Chain, portID, version string, order channeltypes.Order, interval time.Duration,
) (string, string, error) {
	connectionA, err := a.InitConnection(b)
	if err != nil {
		return "", "", err
	}
	if err := Await(ctx, interval, func() bool { return a.ConnectionOpen(connectionA) }); err != nil {
		return "", "", err
	}
	connection, err := a.QueryConnection(ctx, connectionA)
	if err != nil {
		return "", "", err
	}
	connectionB := connection.Counterparty.ConnectionID
	if err := Await(ctx, interval, func() bool { return b.ConnectionOpen(connectionB) }); err != nil {
		return "", "", err
	}

	channelA, err := a.InitChannel(connectionA, portID, portID, version, order)
	if err != nil {
		return "", "", err
	}
	if err := Await(ctx, interval, func() bool { return a.ChannelOpen(portID, channelA) }); err != nil {
		return "", "", err
	}
	channel, err := a.QueryChannel(ctx, portID, channelA)
	if err != nil {
		return "", "", err
	}
	channelB := channel.Counterparty.ChannelID
	if err := Await(ctx, interval, func() bool { return b.ChannelOpen(portID, channelB) }); err != nil {
		return "", "", err
	}
	return channelA, channelB, nil
}
