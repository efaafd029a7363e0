package relayer

import (
	"sync"

	"github.com/gammazero/deque"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
)

// pendingTimeout is a packet its destination will never receive.
type pendingTimeout struct {
	packet   channeltypes.Packet
	ordering channeltypes.Order
}

func (p pendingTimeout) elapsed(height clienttypes.Height, timestamp uint64) bool {
	return channeltypes.NewTimeout(p.packet.TimeoutHeight, p.packet.TimeoutTimestamp).Elapsed(height, timestamp)
}

// timeoutQueue holds the packets of a chain waiting for the finalized state
// of their destination to prove the timeout. Packets are kept in the order
// they were queued.
type timeoutQueue struct {
	mu      sync.Mutex
	packets deque.Deque
}

func (q *timeoutQueue) push(packets ...pendingTimeout) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range packets {
		q.packets.PushBack(p)
	}
}

// popElapsed removes and returns the packets timed out at height and
// timestamp of their destination.
func (q *timeoutQueue) popElapsed(height clienttypes.Height, timestamp uint64) []pendingTimeout {
	q.mu.Lock()
	defer q.mu.Unlock()

	var elapsed []pendingTimeout
	for n := q.packets.Len(); n > 0; n-- {
		p := q.packets.PopFront().(pendingTimeout)
		if p.elapsed(height, timestamp) {
			elapsed = append(elapsed, p)
			continue
		}
		q.packets.PushBack(p)
	}
	return elapsed
}

func (q *timeoutQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.packets.Len()
}
