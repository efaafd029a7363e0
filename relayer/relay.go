package relayer

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"

	"github.com/ComposableFi/centauri/modules/core/exported"
)

// DefaultDedupeExpiry is how long a relayed message is remembered.
const DefaultDedupeExpiry = 10 * time.Minute

type options struct {
	logger       log.Logger
	metrics      *Metrics
	dedupeExpiry time.Duration
}

// Option sets an optional parameter of Relay.
type Option func(*options)

// WithLogger sets the logger of the relayer.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics of the relayer.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// WithDedupeExpiry sets how long relayed messages are remembered so they are
// not submitted twice.
func WithDedupeExpiry(expiry time.Duration) Option {
	return func(o *options) { o.dedupeExpiry = expiry }
}

// Relay relays IBC messages between a and b until ctx is done or the
// finality stream of a chain ends. Each direction runs on its own goroutine
// and submits its batches sequentially.
func Relay(ctx context.Context, a, b Chain, opts ...Option) error {
	o := options{
		logger:       log.NewNopLogger(),
		metrics:      NopMetrics(),
		dedupeExpiry: DefaultDedupeExpiry,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ab := newPipe(a, b, o)
	ba := newPipe(b, a, o)
	ab.expired, ba.expired = ba.timeouts, ab.timeouts

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ab.run(ctx) })
	g.Go(func() error { return ba.run(ctx) })
	return g.Wait()
}

// pipe relays the state of src to dst.
type pipe struct {
	src, dst Chain
	logger   log.Logger
	metrics  *Metrics

	// timeouts holds packets sent by dst that src will not receive.
	timeouts *timeoutQueue
	// expired is the timeouts queue of the reverse pipe.
	expired *timeoutQueue
	// relayed remembers the messages submitted to dst.
	relayed      *cache.Cache
	dedupeExpiry time.Duration
}

func newPipe(src, dst Chain, o options) *pipe {
	return &pipe{
		src:          src,
		dst:          dst,
		logger:       o.logger.With("module", "relayer", "src", src.Name(), "dst", dst.Name()),
		metrics:      o.metrics,
		timeouts:     &timeoutQueue{},
		relayed:      cache.New(o.dedupeExpiry, 0),
		dedupeExpiry: o.dedupeExpiry,
	}
}

func (p *pipe) run(ctx context.Context) error {
	finality, err := p.src.FinalityNotifications(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe to finality of %s", p.src.Name())
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-finality:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Errorf("finality stream of %s closed", p.src.Name())
			}

			p.metrics.FinalityEvents.With("chain", p.src.Name()).Add(1)
			if err := p.relay(ctx, event); err != nil {
				p.logger.Error("failed to relay", "relay_height", event.RelayHeight, "height", event.Height, "err", err)
			}
			p.relayed.DeleteExpired()
		}
	}
}

// relay submits to dst the messages the finalized state of src calls for.
func (p *pipe) relay(ctx context.Context, finality FinalityEvent) error {
	update, events, kind, err := p.src.QueryLatestIBCEvents(ctx, finality, p.dst)
	if err != nil {
		return errors.Wrap(err, "failed to query events")
	}

	var (
		msgs []exported.Msg
		keys []string
	)
	for _, event := range events {
		msg, key, err := p.translate(ctx, event, update)
		if err != nil {
			p.logger.Error("failed to translate event", "event", event.EventType(), "err", err)
			continue
		}
		if msg == nil {
			continue
		}
		if _, found := p.relayed.Get(key); found {
			p.logger.Debug("skipping relayed message", "key", key)
			continue
		}
		msgs = append(msgs, msg)
		keys = append(keys, key)
	}

	var timeouts []pendingTimeout
	for _, pending := range p.timeouts.popElapsed(update.Height, update.Timestamp) {
		msg, err := p.timeoutMsg(ctx, pending, update)
		if err != nil {
			p.logger.Error("failed to build timeout", "sequence", pending.packet.Sequence, "err", err)
			p.timeouts.push(pending)
			continue
		}
		if msg != nil {
			msgs = append(msgs, msg)
			timeouts = append(timeouts, pending)
		}
	}
	p.metrics.PendingTimeouts.With("chain", p.dst.Name()).Set(float64(p.timeouts.len()))

	if len(msgs) == 0 && kind == UpdateOptional {
		return nil
	}

	batch := msgs
	if update.Msg != nil {
		batch = append([]exported.Msg{update.Msg}, msgs...)
	}
	if len(batch) == 0 {
		return nil
	}

	p.metrics.BatchesSubmitted.With("chain", p.dst.Name()).Add(1)
	p.metrics.BatchSize.With("chain", p.dst.Name()).Observe(float64(len(batch)))
	if err := p.dst.SubmitIBCMessages(ctx, batch); err != nil {
		p.metrics.SubmissionErrors.With("chain", p.dst.Name()).Add(1)
		p.timeouts.push(timeouts...)
		return errors.Wrapf(err, "failed to submit %d messages", len(batch))
	}

	for _, key := range keys {
		p.relayed.Set(key, struct{}{}, p.dedupeExpiry)
	}
	p.logger.Info("relayed", "height", update.Height, "update", kind, "msgs", len(msgs))
	return nil
}
