// Package publisher fans audit events out to a store and optional
// external sinks, either synchronously or through a buffered worker.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "passgate/pkg/platform/audit"
	"passgate/pkg/platform/circuit"
)

// drainTimeout bounds how long Close waits for buffered events.
const drainTimeout = 5 * time.Second

// guardedSink pairs a sink with a breaker so a flapping downstream does
// not flood the logs with one warning per event.
type guardedSink struct {
	sink    audit.Sink
	breaker *circuit.Breaker
}

type Publisher struct {
	store  audit.Store
	sinks  []guardedSink
	logger *slog.Logger

	inbox chan audit.Event
	done  chan struct{}
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the
// given channel capacity. Emit never blocks the caller; events are
// dropped with a log line when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithSink adds an external sink. Sink failures are logged, never
// propagated to the emitting request.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, guardedSink{
				sink:    sink,
				breaker: circuit.New("audit-sink"),
			})
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.inbox != nil {
		go p.run()
	}
	return p
}

// Emit records an audit event. In sync mode the event is persisted
// before Emit returns; in async mode it is queued for the worker.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.deliver(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		return nil
	}
}

// List returns the most recent persisted events.
func (p *Publisher) List(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}

// Close drains the async buffer and closes the sinks. Safe to call
// more than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			select {
			case <-p.done:
			case <-time.After(drainTimeout):
				p.logger.Warn("audit publisher close timed out before drain completed")
			}
		}
		for _, gs := range p.sinks {
			if err := gs.sink.Close(); err != nil {
				p.logger.Warn("audit sink close failed", "error", err)
			}
		}
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.deliver(context.Background(), event); err != nil {
			p.logger.Warn("audit event delivery failed", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, gs := range p.sinks {
		if err := gs.sink.Append(ctx, event); err != nil {
			wasOpen := gs.breaker.IsOpen()
			_, change := gs.breaker.RecordFailure()
			switch {
			case change.Opened:
				p.logger.WarnContext(ctx, "audit sink circuit opened", "sink", gs.breaker.Name(), "error", err)
			case !wasOpen:
				p.logger.WarnContext(ctx, "audit sink append failed", "action", event.Action, "error", err)
			}
			continue
		}
		if _, change := gs.breaker.RecordSuccess(); change.Closed {
			p.logger.InfoContext(ctx, "audit sink circuit closed", "sink", gs.breaker.Name())
		}
	}
	return nil
}
