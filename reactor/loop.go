// File: reactor/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event loop draining a Poll and dispatching readiness events by token.

package reactor

import (
	"context"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/containerd/log"
	"github.com/eapache/queue"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/control"
)

// Metric keys recorded when the loop has a registry.
const (
	MetricLoopEvents     = "loop.events"
	MetricLoopDispatched = "loop.dispatched"
	MetricLoopDropped    = "loop.dropped"
	MetricLoopPanics     = "loop.panics"
)

// HandlerFunc reacts to one readiness event.
type HandlerFunc func(ctx context.Context, ev api.Event)

// Loop waits on a Poll and runs the handler registered for each event's token.
// Run and RunOnce must be called from one goroutine at a time; Handle and
// Unhandle may be called from anywhere, including handlers.
type Loop struct {
	poll    *Poll
	cfg     control.Config
	metrics *control.MetricsRegistry

	mu       sync.RWMutex
	handlers map[api.Token]HandlerFunc

	pending *queue.Queue // of api.Event, owned by the running goroutine
	events  []api.Event
	running atomix.Uint32
}

// NewLoop creates a loop over p. metrics may be nil.
func NewLoop(p *Poll, cfg control.Config, metrics *control.MetricsRegistry) (*Loop, error) {
	if p == nil {
		return nil, fmt.Errorf("new loop: nil poll: %w", api.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new loop: %w", err)
	}
	return &Loop{
		poll:     p,
		cfg:      cfg,
		metrics:  metrics,
		handlers: make(map[api.Token]HandlerFunc),
		pending:  queue.New(),
		events:   make([]api.Event, cfg.MaxEvents),
	}, nil
}

// Handle sets the handler for token, replacing any previous one.
func (l *Loop) Handle(token api.Token, fn HandlerFunc) {
	l.mu.Lock()
	l.handlers[token] = fn
	l.mu.Unlock()
}

// Unhandle removes the handler for token. Events already staged for it are dropped.
func (l *Loop) Unhandle(token api.Token) {
	l.mu.Lock()
	delete(l.handlers, token)
	l.mu.Unlock()
}

func (l *Loop) handler(token api.Token) (HandlerFunc, bool) {
	l.mu.RLock()
	fn, ok := l.handlers[token]
	l.mu.RUnlock()
	return fn, ok
}

// Run processes events until ctx is done or the selector fails.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(0, 1) {
		return fmt.Errorf("loop already running: %w", api.ErrInvalidArgument)
	}
	defer l.running.Store(0)

	log.G(ctx).WithFields(log.Fields{
		"selector":   l.poll.ID(),
		"max_events": l.cfg.MaxEvents,
		"batch":      l.cfg.BatchSize,
	}).Debug("reactor loop started")

	for {
		select {
		case <-ctx.Done():
			log.G(ctx).WithField("selector", l.poll.ID()).Debug("reactor loop stopped")
			return ctx.Err()
		default:
		}
		if _, err := l.RunOnce(ctx); err != nil {
			log.G(ctx).WithError(err).WithField("selector", l.poll.ID()).Error("reactor loop failed")
			return err
		}
	}
}

// RunOnce waits once on the selector and dispatches what it reported.
// Cancelling ctx wakes the wait, even one without a timeout.
// It returns the number of handlers invoked.
func (l *Loop) RunOnce(ctx context.Context) (int, error) {
	stop := context.AfterFunc(ctx, func() { _ = l.poll.Wake() })
	n, err := l.poll.Wait(l.events, l.cfg.WaitTimeout)
	stop()
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		l.pending.Add(l.events[i])
	}
	l.metrics.Add(MetricLoopEvents, int64(n))

	dispatched := 0
	for l.pending.Length() > 0 {
		if ctx.Err() != nil {
			break
		}
		for i := 0; i < l.cfg.BatchSize && l.pending.Length() > 0; i++ {
			ev := l.pending.Remove().(api.Event)
			if l.dispatch(ctx, ev) {
				dispatched++
			}
		}
	}
	l.metrics.Add(MetricLoopDispatched, int64(dispatched))
	return dispatched, nil
}

func (l *Loop) dispatch(ctx context.Context, ev api.Event) (ok bool) {
	fn, found := l.handler(ev.Token)
	if !found {
		l.metrics.Add(MetricLoopDropped, 1)
		log.G(ctx).WithField("token", ev.Token).Debug("no handler for event")
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			l.metrics.Add(MetricLoopPanics, 1)
			log.G(ctx).WithFields(log.Fields{
				"token": ev.Token,
				"panic": r,
			}).Error("handler panicked")
			ok = false
		}
	}()
	fn(ctx, ev)
	return true
}
