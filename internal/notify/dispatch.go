package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"microtask/internal/logging"

	"github.com/sourcegraph/conc"
)

var (
	// ErrQueueFull is returned when a notification is dropped because every
	// worker is busy and the queue has no room left
	ErrQueueFull = errors.New("notification queue is full")

	// ErrDispatcherClosed is returned for notifications handed over after Close
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

// DispatchOptions sizes a Dispatcher
type DispatchOptions struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// DefaultDispatchOptions returns the sizing used when none is configured
func DefaultDispatchOptions() DispatchOptions {
	return DispatchOptions{Workers: 4, QueueSize: 256, Timeout: 10 * time.Second}
}

type job struct {
	ctx context.Context
	n   Notification
}

// Dispatcher delivers notifications in the background so that callers
// never wait on a sink. Notify only enqueues; a fixed set of workers
// delivers each notification with its own timeout and logs failures.
type Dispatcher struct {
	target  Notifier
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan job
	pending sync.WaitGroup
	workers conc.WaitGroup
}

// NewDispatcher starts the workers delivering to target
func NewDispatcher(target Notifier, logger *slog.Logger, opts DispatchOptions) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	defaults := DefaultDispatchOptions()
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}

	d := &Dispatcher{
		target:  target,
		logger:  logger,
		timeout: opts.Timeout,
		queue:   make(chan job, opts.QueueSize),
	}
	for i := 0; i < opts.Workers; i++ {
		d.workers.Go(d.run)
	}
	return d
}

func (d *Dispatcher) run() {
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
		Send(ctx, d.target, d.logger, j.n)
		cancel()
		d.pending.Done()
	}
}

// Notify queues n for delivery and returns without waiting for the sink.
// The delivery keeps ctx values but not its cancellation.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	d.pending.Add(1)
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), n: n}:
		return nil
	default:
		d.pending.Done()
		return ErrQueueFull
	}
}

// Drain blocks until every queued notification has been delivered or has
// failed. It must not run concurrently with Notify.
func (d *Dispatcher) Drain() {
	d.pending.Wait()
}

// Close stops accepting notifications and waits for the queued ones
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.workers.Wait()
	return nil
}

// Dispatch returns notifier as a Dispatcher, wrapping it in a new one with
// default options unless it already is one. The bool reports whether a new
// Dispatcher was created and so must be closed by the caller.
func Dispatch(notifier Notifier, logger *slog.Logger) (*Dispatcher, bool) {
	if d, ok := notifier.(*Dispatcher); ok {
		return d, false
	}
	return NewDispatcher(notifier, logger, DefaultDispatchOptions()), true
}
