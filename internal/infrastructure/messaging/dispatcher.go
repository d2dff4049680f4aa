package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher subscribes to the event bus and fans each event out to the
// handlers registered for its type. Handlers are side channels (audit
// logging, bookkeeping); they run concurrently behind a worker-slot limit,
// with bounded retries and panic recovery, and their failures never
// propagate back to the command that published the event.
type Dispatcher struct {
	bus     shared.EventBus
	subs    map[shared.EventType][]subscription
	retry   RetryConfig
	timeout time.Duration
	logger  *slog.Logger
	slots   chan struct{}
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// subscription is one named handler bound to an event type.
type subscription struct {
	name    string
	fn      shared.EventHandler
	timeout time.Duration
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	EventBus       shared.EventBus
	WorkerPoolSize int           // cap on concurrently running handlers
	RetryConfig    RetryConfig   // per-handler retry policy
	HandlerTimeout time.Duration // budget for a single handler invocation
	Logger         *slog.Logger
}

// RetryConfig is the retry policy applied to every failing handler.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig retries three times with exponential backoff
// capped at five seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DefaultDispatcherConfig wires the given bus with default worker pool,
// retry, and timeout settings.
func DefaultDispatcherConfig(eventBus shared.EventBus) DispatcherConfig {
	return DispatcherConfig{
		EventBus:       eventBus,
		WorkerPoolSize: 10,
		RetryConfig:    DefaultRetryConfig(),
		HandlerTimeout: 30 * time.Second,
	}
}

// NewDispatcher builds a Dispatcher. Call Start to begin consuming.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		bus:     config.EventBus,
		subs:    make(map[shared.EventType][]subscription),
		retry:   config.RetryConfig,
		timeout: config.HandlerTimeout,
		logger:  config.Logger,
		slots:   make(chan struct{}, config.WorkerPoolSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a named handler for an event type. The name appears in
// log lines when the handler fails, so it must be non-empty.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	if name == "" {
		return errors.New("handler name is required")
	}

	d.mu.Lock()
	d.subs[eventType] = append(d.subs[eventType], subscription{name: name, fn: handler, timeout: d.timeout})
	d.mu.Unlock()

	d.logger.Debug("registered handler", "event_type", eventType, "handler", name)
	return nil
}

// Start subscribes the dispatcher to every event on the bus.
func (d *Dispatcher) Start() error {
	return d.bus.SubscribeAll(func(event shared.Event) error {
		d.fanOut(event)
		return nil
	})
}

// Stop cancels in-flight handlers and waits for them to return.
func (d *Dispatcher) Stop() error {
	d.cancel()
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
	return nil
}

func (d *Dispatcher) fanOut(event shared.Event) {
	d.mu.RLock()
	targets := d.subs[event.EventType()]
	d.mu.RUnlock()

	for _, sub := range targets {
		d.wg.Add(1)
		go func(s subscription) {
			defer d.wg.Done()
			d.process(event, s)
		}(sub)
	}
}

// process runs one handler with retries, holding a worker slot throughout.
func (d *Dispatcher) process(event shared.Event, sub subscription) {
	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	case <-d.ctx.Done():
		return
	}

	delay := d.retry.InitialBackoff
	var lastErr error
	for attempt := 0; ; attempt++ {
		err := d.callOnce(event, sub)
		if err == nil {
			return
		}
		lastErr = err

		if attempt >= d.retry.MaxRetries {
			break
		}
		d.logger.Warn("handler attempt failed",
			"handler", sub.name,
			"event_type", event.EventType(),
			"attempt", attempt,
			"error", err,
		)

		select {
		case <-d.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * d.retry.BackoffMultiplier)
		if delay > d.retry.MaxBackoff {
			delay = d.retry.MaxBackoff
		}
	}

	d.logger.Error("handler exhausted retries",
		"handler", sub.name,
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"attempts", d.retry.MaxRetries+1,
		"error", lastErr,
	)
}

// callOnce runs a single handler attempt under its timeout, converting
// panics into errors so one bad handler cannot take the worker down.
func (d *Dispatcher) callOnce(event shared.Event, sub subscription) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panic recovered",
					"handler", sub.name,
					"event_type", event.EventType(),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- sub.fn(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(sub.timeout):
		return fmt.Errorf("handler timeout after %v", sub.timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}
