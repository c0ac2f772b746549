package pscan

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/users"
	"github.com/kestrelsec/kestrel/internal/webctx"
)

// defaultWorkers is the fallback number of scan workers.
const defaultWorkers = 4

// defaultMaxAlerts caps the in-memory alert store.
const defaultMaxAlerts = 10000

// defaultQueueSize is the fallback capacity of the submission queue.
const defaultQueueSize = 256

// Engine runs passive scan rules over captured exchanges. Each exchange gets
// exactly one ScanData instance shared by every rule for that pass; the
// instance is dropped when the pass completes.
type Engine struct {
	registry *webctx.Registry
	userSvc  users.Service
	rules    []Rule

	workers   int
	queueSize int

	queue chan *httpmsg.Exchange
	wg    sync.WaitGroup

	// mu guards the alert store
	mu        sync.RWMutex
	alerts    []Alert
	maxAlerts int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithRules sets the passive scan rules the engine runs.
func WithRules(rules ...Rule) EngineOption {
	return func(e *Engine) {
		e.rules = append(e.rules, rules...)
	}
}

// WithWorkers sets the number of concurrent scan workers.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxAlerts caps how many alerts the engine retains in memory.
func WithMaxAlerts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxAlerts = n
		}
	}
}

// WithQueueSize sets the capacity of the submission queue.
func WithQueueSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// NewEngine creates a passive scan engine bound to the given context
// registry and optional user-management service (nil when not installed).
func NewEngine(registry *webctx.Registry, userSvc users.Service, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:  registry,
		userSvc:   userSvc,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
		maxAlerts: defaultMaxAlerts,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Process runs every rule against the exchange synchronously and returns the
// alerts raised for it. Raised alerts are also retained in the engine's
// store. The ScanData instance is shared across rules and discarded after
// the pass.
func (e *Engine) Process(msg *httpmsg.Exchange) []Alert {
	if msg == nil {
		return nil
	}

	data := NewScanData(msg, e.registry, e.userSvc)

	var raised []Alert
	for _, rule := range e.rules {
		raised = append(raised, rule.Scan(msg, data)...)
	}

	if len(raised) > 0 {
		e.retain(raised)
		log.Debug().
			Str("url", msg.RequestURL()).
			Int("alerts", len(raised)).
			Bool("context", data.HasContext()).
			Msg("passive scan pass raised alerts")
	}

	return raised
}

// Start launches the scan workers. Submitted exchanges are processed until
// the context is cancelled; Stop waits for in-flight passes to finish.
func (e *Engine) Start(ctx context.Context) {
	e.queue = make(chan *httpmsg.Exchange, e.queueSize)

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)

		go func() {
			defer e.wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-e.queue:
					if !ok {
						return
					}
					e.Process(msg)
				}
			}
		}()
	}
}

// Submit queues an exchange for a background scan pass. It reports false
// when the queue is full or the engine was never started.
func (e *Engine) Submit(msg *httpmsg.Exchange) bool {
	if e.queue == nil || msg == nil {
		return false
	}
	select {
	case e.queue <- msg:
		return true
	default:
		return false
	}
}

// Stop closes the submission queue and waits for the workers to drain.
func (e *Engine) Stop() {
	if e.queue != nil {
		close(e.queue)
	}
	e.wg.Wait()
}

// retain appends alerts to the bounded store, dropping the oldest entries
// once the cap is reached.
func (e *Engine) retain(alerts []Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, alerts...)
	if over := len(e.alerts) - e.maxAlerts; over > 0 {
		e.alerts = e.alerts[over:]
	}
}

// Alerts returns a copy of the retained alerts in the order they were raised.
func (e *Engine) Alerts() []Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Alert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// Reset discards all retained alerts.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.alerts = nil
	e.mu.Unlock()
}
