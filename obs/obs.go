// Package obs provides a clean, low-overhead event-collection mechanism for
// tracking query-evaluation metrics and debugging information, adapted from
// janus-datalog's datalog/annotations package. The tree evaluator (eval)
// never imports a logging library directly; it reports through the
// Context interface, which is a no-op unless a Handler is installed, so the
// hot path stays allocation-free when observability is off.
package obs

import (
	"sync"
	"time"
)

// Event names, grouped the way annotations/types.go groups its constants.
const (
	QueryInvoked    = "query/invoked"
	QueryComplete   = "query/complete"
	PhaseBegin      = "phase/begin"
	PhaseEnd        = "phase/end"
	BindStep        = "bind/step"
	FilterChecked   = "filter/checked"
	CapExceeded     = "cap/exceeded"
	TreeCancelled   = "tree/cancelled"
	ExprCompileFail = "error/expr.compile"
)

// Event is a single recorded occurrence: a name, a time span, and
// free-form data.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]interface{}
}

// Handler receives events as they are recorded. Handlers must not block
// meaningfully; they are invoked synchronously by whichever goroutine
// produced the event.
type Handler func(Event)

// Collector accumulates Events and forwards them to an optional Handler.
// Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	handler  Handler
	events   []Event
	dataPool []map[string]interface{}
	poolIdx  int
}

// NewCollector returns a Collector that forwards events to handler (which
// may be nil to simply accumulate without side effects).
func NewCollector(handler Handler) *Collector {
	pool := make([]map[string]interface{}, 32)
	for i := range pool {
		pool[i] = make(map[string]interface{}, 8)
	}
	return &Collector{
		handler:  handler,
		events:   make([]Event, 0, 128),
		dataPool: pool,
	}
}

// Add records an event and, outside the lock (to avoid deadlocks if the
// handler itself records events), forwards it to the handler.
func (c *Collector) Add(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()

	if c.handler != nil {
		c.handler(e)
	}
}

// AddTiming is a convenience for the common case of recording a
// start-to-now span.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	end := time.Now()
	c.Add(Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}

// GetDataMap returns a cleared map for building event Data, reusing the
// pool when possible to avoid per-event allocation.
func (c *Collector) GetDataMap() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poolIdx < len(c.dataPool) {
		m := c.dataPool[c.poolIdx]
		c.poolIdx++
		for k := range m {
			delete(m, k)
		}
		return m
	}
	return make(map[string]interface{}, 8)
}

// Events returns a defensive copy of the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset clears recorded events and returns the data-map pool to the top.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.poolIdx = 0
}
