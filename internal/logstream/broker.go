// Package logstream carries the live event stream of a run: job and step
// lifecycle transitions plus per-line step output. The executor publishes
// into an in-process broker; subscribers (the socket.io bridge, tests)
// consume without ever being able to stall execution.
package logstream

import (
	"sync"
	"time"
)

// Kind identifies the type of a run event.
type Kind string

const (
	RunStarted   Kind = "run_started"
	RunFinished  Kind = "run_finished"
	JobStarted   Kind = "job_started"
	JobFinished  Kind = "job_finished"
	JobSkipped   Kind = "job_skipped"
	StepStarted  Kind = "step_started"
	StepOutput   Kind = "step_output"
	StepSkipped  Kind = "step_skipped"
	StepFinished Kind = "step_finished"
)

// Event is a single run event.
type Event struct {
	Kind     Kind      `json:"kind"`
	RunID    string    `json:"run_id"`
	Workflow string    `json:"workflow,omitempty"`
	Job      string    `json:"job,omitempty"`
	Step     string    `json:"step,omitempty"`
	Line     string    `json:"line,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// subscriberBuffer bounds each subscriber's backlog. A full buffer drops
// events for that subscriber only.
const subscriberBuffer = 256

// Broker fans events out to subscribers. The zero value is not usable; use
// NewBroker.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber. The returned cancel function must
// be called to release the subscription; it is safe to call twice.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers. Subscribers with full
// buffers miss the event; Publish never blocks.
func (b *Broker) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close terminates all subscriptions. Publishing after Close is a no-op.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
