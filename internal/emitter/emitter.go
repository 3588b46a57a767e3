// Package emitter is the in-process publish/subscribe bus that decouples
// store writes (vote cast, post created) from everything that reacts to them,
// such as the WebSocket hub. It can also generate demo activity on a jittered
// timer while connected.
package emitter

import (
	"math/rand"
	"sync"
	"time"
)

// Event names carried on the bus.
const (
	EventNewPost     = "new_post"
	EventVoteUpdate  = "vote_update"
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

// Event is what handlers receive. ThreadID scopes the event to a thread;
// delivery itself is broadcast to every handler of the event name.
type Event struct {
	Name     string `json:"type"`
	ThreadID string `json:"threadId,omitempty"`
	Payload  any    `json:"data,omitempty"`
}

// Handler reacts to one event. Handlers for the same name run synchronously
// in registration order.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed again.
// Go functions are not comparable, so removal goes through this handle.
type Subscription struct {
	emitter *Emitter
	event   string
	id      uint64
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.emitter != nil {
		s.emitter.off(s.event, s.id)
	}
}

// Config tunes the optional simulated activity. Activity is invoked from the
// emitter's own goroutine on a jittered interval, with probability Chance per
// tick. Leaving Activity nil disables simulation entirely, which is what
// tests want.
type Config struct {
	Activity func()
	Interval time.Duration
	Chance   float64
}

type entry struct {
	id uint64
	fn Handler
}

// Emitter owns its handler registry and, while connected, its activity timer.
// Disconnect stops the timer goroutine; nothing is left running afterwards.
type Emitter struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]entry

	activity func()
	interval time.Duration
	chance   float64
	stop     chan struct{}
}

func New(cfg Config) *Emitter {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Chance <= 0 {
		cfg.Chance = 0.15
	}
	return &Emitter{
		handlers: make(map[string][]entry),
		activity: cfg.Activity,
		interval: cfg.Interval,
		chance:   cfg.Chance,
	}
}

// Connect starts the simulated-activity timer if one is configured.
// Idempotent: connecting twice does not start a second timer.
func (e *Emitter) Connect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		return
	}
	e.stop = make(chan struct{})
	if e.activity != nil {
		go e.simulate(e.stop)
	}
}

// Disconnect stops the timer goroutine. Idempotent.
func (e *Emitter) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop == nil {
		return
	}
	close(e.stop)
	e.stop = nil
}

// Connected reports whether Connect has been called without a matching
// Disconnect.
func (e *Emitter) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop != nil
}

// On registers a handler for an event name. Multiple handlers per name are
// allowed and fire in registration order.
func (e *Emitter) On(event string, fn Handler) *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.handlers[event] = append(e.handlers[event], entry{id: e.nextID, fn: fn})
	return &Subscription{emitter: e, event: event, id: e.nextID}
}

func (e *Emitter) off(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.handlers[event]
	for i, h := range list {
		if h.id == id {
			e.handlers[event] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Emit dispatches the event to every registered handler for its name.
// Dispatch is synchronous; handlers run outside the emitter's lock so they
// may register or remove subscriptions themselves.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	list := e.handlers[ev.Name]
	snapshot := make([]entry, len(list))
	copy(snapshot, list)
	e.mu.Unlock()

	for _, h := range snapshot {
		h.fn(ev)
	}
}

// BroadcastNewPost is the write path's explicit signal after a post is
// created, so other open views of the thread can refresh.
func (e *Emitter) BroadcastNewPost(threadID string, post any) {
	e.Emit(Event{Name: EventNewPost, ThreadID: threadID, Payload: post})
}

// BroadcastVoteUpdate is the write path's explicit signal after a vote lands.
func (e *Emitter) BroadcastVoteUpdate(threadID string, tally any) {
	e.Emit(Event{Name: EventVoteUpdate, ThreadID: threadID, Payload: tally})
}

// SubscribeThread announces interest in a thread. This is a scoping signal
// only; other events remain broadcast to all handlers.
func (e *Emitter) SubscribeThread(threadID string) {
	e.Emit(Event{Name: EventSubscribe, ThreadID: threadID})
}

// UnsubscribeThread announces the end of interest in a thread.
func (e *Emitter) UnsubscribeThread(threadID string) {
	e.Emit(Event{Name: EventUnsubscribe, ThreadID: threadID})
}

// simulate fires the activity callback with low probability on a jittered
// interval until stop closes. Demo noise only; never enabled in tests.
func (e *Emitter) simulate(stop <-chan struct{}) {
	timer := time.NewTimer(e.jittered())
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			if rand.Float64() < e.chance {
				e.activity()
			}
			timer.Reset(e.jittered())
		}
	}
}

func (e *Emitter) jittered() time.Duration {
	half := int64(e.interval) / 2
	return e.interval + time.Duration(rand.Int63n(half+1)) - time.Duration(half/2)
}
