// Package eventfeed fans committed contract events out to live subscribers.
package eventfeed

import (
	"sync"

	"alpha-duel/sdk"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Message is one published event.
type Message struct {
	Ledger     uint32            `json:"ledger"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Filter selects messages for a subscriber. A nil filter matches everything.
type Filter func(Message) bool

// SessionFilter matches events that concern session id.
func SessionFilter(id string) Filter {
	return func(m Message) bool { return m.Attributes["id"] == id }
}

type subscriber struct {
	ch     chan Message
	filter Filter
}

// Feed is an in-process broker. A subscriber that falls a full buffer behind
// is dropped and its channel closed.
type Feed struct {
	mu     sync.Mutex
	buffer int
	nextID uint64
	subs   map[uint64]*subscriber
	closed bool
}

// New returns a feed with buffer slots per subscriber; buffer <= 0 means DefaultBuffer.
func New(buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Feed{buffer: buffer, subs: map[uint64]*subscriber{}}
}

// Subscribe registers a subscriber. The returned cancel func is idempotent.
func (f *Feed) Subscribe(filter Filter) (<-chan Message, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Message, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = &subscriber{ch: ch, filter: filter}
	return ch, func() { f.drop(id) }
}

func (f *Feed) drop(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(s.ch)
	}
}

// Publish delivers events to every matching subscriber without blocking.
func (f *Feed) Publish(ledger uint32, events []sdk.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		msg := Message{Ledger: ledger, Type: ev.Type, Attributes: ev.Attributes}
		for id, s := range f.subs {
			if s.filter != nil && !s.filter(msg) {
				continue
			}
			select {
			case s.ch <- msg:
			default:
				delete(f.subs, id)
				close(s.ch)
			}
		}
	}
}

// Len returns the number of live subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close drops every subscriber. Later subscriptions receive a closed channel.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, s := range f.subs {
		delete(f.subs, id)
		close(s.ch)
	}
}

var _ sdk.Publisher = (*Feed)(nil)
