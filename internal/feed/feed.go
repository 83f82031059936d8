// Package feed is a small in-process change feed for active-shift markers.
// It substitutes the document database's snapshot listeners: subscribers
// receive at-least-once delivery of the latest state, and a slow subscriber
// sees stale intermediate states dropped rather than queued.
package feed

import (
	"sync"
	"time"
)

// MarkerEvent carries the latest active-shift state for one user. Marker is
// nil when the user's shift was just closed.
type MarkerEvent struct {
	UserID    string
	CompanyID string
	Marker    *Marker
	At        time.Time
}

// Marker mirrors the persisted active-shift marker without importing the
// store types, keeping the feed dependency-free.
type Marker struct {
	DateKey   string
	EntryID   string
	StartedAt time.Time
}

type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan MarkerEvent
}

func New() *Feed {
	return &Feed{subs: make(map[int]chan MarkerEvent)}
}

// Subscribe registers a listener. The returned cancel function must be
// called to release the subscription; the channel is closed by cancel.
func (f *Feed) Subscribe() (<-chan MarkerEvent, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++

	ch := make(chan MarkerEvent, 16)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish fans the event out to every subscriber. If a subscriber's buffer
// is full, its oldest pending event is dropped in favor of the new one:
// latest state wins.
func (f *Feed) Publish(ev MarkerEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
