// Package event distributes events from a single publisher to any number
// of subscribers.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lithammer/shortuuid/v4"
)

type Event interface {
	Clone() Event
}

type CancelFunc func()

// Filter selects the events a subscriber receives.
type Filter func(e Event) bool

type subscriber struct {
	ch     chan Event
	filter Filter
}

// PubSub broadcasts every published event to all subscribers. Publishing
// never blocks. Events are dropped for slow subscribers.
type PubSub struct {
	publisher       chan Event
	publisherClosed bool
	publisherLock   sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	size           int
	subscriber     map[string]subscriber
	subscriberLock sync.Mutex

	dropped atomic.Uint64
}

// NewPubSub creates a new PubSub. size is the length of the queue of the
// publisher and of each subscriber, defaults to 1024.
func NewPubSub(size int) *PubSub {
	if size <= 0 {
		size = 1024
	}

	w := &PubSub{
		publisher:  make(chan Event, size),
		size:       size,
		subscriber: make(map[string]subscriber),
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	go w.broadcast()

	return w
}

// Publish queues a copy of e for all subscribers.
func (w *PubSub) Publish(e Event) error {
	event := e.Clone()

	w.publisherLock.Lock()
	defer w.publisherLock.Unlock()

	if w.publisherClosed {
		return fmt.Errorf("publisher is closed")
	}

	select {
	case w.publisher <- event:
	default:
		w.dropped.Add(1)
		return fmt.Errorf("publisher queue full")
	}

	return nil
}

// Dropped returns the number of events that couldn't be delivered.
func (w *PubSub) Dropped() uint64 {
	return w.dropped.Load()
}

func (w *PubSub) Close() {
	w.cancel()

	w.publisherLock.Lock()
	if !w.publisherClosed {
		close(w.publisher)
		w.publisherClosed = true
	}
	w.publisherLock.Unlock()

	w.subscriberLock.Lock()
	for _, s := range w.subscriber {
		close(s.ch)
	}
	w.subscriber = make(map[string]subscriber)
	w.subscriberLock.Unlock()
}

// Subscribe returns a channel with all events that pass the filter. A nil
// filter passes all events. The channel is closed when the PubSub is closed.
func (w *PubSub) Subscribe(filter Filter) (<-chan Event, CancelFunc) {
	l := make(chan Event, w.size)

	var id string = ""

	w.subscriberLock.Lock()
	for {
		id = shortuuid.New()
		if _, ok := w.subscriber[id]; !ok {
			w.subscriber[id] = subscriber{
				ch:     l,
				filter: filter,
			}
			break
		}
	}
	w.subscriberLock.Unlock()

	unsubscribe := func() {
		w.subscriberLock.Lock()
		delete(w.subscriber, id)
		w.subscriberLock.Unlock()
	}

	return l, unsubscribe
}

func (w *PubSub) broadcast() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case e, ok := <-w.publisher:
			if !ok {
				return
			}

			w.subscriberLock.Lock()
			for _, s := range w.subscriber {
				if s.filter != nil && !s.filter(e) {
					continue
				}

				select {
				case s.ch <- e.Clone():
				default:
					w.dropped.Add(1)
				}
			}
			w.subscriberLock.Unlock()
		}
	}
}
