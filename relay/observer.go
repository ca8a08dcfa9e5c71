package relay

import (
	"github.com/ezshield/logrelay/event"
)

// Observer receives the events of a relay. Observe is called synchronously
// from within a cycle and must not block.
type Observer interface {
	Observe(e *event.RelayEvent)
}

// ObserverFunc is an adapter to allow the use of an ordinary function as
// an Observer.
type ObserverFunc func(e *event.RelayEvent)

func (f ObserverFunc) Observe(e *event.RelayEvent) {
	f(e)
}

type nopObserver struct{}

func (nopObserver) Observe(e *event.RelayEvent) {}

// NewPublisher returns an observer that publishes all events to the PubSub.
func NewPublisher(p *event.PubSub) Observer {
	return ObserverFunc(func(e *event.RelayEvent) {
		p.Publish(e)
	})
}

// Observers returns an observer that passes each event to all observers
// in the given order.
func Observers(observers ...Observer) Observer {
	return ObserverFunc(func(e *event.RelayEvent) {
		for _, o := range observers {
			if o == nil {
				continue
			}

			o.Observe(e)
		}
	})
}
