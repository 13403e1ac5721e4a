////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package localnet

import (
	"context"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/ledger"
)

// eventBus fans published events out to the subscribers of their name.
// Delivery never blocks the publisher: a full subscriber drops the event.
type eventBus struct {
	mux    sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

type subscription struct {
	bus       *eventBus
	name      string
	c         chan ledger.Event
	closed    chan struct{}
	closeOnce sync.Once
}

func newEventBus(buffer int) *eventBus {
	if buffer <= 0 {
		buffer = 128
	}
	return &eventBus{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
	}
}

// subscribe registers a subscription that is closed when ctx is done or
// Close is called
func (b *eventBus) subscribe(ctx context.Context, name string) *subscription {
	s := &subscription{
		bus:    b,
		name:   name,
		c:      make(chan ledger.Event, b.buffer),
		closed: make(chan struct{}),
	}

	b.mux.Lock()
	if b.subs[name] == nil {
		b.subs[name] = make(map[*subscription]struct{})
	}
	b.subs[name][s] = struct{}{}
	b.mux.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.closed:
		}
	}()

	return s
}

func (b *eventBus) publish(ev ledger.Event) {
	b.mux.RLock()
	defer b.mux.RUnlock()

	for s := range b.subs[ev.Name] {
		select {
		case s.c <- ev:
		default:
			jww.WARN.Printf("Subscriber of %s is full, event for offset %s "+
				"dropped", ev.Name, ev.Offset)
		}
	}
}

// Events returns the delivery channel. It is closed with the subscription.
func (s *subscription) Events() <-chan ledger.Event {
	return s.c
}

// Close removes the subscription. It is safe to call more than once.
func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.mux.Lock()
		delete(s.bus.subs[s.name], s)
		close(s.c)
		s.bus.mux.Unlock()
		close(s.closed)
	})
}

func (b *eventBus) count(name string) int {
	b.mux.RLock()
	defer b.mux.RUnlock()
	return len(b.subs[name])
}
