////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package io

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/elixxir/veil/internal"
	"gitlab.com/elixxir/veil/ledger"
	"gitlab.com/xx_network/crypto/large"
)

// ErrDispatcherClosed is returned to expectations outstanding when the
// dispatcher stops
var ErrDispatcherClosed = errors.New("result dispatcher closed")

// ErrAlreadyExpected is returned when an offset is expected twice
var ErrAlreadyExpected = errors.New("result already expected")

// DecodeResult opens the result carried by an event with the receiver's
// cipher context
func DecodeResult(event *ledger.Event, ctx *cryptops.Context) ([]*large.Int, error) {
	if event == nil {
		return nil, errors.New("no result event")
	}
	fields, err := ctx.Decrypt(&event.Result, event.Nonce)
	if err != nil {
		return nil, errors.WithMessagef(err, "result of computation %s",
			event.Offset)
	}
	return fields, nil
}

type delivery struct {
	event *ledger.Event
	err   error
}

// Dispatcher routes result events to the party expecting their offset. It
// holds a single subscription for its lifetime.
type Dispatcher struct {
	sub      ledger.Subscription
	name     string
	slowWait time.Duration

	mux     sync.Mutex
	closed  bool
	pending map[computation.Offset]*internal.FirstTime[delivery]

	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatcher subscribes to the named event and starts routing it
func NewDispatcher(ctx context.Context, l ledger.Ledger,
	event string) (*Dispatcher, error) {
	sub, err := l.Subscribe(ctx, event)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not subscribe to %s",
			event)
	}

	d := &Dispatcher{
		sub:      sub,
		name:     event,
		slowWait: DefaultWaiterParams().SlowWait,
		pending:  make(map[computation.Offset]*internal.FirstTime[delivery]),
		done:     make(chan struct{}),
	}
	go d.dispatch()
	jww.INFO.Printf("Listening for %s events", event)
	return d, nil
}

// Expectation is a registration for the result of one offset
type Expectation struct {
	offset computation.Offset
	ft     *internal.FirstTime[delivery]
	d      *Dispatcher
}

// Expect registers interest in the result for offset. It must be called
// before the computation is submitted so the result cannot be missed.
func (d *Dispatcher) Expect(offset computation.Offset) (*Expectation, error) {
	d.mux.Lock()
	defer d.mux.Unlock()

	if d.closed {
		return nil, ErrDispatcherClosed
	}
	if _, ok := d.pending[offset]; ok {
		return nil, errors.Wrapf(ErrAlreadyExpected, "offset %s", offset)
	}
	ft := internal.NewFirstTime[delivery]()
	d.pending[offset] = ft
	return &Expectation{offset: offset, ft: ft, d: d}, nil
}

// Wait blocks until the result event arrives. ErrTimedOut is returned once
// timeout elapses; a timeout of zero waits on ctx alone.
func (e *Expectation) Wait(ctx context.Context,
	timeout time.Duration) (*ledger.Event, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	d, err := e.ft.Receive(ctx, e.d.slowWait,
		"result of computation "+e.offset.String())
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Wrapf(computation.ErrTimedOut,
			"result of computation %s", e.offset)
	} else if err != nil {
		return nil, err
	}
	return d.event, d.err
}

// Cancel drops the registration if the result has not arrived
func (e *Expectation) Cancel() {
	e.d.mux.Lock()
	defer e.d.mux.Unlock()
	if e.d.pending[e.offset] == e.ft {
		delete(e.d.pending, e.offset)
	}
}

// Close ends the subscription. Outstanding expectations fail with
// ErrDispatcherClosed.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.sub.Close()
		<-d.done
		jww.INFO.Printf("Stopped listening for %s events", d.name)
	})
}

func (d *Dispatcher) dispatch() {
	defer close(d.done)

	for ev := range d.sub.Events() {
		ev := ev
		d.mux.Lock()
		ft, ok := d.pending[ev.Offset]
		delete(d.pending, ev.Offset)
		d.mux.Unlock()

		if !ok {
			jww.DEBUG.Printf("Dropping %s event for unexpected computation %s",
				ev.Name, ev.Offset)
			continue
		}
		if ft.Send(delivery{event: &ev}) {
			jww.INFO.Printf("Received %s event for computation %s", ev.Name,
				ev.Offset)
		}
	}

	d.mux.Lock()
	d.closed = true
	pending := d.pending
	d.pending = nil
	d.mux.Unlock()

	for offset, ft := range pending {
		ft.Send(delivery{err: errors.Wrapf(ErrDispatcherClosed,
			"computation %s", offset)})
	}
}
