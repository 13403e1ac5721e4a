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

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/internal"
	"gitlab.com/elixxir/veil/ledger"
)

// WaiterParams bounds how a Waiter polls
type WaiterParams struct {
	// Delay between polls of a healthy endpoint
	PollInterval time.Duration
	// Bound used when a caller passes no timeout
	Timeout time.Duration
	// Cap on the delay after failed polls
	MaxBackoff time.Duration
	// Period of the still-waiting warning
	SlowWait time.Duration
}

// DefaultWaiterParams returns the default polling bounds
func DefaultWaiterParams() WaiterParams {
	return WaiterParams{
		PollInterval: 250 * time.Millisecond,
		Timeout:      2 * time.Minute,
		MaxBackoff:   5 * time.Second,
		SlowWait:     30 * time.Second,
	}
}

// Outcome of a finalized computation
type Outcome struct {
	Offset    computation.Offset
	Address   ledger.Address
	Signature ledger.Signature
}

type finalization struct {
	outcome *Outcome
	err     error
}

// watch is the shared poll of one offset. It runs while it has waiters.
type watch struct {
	ft      *internal.FirstTime[finalization]
	waiters int
	cancel  context.CancelFunc
}

// Waiter waits for computations to finalize. Concurrent waits on the same
// offset share one poll loop and observe the same result; each wait is
// bounded by its own timeout.
type Waiter struct {
	ledger  ledger.Ledger
	program ledger.Address
	params  WaiterParams

	mux     sync.Mutex
	pending map[computation.Offset]*watch
}

// NewWaiter builds a Waiter for computations of program
func NewWaiter(l ledger.Ledger, program ledger.Address,
	params WaiterParams) *Waiter {
	def := DefaultWaiterParams()
	if params.PollInterval <= 0 {
		params.PollInterval = def.PollInterval
	}
	if params.Timeout <= 0 {
		params.Timeout = def.Timeout
	}
	if params.MaxBackoff < params.PollInterval {
		params.MaxBackoff = params.PollInterval
	}
	if params.SlowWait <= 0 {
		params.SlowWait = def.SlowWait
	}
	return &Waiter{
		ledger:  l,
		program: program,
		params:  params,
		pending: make(map[computation.Offset]*watch),
	}
}

// AwaitFinalization blocks until the computation at offset is finalized,
// aborted, or timeout elapses. A timeout of zero uses the configured bound.
// Returning early leaves the computation and any other waiter on it
// untouched; the poll stops once no waiter is left.
func (w *Waiter) AwaitFinalization(ctx context.Context, offset computation.Offset,
	timeout time.Duration) (*Outcome, error) {
	if timeout <= 0 {
		timeout = w.params.Timeout
	}

	w.mux.Lock()
	wt, ok := w.pending[offset]
	if !ok {
		pollCtx, cancel := context.WithCancel(context.Background())
		wt = &watch{ft: internal.NewFirstTime[finalization](), cancel: cancel}
		w.pending[offset] = wt
		go w.poll(pollCtx, offset, wt)
	}
	wt.waiters++
	w.mux.Unlock()
	defer w.leave(offset, wt)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reason := "finalization of computation " + offset.String()
	result, err := wt.ft.Receive(waitCtx, w.params.SlowWait, reason)
	if err != nil {
		select {
		case <-wt.ft.Done():
			// resolved as the wait ended
			result, _ = wt.ft.Receive(context.Background(), w.params.SlowWait,
				reason)
			return result.outcome, result.err
		default:
		}
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "stopped waiting for "+
				"computation %s", offset)
		}
		jww.WARN.Printf("Computation %s not finalized within %s", offset,
			timeout)
		return nil, errors.Wrapf(computation.ErrTimedOut,
			"computation %s after %s", offset, timeout)
	}
	return result.outcome, result.err
}

// leave drops a waiter, stopping the poll when it was the last one
func (w *Waiter) leave(offset computation.Offset, wt *watch) {
	w.mux.Lock()
	defer w.mux.Unlock()

	wt.waiters--
	if wt.waiters > 0 {
		return
	}
	if w.pending[offset] == wt {
		delete(w.pending, offset)
	}
	wt.cancel()
}

// Pending reports the number of offsets with an active poll loop
func (w *Waiter) Pending() int {
	w.mux.Lock()
	defer w.mux.Unlock()
	return len(w.pending)
}

// poll reads the computation account until it reaches a terminal status,
// then resolves the watch and drops the registration. It returns without
// resolving when ctx is cancelled.
func (w *Waiter) poll(ctx context.Context, offset computation.Offset,
	wt *watch) {
	resolve := func(f finalization) {
		w.mux.Lock()
		if w.pending[offset] == wt {
			delete(w.pending, offset)
		}
		w.mux.Unlock()
		wt.ft.Send(f)
	}

	address, err := ledger.ComputationAddress(w.ledger, w.program, offset)
	if err != nil {
		resolve(finalization{err: errors.WithMessagef(err,
			"could not derive the account of computation %s", offset)})
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.params.PollInterval
	b.MaxInterval = w.params.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	last := computation.NUM_STATUS
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			jww.DEBUG.Printf("Stopped polling computation %s, no waiters "+
				"left", offset)
			return
		case <-timer.C:
		}

		wait := w.params.PollInterval
		acct, err := w.ledger.GetComputation(ctx, address)
		switch {
		case err == nil:
			b.Reset()
			if acct.Status != last {
				jww.DEBUG.Printf("Computation %s is %s", offset, acct.Status)
				last = acct.Status
			}
			switch acct.Status {
			case computation.FINALIZED:
				jww.INFO.Printf("Computation %s finalized with signature %s",
					offset, acct.Signature)
				resolve(finalization{outcome: &Outcome{
					Offset:    offset,
					Address:   address,
					Signature: acct.Signature,
				}})
				return
			case computation.ABORTED:
				jww.ERROR.Printf("Computation %s aborted: %s", offset,
					acct.Reason)
				resolve(finalization{err: errors.Wrapf(
					computation.ErrComputationAborted, "computation %s: %s",
					offset, acct.Reason)})
				return
			}
		case errors.Is(err, ledger.ErrAccountNotFound):
			b.Reset()
			jww.DEBUG.Printf("Computation %s has no account yet", offset)
		case ctx.Err() != nil:
			continue
		default:
			wait = b.NextBackOff()
			jww.WARN.Printf("Polling computation %s failed, retrying in "+
				"%s: %+v", offset, wait, err)
		}

		timer.Reset(wait)
	}
}
