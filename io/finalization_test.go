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
	"testing"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/veil/computation"
	"gitlab.com/elixxir/veil/localnet"
)

var testWaiterParams = WaiterParams{
	PollInterval: 5 * time.Millisecond,
	Timeout:      5 * time.Second,
	MaxBackoff:   20 * time.Millisecond,
}

// Happy path
func TestWaiter_AwaitFinalization(t *testing.T) {
	c := newTestCluster(t, localnet.Config{ExecDelay: 20 * time.Millisecond})
	w := NewWaiter(c, testProgram, testWaiterParams)

	payload, _ := newTestPayload(t, c, 101, 1000000000)
	receipt, err := submitTest(t, c, 31, payload)
	if err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}

	outcome, err := w.AwaitFinalization(context.Background(), 31, 0)
	if err != nil {
		t.Fatalf("Failed to await: %+v", err)
	}
	acct, err := c.GetComputation(context.Background(), receipt.Address)
	if err != nil {
		t.Fatalf("Failed to read account: %+v", err)
	}
	if outcome.Signature != acct.Signature || outcome.Address != receipt.Address {
		t.Errorf("Outcome %+v does not match account %+v", outcome, acct)
	}
	if w.Pending() != 0 {
		t.Errorf("Registration not dropped after resolution")
	}
}

// Happy path: failed polls are retried and never surfaced
func TestWaiter_AwaitFinalization_TransientFailures(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	w := NewWaiter(c, testProgram, testWaiterParams)
	c.FailReads(4)

	payload, _ := newTestPayload(t, c, 1, 2)
	if _, err := submitTest(t, c, 32, payload); err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}
	if _, err := w.AwaitFinalization(context.Background(), 32, 0); err != nil {
		t.Errorf("Transient failures surfaced: %+v", err)
	}
}

// Error path
func TestWaiter_AwaitFinalization_Aborted(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	w := NewWaiter(c, testProgram, testWaiterParams)

	payload, _ := newTestPayload(t, c, 1, 2)
	other, _ := newTestPayload(t, c, 1, 2)
	payload.Sender = other.Sender
	if _, err := submitTest(t, c, 33, payload); err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}

	_, err := w.AwaitFinalization(context.Background(), 33, 0)
	if !errors.Is(err, computation.ErrComputationAborted) {
		t.Errorf("Expected abort, received %+v", err)
	}
}

// Error path
func TestWaiter_AwaitFinalization_Timeout(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	w := NewWaiter(c, testProgram, testWaiterParams)

	start := time.Now()
	_, err := w.AwaitFinalization(context.Background(), 34,
		100*time.Millisecond)
	if !errors.Is(err, computation.ErrTimedOut) {
		t.Errorf("Expected timeout, received %+v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Timeout took %s", time.Since(start))
	}
}

// Concurrent waiters on one offset observe a single resolution
func TestWaiter_AwaitFinalization_Shared(t *testing.T) {
	c := newTestCluster(t, localnet.Config{ExecDelay: 100 * time.Millisecond})
	w := NewWaiter(c, testProgram, testWaiterParams)

	const waiters = 10
	outcomes := make([]*Outcome, waiters)
	errs := make([]error, waiters)
	wg := sync.WaitGroup{}
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = w.AwaitFinalization(context.Background(),
				35, 0)
		}(i)
	}

	for w.Pending() != 1 {
		time.Sleep(time.Millisecond)
	}
	payload, _ := newTestPayload(t, c, 1, 2)
	if _, err := submitTest(t, c, 35, payload); err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}
	wg.Wait()

	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("Waiter %d failed: %+v", i, errs[i])
		}
		if outcomes[i].Signature != outcomes[0].Signature {
			t.Errorf("Waiter %d observed a different resolution", i)
		}
	}
}

// Abandoning a wait leaves the other waiters and the computation running
func TestWaiter_AwaitFinalization_Cancel(t *testing.T) {
	c := newTestCluster(t, localnet.Config{ExecDelay: 100 * time.Millisecond})
	w := NewWaiter(c, testProgram, testWaiterParams)

	payload, _ := newTestPayload(t, c, 1, 2)
	if _, err := submitTest(t, c, 36, payload); err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		_, err := w.AwaitFinalization(ctx, 36, 0)
		errCh <- err
	}()
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation, received %+v", err)
	}

	if _, err := w.AwaitFinalization(context.Background(), 36, 0); err != nil {
		t.Errorf("Computation did not finalize after a wait was abandoned: "+
			"%+v", err)
	}
}

// Each waiter on a shared offset is held to its own timeout
func TestWaiter_AwaitFinalization_IndependentTimeouts(t *testing.T) {
	c := newTestCluster(t, localnet.Config{})
	w := NewWaiter(c, testProgram, testWaiterParams)

	// A short wait joining a longer one returns on its own bound
	long, cancelLong := context.WithCancel(context.Background())
	longErr := make(chan error)
	go func() {
		_, err := w.AwaitFinalization(long, 37, 3*time.Second)
		longErr <- err
	}()
	for w.Pending() != 1 {
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	_, err := w.AwaitFinalization(context.Background(), 37,
		100*time.Millisecond)
	if !errors.Is(err, computation.ErrTimedOut) {
		t.Errorf("Expected timeout, received %+v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Short wait was held to the longer bound: %s",
			time.Since(start))
	}
	if w.Pending() != 1 {
		t.Errorf("Poll stopped while a waiter remained")
	}
	cancelLong()
	if err = <-longErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation, received %+v", err)
	}

	// A long wait joining a shorter one outlives it
	shortErr := make(chan error)
	go func() {
		_, err := w.AwaitFinalization(context.Background(), 38,
			100*time.Millisecond)
		shortErr <- err
	}()
	for w.Pending() != 1 {
		time.Sleep(time.Millisecond)
	}
	type result struct {
		outcome *Outcome
		err     error
	}
	longResult := make(chan result)
	go func() {
		o, err := w.AwaitFinalization(context.Background(), 38,
			5*time.Second)
		longResult <- result{o, err}
	}()

	time.Sleep(300 * time.Millisecond)
	if err = <-shortErr; !errors.Is(err, computation.ErrTimedOut) {
		t.Errorf("Expected timeout, received %+v", err)
	}
	payload, _ := newTestPayload(t, c, 1, 2)
	receipt, err := submitTest(t, c, 38, payload)
	if err != nil {
		t.Fatalf("Failed to submit: %+v", err)
	}
	r := <-longResult
	if r.err != nil {
		t.Fatalf("Long wait ended with the shorter bound: %+v", r.err)
	}
	if r.outcome.Address != receipt.Address {
		t.Errorf("Outcome %+v does not match receipt %+v", r.outcome, receipt)
	}
	if w.Pending() != 0 {
		t.Errorf("Registration not dropped after resolution")
	}
}
