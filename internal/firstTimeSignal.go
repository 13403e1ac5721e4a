////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package internal

// firstTimeSignal.go contains the logic for a value that can only be sent
// once and that any number of threads can wait on

import (
	"context"
	"fmt"
	"sync"
	"time"

	jww "github.com/spf13/jwalterweatherman"
)

// FirstTime carries a single value from the first Send to every Receive
type FirstTime[T any] struct {
	c     chan struct{}
	value T
	once  sync.Once
}

// NewFirstTime is a constructor of the FirstTime object
func NewFirstTime[T any]() *FirstTime[T] {
	return &FirstTime[T]{
		c: make(chan struct{}),
	}
}

// Send stores the value and releases every receiver. Only the first call
// has an effect; it reports whether this call was the one.
func (ft *FirstTime[T]) Send(value T) bool {
	sent := false
	ft.once.Do(func() {
		ft.value = value
		close(ft.c)
		sent = true
	})
	return sent
}

// Done is closed once a value has been sent
func (ft *FirstTime[T]) Done() <-chan struct{} {
	return ft.c
}

// Receive waits for the value. Prints a log every `duration` to notify it is
// still waiting. Returns the context's error if it is done first.
func (ft *FirstTime[T]) Receive(ctx context.Context, duration time.Duration,
	reason string) (T, error) {
	logMessage := fmt.Sprintf("Waiting on %s to continue", reason)
	jww.DEBUG.Print(logMessage)

	ticker := time.NewTicker(duration)
	defer ticker.Stop()
	for {
		select {
		case <-ft.c:
			return ft.value, nil
		case <-ticker.C:
			jww.WARN.Print(logMessage)
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
