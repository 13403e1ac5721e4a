////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	jww "github.com/spf13/jwalterweatherman"
)

// exitContext returns a child of parent cancelled on the first SIGINT or
// SIGTERM. In-flight shares observe the cancellation and return; their
// computations are left to finish on the cluster.
func exitContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// buffered so a signal sent before the goroutine runs is not lost
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			jww.INFO.Printf("Received %s signal, stopping shares...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// debugOnSignal raises both log thresholds to debug every time sig is
// received, until ctx is done
func debugOnSignal(ctx context.Context, sig os.Signal) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig)
	go func() {
		defer signal.Stop(c)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c:
				jww.INFO.Printf("Received %s signal, logging at debug", sig)
				jww.SetStdoutThreshold(jww.LevelDebug)
				jww.SetLogThreshold(jww.LevelDebug)
			}
		}
	}()
}
