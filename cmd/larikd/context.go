package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// newRootContext returns a context cancelled on SIGINT/SIGTERM, the same
// interrupt-driven shutdown the teacher's cobra commands wait on with a
// signal channel, generalized to a context so the serve loop and the
// background scheduler share one cancellation source.
func newRootContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
