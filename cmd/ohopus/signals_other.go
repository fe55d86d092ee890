//go:build !unix

package main

import (
	"os"
	"os/signal"

	"ohopus/internal/batch"
)

// watchSignals maps interrupt onto cancel. Pause and resume signals are
// unix-only.
func watchSignals(sched *batch.Scheduler) (stop func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				sched.Cancel()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
