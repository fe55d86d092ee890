//go:build unix

package main

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"ohopus/internal/batch"
)

// watchSignals maps process signals onto batch controls: SIGINT/SIGTERM
// cancel, SIGUSR1 pauses, SIGUSR2 resumes.
func watchSignals(sched *batch.Scheduler) (stop func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, os.Interrupt, unix.SIGTERM, unix.SIGUSR1, unix.SIGUSR2)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-ch:
				switch sig {
				case unix.SIGUSR1:
					sched.Pause()
				case unix.SIGUSR2:
					sched.Resume()
				default:
					sched.Cancel()
				}
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
