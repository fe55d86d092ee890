package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"

	"ohopus/internal/batch"
)

const (
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiReset  = "\x1b[0m"
)

// newEventPrinter renders batch events as one line each. Progress events are
// only shown on a terminal; in pipes they would flood the output.
func newEventPrinter(w io.Writer, total int) func(batch.Event) {
	color := shouldColorize(w)
	interactive := color
	var mu sync.Mutex
	completedSoFar := 0

	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	return func(e batch.Event) {
		mu.Lock()
		defer mu.Unlock()

		name := filepath.Base(e.Source)
		switch e.Type {
		case batch.EventJobCompleted:
			completedSoFar++
			fmt.Fprintf(w, "%s [%d/%d] %s\n", paint(ansiGreen, "done"), completedSoFar, total, name)
		case batch.EventJobFailed:
			fmt.Fprintf(w, "%s %s: %s\n", paint(ansiRed, "fail"), name, e.Message)
		case batch.EventJobSkipped:
			fmt.Fprintf(w, "%s %s\n", paint(ansiYellow, "skip"), name)
		case batch.EventJobCancelled:
			fmt.Fprintf(w, "%s %s\n", paint(ansiYellow, "stop"), name)
		case batch.EventJobProgress:
			if interactive && e.Percent < 100 {
				fmt.Fprintf(w, "  %s %.0f%%\n", name, e.Percent)
			}
		case batch.EventBatchPaused:
			fmt.Fprintln(w, paint(ansiYellow, "batch paused"))
		case batch.EventBatchResumed:
			fmt.Fprintln(w, "batch resumed")
		case batch.EventGainSkipped:
			fmt.Fprintf(w, "%s gain skipped: %s\n", paint(ansiYellow, "warn"), e.Message)
		}
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
