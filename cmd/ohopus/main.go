package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// A cancelled run already reported its outcome through the batch
		// summary; repeating the context error adds nothing.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "ohopus:", err)
		}
		os.Exit(1)
	}
}
