package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	errUtils "github.com/acheong08/pkgdrift/errors"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(errUtils.GetExitCode(err))
	}
}
