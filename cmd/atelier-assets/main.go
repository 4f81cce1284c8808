// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/atelier/cmd/atelier-assets/cli"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like a partially
		// failed import) return an ExitError with the desired code.
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp(os.Stdin, os.Stdout, os.Stderr).root().Execute(ctx, os.Args[1:])
}
