// Command tapcheck checks recorded test-protocol event streams against
// ordered expectations.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"

	"github.com/roach88/tapcheck/internal/cli"
	"github.com/roach88/tapcheck/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "loading config: %v", err)
	}
	level, _ := cfg.Level()
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	ctx = clog.WithLogger(ctx, clog.New(h))

	err = cli.NewRootCommand(cfg).ExecuteContext(ctx)
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Flag and argument errors from cobra itself.
		fmt.Fprintln(os.Stderr, "Error:", err)
		err = cli.WrapExitError(cli.ExitCommandError, "usage", err)
	}
	cancel()
	os.Exit(cli.GetExitCode(err))
}
