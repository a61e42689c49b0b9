package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bblocks/bblocks/internal/cli"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", bberrors.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status: 2 for invalid input
// and 1 for everything else.
func exitCode(err error) int {
	switch bberrors.GetCode(err) {
	case bberrors.ErrCodeInvalidInput, bberrors.ErrCodeInvalidEnum:
		return 2
	}
	return 1
}
