package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/jobapply/cmd/applyctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
