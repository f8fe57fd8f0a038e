package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Belphemur/PodnapisiClient/internal/client"
	"github.com/Belphemur/PodnapisiClient/internal/config"
)

func main() {
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(client.NewClient)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("Interrupted")
		} else {
			logger.Error().Err(err).Msg("Command failed")
		}
		stop()
		os.Exit(1)
	}
}
