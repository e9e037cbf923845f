package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/natserract/mkm/mkmcli/commands"
	httpclient "github.com/natserract/mkm/pkg/http"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.Execute(ctx, commands.Options{Logger: logger}); err != nil {
		var apiErr *httpclient.Error
		if errors.As(err, &apiErr) {
			logger.Error("API request failed", zap.Int("status_code", apiErr.Status), zap.String("error_message", apiErr.Message))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}
