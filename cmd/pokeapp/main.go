package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/C-gyeltshen/Web102-Cap2/internal/app"
	"github.com/C-gyeltshen/Web102-Cap2/internal/di"
)

func main() {
	mode := flag.String("mode", app.ModeServer, "run mode: server or worker")
	flag.Parse()

	// bootstrap logger, used until the configured one exists
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	bootstrapLogger.Info("starting application", "mode", *mode)

	application, err := di.BuildApp(*mode)
	if err != nil {
		bootstrapLogger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	logger := application.LoggerIns()
	logger.Info("application initialized successfully")

	if err := application.Run(context.Background(), *mode); err != nil {
		logger.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
