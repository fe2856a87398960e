package main

import (
	"context"
	"log/slog"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Tyrowin/roomchat/internal/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := server.NewLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting chat relay", "addr", cfg.Port, "historySize", cfg.HistorySize, "reclaimEmptyRooms", cfg.ReclaimEmptyRooms)

	hub := server.NewHub(cfg, logger)
	handler := server.SetupRoutes(server.NewHandlers(hub))
	httpServer := server.CreateServer(cfg.Port, handler)

	go func() {
		if err := server.StartServer(httpServer); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.ShutdownServer(ctx, httpServer)
			},
			"hub": func(ctx context.Context) error {
				return hub.ShutdownContext(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("chat relay exited", "code", exitCode)
	os.Exit(exitCode)
}
