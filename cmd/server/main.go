package main

import (
	"context"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/mama165/sdk-go/logs"
	"github.com/thereayou/presence-relay/internal/config"
)

const (
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitConfig)
	}
	logger := logs.GetLoggerFromString(cfg.LogLevel)

	srv, err := NewServer(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Server init failed", "error", err)
		os.Exit(exitRuntime)
	}

	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("Server run error", "error", err)
			os.Exit(exitRuntime)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"relay": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated...")
				return srv.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Server exited", "code", exitCode)
	os.Exit(exitCode)
}
