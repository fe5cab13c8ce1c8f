// cmd/todo-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taskstack/todo-service/internal/app"
	"github.com/taskstack/todo-service/internal/config"
	"github.com/taskstack/todo-service/pkg/logger"
)

func main() {
	var configPath string
	pflag.StringVar(&configPath, "config", "", "path to config file")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Logging.DevMode {
		cfg.Print()
	}

	log.Info("starting todo service",
		zap.String("service.name", cfg.ServiceName),
		zap.String("service.version", cfg.ServiceVersion),
		zap.String("config.path", configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("application exited with error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("shutdown complete")
}
