package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-async-ioc/app"
	ioc "github.com/km-arc/go-async-ioc/framework/app"
	"github.com/km-arc/go-async-ioc/framework/config"
)

func main() {
	cfg := config.Load() // reads .env when present
	if cfg.IOC.Manifest == "" {
		cfg.IOC.Manifest = "config/beans.yaml"
	}

	application, err := ioc.New(cfg, ioc.WithCatalog(app.Catalog()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = application.Log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, application); err != nil {
		application.Log.Error("application stopped", zap.Error(err))
		_ = application.Log.Sync()
		os.Exit(1)
	}
}
