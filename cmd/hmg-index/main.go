package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hmgdev/hmg-index/internal/api"
	"github.com/hmgdev/hmg-index/internal/app"
	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/observability/otelx"
)

func main() {
	env := config.LoadEnv()

	configPath := flag.String("config", env.DocumentPath, "path to hmg-index document")
	addr := flag.String("addr", env.Server.Addr, "HTTP listen address")
	logFormat := flag.String("log-format", env.Server.LogFormat, "log format: text or json")
	logLevel := flag.String("log-level", env.Server.LogLevel, "log level: debug, info, warn or error")
	storeDriver := flag.String("store", env.Store.Driver, "store driver: sqlite, badger or memory")
	flag.Parse()

	env.Server.Addr = *addr
	env.Store.Driver = *storeDriver

	logger := core.NewLogger(os.Stdout, *logFormat, *logLevel)

	doc, err := config.LoadDocument(*configPath)
	if err != nil {
		log.Fatalf("failed to load document: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelx.Init(ctx, logger, env.OTel, doc.App.Version)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	application, err := app.NewFromEnv(logger, env, doc)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}
	if err := application.Start(ctx); err != nil {
		log.Fatalf("failed to start app: %v", err)
	}

	server := api.NewServer(application.Registry, application, api.Config{
		Service: "hmg-index",
		Version: doc.App.Version,
	}, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(env.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(env))
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := application.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("shutdown incomplete", "error", err)
		os.Exit(1)
	}
}

func shutdownTimeout(env config.EnvConfig) time.Duration {
	if env.Server.ShutdownTimeout > 0 {
		return env.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
