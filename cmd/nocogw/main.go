package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/sgoldberg/nocogo/api"
	"github.com/sgoldberg/nocogo/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Bootstrap logger; replaced by the configured one once the config loads.
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config error.", "error", err)
		os.Exit(1)
	}

	logger, err = cfg.BuildLogger()
	if err != nil {
		logger.Error("logger error.", "error", err)
		os.Exit(1)
	}

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			logger.Error("gateway panic", "error", r)
		}
	}()

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	client, err := cfg.BuildClient(logger, "")
	if err != nil {
		logger.Error("client error.", "error", err)
		os.Exit(1)
	}

	server, err := api.NewServer(api.Config{
		Addr:           cfg.Gateway.Addr,
		CertFile:       cfg.Gateway.CertFile,
		KeyFile:        cfg.Gateway.KeyFile,
		BaseID:         cfg.Gateway.BaseID,
		TrustedOrigins: cfg.Gateway.TrustedOrigins,
	}, logger, client)
	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	// Watch the config file and swap the upstream client on changes, so
	// credential rotation does not need a restart. Listener settings
	// (addr, TLS) still require one.
	go func() {
		err := config.Watch(ctx, logger, *configPath, func(next config.Config) {
			client, err := next.BuildClient(logger, "")
			if err != nil {
				logger.Error("cannot rebuild client from reloaded config, keeping previous one", "error", err)
				return
			}
			server.SetUpstream(client)
			logger.Info("upstream client replaced from reloaded config")
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("config watcher stopped.", "error", err)
		}
	}()

	// Run server
	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("server stopped.")
}
