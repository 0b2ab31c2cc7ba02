// aria-relay - SSE relay between aria clients and the upstream model API.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ariahq/aria/internal/cloud"
	"github.com/ariahq/aria/internal/config"
	"github.com/ariahq/aria/internal/logging"
	"github.com/ariahq/aria/internal/server"
	"github.com/ariahq/aria/internal/telemetry"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.aria/config.toml)")
		addr        = flag.String("addr", "", "listen address (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("aria-relay %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "aria-relay: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	log := logging.Get()
	defer log.Close()

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.ListenAddr()
	}

	upstream := cloud.NewClient(cloud.ClientConfig{
		APIKey:    cfg.Upstream.APIKey,
		BaseURL:   cfg.Upstream.BaseURL,
		Model:     cfg.Upstream.Model,
		MaxTokens: cfg.Upstream.MaxTokens,
	})
	if !upstream.IsConfigured() {
		log.Error("no API key configured; chat requests will fail until one is set")
	}

	srv := server.NewServer(addr, upstream)
	if usage := openUsageStore(cfg); usage != nil {
		defer usage.Close()
		srv = srv.WithUsageStore(usage)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("aria-relay %s listening on %s", Version, addr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// openUsageStore opens the sqlite usage database under the data dir. Usage
// tracking is best-effort: failure to open logs and disables it.
func openUsageStore(cfg *config.Config) *telemetry.UsageStore {
	dir := cfg.DataDir
	if dir == "" {
		var err error
		dir, err = config.ConfigDir()
		if err != nil {
			logging.Get().Error("usage tracking disabled: %v", err)
			return nil
		}
	}
	store, err := telemetry.OpenUsageStore(filepath.Join(dir, "usage.db"))
	if err != nil {
		logging.Get().Error("usage tracking disabled: %v", err)
		return nil
	}
	return store
}
