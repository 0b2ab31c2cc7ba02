// aria - terminal chat client for the ARIA assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ariahq/aria/internal/assistant"
	"github.com/ariahq/aria/internal/config"
	"github.com/ariahq/aria/internal/logging"
	"github.com/ariahq/aria/internal/relay"
	"github.com/ariahq/aria/internal/session"
	"github.com/ariahq/aria/internal/storage"
	"github.com/ariahq/aria/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.aria/config.toml)")
		relayURL    = flag.String("relay", "", "relay server URL (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("aria %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *relayURL); err != nil {
		fmt.Fprintf(os.Stderr, "aria: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, relayURL string) error {
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
	if relayURL != "" {
		cfg.Client.RelayURL = relayURL
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	sessions := session.NewManager(store)
	client := relay.NewClient(relay.ClientConfig{
		BaseURL:        cfg.Client.RelayURL,
		ConnectTimeout: time.Duration(cfg.Client.ConnectTimeoutSecs) * time.Second,
	})
	ctrl := assistant.NewController(sessions, client)

	log.Info("aria %s starting, relay %s", Version, client.BaseURL())
	return ui.Run(ctrl, cfg.UI)
}

// openStore opens the persistence layer. A storage failure is not fatal:
// the session falls back to in-memory state and the error is logged.
func openStore(cfg *config.Config) (*storage.Store, error) {
	var (
		store *storage.Store
		err   error
	)
	if cfg.DataDir != "" {
		store, err = storage.NewStoreWithDir(cfg.DataDir)
	} else {
		store, err = storage.NewStore()
	}
	if err != nil {
		logging.Get().Error("storage unavailable, running in-memory: %v", err)
		return nil, nil
	}
	return store, nil
}
