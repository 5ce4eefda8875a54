// Copyright 2025 The PickServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the option server, the debug CLI and the terminal
combobox demo.

Note: This is a BETA release. APIs and functionality may rapidly change.

PickServe ranks selectable options against what a user types: exact and
case-insensitive matches first, then accent-insensitive ones, word prefixes,
and finally partial word overlap. It can serve a catalog to combobox
frontends over MessagePack IPC, or run the same engine interactively for
testing and debugging.

# Usage

Serve the catalog from the config over stdin/stdout:

	pickserve serve

Use a specific catalog and enable debug logs:

	pickserve serve --catalog /path/to/catalog.toml -d

Score queries interactively, or open the terminal combobox:

	pickserve query --limit 10
	pickserve tui --multiple

# Catalog

A catalog is a TOML file with one table per option:

	language = "en"

	[[option]]
	label = "John Smith"
	value = "js1"

	[[option]]
	label = "Archived"
	value = "old"
	disabled = true

Options are indexed by folded label words and values in a Patricia trie,
which narrows the candidates before they are scored.

# Configuration

Runtime configuration is managed through a TOML file:

	[server]
	max_limit = 100
	min_query = 0
	max_query = 120
	workers = 4

	[catalog]
	path = "catalog.toml"
	language = "en"

	[widget]
	debounce_ms = 250
	max_results = 100
	multiple = false

The config file is automatically created with defaults if it doesn't exist.
In server mode, changes to the config or the catalog file are picked up
without restart.

# IPC Protocol

The server communicates via length-prefixed MessagePack frames over
stdin/stdout. Requests run concurrently and carry an id; see package server
for the message layout.

	{"id": "6f1c...", "op": "fetch", "q": "joh", "l": 20}
	{"id": "6f1c...", "st": "ok", "o": [{"l": "John Smith", "v": "js1", "r": 1}], "c": 1, "t": 87}
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/bastiangx/pickserve/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0-beta"
	AppName = "pickserve"
	gh      = "https://github.com/bastiangx/pickserve"
)

var (
	configPath  string
	catalogPath string
	debugMode   bool
)

var rootCmd = &cobra.Command{
	Use:           AppName,
	Short:         "Ranked option matching for comboboxes",
	Long:          "pickserve serves ranked, highlighted option matches to combobox frontends",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetDebug(debugMode)
		if !debugMode {
			log.SetLevel(log.WarnLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to a catalog file (overrides the config)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Toggle debug mode")
}

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// setup loads the config and the catalog it points at.
func setup() (*config.Config, string, *catalog.Catalog, error) {
	cfg, activePath, err := config.LoadConfigWithPriority(configPath)
	if err != nil {
		return nil, "", nil, err
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		return nil, "", nil, fmt.Errorf("resolve paths: %w", err)
	}

	name := cfg.Catalog.Path
	if catalogPath != "" {
		name = catalogPath
	}
	resolved := pathResolver.GetCatalogPath(name)
	log.Debugf("Using catalog at: %s", resolved)

	cat, err := catalog.Load(resolved)
	if err != nil {
		return nil, "", nil, err
	}
	return cfg, activePath, cat, nil
}

// main only manages the flow; the commands hold no matching logic.
func main() {
	sigHandler()
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
