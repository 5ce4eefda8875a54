package main

import (
	"context"
	"errors"
	"os"

	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/bastiangx/pickserve/pkg/config"
	"github.com/bastiangx/pickserve/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over MessagePack IPC on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, activePath, cat, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		log.Debug("spawning IPC")
		srv := server.NewServer(cat, cfg.Server)
		watchConfig(ctx, activePath, srv)
		watchCatalog(ctx, cat)

		showStartupInfo(cat)
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// watchConfig applies new server limits whenever the config file changes.
func watchConfig(ctx context.Context, path string, srv *server.Server) {
	go func() {
		err := config.Watch(ctx, path, func() {
			cfg, err := config.LoadConfig(path)
			if err != nil {
				log.Warnf("Failed to reload config %s: %v", path, err)
				return
			}
			srv.SetLimits(cfg.Server)
		})
		if errors.Is(err, config.ErrNoConfig) {
			log.Debug("No config file to watch, running with built-in defaults")
		} else if err != nil {
			log.Warnf("Config watcher stopped: %v", err)
		}
	}()
}

// watchCatalog reloads the catalog whenever its file changes. A broken file
// leaves the previous options in place.
func watchCatalog(ctx context.Context, cat *catalog.Catalog) {
	path := cat.Stats().Path
	go func() {
		err := config.Watch(ctx, path, func() {
			if err := cat.Reload(); err != nil {
				log.Warnf("Keeping previous catalog: %v", err)
				return
			}
			log.Debugf("Catalog reloaded with %d options", cat.Len())
		})
		if err != nil {
			log.Warnf("Catalog watcher stopped: %v", err)
		}
	}()
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(cat *catalog.Catalog) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	st := cat.Stats()
	println("===========")
	println(" PickServe ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("catalog: ( %s ) %d options, %d index keys", st.Path, st.Options, st.IndexKeys)
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
