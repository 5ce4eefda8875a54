package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/internal/tui"
	"github.com/bastiangx/pickserve/pkg/combobox"
	"github.com/bastiangx/pickserve/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var tuiFlags struct {
	multiple bool
	freeText bool
	static   bool
	remote   bool
	value    []string
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open a terminal combobox over the catalog",
	Long: "Open a terminal combobox over the catalog. By default the catalog is\n" +
		"queried in-process like a remote source; --static loads every option up\n" +
		"front and --remote talks to a spawned `pickserve serve`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, activePath, cat, err := setup()
		if err != nil {
			return err
		}

		w := cfg.Widget
		boxCfg := combobox.Config{
			Multiple:      w.Multiple || tuiFlags.multiple,
			AllowFreeText: w.AllowFreeText || tuiFlags.freeText,
			Language:      w.Language,
			MaxResults:    w.MaxResults,
			Debounce:      w.Debounce(),
			PageSize:      w.PageSize,
			Value:         tuiFlags.value,
			Logger:        logger.Quiet("combobox"),
		}

		switch {
		case tuiFlags.remote:
			client, stop, err := spawnServer(cmd.Context(), activePath, cat.Stats().Path)
			if err != nil {
				return err
			}
			defer stop()
			boxCfg.Fetcher = client
		case tuiFlags.static:
			boxCfg.Options = cat.Export().Options
		default:
			boxCfg.Fetcher = cat
		}

		values, err := tui.Run(boxCfg, tui.Options{
			Title:      fmt.Sprintf("%s · %d options", AppName, cat.Len()),
			ItemHeight: w.ItemHeight,
		})
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(values, ","))
		return nil
	},
}

func init() {
	flags := tuiCmd.Flags()
	flags.BoolVarP(&tuiFlags.multiple, "multiple", "m", false, "Allow selecting several options")
	flags.BoolVar(&tuiFlags.freeText, "free-text", false, "Allow values that are not in the catalog")
	flags.BoolVar(&tuiFlags.static, "static", false, "Load every option up front")
	flags.BoolVar(&tuiFlags.remote, "remote", false, "Query a spawned server over IPC")
	flags.StringSliceVar(&tuiFlags.value, "value", nil, "Initially selected values")
	tuiCmd.MarkFlagsMutuallyExclusive("static", "remote")
	rootCmd.AddCommand(tuiCmd)
}

// spawnServer starts `pickserve serve` as a child process and connects a
// client to its stdin/stdout.
func spawnServer(ctx context.Context, cfgPath, catPath string) (*server.Client, func(), error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, nil, err
	}
	args := []string{"serve", "--catalog", catPath}
	if cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}

	child := exec.CommandContext(ctx, exe, args...)
	stdin, err := child.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	stdout, err := child.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := child.Start(); err != nil {
		return nil, nil, fmt.Errorf("start server: %w", err)
	}

	client := server.NewClient(stdout, stdin)
	stop := func() {
		client.Close()
		if err := child.Wait(); err != nil {
			log.Debugf("server exited: %v", err)
		}
	}

	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.WaitReady(readyCtx); err != nil {
		stop()
		return nil, nil, fmt.Errorf("server not ready: %w", err)
	}
	return client, stop, nil
}
