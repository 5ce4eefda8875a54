package main

import (
	"github.com/bastiangx/pickserve/internal/cli"
	"github.com/bastiangx/pickserve/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var queryFlags struct {
	limit    int
	minQuery int
	maxQuery int
	language string
	noFilter bool
}

// queryCmd is mainly used for testing and dbg purposes.
// Scoring changes should be tried here first.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Score queries against the catalog interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cat, err := setup()
		if err != nil {
			return err
		}
		log.SetReportTimestamp(false)

		f := queryFlags
		if !cmd.Flags().Changed("limit") {
			f.limit = cfg.CLI.DefaultLimit
		}
		if !cmd.Flags().Changed("lang") && cfg.CLI.DefaultLanguage != "" {
			f.language = cfg.CLI.DefaultLanguage
		}
		log.Debug("Input info:",
			"minQuery", f.minQuery,
			"maxQuery", f.maxQuery,
			"limit", f.limit,
			"lang", f.language,
			"noFilter", f.noFilter)

		inputHandler := cli.NewInputHandler(cat, f.minQuery, f.maxQuery, f.limit, f.language, f.noFilter)
		return inputHandler.Start()
	},
}

func init() {
	defaults := config.DefaultConfig()
	flags := queryCmd.Flags()
	flags.IntVar(&queryFlags.limit, "limit", defaults.CLI.DefaultLimit, "Number of matches to show")
	flags.IntVar(&queryFlags.minQuery, "qmin", defaults.Server.MinQuery, "Minimum query length")
	flags.IntVar(&queryFlags.maxQuery, "qmax", defaults.Server.MaxQuery, "Maximum query length")
	flags.StringVar(&queryFlags.language, "lang", defaults.CLI.DefaultLanguage, "Language used for comparisons")
	flags.BoolVar(&queryFlags.noFilter, "no-filter", false, "Disable input filtering (DBG only) - scores punctuation-only queries too")
	rootCmd.AddCommand(queryCmd)
}
