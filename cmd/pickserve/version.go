package main

import (
	"os"
	"sort"

	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var showPaths bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current version",
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()
		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		logger.SetStyles(styles)

		logger.Print("")
		logger.Print("[ PickServe ] Ranked options for every combobox!")
		logger.Print("", "version", Version)
		logger.Print("")
		logger.Print("use -h or --help to see available options")
		logger.Print("Github Repo", "gh", gh)

		if !showPaths {
			return
		}
		pathResolver, err := utils.NewPathResolver()
		if err != nil {
			logger.Error("Failed to resolve paths", "err", err)
			return
		}
		info := pathResolver.GetRuntimeInfo()
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Print("")
		for _, k := range keys {
			logger.Print(k, "value", info[k])
		}
		status := utils.CheckDirStatus(pathResolver.GetConfigDir())
		logger.Print("config dir", "exists", status.Exists, "writable", status.Writable)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&showPaths, "paths", false, "Also print the resolved runtime paths")
	rootCmd.AddCommand(versionCmd)
}
