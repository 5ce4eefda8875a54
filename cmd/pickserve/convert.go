package main

import (
	"fmt"

	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a catalog between TOML, text and msgpack snapshot files",
	Long: "Convert a catalog file. Formats follow the extension:\n" +
		"  .toml           [[option]] tables\n" +
		"  .bin, .msgpack  msgpack snapshot (fastest to load)\n" +
		"  .txt            one value<TAB>label per line (read only)",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		if err := catalog.WriteFile(args[1], cat.Export()); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d options to %s\n", cat.Len(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
