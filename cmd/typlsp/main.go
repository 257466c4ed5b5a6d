// Package main provides the typlsp CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typlsp/pkg/version"
)

var cfgFile string //nolint:gochecknoglobals // CLI flag variable

func main() {
	rootCmd := &cobra.Command{
		Use:   "typlsp",
		Short: "Language server for Typst documents",
		Long:  `typlsp is a language server that keeps an incremental source cache and drives compile passes for Typst documents.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.typlsp.yaml)")

	rootCmd.AddCommand(lspCmd())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "typlsp %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
