package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typlsp/internal/config"
	"github.com/Sumatoshi-tech/typlsp/internal/server"
)

func lspCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server on stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			srv, err := server.New(server.Options{Config: cfg})
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			return srv.Run()
		},
	}
}
