package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"halcyon-ai/promptgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without starting the server.

Exits non-zero and prints the offending field when validation fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		fmt.Println("✓ Configuration valid")
		fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddress)
		fmt.Printf("  Backend: %s\n", cfg.Upstream.BaseURL)
		fmt.Printf("  Template root: %s\n", cfg.Templates.Root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
