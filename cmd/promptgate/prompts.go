package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"halcyon-ai/promptgate/pkg/config"
	"halcyon-ai/promptgate/pkg/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List available prompt templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store := prompts.NewFileStore(cfg.Templates.Root)
		names, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}

		if len(names) == 0 {
			fmt.Printf("No templates found in %s\n", cfg.Templates.Root)
			return nil
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}
