package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "promptgate",
	Short: "Promptgate - chat completion gateway for local inference backends",
	Long: `Promptgate is an OpenAI-compatible chat completion gateway that fronts a
local inference backend such as llama.cpp, vLLM, or Ollama.

It provides:
  - Named system-prompt templates injected per request
  - Verbatim relay of buffered and streaming completions
  - Backend liveness monitoring
  - Concurrency capping, Prometheus metrics, and a request audit log`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
