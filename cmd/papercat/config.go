package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file, .env and
environment overrides are applied. The API key is never printed.`,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	shown := cfg.Redacted()

	if !humanOutput {
		outputJSON(shown)
		return nil
	}

	apiKey := "(not set)"
	if shown.APIKey != "" {
		apiKey = shown.APIKey
	}
	outputHuman("db_path:       %s\n", shown.DBPath)
	outputHuman("pdf_dir:       %s\n", shown.PDFDir)
	outputHuman("log_mode:      %s\n", shown.LogMode)
	outputHuman("fetch.query:   %s\n", shown.Fetch.Query)
	outputHuman("fetch.max:     %d\n", shown.Fetch.MaxResults)
	outputHuman("llm.base_url:  %s\n", shown.LLM.BaseURL)
	outputHuman("llm.model:     %s\n", shown.LLM.Model)
	outputHuman("llm.attempts:  %d (base delay %s)\n", shown.LLM.MaxAttempts, shown.LLM.BaseDelay.Duration)
	outputHuman("extract.pace:  %s\n", shown.Extract.Pace.Duration)
	outputHuman("server.addr:   %s\n", shown.Server.Addr)
	outputHuman("api_key:       %s\n", apiKey)
	return nil
}
