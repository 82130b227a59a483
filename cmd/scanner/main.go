package main

import (
	"fmt"
	"os"

	"strat-scanner/internal/cli"
	"strat-scanner/internal/config"
	"strat-scanner/internal/logging"
)

func main() {
	configDir := os.Getenv("STRAT_SCANNER_CONFIG")
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
