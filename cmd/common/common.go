// Package common holds helpers shared by the CLI subcommands.
package common

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/petition-pipeline/internal/config"
	"github.com/jonesrussell/petition-pipeline/internal/logger"
)

// LoadConfig reads the configuration honoring the root command's --config and
// --debug flags.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("read config flag: %w", err)
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("read debug flag: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	return cfg, nil
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(cfg.Logging)
}
