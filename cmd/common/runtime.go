// Package common holds helpers shared by the statcrawl commands.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/statcrawl/internal/config"
	"github.com/jonesrussell/north-cloud/statcrawl/internal/logger"
)

// Load decodes the global viper state into a validated Config and builds
// the logger it describes.
func Load() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
