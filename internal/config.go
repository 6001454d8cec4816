package internal

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/vidgate/vidgate/internal/api"
	"github.com/vidgate/vidgate/internal/database"
	"github.com/vidgate/vidgate/internal/extract"
)

// VidgateConfig is the struct used to contain the various user config
// supplied by file, or environment.
type VidgateConfig struct {
	ServiceName string                  `yaml:"service_name" env:"SERVICE_NAME" env-default:"vidgate"`
	Version     string                  `yaml:"version" env:"SERVICE_VERSION" env-default:"2.0.0"`
	Debug       bool                    `yaml:"debug" env:"DEBUG" env-default:"false"`
	Rest        api.RestConfig          `yaml:"api"`
	Database    database.DatabaseConfig `yaml:"database"`
	Extraction  extract.Config          `yaml:"extraction"`
}

// LoadFromFile loads a configuration file formatted in YAML in to a
// VidgateConfig struct, with environment variables taking precedence as
// per cleanenv semantics.
func (config *VidgateConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from %s - %v", configPath, err.Error())
	}

	return nil
}

// LoadFromEnv populates the config purely from environment variables.
func (config *VidgateConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment - %v", err.Error())
	}

	return nil
}
