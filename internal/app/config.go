package app

import (
	"github.com/justworkflowit/workflow-deployer/internal/config"
)

// Config holds the application configuration
type Config struct {
	// ConfigFile is an optional YAML configuration file.
	ConfigFile string

	// Trace exports reconciliation spans to stderr.
	Trace bool

	// Version is reported in the registry User-Agent.
	Version string

	// Loader reads the deployer configuration. A fresh loader is used when
	// nil.
	Loader *config.Loader

	// Deployer is the loaded configuration. When set before bootstrap,
	// loading is skipped.
	Deployer *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(configFile string, trace bool) *Config {
	return &Config{
		ConfigFile: configFile,
		Trace:      trace,
	}
}
