package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for a download run. Values come from
// an optional YAML file with CLI flags layered on top.
type Config struct {
	AgendaURL  string `yaml:"agenda_url"`
	AgendaFile string `yaml:"agenda_file"`
	OutputDir  string `yaml:"output_dir"`
	Prefer     string `yaml:"prefer"`

	Workers        int  `yaml:"workers"`
	Retries        int  `yaml:"retries"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	Insecure       bool `yaml:"insecure"`
	Zip            bool `yaml:"zip"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		OutputDir:      "ocp-downloads",
		Prefer:         "gdrive",
		Workers:        4,
		Retries:        3,
		TimeoutSeconds: 60,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
