package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the project configuration file
const FileName = "apiforge.json"

// ErrNotFound is returned when no apiforge.json exists in the directory or its parents
var ErrNotFound = errors.New("no " + FileName + " found")

// Config represents the apiforge.json configuration file
type Config struct {
	// Template is the path of the template document
	Template string `json:"template"`
	// Output is the directory the project directory is created in
	Output string      `json:"output"`
	Atomic bool        `json:"atomic"`
	Watch  WatchConfig `json:"watch"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	// DebounceMillis groups bursts of file events into one regeneration
	DebounceMillis int      `json:"debounceMillis"`
	Exclude        []string `json:"exclude"`
}

// Default returns the configuration used when no apiforge.json exists
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Template == "" {
		c.Template = "./template.yaml"
	}
	if c.Output == "" {
		c.Output = "./"
	}
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = 300
	}
	if len(c.Watch.Exclude) == 0 {
		c.Watch.Exclude = []string{"*~", "*.swp", ".#*"}
	}
}

// Resolve makes the template and output paths absolute relative to dir
func (c *Config) Resolve(dir string) {
	if !filepath.IsAbs(c.Template) {
		c.Template = filepath.Join(dir, c.Template)
	}
	if !filepath.IsAbs(c.Output) {
		c.Output = filepath.Join(dir, c.Output)
	}
}

// LoadConfig loads apiforge.json from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

// loadConfigFromDir searches for apiforge.json in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, startDir)
}
