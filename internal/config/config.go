// Package config loads the server configuration file. Every setting
// has a workable default, so a missing file is not an error — the
// server runs with the embedded library and local data directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the conventional config filename inside the data dir.
const ConfigFile = "config.yaml"

// Config models the optional batchflow config file.
type Config struct {
	// DataDir holds the SQLite databases. Default: ~/.batchflow.
	DataDir string `yaml:"data_dir"`
	// LibraryPath points at a YAML process library document. Empty
	// selects the embedded dispensing library.
	LibraryPath string `yaml:"library_path"`
	// RendererURL is the Kroki endpoint used for PNG/SVG export.
	RendererURL string `yaml:"renderer_url"`
}

// Default returns the zero-configuration setup.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".batchflow"),
	}
}

// Load reads the config file at path, falling back to defaults for
// unset fields. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = filepath.Join(cfg.DataDir, ConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.LibraryPath != "" {
		cfg.LibraryPath = file.LibraryPath
	}
	if file.RendererURL != "" {
		cfg.RendererURL = file.RendererURL
	}
	return cfg, nil
}
