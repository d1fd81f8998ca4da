package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clipflow/clipflow/internal/utils"
	"github.com/clipflow/clipflow/internal/youtube"
)

// DefaultFile is the project config consulted when --config is not passed.
const DefaultFile = "clipflow.yaml"

// Config holds project-level defaults for the publish and playlist commands.
// Command-line flags override config values, which override the defaults.
type Config struct {
	// Credentials names the OAuth client secrets JSON file.
	Credentials string `yaml:"credentials"`
	// Cache names the catalog cache file.
	Cache string `yaml:"cache"`
	// PlaylistID is the default target playlist for publishing.
	PlaylistID string `yaml:"playlistId"`
	// CategoryID is the category assigned to published videos.
	CategoryID string `yaml:"categoryId"`
	// ScanMoreUploads widens the bounded upload history scan.
	ScanMoreUploads int `yaml:"scanMoreUploads"`
	// SuppressCredit drops the credit line from published descriptions.
	SuppressCredit bool `yaml:"suppressCredit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:      youtube.DefaultCacheFile,
		CategoryID: "22",
	}
}

// Load reads a config file over the defaults. With an empty path the default
// file is tried and its absence is fine; an explicitly named file must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()

	required := path != ""
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Credentials, err = utils.ExpandHomeDir(cfg.Credentials); err != nil {
		return cfg, err
	}
	if cfg.Cache, err = utils.ExpandHomeDir(cfg.Cache); err != nil {
		return cfg, err
	}

	return cfg, nil
}
