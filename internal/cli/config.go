package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is picked up from the working directory when no
// --config flag is given.
const DefaultConfigFile = "reachc.yaml"

// Config holds the file-based defaults. Flags given on the command line
// win over config values.
type Config struct {
	Format string `yaml:"format"` // default output format
	Cache  string `yaml:"cache"`  // compile-cache database path
}

// LoadConfig reads the config file at path. An empty path falls back to
// reachc.yaml in the working directory; a missing default file is not an
// error, a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Format != "" && !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("config %s: invalid format %q: must be one of %v", path, cfg.Format, ValidFormats)
	}
	return cfg, nil
}
