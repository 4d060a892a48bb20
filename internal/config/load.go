package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
)

// Defaults applied before any config file is read.
var defaultValues = map[string]any{
	"logger": map[string]any{
		"level":  "info",
		"format": "json",
	},
	"http": map[string]any{
		"address":         ":8080",
		"shutdownTimeout": "5s",
	},
	"directory": map[string]any{
		"source":   "http",
		"cacheTTL": "30s",
	},
	"usage": map[string]any{
		"source": "http",
	},
	"connect": map[string]any{
		"store":   "memory",
		"flowTTL": "12h",
	},
	"providers": map[string]any{
		"plaid": map[string]any{
			"environment": "sandbox",
			"clientName":  "Connect Manager",
		},
		"teller": map[string]any{
			"environment": "sandbox",
			"settleDelay": "1s",
		},
	},
	"migrate": map[string]any{
		"source": "embedded",
	},
}

// Load builds the configuration from defaults overlaid with the first
// config.yaml found in the given search paths. A missing file is not
// an error; the defaults stand.
func Load(version string, paths ...string) (*Config, error) {
	cfg := &Config{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     cfg,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating defaults decoder: %w", err)
	}
	if err := decoder.Decode(defaultValues); err != nil {
		return nil, fmt.Errorf("applying default values: %w", err)
	}

	for _, dir := range paths {
		path := filepath.Join(os.ExpandEnv(dir), "config.yaml")

		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}

		break
	}

	cfg.Application.Version = version

	return cfg, nil
}
