package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	AllowAutoCreateNamespaces bool              `json:"allowAutoCreateNamespaces" yaml:"allowAutoCreateNamespaces"`
	DefaultNamespaceName      string            `json:"defaultNamespaceName" yaml:"defaultNamespaceName"`
	MaxDelayMs                int64             `json:"maxDelayMs" yaml:"maxDelayMs"`
	PublishRatePerSec         float64           `json:"publishRatePerSec" yaml:"publishRatePerSec"`
	PublishBurst              int               `json:"publishBurst" yaml:"publishBurst"`
	NamespaceDefaults         NamespaceDefaults `json:"namespaceDefaults" yaml:"namespaceDefaults"`
}

// NamespaceDefaults captures per-namespace baseline limits for new lines.
type NamespaceDefaults struct {
	DefaultDelayMs  int64 `json:"defaultDelayMs" yaml:"defaultDelayMs"`
	PayloadMaxBytes int   `json:"payloadMaxBytes" yaml:"payloadMaxBytes"`
	MaxParked       int   `json:"maxParked" yaml:"maxParked"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		AllowAutoCreateNamespaces: true,
		DefaultNamespaceName:      "default",
		MaxDelayMs:                24 * 60 * 60 * 1000,
		PublishRatePerSec:         0, // 0 disables publish rate limiting
		PublishBurst:              0,
		NamespaceDefaults: NamespaceDefaults{
			DefaultDelayMs:  0,
			PayloadMaxBytes: 1 << 20,
			MaxParked:       0, // 0 means unbounded
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). An empty
// path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse json config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}
