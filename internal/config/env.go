package config

import (
	"os"
	"strconv"
)

// FromEnv overlays TEMPO_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("TEMPO_ALLOW_AUTO_CREATE_NAMESPACES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowAutoCreateNamespaces = b
		}
	}
	if v := os.Getenv("TEMPO_DEFAULT_NAMESPACE_NAME"); v != "" {
		cfg.DefaultNamespaceName = v
	}
	if v := os.Getenv("TEMPO_MAX_DELAY_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxDelayMs = n
		}
	}
	if v := os.Getenv("TEMPO_PUBLISH_RATE_PER_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PublishRatePerSec = f
		}
	}
	if v := os.Getenv("TEMPO_PUBLISH_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PublishBurst = n
		}
	}
	if v := os.Getenv("TEMPO_NAMESPACE_DEFAULTS_DEFAULT_DELAY_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.NamespaceDefaults.DefaultDelayMs = n
		}
	}
	if v := os.Getenv("TEMPO_NAMESPACE_DEFAULTS_PAYLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NamespaceDefaults.PayloadMaxBytes = n
		}
	}
	if v := os.Getenv("TEMPO_NAMESPACE_DEFAULTS_MAX_PARKED"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NamespaceDefaults.MaxParked = n
		}
	}
}
