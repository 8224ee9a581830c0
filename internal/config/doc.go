// Package config provides loading and environment overlay for Tempo runtime
// configuration. It exposes a Default() baseline, file loading (JSON or YAML
// by extension), and a TEMPO_* env overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/tempo.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
