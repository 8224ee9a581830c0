package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.AllowAutoCreateNamespaces {
		t.Fatalf("default allow auto create should be true")
	}
	if cfg.DefaultNamespaceName != "default" {
		t.Fatalf("default ns name")
	}
	if cfg.NamespaceDefaults.PayloadMaxBytes != 1<<20 {
		t.Fatalf("payload max default")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tempo.json")
	data := []byte(`{"defaultNamespaceName":"prod","maxDelayMs":60000,"namespaceDefaults":{"defaultDelayMs":500,"payloadMaxBytes":2048}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultNamespaceName != "prod" {
		t.Fatalf("expected prod")
	}
	if cfg.MaxDelayMs != 60000 {
		t.Fatalf("expected 60000")
	}
	if cfg.NamespaceDefaults.DefaultDelayMs != 500 {
		t.Fatalf("expected 500")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tempo.yaml")
	data := []byte("defaultNamespaceName: staging\npublishRatePerSec: 100\nnamespaceDefaults:\n  defaultDelayMs: 250\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultNamespaceName != "staging" {
		t.Fatalf("expected staging, got %q", cfg.DefaultNamespaceName)
	}
	if cfg.PublishRatePerSec != 100 {
		t.Fatalf("expected rate 100")
	}
	if cfg.NamespaceDefaults.DefaultDelayMs != 250 {
		t.Fatalf("expected 250")
	}
	// untouched fields keep defaults
	if cfg.NamespaceDefaults.PayloadMaxBytes != 1<<20 {
		t.Fatalf("payload default lost on partial yaml")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultNamespaceName != "default" {
		t.Fatalf("expected defaults")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("TEMPO_DEFAULT_NAMESPACE_NAME", "staging")
	t.Setenv("TEMPO_MAX_DELAY_MS", "120000")
	t.Setenv("TEMPO_NAMESPACE_DEFAULTS_DEFAULT_DELAY_MS", "750")
	FromEnv(&cfg)
	if cfg.DefaultNamespaceName != "staging" {
		t.Fatalf("env override name")
	}
	if cfg.MaxDelayMs != 120000 {
		t.Fatalf("env override max delay")
	}
	if cfg.NamespaceDefaults.DefaultDelayMs != 750 {
		t.Fatalf("env override default delay")
	}
}
