package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loom.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "loom.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "loom" {
		t.Errorf("Name = %q, want loom", cfg.Name)
	}
	if cfg.Server.Address != ":3000" {
		t.Errorf("Address = %q, want :3000", cfg.Server.Address)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
	if got := cfg.Server.SessionTTL(); got != 5*time.Minute {
		t.Errorf("SessionTTL = %v, want 5m", got)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `{"name":"demo","server":{"address":":8080"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("Name = %q, want demo", cfg.Name)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Address = %q, want :8080", cfg.Server.Address)
	}
	// Unset fields keep their defaults.
	if cfg.Server.SessionTTLSeconds != 300 {
		t.Errorf("SessionTTLSeconds = %d, want 300", cfg.Server.SessionTTLSeconds)
	}
}

func TestLoadBoltRequiresPath(t *testing.T) {
	path := writeConfig(t, `{"store":{"backend":"bolt"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bolt backend without path")
	}
}

func TestLoadS3RequiresBucket(t *testing.T) {
	path := writeConfig(t, `{"store":{"backend":"s3"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for s3 backend without bucket")
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	path := writeConfig(t, `{"store":{"backend":"redis"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"name":`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
