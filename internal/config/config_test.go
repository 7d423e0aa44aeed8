package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir moves into an empty directory so no stray cautelas.yaml or .env is
// picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", c.HTTP.Addr)
	}
	if c.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected 7 day token TTL, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.AllowRegistration {
		t.Error("expected registration disabled by default")
	}
	if !c.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := chdir(t)

	path := filepath.Join(dir, "custom.yaml")
	yaml := "http:\n  addr: \":9000\"\ndb:\n  path: /tmp/a.db\nauth:\n  token_ttl: 12h\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAUTELAS_DB_PATH", "/tmp/env.db")
	t.Setenv("CAUTELAS_AUTH_ALLOW_REGISTRATION", "true")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTP.Addr != ":9000" {
		t.Errorf("expected addr from file, got %q", c.HTTP.Addr)
	}
	if c.DB.Path != "/tmp/env.db" {
		t.Errorf("expected env to override file, got %q", c.DB.Path)
	}
	if c.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("expected 12h TTL, got %s", c.Auth.TokenTTL)
	}
	if !c.Auth.AllowRegistration {
		t.Error("expected registration enabled from env")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CAUTELAS_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv writes straight into the process environment.
	t.Cleanup(func() { os.Unsetenv("CAUTELAS_LOG_LEVEL") })

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Log.Level != "debug" {
		t.Errorf("expected level from .env, got %q", c.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t)
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	chdir(t)
	t.Setenv("CAUTELAS_LOG_LEVEL", "loud")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", "INFO"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
}
