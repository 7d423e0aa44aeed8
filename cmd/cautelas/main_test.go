package main

import (
	"testing"

	"github.com/erazemk/cautelas/internal/config"
)

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	f, err := parseFlags([]string{"-d", "other.db", "-addr", ":9090"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	var cfg config.Config
	cfg.DB.Path = "cautelas.db"
	cfg.HTTP.Addr = ":8080"
	cfg.Templates.Dir = "templates"
	f.apply(&cfg)

	if cfg.DB.Path != "other.db" {
		t.Errorf("expected db path from short flag, got %q", cfg.DB.Path)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected addr from long flag, got %q", cfg.HTTP.Addr)
	}
	if cfg.Templates.Dir != "templates" {
		t.Errorf("expected templates dir untouched, got %q", cfg.Templates.Dir)
	}
}

func TestFlagsRejectArguments(t *testing.T) {
	if _, err := parseFlags([]string{"serve"}); err == nil {
		t.Error("expected error for positional argument")
	}
}
