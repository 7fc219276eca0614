package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsZeroConfig(t *testing.T) {
	t.Setenv("SHEETDESK_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "" || cfg.TUI != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SHEETDESK_HOME", filepath.Join(home, "nested", ".sheetdesk"))

	yes := false
	if err := Save(&GlobalConfig{
		ServerURL: "http://backend:8000",
		TUI:       &TUIConfig{ConfirmDelete: &yes},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://backend:8000" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.TUI == nil || cfg.TUI.ConfirmDelete == nil || *cfg.TUI.ConfirmDelete {
		t.Fatalf("TUI prefs did not round-trip: %+v", cfg.TUI)
	}
}
