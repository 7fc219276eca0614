// Package config persists user preferences at ~/.sheetdesk/config.json.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

type GlobalConfig struct {
	// ServerURL is the default backend base URL when --server and
	// SHEETDESK_SERVER are not set.
	ServerURL string `json:"serverUrl,omitempty"`

	// TUI holds optional user preferences for the interactive panel.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// ConfirmDelete can be set to false to skip the delete confirmation
	// modal. Default (unset/true) keeps the confirmation step.
	ConfirmDelete *bool `json:"confirmDelete,omitempty"`
}

func ConfigDir() (string, error) {
	// SHEETDESK_HOME supports fixtures/tests; default is ~/.sheetdesk.
	if dir := os.Getenv("SHEETDESK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sheetdesk"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func Load() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// atomicWriteFile uses a unique temp file plus rename so concurrent
// sheetdesk processes (CLI + TUI) cannot corrupt the config.
func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
