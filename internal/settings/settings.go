// Package settings loads host-level tool preferences. These are distinct
// from the per-repository config: they tune how the tool behaves on this
// machine, not what gets mounted.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SettingsFileName is the TOML file under the docspace home directory.
const SettingsFileName = "settings.toml"

// Settings holds host-level preferences.
type Settings struct {
	// NetworkTimeoutSeconds bounds each clone/fetch operation.
	NetworkTimeoutSeconds int `toml:"network_timeout_seconds"`
	// SyncWorkers caps concurrent repository syncs in one invocation.
	SyncWorkers int `toml:"sync_workers"`
	// Color controls terminal colors: "auto", "always" or "never".
	Color string `toml:"color"`
}

// Default returns the settings used when no file exists.
func Default() *Settings {
	return &Settings{
		NetworkTimeoutSeconds: 120,
		SyncWorkers:           4,
		Color:                 "auto",
	}
}

// Load reads settings from the given docspace home directory, applying
// defaults for absent fields. A missing file is not an error.
func Load(home string) (*Settings, error) {
	s := Default()
	path := filepath.Join(home, SettingsFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.NetworkTimeoutSeconds <= 0 {
		s.NetworkTimeoutSeconds = Default().NetworkTimeoutSeconds
	}
	if s.SyncWorkers <= 0 {
		s.SyncWorkers = Default().SyncWorkers
	}
	switch s.Color {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("invalid color setting '%s': must be auto, always or never", s.Color)
	}
	return s, nil
}
