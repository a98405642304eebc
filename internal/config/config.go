package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/byterings/docspace/internal/platform"
)

const (
	// ConfigDirName is the per-repository directory holding the config file.
	ConfigDirName = ".docspace"
	// ConfigFileName is the versioned config document inside ConfigDirName.
	ConfigFileName = "config.json"
	// StateDirName is the per-repository mount-state directory. Worktrees
	// share it with their primary tree via a symlink.
	StateDirName = ".docspace-data"
)

// RepoConfigPath returns the config file path for a repository root.
func RepoConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigDirName, ConfigFileName)
}

// StateDirPath returns the mount-state directory for a repository root.
func StateDirPath(repoRoot string) string {
	return filepath.Join(repoRoot, StateDirName)
}

// PeekVersion reads only the version discriminant from a raw config document
// without committing to either schema. A missing version field is treated as
// v1, which predates the discriminant being mandatory.
func PeekVersion(raw []byte) (string, error) {
	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", err
	}
	if probe.Version == "" {
		return VersionV1, nil
	}
	return probe.Version, nil
}

// Exists reports whether a config file is present for the repository.
func Exists(repoRoot string) bool {
	_, err := os.Stat(RepoConfigPath(repoRoot))
	return err == nil
}

// Load reads and validates the repository config, dispatching on the peeked
// version so a valid v1 document is never misparsed as a malformed v2 one.
// Returns nil without error if no config file exists.
func Load(repoRoot string) (*Config, error) {
	path := RepoConfigPath(repoRoot)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(raw, path)
}

// Parse decodes a raw config document. The path is only used in errors.
func Parse(raw []byte, path string) (*Config, error) {
	version, err := PeekVersion(raw)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	switch version {
	case VersionV1:
		var v1 ConfigV1
		if err := json.Unmarshal(raw, &v1); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		v1.Version = VersionV1
		applyV1Defaults(&v1)
		if err := validateV1(&v1); err != nil {
			return nil, err
		}
		return &Config{Version: VersionV1, V1: &v1}, nil
	case VersionV2:
		var v2 ConfigV2
		if err := json.Unmarshal(raw, &v2); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		applyV2Defaults(&v2)
		if err := ValidateV2(&v2); err != nil {
			return nil, err
		}
		return &Config{Version: VersionV2, V2: &v2}, nil
	default:
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unsupported config version: %s", version)}
	}
}

// Save validates and atomically persists a v2 config. Only v2 configs are
// ever written; v1 documents are read-only inputs to migration.
func Save(repoRoot string, cfg *ConfigV2) error {
	if err := ValidateV2(cfg); err != nil {
		return err
	}

	path := RepoConfigPath(repoRoot)
	if err := platform.MkdirSecure(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	return platform.WriteFileAtomic(path, data)
}

func applyV1Defaults(cfg *ConfigV1) {
	defaults := DefaultMountDirsV1()
	if cfg.MountDirs.Repository == "" {
		cfg.MountDirs.Repository = defaults.Repository
	}
	if cfg.MountDirs.Personal == "" {
		cfg.MountDirs.Personal = defaults.Personal
	}
	for i := range cfg.Requires {
		if cfg.Requires[i].Sync == "" {
			cfg.Requires[i].Sync = SyncNone
		}
	}
}

func applyV2Defaults(cfg *ConfigV2) {
	defaults := DefaultMountDirs()
	if cfg.MountDirs.Thoughts == "" {
		cfg.MountDirs.Thoughts = defaults.Thoughts
	}
	if cfg.MountDirs.Context == "" {
		cfg.MountDirs.Context = defaults.Context
	}
	if cfg.MountDirs.References == "" {
		cfg.MountDirs.References = defaults.References
	}
	if cfg.ThoughtsMount != nil && cfg.ThoughtsMount.Sync == "" {
		cfg.ThoughtsMount.Sync = SyncAuto
	}
	for i := range cfg.ContextMounts {
		if cfg.ContextMounts[i].Sync == "" {
			cfg.ContextMounts[i].Sync = SyncAuto
		}
	}
	if cfg.ContextMounts == nil {
		cfg.ContextMounts = []ContextMount{}
	}
	if cfg.References == nil {
		cfg.References = []ReferenceMount{}
	}
}

func validateV1(cfg *ConfigV1) error {
	seen := make(map[string]bool)
	for _, m := range cfg.Requires {
		if seen[m.MountPath] {
			return fmt.Errorf("duplicate mount path: %s", m.MountPath)
		}
		seen[m.MountPath] = true
		if err := ValidateRemote(m.Remote); err != nil {
			return err
		}
	}
	return nil
}

// ValidateV2 applies the hard validation rules for a v2 config: distinct
// single-segment mount directory names, unique context mount paths, valid
// remotes, and valid sync strategies.
func ValidateV2(cfg *ConfigV2) error {
	if cfg.Version != VersionV2 {
		return fmt.Errorf("unsupported config version: %s", cfg.Version)
	}

	dirs := map[string]string{
		"thoughts":   cfg.MountDirs.Thoughts,
		"context":    cfg.MountDirs.Context,
		"references": cfg.MountDirs.References,
	}
	for name, val := range dirs {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("mount directory '%s' cannot be empty", name)
		}
		if val == "." || val == ".." {
			return fmt.Errorf("mount directory '%s' cannot be '.' or '..'", name)
		}
		if strings.ContainsAny(val, `/\`) {
			return fmt.Errorf("mount directory '%s' must be a single path segment (got %s)", name, val)
		}
		if val == StateDirName {
			return fmt.Errorf("mount directory '%s' cannot be named '%s'", name, StateDirName)
		}
	}
	if cfg.MountDirs.Thoughts == cfg.MountDirs.Context ||
		cfg.MountDirs.Thoughts == cfg.MountDirs.References ||
		cfg.MountDirs.Context == cfg.MountDirs.References {
		return fmt.Errorf("mount directories must be distinct (thoughts/context/references)")
	}

	if tm := cfg.ThoughtsMount; tm != nil {
		if err := ValidateRemote(tm.Remote); err != nil {
			return err
		}
		if err := validateSubpath(tm.Subpath); err != nil {
			return fmt.Errorf("thoughts mount: %w", err)
		}
		if tm.Sync == SyncNone {
			return fmt.Errorf("thoughts mount cannot use sync 'none'")
		}
	}

	seen := make(map[string]bool)
	for _, cm := range cfg.ContextMounts {
		mp := strings.TrimSpace(cm.MountPath)
		if mp == "" {
			return fmt.Errorf("context mount path cannot be empty")
		}
		if mp == "." || mp == ".." {
			return fmt.Errorf("context mount path cannot be '.' or '..'")
		}
		if strings.ContainsAny(mp, `/\`) {
			return fmt.Errorf("context mount path must be a single path segment (got %s)", cm.MountPath)
		}
		if seen[mp] {
			return fmt.Errorf("duplicate context mount path: %s", mp)
		}
		seen[mp] = true
		if err := ValidateRemote(cm.Remote); err != nil {
			return err
		}
		if err := validateSubpath(cm.Subpath); err != nil {
			return fmt.Errorf("context mount '%s': %w", mp, err)
		}
	}

	seenRefs := make(map[string]bool)
	for _, r := range cfg.References {
		if err := ValidateRemote(r.Remote); err != nil {
			return fmt.Errorf("invalid reference: %w", err)
		}
		if seenRefs[r.Remote] {
			return fmt.Errorf("duplicate reference: %s", r.Remote)
		}
		seenRefs[r.Remote] = true
	}

	return nil
}

// validateSubpath rejects any subpath that could resolve outside the backing
// clone: absolute paths, backslashes, and '..' segments. The subpath is
// joined onto the clone path verbatim, so it must stay a plain relative
// forward-slash path.
func validateSubpath(sub string) error {
	if sub == "" {
		return nil
	}
	if strings.HasPrefix(sub, "/") || strings.Contains(sub, `\`) {
		return fmt.Errorf("subpath must be a relative forward-slash path (got %s)", sub)
	}
	for _, seg := range strings.Split(path.Clean(sub), "/") {
		if seg == ".." {
			return fmt.Errorf("subpath cannot traverse outside the repository (got %s)", sub)
		}
	}
	return nil
}

// ValidateRemote checks that a remote looks like a git URL we can clone.
func ValidateRemote(remote string) error {
	if remote == "" {
		return fmt.Errorf("remote URL cannot be empty")
	}
	if strings.HasPrefix(remote, "git@") ||
		strings.HasPrefix(remote, "ssh://") ||
		strings.HasPrefix(remote, "https://") ||
		strings.HasPrefix(remote, "http://") ||
		strings.HasPrefix(remote, "file://") ||
		strings.HasPrefix(remote, "/") ||
		strings.HasPrefix(remote, "./") {
		return nil
	}
	return fmt.Errorf("invalid remote URL: %s (must be a git URL or a local path)", remote)
}
