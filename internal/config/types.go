package config

import (
	"encoding/json"
	"fmt"
)

// SyncStrategy controls how a mount's backing repository is kept up to date.
type SyncStrategy string

const (
	// SyncAuto fetches and fast-forwards the clone on every sync.
	SyncAuto SyncStrategy = "auto"
	// SyncManual verifies the clone exists but never fetches automatically.
	SyncManual SyncStrategy = "manual"
	// SyncNone clones once and leaves the repository alone afterwards.
	SyncNone SyncStrategy = "none"
)

// ParseSyncStrategy validates a user-supplied sync strategy string.
func ParseSyncStrategy(s string) (SyncStrategy, error) {
	switch SyncStrategy(s) {
	case SyncAuto, SyncManual, SyncNone:
		return SyncStrategy(s), nil
	}
	return "", fmt.Errorf("invalid sync strategy '%s': must be auto, manual or none", s)
}

// MountDirsV1 names the two top-level directories of the legacy v1 layout.
type MountDirsV1 struct {
	Repository string `json:"repository"`
	Personal   string `json:"personal"`
}

// DefaultMountDirsV1 returns the v1 directory names used when a field is absent.
func DefaultMountDirsV1() MountDirsV1 {
	return MountDirsV1{Repository: "context", Personal: "personal"}
}

// RequiredMount is a single mount declaration in a v1 config.
type RequiredMount struct {
	Remote      string       `json:"remote"`
	MountPath   string       `json:"mount_path"`
	Subpath     string       `json:"subpath,omitempty"`
	Description string       `json:"description,omitempty"`
	Optional    bool         `json:"optional,omitempty"`
	Sync        SyncStrategy `json:"sync,omitempty"`
}

// Rule is free-form v1 metadata. It is not carried into v2 semantics but is
// preserved in the migration backup.
type Rule struct {
	Pattern     string                     `json:"pattern"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
	Description string                     `json:"description,omitempty"`
}

// ConfigV1 is the legacy configuration schema.
type ConfigV1 struct {
	Version   string          `json:"version"`
	MountDirs MountDirsV1     `json:"mount_dirs"`
	Requires  []RequiredMount `json:"requires"`
	Rules     []Rule          `json:"rules,omitempty"`
}

// MountDirs names the three top-level directories of the mounted tree.
type MountDirs struct {
	Thoughts   string `json:"thoughts"`
	Context    string `json:"context"`
	References string `json:"references"`
}

// DefaultMountDirs returns the standard thoughts/context/references names.
func DefaultMountDirs() MountDirs {
	return MountDirs{Thoughts: "thoughts", Context: "context", References: "references"}
}

// ThoughtsMount is the single personal-notes mount of a v2 config.
type ThoughtsMount struct {
	Remote  string       `json:"remote"`
	Subpath string       `json:"subpath,omitempty"`
	Sync    SyncStrategy `json:"sync,omitempty"`
}

// ContextMount is a team-shared documentation mount.
type ContextMount struct {
	Remote      string       `json:"remote"`
	Subpath     string       `json:"subpath,omitempty"`
	MountPath   string       `json:"mount_path"`
	Sync        SyncStrategy `json:"sync,omitempty"`
	Description string       `json:"description,omitempty"`
}

// ReferenceMount is a read-only external repository. Its mount location is
// always derived from the remote's org/repo, never user-chosen.
type ReferenceMount struct {
	Remote      string `json:"remote"`
	Description string `json:"description,omitempty"`
}

// ConfigV2 is the current configuration schema.
type ConfigV2 struct {
	Version       string           `json:"version"`
	MountDirs     MountDirs        `json:"mount_dirs"`
	ThoughtsMount *ThoughtsMount   `json:"thoughts_mount,omitempty"`
	ContextMounts []ContextMount   `json:"context_mounts"`
	References    []ReferenceMount `json:"references"`
}

// NewConfigV2 creates an empty v2 config with default directory names.
func NewConfigV2() *ConfigV2 {
	return &ConfigV2{
		Version:       VersionV2,
		MountDirs:     DefaultMountDirs(),
		ContextMounts: []ContextMount{},
		References:    []ReferenceMount{},
	}
}

// Config is the version-tagged union over the two schemas. Exactly one of V1
// and V2 is non-nil, matching Version.
type Config struct {
	Version string
	V1      *ConfigV1
	V2      *ConfigV2
}

const (
	VersionV1 = "1.0"
	VersionV2 = "2.0"
)

// FindContextMount returns the context mount with the given mount path, or nil.
func (c *ConfigV2) FindContextMount(mountPath string) *ContextMount {
	for i := range c.ContextMounts {
		if c.ContextMounts[i].MountPath == mountPath {
			return &c.ContextMounts[i]
		}
	}
	return nil
}

// AddContextMount appends a context mount, rejecting duplicate mount paths.
func (c *ConfigV2) AddContextMount(m ContextMount) error {
	if c.FindContextMount(m.MountPath) != nil {
		return fmt.Errorf("context mount '%s' already exists", m.MountPath)
	}
	c.ContextMounts = append(c.ContextMounts, m)
	return nil
}

// RemoveContextMount removes a context mount by mount path. Returns false if
// no such mount existed.
func (c *ConfigV2) RemoveContextMount(mountPath string) bool {
	for i, m := range c.ContextMounts {
		if m.MountPath == mountPath {
			c.ContextMounts = append(c.ContextMounts[:i], c.ContextMounts[i+1:]...)
			return true
		}
	}
	return false
}

// AddReference appends a reference, rejecting duplicates of the same remote.
func (c *ConfigV2) AddReference(r ReferenceMount) error {
	for _, existing := range c.References {
		if existing.Remote == r.Remote {
			return fmt.Errorf("reference '%s' already exists", r.Remote)
		}
	}
	c.References = append(c.References, r)
	return nil
}

// RemoveReference removes a reference by remote. Returns false if absent.
func (c *ConfigV2) RemoveReference(remote string) bool {
	for i, r := range c.References {
		if r.Remote == remote {
			c.References = append(c.References[:i], c.References[i+1:]...)
			return true
		}
	}
	return false
}
