package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v1Fixture() *ConfigV1 {
	return &ConfigV1{
		Version:   VersionV1,
		MountDirs: MountDirsV1{Repository: "context", Personal: "personal"},
		Requires: []RequiredMount{
			{Remote: "https://github.com/acme/docs", MountPath: "docs", Sync: SyncAuto},
			{Remote: "https://github.com/upstream/lib", MountPath: "lib", Sync: SyncNone},
			{Remote: "https://github.com/upstream/spec", MountPath: "references/spec", Sync: SyncAuto},
		},
	}
}

func TestMigrate_Classification(t *testing.T) {
	v2, err := Migrate(v1Fixture())
	require.NoError(t, err)

	// sync none and references/ prefixed mounts become references, the
	// rest become context mounts.
	require.Len(t, v2.ContextMounts, 1)
	assert.Equal(t, "docs", v2.ContextMounts[0].MountPath)
	assert.Equal(t, SyncAuto, v2.ContextMounts[0].Sync)

	require.Len(t, v2.References, 2)
	assert.Equal(t, "https://github.com/upstream/lib", v2.References[0].Remote)
	assert.Equal(t, "https://github.com/upstream/spec", v2.References[1].Remote)
}

func TestMigrate_IsPure(t *testing.T) {
	v1 := v1Fixture()

	first, err := Migrate(v1)
	require.NoError(t, err)
	second, err := Migrate(v1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, v1Fixture(), v1, "input must not be mutated")
}

func TestMigrate_KeepsRepositoryDirName(t *testing.T) {
	v1 := v1Fixture()
	v1.MountDirs.Repository = "team"

	v2, err := Migrate(v1)
	require.NoError(t, err)
	assert.Equal(t, "team", v2.MountDirs.Context)
	assert.Equal(t, "thoughts", v2.MountDirs.Thoughts)
	assert.Equal(t, "references", v2.MountDirs.References)
}

func TestMigrate_DefaultSyncBecomesAuto(t *testing.T) {
	v1 := &ConfigV1{
		Version: VersionV1,
		Requires: []RequiredMount{
			{Remote: "https://github.com/acme/docs", MountPath: "docs", Sync: SyncManual},
		},
	}

	v2, err := Migrate(v1)
	require.NoError(t, err)
	require.Len(t, v2.ContextMounts, 1)
	assert.Equal(t, SyncManual, v2.ContextMounts[0].Sync)
}

func TestMigrate_DuplicateReferencesCollapse(t *testing.T) {
	v1 := &ConfigV1{
		Version: VersionV1,
		Requires: []RequiredMount{
			{Remote: "https://github.com/upstream/lib", MountPath: "references/lib", Sync: SyncNone},
			{Remote: "https://github.com/upstream/lib", MountPath: "references/lib-again", Sync: SyncNone},
		},
	}

	v2, err := Migrate(v1)
	require.NoError(t, err)
	assert.Len(t, v2.References, 1)
}

func TestMigrate_DuplicateContextPathConflicts(t *testing.T) {
	v1 := &ConfigV1{
		Version: VersionV1,
		Requires: []RequiredMount{
			{Remote: "https://github.com/acme/docs", MountPath: "docs", Sync: SyncAuto},
			{Remote: "https://github.com/acme/wiki", MountPath: "docs", Sync: SyncManual},
		},
	}

	_, err := Migrate(v1)
	var conflict *MigrationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "docs", conflict.MountPath)
}

func TestMigrate_OutputValidates(t *testing.T) {
	v2, err := Migrate(v1Fixture())
	require.NoError(t, err)
	assert.NoError(t, ValidateV2(v2))
}

func TestNeedsBackup(t *testing.T) {
	assert.False(t, NeedsBackup(&ConfigV1{Version: VersionV1}))
	assert.True(t, NeedsBackup(v1Fixture()))
	assert.True(t, NeedsBackup(&ConfigV1{
		Version: VersionV1,
		Rules:   []Rule{{Pattern: "*.md"}},
	}))
}

func TestBackupPath(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := BackupPath("/repo", now)
	assert.Equal(t, filepath.Join("/repo", ConfigDirName, "config.v1.bak-20250314-092653.json"), got)
}

func TestEnsureV2_MigratesWithBackup(t *testing.T) {
	root := t.TempDir()
	original := `{
		"version": "1.0",
		"requires": [
			{"remote": "https://github.com/acme/docs", "mount_path": "docs", "sync": "auto"}
		]
	}`
	writeConfig(t, root, original)

	v2, backup, err := EnsureV2(root)
	require.NoError(t, err)
	require.NotNil(t, v2)
	require.NotEmpty(t, backup)

	// Backup preserves the v1 document byte for byte.
	raw, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, original, string(raw))
	assert.True(t, strings.HasPrefix(filepath.Base(backup), "config.v1.bak-"))

	// The live config is now v2.
	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, VersionV2, loaded.Version)
}

func TestEnsureV2_EmptyV1SkipsBackup(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"version": "1.0", "requires": []}`)

	_, backup, err := EnsureV2(root)
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestEnsureV2_V2IsNoop(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, NewConfigV2()))
	before, err := os.ReadFile(RepoConfigPath(root))
	require.NoError(t, err)

	_, backup, err := EnsureV2(root)
	require.NoError(t, err)
	assert.Empty(t, backup)

	after, err := os.ReadFile(RepoConfigPath(root))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnsureV2_NoConfig(t *testing.T) {
	_, _, err := EnsureV2(t.TempDir())
	assert.Error(t, err)
}

func TestMutate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, NewConfigV2()))

	cfg, backup, err := Mutate(root, func(c *ConfigV2) error {
		return c.AddContextMount(ContextMount{
			Remote: "https://github.com/acme/docs", MountPath: "docs", Sync: SyncAuto,
		})
	})
	require.NoError(t, err)
	assert.Empty(t, backup)
	assert.Len(t, cfg.ContextMounts, 1)

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Len(t, loaded.V2.ContextMounts, 1)
}

func TestMutate_MigratesFirst(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{
		"version": "1.0",
		"requires": [
			{"remote": "https://github.com/acme/docs", "mount_path": "docs", "sync": "auto"}
		]
	}`)

	cfg, backup, err := Mutate(root, func(c *ConfigV2) error {
		return c.AddReference(ReferenceMount{Remote: "https://github.com/upstream/lib"})
	})
	require.NoError(t, err)
	assert.NotEmpty(t, backup)
	assert.Len(t, cfg.ContextMounts, 1)
	assert.Len(t, cfg.References, 1)
}

func TestMutate_FailedFnWritesNothing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, NewConfigV2()))
	before, err := os.ReadFile(RepoConfigPath(root))
	require.NoError(t, err)

	_, _, err = Mutate(root, func(c *ConfigV2) error {
		c.ContextMounts = append(c.ContextMounts, ContextMount{MountPath: "junk"})
		return fmt.Errorf("nope")
	})
	require.Error(t, err)

	after, err := os.ReadFile(RepoConfigPath(root))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
