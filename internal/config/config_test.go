package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, repoRoot, content string) {
	t.Helper()
	dir := filepath.Join(repoRoot, ConfigDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestPeekVersion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "explicit v1", raw: `{"version": "1.0"}`, want: VersionV1},
		{name: "explicit v2", raw: `{"version": "2.0"}`, want: VersionV2},
		{name: "missing version is v1", raw: `{"requires": []}`, want: VersionV1},
		{name: "future version passes through", raw: `{"version": "3.0"}`, want: "3.0"},
		{name: "invalid json", raw: `{not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeekVersion([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_V1Defaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{
		"requires": [
			{"remote": "https://github.com/acme/docs", "mount_path": "docs"}
		]
	}`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, VersionV1, cfg.Version)
	require.NotNil(t, cfg.V1)

	assert.Equal(t, "context", cfg.V1.MountDirs.Repository)
	assert.Equal(t, "personal", cfg.V1.MountDirs.Personal)
	require.Len(t, cfg.V1.Requires, 1)
	assert.Equal(t, SyncNone, cfg.V1.Requires[0].Sync)
}

func TestLoad_V2Defaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{
		"version": "2.0",
		"context_mounts": [
			{"remote": "https://github.com/acme/docs", "mount_path": "docs"}
		]
	}`)

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, VersionV2, cfg.Version)
	require.NotNil(t, cfg.V2)

	assert.Equal(t, DefaultMountDirs(), cfg.V2.MountDirs)
	require.Len(t, cfg.V2.ContextMounts, 1)
	assert.Equal(t, SyncAuto, cfg.V2.ContextMounts[0].Sync)
	assert.NotNil(t, cfg.V2.References)
}

func TestLoad_MalformedIsParseError(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"version": "2.0", "context_mounts": [`)

	_, err := Load(root)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Path, ConfigFileName)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{"version": "9.0"}`)

	_, err := Load(root)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfigV2()
	cfg.ThoughtsMount = &ThoughtsMount{
		Remote: "git@github.com:acme/notes.git",
		Sync:   SyncAuto,
	}
	require.NoError(t, cfg.AddContextMount(ContextMount{
		Remote:    "https://github.com/acme/docs",
		MountPath: "docs",
		Sync:      SyncAuto,
	}))
	require.NoError(t, cfg.AddReference(ReferenceMount{
		Remote: "https://github.com/upstream/lib",
	}))

	require.NoError(t, Save(root, cfg))

	loaded, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, VersionV2, loaded.Version)
	assert.Equal(t, cfg, loaded.V2)
}

func TestValidateV2(t *testing.T) {
	valid := func() *ConfigV2 {
		cfg := NewConfigV2()
		cfg.ContextMounts = []ContextMount{
			{Remote: "https://github.com/acme/docs", MountPath: "docs", Sync: SyncAuto},
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ConfigV2)
		wantErr string
	}{
		{name: "valid", mutate: func(*ConfigV2) {}},
		{
			name:    "empty dir name",
			mutate:  func(c *ConfigV2) { c.MountDirs.Context = "" },
			wantErr: "cannot be empty",
		},
		{
			name:    "multi-segment dir",
			mutate:  func(c *ConfigV2) { c.MountDirs.Thoughts = "a/b" },
			wantErr: "single path segment",
		},
		{
			name:    "colliding dirs",
			mutate:  func(c *ConfigV2) { c.MountDirs.Context = c.MountDirs.Thoughts },
			wantErr: "must be distinct",
		},
		{
			name:    "dir named like state dir",
			mutate:  func(c *ConfigV2) { c.MountDirs.Thoughts = StateDirName },
			wantErr: "cannot be named",
		},
		{
			name: "duplicate context mount path",
			mutate: func(c *ConfigV2) {
				c.ContextMounts = append(c.ContextMounts, ContextMount{
					Remote: "https://github.com/acme/other", MountPath: "docs", Sync: SyncAuto,
				})
			},
			wantErr: "duplicate context mount path",
		},
		{
			name: "mount path escapes dir",
			mutate: func(c *ConfigV2) {
				c.ContextMounts[0].MountPath = "../escape"
			},
			wantErr: "single path segment",
		},
		{
			name: "context subpath traverses upward",
			mutate: func(c *ConfigV2) {
				c.ContextMounts[0].Subpath = "../../../../etc"
			},
			wantErr: "traverse outside",
		},
		{
			name: "context subpath hides traversal mid-path",
			mutate: func(c *ConfigV2) {
				c.ContextMounts[0].Subpath = "docs/../../secret"
			},
			wantErr: "traverse outside",
		},
		{
			name: "absolute subpath",
			mutate: func(c *ConfigV2) {
				c.ContextMounts[0].Subpath = "/etc"
			},
			wantErr: "relative forward-slash path",
		},
		{
			name: "thoughts subpath traverses upward",
			mutate: func(c *ConfigV2) {
				c.ThoughtsMount = &ThoughtsMount{
					Remote: "https://github.com/acme/notes", Subpath: "..", Sync: SyncAuto,
				}
			},
			wantErr: "traverse outside",
		},
		{
			name: "nested subpath is fine",
			mutate: func(c *ConfigV2) {
				c.ContextMounts[0].Subpath = "docs/guides"
			},
		},
		{
			name: "thoughts with sync none",
			mutate: func(c *ConfigV2) {
				c.ThoughtsMount = &ThoughtsMount{Remote: "https://github.com/acme/notes", Sync: SyncNone}
			},
			wantErr: "cannot use sync 'none'",
		},
		{
			name: "bad remote",
			mutate: func(c *ConfigV2) {
				c.ContextMounts[0].Remote = "not-a-remote"
			},
			wantErr: "invalid remote URL",
		},
		{
			name: "duplicate reference",
			mutate: func(c *ConfigV2) {
				c.References = []ReferenceMount{
					{Remote: "https://github.com/upstream/lib"},
					{Remote: "https://github.com/upstream/lib"},
				}
			},
			wantErr: "duplicate reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateV2(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateRemote(t *testing.T) {
	good := []string{
		"git@github.com:acme/docs.git",
		"ssh://git@github.com/acme/docs",
		"https://github.com/acme/docs",
		"http://internal.example/docs",
		"file:///srv/git/docs",
		"/srv/git/docs",
		"./fixtures/docs",
	}
	for _, remote := range good {
		assert.NoError(t, ValidateRemote(remote), remote)
	}

	bad := []string{"", "github.com/acme/docs", "acme/docs"}
	for _, remote := range bad {
		assert.Error(t, ValidateRemote(remote), remote)
	}
}

func TestParseSyncStrategy(t *testing.T) {
	for _, s := range []string{"auto", "manual", "none"} {
		got, err := ParseSyncStrategy(s)
		require.NoError(t, err)
		assert.Equal(t, SyncStrategy(s), got)
	}

	_, err := ParseSyncStrategy("sometimes")
	assert.Error(t, err)
}

func TestParse_V1NotMisreadAsV2(t *testing.T) {
	// A valid v1 document whose fields would be nonsense under the v2
	// schema must still parse cleanly as v1.
	raw := []byte(`{
		"version": "1.0",
		"mount_dirs": {"repository": "ctx", "personal": "me"},
		"requires": [
			{"remote": "https://github.com/acme/docs", "mount_path": "docs", "sync": "auto"}
		],
		"rules": [{"pattern": "*.md", "description": "index these"}]
	}`)

	cfg, err := Parse(raw, "test")
	require.NoError(t, err)
	require.Equal(t, VersionV1, cfg.Version)
	assert.Equal(t, "ctx", cfg.V1.MountDirs.Repository)
	assert.Len(t, cfg.V1.Rules, 1)
}

func TestLoad_NeverRewritesCorruptFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{broken`)

	_, err := Load(root)
	require.Error(t, err)

	raw, readErr := os.ReadFile(RepoConfigPath(root))
	require.NoError(t, readErr)
	assert.Equal(t, "{broken", string(raw))
}

func TestSave_RejectsInvalid(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfigV2()
	cfg.MountDirs.Context = cfg.MountDirs.Thoughts

	err := Save(root, cfg)
	require.Error(t, err)
	assert.False(t, Exists(root))
}
