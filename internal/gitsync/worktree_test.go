package gitsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byterings/docspace/internal/config"
)

// worktreeFixture lays out a primary repository and a linked worktree the
// way git does: the worktree's .git is a file with a gitdir pointer into
// <primary>/.git/worktrees/<name>.
func worktreeFixture(t *testing.T) (primary, worktree string) {
	t.Helper()
	base := t.TempDir()

	primary = filepath.Join(base, "primary")
	gitdir := filepath.Join(primary, ".git", "worktrees", "feature")
	require.NoError(t, os.MkdirAll(gitdir, 0o755))

	worktree = filepath.Join(base, "feature")
	require.NoError(t, os.MkdirAll(worktree, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(worktree, ".git"),
		[]byte("gitdir: "+gitdir+"\n"), 0o644))

	return primary, worktree
}

func TestFindRepoRoot(t *testing.T) {
	primary, _ := worktreeFixture(t)
	nested := filepath.Join(primary, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, err := FindRepoRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, primary, root)

	_, err = FindRepoRoot(t.TempDir())
	assert.Error(t, err)
}

func TestIsWorktree(t *testing.T) {
	primary, worktree := worktreeFixture(t)
	assert.False(t, IsWorktree(primary))
	assert.True(t, IsWorktree(worktree))
}

func TestPrimaryRepoRoot(t *testing.T) {
	primary, worktree := worktreeFixture(t)

	got, err := PrimaryRepoRoot(worktree)
	require.NoError(t, err)
	assert.Equal(t, primary, got)
}

func TestPrimaryRepoRoot_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("not a pointer\n"), 0o644))
	_, err := PrimaryRepoRoot(dir)
	assert.Error(t, err)

	// A gitdir pointer outside the .git/worktrees shape is rejected too.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: /somewhere/else\n"), 0o644))
	_, err = PrimaryRepoRoot(dir)
	assert.Error(t, err)
}

func TestDetectAndLink_NotAWorktree(t *testing.T) {
	primary, _ := worktreeFixture(t)

	outcome, err := DetectAndLink(primary)
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestDetectAndLink_PrimaryNotInitialized(t *testing.T) {
	_, worktree := worktreeFixture(t)

	_, err := DetectAndLink(worktree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestDetectAndLink_CreatesLink(t *testing.T) {
	primary, worktree := worktreeFixture(t)
	primaryState := config.StateDirPath(primary)
	require.NoError(t, os.MkdirAll(primaryState, 0o755))

	outcome, err := DetectAndLink(worktree)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Created)
	assert.Equal(t, primary, outcome.Primary)
	assert.Equal(t, worktree, outcome.Worktree)

	target, err := os.Readlink(config.StateDirPath(worktree))
	require.NoError(t, err)
	assert.Equal(t, primaryState, target)

	// Linking again is idempotent.
	outcome, err = DetectAndLink(worktree)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.False(t, outcome.Created)
}

func TestDetectAndLink_RefusesNonSymlink(t *testing.T) {
	primary, worktree := worktreeFixture(t)
	require.NoError(t, os.MkdirAll(config.StateDirPath(primary), 0o755))
	require.NoError(t, os.MkdirAll(config.StateDirPath(worktree), 0o755))

	_, err := DetectAndLink(worktree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a symlink")
}

func TestIsRepo(t *testing.T) {
	assert.False(t, IsRepo(t.TempDir()))

	primary, worktree := worktreeFixture(t)
	assert.True(t, IsRepo(primary))
	assert.True(t, IsRepo(worktree))
}
