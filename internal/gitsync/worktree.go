package gitsync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/byterings/docspace/internal/config"
	"github.com/byterings/docspace/internal/platform"
)

// LinkOutcome reports a worktree-to-primary mount-state link.
type LinkOutcome struct {
	// Worktree is the secondary working tree's root.
	Worktree string
	// Primary is the primary working tree's root.
	Primary string
	// Created is false if the link already existed.
	Created bool
}

// FindRepoRoot walks up from start to the enclosing git working tree root.
func FindRepoRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(dir, ".git"))
		if err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository (run 'git init' first)")
		}
		dir = parent
	}
}

// IsWorktree reports whether repoRoot is a linked (secondary) working tree.
// Linked worktrees have a .git file instead of a .git directory.
func IsWorktree(repoRoot string) bool {
	info, err := os.Stat(filepath.Join(repoRoot, ".git"))
	return err == nil && info.Mode().IsRegular()
}

// PrimaryRepoRoot resolves the primary working tree for a linked worktree by
// following the gitdir pointer in its .git file, which points at
// <primary>/.git/worktrees/<name>.
func PrimaryRepoRoot(worktreeRoot string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(worktreeRoot, ".git"))
	if err != nil {
		return "", err
	}
	var gitdir string
	for _, line := range strings.Split(string(raw), "\n") {
		if rest, ok := strings.CutPrefix(line, "gitdir:"); ok {
			gitdir = strings.TrimSpace(rest)
			break
		}
	}
	if gitdir == "" {
		return "", fmt.Errorf("malformed .git file in worktree %s", worktreeRoot)
	}
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(worktreeRoot, gitdir)
	}

	// <primary>/.git/worktrees/<name> -> <primary>
	dir := filepath.Clean(gitdir)
	worktreesDir := filepath.Dir(dir)
	gitDir := filepath.Dir(worktreesDir)
	if filepath.Base(worktreesDir) != "worktrees" || filepath.Base(gitDir) != ".git" {
		return "", fmt.Errorf("cannot locate primary repository for worktree %s (gitdir: %s)", worktreeRoot, gitdir)
	}
	return filepath.Dir(gitDir), nil
}

// DetectAndLink checks whether cwd is inside a secondary working tree of an
// already-initialized repository and, if so, shares the primary tree's
// mount state via a symlink instead of mounting independently. Two
// independent mounts over the same logical space would double-sync and risk
// index corruption.
//
// Returns nil when cwd is not in a worktree; the caller proceeds with normal
// resolution. A worktree whose primary tree is not initialized is an error:
// the fix is to initialize the primary, not to mount twice.
func DetectAndLink(cwd string) (*LinkOutcome, error) {
	repoRoot, err := FindRepoRoot(cwd)
	if err != nil {
		return nil, err
	}
	if !IsWorktree(repoRoot) {
		return nil, nil
	}

	primary, err := PrimaryRepoRoot(repoRoot)
	if err != nil {
		return nil, err
	}

	primaryState := config.StateDirPath(primary)
	if _, err := os.Stat(primaryState); err != nil {
		return nil, fmt.Errorf(
			"primary repository is not initialized; run 'docspace init' in %s first", primary)
	}

	linkPath := config.StateDirPath(repoRoot)
	if target, err := os.Readlink(linkPath); err == nil {
		if target == primaryState {
			return &LinkOutcome{Worktree: repoRoot, Primary: primary, Created: false}, nil
		}
		if err := os.Remove(linkPath); err != nil {
			return nil, fmt.Errorf("failed to replace stale mount-state link: %w", err)
		}
	} else if _, statErr := os.Lstat(linkPath); statErr == nil {
		return nil, fmt.Errorf("%s exists in worktree %s but is not a symlink; remove it manually", config.StateDirName, repoRoot)
	}

	if err := platform.Symlink(primaryState, linkPath); err != nil {
		return nil, err
	}
	return &LinkOutcome{Worktree: repoRoot, Primary: primary, Created: true}, nil
}
