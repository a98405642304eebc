package gitsync

import (
	"fmt"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// IsRepo reports whether path holds a git working tree (either a full
// repository or a linked worktree).
func IsRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}

// isDirty reports whether the working tree has uncommitted changes,
// including untracked files.
func isDirty(repoPath string) (bool, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

// headState returns the current branch name and commit. An empty repository
// (unborn HEAD) returns ok=false.
func headState(repoPath string) (branch string, commit plumbing.Hash, ok bool, err error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return "", plumbing.ZeroHash, false, err
	}
	head, err := repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		return "", plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return "", plumbing.ZeroHash, false, err
	}
	return head.Name().Short(), head.Hash(), true, nil
}

// remoteHead returns the fetched tip of origin/<branch>. ok=false when the
// remote tracking ref does not exist (no upstream yet).
func remoteHead(repoPath, branch string) (plumbing.Hash, bool, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err == plumbing.ErrReferenceNotFound {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return ref.Hash(), true, nil
}

// canFastForward reports whether local is an ancestor of remote, i.e. the
// update is a pure fast-forward.
func canFastForward(repoPath string, local, remote plumbing.Hash) (bool, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return false, err
	}
	localCommit, err := repo.CommitObject(local)
	if err != nil {
		return false, err
	}
	remoteCommit, err := repo.CommitObject(remote)
	if err != nil {
		return false, err
	}
	return localCommit.IsAncestor(remoteCommit)
}

// hardReset synchronizes ref, index and working tree to the target commit as
// one operation. Moving HEAD and updating the working tree as two separate
// steps can leave an updated ref over a stale tree with phantom staged
// changes; a hard reset is the only correct primitive here.
func hardReset(repoPath string, target plumbing.Hash) error {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Reset(&gogit.ResetOptions{
		Commit: target,
		Mode:   gogit.HardReset,
	})
}
