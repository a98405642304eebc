package gitsync

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gogitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/kballard/go-shellquote"
)

// Transport performs the network-touching git operations for one remote.
// The engine's retry and atomic-update logic is identical regardless of
// which transport executed the network step.
type Transport interface {
	Clone(ctx context.Context, remote, path string) error
	Fetch(ctx context.Context, repoPath string) error
	Push(ctx context.Context, repoPath, branch string) error
}

// ForRemote selects the transport by remote URL form. SSH remotes must go
// through the system git client: several SSH agents (1Password among them)
// only intercept and approve requests made by the native ssh binary, so an
// in-process SSH stack would hang or fail where the shell path prompts.
// HTTPS and local remotes have no such constraint and use the in-process
// library client.
func ForRemote(remote string) Transport {
	if strings.HasPrefix(remote, "git@") || strings.HasPrefix(remote, "ssh://") {
		return shellTransport{}
	}
	return libTransport{}
}

// shellTransport shells out to the system git client.
type shellTransport struct{}

func (shellTransport) Clone(ctx context.Context, remote, path string) error {
	return runGit(ctx, "", "clone", "--", remote, path)
}

func (shellTransport) Fetch(ctx context.Context, repoPath string) error {
	return runGit(ctx, repoPath, "fetch", "origin")
}

func (shellTransport) Push(ctx context.Context, repoPath, branch string) error {
	return runGit(ctx, repoPath, "push", "origin", branch)
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return classify(ctx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		display := shellquote.Join(append([]string{"git"}, args...)...)
		if detail != "" {
			return classify(fmt.Errorf("%s: %s", display, detail))
		}
		return classify(fmt.Errorf("%s: %w", display, err))
	}
	return nil
}

// libTransport uses the in-process go-git client.
type libTransport struct{}

func (libTransport) Clone(ctx context.Context, remote, path string) error {
	_, err := gogit.PlainCloneContext(ctx, path, false, &gogit.CloneOptions{
		URL: remote,
	})
	return classify(mapLibError(err))
}

func (libTransport) Fetch(ctx context.Context, repoPath string) error {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return err
	}
	err = repo.FetchContext(ctx, &gogit.FetchOptions{RemoteName: "origin"})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	return classify(mapLibError(err))
}

func (libTransport) Push(ctx context.Context, repoPath, branch string) error {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return err
	}
	ref := plumbing.NewBranchReferenceName(branch)
	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gogitcfg.RefSpec{gogitcfg.RefSpec(ref + ":" + ref)},
	})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	return classify(mapLibError(err))
}

func mapLibError(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case transport.ErrAuthenticationRequired, transport.ErrAuthorizationFailed:
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return err
}
