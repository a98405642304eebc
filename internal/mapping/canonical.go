package mapping

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Canonicalize normalizes a git remote into the identity key used by the
// mapping store, so the same logical repository maps to a single entry no
// matter how it was spelled. Normalization covers the URL scheme, the
// scp-style SSH form, a trailing ".git", trailing slashes, and host case.
//
// Examples, all yielding "github.com/acme/docs":
//
//	git@github.com:acme/docs.git
//	ssh://git@github.com/acme/docs
//	https://GitHub.com/acme/docs/
//	http://github.com/acme/docs.git
//
// Local paths canonicalize to their cleaned absolute form.
func Canonicalize(remote string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", fmt.Errorf("empty remote URL")
	}

	if isLocalPath(remote) {
		abs, err := filepath.Abs(strings.TrimPrefix(remote, "file://"))
		if err != nil {
			return "", err
		}
		return filepath.Clean(abs), nil
	}

	host, path, err := splitRemote(remote)
	if err != nil {
		return "", err
	}
	return strings.ToLower(host) + "/" + path, nil
}

// SplitOrgRepo parses the org and repo segments out of a remote. References
// derive their mount location from these, so a remote that cannot be split
// unambiguously is an error, never a guess.
func SplitOrgRepo(remote string) (org, repo string, err error) {
	if isLocalPath(remote) {
		canon, err := Canonicalize(remote)
		if err != nil {
			return "", "", err
		}
		dir, base := filepath.Split(canon)
		org = filepath.Base(filepath.Clean(dir))
		if base == "" || org == "" || org == "." || org == string(filepath.Separator) {
			return "", "", fmt.Errorf("cannot derive org/repo from local path: %s", remote)
		}
		return org, base, nil
	}

	_, path, err := splitRemote(remote)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot derive org/repo from remote: %s", remote)
	}
	// For hosts with deeper paths (e.g. GitLab subgroups) the repo is the
	// final segment and the org is everything before it collapsed to the
	// first segment's namespace owner.
	return parts[0], parts[len(parts)-1], nil
}

func isLocalPath(remote string) bool {
	return strings.HasPrefix(remote, "/") ||
		strings.HasPrefix(remote, "./") ||
		strings.HasPrefix(remote, "file://")
}

// splitRemote returns the host and the cleaned path ("org/repo[/...]") of a
// network remote.
func splitRemote(remote string) (host, path string, err error) {
	rest := remote

	switch {
	case strings.Contains(rest, "://"):
		// https://host/org/repo, ssh://git@host/org/repo
		idx := strings.Index(rest, "://")
		scheme := rest[:idx]
		switch scheme {
		case "http", "https", "ssh", "git":
		default:
			return "", "", fmt.Errorf("unsupported remote scheme '%s': %s", scheme, remote)
		}
		rest = rest[idx+3:]
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", "", fmt.Errorf("remote has no path component: %s", remote)
		}
		host = rest[:slash]
		path = rest[slash+1:]
	case strings.Contains(rest, "@") && strings.Contains(rest, ":"):
		// scp form: git@host:org/repo
		at := strings.Index(rest, "@")
		rest = rest[at+1:]
		colon := strings.Index(rest, ":")
		if colon < 0 {
			return "", "", fmt.Errorf("malformed SSH remote: %s", remote)
		}
		host = rest[:colon]
		path = rest[colon+1:]
	default:
		return "", "", fmt.Errorf("unrecognized remote URL: %s", remote)
	}

	if p := strings.Index(host, ":"); p >= 0 {
		// Drop an explicit port from the identity key.
		host = host[:p]
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if host == "" || path == "" {
		return "", "", fmt.Errorf("malformed remote URL: %s", remote)
	}
	return host, path, nil
}

// sanitizeDirName replaces characters that are unsafe in a directory name.
func sanitizeDirName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// DeriveCloneName returns the directory name used for an auto-managed clone
// of the given remote, e.g. "acme-docs" for github.com/acme/docs.
func DeriveCloneName(remote string) (string, error) {
	org, repo, err := SplitOrgRepo(remote)
	if err != nil {
		return "", err
	}
	return sanitizeDirName(org) + "-" + sanitizeDirName(repo), nil
}
