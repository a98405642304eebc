// Package mountplan turns the desired state projected from a repository
// config into an ordered, conflict-free mount plan ready for a platform
// mount driver.
package mountplan

import (
	"fmt"
	"path"
	"strings"

	"github.com/byterings/docspace/internal/config"
)

// SpaceKind enumerates the closed set of logical document areas. Every place
// that computes a target path, read-only flag or sync eligibility switches
// exhaustively over it, so adding a space later is a compile-visible change.
type SpaceKind int

const (
	// KindThoughts is the single personal workspace.
	KindThoughts SpaceKind = iota
	// KindContext is a named team-shared mount.
	KindContext
	// KindReference is a read-only external repository, addressed by
	// org/repo derived from its remote.
	KindReference
)

// Space identifies one mount target in the unified tree.
type Space struct {
	Kind SpaceKind

	// Name is the mount path for KindContext.
	Name string

	// Org and Repo locate a KindReference under the references directory.
	Org  string
	Repo string
}

// Thoughts returns the thoughts space.
func Thoughts() Space { return Space{Kind: KindThoughts} }

// Context returns the context space with the given mount path.
func Context(name string) Space { return Space{Kind: KindContext, Name: name} }

// Reference returns the reference space for org/repo.
func Reference(org, repo string) Space {
	return Space{Kind: KindReference, Org: org, Repo: repo}
}

// ParseSpace parses a space identifier as typed on the command line:
// "thoughts", "references/org/repo", or a context mount path.
func ParseSpace(s string) (Space, error) {
	if s == "thoughts" {
		return Thoughts(), nil
	}
	if strings.HasPrefix(s, "references/") {
		parts := strings.SplitN(s, "/", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return Space{}, fmt.Errorf("invalid reference identifier: %s (want references/org/repo)", s)
		}
		return Reference(parts[1], parts[2]), nil
	}
	if s == "" || strings.ContainsAny(s, `/\`) {
		return Space{}, fmt.Errorf("invalid mount identifier: %s", s)
	}
	return Context(s), nil
}

// String returns the canonical identifier for the space.
func (s Space) String() string {
	switch s.Kind {
	case KindThoughts:
		return "thoughts"
	case KindContext:
		return s.Name
	case KindReference:
		return "references/" + s.Org + "/" + s.Repo
	default:
		panic(fmt.Sprintf("unknown space kind %d", s.Kind))
	}
}

// RelativePath returns the space's target path relative to the mount root.
func (s Space) RelativePath(dirs config.MountDirs) string {
	switch s.Kind {
	case KindThoughts:
		return dirs.Thoughts
	case KindContext:
		return path.Join(dirs.Context, s.Name)
	case KindReference:
		return path.Join(dirs.References, s.Org, s.Repo)
	default:
		panic(fmt.Sprintf("unknown space kind %d", s.Kind))
	}
}

// ReadOnly reports whether the space must be mounted read-only. References
// are always read-only; everything else never is.
func (s Space) ReadOnly() bool {
	switch s.Kind {
	case KindThoughts, KindContext:
		return false
	case KindReference:
		return true
	default:
		panic(fmt.Sprintf("unknown space kind %d", s.Kind))
	}
}
