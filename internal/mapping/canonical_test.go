package mapping

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		want   string
	}{
		{name: "scp form", remote: "git@github.com:acme/docs.git", want: "github.com/acme/docs"},
		{name: "ssh scheme", remote: "ssh://git@github.com/acme/docs", want: "github.com/acme/docs"},
		{name: "https", remote: "https://github.com/acme/docs", want: "github.com/acme/docs"},
		{name: "https with .git", remote: "https://github.com/acme/docs.git", want: "github.com/acme/docs"},
		{name: "trailing slash", remote: "https://github.com/acme/docs/", want: "github.com/acme/docs"},
		{name: "host case folded", remote: "https://GitHub.com/acme/docs", want: "github.com/acme/docs"},
		{name: "explicit port dropped", remote: "ssh://git@github.com:22/acme/docs", want: "github.com/acme/docs"},
		{name: "path case preserved", remote: "https://github.com/Acme/Docs", want: "github.com/Acme/Docs"},
		{name: "gitlab subgroup", remote: "https://gitlab.com/group/sub/repo", want: "gitlab.com/group/sub/repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_EquivalentSpellings(t *testing.T) {
	spellings := []string{
		"git@github.com:acme/docs.git",
		"git@github.com:acme/docs",
		"ssh://git@github.com/acme/docs.git",
		"https://github.com/acme/docs",
		"https://GITHUB.COM/acme/docs/",
	}

	first, err := Canonicalize(spellings[0])
	require.NoError(t, err)
	for _, s := range spellings[1:] {
		got, err := Canonicalize(s)
		require.NoError(t, err)
		assert.Equal(t, first, got, s)
	}
}

func TestCanonicalize_LocalPath(t *testing.T) {
	dir := t.TempDir()

	got, err := Canonicalize(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(dir), got)

	viaFile, err := Canonicalize("file://" + dir)
	require.NoError(t, err)
	assert.Equal(t, got, viaFile)
}

func TestCanonicalize_Errors(t *testing.T) {
	for _, remote := range []string{
		"",
		"   ",
		"github.com/acme/docs",
		"ftp://github.com/acme/docs",
		"https://github.com",
	} {
		_, err := Canonicalize(remote)
		assert.Error(t, err, remote)
	}
}

func TestSplitOrgRepo(t *testing.T) {
	tests := []struct {
		remote string
		org    string
		repo   string
	}{
		{remote: "git@github.com:acme/docs.git", org: "acme", repo: "docs"},
		{remote: "https://github.com/acme/docs", org: "acme", repo: "docs"},
		{remote: "https://gitlab.com/group/sub/repo", org: "group", repo: "repo"},
	}

	for _, tt := range tests {
		org, repo, err := SplitOrgRepo(tt.remote)
		require.NoError(t, err, tt.remote)
		assert.Equal(t, tt.org, org)
		assert.Equal(t, tt.repo, repo)
	}

	_, _, err := SplitOrgRepo("https://github.com/justone")
	assert.Error(t, err)
}

func TestDeriveCloneName(t *testing.T) {
	name, err := DeriveCloneName("git@github.com:acme/docs.git")
	require.NoError(t, err)
	assert.Equal(t, "acme-docs", name)
}
