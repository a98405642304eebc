package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byterings/docspace/internal/mountplan"
)

func validPlan() *mountplan.Plan {
	return &mountplan.Plan{Entries: []mountplan.Entry{
		{
			Space:      mountplan.Thoughts(),
			TargetPath: "thoughts",
			SourcePath: "/clones/acme-notes",
		},
		{
			Space:      mountplan.Reference("upstream", "lib"),
			TargetPath: "references/upstream/lib",
			SourcePath: "/clones/upstream-lib",
			ReadOnly:   true,
		},
	}}
}

func TestValidatePlan(t *testing.T) {
	assert.NoError(t, ValidatePlan(validPlan()))
	assert.NoError(t, ValidatePlan(&mountplan.Plan{}))
}

func TestValidatePlan_DuplicateTarget(t *testing.T) {
	plan := validPlan()
	plan.Entries[1].TargetPath = plan.Entries[0].TargetPath

	err := ValidatePlan(plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate target")
}

func TestValidatePlan_WritableReference(t *testing.T) {
	plan := validPlan()
	plan.Entries[1].ReadOnly = false

	err := ValidatePlan(plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestValidatePlan_MissingSource(t *testing.T) {
	plan := validPlan()
	plan.Entries[0].SourcePath = ""

	err := ValidatePlan(plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source path")
}

func TestMock(t *testing.T) {
	m := NewMock()
	ctx := context.Background()
	plan := validPlan()

	mounted, err := m.Mounted("/repo/.docspace-data")
	require.NoError(t, err)
	assert.False(t, mounted)

	require.NoError(t, m.Mount(ctx, "/repo/.docspace-data", plan))

	mounted, err = m.Mounted("/repo/.docspace-data")
	require.NoError(t, err)
	assert.True(t, mounted)
	assert.Equal(t, plan, m.Plan("/repo/.docspace-data"))

	require.NoError(t, m.Unmount(ctx, "/repo/.docspace-data"))
	mounted, err = m.Mounted("/repo/.docspace-data")
	require.NoError(t, err)
	assert.False(t, mounted)
}

func TestMock_RejectsInvalidPlan(t *testing.T) {
	m := NewMock()
	plan := validPlan()
	plan.Entries[1].ReadOnly = false

	err := m.Mount(context.Background(), "/root", plan)
	require.Error(t, err)

	mounted, err := m.Mounted("/root")
	require.NoError(t, err)
	assert.False(t, mounted)
}
