package driver

import (
	"context"
	"sync"

	"github.com/byterings/docspace/internal/mountplan"
)

// Mock records mount operations instead of executing them. Used in tests and
// on platforms without a union-filesystem tool.
type Mock struct {
	mu      sync.Mutex
	mounted map[string]*mountplan.Plan
}

// NewMock returns an empty recording driver.
func NewMock() *Mock {
	return &Mock{mounted: make(map[string]*mountplan.Plan)}
}

func (m *Mock) Mount(_ context.Context, root string, plan *mountplan.Plan) error {
	if err := ValidatePlan(plan); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounted[root] = plan
	return nil
}

func (m *Mock) Unmount(_ context.Context, root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mounted, root)
	return nil
}

func (m *Mock) Mounted(root string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.mounted[root]
	return ok, nil
}

// Plan returns the plan recorded for root, or nil.
func (m *Mock) Plan(root string) *mountplan.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted[root]
}
