package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/reconcile/internal/trace"
)

// createTestStore opens a fresh store in the test's temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s := openAt(t, filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { s.Close() })
	return s
}

// openAt opens a writable store at path; the caller closes it.
func openAt(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

// createTestPass creates a committed pass with the given effect labels,
// all Placement effects of Host fibers.
func createTestPass(id string, seq int64, labels ...string) trace.Pass {
	p := trace.Pass{
		ID:      id,
		Seq:     seq,
		Units:   len(labels) + 1,
		Slices:  1,
		Status:  trace.StatusCommitted,
		Effects: []trace.Effect{},
	}
	for i, l := range labels {
		p.Effects = append(p.Effects, trace.Effect{
			Phase:  trace.PhaseEffect,
			Effect: "Placement",
			Tag:    "Host",
			Label:  l,
			Depth:  i + 1,
			Props:  `{"id":"` + l + `"}`,
		})
	}
	return p
}
