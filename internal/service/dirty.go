package service

import (
	"github.com/arbor-dev/arbor/internal/domain"
	"github.com/arbor-dev/arbor/internal/logger"
)

type DirtyStorage interface {
	TouchDirty(id domain.ThreadId) error
}

// DirtyPropagator bumps the immediate parent's last_dirtied after a node
// mutates. Propagation is one hop per mutation event: each hop is its own
// atomic update, and deeper ancestors catch up lazily as later mutations
// land. The mutated node's own last_dirtied is bumped inside the mutation
// write itself.
type DirtyPropagator struct {
	storage DirtyStorage
}

func NewDirtyPropagator(storage DirtyStorage) *DirtyPropagator {
	return &DirtyPropagator{storage}
}

// Propagate never fails the triggering mutation; ancestor update errors are
// logged for offline reconciliation.
func (p *DirtyPropagator) Propagate(t domain.Thread) {
	if t.IsRoot() {
		return
	}
	if err := p.storage.TouchDirty(*t.ParentId); err != nil {
		logger.Log.Error("failed to propagate dirty marker to parent",
			"op", "dirty", "thread", t.Id, "parent", *t.ParentId, "error", err)
	}
}
