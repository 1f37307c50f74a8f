// Package seed selects the seed types of an extract: every type listed in
// the "Ship" market group or any of its descendants.
//
// The market group tree is small (a few thousand rows), so it is loaded once
// and the closure is computed in memory rather than with a recursive query.
package seed

import (
	"context"
	"fmt"

	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// Store is the subset of [sde.Store] the selector reads.
type Store interface {
	MarketGroups(ctx context.Context) ([]sde.MarketGroup, error)
	TypesInGroups(ctx context.Context, groups []int64) ([]sde.Type, error)
}

// Closure returns root and every market group below it, in breadth-first
// order. It returns [errors.ErrCodeRootNotFound] when root is not one of groups.
//
// A malformed tree containing a cycle is tolerated: each group is visited once.
func Closure(groups []sde.MarketGroup, root int64) ([]int64, error) {
	children := make(map[int64][]int64, len(groups))
	found := false
	for _, g := range groups {
		if g.ID == root {
			found = true
		}
		if g.ParentID != nil {
			children[*g.ParentID] = append(children[*g.ParentID], g.ID)
		}
	}
	if !found {
		return nil, errors.New(errors.ErrCodeRootNotFound, "market group %d not found", root)
	}

	seen := map[int64]bool{root: true}
	out := []int64{root}
	for i := 0; i < len(out); i++ {
		for _, child := range children[out[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
		}
	}
	return out, nil
}

// Selector resolves the seed set from a [Store].
type Selector struct {
	store Store
}

// NewSelector creates a Selector reading from store.
func NewSelector(store Store) *Selector {
	return &Selector{store: store}
}

// Result is the outcome of a selection.
type Result struct {
	Groups []int64    // market groups in the closure
	Types  []sde.Type // seed types, ordered by id
}

// IDs returns the seed type ids in order.
func (r *Result) IDs() []sde.TypeID {
	ids := make([]sde.TypeID, len(r.Types))
	for i, t := range r.Types {
		ids[i] = t.ID
	}
	return ids
}

// Select returns all types under the root market group.
//
// A missing root is reported as [errors.ErrCodeRootNotFound]; it means the
// dump or the configured root id is wrong. An existing root with no types
// yields an empty, non-nil result.
func (s *Selector) Select(ctx context.Context, root int64) (*Result, error) {
	groups, err := s.store.MarketGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("market groups: %w", err)
	}

	closure, err := Closure(groups, root)
	if err != nil {
		return nil, err
	}

	types, err := s.store.TypesInGroups(ctx, closure)
	if err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}
	if types == nil {
		types = []sde.Type{}
	}
	return &Result{Groups: closure, Types: types}, nil
}
