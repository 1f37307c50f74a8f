package resolve

import (
	"slices"

	"github.com/matzehuels/shipyard/pkg/sde"
)

// Set is an insertion-ordered set of type ids.
//
// The order is the order in which ids were first added, which keeps every
// downstream consumer (name collision handling, output) deterministic.
type Set struct {
	ids   []sde.TypeID
	index map[sde.TypeID]struct{}
}

// NewSet creates an empty Set with room for n ids.
func NewSet(n int) *Set {
	return &Set{
		ids:   make([]sde.TypeID, 0, n),
		index: make(map[sde.TypeID]struct{}, n),
	}
}

// Add inserts id and reports whether it was not already present.
func (s *Set) Add(id sde.TypeID) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Has reports whether id is in the set.
func (s *Set) Has(id sde.TypeID) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s *Set) Len() int { return len(s.ids) }

// IDs returns a copy of the ids in insertion order.
func (s *Set) IDs() []sde.TypeID {
	return slices.Clone(s.ids)
}

// Sorted returns a copy of the ids in ascending order.
func (s *Set) Sorted() []sde.TypeID {
	out := slices.Clone(s.ids)
	slices.Sort(out)
	return out
}

// Union returns a new Set holding seeds first, in the given order, followed
// by deps in their insertion order. Ids present in both appear once, at
// their seed position.
func Union(seeds []sde.TypeID, deps *Set) *Set {
	n := len(seeds)
	if deps != nil {
		n += deps.Len()
	}
	out := NewSet(n)
	for _, id := range seeds {
		out.Add(id)
	}
	if deps != nil {
		for _, id := range deps.ids {
			out.Add(id)
		}
	}
	return out
}
