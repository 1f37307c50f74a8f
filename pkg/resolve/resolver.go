// Package resolve discovers the full manufacturing dependency closure of a
// set of seed types.
//
// Starting from each seed, the resolver follows two relations: "is built by
// recipe R" and "recipe R consumes input I". Every recipe id and every input
// id reached this way is collected. Types without a recipe are raw materials
// and end the walk.
//
// # Contract
//
// [Resolver.Resolve] returns dependencies only. Seeds are not added to the
// result unless another seed (or one of its dependencies) needs them as an
// input. Callers build the relevant set with [Union]:
//
//	deps, err := resolve.New(store).Resolve(ctx, seeds)
//	relevant := resolve.Union(seeds, deps.Set)
//
// # Guarantees
//
//   - Each type's recipe is looked up at most once per Resolve call, across
//     all seeds.
//   - The walk terminates on cyclic recipe graphs.
//   - For every id in Union(seeds, deps) that has a recipe, the recipe id and
//     all its inputs are in the result.
package resolve

import (
	"context"
	"fmt"

	"github.com/matzehuels/shipyard/pkg/sde"
)

// Lookup reads recipes. [sde.Store] implements it.
type Lookup interface {
	// RecipeFor returns the recipe producing product, or false if none exists.
	RecipeFor(ctx context.Context, product sde.TypeID) (sde.Recipe, bool, error)

	// Materials returns the inputs of a recipe. An empty slice is valid.
	Materials(ctx context.Context, recipe sde.TypeID) ([]sde.Material, error)
}

// Stats counts the work done by one Resolve call.
type Stats struct {
	Expanded int // recipe lookups performed
	Recipes  int // distinct recipes found
	Leaves   int // expanded types without a recipe
}

// Result is the outcome of a Resolve call.
type Result struct {
	Set   *Set // dependencies in discovery order, seeds excluded
	Stats Stats
}

// Resolver walks recipe graphs through a [Lookup].
//
// A Resolver holds no traversal state of its own; each Resolve call owns a
// fresh traversal, so one Resolver can serve sequential and concurrent calls.
type Resolver struct {
	lookup Lookup
}

// New creates a Resolver reading from lookup.
func New(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve expands every seed into its transitive dependencies.
//
// Lookup errors abort the walk and are returned wrapped with the type id
// being expanded. Context cancellation is checked before every lookup.
func (r *Resolver) Resolve(ctx context.Context, seeds []sde.TypeID) (*Result, error) {
	t := &traversal{
		ctx:      ctx,
		lookup:   r.lookup,
		known:    NewSet(len(seeds) * 8),
		expanded: make(map[sde.TypeID]bool),
		fetched:  make(map[sde.TypeID]bool),
	}
	for _, id := range seeds {
		if err := t.expand(id); err != nil {
			return nil, err
		}
	}
	return &Result{Set: t.known, Stats: t.stats}, nil
}

// traversal is the state of a single Resolve call.
//
// known holds every recipe id and input id discovered so far and is shared
// by all seeds. expanded holds every type whose recipe has been looked up;
// it differs from known because seeds are expanded without being known.
// fetched holds every recipe whose materials have been read; a recipe id can
// be known as another recipe's input long before its materials are needed.
type traversal struct {
	ctx    context.Context
	lookup Lookup

	known    *Set
	expanded map[sde.TypeID]bool
	fetched  map[sde.TypeID]bool
	stats    Stats
}

// expand looks up the recipe of id and walks its inputs depth-first.
func (t *traversal) expand(id sde.TypeID) error {
	if t.expanded[id] {
		return nil
	}
	t.expanded[id] = true

	if err := t.ctx.Err(); err != nil {
		return err
	}

	t.stats.Expanded++
	recipe, ok, err := t.lookup.RecipeFor(t.ctx, id)
	if err != nil {
		return fmt.Errorf("recipe for %d: %w", id, err)
	}
	if !ok {
		t.stats.Leaves++
		return nil
	}

	t.known.Add(recipe.ID)
	if t.fetched[recipe.ID] {
		return nil
	}
	t.fetched[recipe.ID] = true
	t.stats.Recipes++

	materials, err := t.lookup.Materials(t.ctx, recipe.ID)
	if err != nil {
		return fmt.Errorf("materials of %d: %w", recipe.ID, err)
	}
	for _, m := range materials {
		t.known.Add(m.TypeID)
		if err := t.expand(m.TypeID); err != nil {
			return err
		}
	}

	// Blueprints are types too; follow their own recipe if they have one.
	return t.expand(recipe.ID)
}
