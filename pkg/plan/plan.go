// Package plan expands a product into a full build plan using the exported
// recipes.
//
// A plan is a tree. Each node asks for a quantity of one type. Units left
// over from earlier runs of the same type are taken from storage first; the
// rest is built in whole runs of the recipe, and any overproduction goes back
// to storage for later nodes. Types without a recipe are raw materials and
// are summed into [Plan.Raw].
//
// Nodes are visited depth first in recipe input order, so storage is drained
// in the same order a builder working through the tree would drain it.
package plan

import (
	"math"
	"slices"

	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// Node is one step of a plan.
type Node struct {
	TypeID sde.TypeID `json:"type_id"`

	// Requested is the quantity the parent asked for.
	Requested int64 `json:"requested"`

	// FromStorage is the part of Requested covered by earlier surplus.
	FromStorage int64 `json:"from_storage,omitempty"`

	// Recipe is the blueprint used, zero for raw materials.
	Recipe sde.TypeID `json:"recipe,omitempty"`

	// Runs is the number of recipe runs. Zero for raw materials and for
	// nodes fully covered by storage.
	Runs int64 `json:"runs,omitempty"`

	// Produced is Runs times the recipe output.
	Produced int64 `json:"produced,omitempty"`

	// Surplus is what this node put back into storage.
	Surplus int64 `json:"surplus,omitempty"`

	// Stored is the storage level for TypeID after this node.
	Stored int64 `json:"stored,omitempty"`

	Inputs []*Node `json:"inputs,omitempty"`
}

// Raw reports whether the node is a raw material.
func (n *Node) Raw() bool { return n.Recipe == 0 }

// Amount is a quantity of one type.
type Amount struct {
	TypeID   sde.TypeID `json:"type_id"`
	Quantity int64      `json:"quantity"`
}

// Plan is the expanded build of Quantity units of Product.
type Plan struct {
	Product  sde.TypeID `json:"product"`
	Quantity int64      `json:"quantity"`
	Root     *Node      `json:"root"`

	// Raw sums the raw materials to acquire, by type.
	Raw map[sde.TypeID]int64 `json:"raw"`

	// Blueprints lists the recipes used, each once, in first-use order.
	Blueprints []sde.TypeID `json:"blueprints"`

	// Leftover is what remains in storage once the plan is done.
	Leftover map[sde.TypeID]int64 `json:"leftover,omitempty"`
}

// RawAmounts returns Raw ordered by type id.
func (p *Plan) RawAmounts() []Amount {
	return sortedAmounts(p.Raw)
}

// LeftoverAmounts returns Leftover ordered by type id, skipping empty slots.
func (p *Plan) LeftoverAmounts() []Amount {
	return sortedAmounts(p.Leftover)
}

// Walk calls fn for every node in depth-first order with its depth (root is 0).
func (p *Plan) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, in := range n.Inputs {
			walk(in, depth+1)
		}
	}
	if p.Root != nil {
		walk(p.Root, 0)
	}
}

// Build expands quantity units of product using recipes.
//
// product must have a recipe ([errors.ErrCodeNotFound] otherwise) and quantity
// must be positive and at most [errors.MaxQuantity]
// ([errors.ErrCodeInvalidInput]). A recipe that directly or indirectly
// consumes its own product is rejected with [errors.ErrCodeInvalidInput], as
// is a plan whose quantities do not fit in an int64.
func Build(recipes map[sde.TypeID]export.Blueprint, product sde.TypeID, quantity int64) (*Plan, error) {
	if err := errors.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, ok := recipes[product]; !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no recipe for type %d", product)
	}

	b := &builder{
		recipes: recipes,
		storage: make(map[sde.TypeID]int64),
		path:    make(map[sde.TypeID]bool),
		seenBP:  make(map[sde.TypeID]bool),
		plan: &Plan{
			Product:    product,
			Quantity:   quantity,
			Raw:        make(map[sde.TypeID]int64),
			Blueprints: []sde.TypeID{},
		},
	}
	root, err := b.node(product, quantity)
	if err != nil {
		return nil, err
	}
	b.plan.Root = root

	leftover := make(map[sde.TypeID]int64)
	for id, n := range b.storage {
		if n > 0 {
			leftover[id] = n
		}
	}
	if len(leftover) > 0 {
		b.plan.Leftover = leftover
	}
	return b.plan, nil
}

type builder struct {
	recipes map[sde.TypeID]export.Blueprint
	storage map[sde.TypeID]int64
	path    map[sde.TypeID]bool // types on the current branch
	seenBP  map[sde.TypeID]bool
	plan    *Plan
}

func (b *builder) node(id sde.TypeID, requested int64) (*Node, error) {
	n := &Node{TypeID: id, Requested: requested}
	need := requested

	if stored := b.storage[id]; stored > 0 {
		n.FromStorage = min(need, stored)
		b.storage[id] -= n.FromStorage
		need -= n.FromStorage
	}

	recipe, ok := b.recipes[id]
	if !ok {
		if need > 0 {
			total, err := add(b.plan.Raw[id], need, id)
			if err != nil {
				return nil, err
			}
			b.plan.Raw[id] = total
		}
		n.Stored = b.storage[id]
		return n, nil
	}

	if b.path[id] {
		return nil, errors.New(errors.ErrCodeInvalidInput, "recipe cycle through type %d", id)
	}

	output := max(recipe.Output, 1)
	n.Recipe = recipe.Recipe
	n.Runs = need / output
	if need%output != 0 {
		n.Runs++
	}
	produced, err := mul(n.Runs, output, id)
	if err != nil {
		return nil, err
	}
	n.Produced = produced
	n.Surplus = n.Produced - need
	if b.storage[id], err = add(b.storage[id], n.Surplus, id); err != nil {
		return nil, err
	}
	n.Stored = b.storage[id]

	if n.Runs == 0 {
		return n, nil
	}
	if !b.seenBP[recipe.Recipe] {
		b.seenBP[recipe.Recipe] = true
		b.plan.Blueprints = append(b.plan.Blueprints, recipe.Recipe)
	}

	b.path[id] = true
	defer delete(b.path, id)

	n.Inputs = make([]*Node, 0, len(recipe.Inputs))
	for _, in := range recipe.Inputs {
		qty, err := mul(in.Quantity(), n.Runs, in.TypeID())
		if err != nil {
			return nil, err
		}
		child, err := b.node(in.TypeID(), qty)
		if err != nil {
			return nil, err
		}
		n.Inputs = append(n.Inputs, child)
	}
	return n, nil
}

// mul and add work on non-negative quantities of type id.
func mul(a, b int64, id sde.TypeID) (int64, error) {
	if a != 0 && b > math.MaxInt64/a {
		return 0, overflow(id)
	}
	return a * b, nil
}

func add(a, b int64, id sde.TypeID) (int64, error) {
	if b > math.MaxInt64-a {
		return 0, overflow(id)
	}
	return a + b, nil
}

func overflow(id sde.TypeID) error {
	return errors.New(errors.ErrCodeInvalidInput, "quantity of type %d overflows", id)
}

func sortedAmounts(m map[sde.TypeID]int64) []Amount {
	ids := make([]sde.TypeID, 0, len(m))
	for id, q := range m {
		if q > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]Amount, len(ids))
	for i, id := range ids {
		out[i] = Amount{TypeID: id, Quantity: m[id]}
	}
	return out
}
