package export

import (
	"context"
	"fmt"

	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/resolve"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// Lookup is what the builder reads per type. [sde.Store] implements it.
type Lookup interface {
	resolve.Lookup
	TypeName(ctx context.Context, id sde.TypeID) (string, bool, error)
}

// Options configures a [Builder].
type Options struct {
	// Strict turns a missing name or a name collision into an error
	// instead of a logged warning.
	Strict bool

	// Logger receives warnings. Defaults to a no-op.
	Logger func(msg string, args ...any)
}

// WithDefaults returns a copy of o with a non-nil Logger.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = func(string, ...any) {}
	}
	return o
}

// Builder turns a relevant set into an [Export] with flat lookups.
type Builder struct {
	lookup Lookup
	opts   Options
}

// NewBuilder creates a Builder reading from lookup.
func NewBuilder(lookup Lookup, opts Options) *Builder {
	return &Builder{lookup: lookup, opts: opts.WithDefaults()}
}

// Build looks up the name and recipe of every id, in order.
//
// Missing names map to null. When two ids share a name the later id wins in
// TypeNames and the clash is recorded in Export.Collisions. With
// Options.Strict both cases fail with [errors.ErrCodeNameNotFound] and
// [errors.ErrCodeNameCollision] respectively.
func (b *Builder) Build(ctx context.Context, ids []sde.TypeID) (*Export, error) {
	out := New()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.addName(ctx, out, id); err != nil {
			return nil, err
		}
		if err := b.addBlueprint(ctx, out, id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *Builder) addName(ctx context.Context, out *Export, id sde.TypeID) error {
	name, ok, err := b.lookup.TypeName(ctx, id)
	if err != nil {
		return fmt.Errorf("name of %d: %w", id, err)
	}
	if !ok {
		if b.opts.Strict {
			return errors.New(errors.ErrCodeNameNotFound, "type %d has no name", id)
		}
		b.opts.Logger("type %d has no name", id)
		out.TypeIDs[id] = TypeEntry{}
		out.Unnamed = append(out.Unnamed, id)
		return nil
	}

	out.TypeIDs[id] = TypeEntry{Name: &name}
	if prev, clash := out.TypeNames[name]; clash && prev != id {
		if b.opts.Strict {
			return errors.New(errors.ErrCodeNameCollision, "types %d and %d share the name %q", prev, id, name)
		}
		b.opts.Logger("types %d and %d share the name %q; keeping %d", prev, id, name, id)
		out.Collisions = append(out.Collisions, Collision{Name: name, Kept: id, Dropped: prev})
	}
	out.TypeNames[name] = id
	return nil
}

func (b *Builder) addBlueprint(ctx context.Context, out *Export, id sde.TypeID) error {
	recipe, ok, err := b.lookup.RecipeFor(ctx, id)
	if err != nil {
		return fmt.Errorf("recipe for %d: %w", id, err)
	}
	if !ok {
		return nil
	}

	materials, err := b.lookup.Materials(ctx, recipe.ID)
	if err != nil {
		return fmt.Errorf("materials of %d: %w", recipe.ID, err)
	}
	inputs := make([]Input, len(materials))
	for i, m := range materials {
		inputs[i] = Input{m.Quantity, m.TypeID}
	}

	out.Blueprints[id] = Blueprint{
		Output: recipe.Quantity,
		Inputs: inputs,
		Recipe: recipe.ID,
	}
	return nil
}
