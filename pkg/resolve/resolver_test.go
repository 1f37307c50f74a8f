package resolve

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shipyard/pkg/sde"
	"github.com/matzehuels/shipyard/pkg/sde/sdetest"
)

// fakeLookup serves recipes from memory and records every call.
type fakeLookup struct {
	recipes   map[sde.TypeID]sde.Recipe
	materials map[sde.TypeID][]sde.Material

	recipeCalls   []sde.TypeID
	materialCalls []sde.TypeID
	err           error
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		recipes:   make(map[sde.TypeID]sde.Recipe),
		materials: make(map[sde.TypeID][]sde.Material),
	}
}

// add registers recipe id producing product from inputs given as (qty, id) pairs.
func (f *fakeLookup) add(product, recipe sde.TypeID, inputs ...[2]int64) {
	f.recipes[product] = sde.Recipe{ID: recipe, ProductID: product, Quantity: 1, Activity: sde.ActivityManufacturing}
	ms := []sde.Material{}
	for _, in := range inputs {
		ms = append(ms, sde.Material{Quantity: in[0], TypeID: in[1]})
	}
	f.materials[recipe] = ms
}

func (f *fakeLookup) RecipeFor(_ context.Context, product sde.TypeID) (sde.Recipe, bool, error) {
	f.recipeCalls = append(f.recipeCalls, product)
	if f.err != nil {
		return sde.Recipe{}, false, f.err
	}
	r, ok := f.recipes[product]
	return r, ok, nil
}

func (f *fakeLookup) Materials(_ context.Context, recipe sde.TypeID) ([]sde.Material, error) {
	f.materialCalls = append(f.materialCalls, recipe)
	return f.materials[recipe], nil
}

func assertUnique(t *testing.T, what string, calls []sde.TypeID) {
	t.Helper()
	seen := make(map[sde.TypeID]bool)
	for _, id := range calls {
		if seen[id] {
			t.Errorf("%s called twice for %d (calls: %v)", what, id, calls)
		}
		seen[id] = true
	}
}

func scenarioLookup() *fakeLookup {
	f := newFakeLookup()
	f.add(100, 500, [2]int64{2, 200}, [2]int64{3, 300})
	f.add(300, 600, [2]int64{1, 400})
	return f
}

func TestResolveScenario(t *testing.T) {
	f := scenarioLookup()

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{100})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// Discovery order: recipe id, then inputs depth-first.
	if diff := cmp.Diff([]sde.TypeID{500, 200, 300, 600, 400}, res.Set.IDs()); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}
	if res.Set.Has(100) {
		t.Error("seed must not be added by the resolver")
	}

	relevant := Union([]sde.TypeID{100}, res.Set)
	if diff := cmp.Diff([]sde.TypeID{100, 200, 300, 400, 500, 600}, relevant.Sorted()); diff != "" {
		t.Errorf("relevant set mismatch (-want +got):\n%s", diff)
	}

	want := Stats{Expanded: 6, Recipes: 2, Leaves: 4}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
	assertUnique(t, "RecipeFor", f.recipeCalls)
	assertUnique(t, "Materials", f.materialCalls)
}

func TestResolveLeafSeed(t *testing.T) {
	f := scenarioLookup()

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{200})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Set.Len() != 0 {
		t.Errorf("leaf seed produced deps %v", res.Set.IDs())
	}
	if len(f.materialCalls) != 0 {
		t.Errorf("Materials called for a leaf: %v", f.materialCalls)
	}
}

func TestResolveEmptyInputs(t *testing.T) {
	f := newFakeLookup()
	f.add(1, 10)

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{1})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if diff := cmp.Diff([]sde.TypeID{10}, res.Set.IDs()); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveCycle(t *testing.T) {
	f := newFakeLookup()
	f.add(1, 11, [2]int64{1, 2}) // A needs B
	f.add(2, 12, [2]int64{1, 1}) // B needs A

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{1})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	got := res.Set.IDs()
	count := map[sde.TypeID]int{}
	for _, id := range got {
		count[id]++
	}
	if count[1] != 1 || count[2] != 1 {
		t.Errorf("A and B must appear exactly once, got %v", got)
	}
	assertUnique(t, "RecipeFor", f.recipeCalls)
}

func TestResolveSharedDependencies(t *testing.T) {
	f := newFakeLookup()
	f.add(1, 101, [2]int64{1, 50}, [2]int64{1, 60})
	f.add(2, 102, [2]int64{1, 50})
	f.add(50, 150, [2]int64{4, 70})

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{1, 2})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if diff := cmp.Diff([]sde.TypeID{101, 50, 150, 70, 60, 102}, res.Set.IDs()); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}
	assertUnique(t, "RecipeFor", f.recipeCalls)
	assertUnique(t, "Materials", f.materialCalls)
}

func TestResolveSeedIsIngredientOfAnotherSeed(t *testing.T) {
	f := newFakeLookup()
	f.add(1, 101, [2]int64{1, 2}) // seed 1 consumes seed 2
	f.add(2, 102, [2]int64{1, 3})

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{1, 2})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !res.Set.Has(2) {
		t.Error("seed 2 consumed by seed 1 should be a dependency")
	}
	if res.Set.Has(1) {
		t.Error("seed 1 is consumed by nothing and must not be a dependency")
	}
	assertUnique(t, "RecipeFor", f.recipeCalls)

	relevant := Union([]sde.TypeID{1, 2}, res.Set)
	if diff := cmp.Diff([]sde.TypeID{1, 2, 101, 102, 3}, relevant.IDs()); diff != "" {
		t.Errorf("relevant mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFollowsBlueprintRecipes(t *testing.T) {
	f := newFakeLookup()
	f.add(1, 10, [2]int64{1, 2})
	f.add(10, 20, [2]int64{5, 3}) // the blueprint itself is manufactured

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{1})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	for _, id := range []sde.TypeID{10, 2, 20, 3} {
		if !res.Set.Has(id) {
			t.Errorf("missing %d in %v", id, res.Set.IDs())
		}
	}
}

func TestResolveRecipeKnownAsInput(t *testing.T) {
	f := newFakeLookup()
	f.add(1, 900, [2]int64{1, 500}) // seed 1 consumes blueprint 500
	f.add(100, 500, [2]int64{2, 200})

	res, err := New(f).Resolve(context.Background(), []sde.TypeID{1, 100})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	relevant := Union([]sde.TypeID{1, 100}, res.Set)
	if diff := cmp.Diff([]sde.TypeID{1, 100, 200, 500, 900}, relevant.Sorted()); diff != "" {
		t.Errorf("relevant set mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sde.TypeID{900, 500}, f.materialCalls); diff != "" {
		t.Errorf("Materials calls mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Recipes != 2 {
		t.Errorf("Stats.Recipes = %d, want 2", res.Stats.Recipes)
	}
}

func TestResolveDuplicateSeeds(t *testing.T) {
	f := scenarioLookup()

	_, err := New(f).Resolve(context.Background(), []sde.TypeID{100, 100, 300})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	assertUnique(t, "RecipeFor", f.recipeCalls)
}

func TestResolveLookupError(t *testing.T) {
	f := scenarioLookup()
	boom := errors.New("disk on fire")
	f.err = boom

	_, err := New(f).Resolve(context.Background(), []sde.TypeID{100})
	if !errors.Is(err, boom) {
		t.Fatalf("Resolve() error = %v, want wrapping %v", err, boom)
	}
}

func TestResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(scenarioLookup()).Resolve(ctx, []sde.TypeID{100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestResolveNoSeeds(t *testing.T) {
	res, err := New(scenarioLookup()).Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Set.Len() != 0 {
		t.Errorf("Resolve(nil) = %v, want empty", res.Set.IDs())
	}
}

// TestResolveClosureRandomGraphs checks the closure and no-duplicate-expansion
// guarantees on random recipe graphs, cycles included.
func TestResolveClosureRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		f := newFakeLookup()
		const n = 40
		for id := sde.TypeID(1); id <= n; id++ {
			if rng.Intn(3) == 0 {
				continue // raw material
			}
			var inputs [][2]int64
			for k := rng.Intn(4); k > 0; k-- {
				in := rng.Int63n(n) + 1
				if rng.Intn(4) == 0 {
					in += 1000 // consume another type's blueprint
				}
				inputs = append(inputs, [2]int64{int64(rng.Intn(9) + 1), in})
			}
			f.add(id, 1000+id, inputs...)
		}

		seeds := []sde.TypeID{rng.Int63n(n) + 1, rng.Int63n(n) + 1, rng.Int63n(n) + 1}
		res, err := New(f).Resolve(context.Background(), seeds)
		if err != nil {
			t.Fatalf("round %d: Resolve() error: %v", round, err)
		}
		assertUnique(t, "RecipeFor", f.recipeCalls)
		assertUnique(t, "Materials", f.materialCalls)

		relevant := Union(seeds, res.Set)
		for _, id := range relevant.IDs() {
			r, ok := f.recipes[id]
			if !ok {
				continue
			}
			if !relevant.Has(r.ID) {
				t.Fatalf("round %d: %d has recipe %d missing from relevant set", round, id, r.ID)
			}
			for _, m := range f.materials[r.ID] {
				if !relevant.Has(m.TypeID) {
					t.Fatalf("round %d: input %d of %d missing from relevant set", round, m.TypeID, id)
				}
			}
		}
	}
}

func TestResolveAgainstStore(t *testing.T) {
	store := sdetest.Open(t, sdetest.Scenario())

	res, err := New(store).Resolve(context.Background(), []sde.TypeID{100})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	relevant := Union([]sde.TypeID{100}, res.Set)
	if diff := cmp.Diff([]sde.TypeID{100, 200, 300, 400, 500, 600}, relevant.Sorted()); diff != "" {
		t.Errorf("relevant set mismatch (-want +got):\n%s", diff)
	}
}
