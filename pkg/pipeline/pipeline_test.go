package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shipyard/pkg/cache"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/observability"
	"github.com/matzehuels/shipyard/pkg/sde"
	"github.com/matzehuels/shipyard/pkg/sde/sdetest"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestRunner(t *testing.T, f sdetest.Fixture, c cache.Cache) (*Runner, *sde.Store) {
	t.Helper()
	store := sdetest.Open(t, f)
	return NewRunner(store, c, nil, quietLogger()), store
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	if opts.RootGroup != sde.ShipMarketGroup {
		t.Errorf("RootGroup = %d, want %d", opts.RootGroup, sde.ShipMarketGroup)
	}
	if opts.Strict || opts.Refresh {
		t.Error("Strict and Refresh should default to false")
	}

	custom := Options{RootGroup: 10}.WithDefaults()
	if custom.RootGroup != 10 {
		t.Errorf("RootGroup = %d, want 10", custom.RootGroup)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		root    int64
		wantErr bool
	}{
		{4, false},
		{1, false},
		{-1, true},
	}
	for _, tt := range tests {
		err := Options{RootGroup: tt.root}.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(root=%d) error = %v, wantErr %v", tt.root, err, tt.wantErr)
		}
	}
}

func TestExtractScenario(t *testing.T) {
	runner, _ := newTestRunner(t, sdetest.Scenario(), nil)

	result, err := runner.Extract(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if result.Seeds != 1 || result.Groups != 3 || result.Relevant != 6 {
		t.Errorf("counts = seeds %d, groups %d, relevant %d; want 1, 3, 6",
			result.Seeds, result.Groups, result.Relevant)
	}
	want := map[sde.TypeID]export.Blueprint{
		100: {Output: 1, Inputs: []export.Input{{2, 200}, {3, 300}}, Recipe: 500},
		300: {Output: 1, Inputs: []export.Input{{1, 400}}, Recipe: 600},
	}
	if diff := cmp.Diff(want, result.Export.Blueprints); diff != "" {
		t.Errorf("Blueprints mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []sde.TypeID{100, 200, 300, 400, 500, 600} {
		if _, ok := result.Export.TypeIDs[id]; !ok {
			t.Errorf("TypeIDs missing %d", id)
		}
	}
	if _, ok := result.Export.TypeIDs[700]; ok {
		t.Error("unrelated type 700 should not be exported")
	}
	if result.CacheHit {
		t.Error("first run should not be a cache hit")
	}
}

func TestExtractUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner, store := newTestRunner(t, sdetest.Scenario(), c)
	ctx := context.Background()

	first, err := runner.Extract(ctx, Options{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	// A hit must not touch the database.
	store.Close()

	second, err := runner.Extract(ctx, Options{})
	if err != nil {
		t.Fatalf("cached Extract() error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should be a cache hit")
	}
	if diff := cmp.Diff(first.Export, second.Export); diff != "" {
		t.Errorf("cached export mismatch (-want +got):\n%s", diff)
	}
	if second.Relevant != first.Relevant || second.Stats.Resolve != first.Stats.Resolve {
		t.Errorf("cached stats = %+v, want %+v", second.Stats.Resolve, first.Stats.Resolve)
	}

	if _, err := runner.Extract(ctx, Options{Refresh: true}); err == nil {
		t.Error("Refresh should bypass the cache and hit the closed store")
	}
}

func TestExtractCacheKeyedByOptions(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	runner, _ := newTestRunner(t, sdetest.Scenario(), c)
	ctx := context.Background()

	if _, err := runner.Extract(ctx, Options{}); err != nil {
		t.Fatal(err)
	}
	result, err := runner.Extract(ctx, Options{RootGroup: 99})
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheHit {
		t.Error("a different root group must not reuse the cached extract")
	}
}

func TestExtractRootMissing(t *testing.T) {
	runner, _ := newTestRunner(t, sdetest.Scenario(), nil)

	result, err := runner.Extract(context.Background(), Options{RootGroup: 12345})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !result.RootMissing {
		t.Error("RootMissing should be set")
	}
	if len(result.Export.TypeIDs) != 0 || len(result.Export.Blueprints) != 0 {
		t.Errorf("export should be empty, got %d types", len(result.Export.TypeIDs))
	}
}

func TestExtractRootMissingStrict(t *testing.T) {
	runner, _ := newTestRunner(t, sdetest.Scenario(), nil)

	_, err := runner.Extract(context.Background(), Options{RootGroup: 12345, Strict: true})
	if !errors.Is(err, errors.ErrCodeRootNotFound) {
		t.Fatalf("Extract() error = %v, want %s", err, errors.ErrCodeRootNotFound)
	}
}

func TestExtractEmptySeeds(t *testing.T) {
	f := sdetest.Scenario()
	f.Groups = append(f.Groups, sde.MarketGroup{ID: 50, Name: "Empty"})
	runner, _ := newTestRunner(t, f, nil)

	result, err := runner.Extract(context.Background(), Options{RootGroup: 50})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if result.Seeds != 0 || len(result.Export.TypeIDs) != 0 {
		t.Errorf("empty root: seeds %d, types %d; want 0, 0", result.Seeds, len(result.Export.TypeIDs))
	}
	if result.RootMissing {
		t.Error("an existing empty root is not missing")
	}
}

func TestExtractStrictCollision(t *testing.T) {
	f := sdetest.Scenario()
	f.Types = append(f.Types, sde.Type{ID: 150, Name: "Rifter", MarketGroupID: 10})
	runner, _ := newTestRunner(t, f, nil)

	if _, err := runner.Extract(context.Background(), Options{}); err != nil {
		t.Fatalf("non-strict Extract() error: %v", err)
	}
	_, err := runner.Extract(context.Background(), Options{Strict: true})
	if !errors.Is(err, errors.ErrCodeNameCollision) {
		t.Fatalf("strict Extract() error = %v, want %s", err, errors.ErrCodeNameCollision)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	events []string
}

func (h *recordingHooks) OnSelectComplete(_ context.Context, _ int64, seeds int, _ time.Duration, _ error) {
	h.events = append(h.events, "select")
}

func (h *recordingHooks) OnResolveComplete(_ context.Context, relevant int, _ time.Duration, _ error) {
	h.events = append(h.events, "resolve")
}

func (h *recordingHooks) OnExportComplete(_ context.Context, blueprints int, _ time.Duration, _ error) {
	h.events = append(h.events, "export")
}

func TestExtractEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	runner, _ := newTestRunner(t, sdetest.Scenario(), nil)
	if _, err := runner.Extract(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"select", "resolve", "export"}, hooks.events); diff != "" {
		t.Errorf("hook events mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsTotal(t *testing.T) {
	s := Stats{SelectTime: time.Second, ResolveTime: 2 * time.Second, ExportTime: 3 * time.Second}
	if s.Total() != 6*time.Second {
		t.Errorf("Total() = %v, want 6s", s.Total())
	}
}
