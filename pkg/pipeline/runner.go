package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shipyard/pkg/cache"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/observability"
	"github.com/matzehuels/shipyard/pkg/resolve"
	"github.com/matzehuels/shipyard/pkg/sde"
	"github.com/matzehuels/shipyard/pkg/seed"
)

// cacheKeyType labels extract entries in cache hooks.
const cacheKeyType = "extract"

// Store is everything the three stages read. [sde.Store] implements it.
type Store interface {
	seed.Store
	export.Lookup

	// Fingerprint identifies the snapshot for cache keys.
	Fingerprint() (string, error)
}

// Runner encapsulates extract execution with caching.
//
// The Runner keeps no per-run state, so multiple goroutines can share one
// Runner as long as the Store allows concurrent reads.
type Runner struct {
	Store  Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner reading from store.
// A nil cache disables caching, a nil keyer means [cache.DefaultKeyer], and a
// nil logger means [log.Default].
func NewRunner(store Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  store,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Extract runs seed selection, dependency resolution and export building.
//
// When the snapshot and options match a cached extract, the cached result is
// returned and the store is not queried. Options.Refresh skips the lookup.
func (r *Runner) Extract(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cacheKey := r.cacheKey(opts)
	if cacheKey != "" && !opts.Refresh {
		if result, ok := r.cached(ctx, cacheKey); ok {
			r.Logger.Info("using cached extract", "types", len(result.Export.TypeIDs))
			return result, nil
		}
	}

	result, err := r.run(ctx, opts)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		r.store(ctx, cacheKey, result)
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, opts Options) (*Result, error) {
	hooks := observability.Pipeline()
	result := &Result{}

	// Stage 1: seeds
	start := time.Now()
	hooks.OnSelectStart(ctx, opts.RootGroup)
	selected, err := seed.NewSelector(r.Store).Select(ctx, opts.RootGroup)
	result.Stats.SelectTime = time.Since(start)
	hooks.OnSelectComplete(ctx, opts.RootGroup, seedCount(selected), result.Stats.SelectTime, err)
	switch {
	case errors.Is(err, errors.ErrCodeRootNotFound) && !opts.Strict:
		r.Logger.Error("root market group not found, nothing to extract", "root", opts.RootGroup)
		result.RootMissing = true
		selected = &seed.Result{Types: []sde.Type{}}
	case err != nil:
		return nil, fmt.Errorf("select seeds: %w", err)
	}
	seeds := selected.IDs()
	result.Groups = len(selected.Groups)
	result.Seeds = len(seeds)
	if len(seeds) == 0 {
		r.Logger.Warn("seed set is empty, the export will be empty", "root", opts.RootGroup)
	}
	r.Logger.Info("selected seeds",
		"groups", result.Groups,
		"seeds", result.Seeds,
		"duration", result.Stats.SelectTime)

	// Stage 2: dependencies
	start = time.Now()
	hooks.OnResolveStart(ctx, len(seeds))
	deps, err := resolve.New(r.Store).Resolve(ctx, seeds)
	result.Stats.ResolveTime = time.Since(start)
	if err != nil {
		hooks.OnResolveComplete(ctx, 0, result.Stats.ResolveTime, err)
		return nil, fmt.Errorf("resolve: %w", err)
	}
	relevant := resolve.Union(seeds, deps.Set)
	hooks.OnResolveComplete(ctx, relevant.Len(), result.Stats.ResolveTime, nil)
	result.Relevant = relevant.Len()
	result.Stats.Resolve = deps.Stats
	r.Logger.Info("resolved dependencies",
		"relevant", result.Relevant,
		"recipes", deps.Stats.Recipes,
		"raw", deps.Stats.Leaves,
		"duration", result.Stats.ResolveTime)

	// Stage 3: export
	start = time.Now()
	hooks.OnExportStart(ctx, relevant.Len())
	builder := export.NewBuilder(r.Store, export.Options{
		Strict: opts.Strict,
		Logger: r.Logger.Warnf,
	})
	exp, err := builder.Build(ctx, relevant.IDs())
	result.Stats.ExportTime = time.Since(start)
	if err != nil {
		hooks.OnExportComplete(ctx, 0, result.Stats.ExportTime, err)
		return nil, fmt.Errorf("export: %w", err)
	}
	hooks.OnExportComplete(ctx, len(exp.Blueprints), result.Stats.ExportTime, nil)
	result.Export = exp
	r.Logger.Info("built export",
		"types", len(exp.TypeIDs),
		"names", len(exp.TypeNames),
		"blueprints", len(exp.Blueprints),
		"duration", result.Stats.ExportTime)
	if n := len(exp.Collisions); n > 0 {
		r.Logger.Warn("duplicate names resolved by last write", "collisions", n)
	}
	if n := len(exp.Unnamed); n > 0 {
		r.Logger.Warn("types without a name", "count", n)
	}

	return result, nil
}

// cacheKey returns "" when the snapshot cannot be fingerprinted, which
// disables caching for the run.
func (r *Runner) cacheKey(opts Options) string {
	fp, err := r.Store.Fingerprint()
	if err != nil {
		r.Logger.Debug("extract cache disabled", "error", err)
		return ""
	}
	return r.Keyer.ExtractKey(fp, opts.KeyOpts())
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil || result.Export == nil {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	result.CacheHit = true
	return &result, true
}

func (r *Runner) store(ctx context.Context, key string, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		r.Logger.Debug("cache encode failed", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLExtract); err != nil {
		r.Logger.Debug("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
}

// Close releases resources held by the runner (the cache, not the store).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func seedCount(r *seed.Result) int {
	if r == nil {
		return 0
	}
	return len(r.Types)
}
