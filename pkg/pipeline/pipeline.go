// Package pipeline runs the extract: seed selection, dependency resolution
// and export building, in that order.
//
// CLI, API and tests all go through [Runner] so that caching, hooks and
// logging behave the same everywhere.
//
// # Usage
//
//	store, err := sde.Open(ctx, sde.DefaultPath)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	runner := pipeline.NewRunner(store, cache, nil, logger)
//	result, err := runner.Extract(ctx, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	paths, err := export.Write(export.DefaultDir, result.Export)
package pipeline

import (
	"time"

	"github.com/matzehuels/shipyard/pkg/cache"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/resolve"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// Options configures one extract.
type Options struct {
	// RootGroup is the market group whose subtree seeds the extract.
	// Zero means [sde.ShipMarketGroup].
	RootGroup int64 `json:"root_group,omitempty"`

	// Strict aborts on a missing root group, a missing name or a name
	// collision instead of logging a warning.
	Strict bool `json:"strict,omitempty"`

	// Refresh ignores any cached extract and overwrites it.
	Refresh bool `json:"refresh,omitempty"`
}

// WithDefaults returns a copy of o with defaults filled in.
func (o Options) WithDefaults() Options {
	if o.RootGroup == 0 {
		o.RootGroup = sde.ShipMarketGroup
	}
	return o
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.RootGroup < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "root group must be positive, got %d", o.RootGroup)
	}
	return nil
}

// KeyOpts returns the options that affect the cached result.
func (o Options) KeyOpts() cache.ExtractKeyOpts {
	return cache.ExtractKeyOpts{RootGroup: o.RootGroup, Strict: o.Strict}
}

// Result contains the outputs of an extract.
type Result struct {
	// Export holds the three lookup mappings.
	Export *export.Export `json:"export"`

	// Groups is the number of market groups under the root.
	Groups int `json:"groups"`

	// Seeds is the number of seed types.
	Seeds int `json:"seeds"`

	// Relevant is the size of the relevant set (seeds plus dependencies).
	Relevant int `json:"relevant"`

	// RootMissing is set when the root group was absent and the extract
	// continued with no seeds.
	RootMissing bool `json:"root_missing,omitempty"`

	Stats Stats `json:"stats"`

	// CacheHit is true when the result came from the cache.
	CacheHit bool `json:"-"`
}

// Stats contains extract statistics.
type Stats struct {
	Resolve     resolve.Stats `json:"resolve"`
	SelectTime  time.Duration `json:"-"`
	ResolveTime time.Duration `json:"-"`
	ExportTime  time.Duration `json:"-"`
}

// Total returns the time spent in all three stages.
func (s Stats) Total() time.Duration {
	return s.SelectTime + s.ResolveTime + s.ExportTime
}
