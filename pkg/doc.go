// Package pkg provides the libraries behind shipyard, the EVE Online ship
// manufacturing extractor.
//
// # Overview
//
// Shipyard reads the Static Data Export (SDE) and writes three flat lookups a
// build planner can load without the database: type names by id, ids by
// name, and the manufacturing or reaction recipe of every type needed to
// build any ship. The pkg directory is organized into:
//
//  1. [sde] - Read-only access to the SQLite dump
//  2. [seed], [resolve], [export] - The three extraction stages
//  3. [pipeline] - Orchestration with caching and hooks
//  4. [plan], [catalog] - Build planning and name lookups over an extract
//  5. [server], [publish], [render/nodelink] - Ways to hand an extract on
//
// # Architecture
//
// The data flow of an extract:
//
//	SDE SQLite dump
//	       ↓
//	  [seed] (every type under the Ship market group)
//	       ↓
//	  [resolve] (recipes and inputs, recursively)
//	       ↓
//	  [export] (type_ids.json, type_names.json, bp_ids.json)
//
// # Quick Start
//
//	store, err := sde.Open(ctx, sde.DefaultPath)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	runner := pipeline.NewRunner(store, nil, nil, logger)
//	result, err := runner.Extract(ctx, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	paths, err := export.Write(export.DefaultDir, result.Export)
//
// Plan a build from the written files:
//
//	e, _ := export.Read(export.DefaultDir)
//	entry, _ := catalog.New(e).Lookup("Rifter")
//	p, _ := plan.Build(e.Blueprints, entry.ID, 10)
//	for _, a := range p.RawAmounts() {
//	    fmt.Println(a.TypeID, a.Quantity)
//	}
//
// # Supporting Packages
//
//   - [cache]: File, Redis and no-op caches for extract results
//   - [config]: Optional shipyard.toml
//   - [errors]: Coded errors shared by every layer
//   - [observability]: Hooks for stage, cache and HTTP events
//   - [retry]: Backoff for transient connection failures
//   - [buildinfo]: Version information set at build time
//
// [sde]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/sde
// [seed]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/seed
// [resolve]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/resolve
// [export]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/export
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/pipeline
// [plan]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/plan
// [catalog]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/catalog
// [server]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/server
// [publish]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/publish
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/observability
// [retry]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/retry
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/shipyard/pkg/buildinfo
package pkg
