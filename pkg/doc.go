// Package pkg provides the libraries behind loadmaster, an Arma 3 workshop
// mod list checker.
//
// # Overview
//
// A player exports their active mods from the launcher as an HTML file.
// Loadmaster pulls the workshop ids out of that file, scrapes each item page
// for its name, size, dependencies and expansion requirements, and reports
// what is missing and how much has to be downloaded.
//
// # Architecture
//
// The data flow through loadmaster:
//
//	Launcher HTML export
//	         ↓
//	    [modlist] package (extract workshop ids)
//	         ↓
//	    [enrich] package (concurrent lookups via integrations/workshop)
//	         ↓
//	    [analysis] package (compatibility, requirements, size, diff)
//	         ↓
//	    [report] package (text, JSON or YAML)
//
// [pipeline] runs the whole chain with a deadline and records history in a
// [store]. The CLI and the HTTP API both go through it.
//
// # Quick Start
//
//	client := workshop.NewClient(cache.NewMemoryCache(), workshop.Options{})
//	runner := pipeline.NewRunner(client, nil, nil)
//	result, err := runner.Analyze(ctx, pipeline.Options{Document: html})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(report.TopBySize(result.Items, 10).Text())
//
// # Main Packages
//
// ## Domain
//
// [mod] - Item records and placeholders for items that could not be fetched.
//
// [catalog] - The expansion catalog: names, companion items, base ids and
// known sizes, embedded as TOML and overridable from a file.
//
// [modlist] - Identifier extraction from exported launcher documents.
//
// [analysis] - Pure functions over enriched items: expansion compatibility,
// missing dependencies, size estimate, categorization and list diffs.
//
// ## External Integrations
//
// [integrations] - Shared HTTP client with caching, retries and rate limits.
// The workshop subpackage scrapes Steam Workshop item pages.
//
// ## Infrastructure
//
// [cache] - Byte caches for scraped pages: file, memory, Redis or none.
//
// [store] - Submission history and item metadata. Memory, SQLite and MongoDB
// implementations share one conformance suite.
//
// [httputil] - Retry policy and rate-limited transport.
//
// [observability] - Hooks for analysis, cache and HTTP events with a
// Prometheus implementation.
//
// [errors] - Coded errors and input validation.
//
// # Testing
//
//	go test ./pkg/...
//	LOADMASTER_TEST_REDIS_ADDR=localhost:6379 go test ./pkg/cache/...
//	LOADMASTER_TEST_MONGO_URI=mongodb://localhost go test ./pkg/store/...
//
// [modlist]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/modlist
// [enrich]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/enrich
// [analysis]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/analysis
// [report]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/report
// [pipeline]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/pipeline
// [store]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/store
// [mod]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/mod
// [catalog]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/catalog
// [integrations]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/observability
// [errors]: https://pkg.go.dev/github.com/jfahler/loadmasterbot/pkg/errors
package pkg
