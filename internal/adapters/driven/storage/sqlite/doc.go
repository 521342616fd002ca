// Package sqlite provides a unified SQLite-based implementation of the
// record stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. It implements every store interface through a single
// database handle:
//
//   - RequirementStore: imported requirements (insert-only apart from status)
//   - StoryStore: generated user stories and their requirement links
//   - UATStore: generated UAT cases
//   - TraceabilityStore: the recomputed requirement -> story -> case join
//   - FindingStore: append-only compliance runs and findings
//   - DiagramStore: imported diagram nodes and edges
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.reqtrace/data/reqtrace.db
//
// # Transactions
//
// Every write runs in its own transaction. Derived records are checked
// against their source records before anything is written, so a rejected
// write leaves the store unchanged.
package sqlite
