// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Parser / ParserRegistry: Turn document bytes into records
//   - RequirementStore, StoryStore, UATStore: Source and derived records
//   - TraceabilityStore: Recomputed requirement -> story -> case links
//   - FindingStore: Append-only compliance findings
//   - DiagramStore: Imported diagram graphs
//   - FrameworkCatalog: Compliance rule tables loaded at startup
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Exporter: File formatters. Unregistered formats are rejected.
//   - Publisher: Remote destinations (GitHub, Notion, Google Sheets).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, parser, or formatter package
package driven
