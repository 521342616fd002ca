// Package domain defines the core records for reqtrace.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the shared record schema
// every component communicates through:
//
//   - Requirement: an imported business or compliance need
//   - UserStory: role/action/benefit artifact derived from requirements
//   - UATCase: acceptance test case derived from one story criterion
//   - TraceabilityLink: derived requirement -> story -> case join
//   - ComplianceFinding: outcome of one rule against one requirement
//   - DiagramNode / DiagramEdge: imported diagram graph
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
