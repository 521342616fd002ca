// Package tui provides an interactive terminal browser for compliance findings.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/reqtrace/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI reads from.
type Ports struct {
	// Compliance lists frameworks and their newest findings.
	Compliance driving.ComplianceService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Compliance == nil {
		return ErrMissingComplianceService
	}
	return nil
}
