package driving

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// FrameworkInfo describes a registered compliance framework.
type FrameworkInfo struct {
	Name  string
	Rules int
}

// ComplianceService runs framework validators and reads findings.
type ComplianceService interface {
	// Frameworks lists the registered frameworks.
	Frameworks() []FrameworkInfo

	// Validate runs one framework over every requirement and records a run.
	Validate(ctx context.Context, framework string) (*domain.ComplianceRun, error)

	// ValidateAll runs each framework in order. Unknown frameworks fail
	// before any run is recorded.
	ValidateAll(ctx context.Context, frameworks []string) ([]domain.ComplianceRun, error)

	// Findings returns the newest run's findings for a framework.
	// An empty framework returns the newest findings of every framework.
	Findings(ctx context.Context, framework string) ([]domain.ComplianceFinding, error)

	// TestPlan renders the literal test scenarios for a framework.
	TestPlan(framework string) (string, error)
}
