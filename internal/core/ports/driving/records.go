package driving

import (
	"context"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// RecordService reads records and updates their status fields.
type RecordService interface {
	// Requirements lists all requirements.
	Requirements(ctx context.Context) ([]domain.Requirement, error)

	// Requirement returns one requirement with its stories and cases.
	Requirement(ctx context.Context, id string) (*domain.ComplianceTarget, error)

	// Stories lists all stories.
	Stories(ctx context.Context) ([]domain.UserStory, error)

	// Cases lists all UAT cases.
	Cases(ctx context.Context) ([]domain.UATCase, error)

	// SetRequirementStatus changes a requirement's status.
	SetRequirementStatus(ctx context.Context, id string, status domain.RequirementStatus) error

	// SetCaseStatus records a UAT execution result.
	SetCaseStatus(ctx context.Context, id string, status domain.UATStatus) error
}
