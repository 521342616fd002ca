package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func TestRecordService(t *testing.T) {
	stores := newTestStores()
	seedRequirements(t, stores, sampleRequirements()...)
	gen := NewGenerationService(stores, domain.DefaultAppSettings().Stories)
	ctx := context.Background()
	_, err := gen.GenerateStories(ctx)
	require.NoError(t, err)
	_, err = gen.GenerateUAT(ctx)
	require.NoError(t, err)

	svc := NewRecordService(stores)

	reqs, err := svc.Requirements(ctx)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	target, err := svc.Requirement(ctx, "REQ-2")
	require.NoError(t, err)
	assert.Equal(t, "REQ-2", target.Requirement.ID)
	require.Len(t, target.Stories, 1)
	assert.Len(t, target.Cases, 2)

	_, err = svc.Requirement(ctx, "REQ-99")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stories, err := svc.Stories(ctx)
	require.NoError(t, err)
	assert.Len(t, stories, 2)

	cases, err := svc.Cases(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 3)
}

func TestRecordService_SetStatus(t *testing.T) {
	stores := newTestStores()
	seedRequirements(t, stores, sampleRequirements()...)
	gen := NewGenerationService(stores, domain.DefaultAppSettings().Stories)
	ctx := context.Background()
	_, err := gen.GenerateStories(ctx)
	require.NoError(t, err)
	_, err = gen.GenerateUAT(ctx)
	require.NoError(t, err)

	svc := NewRecordService(stores)

	require.NoError(t, svc.SetRequirementStatus(ctx, "REQ-1", domain.RequirementStatusApproved))
	req, err := stores.Requirements.Get(ctx, "REQ-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequirementStatusApproved, req.Status)

	require.NoError(t, svc.SetCaseStatus(ctx, "US-REQ-1-TC-01", domain.UATStatusFailed))
	c, err := stores.Cases.Get(ctx, "US-REQ-1-TC-01")
	require.NoError(t, err)
	assert.Equal(t, domain.UATStatusFailed, c.Status)

	assert.ErrorIs(t, svc.SetRequirementStatus(ctx, "REQ-1", "done"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetCaseStatus(ctx, "US-REQ-1-TC-01", "skipped"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetCaseStatus(ctx, "nope", domain.UATStatusPassed), domain.ErrNotFound)
}
