package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

func target(id, desc string) domain.ComplianceTarget {
	return domain.ComplianceTarget{Requirement: domain.Requirement{
		ID: id, SourceRef: "reqs.xlsx", Description: desc, Priority: domain.PriorityHigh,
	}}
}

func findingFor(t *testing.T, findings []domain.ComplianceFinding, ruleID string) domain.ComplianceFinding {
	t.Helper()
	for _, f := range findings {
		if f.RuleID == ruleID {
			return f
		}
	}
	t.Fatalf("no finding for rule %s", ruleID)
	return domain.ComplianceFinding{}
}

func TestValidator_OneFindingPerRulePerTarget(t *testing.T) {
	v := NewValidator(Privacy())
	targets := []domain.ComplianceTarget{
		target("REQ-1", "User can reset password"),
		target("REQ-2", "Store customer data encrypted with AES"),
	}

	findings := v.Validate(targets)
	require.Len(t, findings, 2*len(v.Rules()))

	for i, f := range findings {
		assert.Equal(t, domain.FrameworkPrivacy, f.Framework)
		assert.Equal(t, targets[i/5].Requirement.ID, f.TargetID)
		assert.Equal(t, v.Rules()[i%5].ID, f.RuleID)
		assert.Empty(t, f.ID, "ids are assigned by the caller")
	}
}

func TestValidator_Deterministic(t *testing.T) {
	v := NewValidator(ERecords())
	targets := []domain.ComplianceTarget{
		target("REQ-1", "Batch record approval requires an electronic signature"),
		target("REQ-2", "Records keep an audit trail with UTC timestamp"),
	}

	assert.Equal(t, v.Validate(targets), v.Validate(targets))
}

func TestValidator_DoesNotMutateTargets(t *testing.T) {
	targets := []domain.ComplianceTarget{target("REQ-1", "Store personal data")}
	targets[0].Requirement.AcceptanceCriteria = []string{"Consent captured"}
	before := targets[0].Requirement

	NewValidator(Privacy()).Validate(targets)

	assert.Equal(t, before, targets[0].Requirement)
}

func TestPrivacy_KeywordOutcomes(t *testing.T) {
	v := NewValidator(Privacy())

	na := v.Validate([]domain.ComplianceTarget{target("REQ-1", "User can reset password")})
	for _, f := range na {
		assert.Equal(t, domain.FindingNotApplicable, f.Status)
		assert.Equal(t, "no trigger terms found", f.Reason)
	}

	tgt := target("REQ-2", "Store customer data encrypted at rest")
	tgt.Requirement.Rationale = "Users give consent at sign-up"
	findings := v.Validate([]domain.ComplianceTarget{tgt})

	lawful := findingFor(t, findings, "PRIV-01")
	assert.Equal(t, domain.FindingPass, lawful.Status)
	assert.Equal(t, `found "consent"`, lawful.Evidence)

	enc := findingFor(t, findings, "PRIV-05")
	assert.Equal(t, domain.FindingPass, enc.Status)
	assert.Contains(t, enc.Evidence, `"encrypt"`)
	assert.Contains(t, enc.Evidence, `"at rest"`)

	retention := findingFor(t, findings, "PRIV-03")
	assert.Equal(t, domain.FindingFail, retention.Status)
	assert.Contains(t, retention.Evidence, `mentions "customer data"`)
}

func TestKeywordRule_EmptyDescriptionIsRuleError(t *testing.T) {
	findings := NewValidator(Privacy()).Validate([]domain.ComplianceTarget{target("REQ-1", "  ")})

	for _, f := range findings {
		assert.Equal(t, domain.FindingNotApplicable, f.Status)
		assert.Contains(t, f.Reason, "cannot evaluate REQ-1")
		assert.Contains(t, f.Reason, "no description")
	}
}

func TestAudit_RecordChain(t *testing.T) {
	tgt := target("REQ-1", "User can reset password")
	tgt.Stories = []domain.UserStory{{ID: "US-REQ-1"}, {ID: "US-AUTH"}}
	tgt.Cases = []domain.UATCase{
		{ID: "US-REQ-1-TC-01", StoryID: "US-REQ-1", Status: domain.UATStatusPassed},
		{ID: "US-REQ-1-TC-02", StoryID: "US-REQ-1", Status: domain.UATStatusPending},
	}

	findings := NewValidator(Audit()).Validate([]domain.ComplianceTarget{tgt})
	require.Len(t, findings, 6)

	assert.Equal(t, domain.FindingPass, findingFor(t, findings, "AUD-01").Status)
	assert.Equal(t, domain.FindingPass, findingFor(t, findings, "AUD-02").Status)
	assert.Equal(t, domain.FindingPass, findingFor(t, findings, "AUD-03").Status)
	assert.Equal(t, "traced to US-REQ-1, US-AUTH", findingFor(t, findings, "AUD-04").Evidence)

	coverage := findingFor(t, findings, "AUD-05")
	assert.Equal(t, domain.FindingFail, coverage.Status)
	assert.Equal(t, "stories without UAT cases: US-AUTH", coverage.Evidence)

	verified := findingFor(t, findings, "AUD-06")
	assert.Equal(t, domain.FindingFail, verified.Status)
	assert.Equal(t, "pending cases: US-REQ-1-TC-02", verified.Evidence)
}

func TestAudit_Failures(t *testing.T) {
	tgt := domain.ComplianceTarget{Requirement: domain.Requirement{ID: "req one", Description: "x", Priority: "urgent"}}

	findings := NewValidator(Audit()).Validate([]domain.ComplianceTarget{tgt})

	assert.Equal(t, domain.FindingFail, findingFor(t, findings, "AUD-01").Status)
	assert.Equal(t, domain.FindingFail, findingFor(t, findings, "AUD-02").Status)
	assert.Equal(t, domain.FindingFail, findingFor(t, findings, "AUD-03").Status)
	assert.Equal(t, domain.FindingFail, findingFor(t, findings, "AUD-04").Status)

	verified := findingFor(t, findings, "AUD-06")
	assert.Equal(t, domain.FindingNotApplicable, verified.Status)
	assert.Contains(t, verified.Reason, "no UAT cases")
}

func TestAudit_AllPassed(t *testing.T) {
	tgt := target("REQ-1", "User can reset password")
	tgt.Stories = []domain.UserStory{{ID: "US-REQ-1"}}
	tgt.Cases = []domain.UATCase{{ID: "US-REQ-1-TC-01", StoryID: "US-REQ-1", Status: domain.UATStatusPassed}}

	findings := NewValidator(Audit()).Validate([]domain.ComplianceTarget{tgt})

	for _, f := range findings {
		assert.Equal(t, domain.FindingPass, f.Status, f.RuleID)
	}
}

func TestValidator_TestPlan(t *testing.T) {
	plan := NewValidator(Audit()).TestPlan()

	assert.True(t, strings.HasPrefix(plan, "Feature: audit compliance\n"))
	assert.Equal(t, 6, strings.Count(plan, "\n  Scenario: "))
	assert.Contains(t, plan, "  Scenario: AUD-01 Identifier format\n    Given an imported requirement\n")
	assert.Less(t, strings.Index(plan, "AUD-01"), strings.Index(plan, "AUD-06"))
	assert.Equal(t, plan, NewValidator(Audit()).TestPlan())
}

func TestGenerateTestPlan_FillsMissingSteps(t *testing.T) {
	fw := Framework{Name: "custom", Rules: []Rule{{ID: "CUS-1", Title: "Owner named", Check: "Requirement names an owner"}}}

	plan := GenerateTestPlan(fw)

	assert.Equal(t, "Feature: custom compliance\n\n"+
		"  Scenario: CUS-1 Owner named\n"+
		"    Given an imported requirement\n"+
		"    When the custom rules are evaluated\n"+
		"    Then rule CUS-1 passes: requirement names an owner\n", plan)
}
