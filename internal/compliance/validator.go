package compliance

import (
	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

// Ensure Validator implements the interface.
var _ driven.Validator = (*Validator)(nil)

// Validator applies one framework's rule table.
type Validator struct {
	framework Framework
}

// NewValidator creates a validator for a framework.
func NewValidator(fw Framework) *Validator {
	return &Validator{framework: fw}
}

// Framework returns the framework name.
func (v *Validator) Framework() string {
	return v.framework.Name
}

// Rules returns the ordered rule table.
func (v *Validator) Rules() []driven.RuleInfo {
	out := make([]driven.RuleInfo, len(v.framework.Rules))
	for i, r := range v.framework.Rules {
		out[i] = driven.RuleInfo{ID: string(r.ID), Title: r.Title, Check: r.Check}
	}
	return out
}

// Validate emits one finding per rule per target, targets in input order
// and rules in table order. Rules that cannot be evaluated yield a
// not_applicable finding carrying the reason.
func (v *Validator) Validate(targets []domain.ComplianceTarget) []domain.ComplianceFinding {
	findings := make([]domain.ComplianceFinding, 0, len(targets)*len(v.framework.Rules))
	for _, target := range targets {
		for _, rule := range v.framework.Rules {
			findings = append(findings, v.evaluate(rule, target))
		}
	}
	return findings
}

func (v *Validator) evaluate(rule Rule, target domain.ComplianceTarget) domain.ComplianceFinding {
	finding := domain.ComplianceFinding{
		Framework: v.framework.Name,
		RuleID:    string(rule.ID),
		TargetID:  target.Requirement.ID,
	}

	out := rule.Evaluate(target)
	if out.Err != nil {
		ruleErr := &domain.ValidationRuleError{
			RuleID:   string(rule.ID),
			TargetID: target.Requirement.ID,
			Reason:   out.Err.Error(),
		}
		logger.Warn("%v", ruleErr)
		finding.Status = domain.FindingNotApplicable
		finding.Reason = ruleErr.Error()
		return finding
	}

	finding.Status = out.Status
	if !finding.Status.IsValid() {
		finding.Status = domain.FindingNotApplicable
	}
	finding.Evidence = out.Evidence
	finding.Reason = out.Reason
	return finding
}

// TestPlan renders one Gherkin scenario per rule.
func (v *Validator) TestPlan() string {
	return GenerateTestPlan(v.framework)
}
