package compliance

import (
	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// RuleID identifies a rule within the catalog (e.g. PRIV-01).
type RuleID string

// Outcome is the result of evaluating one rule against one target.
// A non-nil Err means the rule could not be evaluated.
type Outcome struct {
	Status   domain.FindingStatus
	Evidence string
	Reason   string
	Err      error
}

// Predicate evaluates a rule against a target. It must not modify the target.
type Predicate func(target domain.ComplianceTarget) Outcome

// Scenario is the literal acceptance test a rule is checked by.
type Scenario struct {
	Given string
	When  string
	Then  string
}

// Rule is one entry of a framework's rule table.
type Rule struct {
	ID       RuleID
	Title    string
	Check    string
	Scenario Scenario
	Evaluate Predicate
}

// Framework is a named, ordered rule table.
type Framework struct {
	Name        string
	Description string
	Rules       []Rule
}

// Pass returns a passing outcome.
func Pass(evidence string) Outcome {
	return Outcome{Status: domain.FindingPass, Evidence: evidence}
}

// Fail returns a failing outcome.
func Fail(evidence string) Outcome {
	return Outcome{Status: domain.FindingFail, Evidence: evidence}
}

// NotApplicable returns an outcome for a rule that does not apply.
func NotApplicable(reason string) Outcome {
	return Outcome{Status: domain.FindingNotApplicable, Reason: reason}
}

// Unevaluable returns an outcome for a rule missing the data it needs.
func Unevaluable(err error) Outcome {
	return Outcome{Status: domain.FindingNotApplicable, Err: err}
}
