package driven

import "github.com/custodia-labs/reqtrace/internal/core/domain"

// RuleInfo describes one rule of a framework.
type RuleInfo struct {
	ID    string
	Title string
	Check string
}

// Validator evaluates one framework's rule table.
type Validator interface {
	// Framework returns the framework name.
	Framework() string

	// Rules returns the ordered rule table.
	Rules() []RuleInfo

	// Validate emits exactly one finding per rule per target, in rule order
	// within target order. It never mutates the targets. Findings carry no
	// ID, RunID or timestamp; the caller assigns those.
	Validate(targets []domain.ComplianceTarget) []domain.ComplianceFinding

	// TestPlan renders one literal test scenario per rule.
	TestPlan() string
}

// FrameworkCatalog holds the rule tables loaded at startup.
type FrameworkCatalog interface {
	// Frameworks returns the registered framework names in sorted order.
	Frameworks() []string

	// Validator returns the validator for a framework or
	// domain.ErrUnknownFramework.
	Validator(name string) (Validator, error)
}
