package domain

import "time"

// FindingStatus is the outcome of one rule against one target.
type FindingStatus string

// Finding statuses.
const (
	FindingPass          FindingStatus = "pass"
	FindingFail          FindingStatus = "fail"
	FindingNotApplicable FindingStatus = "not_applicable"
)

// IsValid returns true if the status is recognised.
func (s FindingStatus) IsValid() bool {
	switch s {
	case FindingPass, FindingFail, FindingNotApplicable:
		return true
	default:
		return false
	}
}

// ComplianceFinding is the append-only record of one rule evaluation.
type ComplianceFinding struct {
	// ID is assigned when the finding is recorded.
	ID string

	// RunID groups findings produced by one validator run.
	RunID string

	Framework string
	RuleID    string

	// TargetID is the requirement the rule was evaluated against.
	TargetID string

	Status FindingStatus

	// Evidence quotes what the predicate matched.
	Evidence string

	// Reason explains not_applicable outcomes caused by rule errors.
	Reason string

	EvaluatedAt time.Time
}

// FindingSummary counts findings by status.
type FindingSummary struct {
	Pass          int
	Fail          int
	NotApplicable int
}

// Summarise counts findings by status.
func Summarise(findings []ComplianceFinding) FindingSummary {
	var s FindingSummary
	for _, f := range findings {
		switch f.Status {
		case FindingPass:
			s.Pass++
		case FindingFail:
			s.Fail++
		case FindingNotApplicable:
			s.NotApplicable++
		}
	}
	return s
}

// ComplianceRun records one validator invocation.
type ComplianceRun struct {
	ID        string
	Framework string
	StartedAt time.Time
	RuleCount int
	Targets   int
	Summary   FindingSummary
}
