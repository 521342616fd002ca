package compliance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

var errNoCases = errors.New("no UAT cases to evaluate")

// Audit returns the audit-control framework. Its rules check the record
// chain itself rather than the requirement wording, so every rule applies
// to every requirement.
func Audit() Framework {
	when := "the audit rules are evaluated"
	given := "an imported requirement"
	return Framework{
		Name:        domain.FrameworkAudit,
		Description: "Audit controls over requirement identification, traceability and verification",
		Rules: []Rule{
			{
				ID:       "AUD-01",
				Title:    "Identifier format",
				Check:    "The requirement id follows the PREFIX-NUMBER convention",
				Scenario: Scenario{Given: given, When: when, Then: "its id matches PREFIX-NUMBER"},
				Evaluate: checkIDFormat,
			},
			{
				ID:       "AUD-02",
				Title:    "Priority assigned",
				Check:    "The requirement has a recognised priority",
				Scenario: Scenario{Given: given, When: when, Then: "its priority is low, medium, high or critical"},
				Evaluate: checkPriority,
			},
			{
				ID:       "AUD-03",
				Title:    "Source recorded",
				Check:    "The requirement records the document it came from",
				Scenario: Scenario{Given: given, When: when, Then: "its source document is recorded"},
				Evaluate: checkSource,
			},
			{
				ID:       "AUD-04",
				Title:    "Traced to story",
				Check:    "At least one user story traces to the requirement",
				Scenario: Scenario{Given: given, When: when, Then: "at least one user story links to it"},
				Evaluate: checkTracedToStory,
			},
			{
				ID:       "AUD-05",
				Title:    "Test coverage",
				Check:    "Every linked story has at least one UAT case",
				Scenario: Scenario{Given: "a requirement with linked stories", When: when, Then: "every story has a UAT case"},
				Evaluate: checkTestCoverage,
			},
			{
				ID:       "AUD-06",
				Title:    "Verification passed",
				Check:    "Every UAT case tracing to the requirement has passed",
				Scenario: Scenario{Given: "a requirement with UAT cases", When: when, Then: "every case has passed"},
				Evaluate: checkVerified,
			},
		},
	}
}

func checkIDFormat(t domain.ComplianceTarget) Outcome {
	if domain.IsRequirementID(t.Requirement.ID) {
		return Pass(fmt.Sprintf("id %q matches PREFIX-NUMBER", t.Requirement.ID))
	}
	return Fail(fmt.Sprintf("id %q does not match PREFIX-NUMBER", t.Requirement.ID))
}

func checkPriority(t domain.ComplianceTarget) Outcome {
	if t.Requirement.Priority.IsValid() {
		return Pass("priority " + t.Requirement.Priority.String())
	}
	return Fail(fmt.Sprintf("priority %q is not recognised", t.Requirement.Priority))
}

func checkSource(t domain.ComplianceTarget) Outcome {
	if strings.TrimSpace(t.Requirement.SourceRef) == "" {
		return Fail("no source document recorded")
	}
	return Pass("imported from " + t.Requirement.SourceRef)
}

func checkTracedToStory(t domain.ComplianceTarget) Outcome {
	if len(t.Stories) == 0 {
		return Fail("no user story links to the requirement")
	}
	ids := make([]string, len(t.Stories))
	for i, s := range t.Stories {
		ids[i] = s.ID
	}
	return Pass("traced to " + strings.Join(ids, ", "))
}

func checkTestCoverage(t domain.ComplianceTarget) Outcome {
	if len(t.Stories) == 0 {
		return Fail("no user story to cover")
	}
	counts := make(map[string]int)
	for _, c := range t.Cases {
		counts[c.StoryID]++
	}
	var uncovered []string
	for _, s := range t.Stories {
		if counts[s.ID] == 0 {
			uncovered = append(uncovered, s.ID)
		}
	}
	if len(uncovered) > 0 {
		return Fail("stories without UAT cases: " + strings.Join(uncovered, ", "))
	}
	return Pass(fmt.Sprintf("%d UAT cases across %d stories", len(t.Cases), len(t.Stories)))
}

func checkVerified(t domain.ComplianceTarget) Outcome {
	if len(t.Cases) == 0 {
		return Unevaluable(errNoCases)
	}
	var failed, pending []string
	for _, c := range t.Cases {
		switch c.Status {
		case domain.UATStatusFailed:
			failed = append(failed, c.ID)
		case domain.UATStatusPassed:
		default:
			pending = append(pending, c.ID)
		}
	}
	switch {
	case len(failed) > 0:
		return Fail("failed cases: " + strings.Join(failed, ", "))
	case len(pending) > 0:
		return Fail("pending cases: " + strings.Join(pending, ", "))
	default:
		return Pass(fmt.Sprintf("all %d cases passed", len(t.Cases)))
	}
}
