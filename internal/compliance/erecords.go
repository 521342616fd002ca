package compliance

import "github.com/custodia-labs/reqtrace/internal/core/domain"

var electronicRecords = newTermSet(
	"electronic record", "record", "batch", "approval", "approve", "signature", "sign off", "sign-off",
)

// ERecords returns the electronic records and signatures framework.
func ERecords() Framework {
	when := "the electronic records rules are evaluated"
	given := "a requirement that creates or changes electronic records"
	return Framework{
		Name:        domain.FrameworkERecords,
		Description: "Electronic records and electronic signature controls",
		Rules: []Rule{
			{
				ID:       "ERC-01",
				Title:    "Audit trail",
				Check:    "Record changes are captured in a secure audit trail",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement keeps an audit trail of changes"},
				Evaluate: keywordRule(electronicRecords, newTermSet(
					"audit trail", "audit log", "change history", "history of changes", "who changed")),
			},
			{
				ID:    "ERC-02",
				Title: "Electronic signature",
				Check: "Approvals are bound to an electronic signature",
				Scenario: Scenario{
					Given: "a requirement that approves or releases a record",
					When:  when,
					Then:  "the requirement binds the approval to an electronic signature",
				},
				Evaluate: keywordRule(newTermSet("approv", "sign", "release", "authoris", "authoriz"), newTermSet(
					"electronic signature", "e-signature", "esignature", "signed by", "re-authenticat",
					"password confirmation", "two-factor", "2fa")),
			},
			{
				ID:       "ERC-03",
				Title:    "Access control",
				Check:    "Only authorised users can create or change records",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement restricts access by role or permission"},
				Evaluate: keywordRule(electronicRecords, newTermSet(
					"role", "permission", "authoris", "authoriz", "access control", "restricted to", "rbac")),
			},
			{
				ID:       "ERC-04",
				Title:    "Timestamps",
				Check:    "Record entries carry a computer-generated timestamp",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement timestamps every entry"},
				Evaluate: keywordRule(electronicRecords, newTermSet(
					"timestamp", "time-stamp", "date and time", "utc", "time of")),
			},
			{
				ID:       "ERC-05",
				Title:    "Record retention",
				Check:    "Records are retained and retrievable for the required period",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement retains records for a defined period"},
				Evaluate: keywordRule(electronicRecords, newTermSet(
					"retain", "retention", "archive", "archival", "kept for", "preserv")),
			},
		},
	}
}
