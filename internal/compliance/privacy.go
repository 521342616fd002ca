package compliance

import "github.com/custodia-labs/reqtrace/internal/core/domain"

var personalData = newTermSet(
	"personal data", "personal information", "pii", "email address", "phone number",
	"date of birth", "customer data", "user data", "user profile", "health data",
	"biometric", "national id", "social security",
)

// Privacy returns the data-protection framework.
func Privacy() Framework {
	when := "the privacy rules are evaluated"
	given := "a requirement that processes personal data"
	return Framework{
		Name:        domain.FrameworkPrivacy,
		Description: "Data protection controls for requirements that process personal data",
		Rules: []Rule{
			{
				ID:       "PRIV-01",
				Title:    "Lawful basis documented",
				Check:    "Processing of personal data states its lawful basis",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement names consent or another lawful basis"},
				Evaluate: keywordRule(personalData, newTermSet(
					"consent", "lawful basis", "legitimate interest", "contract", "legal obligation", "opt-in", "opt in")),
			},
			{
				ID:       "PRIV-02",
				Title:    "Data minimisation",
				Check:    "Only the personal data needed for the purpose is collected",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement limits collection to what is necessary"},
				Evaluate: keywordRule(personalData, newTermSet(
					"only the", "minimum", "minimal", "necessary", "minimise", "minimize", "limited to")),
			},
			{
				ID:       "PRIV-03",
				Title:    "Retention period",
				Check:    "Personal data has a defined retention period",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement states how long the data is kept"},
				Evaluate: keywordRule(personalData, newTermSet(
					"retention", "retain", "deleted after", "purged after", "kept for")),
			},
			{
				ID:       "PRIV-04",
				Title:    "Right to erasure",
				Check:    "Data subjects can have their personal data erased",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement provides deletion or anonymisation"},
				Evaluate: keywordRule(personalData, newTermSet(
					"delete", "deletion", "erase", "erasure", "right to be forgotten", "anonymis", "anonymiz")),
			},
			{
				ID:       "PRIV-05",
				Title:    "Encryption",
				Check:    "Personal data is encrypted at rest and in transit",
				Scenario: Scenario{Given: given, When: when, Then: "the requirement mandates encryption"},
				Evaluate: keywordRule(personalData, newTermSet(
					"encrypt", "tls", "aes", "at rest", "in transit")),
			},
		},
	}
}
