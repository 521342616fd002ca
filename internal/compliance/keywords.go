package compliance

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

var errEmptyDescription = errors.New("requirement has no description to evaluate")

// termSet matches whole-word-prefixed terms in requirement text.
type termSet struct {
	terms    []string
	patterns []*regexp.Regexp
}

func newTermSet(terms ...string) termSet {
	ts := termSet{terms: terms}
	for _, t := range terms {
		ts.patterns = append(ts.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)))
	}
	return ts
}

// matches returns the terms found in text, in declaration order.
func (ts termSet) matches(text string) []string {
	var found []string
	for i, p := range ts.patterns {
		if p.MatchString(text) {
			found = append(found, ts.terms[i])
		}
	}
	return found
}

// requirementText is the searchable text of a target.
func requirementText(t domain.ComplianceTarget) string {
	parts := []string{t.Requirement.Description, t.Requirement.Rationale}
	parts = append(parts, t.Requirement.AcceptanceCriteria...)
	for _, s := range t.Stories {
		parts = append(parts, s.AcceptanceCriteria...)
	}
	return strings.Join(parts, "\n")
}

func quoteAll(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

// keywordRule builds a predicate that is not applicable unless a trigger
// term appears, and passes when at least one evidence term appears.
func keywordRule(triggers, evidence termSet) Predicate {
	return func(t domain.ComplianceTarget) Outcome {
		if strings.TrimSpace(t.Requirement.Description) == "" {
			return Unevaluable(errEmptyDescription)
		}

		text := requirementText(t)
		triggered := triggers.matches(text)
		if len(triggered) == 0 {
			return NotApplicable("no trigger terms found")
		}

		found := evidence.matches(text)
		if len(found) == 0 {
			return Fail(fmt.Sprintf("mentions %s without any of: %s",
				quoteAll(triggered), strings.Join(evidence.terms, ", ")))
		}
		return Pass("found " + quoteAll(found))
	}
}
