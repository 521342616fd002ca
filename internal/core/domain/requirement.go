package domain

import (
	"regexp"
	"strings"
	"time"
)

// Priority ranks a requirement.
type Priority string

// Recognised priorities.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// priorityAliases maps accepted spellings to a canonical priority.
var priorityAliases = map[string]Priority{
	"low":      PriorityLow,
	"l":        PriorityLow,
	"p3":       PriorityLow,
	"could":    PriorityLow,
	"medium":   PriorityMedium,
	"med":      PriorityMedium,
	"m":        PriorityMedium,
	"normal":   PriorityMedium,
	"p2":       PriorityMedium,
	"should":   PriorityMedium,
	"high":     PriorityHigh,
	"h":        PriorityHigh,
	"p1":       PriorityHigh,
	"must":     PriorityHigh,
	"critical": PriorityCritical,
	"crit":     PriorityCritical,
	"blocker":  PriorityCritical,
	"p0":       PriorityCritical,
}

// ParsePriority normalises a priority cell. The boolean is false for
// unrecognised values.
func ParsePriority(s string) (Priority, bool) {
	p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// IsValid returns true if the priority is recognised.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p Priority) String() string {
	return string(p)
}

// RequirementStatus is the only mutable field of an imported requirement.
type RequirementStatus string

// Requirement statuses.
const (
	RequirementStatusImported    RequirementStatus = "imported"
	RequirementStatusApproved    RequirementStatus = "approved"
	RequirementStatusImplemented RequirementStatus = "implemented"
	RequirementStatusVerified    RequirementStatus = "verified"
	RequirementStatusRejected    RequirementStatus = "rejected"
)

// IsValid returns true if the status is recognised.
func (s RequirementStatus) IsValid() bool {
	switch s {
	case RequirementStatusImported, RequirementStatusApproved, RequirementStatusImplemented,
		RequirementStatusVerified, RequirementStatusRejected:
		return true
	default:
		return false
	}
}

// Requirement is a single imported business or compliance need statement.
// Only Status may change after import.
type Requirement struct {
	// ID is the identifier as written in the source document (e.g. REQ-1).
	ID string

	// SourceRef names the document the requirement was imported from.
	SourceRef string

	// Description is the requirement text.
	Description string

	// Category groups requirements (e.g. security, reporting).
	Category string

	// Priority ranks the requirement.
	Priority Priority

	// FeatureTag groups requirements that share one user story.
	FeatureTag string

	// AcceptanceCriteria are the criteria stated alongside the requirement.
	AcceptanceCriteria []string

	// Rationale explains why the requirement exists. Used as story benefit.
	Rationale string

	// Status tracks the requirement through delivery.
	Status RequirementStatus

	// ImportedAt is when the requirement was first persisted.
	ImportedAt time.Time
}

// SameContent reports whether two requirements carry identical imported
// fields. Status and timestamps are ignored.
func (r Requirement) SameContent(o Requirement) bool {
	if r.ID != o.ID || r.Description != o.Description || r.Category != o.Category ||
		r.Priority != o.Priority || r.FeatureTag != o.FeatureTag || r.Rationale != o.Rationale ||
		len(r.AcceptanceCriteria) != len(o.AcceptanceCriteria) {
		return false
	}
	for i := range r.AcceptanceCriteria {
		if r.AcceptanceCriteria[i] != o.AcceptanceCriteria[i] {
			return false
		}
	}
	return true
}

var requirementIDPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(?:-[A-Z0-9]+)*-\d+$`)

// LeadingRequirementID matches a requirement id at the start of a heading
// or label, e.g. "REQ-12: Export audit log".
var LeadingRequirementID = regexp.MustCompile(`^\s*([A-Z][A-Z0-9]*(?:-[A-Z0-9]+)*-\d+)\b\s*[:.\-–]?\s*`)

// IsRequirementID reports whether id follows the PREFIX-NUMBER convention.
func IsRequirementID(id string) bool {
	return requirementIDPattern.MatchString(id)
}

// CompareIDs orders identifiers naturally: "REQ-2" sorts before "REQ-10".
// Returns -1, 0 or 1.
func CompareIDs(a, b string) int {
	for a != "" && b != "" {
		ai, bi := digitPrefixEnd(a), digitPrefixEnd(b)
		if ai > 0 && bi > 0 {
			if c := compareDigits(a[:ai], b[:bi]); c != 0 {
				return c
			}
			a, b = a[ai:], b[bi:]
			continue
		}
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		a, b = a[1:], b[1:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// compareDigits compares two digit runs numerically without overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func digitPrefixEnd(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

// SplitCriteria splits a criteria cell or line on newlines, or on semicolons
// when the text is a single line, trimming list bullets and dropping blanks.
func SplitCriteria(text string) []string {
	multiline := strings.ContainsAny(text, "\r\n")
	parts := strings.FieldsFunc(text, func(r rune) bool {
		if multiline {
			return r == '\n' || r == '\r'
		}
		return r == ';'
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(p), "-*•"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinCriteria is the inverse of SplitCriteria for criteria without line
// breaks. A lone criterion containing a semicolon gets a trailing newline so
// it is not split on the way back in.
func JoinCriteria(criteria []string) string {
	joined := strings.Join(criteria, "\n")
	if len(criteria) == 1 && strings.Contains(joined, ";") {
		joined += "\n"
	}
	return joined
}
