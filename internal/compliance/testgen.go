package compliance

import (
	"fmt"
	"strings"
)

// GenerateTestPlan renders a framework's rule table as a Gherkin feature
// with one scenario per rule, in table order.
func GenerateTestPlan(fw Framework) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feature: %s compliance\n", fw.Name)
	if fw.Description != "" {
		fmt.Fprintf(&b, "  %s\n", fw.Description)
	}

	for _, r := range fw.Rules {
		sc := scenarioFor(fw.Name, r)
		fmt.Fprintf(&b, "\n  Scenario: %s %s\n", r.ID, r.Title)
		fmt.Fprintf(&b, "    Given %s\n", sc.Given)
		fmt.Fprintf(&b, "    When %s\n", sc.When)
		fmt.Fprintf(&b, "    Then %s\n", sc.Then)
	}
	return b.String()
}

// scenarioFor fills missing scenario steps from the rule table.
func scenarioFor(framework string, r Rule) Scenario {
	sc := r.Scenario
	if sc.Given == "" {
		sc.Given = "an imported requirement"
	}
	if sc.When == "" {
		sc.When = fmt.Sprintf("the %s rules are evaluated", framework)
	}
	if sc.Then == "" {
		then := r.Check
		if then == "" {
			then = r.Title
		}
		sc.Then = "rule " + string(r.ID) + " passes: " + lowerFirst(then)
	}
	return sc
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
