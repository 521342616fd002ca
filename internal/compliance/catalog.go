package compliance

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure Catalog implements the interface.
var _ driven.FrameworkCatalog = (*Catalog)(nil)

// Catalog holds the frameworks available to the validator.
type Catalog struct {
	frameworks map[string]Framework
	// ruleOwners maps rule ids to their framework, for duplicate detection.
	ruleOwners map[RuleID]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		frameworks: make(map[string]Framework),
		ruleOwners: make(map[RuleID]string),
	}
}

// DefaultCatalog returns a catalog with the built-in frameworks.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, fw := range []Framework{Privacy(), Audit(), ERecords()} {
		// Built-in tables have unique ids.
		_ = c.Register(fw)
	}
	return c
}

// Register adds a framework. Registering an existing name appends its
// rules to that framework. Rule ids must be unique across the catalog.
func (c *Catalog) Register(fw Framework) error {
	if fw.Name == "" {
		return fmt.Errorf("framework has no name: %w", domain.ErrInvalidInput)
	}

	seen := make(map[RuleID]bool)
	for _, r := range fw.Rules {
		if r.ID == "" {
			return fmt.Errorf("framework %s: rule without id: %w", fw.Name, domain.ErrInvalidInput)
		}
		if r.Evaluate == nil {
			return fmt.Errorf("framework %s: rule %s has no predicate: %w", fw.Name, r.ID, domain.ErrInvalidInput)
		}
		if owner, dup := c.ruleOwners[r.ID]; dup || seen[r.ID] {
			if owner == "" {
				owner = fw.Name
			}
			return fmt.Errorf("duplicate rule id %s (already in %s)", r.ID, owner)
		}
		seen[r.ID] = true
	}

	existing, ok := c.frameworks[fw.Name]
	if ok {
		existing.Rules = append(append([]Rule{}, existing.Rules...), fw.Rules...)
		if existing.Description == "" {
			existing.Description = fw.Description
		}
	} else {
		existing = Framework{Name: fw.Name, Description: fw.Description, Rules: append([]Rule{}, fw.Rules...)}
	}
	c.frameworks[fw.Name] = existing
	for _, r := range fw.Rules {
		c.ruleOwners[r.ID] = fw.Name
	}
	return nil
}

// Frameworks returns the registered framework names in sorted order.
func (c *Catalog) Frameworks() []string {
	names := make([]string, 0, len(c.frameworks))
	for name := range c.frameworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Framework returns a registered framework.
func (c *Catalog) Framework(name string) (Framework, bool) {
	fw, ok := c.frameworks[name]
	return fw, ok
}

// Validator returns the validator for a framework.
func (c *Catalog) Validator(name string) (driven.Validator, error) {
	fw, ok := c.frameworks[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrUnknownFramework)
	}
	return NewValidator(fw), nil
}
