package compliance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// RulePack is a file of additional rules. Its rules extend the named
// framework, or declare it when it does not exist yet.
//
// Rule expressions are CEL over these variables:
//
//	requirement  map: id, source, description, category, priority,
//	             feature, criteria (list), rationale, status
//	stories      list of maps: id, role, action, benefit, criteria
//	cases        list of maps: id, story_id, criterion, status
//	passed       number of passed cases
//	failed       number of failed cases
type RulePack struct {
	Framework   string     `toml:"framework" yaml:"framework"`
	Description string     `toml:"description" yaml:"description"`
	Rules       []RuleSpec `toml:"rules" yaml:"rules"`
}

// RuleSpec declares one rule of a pack.
type RuleSpec struct {
	ID    string `toml:"id" yaml:"id"`
	Title string `toml:"title" yaml:"title"`
	Check string `toml:"check" yaml:"check"`
	// Applies gates the rule; an empty expression always applies.
	Applies string `toml:"applies" yaml:"applies"`
	// Expr must evaluate to true for the rule to pass.
	Expr  string `toml:"expr" yaml:"expr"`
	Given string `toml:"given" yaml:"given"`
	When  string `toml:"when" yaml:"when"`
	Then  string `toml:"then" yaml:"then"`
}

// LoadRulePack reads a .toml, .yaml or .yml rule pack.
func LoadRulePack(path string) (*RulePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule pack: %w", err)
	}
	pack, err := ParseRulePack(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("rule pack %s: %w", path, err)
	}
	return pack, nil
}

// ParseRulePack decodes a rule pack. ext selects the syntax.
func ParseRulePack(data []byte, ext string) (*RulePack, error) {
	var pack RulePack
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("rule pack extension %q: %w", ext, domain.ErrUnsupportedFormat)
	}
	if strings.TrimSpace(pack.Framework) == "" {
		return nil, fmt.Errorf("rule pack has no framework: %w", domain.ErrInvalidInput)
	}
	return &pack, nil
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("requirement", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("stories", cel.ListType(cel.DynType)),
		cel.Variable("cases", cel.ListType(cel.DynType)),
		cel.Variable("passed", cel.IntType),
		cel.Variable("failed", cel.IntType),
	)
}

// Compile type-checks every expression and returns the pack as a framework.
func (p *RulePack) Compile() (Framework, error) {
	env, err := newRuleEnv()
	if err != nil {
		return Framework{}, fmt.Errorf("creating cel environment: %w", err)
	}

	fw := Framework{Name: strings.TrimSpace(p.Framework), Description: p.Description}
	for i, spec := range p.Rules {
		if strings.TrimSpace(spec.ID) == "" {
			return Framework{}, fmt.Errorf("rule %d has no id: %w", i+1, domain.ErrInvalidInput)
		}
		if strings.TrimSpace(spec.Expr) == "" {
			return Framework{}, fmt.Errorf("rule %s has no expr: %w", spec.ID, domain.ErrInvalidInput)
		}

		expr, err := compileBool(env, spec.Expr)
		if err != nil {
			return Framework{}, fmt.Errorf("rule %s expr: %w", spec.ID, err)
		}
		var applies cel.Program
		if strings.TrimSpace(spec.Applies) != "" {
			applies, err = compileBool(env, spec.Applies)
			if err != nil {
				return Framework{}, fmt.Errorf("rule %s applies: %w", spec.ID, err)
			}
		}

		fw.Rules = append(fw.Rules, Rule{
			ID:       RuleID(spec.ID),
			Title:    spec.Title,
			Check:    spec.Check,
			Scenario: Scenario{Given: spec.Given, When: spec.When, Then: spec.Then},
			Evaluate: celPredicate(applies, expr, spec.Expr),
		})
	}
	return fw, nil
}

func compileBool(env *cel.Env, src string) (cel.Program, error) {
	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	switch t := ast.OutputType().String(); t {
	case "bool", "dyn":
	default:
		return nil, fmt.Errorf("expression must be bool, got %s", t)
	}
	return env.Program(ast)
}

func celPredicate(applies, expr cel.Program, src string) Predicate {
	return func(t domain.ComplianceTarget) Outcome {
		vars := activation(t)
		if applies != nil {
			ok, err := evalBool(applies, vars)
			if err != nil {
				return Unevaluable(err)
			}
			if !ok {
				return NotApplicable("applies condition is false")
			}
		}

		ok, err := evalBool(expr, vars)
		if err != nil {
			return Unevaluable(err)
		}
		if ok {
			return Pass("holds: " + src)
		}
		return Fail("does not hold: " + src)
	}
}

func evalBool(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, not bool", out.Value())
	}
	return b, nil
}

// activation exposes a target to CEL as plain maps and lists.
func activation(t domain.ComplianceTarget) map[string]any {
	req := t.Requirement
	criteria := append([]string{}, req.AcceptanceCriteria...)

	stories := make([]any, len(t.Stories))
	for i, s := range t.Stories {
		stories[i] = map[string]any{
			"id":       s.ID,
			"role":     s.Role,
			"action":   s.Action,
			"benefit":  s.Benefit,
			"criteria": append([]string{}, s.AcceptanceCriteria...),
		}
	}

	var passed, failed int64
	cases := make([]any, len(t.Cases))
	for i, c := range t.Cases {
		cases[i] = map[string]any{
			"id":        c.ID,
			"story_id":  c.StoryID,
			"criterion": c.Criterion,
			"status":    string(c.Status),
		}
		switch c.Status {
		case domain.UATStatusPassed:
			passed++
		case domain.UATStatusFailed:
			failed++
		}
	}

	return map[string]any{
		"requirement": map[string]any{
			"id":          req.ID,
			"source":      req.SourceRef,
			"description": req.Description,
			"category":    req.Category,
			"priority":    string(req.Priority),
			"feature":     req.FeatureTag,
			"criteria":    criteria,
			"rationale":   req.Rationale,
			"status":      string(req.Status),
		},
		"stories": stories,
		"cases":   cases,
		"passed":  passed,
		"failed":  failed,
	}
}

// LoadRulePacks compiles each pack and registers it. The first failing
// pack aborts loading.
func (c *Catalog) LoadRulePacks(paths []string) error {
	for _, path := range paths {
		pack, err := LoadRulePack(path)
		if err != nil {
			return err
		}
		fw, err := pack.Compile()
		if err != nil {
			return fmt.Errorf("rule pack %s: %w", path, err)
		}
		if err := c.Register(fw); err != nil {
			return fmt.Errorf("rule pack %s: %w", path, err)
		}
	}
	return nil
}
