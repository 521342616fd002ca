package generators

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// StoryGeneratorName identifies the story generator in mapping errors.
const StoryGeneratorName = "user-story"

// StoryOptions configures story generation.
type StoryOptions struct {
	// GroupByFeature emits one story per feature tag. Requirements without
	// a tag still get a story each.
	GroupByFeature bool

	// DefaultRole is used when the description names no actor.
	DefaultRole string
}

var (
	storyPattern = regexp.MustCompile(
		`(?i)^as an? ([^,]+?),?\s+i (?:want|need|would like)\s+(.+?)(?:,?\s+so that\s+(.+?))?\.?$`)
	modalPattern = regexp.MustCompile(
		`(?i)^(?:the |an? )?(.+?)\s+(?:can|must|should|shall|will|may|is able to|are able to|needs to|need to|wants to)\s+(?:be able to\s+)?(.+?)\.?$`)
	slugPattern = regexp.MustCompile(`[^A-Z0-9]+`)
)

// systemSubjects name the product rather than a user role.
var systemSubjects = map[string]bool{
	"system":      true,
	"application": true,
	"app":         true,
	"platform":    true,
	"service":     true,
	"software":    true,
	"solution":    true,
}

// StoryGenerator maps requirements to user stories by template substitution.
type StoryGenerator struct {
	opts StoryOptions
}

// NewStoryGenerator creates a story generator.
func NewStoryGenerator(opts StoryOptions) *StoryGenerator {
	if opts.DefaultRole == "" {
		opts.DefaultRole = "user"
	}
	return &StoryGenerator{opts: opts}
}

// Generate produces stories in requirement order. Requirements that cannot
// be mapped are reported as mapping errors and generation continues.
func (g *StoryGenerator) Generate(reqs []domain.Requirement) ([]domain.UserStory, []*domain.MappingError) {
	var (
		stories []domain.UserStory
		errs    []*domain.MappingError
	)

	if !g.opts.GroupByFeature {
		for i := range reqs {
			story, err := g.fromRequirement(reqs[i])
			if err != nil {
				errs = append(errs, err)
				continue
			}
			stories = append(stories, story)
		}
		return stories, errs
	}

	// Group order follows the first appearance of each tag.
	groups := make(map[string][]domain.UserStory)
	var order []string
	seen := make(map[string]bool)
	for i := range reqs {
		story, err := g.fromRequirement(reqs[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tag := strings.TrimSpace(reqs[i].FeatureTag)
		key := tag
		if tag == "" {
			key = "\x00" + story.ID
		}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
		groups[key] = append(groups[key], story)
	}

	for _, key := range order {
		members := groups[key]
		if strings.HasPrefix(key, "\x00") {
			stories = append(stories, members[0])
			continue
		}
		stories = append(stories, mergeFeature(key, members))
	}
	return stories, errs
}

// fromRequirement maps one requirement to a story.
func (g *StoryGenerator) fromRequirement(req domain.Requirement) (domain.UserStory, *domain.MappingError) {
	id := strings.TrimSpace(req.ID)
	desc := strings.TrimSpace(req.Description)
	if id == "" {
		return domain.UserStory{}, &domain.MappingError{
			Generator: StoryGeneratorName, SourceID: "(unnamed)", Field: "id", Reason: "requirement has no id",
		}
	}
	if desc == "" {
		return domain.UserStory{}, &domain.MappingError{
			Generator: StoryGeneratorName, SourceID: id, Field: "description", Reason: "requirement has no description",
		}
	}

	role, action, benefit := g.parseDescription(desc)
	if action == "" {
		return domain.UserStory{}, &domain.MappingError{
			Generator: StoryGeneratorName, SourceID: id, Field: "description", Reason: "no action could be derived",
		}
	}

	if benefit == "" {
		benefit = deriveBenefit(req)
	}

	criteria := nonEmpty(req.AcceptanceCriteria)
	if len(criteria) == 0 {
		criteria = []string{strings.TrimSuffix(desc, ".")}
	}

	return domain.UserStory{
		ID:                 "US-" + id,
		RequirementID:      id,
		RequirementIDs:     []string{id},
		FeatureTag:         strings.TrimSpace(req.FeatureTag),
		Role:               role,
		Action:             action,
		Benefit:            benefit,
		AcceptanceCriteria: criteria,
	}, nil
}

// parseDescription extracts role, action and (optionally) benefit.
func (g *StoryGenerator) parseDescription(desc string) (role, action, benefit string) {
	if m := storyPattern.FindStringSubmatch(desc); m != nil {
		action = strings.TrimSpace(m[2])
		if strings.HasPrefix(strings.ToLower(action), "to ") {
			action = action[3:]
		}
		return normaliseRole(m[1]), action, strings.TrimSpace(m[3])
	}

	if m := modalPattern.FindStringSubmatch(desc); m != nil {
		subject := strings.TrimSpace(m[1])
		action = strings.TrimSpace(m[2])
		if systemSubjects[strings.ToLower(subject)] {
			return g.opts.DefaultRole, "the " + strings.ToLower(subject) + " to " + action, ""
		}
		if len(strings.Fields(subject)) <= 4 {
			return normaliseRole(subject), action, ""
		}
	}

	return g.opts.DefaultRole, lowerFirst(strings.TrimSuffix(desc, ".")), ""
}

// deriveBenefit builds the benefit clause when the requirement states none.
func deriveBenefit(req domain.Requirement) string {
	if r := strings.TrimSpace(req.Rationale); r != "" {
		return lowerFirst(strings.TrimSuffix(r, "."))
	}
	if c := strings.TrimSpace(req.Category); c != "" {
		return "the " + strings.ToLower(c) + " requirement " + req.ID + " is met"
	}
	return "requirement " + req.ID + " is satisfied"
}

// mergeFeature combines the stories of one feature group.
func mergeFeature(tag string, members []domain.UserStory) domain.UserStory {
	first := members[0]
	merged := domain.UserStory{
		ID:            "US-" + FeatureSlug(tag),
		RequirementID: first.RequirementID,
		FeatureTag:    tag,
		Role:          first.Role,
		Benefit:       "the " + tag + " feature is delivered",
	}
	actions := make([]string, 0, len(members))
	for _, m := range members {
		merged.RequirementIDs = append(merged.RequirementIDs, m.RequirementID)
		actions = append(actions, m.Action)
		merged.AcceptanceCriteria = append(merged.AcceptanceCriteria, m.AcceptanceCriteria...)
	}
	merged.Action = strings.Join(actions, "; ")
	return merged
}

// FeatureSlug turns a feature tag into an id fragment: "Self service" -> "SELF-SERVICE".
func FeatureSlug(tag string) string {
	slug := slugPattern.ReplaceAllString(strings.ToUpper(tag), "-")
	return strings.Trim(slug, "-")
}

// normaliseRole lower-cases the first letter unless the word is an acronym.
func normaliseRole(role string) string {
	role = strings.TrimSpace(role)
	if len(role) > 1 {
		_, size := utf8.DecodeRuneInString(role)
		next, _ := utf8.DecodeRuneInString(role[size:])
		if unicode.IsUpper(next) {
			return role
		}
	}
	return lowerFirst(role)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func nonEmpty(items []string) []string {
	var out []string
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}
