package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// storyStore implements driven.StoryStore.
type storyStore struct {
	store *Store
}

var _ driven.StoryStore = (*storyStore)(nil)

const storyColumns = `id, requirement_id, feature_tag, role, action, benefit, acceptance_criteria, created_at`

// Replace makes the stored stories equal to stories.
func (s *storyStore) Replace(ctx context.Context, stories []domain.UserStory) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is no-op

	requirements, err := idSet(ctx, tx, "requirements")
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(stories))
	for _, story := range stories {
		if len(storyLinks(story)) == 0 {
			return fmt.Errorf("story %s links no requirement: %w", story.ID, domain.ErrOrphanReference)
		}
		for _, reqID := range storyLinks(story) {
			if !requirements[reqID] {
				return fmt.Errorf("story %s links requirement %s: %w", story.ID, reqID, domain.ErrOrphanReference)
			}
		}
		keep[story.ID] = true
	}

	existing, err := idSet(ctx, tx, "user_stories")
	if err != nil {
		return err
	}
	for id := range existing {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_stories WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting story %s: %w", id, err)
		}
	}

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO user_stories (`+storyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			requirement_id = excluded.requirement_id,
			feature_tag = excluded.feature_tag,
			role = excluded.role,
			action = excluded.action,
			benefit = excluded.benefit,
			acceptance_criteria = excluded.acceptance_criteria
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer upsert.Close()

	link, err := tx.PrepareContext(ctx, `
		INSERT INTO story_requirements (story_id, requirement_id, position) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer link.Close()

	now := time.Now().UTC()
	for _, story := range stories {
		criteria, err := marshalList(story.AcceptanceCriteria)
		if err != nil {
			return fmt.Errorf("marshalling acceptance criteria: %w", err)
		}
		createdAt := story.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := upsert.ExecContext(ctx, story.ID, story.RequirementID, story.FeatureTag,
			story.Role, story.Action, story.Benefit, criteria, createdAt); err != nil {
			return fmt.Errorf("saving story %s: %w", story.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM story_requirements WHERE story_id = ?", story.ID); err != nil {
			return fmt.Errorf("clearing links of story %s: %w", story.ID, err)
		}
		for i, reqID := range storyLinks(story) {
			if _, err := link.ExecContext(ctx, story.ID, reqID, i); err != nil {
				return fmt.Errorf("linking story %s: %w", story.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a story by ID.
func (s *storyStore) Get(ctx context.Context, id string) (*domain.UserStory, error) {
	stories, err := s.query(ctx, "SELECT "+storyColumns+" FROM user_stories WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, domain.ErrNotFound
	}
	return &stories[0], nil
}

// List returns all stories in natural ID order.
func (s *storyStore) List(ctx context.Context) ([]domain.UserStory, error) {
	return s.query(ctx, "SELECT "+storyColumns+" FROM user_stories")
}

// ListByRequirement returns the stories linking a requirement.
func (s *storyStore) ListByRequirement(ctx context.Context, requirementID string) ([]domain.UserStory, error) {
	return s.query(ctx, "SELECT "+storyColumns+` FROM user_stories
		WHERE id IN (SELECT story_id FROM story_requirements WHERE requirement_id = ?)`, requirementID)
}

// query loads stories and attaches their requirement links.
func (s *storyStore) query(ctx context.Context, query string, args ...any) ([]domain.UserStory, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stories: %w", err)
	}

	stories, err := scanStories(rows)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, nil
	}

	links, err := s.links(ctx)
	if err != nil {
		return nil, err
	}
	for i := range stories {
		stories[i].RequirementIDs = links[stories[i].ID]
		if len(stories[i].RequirementIDs) == 0 {
			stories[i].RequirementIDs = []string{stories[i].RequirementID}
		}
	}

	sort.SliceStable(stories, func(i, j int) bool {
		return domain.CompareIDs(stories[i].ID, stories[j].ID) < 0
	})
	return stories, nil
}

// links returns requirement ids per story in link order.
func (s *storyStore) links(ctx context.Context) (map[string][]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT story_id, requirement_id FROM story_requirements ORDER BY story_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying story links: %w", err)
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var storyID, reqID string
		if err := rows.Scan(&storyID, &reqID); err != nil {
			return nil, fmt.Errorf("scanning story link: %w", err)
		}
		links[storyID] = append(links[storyID], reqID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating story links: %w", err)
	}
	return links, nil
}

func scanStories(rows *sql.Rows) ([]domain.UserStory, error) {
	defer rows.Close()

	var stories []domain.UserStory //nolint:prealloc // size unknown from query
	for rows.Next() {
		var story domain.UserStory
		var criteria string
		var createdAt sql.NullTime
		if err := rows.Scan(&story.ID, &story.RequirementID, &story.FeatureTag, &story.Role,
			&story.Action, &story.Benefit, &criteria, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning story: %w", err)
		}
		list, err := unmarshalList(criteria)
		if err != nil {
			return nil, fmt.Errorf("unmarshaling acceptance criteria: %w", err)
		}
		story.AcceptanceCriteria = list
		if createdAt.Valid {
			story.CreatedAt = createdAt.Time
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stories: %w", err)
	}
	return stories, nil
}

// storyLinks returns every requirement a story links, primary first.
func storyLinks(story domain.UserStory) []string {
	if len(story.RequirementIDs) > 0 {
		return story.RequirementIDs
	}
	if story.RequirementID == "" {
		return nil
	}
	return []string{story.RequirementID}
}
