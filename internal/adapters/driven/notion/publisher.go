// Package notion publishes workspace pages into a Notion database.
//
// Pages come from the workspace formatter, which already caps each page at
// the 100 block limit of a page create request. Re-publishing archives the
// previous page with the same title and creates a fresh one, so the
// database always holds one current page per title.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/formatters/workspace"
	"github.com/custodia-labs/reqtrace/internal/logger"
	"github.com/custodia-labs/reqtrace/internal/retry"
)

const (
	// Name is the destination name.
	Name = "notion"

	// TitleProperty is the database title column pages are matched on.
	TitleProperty = "Name"

	// RequestsPerSecond is Notion's average request allowance.
	RequestsPerSecond = 3
)

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Publisher) { p.httpClient = c }
}

// WithRetryPolicy replaces the retry policy for transient failures.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Publisher) { p.policy = policy }
}

// WithLimiter replaces the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Publisher) { p.limiter = l }
}

// WithTitle sets the page title prefix.
func WithTitle(title string) Option {
	return func(p *Publisher) { p.title = title }
}

// Publisher writes workspace pages to a Notion database.
type Publisher struct {
	settings   domain.NotionSettings
	title      string
	httpClient *http.Client
	policy     retry.Policy
	limiter    *rate.Limiter
}

// NewPublisher creates a Notion publisher.
func NewPublisher(settings domain.NotionSettings, opts ...Option) *Publisher {
	p := &Publisher{
		settings: settings,
		title:    workspace.DefaultTitle,
		policy:   retry.NewPolicy(retry.DefaultMaxAttempts),
		limiter:  rate.NewLimiter(RequestsPerSecond, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the destination name.
func (p *Publisher) Name() string {
	return Name
}

// Publish creates one database page per workspace page.
func (p *Publisher) Publish(ctx context.Context, bundle *domain.ExportBundle) (*driven.PublishReport, error) {
	if !p.settings.IsConfigured() {
		return nil, fmt.Errorf("notion needs token and database_id: %w", domain.ErrPublisherNotConfigured)
	}
	if bundle == nil {
		return nil, domain.ErrInvalidInput
	}

	var clientOpts []notionapi.ClientOption
	if p.httpClient != nil {
		clientOpts = append(clientOpts, notionapi.WithHTTPClient(p.httpClient))
	}
	client := notionapi.NewClient(notionapi.Token(p.settings.Token), clientOpts...)
	dbID := notionapi.DatabaseID(p.settings.DatabaseID)

	existing, err := p.existingPages(ctx, client, dbID)
	if err != nil {
		return nil, err
	}

	report := &driven.PublishReport{Destination: Name}
	for _, page := range workspace.BuildPages(bundle, p.title) {
		if id, ok := existing[page.Title]; ok {
			if err := p.archive(ctx, client, id); err != nil {
				return report, fmt.Errorf("archiving %q: %w", page.Title, err)
			}
			report.Updated++
		} else {
			report.Created++
		}

		var created *notionapi.Page
		err := p.call(ctx, "notion: create page", func(ctx context.Context) error {
			var err error
			created, err = client.Page.Create(ctx, pageRequest(dbID, page))
			return err
		})
		if err != nil {
			return report, fmt.Errorf("creating %q: %w", page.Title, err)
		}
		report.URLs = append(report.URLs, created.URL)
	}

	logger.Info("notion: %d created, %d replaced", report.Created, report.Updated)
	return report, nil
}

// existingPages maps page titles in the database to page ids.
func (p *Publisher) existingPages(
	ctx context.Context,
	client *notionapi.Client,
	dbID notionapi.DatabaseID,
) (map[string]notionapi.PageID, error) {
	pages := make(map[string]notionapi.PageID)
	req := &notionapi.DatabaseQueryRequest{PageSize: 100}
	for {
		var resp *notionapi.DatabaseQueryResponse
		err := p.call(ctx, "notion: query database", func(ctx context.Context) error {
			var err error
			resp, err = client.Database.Query(ctx, dbID, req)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("querying database: %w", err)
		}

		for _, page := range resp.Results {
			if title := pageTitle(page); title != "" {
				pages[title] = notionapi.PageID(page.ID)
			}
		}
		if !resp.HasMore {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func (p *Publisher) archive(ctx context.Context, client *notionapi.Client, id notionapi.PageID) error {
	return p.call(ctx, "notion: archive page", func(ctx context.Context) error {
		_, err := client.Page.Update(ctx, id, &notionapi.PageUpdateRequest{
			Properties: notionapi.Properties{},
			Archived:   true,
		})
		return err
	})
}

// call rate limits op and retries transient failures.
func (p *Publisher) call(ctx context.Context, name string, op func(context.Context) error) error {
	return p.policy.Do(ctx, name, func(ctx context.Context) error {
		if err := p.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		err := op(ctx)
		if err != nil && !IsTransient(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

// IsTransient reports whether err is worth retrying: rate limiting, server
// errors and transport failures. Other API errors are final.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func pageTitle(page notionapi.Page) string {
	prop, ok := page.Properties[TitleProperty]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok {
		return ""
	}
	var text string
	for _, rt := range title.Title {
		text += rt.PlainText
	}
	return text
}

func pageRequest(dbID notionapi.DatabaseID, page workspace.Page) *notionapi.PageCreateRequest {
	children := make([]notionapi.Block, 0, len(page.Blocks))
	for _, b := range page.Blocks {
		children = append(children, toBlock(b))
	}
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: dbID,
		},
		Properties: notionapi.Properties{
			TitleProperty: notionapi.TitleProperty{
				Title: richText(page.Title),
			},
		},
		Children: children,
	}
}

func toBlock(b workspace.Block) notionapi.Block {
	switch b.Type {
	case workspace.BlockHeading:
		return &notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeHeading2},
			Heading2:   notionapi.Heading{RichText: richText(b.Text)},
		}
	case workspace.BlockToDo:
		return &notionapi.ToDoBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeToDo},
			ToDo:       notionapi.ToDo{RichText: richText(b.Text), Checked: b.Checked},
		}
	case workspace.BlockBulletItem:
		return &notionapi.BulletedListItemBlock{
			BasicBlock:       notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
			BulletedListItem: notionapi.ListItem{RichText: richText(b.Text)},
		}
	default:
		return &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
			Paragraph:  notionapi.Paragraph{RichText: richText(b.Text)},
		}
	}
}

// maxTextLength is Notion's limit for one rich text object.
const maxTextLength = 2000

func richText(s string) []notionapi.RichText {
	var out []notionapi.RichText
	runes := []rune(s)
	for len(runes) > 0 {
		n := min(len(runes), maxTextLength)
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: string(runes[:n])},
		})
		runes = runes[n:]
	}
	return out
}
