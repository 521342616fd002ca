package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
	"github.com/custodia-labs/reqtrace/internal/formatters/markdown"
	"github.com/custodia-labs/reqtrace/internal/logger"
)

const (
	// Name is the destination name.
	Name = "github"

	// DefaultLabel marks issues owned by the publisher.
	DefaultLabel = "requirement"

	// maxTitleRunes keeps titles well inside GitHub's 256 character limit.
	maxTitleRunes = 200
)

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

// Option configures a Publisher.
type Option func(*Publisher)

// WithBaseURL points the publisher at another API root.
func WithBaseURL(baseURL string) Option {
	return func(p *Publisher) { p.baseURL = baseURL }
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(p *Publisher) { p.limiter = limiter }
}

// WithStyle sets the markdown style used for issue bodies.
func WithStyle(style markdown.Style) Option {
	return func(p *Publisher) { p.style = style }
}

// Publisher creates or updates one issue per requirement.
type Publisher struct {
	settings domain.GitHubSettings
	baseURL  string
	limiter  *RateLimiter
	style    markdown.Style
}

// NewPublisher creates a GitHub issue publisher.
func NewPublisher(settings domain.GitHubSettings, opts ...Option) *Publisher {
	p := &Publisher{
		settings: settings,
		style:    markdown.DefaultStyle(),
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

// Publish creates or edits one issue per requirement in bundle order.
func (p *Publisher) Publish(ctx context.Context, bundle *domain.ExportBundle) (*driven.PublishReport, error) {
	if !p.settings.IsConfigured() {
		return nil, fmt.Errorf("github needs owner, repo and token: %w", domain.ErrPublisherNotConfigured)
	}
	if bundle == nil {
		return nil, domain.ErrInvalidInput
	}

	client, err := NewClientWithToken(ctx, p.settings.Token, p.baseURL, p.limiter)
	if err != nil {
		return nil, err
	}

	labels := p.labels()
	owner, repo := p.settings.Owner, p.settings.Repo

	existing, err := client.ListIssues(ctx, owner, repo, labels[0])
	if err != nil {
		return nil, p.explain(fmt.Errorf("listing existing issues: %w", err))
	}
	byTitle := make(map[string]int, len(existing))
	for _, issue := range existing {
		// Lowest number wins when titles repeat
		if n, ok := byTitle[issue.GetTitle()]; !ok || issue.GetNumber() < n {
			byTitle[issue.GetTitle()] = issue.GetNumber()
		}
	}

	report := &driven.PublishReport{Destination: Name}
	for _, req := range bundle.Requirements {
		title := IssueTitle(req)
		body := markdown.RenderRequirement(bundle, req, p.style)
		request := &gh.IssueRequest{
			Title:  gh.Ptr(title),
			Body:   gh.Ptr(body),
			Labels: &labels,
		}

		var issue *gh.Issue
		if number, ok := byTitle[title]; ok {
			logger.Debug("github: editing issue #%d for %s", number, req.ID)
			issue, err = client.EditIssue(ctx, owner, repo, number, request)
			if err != nil {
				return report, p.explain(fmt.Errorf("updating issue for %s: %w", req.ID, err))
			}
			report.Updated++
		} else {
			logger.Debug("github: creating issue for %s", req.ID)
			issue, err = client.CreateIssue(ctx, owner, repo, request)
			if err != nil {
				return report, p.explain(fmt.Errorf("creating issue for %s: %w", req.ID, err))
			}
			byTitle[title] = issue.GetNumber()
			report.Created++
		}
		report.URLs = append(report.URLs, issue.GetHTMLURL())
	}

	logger.Info("github: %d created, %d updated in %s/%s", report.Created, report.Updated, owner, repo)
	return report, nil
}

// explain adds the likely remedy to errors a user can act on.
func (p *Publisher) explain(err error) error {
	repo := p.settings.Owner + "/" + p.settings.Repo
	switch {
	case IsUnauthorized(err):
		return fmt.Errorf("%w (check the token with `reqtrace settings token github`)", err)
	case IsNotFound(err):
		return fmt.Errorf("%w (repository %s not found or not visible to the token)", err, repo)
	case IsRateLimited(err):
		var rateErr *RateLimitError
		errors.As(err, &rateErr)
		logger.Warn("github: rate limit reached for %s, resets at %s", repo, rateErr.ResetAt.Format(time.RFC3339))
	}
	return err
}

func (p *Publisher) labels() []string {
	var labels []string
	for _, l := range p.settings.Labels {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		labels = []string{DefaultLabel}
	}
	return labels
}

// IssueTitle returns "<ID>: <description>", shortened on a word boundary
// when the description is long.
func IssueTitle(req domain.Requirement) string {
	desc := strings.Join(strings.Fields(req.Description), " ")
	if utf8.RuneCountInString(desc) > maxTitleRunes {
		runes := []rune(desc)[:maxTitleRunes]
		cut := string(runes)
		if i := strings.LastIndex(cut, " "); i > maxTitleRunes/2 {
			cut = cut[:i]
		}
		desc = cut + "…"
	}
	return req.ID + ": " + desc
}
