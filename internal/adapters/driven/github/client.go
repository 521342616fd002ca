package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with the issue calls the publisher needs.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClientWithToken creates a GitHub client with a static access token.
// A non-empty baseURL points the client at another API root (GitHub
// Enterprise or a test server).
func NewClientWithToken(ctx context.Context, token, baseURL string, limiter *RateLimiter) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return newClient(tc, baseURL, limiter)
}

func newClient(httpClient *http.Client, baseURL string, limiter *RateLimiter) (*Client, error) {
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		client.BaseURL = u
	}
	if limiter == nil {
		limiter = NewRateLimiter(ProactiveRate)
	}
	return &Client{gh: client, rateLimiter: limiter}, nil
}

// ListIssues lists every issue (open and closed) carrying label.
// Pull requests are skipped.
func (c *Client) ListIssues(ctx context.Context, owner, repo, label string) ([]*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	if label != "" {
		opts.Labels = []string{label}
	}

	var allIssues []*gh.Issue
	for {
		select {
		case <-ctx.Done():
			return allIssues, ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, c.wrapError(err, resp, "list issues")
		}
		c.updateRateLimitFromResponse(resp)

		for _, issue := range issues {
			if !issue.IsPullRequest() {
				allIssues = append(allIssues, issue)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return allIssues, nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, req *gh.IssueRequest) (*gh.Issue, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	issue, resp, err := c.gh.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, c.wrapError(err, resp, "create issue")
	}
	c.updateRateLimitFromResponse(resp)
	return issue, nil
}

// EditIssue replaces the title, body and labels of an existing issue.
func (c *Client) EditIssue(ctx context.Context, owner, repo string, number int, req *gh.IssueRequest) (*gh.Issue, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	issue, resp, err := c.gh.Issues.Edit(ctx, owner, repo, number, req)
	if err != nil {
		return nil, c.wrapError(err, resp, "edit issue")
	}
	c.updateRateLimitFromResponse(resp)
	return issue, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, resp *gh.Response, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}
	if resp != nil {
		if rlErr := c.rateLimiter.errorFor(resp.Response); rlErr != nil {
			return rlErr
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
