package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

// fakeIssues is a minimal issues API.
type fakeIssues struct {
	mu      sync.Mutex
	issues  map[int]map[string]any
	next    int
	created []string
	edited  []int
	labels  []string
}

func newFakeIssues() *fakeIssues {
	return &fakeIssues{issues: make(map[int]map[string]any), next: 1}
}

func (f *fakeIssues) add(title string) {
	f.issues[f.next] = map[string]any{
		"number":   f.next,
		"title":    title,
		"html_url": "https://github.com/acme/reqs/issues/" + strconv.Itoa(f.next),
	}
	f.next++
}

func (f *fakeIssues) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/reqs/issues", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			f.labels = append(f.labels, r.URL.Query().Get("labels"))
			assert.Equal(t, "all", r.URL.Query().Get("state"))
			list := make([]map[string]any, 0, len(f.issues))
			for i := 1; i < f.next; i++ {
				if issue, ok := f.issues[i]; ok {
					list = append(list, issue)
				}
			}
			// A pull request is listed by the issues API too
			list = append(list, map[string]any{"number": 99, "title": "REQ-1: Users can log in",
				"pull_request": map[string]any{"url": "x"}})
			require.NoError(t, json.NewEncoder(w).Encode(list))
		case http.MethodPost:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			title := body["title"].(string)
			f.created = append(f.created, title)
			f.add(title)
			w.WriteHeader(http.StatusCreated)
			require.NoError(t, json.NewEncoder(w).Encode(f.issues[f.next-1]))
		}
	})
	mux.HandleFunc("/repos/acme/reqs/issues/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		require.Equal(t, http.MethodPatch, r.Method)
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/repos/acme/reqs/issues/"))
		require.NoError(t, err)
		issue, ok := f.issues[n]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["body"], "### ")
		f.edited = append(f.edited, n)
		require.NoError(t, json.NewEncoder(w).Encode(issue))
	})
	return mux
}

func testBundle() *domain.ExportBundle {
	return &domain.ExportBundle{
		Requirements: []domain.Requirement{
			{ID: "REQ-1", Description: "Users can log in", Priority: domain.PriorityHigh},
			{ID: "REQ-2", Description: "Admins can export audit logs", Priority: domain.PriorityMedium},
		},
		Stories: []domain.UserStory{{
			ID: "US-REQ-1", RequirementID: "REQ-1", RequirementIDs: []string{"REQ-1"},
			Role: "user", Action: "log in", Benefit: "I can work", AcceptanceCriteria: []string{"login works"},
		}},
	}
}

func testSettings() domain.GitHubSettings {
	return domain.GitHubSettings{Owner: "acme", Repo: "reqs", Token: "token"}
}

func TestPublisher_CreatesAndUpdates(t *testing.T) {
	fake := newFakeIssues()
	fake.add("REQ-1: Users can log in")
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	p := NewPublisher(testSettings(), WithBaseURL(server.URL), WithRateLimiter(NewRateLimiter(rate.Inf)))
	assert.Equal(t, "github", p.Name())

	report, err := p.Publish(context.Background(), testBundle())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []int{1}, fake.edited)
	assert.Equal(t, []string{"REQ-2: Admins can export audit logs"}, fake.created)
	assert.Equal(t, []string{DefaultLabel}, fake.labels)
	assert.Equal(t, []string{
		"https://github.com/acme/reqs/issues/1",
		"https://github.com/acme/reqs/issues/2",
	}, report.URLs)

	// Publishing again edits both issues
	report, err = p.Publish(context.Background(), testBundle())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Updated)
}

func TestPublisher_NotConfigured(t *testing.T) {
	p := NewPublisher(domain.GitHubSettings{Owner: "acme"})
	_, err := p.Publish(context.Background(), testBundle())
	assert.ErrorIs(t, err, domain.ErrPublisherNotConfigured)
}

func TestPublisher_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	p := NewPublisher(testSettings(), WithBaseURL(server.URL), WithRateLimiter(NewRateLimiter(rate.Inf)))
	_, err := p.Publish(context.Background(), testBundle())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "repository acme/reqs not found")
}

func TestPublisher_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	p := NewPublisher(testSettings(), WithBaseURL(server.URL), WithRateLimiter(NewRateLimiter(rate.Inf)))
	_, err := p.Publish(context.Background(), testBundle())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "settings token github")
}

func TestPublisher_RateLimited(t *testing.T) {
	reset := time.Now().Add(time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRateLimit, "5000")
		w.Header().Set(HeaderRateRemaining, "0")
		w.Header().Set(HeaderRateReset, strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer server.Close()

	p := NewPublisher(testSettings(), WithBaseURL(server.URL), WithRateLimiter(NewRateLimiter(rate.Inf)))
	_, err := p.Publish(context.Background(), testBundle())
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestIssueTitle(t *testing.T) {
	assert.Equal(t, "REQ-1: Users can log in", IssueTitle(domain.Requirement{ID: "REQ-1", Description: "Users  can\nlog in"}))

	long := strings.Repeat("word ", 100)
	title := IssueTitle(domain.Requirement{ID: "REQ-2", Description: long})
	assert.True(t, strings.HasPrefix(title, "REQ-2: word"))
	assert.True(t, strings.HasSuffix(title, "…"))
	assert.LessOrEqual(t, len([]rune(title)), maxTitleRunes+len("REQ-2: ")+1)
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	r := NewRateLimiter(rate.Inf)
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
	resp.Header.Set(HeaderRateLimit, "60")
	resp.Header.Set(HeaderRateRemaining, "12")
	resp.Header.Set(HeaderRateReset, "1700000000")

	r.UpdateFromResponse(resp)
	assert.Equal(t, 60, r.Limit())
	assert.Equal(t, 12, r.Remaining())
	assert.Equal(t, time.Unix(1700000000, 0), r.ResetTime())
	assert.Nil(t, r.errorFor(resp))

	resp.StatusCode = http.StatusTooManyRequests
	resp.Header.Set(HeaderRetryAfter, "30")
	rlErr := r.errorFor(resp)
	require.NotNil(t, rlErr)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), rlErr.ResetAt, 2*time.Second)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	r := NewRateLimiter(rate.Inf)
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
	resp.Header.Set(HeaderRateRemaining, "1")
	resp.Header.Set(HeaderRateReset, strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
	r.UpdateFromResponse(resp)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}
