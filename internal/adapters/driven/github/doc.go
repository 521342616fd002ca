// Package github publishes requirements as GitHub issues.
//
// Each requirement becomes one issue titled "<ID>: <description>" whose body
// is the requirement's markdown section (story, acceptance criteria, UAT
// cases). Publishing is idempotent: an issue carrying the publisher label
// and the same title is edited in place instead of duplicated.
//
// # Authentication
//
// A personal access token with the 'repo' scope (or 'public_repo' for public
// repositories) is read from the github.token setting.
//
// # Rate Limiting
//
// Requests pass through a token bucket (~1.2 req/sec) and respect the
// X-RateLimit-* response headers, waiting for the reset when fewer than
// MinBuffer requests remain.
package github
