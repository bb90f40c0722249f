// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/caolib/typora-themes-gallery/internal/config"
	"github.com/caolib/typora-themes-gallery/internal/domain"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

const graphqlEndpoint = "https://api.github.com/graphql"

// ErrRateLimited marks a request rejected with HTTP 403/429. Callers back
// off instead of treating it like a broken descriptor or a dead repository.
var ErrRateLimited = errors.New("rate limited by GitHub")

// ThemeFile identifies one descriptor file in the source index.
type ThemeFile struct {
	Name        string
	DownloadURL string
}

// RateLimitInfo is a snapshot of the remaining GraphQL quota.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Fetcher defines the behavior of a gateway for fetching theme descriptors
// and repository statistics from GitHub.
type Fetcher interface {
	ListThemeFiles(ctx context.Context) ([]ThemeFile, error)
	FetchThemeFile(ctx context.Context, file ThemeFile) (string, error)
	// BulkRepoStats resolves stats for many repositories in one aliased
	// GraphQL round trip, keyed by "owner/name". Repositories the response
	// carries nothing for are simply absent from the map.
	BulkRepoStats(ctx context.Context, refs []domain.RepoRef) (map[string]*domain.Stats, error)
	// RepoStats is the single-item lookup; the outcome is always a
	// classified Stats value, never an unhandled failure.
	RepoStats(ctx context.Context, ref domain.RepoRef) *domain.Stats
	RateLimit(ctx context.Context) (RateLimitInfo, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	httpClient    *http.Client
	graphqlURL    string
	indexOwner    string
	indexRepo     string
	indexPath     string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token yields an unauthenticated client with the lower request quota.
func NewGitHubGateway(token string, cfg config.Config, logger *slog.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	httpClient := &http.Client{Transport: rateLimitWaiter}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Base:   rateLimitWaiter,
				Source: ts,
			},
		}
	}

	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		httpClient:    httpClient,
		graphqlURL:    graphqlEndpoint,
		indexOwner:    cfg.IndexOwner,
		indexRepo:     cfg.IndexRepo,
		indexPath:     cfg.IndexPath,
		timeout:       cfg.RequestTimeout.Std(),
		logger:        logger,
	}, nil
}

// callCtx derives the per-call deadline; a hung request must not stall its
// batch indefinitely.
func (g *GitHubGateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// ListThemeFiles lists the markdown descriptor files of the source index.
func (g *GitHubGateway) ListThemeFiles(ctx context.Context) ([]ThemeFile, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	_, entries, resp, err := g.restClient.Repositories.GetContents(ctx, g.indexOwner, g.indexRepo, g.indexPath, nil)
	if err != nil {
		if isRateLimitResponse(resp, err) {
			return nil, fmt.Errorf("failed to list %s/%s/%s: %w", g.indexOwner, g.indexRepo, g.indexPath, ErrRateLimited)
		}
		return nil, fmt.Errorf("failed to list %s/%s/%s: %w", g.indexOwner, g.indexRepo, g.indexPath, err)
	}

	files := make([]ThemeFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.GetName()
		if !strings.HasSuffix(name, ".md") || entry.GetDownloadURL() == "" {
			continue
		}
		files = append(files, ThemeFile{Name: name, DownloadURL: entry.GetDownloadURL()})
	}
	g.logger.Debug("listed theme descriptors", "total", len(entries), "markdown", len(files))
	return files, nil
}

// FetchThemeFile retrieves the raw text of one descriptor.
func (g *GitHubGateway) FetchThemeFile(ctx context.Context, file ThemeFile) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.DownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", file.Name, err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("failed to fetch %s: %w", file.Name, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: unexpected status %d", file.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file.Name, err)
	}
	return string(body), nil
}

// BulkRepoStats issues one GraphQL query with a per-repository alias, so a
// whole batch resolves in a single round trip. The response may be partial:
// protocol-level errors are logged as warnings, and repositories without a
// usable alias value are left out of the returned map.
func (g *GitHubGateway) BulkRepoStats(ctx context.Context, refs []domain.RepoRef) (map[string]*domain.Stats, error) {
	if len(refs) == 0 {
		return map[string]*domain.Stats{}, nil
	}
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"query": buildBulkQuery(refs)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode bulk query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build bulk query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bulk query transport failure: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk query response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bulk query returned status %d", resp.StatusCode)
	}

	for _, msg := range gjson.GetBytes(body, "errors.#.message").Array() {
		g.logger.Warn("bulk query item error", "message", msg.String())
	}

	stats := make(map[string]*domain.Stats, len(refs))
	for i, ref := range refs {
		node := gjson.GetBytes(body, fmt.Sprintf("data.repo%d", i))
		// A null alias is how GraphQL reports a renamed, deleted, or
		// private repository; the caller records it as not-found.
		if !node.Exists() || node.Type == gjson.Null {
			continue
		}
		stats[ref.Key()] = statsFromNode(node)
	}
	return stats, nil
}

// buildBulkQuery renders the aliased query document for one batch.
func buildBulkQuery(refs []domain.RepoRef) string {
	var b strings.Builder
	b.WriteString("query {\n")
	for i, ref := range refs {
		fmt.Fprintf(&b, "repo%d: repository(owner: %s, name: %s) { ", i, strconv.Quote(ref.Owner), strconv.Quote(ref.Name))
		b.WriteString("stargazerCount pushedAt updatedAt description licenseInfo { spdxId name } issues(states: OPEN) { totalCount } }\n")
	}
	b.WriteString("}")
	return b.String()
}

func statsFromNode(node gjson.Result) *domain.Stats {
	lastCommit := node.Get("pushedAt").String()
	if lastCommit == "" {
		lastCommit = node.Get("updatedAt").String()
	}
	license := node.Get("licenseInfo.spdxId").String()
	if license == "" {
		license = node.Get("licenseInfo.name").String()
	}
	return &domain.Stats{
		Stars:        int(node.Get("stargazerCount").Int()),
		LastCommitAt: lastCommit,
		License:      license,
		OpenIssues:   int(node.Get("issues.totalCount").Int()),
		Description:  node.Get("description").String(),
	}
}

// RepoStats fetches one repository's stats via the REST API, classifying
// every failure: 403/429 is a rate-limit outcome worth retrying later, 404 a
// terminal not-found, and anything else a generic error.
func (g *GitHubGateway) RepoStats(ctx context.Context, ref domain.RepoRef) *domain.Stats {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	repo, resp, err := g.restClient.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		switch {
		case isRateLimitResponse(resp, err):
			g.logger.Debug("repo lookup rate limited", "repo", ref.Key())
			return domain.RateLimitStats()
		case resp != nil && resp.StatusCode == http.StatusNotFound:
			g.logger.Debug("repo not found", "repo", ref.Key())
			return domain.NotFoundStats()
		default:
			g.logger.Debug("repo lookup failed", "repo", ref.Key(), "error", err)
			return domain.ErrorStats()
		}
	}

	lastCommit := ""
	if !repo.GetPushedAt().IsZero() {
		lastCommit = repo.GetPushedAt().Format(time.RFC3339)
	} else if !repo.GetUpdatedAt().IsZero() {
		lastCommit = repo.GetUpdatedAt().Format(time.RFC3339)
	}
	license := repo.GetLicense().GetSPDXID()
	if license == "" {
		license = repo.GetLicense().GetName()
	}
	return &domain.Stats{
		Stars:        repo.GetStargazersCount(),
		LastCommitAt: lastCommit,
		License:      license,
		OpenIssues:   repo.GetOpenIssuesCount(),
		Description:  repo.GetDescription(),
	}
}

// RateLimit reports the remaining GraphQL quota, used as a preflight check
// before bulk enrichment.
func (g *GitHubGateway) RateLimit(ctx context.Context) (RateLimitInfo, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	var q struct {
		RateLimit struct {
			Limit     githubv4.Int
			Remaining githubv4.Int
			ResetAt   githubv4.DateTime
		}
	}
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return RateLimitInfo{}, fmt.Errorf("failed to query rate limit: %w", err)
	}
	return RateLimitInfo{
		Limit:     int(q.RateLimit.Limit),
		Remaining: int(q.RateLimit.Remaining),
		ResetAt:   q.RateLimit.ResetAt.Time,
	}, nil
}

func isRateLimitResponse(resp *github.Response, err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}
	return resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests)
}
