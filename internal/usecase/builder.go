// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caolib/typora-themes-gallery/internal/batch"
	"github.com/caolib/typora-themes-gallery/internal/config"
	"github.com/caolib/typora-themes-gallery/internal/domain"
	"github.com/caolib/typora-themes-gallery/internal/frontmatter"
	"github.com/caolib/typora-themes-gallery/internal/gateway"
)

// Builder is the use case for building the theme index.
// It orchestrates fetching, parsing, grouping, and enrichment.
type Builder struct {
	fetcher gateway.Fetcher
	cfg     config.Config
	logger  *slog.Logger
}

// NewBuilder creates a new Builder instance.
func NewBuilder(fetcher gateway.Fetcher, cfg config.Config, logger *slog.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// Build runs the full pipeline and returns the grouped, enriched index.
// Only a failed initial listing is fatal; a single descriptor's or group's
// failure degrades the result instead of aborting the run.
func (b *Builder) Build(ctx context.Context) ([]*domain.Group, error) {
	files, err := b.fetcher.ListThemeFiles(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info("descriptor listing complete", "files", len(files))

	themes := b.fetchThemes(ctx, files)
	groups := GroupThemes(themes)
	b.logger.Info("grouping complete", "themes", len(themes), "groups", len(groups))

	b.Enrich(ctx, groups)
	b.logSummary(groups)
	return groups, nil
}

// fetchThemes downloads and parses every descriptor, a bounded batch at a
// time. Results stay in listing order so discovery order survives the
// concurrency. Individual failures are logged and skipped.
func (b *Builder) fetchThemes(ctx context.Context, files []gateway.ThemeFile) []*domain.Theme {
	results, err := batch.Run(ctx, files, b.cfg.RefreshBatchSize, 0, func(ctx context.Context, f gateway.ThemeFile) (string, error) {
		return b.fetcher.FetchThemeFile(ctx, f)
	})
	if err != nil {
		b.logger.Warn("descriptor fetching interrupted", "error", err)
	}

	themes := make([]*domain.Theme, 0, len(files))
	for i, res := range results {
		if res.Err != nil {
			b.logger.Warn("skipping descriptor", "file", files[i].Name, "error", res.Err)
			continue
		}
		themes = append(themes, b.parseTheme(files[i], res.Value))
	}
	return themes
}

// parseTheme builds one Theme from a descriptor's raw text.
func (b *Builder) parseTheme(file gateway.ThemeFile, text string) *domain.Theme {
	fields := frontmatter.Parse(text)

	title := fields["title"]
	if title == "" {
		title = domain.TitleFromFileName(file.Name)
	}

	t := &domain.Theme{
		ID:          strings.TrimSuffix(file.Name, ".md"),
		FileName:    file.Name,
		Title:       title,
		Author:      fields["author"],
		Homepage:    fields["homepage"],
		Download:    fields["download"],
		Thumbnail:   b.normalizeThumbnail(fields["thumbnail"]),
		Description: fields["description"],
		Category:    fields["category"],
	}

	ref, ok := domain.ResolveRepoURL(t.Homepage)
	if !ok {
		ref, ok = domain.ResolveRepoURL(t.Download)
	}
	if ok {
		t.RepoOwner = ref.Owner
		t.RepoName = ref.Name
	}
	return t
}

// normalizeThumbnail rewrites relative thumbnail references onto the media
// base URL, stripping the reference's leading slash so the join never
// doubles a separator.
func (b *Builder) normalizeThumbnail(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	return b.cfg.MediaBaseURL + strings.TrimPrefix(ref, "/")
}

// GroupThemes clusters themes into repository-level groups with a three-tier
// identity fallback: resolved repository, then declared author, then a
// standalone group per theme. It is a pure function of its input: the same
// theme sequence always produces the same groups in the same order.
func GroupThemes(themes []*domain.Theme) []*domain.Group {
	byKey := map[string]*domain.Group{}
	var groups []*domain.Group

	for _, t := range themes {
		key, owner, name := groupIdentity(t)
		g, ok := byKey[key]
		if !ok {
			g = &domain.Group{ID: key, RepoOwner: owner, RepoName: name}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Themes = append(g.Themes, t)
	}
	return groups
}

// groupIdentity picks the group key for one theme. Only the first tier
// yields an identity a bulk stats query can use; the others keep unlinked
// themes discoverable without fabricating a repository.
func groupIdentity(t *domain.Theme) (key, owner, name string) {
	if t.RepoOwner != "" && t.RepoName != "" {
		return t.RepoOwner + "/" + t.RepoName, t.RepoOwner, t.RepoName
	}
	if t.Author != "" {
		name = t.RepoName
		if name == "" {
			name = domain.DefaultRepoName
		}
		return "author/" + t.Author, t.Author, name
	}
	return "standalone/" + t.ID, domain.OwnerUnknown, t.Title
}

// Enrich attaches a Stats snapshot to every stats-eligible group, one bulk
// query per batch, batches strictly sequential. A group absent from its
// batch's response gets a not-found snapshot; a failed batch leaves its
// groups without stats and the run moves on.
func (b *Builder) Enrich(ctx context.Context, groups []*domain.Group) {
	var eligible []*domain.Group
	for _, g := range groups {
		if g.StatsEligible() {
			eligible = append(eligible, g)
		}
	}
	if len(eligible) == 0 {
		return
	}

	batches := batch.Chunk(eligible, b.cfg.BulkBatchSize)
	if info, err := b.fetcher.RateLimit(ctx); err != nil {
		b.logger.Warn("rate limit preflight failed", "error", err)
	} else {
		b.logger.Info("rate limit preflight", "remaining", info.Remaining, "limit", info.Limit, "resetAt", info.ResetAt, "batches", len(batches))
		if info.Remaining < len(batches) {
			b.logger.Warn("remaining quota below planned batch count", "remaining", info.Remaining, "batches", len(batches))
		}
	}

	for i, chunk := range batches {
		refs := make([]domain.RepoRef, len(chunk))
		for j, g := range chunk {
			refs[j] = domain.RepoRef{Owner: g.RepoOwner, Name: g.RepoName}
		}

		stats, err := b.fetcher.BulkRepoStats(ctx, refs)
		if err != nil {
			b.logger.Warn("bulk stats batch failed, groups left without stats", "batch", i+1, "size", len(chunk), "error", err)
			continue
		}
		for _, g := range chunk {
			if s, ok := stats[g.ID]; ok {
				g.Stats = s
			} else {
				g.Stats = domain.NotFoundStats()
			}
		}
	}
}

// RefreshStats is the interactive single-item path: classified lookups in
// small concurrent batches with an inter-batch delay, retrying only
// rate-limited outcomes per the configured policy. Results are positional.
func (b *Builder) RefreshStats(ctx context.Context, refs []domain.RepoRef) []*domain.Stats {
	policy := batch.Policy[*domain.Stats]{
		MaxAttempts: b.cfg.RefreshMaxAttempts,
		Backoff:     b.cfg.RefreshBatchDelay.Std(),
		Retryable: func(s *domain.Stats, err error) bool {
			return err == nil && s != nil && s.IsRateLimit
		},
	}

	results, err := batch.Run(ctx, refs, b.cfg.RefreshBatchSize, b.cfg.RefreshBatchDelay.Std(), func(ctx context.Context, ref domain.RepoRef) (*domain.Stats, error) {
		return policy.Do(ctx, func(ctx context.Context) (*domain.Stats, error) {
			return b.fetcher.RepoStats(ctx, ref), nil
		})
	})
	if err != nil {
		b.logger.Warn("stats refresh interrupted", "error", err)
	}

	out := make([]*domain.Stats, len(refs))
	for i, res := range results {
		out[i] = res.Value
	}
	return out
}
