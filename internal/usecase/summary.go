package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/caolib/typora-themes-gallery/internal/domain"
)

// logSummary reports what a run produced, including a rough star-count
// distribution over the groups that were enriched successfully.
func (b *Builder) logSummary(groups []*domain.Group) {
	var themes, eligible, enriched, notFound int
	var stars []float64

	for _, g := range groups {
		themes += len(g.Themes)
		if g.StatsEligible() {
			eligible++
		}
		if g.Stats == nil {
			continue
		}
		switch {
		case g.Stats.IsNotFound:
			notFound++
		case !g.Stats.Error:
			enriched++
			stars = append(stars, float64(g.Stats.Stars))
		}
	}

	args := []any{
		"groups", len(groups),
		"themes", themes,
		"statsEligible", eligible,
		"enriched", enriched,
		"notFound", notFound,
	}
	if len(stars) > 0 {
		median, _ := stats.Median(stars)
		p90, _ := stats.Percentile(stars, 90)
		most, _ := stats.Max(stars)
		args = append(args, "starsMedian", median, "starsP90", p90, "starsMax", most)
	}
	b.logger.Info("run summary", args...)
}
