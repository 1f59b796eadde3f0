package aggregator

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
)

const (
	topPostsLimit    = 10
	topHashtagsLimit = 10
)

// Analytics computes the cross-platform rollup for the period, fanning the
// per-platform analytics out concurrently and merging the results. A
// failing platform is skipped (with an error sync status); the rollup
// covers whatever succeeded.
//
// Hashtag merging is case-sensitive by design: #Sn and #sn stay separate
// entries, matching per-platform tag identity.
func (m *Manager) Analytics(ctx context.Context, period model.Period) (model.AggregatedAnalytics, error) {
	if !period.Valid() {
		return model.AggregatedAnalytics{}, platform.Errorf("", "analytics",
			platform.KindValidation, "unknown period %q", period)
	}

	platforms := m.EnabledPlatforms()
	perPlatform := make(map[model.Platform]model.PlatformAnalytics, len(platforms))

	var resultMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range platforms {
		a, ok := m.adapter(p)
		if !ok {
			continue
		}
		g.Go(func() error {
			analytics, err := a.Analytics(gctx, period)
			if err != nil {
				log.Error().Err(err).Str("platform", string(p)).Msg("Analytics failed")
				m.recordError(ctx, p, err)
				return nil
			}

			resultMu.Lock()
			perPlatform[p] = analytics
			resultMu.Unlock()
			m.recordSuccess(ctx, p, -1)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return mergeAnalytics(period, platforms, perPlatform), nil
}

func mergeAnalytics(period model.Period, order []model.Platform, perPlatform map[model.Platform]model.PlatformAnalytics) model.AggregatedAnalytics {
	out := model.AggregatedAnalytics{Period: period}

	var allTopPosts []model.UnifiedPost
	tagCounts := make(map[string]int)

	for _, p := range order {
		analytics, ok := perPlatform[p]
		if !ok {
			continue
		}
		out.Platforms = append(out.Platforms, p)
		out.TotalPosts += analytics.TotalPosts
		out.TotalLikes += analytics.TotalLikes
		out.TotalShares += analytics.TotalShares
		out.TotalComments += analytics.TotalComments
		out.TotalViews += analytics.TotalViews
		out.Reach += analytics.Reach
		out.Impressions += analytics.Impressions

		allTopPosts = append(allTopPosts, analytics.TopPosts...)
		for _, tag := range analytics.TopHashtags {
			// Exact-string tag identity: counts for the same text merge,
			// differently cased tags do not.
			tagCounts[tag.Tag] += tag.Count
		}
	}

	if out.Reach > 0 {
		engaged := out.TotalLikes + out.TotalShares + out.TotalComments
		out.EngagementRate = float64(engaged) / float64(out.Reach) * 100
	}

	sort.SliceStable(allTopPosts, func(i, j int) bool {
		return allTopPosts[i].Engagement() > allTopPosts[j].Engagement()
	})
	if len(allTopPosts) > topPostsLimit {
		allTopPosts = allTopPosts[:topPostsLimit]
	}
	out.TopPosts = allTopPosts
	out.TopHashtags = platform.RankHashtags(tagCounts, topHashtagsLimit)

	return out
}
