// Package platform defines the adapter contract shared by all social
// platform integrations, plus the cross-cutting rate limiting and error
// classification policy they embed.
package platform

import (
	"context"
	"sort"
	"strings"

	"github.com/cityzenmag/socialhub/model"
)

// Adapter is the common capability set implemented by every platform
// integration. Implementations authenticate lazily, check their rate
// limiter before every outbound call and classify all failures through
// the Error taxonomy.
//
// Failure policy is asymmetric by design: FetchPosts and Analytics
// degrade (classified error absorbed by the manager), while FetchProfile,
// PublishPost and the Authenticate probe propagate, since callers need a
// definitive answer for those.
type Adapter interface {
	// Platform returns the platform this adapter integrates.
	Platform() model.Platform

	// Authenticate probes the platform with the configured credentials.
	// It returns (false, nil) on invalid credentials and a non-nil error
	// only for transport-level failures. Idempotent and retriable.
	Authenticate(ctx context.Context) (bool, error)

	// FetchPosts retrieves posts subject to opts. Errors are classified;
	// the aggregation manager converts them into empty results plus an
	// error sync status.
	FetchPosts(ctx context.Context, opts model.FetchOptions) ([]model.UnifiedPost, error)

	// FetchProfile retrieves an account profile. An empty id selects the
	// configured account. Not-found and auth failures are returned.
	FetchProfile(ctx context.Context, id string) (model.UnifiedProfile, error)

	// PublishPost validates, publishes and re-fetches the created post
	// (creation responses are partial; the hydrated post is returned).
	PublishPost(ctx context.Context, content model.PostContent) (model.UnifiedPost, error)

	// DeletePost removes a post, reporting success as a bool. Transport
	// failures degrade to (false, nil); rate-limit and not-implemented
	// failures are returned.
	DeletePost(ctx context.Context, id string) (bool, error)

	// Analytics computes the per-platform rollup for the period. It must
	// not fail while FetchPosts succeeds: adapters fall back to
	// recomputing coarse metrics from fetched posts when the native
	// analytics endpoint is unavailable.
	Analytics(ctx context.Context, period model.Period) (model.PlatformAnalytics, error)
}

// ValidateContent enforces the publish precondition shared by every
// adapter: non-empty text after trimming. Runs before any network call.
func ValidateContent(p model.Platform, content model.PostContent) error {
	if strings.TrimSpace(content.Text) == "" {
		return Errorf(p, "publish", KindValidation, "post text must not be empty")
	}
	return nil
}

// FormatContent merges hashtags and mentions into the post text as plain
// trailing tokens, skipping tokens already present.
func FormatContent(content model.PostContent) string {
	text := content.Text
	for _, tag := range content.Hashtags {
		token := "#" + strings.TrimPrefix(tag, "#")
		if !strings.Contains(text, token) {
			text += " " + token
		}
	}
	for _, m := range content.Mentions {
		token := "@" + strings.TrimPrefix(m, "@")
		if !strings.Contains(text, token) {
			text += " " + token
		}
	}
	return text
}

// AnalyticsFromPosts is the shared degraded-analytics path: coarse metric
// sums recomputed from a best-effort post fetch over the period. Reach is
// approximated by the view sum; the engagement rate divides by reach only
// when it is positive.
func AnalyticsFromPosts(p model.Platform, period model.Period, posts []model.UnifiedPost) model.PlatformAnalytics {
	a := model.PlatformAnalytics{Platform: p, Period: period, TotalPosts: len(posts)}

	tagCounts := make(map[string]int)
	for _, post := range posts {
		a.TotalLikes += post.Metrics.Likes
		a.TotalShares += post.Metrics.Shares
		a.TotalComments += post.Metrics.Comments
		a.TotalViews += post.Metrics.Views
		for _, tag := range post.Hashtags {
			tagCounts[tag]++
		}
	}

	a.Reach = a.TotalViews
	a.Impressions = a.TotalViews
	if a.Reach > 0 {
		a.EngagementRate = float64(a.TotalLikes+a.TotalShares+a.TotalComments) / float64(a.Reach) * 100
	}

	a.TopPosts = TopPostsByEngagement(posts, 5)
	a.TopHashtags = RankHashtags(tagCounts, 10)
	return a
}

// TopPostsByEngagement returns up to n posts ranked by engagement score,
// highest first. The input slice is not modified.
func TopPostsByEngagement(posts []model.UnifiedPost, n int) []model.UnifiedPost {
	ranked := make([]model.UnifiedPost, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Engagement() > ranked[j].Engagement()
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RankHashtags turns a tag count map into a descending ranking of at most
// n entries. Tag text is matched exactly; no case folding.
func RankHashtags(counts map[string]int, n int) []model.HashtagCount {
	ranked := make([]model.HashtagCount, 0, len(counts))
	for tag, count := range counts {
		ranked = append(ranked, model.HashtagCount{Tag: tag, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
