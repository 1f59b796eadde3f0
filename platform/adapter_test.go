package platform

import (
	"testing"
	"time"

	"github.com/cityzenmag/socialhub/model"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"plain text", "New issue out now", false},
		{"empty", "", true},
		{"whitespace only", "   \n\t ", true},
		{"leading whitespace kept", "  hello", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateContent(model.PlatformTwitter, model.PostContent{Text: tc.text})
			if tc.wantErr {
				if !IsKind(err, KindValidation) {
					t.Errorf("want validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFormatContent(t *testing.T) {
	tests := []struct {
		name    string
		content model.PostContent
		want    string
	}{
		{
			name:    "appends hashtags and mentions",
			content: model.PostContent{Text: "Sortie du mag", Hashtags: []string{"SaintNazaire"}, Mentions: []string{"cityzenmag"}},
			want:    "Sortie du mag #SaintNazaire @cityzenmag",
		},
		{
			name:    "strips duplicate markers",
			content: model.PostContent{Text: "hello", Hashtags: []string{"#tag"}, Mentions: []string{"@user"}},
			want:    "hello #tag @user",
		},
		{
			name:    "skips tokens already present",
			content: model.PostContent{Text: "already #tag here", Hashtags: []string{"tag", "other"}},
			want:    "already #tag here #other",
		},
		{
			name:    "no extras",
			content: model.PostContent{Text: "bare"},
			want:    "bare",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatContent(tc.content); got != tc.want {
				t.Errorf("FormatContent() = %q, want %q", got, tc.want)
			}
		})
	}
}

func postWithMetrics(id string, likes, shares, comments, views int, tags ...string) model.UnifiedPost {
	return model.UnifiedPost{
		ID:        id,
		Platform:  model.PlatformTwitter,
		CreatedAt: time.Now(),
		Metrics:   model.Metrics{Likes: likes, Shares: shares, Comments: comments, Views: views},
		Hashtags:  tags,
	}
}

func TestAnalyticsFromPosts(t *testing.T) {
	posts := []model.UnifiedPost{
		postWithMetrics("1", 10, 5, 3, 100, "Sn", "mag"),
		postWithMetrics("2", 2, 0, 1, 50, "Sn"),
		postWithMetrics("3", 0, 0, 0, 0),
	}

	a := AnalyticsFromPosts(model.PlatformTwitter, model.PeriodWeek, posts)

	if a.TotalPosts != 3 {
		t.Errorf("TotalPosts = %d, want 3", a.TotalPosts)
	}
	if a.TotalLikes != 12 || a.TotalShares != 5 || a.TotalComments != 4 {
		t.Errorf("totals = %d/%d/%d, want 12/5/4", a.TotalLikes, a.TotalShares, a.TotalComments)
	}
	if a.TotalViews != 150 || a.Reach != 150 {
		t.Errorf("views/reach = %d/%d, want 150/150", a.TotalViews, a.Reach)
	}

	// (12+5+4)/150*100 = 14.0
	if a.EngagementRate != 14.0 {
		t.Errorf("EngagementRate = %v, want 14.0", a.EngagementRate)
	}

	if len(a.TopHashtags) != 2 {
		t.Fatalf("TopHashtags len = %d, want 2", len(a.TopHashtags))
	}
	if a.TopHashtags[0].Tag != "Sn" || a.TopHashtags[0].Count != 2 {
		t.Errorf("top hashtag = %+v, want {Sn 2}", a.TopHashtags[0])
	}

	if len(a.TopPosts) != 3 || a.TopPosts[0].ID != "1" {
		t.Errorf("TopPosts should be ranked by engagement, got %+v", a.TopPosts)
	}
}

func TestAnalyticsFromPostsEmptyReach(t *testing.T) {
	posts := []model.UnifiedPost{postWithMetrics("1", 5, 1, 1, 0)}
	a := AnalyticsFromPosts(model.PlatformFacebook, model.PeriodDay, posts)
	if a.EngagementRate != 0 {
		t.Errorf("EngagementRate with zero reach = %v, want 0", a.EngagementRate)
	}
}

func TestTopPostsByEngagement(t *testing.T) {
	posts := []model.UnifiedPost{
		postWithMetrics("low", 1, 0, 0, 0),
		postWithMetrics("high", 10, 10, 10, 0),
		postWithMetrics("mid", 5, 0, 0, 0),
	}

	top := TopPostsByEngagement(posts, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].ID != "high" || top[1].ID != "mid" {
		t.Errorf("order = [%s %s], want [high mid]", top[0].ID, top[1].ID)
	}

	// Input order preserved.
	if posts[0].ID != "low" {
		t.Error("TopPostsByEngagement must not mutate its input")
	}
}

func TestRankHashtagsCaseSensitive(t *testing.T) {
	counts := map[string]int{"Sn": 2, "sn": 1, "mag": 3}

	ranked := RankHashtags(counts, 10)
	if len(ranked) != 3 {
		t.Fatalf("len = %d, want 3 (no case folding)", len(ranked))
	}
	if ranked[0].Tag != "mag" || ranked[0].Count != 3 {
		t.Errorf("first = %+v, want {mag 3}", ranked[0])
	}
	if ranked[1].Tag != "Sn" || ranked[2].Tag != "sn" {
		t.Errorf("differently cased tags must stay separate: %+v", ranked)
	}
}

func TestRankHashtagsTieBreak(t *testing.T) {
	counts := map[string]int{"zebra": 2, "alpha": 2, "mid": 2}
	ranked := RankHashtags(counts, 10)

	want := []string{"alpha", "mid", "zebra"}
	for i, tag := range want {
		if ranked[i].Tag != tag {
			t.Fatalf("tie-break order = %+v, want tags sorted ascending", ranked)
		}
	}
}

func TestRankHashtagsCap(t *testing.T) {
	counts := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	ranked := RankHashtags(counts, 2)
	if len(ranked) != 2 || ranked[0].Tag != "d" || ranked[1].Tag != "c" {
		t.Errorf("capped ranking = %+v, want top 2 by count", ranked)
	}
}
