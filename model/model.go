// Package model defines the unified data model shared by all platform
// adapters and the aggregation manager.
package model

import "time"

// Platform identifies one of the supported social platforms.
type Platform string

const (
	// PlatformTwitter represents Twitter/X
	PlatformTwitter Platform = "twitter"

	// PlatformYouTube represents YouTube
	PlatformYouTube Platform = "youtube"

	// PlatformFacebook represents Facebook
	PlatformFacebook Platform = "facebook"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformYouTube, PlatformFacebook:
		return true
	}
	return false
}

// PostType classifies the primary content of a post.
type PostType string

const (
	PostTypeText  PostType = "text"
	PostTypeImage PostType = "image"
	PostTypeVideo PostType = "video"
	PostTypeLink  PostType = "link"
	PostTypePoll  PostType = "poll"
)

// MediaType classifies an attached media item.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeGIF   MediaType = "gif"
)

// Author is the embedded post author record. It is duplicated per post;
// no cross-post author identity resolution is attempted.
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Verified  bool   `json:"verified"`
}

// Media is one attached media item on a post.
type Media struct {
	Type            MediaType `json:"type"`
	URL             string    `json:"url"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
}

// Metrics holds per-post engagement counts. Fields absent in the source
// API default to zero.
type Metrics struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
	Views    int `json:"views,omitempty"`
}

// UnifiedPost is the platform-agnostic representation of one social post,
// video or status. Identity is (Platform, ID); the same real-world post on
// two platforms yields two independent records. Posts are immutable value
// objects constructed fresh on each fetch.
type UnifiedPost struct {
	ID           string       `json:"id"`
	Platform     Platform     `json:"platform"`
	Content      string       `json:"content"`
	Hashtags     []string     `json:"hashtags,omitempty"`
	Mentions     []string     `json:"mentions,omitempty"`
	Type         PostType     `json:"type"`
	Author       Author       `json:"author"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    *time.Time   `json:"updated_at,omitempty"`
	Metrics      Metrics      `json:"metrics"`
	Media        []Media      `json:"media,omitempty"`
	URL          string       `json:"url"`
	IsRepost     bool         `json:"is_repost"`
	OriginalPost *UnifiedPost `json:"original_post,omitempty"`
}

// Engagement is the per-post engagement score used for ranking: likes,
// shares and comments summed. Views are excluded so view-heavy platforms
// do not dominate the ranking.
func (p UnifiedPost) Engagement() int {
	return p.Metrics.Likes + p.Metrics.Shares + p.Metrics.Comments
}

// UnifiedProfile is one platform account. Fetched on demand, never
// persisted by the engine.
type UnifiedProfile struct {
	ID             string    `json:"id"`
	Platform       Platform  `json:"platform"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	BannerURL      string    `json:"banner_url,omitempty"`
	Verified       bool      `json:"verified"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	PostCount      int       `json:"post_count"`
	URL            string    `json:"url"`
	JoinedAt       time.Time `json:"joined_at,omitempty"`
}

// PostContent is a publish request. Hashtags and mentions are merged into
// the text at publish time per platform convention.
type PostContent struct {
	Text        string     `json:"text"`
	MediaURLs   []string   `json:"media_urls,omitempty"`
	Hashtags    []string   `json:"hashtags,omitempty"`
	Mentions    []string   `json:"mentions,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ReplyTo     string     `json:"reply_to,omitempty"`
}

// SortOrder selects the ordering of a per-platform fetch.
type SortOrder string

const (
	SortByDate       SortOrder = "date"
	SortByPopularity SortOrder = "popularity"
)

// FetchOptions bounds and filters a per-platform fetch. Limit is capped at
// each platform's own maximum.
type FetchOptions struct {
	Limit           int       `json:"limit,omitempty"`
	Since           time.Time `json:"since,omitempty"`
	Until           time.Time `json:"until,omitempty"`
	Hashtag         string    `json:"hashtag,omitempty"`
	Mention         string    `json:"mention,omitempty"`
	Cursor          string    `json:"cursor,omitempty"`
	IncludeReplies  bool      `json:"include_replies,omitempty"`
	IncludeRetweets bool      `json:"include_retweets,omitempty"`
	SortBy          SortOrder `json:"sort_by,omitempty"`
}

// SyncState is the lifecycle state of a platform's sync record.
type SyncState string

const (
	SyncPending  SyncState = "pending"
	SyncSuccess  SyncState = "success"
	SyncError    SyncState = "error"
	SyncDisabled SyncState = "disabled"
)

// SyncStatus records the outcome of the most recent operation against one
// platform. It is mutated exclusively by the aggregation manager.
type SyncStatus struct {
	Platform   Platform   `json:"platform"`
	LastSync   time.Time  `json:"last_sync"`
	Status     SyncState  `json:"status"`
	LastError  string     `json:"last_error,omitempty"`
	NextSync   *time.Time `json:"next_sync,omitempty"`
	PostsCount int        `json:"posts_count"`
}

// Period scopes an analytics request.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// Start returns the beginning of the period relative to now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -1)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// HashtagCount is one entry of a top-hashtags ranking. Tag identity is the
// exact tag text without the leading '#'.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// PlatformAnalytics is the per-platform analytics rollup for one period.
type PlatformAnalytics struct {
	Platform       Platform       `json:"platform"`
	Period         Period         `json:"period"`
	TotalPosts     int            `json:"total_posts"`
	TotalLikes     int            `json:"total_likes"`
	TotalShares    int            `json:"total_shares"`
	TotalComments  int            `json:"total_comments"`
	TotalViews     int            `json:"total_views"`
	EngagementRate float64        `json:"engagement_rate"`
	Reach          int            `json:"reach"`
	Impressions    int            `json:"impressions"`
	TopPosts       []UnifiedPost  `json:"top_posts,omitempty"`
	TopHashtags    []HashtagCount `json:"top_hashtags,omitempty"`
}

// AggregatedAnalytics is the cross-platform rollup. Derived, never
// persisted; recomputed from per-platform analytics on each request.
type AggregatedAnalytics struct {
	Period         Period         `json:"period"`
	TotalPosts     int            `json:"total_posts"`
	TotalLikes     int            `json:"total_likes"`
	TotalShares    int            `json:"total_shares"`
	TotalComments  int            `json:"total_comments"`
	TotalViews     int            `json:"total_views"`
	EngagementRate float64        `json:"engagement_rate"`
	Reach          int            `json:"reach"`
	Impressions    int            `json:"impressions"`
	TopPosts       []UnifiedPost  `json:"top_posts,omitempty"`
	TopHashtags    []HashtagCount `json:"top_hashtags,omitempty"`
	Platforms      []Platform     `json:"platforms"`
}
