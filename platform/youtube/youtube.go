// Package youtube implements the YouTube Data API v3 platform adapter.
//
// YouTube is read-only at this layer: publishing and deletion require
// OAuth2 flows that are out of scope, so both reject with a
// not-implemented error without touching the network.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
)

const maxFetchLimit = 50

// Config holds the YouTube API key and limits.
type Config struct {
	APIKey          string
	ChannelID       string
	RequestsPerHour int
	Timeout         time.Duration

	// Options are appended to the service options; tests inject
	// option.WithEndpoint and option.WithoutAuthentication here.
	Options []option.ClientOption
}

// Adapter integrates YouTube through the Data API v3 with API-key auth.
type Adapter struct {
	cfg     Config
	limiter *platform.RateLimiter

	mu            sync.Mutex
	service       *ytapi.Service
	authenticated bool
}

// New creates a YouTube adapter. The API service is built lazily on first
// authentication.
func New(cfg Config) *Adapter {
	return &Adapter{
		cfg:     cfg,
		limiter: platform.NewRateLimiter(model.PlatformYouTube, cfg.RequestsPerHour),
	}
}

// Platform implements platform.Adapter.
func (a *Adapter) Platform() model.Platform { return model.PlatformYouTube }

// RateLimiter exposes the adapter's limiter for clock injection in tests.
func (a *Adapter) RateLimiter() *platform.RateLimiter { return a.limiter }

func (a *Adapter) connect(ctx context.Context) (*ytapi.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.service != nil {
		return a.service, nil
	}

	timeout := a.cfg.Timeout
	if timeout <= 0 {
		timeout = platform.DefaultRequestTimeout
	}

	opts := []option.ClientOption{
		option.WithAPIKey(a.cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	opts = append(opts, a.cfg.Options...)

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, platform.NewError(model.PlatformYouTube, "connect", platform.KindTransport,
			fmt.Errorf("creating YouTube service: %w", err))
	}

	a.service = service
	return service, nil
}

// Authenticate probes the configured channel with the API key. Invalid or
// missing credentials yield (false, nil); transport failures are returned.
func (a *Adapter) Authenticate(ctx context.Context) (bool, error) {
	if err := a.limiter.Take(); err != nil {
		return false, err
	}

	if a.cfg.APIKey == "" || a.cfg.ChannelID == "" {
		log.Warn().Msg("YouTube API key or channel ID missing")
		return false, nil
	}

	service, err := a.connect(ctx)
	if err != nil {
		return false, err
	}

	resp, err := service.Channels.List([]string{"id"}).Id(a.cfg.ChannelID).MaxResults(1).Context(ctx).Do()
	if err != nil {
		classified := classifyAPIError("authenticate", err)
		if platform.IsKind(classified, platform.KindAuth) {
			log.Warn().Err(err).Msg("YouTube authentication rejected")
			return false, nil
		}
		return false, classified
	}
	if len(resp.Items) == 0 {
		log.Warn().Str("channel_id", a.cfg.ChannelID).Msg("YouTube channel not found during auth probe")
		return false, nil
	}

	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()

	log.Info().Str("channel_id", a.cfg.ChannelID).Msg("YouTube authentication succeeded")
	return true, nil
}

func (a *Adapter) ensureAuthenticated(ctx context.Context) error {
	a.mu.Lock()
	ok := a.authenticated
	a.mu.Unlock()
	if ok {
		return nil
	}

	authed, err := a.Authenticate(ctx)
	if err != nil {
		return err
	}
	if !authed {
		return platform.Errorf(model.PlatformYouTube, "authenticate", platform.KindAuth,
			"invalid or missing credentials")
	}
	return nil
}

// FetchPosts retrieves the channel's videos. The search response lacks
// statistics and duration, so a second batched videos.list call hydrates
// every result before normalization.
func (a *Adapter) FetchPosts(ctx context.Context, opts model.FetchOptions) ([]model.UnifiedPost, error) {
	if err := a.limiter.Take(); err != nil {
		return nil, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	service, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > maxFetchLimit {
		limit = maxFetchLimit
	}

	order := "date"
	if opts.SortBy == model.SortByPopularity {
		order = "viewCount"
	}

	call := service.Search.List([]string{"snippet"}).
		ChannelId(a.cfg.ChannelID).
		Type("video").
		Order(order).
		MaxResults(int64(limit)).
		Context(ctx)
	if !opts.Since.IsZero() {
		call = call.PublishedAfter(opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		call = call.PublishedBefore(opts.Until.UTC().Format(time.RFC3339))
	}
	if opts.Hashtag != "" {
		call = call.Q("#" + strings.TrimPrefix(opts.Hashtag, "#"))
	}
	if opts.Cursor != "" {
		call = call.PageToken(opts.Cursor)
	}

	searchResp, err := call.Do()
	if err != nil {
		return nil, classifyAPIError("fetch_posts", err)
	}

	videoIDs := make([]string, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}
	if len(videoIDs) == 0 {
		return []model.UnifiedPost{}, nil
	}

	// Detail hydration is mandatory: search results carry no statistics
	// or duration. It is a second outbound call, so it costs a second
	// limiter slot.
	if err := a.limiter.Take(); err != nil {
		return nil, err
	}
	videosResp, err := service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyAPIError("fetch_posts", err)
	}

	posts := make([]model.UnifiedPost, 0, len(videosResp.Items))
	for _, video := range videosResp.Items {
		posts = append(posts, normalizeVideo(video))
	}

	log.Debug().Int("count", len(posts)).Str("channel_id", a.cfg.ChannelID).
		Msg("Fetched YouTube videos")
	return posts, nil
}

// FetchProfile retrieves a channel profile; an empty id selects the
// configured channel. Accepts both UC-style IDs and @handles.
func (a *Adapter) FetchProfile(ctx context.Context, id string) (model.UnifiedProfile, error) {
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedProfile{}, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return model.UnifiedProfile{}, err
	}

	service, err := a.connect(ctx)
	if err != nil {
		return model.UnifiedProfile{}, err
	}

	if id == "" {
		id = a.cfg.ChannelID
	}

	part := []string{"snippet", "statistics", "brandingSettings"}
	var call *ytapi.ChannelsListCall
	switch {
	case strings.HasPrefix(id, "@"):
		call = service.Channels.List(part).ForHandle(id)
	case strings.HasPrefix(id, "UC"):
		call = service.Channels.List(part).Id(id)
	default:
		call = service.Channels.List(part).ForUsername(id)
	}

	resp, err := call.MaxResults(1).Context(ctx).Do()
	if err != nil {
		return model.UnifiedProfile{}, classifyAPIError("fetch_profile", err)
	}
	if len(resp.Items) == 0 {
		return model.UnifiedProfile{}, platform.Errorf(model.PlatformYouTube, "fetch_profile",
			platform.KindNotFound, "channel %q not found", id)
	}

	return normalizeChannel(resp.Items[0]), nil
}

// PublishPost always rejects: direct posting requires OAuth2, which is not
// modeled here. No network call is made.
func (a *Adapter) PublishPost(ctx context.Context, content model.PostContent) (model.UnifiedPost, error) {
	if err := platform.ValidateContent(model.PlatformYouTube, content); err != nil {
		return model.UnifiedPost{}, err
	}
	return model.UnifiedPost{}, platform.Errorf(model.PlatformYouTube, "publish",
		platform.KindNotImplemented, "YouTube does not support direct posting")
}

// DeletePost always rejects: deletion requires elevated OAuth2 scopes not
// modeled here. No network call is made.
func (a *Adapter) DeletePost(ctx context.Context, id string) (bool, error) {
	return false, platform.Errorf(model.PlatformYouTube, "delete",
		platform.KindNotImplemented, "YouTube post deletion is not supported")
}

// Analytics computes the period rollup from fetched videos, enriched with
// channel statistics when available. A channel-statistics failure degrades
// to the post-derived metrics alone.
func (a *Adapter) Analytics(ctx context.Context, period model.Period) (model.PlatformAnalytics, error) {
	posts, err := a.FetchPosts(ctx, model.FetchOptions{
		Limit: maxFetchLimit,
		Since: period.Start(time.Now()),
	})
	if err != nil {
		return model.PlatformAnalytics{}, err
	}

	analytics := platform.AnalyticsFromPosts(model.PlatformYouTube, period, posts)

	service, err := a.connect(ctx)
	if err != nil {
		return analytics, nil
	}
	if err := a.limiter.Take(); err != nil {
		log.Warn().Err(err).Msg("YouTube channel statistics skipped, request limit reached")
		return analytics, nil
	}

	resp, err := service.Channels.List([]string{"statistics"}).
		Id(a.cfg.ChannelID).MaxResults(1).Context(ctx).Do()
	if err != nil {
		log.Warn().Err(err).Msg("YouTube channel statistics unavailable, using post-derived metrics")
		return analytics, nil
	}
	if len(resp.Items) > 0 && resp.Items[0].Statistics != nil {
		stats := resp.Items[0].Statistics
		analytics.Reach = int(stats.SubscriberCount)
		analytics.Impressions = int(stats.ViewCount)
		if analytics.Reach > 0 {
			engaged := analytics.TotalLikes + analytics.TotalShares + analytics.TotalComments
			analytics.EngagementRate = float64(engaged) / float64(analytics.Reach) * 100
		}
	}

	return analytics, nil
}

func normalizeVideo(video *ytapi.Video) model.UnifiedPost {
	createdAt, _ := time.Parse(time.RFC3339, video.Snippet.PublishedAt)

	post := model.UnifiedPost{
		ID:        video.Id,
		Platform:  model.PlatformYouTube,
		Content:   video.Snippet.Title + "\n\n" + video.Snippet.Description,
		Type:      model.PostTypeVideo,
		CreatedAt: createdAt,
		URL:       "https://www.youtube.com/watch?v=" + video.Id,
		Author: model.Author{
			ID:       video.Snippet.ChannelId,
			Name:     video.Snippet.ChannelTitle,
			Username: video.Snippet.ChannelTitle,
		},
		Hashtags: append([]string(nil), video.Snippet.Tags...),
	}

	if video.Statistics != nil {
		post.Metrics = model.Metrics{
			Likes:    int(video.Statistics.LikeCount),
			Comments: int(video.Statistics.CommentCount),
			Views:    int(video.Statistics.ViewCount),
			// YouTube has no native share metric.
			Shares: 0,
		}
	}

	media := model.Media{
		Type: model.MediaTypeVideo,
		URL:  post.URL,
	}
	if video.ContentDetails != nil {
		media.DurationSeconds = ParseISODuration(video.ContentDetails.Duration)
	}
	if thumb := bestThumbnail(video.Snippet.Thumbnails); thumb != "" {
		media.ThumbnailURL = thumb
	}
	post.Media = []model.Media{media}

	return post
}

func normalizeChannel(channel *ytapi.Channel) model.UnifiedProfile {
	joinedAt, _ := time.Parse(time.RFC3339, channel.Snippet.PublishedAt)

	profile := model.UnifiedProfile{
		ID:       channel.Id,
		Platform: model.PlatformYouTube,
		Name:     channel.Snippet.Title,
		Username: channel.Snippet.CustomUrl,
		Bio:      channel.Snippet.Description,
		URL:      "https://www.youtube.com/channel/" + channel.Id,
		JoinedAt: joinedAt,
	}
	if profile.Username == "" {
		profile.Username = channel.Snippet.Title
	}
	if channel.Snippet.Thumbnails != nil && channel.Snippet.Thumbnails.Default != nil {
		profile.AvatarURL = channel.Snippet.Thumbnails.Default.Url
	}
	if channel.BrandingSettings != nil && channel.BrandingSettings.Image != nil {
		profile.BannerURL = channel.BrandingSettings.Image.BannerExternalUrl
	}
	if channel.Statistics != nil {
		profile.FollowerCount = int(channel.Statistics.SubscriberCount)
		profile.PostCount = int(channel.Statistics.VideoCount)
	}
	return profile
}

func bestThumbnail(thumbs *ytapi.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	for _, t := range []*ytapi.Thumbnail{thumbs.Maxres, thumbs.High, thumbs.Medium, thumbs.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

// ParseISODuration converts an ISO-8601 duration (PT#H#M#S) into total
// seconds. Malformed input yields 0.
func ParseISODuration(duration string) int {
	rest, ok := strings.CutPrefix(duration, "PT")
	if !ok {
		return 0
	}

	total, value := 0, 0
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			value = value*10 + int(r-'0')
		case r == 'H':
			total += value * 3600
			value = 0
		case r == 'M':
			total += value * 60
			value = 0
		case r == 'S':
			total += value
			value = 0
		default:
			return 0
		}
	}
	return total
}

func classifyAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		kind := platform.ClassifyStatus(apiErr.Code)
		for _, item := range apiErr.Errors {
			if item.Reason == "quotaExceeded" || item.Reason == "rateLimitExceeded" {
				kind = platform.KindRateLimit
			}
		}
		return platform.NewError(model.PlatformYouTube, op, kind, err)
	}
	return platform.NewError(model.PlatformYouTube, op, platform.KindTransport, err)
}
