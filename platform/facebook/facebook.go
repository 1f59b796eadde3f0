// Package facebook implements the Facebook Graph API platform adapter.
//
// Unlike Twitter, the Graph API provides no structured entities: hashtags
// and mentions are extracted from the message text by regex. Publishing
// with media is a two-step flow: upload each photo unpublished, then
// attach the returned media IDs to the feed post.
package facebook

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
)

const (
	defaultBaseURL = "https://graph.facebook.com"
	defaultVersion = "v18.0"
	maxFetchLimit  = 100

	postFields = "id,message,created_time,updated_time,permalink_url,shares," +
		"likes.summary(true),comments.summary(true),from," +
		"attachments{media_type,media,url,title,subattachments}"
	pageFields = "id,name,username,about,link,fan_count,followers_count," +
		"picture{url},cover,verification_status,created_time"
)

var (
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	mentionPattern = regexp.MustCompile(`@(\w+)`)
)

// Config holds the Facebook page credentials and limits.
type Config struct {
	AppID           string
	AppSecret       string
	AccessToken     string
	PageID          string
	Version         string
	RequestsPerHour int
	BaseURL         string
	Timeout         time.Duration
}

// Adapter integrates a Facebook page through the Graph API.
type Adapter struct {
	cfg     Config
	base    string
	rest    *platform.RESTClient
	limiter *platform.RateLimiter

	mu            sync.Mutex
	authenticated bool
	pageName      string
}

// New creates a Facebook adapter. Authentication happens lazily on first use.
func New(cfg Config) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}

	return &Adapter{
		cfg:     cfg,
		base:    strings.TrimSuffix(base, "/") + "/" + version,
		rest:    platform.NewRESTClient(model.PlatformFacebook, cfg.Timeout),
		limiter: platform.NewRateLimiter(model.PlatformFacebook, cfg.RequestsPerHour),
	}
}

// Platform implements platform.Adapter.
func (a *Adapter) Platform() model.Platform { return model.PlatformFacebook }

// RateLimiter exposes the adapter's limiter for clock injection in tests.
func (a *Adapter) RateLimiter() *platform.RateLimiter { return a.limiter }

func (a *Adapter) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", a.cfg.AccessToken)
	return a.base + "/" + strings.TrimPrefix(path, "/") + "?" + params.Encode()
}

// Authenticate probes the configured page. Invalid credentials yield
// (false, nil); transport failures are returned.
func (a *Adapter) Authenticate(ctx context.Context) (bool, error) {
	if err := a.limiter.Take(); err != nil {
		return false, err
	}

	params := url.Values{}
	params.Set("fields", "id,name")

	var pg page
	err := a.rest.DoJSON(ctx, "GET", a.endpoint(a.cfg.PageID, params), nil, "", &pg)
	if err != nil {
		// Graph rejects bad tokens with 400 OAuthException as well as 401.
		if platform.IsKind(err, platform.KindAuth) || platform.IsKind(err, platform.KindTransport) && strings.Contains(err.Error(), "OAuthException") {
			log.Warn().Err(err).Msg("Facebook authentication rejected")
			return false, nil
		}
		return false, err
	}

	a.mu.Lock()
	a.authenticated = true
	a.pageName = pg.Name
	a.mu.Unlock()

	log.Info().Str("page_id", pg.ID).Str("page_name", pg.Name).
		Msg("Facebook authentication succeeded")
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
		return platform.Errorf(model.PlatformFacebook, "authenticate", platform.KindAuth,
			"invalid or missing credentials")
	}
	return nil
}

// FetchPosts retrieves the page feed.
func (a *Adapter) FetchPosts(ctx context.Context, opts model.FetchOptions) ([]model.UnifiedPost, error) {
	if err := a.limiter.Take(); err != nil {
		return nil, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > maxFetchLimit {
		limit = 25
	}

	params := url.Values{}
	params.Set("fields", postFields)
	params.Set("limit", strconv.Itoa(limit))
	if !opts.Since.IsZero() {
		params.Set("since", strconv.FormatInt(opts.Since.Unix(), 10))
	}
	if !opts.Until.IsZero() {
		params.Set("until", strconv.FormatInt(opts.Until.Unix(), 10))
	}
	if opts.Cursor != "" {
		params.Set("after", opts.Cursor)
	}

	var resp feedResponse
	if err := a.rest.DoJSON(ctx, "GET", a.endpoint(a.cfg.PageID+"/posts", params), nil, "", &resp); err != nil {
		return nil, err
	}

	posts := make([]model.UnifiedPost, 0, len(resp.Data))
	for _, p := range resp.Data {
		normalized := a.normalizePost(p)
		if opts.Hashtag != "" && !containsTag(normalized.Hashtags, strings.TrimPrefix(opts.Hashtag, "#")) {
			continue
		}
		posts = append(posts, normalized)
	}

	log.Debug().Int("count", len(posts)).Str("page_id", a.cfg.PageID).
		Msg("Fetched Facebook posts")
	return posts, nil
}

// FetchProfile retrieves a page profile; an empty id selects the
// configured page.
func (a *Adapter) FetchProfile(ctx context.Context, id string) (model.UnifiedProfile, error) {
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedProfile{}, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return model.UnifiedProfile{}, err
	}

	if id == "" {
		id = a.cfg.PageID
	}

	params := url.Values{}
	params.Set("fields", pageFields)

	var p page
	if err := a.rest.DoJSON(ctx, "GET", a.endpoint(id, params), nil, "", &p); err != nil {
		return model.UnifiedProfile{}, err
	}
	if p.ID == "" {
		return model.UnifiedProfile{}, platform.Errorf(model.PlatformFacebook, "fetch_profile",
			platform.KindNotFound, "page %q not found", id)
	}

	return normalizePage(p), nil
}

// PublishPost publishes to the page feed, uploading photos first when
// media URLs are present, then re-fetches the created post by ID.
func (a *Adapter) PublishPost(ctx context.Context, content model.PostContent) (model.UnifiedPost, error) {
	if err := platform.ValidateContent(model.PlatformFacebook, content); err != nil {
		return model.UnifiedPost{}, err
	}
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedPost{}, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return model.UnifiedPost{}, err
	}

	// Step one: upload media unpublished and collect the returned IDs.
	var mediaIDs []string
	for _, mediaURL := range content.MediaURLs {
		form := url.Values{}
		form.Set("url", mediaURL)
		form.Set("published", "false")

		var uploaded photoResponse
		err := a.rest.DoJSON(ctx, "POST", a.endpoint(a.cfg.PageID+"/photos", nil),
			[]byte(form.Encode()), "application/x-www-form-urlencoded", &uploaded)
		if err != nil {
			return model.UnifiedPost{}, err
		}
		mediaIDs = append(mediaIDs, uploaded.ID)
	}

	// Step two: create the feed post referencing the uploaded media.
	form := url.Values{}
	form.Set("message", platform.FormatContent(content))
	for i, id := range mediaIDs {
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, id))
	}
	if content.ScheduledAt != nil {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(content.ScheduledAt.Unix(), 10))
	}

	var created publishResponse
	err := a.rest.DoJSON(ctx, "POST", a.endpoint(a.cfg.PageID+"/feed", nil),
		[]byte(form.Encode()), "application/x-www-form-urlencoded", &created)
	if err != nil {
		return model.UnifiedPost{}, err
	}

	log.Info().Str("post_id", created.ID).Int("media_count", len(mediaIDs)).
		Msg("Facebook post created, hydrating")
	return a.fetchPost(ctx, created.ID)
}

// DeletePost removes a post. Transport failures degrade to (false, nil);
// rate-limit failures are returned.
func (a *Adapter) DeletePost(ctx context.Context, id string) (bool, error) {
	if err := a.limiter.Take(); err != nil {
		return false, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		log.Error().Err(err).Str("post_id", id).Msg("Facebook deletion failed on auth")
		return false, nil
	}

	var resp deleteResponse
	if err := a.rest.DoJSON(ctx, "DELETE", a.endpoint(id, nil), nil, "", &resp); err != nil {
		log.Error().Err(err).Str("post_id", id).Msg("Facebook deletion failed")
		return false, nil
	}
	return resp.Success, nil
}

// Analytics prefers the page insights endpoint for reach and impressions;
// totals and rankings always come from the period's posts. An insights
// failure degrades to the post-derived metrics alone.
func (a *Adapter) Analytics(ctx context.Context, period model.Period) (model.PlatformAnalytics, error) {
	posts, err := a.FetchPosts(ctx, model.FetchOptions{
		Limit: maxFetchLimit,
		Since: period.Start(time.Now()),
	})
	if err != nil {
		return model.PlatformAnalytics{}, err
	}

	analytics := platform.AnalyticsFromPosts(model.PlatformFacebook, period, posts)

	params := url.Values{}
	params.Set("metric", "page_impressions,page_impressions_unique")
	params.Set("period", insightsPeriod(period))

	var insights insightsResponse
	err = a.rest.DoJSON(ctx, "GET", a.endpoint(a.cfg.PageID+"/insights", params), nil, "", &insights)
	if err != nil {
		log.Warn().Err(err).Msg("Facebook insights unavailable, using post-derived metrics")
		return analytics, nil
	}

	for _, metric := range insights.Data {
		if len(metric.Values) == 0 {
			continue
		}
		value := metric.Values[len(metric.Values)-1].Value
		switch metric.Name {
		case "page_impressions":
			analytics.Impressions = value
		case "page_impressions_unique":
			analytics.Reach = value
		}
	}
	if analytics.Reach > 0 {
		engaged := analytics.TotalLikes + analytics.TotalShares + analytics.TotalComments
		analytics.EngagementRate = float64(engaged) / float64(analytics.Reach) * 100
	}

	return analytics, nil
}

func (a *Adapter) fetchPost(ctx context.Context, id string) (model.UnifiedPost, error) {
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedPost{}, err
	}

	params := url.Values{}
	params.Set("fields", postFields)

	var p post
	if err := a.rest.DoJSON(ctx, "GET", a.endpoint(id, params), nil, "", &p); err != nil {
		return model.UnifiedPost{}, err
	}
	return a.normalizePost(p), nil
}

// normalizePost maps one feed item into the unified model. Hashtags and
// mentions are regex-extracted from the message; media come from the
// attachments tree, flattening carousel subattachments. Subattachment
// windows the API truncates (the "+N" overflow) are not expanded further.
func (a *Adapter) normalizePost(p post) model.UnifiedPost {
	out := model.UnifiedPost{
		ID:        p.ID,
		Platform:  model.PlatformFacebook,
		Content:   p.Message,
		CreatedAt: parseGraphTime(p.CreatedTime),
		URL:       p.PermalinkURL,
		Hashtags:  ExtractHashtags(p.Message),
		Mentions:  ExtractMentions(p.Message),
	}

	if p.UpdatedTime != "" {
		updated := parseGraphTime(p.UpdatedTime)
		if !updated.IsZero() && !updated.Equal(out.CreatedAt) {
			out.UpdatedAt = &updated
		}
	}

	if p.From != nil {
		out.Author = model.Author{ID: p.From.ID, Name: p.From.Name, Username: p.From.Name}
	} else {
		a.mu.Lock()
		out.Author = model.Author{ID: a.cfg.PageID, Name: a.pageName, Username: a.pageName}
		a.mu.Unlock()
	}

	if p.Likes != nil {
		out.Metrics.Likes = p.Likes.Summary.TotalCount
	}
	if p.Comments != nil {
		out.Metrics.Comments = p.Comments.Summary.TotalCount
	}
	if p.Shares != nil {
		out.Metrics.Shares = p.Shares.Count
	}

	hasVideo, hasImage := false, false
	if p.Attachments != nil {
		for _, att := range p.Attachments.Data {
			if att.Subattachments != nil && len(att.Subattachments.Data) > 0 {
				// Carousel: one media entry per subattachment.
				for _, sub := range att.Subattachments.Data {
					if m, ok := attachmentMedia(sub); ok {
						out.Media = append(out.Media, m)
						markType(sub.MediaType, &hasVideo, &hasImage)
					}
				}
				continue
			}
			if m, ok := attachmentMedia(att); ok {
				out.Media = append(out.Media, m)
				markType(att.MediaType, &hasVideo, &hasImage)
			}
		}
	}

	switch {
	case hasVideo:
		out.Type = model.PostTypeVideo
	case hasImage:
		out.Type = model.PostTypeImage
	case p.Attachments != nil && len(p.Attachments.Data) > 0:
		out.Type = model.PostTypeLink
	default:
		out.Type = model.PostTypeText
	}

	return out
}

func attachmentMedia(att attachment) (model.Media, bool) {
	if att.Media == nil {
		return model.Media{}, false
	}

	m := model.Media{Type: model.MediaTypeImage}
	if att.Media.Image != nil {
		m.URL = att.Media.Image.Src
		m.ThumbnailURL = att.Media.Image.Src
		m.Width = att.Media.Image.Width
		m.Height = att.Media.Image.Height
	}
	if strings.Contains(att.MediaType, "video") {
		m.Type = model.MediaTypeVideo
		if att.Media.Source != "" {
			m.URL = att.Media.Source
		}
	}
	if m.URL == "" && att.URL != "" {
		m.URL = att.URL
	}
	return m, m.URL != ""
}

func markType(mediaType string, hasVideo, hasImage *bool) {
	switch {
	case strings.Contains(mediaType, "video"):
		*hasVideo = true
	case mediaType == "photo" || mediaType == "album" || mediaType == "image":
		*hasImage = true
	}
}

func normalizePage(p page) model.UnifiedProfile {
	profile := model.UnifiedProfile{
		ID:            p.ID,
		Platform:      model.PlatformFacebook,
		Name:          p.Name,
		Username:      p.Username,
		Bio:           p.About,
		URL:           p.Link,
		Verified:      p.VerificationStatus != "" && p.VerificationStatus != "not_verified",
		FollowerCount: p.FollowersCount,
		JoinedAt:      parseGraphTime(p.CreatedTime),
	}
	if profile.FollowerCount == 0 {
		profile.FollowerCount = p.FanCount
	}
	if profile.Username == "" {
		profile.Username = p.Name
	}
	if p.Picture != nil {
		profile.AvatarURL = p.Picture.Data.URL
	}
	if p.Cover != nil {
		profile.BannerURL = p.Cover.Source
	}
	return profile
}

// ExtractHashtags returns the #tags found in text, without the leading
// '#', in order of first appearance.
func ExtractHashtags(text string) []string {
	return extractTokens(hashtagPattern, text)
}

// ExtractMentions returns the @mentions found in text, without the leading
// '@', in order of first appearance.
func ExtractMentions(text string) []string {
	return extractTokens(mentionPattern, text)
}

func extractTokens(pattern *regexp.Regexp, text string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// parseGraphTime handles the Graph API timestamp format, which uses a
// timezone offset without a colon ("+0000"), falling back to RFC3339.
func parseGraphTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02T15:04:05-0700", value); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, value)
	return t
}

func insightsPeriod(period model.Period) string {
	switch period {
	case model.PeriodDay:
		return "day"
	case model.PeriodWeek:
		return "week"
	default:
		return "days_28"
	}
}
