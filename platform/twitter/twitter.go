// Package twitter implements the Twitter/X API v2 platform adapter.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
)

const (
	defaultBaseURL = "https://api.twitter.com"
	maxFetchLimit  = 100
	minFetchLimit  = 5

	tweetFields = "created_at,public_metrics,entities,attachments,referenced_tweets,author_id"
	mediaFields = "url,preview_image_url,type,width,height,duration_ms"
	userFields  = "name,username,profile_image_url,verified,description,public_metrics,created_at,url"
	expansions  = "attachments.media_keys,author_id,referenced_tweets.id"
)

// Config holds the Twitter credentials and limits.
type Config struct {
	APIKey          string
	APISecret       string
	BearerToken     string
	AccessToken     string
	Username        string
	RequestsPerHour int
	BaseURL         string
	Timeout         time.Duration
}

// Adapter integrates Twitter/X through API v2 with bearer-token auth.
type Adapter struct {
	cfg     Config
	base    string
	rest    *platform.RESTClient
	limiter *platform.RateLimiter

	mu            sync.Mutex
	authenticated bool
	userID        string
	username      string
}

// New creates a Twitter adapter. Authentication happens lazily on first use.
func New(cfg Config) *Adapter {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	rest := platform.NewRESTClient(model.PlatformTwitter, cfg.Timeout)
	rest.Header.Set("Authorization", "Bearer "+cfg.BearerToken)

	return &Adapter{
		cfg:     cfg,
		base:    strings.TrimSuffix(base, "/"),
		rest:    rest,
		limiter: platform.NewRateLimiter(model.PlatformTwitter, cfg.RequestsPerHour),
	}
}

// Platform implements platform.Adapter.
func (a *Adapter) Platform() model.Platform { return model.PlatformTwitter }

// RateLimiter exposes the adapter's limiter for clock injection in tests.
func (a *Adapter) RateLimiter() *platform.RateLimiter { return a.limiter }

// Authenticate probes the API with a "who am I" lookup. Invalid credentials
// yield (false, nil); transport failures are returned.
func (a *Adapter) Authenticate(ctx context.Context) (bool, error) {
	if err := a.limiter.Take(); err != nil {
		return false, err
	}

	var resp userResponse
	err := a.rest.DoJSON(ctx, "GET", a.base+"/2/users/me?user.fields="+userFields, nil, "", &resp)
	if err != nil {
		if platform.IsKind(err, platform.KindAuth) {
			log.Warn().Err(err).Msg("Twitter authentication rejected")
			return false, nil
		}
		return false, err
	}

	a.mu.Lock()
	a.authenticated = true
	a.userID = resp.Data.ID
	a.username = resp.Data.Username
	a.mu.Unlock()

	log.Info().Str("user_id", resp.Data.ID).Str("username", resp.Data.Username).
		Msg("Twitter authentication succeeded")
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
		return platform.Errorf(model.PlatformTwitter, "authenticate", platform.KindAuth,
			"invalid or missing credentials")
	}
	return nil
}

// FetchPosts retrieves tweets from the configured user's timeline, or from
// recent search when a hashtag or mention filter is set.
func (a *Adapter) FetchPosts(ctx context.Context, opts model.FetchOptions) ([]model.UnifiedPost, error) {
	if err := a.limiter.Take(); err != nil {
		return nil, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(clampLimit(opts.Limit)))
	q.Set("tweet.fields", tweetFields)
	q.Set("media.fields", mediaFields)
	q.Set("user.fields", userFields)
	q.Set("expansions", expansions)
	if !opts.Since.IsZero() {
		q.Set("start_time", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		q.Set("end_time", opts.Until.UTC().Format(time.RFC3339))
	}
	if opts.Cursor != "" {
		q.Set("pagination_token", opts.Cursor)
	}

	var endpoint string
	switch {
	case opts.Hashtag != "":
		q.Set("query", "#"+strings.TrimPrefix(opts.Hashtag, "#"))
		endpoint = a.base + "/2/tweets/search/recent"
	case opts.Mention != "":
		q.Set("query", "@"+strings.TrimPrefix(opts.Mention, "@"))
		endpoint = a.base + "/2/tweets/search/recent"
	default:
		var exclude []string
		if !opts.IncludeReplies {
			exclude = append(exclude, "replies")
		}
		if !opts.IncludeRetweets {
			exclude = append(exclude, "retweets")
		}
		if len(exclude) > 0 {
			q.Set("exclude", strings.Join(exclude, ","))
		}
		endpoint = fmt.Sprintf("%s/2/users/%s/tweets", a.base, a.currentUserID())
	}

	var resp timelineResponse
	if err := a.rest.DoJSON(ctx, "GET", endpoint+"?"+q.Encode(), nil, "", &resp); err != nil {
		return nil, err
	}

	posts := make([]model.UnifiedPost, 0, len(resp.Data))
	media := mediaByKey(resp.Includes.Media)
	users := usersByID(resp.Includes.Users)
	refs := tweetsByID(resp.Includes.Tweets)
	for _, tw := range resp.Data {
		posts = append(posts, a.normalizeTweet(tw, media, users, refs))
	}

	log.Debug().Int("count", len(posts)).Msg("Fetched tweets")
	return posts, nil
}

// FetchProfile retrieves a user profile; an empty id selects the
// configured account.
func (a *Adapter) FetchProfile(ctx context.Context, id string) (model.UnifiedProfile, error) {
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedProfile{}, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return model.UnifiedProfile{}, err
	}

	endpoint := ""
	switch {
	case id != "":
		endpoint = fmt.Sprintf("%s/2/users/%s", a.base, url.PathEscape(id))
	case a.cfg.Username != "":
		endpoint = fmt.Sprintf("%s/2/users/by/username/%s", a.base, url.PathEscape(a.cfg.Username))
	default:
		endpoint = fmt.Sprintf("%s/2/users/%s", a.base, a.currentUserID())
	}

	var resp userResponse
	if err := a.rest.DoJSON(ctx, "GET", endpoint+"?user.fields="+userFields, nil, "", &resp); err != nil {
		return model.UnifiedProfile{}, err
	}
	if resp.Data.ID == "" {
		return model.UnifiedProfile{}, platform.Errorf(model.PlatformTwitter, "fetch_profile",
			platform.KindNotFound, "user %q not found", id)
	}

	return normalizeUser(resp.Data), nil
}

// PublishPost creates a tweet, then re-fetches it by ID so the caller gets
// the fully hydrated post rather than the partial creation response.
func (a *Adapter) PublishPost(ctx context.Context, content model.PostContent) (model.UnifiedPost, error) {
	if err := platform.ValidateContent(model.PlatformTwitter, content); err != nil {
		return model.UnifiedPost{}, err
	}
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedPost{}, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		return model.UnifiedPost{}, err
	}

	payload := map[string]any{"text": platform.FormatContent(content)}
	if content.ReplyTo != "" {
		payload["reply"] = map[string]string{"in_reply_to_tweet_id": content.ReplyTo}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.UnifiedPost{}, platform.NewError(model.PlatformTwitter, "publish",
			platform.KindTransport, err)
	}

	var created createTweetResponse
	if err := a.rest.DoJSON(ctx, "POST", a.base+"/2/tweets", body, "application/json", &created); err != nil {
		return model.UnifiedPost{}, err
	}

	log.Info().Str("tweet_id", created.Data.ID).Msg("Tweet created, hydrating")
	return a.fetchTweet(ctx, created.Data.ID)
}

// DeletePost removes a tweet. Transport failures degrade to (false, nil);
// rate-limit failures are returned.
func (a *Adapter) DeletePost(ctx context.Context, id string) (bool, error) {
	if err := a.limiter.Take(); err != nil {
		return false, err
	}
	if err := a.ensureAuthenticated(ctx); err != nil {
		log.Error().Err(err).Str("tweet_id", id).Msg("Tweet deletion failed on auth")
		return false, nil
	}

	var resp deleteTweetResponse
	err := a.rest.DoJSON(ctx, "DELETE", a.base+"/2/tweets/"+url.PathEscape(id), nil, "", &resp)
	if err != nil {
		log.Error().Err(err).Str("tweet_id", id).Msg("Tweet deletion failed")
		return false, nil
	}
	return resp.Data.Deleted, nil
}

// Analytics computes the period rollup. Twitter exposes no insights
// endpoint at this API tier, so metrics are always recomputed from a
// best-effort post fetch over the period.
func (a *Adapter) Analytics(ctx context.Context, period model.Period) (model.PlatformAnalytics, error) {
	posts, err := a.FetchPosts(ctx, model.FetchOptions{
		Limit: maxFetchLimit,
		Since: period.Start(time.Now()),
	})
	if err != nil {
		return model.PlatformAnalytics{}, err
	}
	return platform.AnalyticsFromPosts(model.PlatformTwitter, period, posts), nil
}

func (a *Adapter) fetchTweet(ctx context.Context, id string) (model.UnifiedPost, error) {
	if err := a.limiter.Take(); err != nil {
		return model.UnifiedPost{}, err
	}

	q := url.Values{}
	q.Set("tweet.fields", tweetFields)
	q.Set("media.fields", mediaFields)
	q.Set("user.fields", userFields)
	q.Set("expansions", expansions)

	var resp singleTweetResponse
	endpoint := fmt.Sprintf("%s/2/tweets/%s?%s", a.base, url.PathEscape(id), q.Encode())
	if err := a.rest.DoJSON(ctx, "GET", endpoint, nil, "", &resp); err != nil {
		return model.UnifiedPost{}, err
	}

	media := mediaByKey(resp.Includes.Media)
	users := usersByID(resp.Includes.Users)
	refs := tweetsByID(resp.Includes.Tweets)
	return a.normalizeTweet(resp.Data, media, users, refs), nil
}

func (a *Adapter) currentUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

// normalizeTweet maps one API v2 tweet into the unified model. Hashtags
// and mentions come from the structured entities, never from regexing the
// text. Media are resolved through the media-key expansion join.
func (a *Adapter) normalizeTweet(tw tweet, media map[string]mediaObject, users map[string]user, refs map[string]tweet) model.UnifiedPost {
	post := model.UnifiedPost{
		ID:        tw.ID,
		Platform:  model.PlatformTwitter,
		Content:   tw.Text,
		CreatedAt: tw.CreatedAt,
	}

	if tw.Entities != nil {
		for _, h := range tw.Entities.Hashtags {
			post.Hashtags = append(post.Hashtags, h.Tag)
		}
		for _, m := range tw.Entities.Mentions {
			post.Mentions = append(post.Mentions, m.Username)
		}
	}

	if u, ok := users[tw.AuthorID]; ok {
		post.Author = model.Author{
			ID:        u.ID,
			Name:      u.Name,
			Username:  u.Username,
			AvatarURL: u.ProfileImageURL,
			Verified:  u.Verified,
		}
		post.URL = fmt.Sprintf("https://twitter.com/%s/status/%s", u.Username, tw.ID)
	} else {
		post.URL = fmt.Sprintf("https://twitter.com/i/status/%s", tw.ID)
	}

	if tw.PublicMetrics != nil {
		post.Metrics = model.Metrics{
			Likes:    tw.PublicMetrics.LikeCount,
			Shares:   tw.PublicMetrics.RetweetCount + tw.PublicMetrics.QuoteCount,
			Comments: tw.PublicMetrics.ReplyCount,
			Views:    tw.PublicMetrics.ImpressionCount,
		}
	}

	hasVideo, hasImage := false, false
	if tw.Attachments != nil {
		for _, key := range tw.Attachments.MediaKeys {
			m, ok := media[key]
			if !ok {
				continue
			}
			post.Media = append(post.Media, normalizeMedia(m))
			switch m.Type {
			case "video", "animated_gif":
				hasVideo = true
			case "photo":
				hasImage = true
			}
		}
	}

	// Type priority: poll > video > image > link > text.
	switch {
	case tw.Attachments != nil && len(tw.Attachments.PollIDs) > 0:
		post.Type = model.PostTypePoll
	case hasVideo:
		post.Type = model.PostTypeVideo
	case hasImage:
		post.Type = model.PostTypeImage
	case tw.Entities != nil && len(tw.Entities.URLs) > 0:
		post.Type = model.PostTypeLink
	default:
		post.Type = model.PostTypeText
	}

	for _, ref := range tw.ReferencedTweets {
		if ref.Type != "retweeted" {
			continue
		}
		post.IsRepost = true
		if orig, ok := refs[ref.ID]; ok {
			original := a.normalizeTweet(orig, media, users, nil)
			post.OriginalPost = &original
		}
	}

	return post
}

func normalizeMedia(m mediaObject) model.Media {
	out := model.Media{
		URL:          m.URL,
		ThumbnailURL: m.PreviewImageURL,
		Width:        m.Width,
		Height:       m.Height,
	}
	switch m.Type {
	case "video":
		out.Type = model.MediaTypeVideo
		out.DurationSeconds = m.DurationMs / 1000
		if out.URL == "" {
			out.URL = m.PreviewImageURL
		}
	case "animated_gif":
		out.Type = model.MediaTypeGIF
		if out.URL == "" {
			out.URL = m.PreviewImageURL
		}
	default:
		out.Type = model.MediaTypeImage
	}
	return out
}

func normalizeUser(u user) model.UnifiedProfile {
	profile := model.UnifiedProfile{
		ID:        u.ID,
		Platform:  model.PlatformTwitter,
		Name:      u.Name,
		Username:  u.Username,
		Bio:       u.Description,
		AvatarURL: u.ProfileImageURL,
		Verified:  u.Verified,
		URL:       fmt.Sprintf("https://twitter.com/%s", u.Username),
		JoinedAt:  u.CreatedAt,
	}
	if u.PublicMetrics != nil {
		profile.FollowerCount = u.PublicMetrics.FollowersCount
		profile.FollowingCount = u.PublicMetrics.FollowingCount
		profile.PostCount = u.PublicMetrics.TweetCount
	}
	return profile
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 10
	case limit < minFetchLimit:
		return minFetchLimit
	case limit > maxFetchLimit:
		return maxFetchLimit
	default:
		return limit
	}
}

func mediaByKey(items []mediaObject) map[string]mediaObject {
	out := make(map[string]mediaObject, len(items))
	for _, m := range items {
		out[m.MediaKey] = m
	}
	return out
}

func usersByID(items []user) map[string]user {
	out := make(map[string]user, len(items))
	for _, u := range items {
		out[u.ID] = u
	}
	return out
}

func tweetsByID(items []tweet) map[string]tweet {
	out := make(map[string]tweet, len(items))
	for _, t := range items {
		out[t.ID] = t
	}
	return out
}
