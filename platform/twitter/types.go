package twitter

import "time"

// Wire types for the subset of the API v2 response shapes the adapter
// consumes.

type tweet struct {
	ID              string     `json:"id"`
	Text            string     `json:"text"`
	CreatedAt       time.Time  `json:"created_at"`
	AuthorID        string     `json:"author_id"`
	Entities        *entities  `json:"entities,omitempty"`
	Attachments     *struct {
		MediaKeys []string `json:"media_keys,omitempty"`
		PollIDs   []string `json:"poll_ids,omitempty"`
	} `json:"attachments,omitempty"`
	PublicMetrics *struct {
		RetweetCount    int `json:"retweet_count"`
		ReplyCount      int `json:"reply_count"`
		LikeCount       int `json:"like_count"`
		QuoteCount      int `json:"quote_count"`
		ImpressionCount int `json:"impression_count"`
	} `json:"public_metrics,omitempty"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets,omitempty"`
}

type entities struct {
	Hashtags []struct {
		Tag string `json:"tag"`
	} `json:"hashtags,omitempty"`
	Mentions []struct {
		Username string `json:"username"`
	} `json:"mentions,omitempty"`
	URLs []struct {
		ExpandedURL string `json:"expanded_url"`
	} `json:"urls,omitempty"`
}

type mediaObject struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url,omitempty"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	DurationMs      int    `json:"duration_ms,omitempty"`
}

type user struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	Description     string    `json:"description,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
	PublicMetrics   *struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
	} `json:"public_metrics,omitempty"`
}

type includes struct {
	Media  []mediaObject `json:"media,omitempty"`
	Users  []user        `json:"users,omitempty"`
	Tweets []tweet       `json:"tweets,omitempty"`
}

type timelineResponse struct {
	Data     []tweet  `json:"data"`
	Includes includes `json:"includes"`
	Meta     struct {
		NextToken   string `json:"next_token,omitempty"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

type singleTweetResponse struct {
	Data     tweet    `json:"data"`
	Includes includes `json:"includes"`
}

type userResponse struct {
	Data user `json:"data"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type deleteTweetResponse struct {
	Data struct {
		Deleted bool `json:"deleted"`
	} `json:"data"`
}
