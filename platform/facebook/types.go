package facebook

// Wire types for the subset of the Graph API response shapes the adapter
// consumes.

type post struct {
	ID           string `json:"id"`
	Message      string `json:"message,omitempty"`
	CreatedTime  string `json:"created_time"`
	UpdatedTime  string `json:"updated_time,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`
	From         *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from,omitempty"`
	Shares *struct {
		Count int `json:"count"`
	} `json:"shares,omitempty"`
	Likes       *summaryField `json:"likes,omitempty"`
	Comments    *summaryField `json:"comments,omitempty"`
	Attachments *struct {
		Data []attachment `json:"data"`
	} `json:"attachments,omitempty"`
}

type summaryField struct {
	Summary struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

type attachment struct {
	Type           string     `json:"type,omitempty"`
	MediaType      string     `json:"media_type,omitempty"`
	Title          string     `json:"title,omitempty"`
	URL            string     `json:"url,omitempty"`
	Media          *mediaData `json:"media,omitempty"`
	Subattachments *struct {
		Data []attachment `json:"data"`
	} `json:"subattachments,omitempty"`
}

type mediaData struct {
	Image *struct {
		Src    string `json:"src"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
	} `json:"image,omitempty"`
	Source string `json:"source,omitempty"`
}

type feedResponse struct {
	Data   []post `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after,omitempty"`
		} `json:"cursors"`
	} `json:"paging"`
}

type page struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Username           string `json:"username,omitempty"`
	About              string `json:"about,omitempty"`
	Link               string `json:"link,omitempty"`
	FanCount           int    `json:"fan_count,omitempty"`
	FollowersCount     int    `json:"followers_count,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
	CreatedTime        string `json:"created_time,omitempty"`
	Picture            *struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture,omitempty"`
	Cover *struct {
		Source string `json:"source,omitempty"`
	} `json:"cover,omitempty"`
}

type publishResponse struct {
	ID string `json:"id"`
}

type photoResponse struct {
	ID string `json:"id"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// insightsResponse values arrive loosely typed; only integer metrics are
// consumed.
type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int `json:"value"`
		} `json:"values"`
	} `json:"data"`
}
