package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cityzenmag/socialhub/aggregator"
	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
)

type stubAdapter struct {
	platform   model.Platform
	posts      []model.UnifiedPost
	fetchErr   error
	publishErr error
}

func (s *stubAdapter) Platform() model.Platform { return s.platform }

func (s *stubAdapter) Authenticate(ctx context.Context) (bool, error) { return true, nil }

func (s *stubAdapter) FetchPosts(ctx context.Context, opts model.FetchOptions) ([]model.UnifiedPost, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.posts, nil
}

func (s *stubAdapter) FetchProfile(ctx context.Context, id string) (model.UnifiedProfile, error) {
	return model.UnifiedProfile{Platform: s.platform}, nil
}

func (s *stubAdapter) PublishPost(ctx context.Context, content model.PostContent) (model.UnifiedPost, error) {
	if s.publishErr != nil {
		return model.UnifiedPost{}, s.publishErr
	}
	return model.UnifiedPost{ID: "new", Platform: s.platform, Content: content.Text}, nil
}

func (s *stubAdapter) DeletePost(ctx context.Context, id string) (bool, error) { return true, nil }

func (s *stubAdapter) Analytics(ctx context.Context, period model.Period) (model.PlatformAnalytics, error) {
	return model.PlatformAnalytics{Platform: s.platform, Period: period, TotalPosts: len(s.posts)}, nil
}

func newTestServer(adapters ...platform.Adapter) *Server {
	return New(aggregator.New(nil, adapters...), nil)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubAdapter{platform: model.PlatformTwitter})

	w := doRequest(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Status    string `json:"status"`
		Platforms int    `json:"platforms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Status != "ok" || resp.Platforms != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestPostsEndpointMergesPlatforms(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	s := newTestServer(
		&stubAdapter{platform: model.PlatformTwitter, posts: []model.UnifiedPost{
			{ID: "t1", Platform: model.PlatformTwitter, CreatedAt: older},
		}},
		&stubAdapter{platform: model.PlatformFacebook, posts: []model.UnifiedPost{
			{ID: "f1", Platform: model.PlatformFacebook, CreatedAt: newer},
		}},
	)

	w := doRequest(t, s, http.MethodGet, "/api/posts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Posts  []model.UnifiedPost `json:"posts"`
		Cached bool                `json:"cached"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Posts) != 2 || resp.Posts[0].ID != "f1" {
		t.Errorf("posts = %+v, want newest first across platforms", resp.Posts)
	}
	if resp.Cached {
		t.Error("nil cache must never report a hit")
	}
}

func TestPostsEndpointPartialFailureStays200(t *testing.T) {
	s := newTestServer(
		&stubAdapter{platform: model.PlatformTwitter, posts: []model.UnifiedPost{
			{ID: "t1", Platform: model.PlatformTwitter, CreatedAt: time.Now()},
		}},
		&stubAdapter{platform: model.PlatformYouTube,
			fetchErr: platform.Errorf(model.PlatformYouTube, "fetch_posts", platform.KindTransport, "down")},
	)

	w := doRequest(t, s, http.MethodGet, "/api/posts/all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("partial failure must stay 200, got %d", w.Code)
	}

	var resp struct {
		Posts  map[model.Platform][]model.UnifiedPost `json:"posts"`
		Status map[model.Platform]model.SyncStatus    `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Posts[model.PlatformYouTube]) != 0 {
		t.Errorf("failed platform posts = %v", resp.Posts[model.PlatformYouTube])
	}
	if resp.Status[model.PlatformYouTube].Status != model.SyncError {
		t.Errorf("failed platform status = %s", resp.Status[model.PlatformYouTube].Status)
	}
}

func TestPublishEndpoint(t *testing.T) {
	s := newTestServer(
		&stubAdapter{platform: model.PlatformTwitter},
		&stubAdapter{platform: model.PlatformYouTube,
			publishErr: platform.Errorf(model.PlatformYouTube, "publish",
				platform.KindNotImplemented, "no direct posting")},
	)

	body := `{"platforms":["twitter","youtube"],"text":"hello"}`
	w := doRequest(t, s, http.MethodPost, "/api/publish", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results map[model.Platform]struct {
			Post  *model.UnifiedPost `json:"post"`
			Error string             `json:"error"`
			Kind  string             `json:"kind"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Results[model.PlatformTwitter].Post == nil {
		t.Error("twitter should carry the created post")
	}
	if resp.Results[model.PlatformYouTube].Kind != "not_implemented" {
		t.Errorf("youtube kind = %q", resp.Results[model.PlatformYouTube].Kind)
	}
}

func TestPublishEndpointRejectsMissingText(t *testing.T) {
	s := newTestServer(&stubAdapter{platform: model.PlatformTwitter})

	w := doRequest(t, s, http.MethodPost, "/api/publish", `{"platforms":["twitter"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyticsEndpointInvalidPeriod(t *testing.T) {
	s := newTestServer(&stubAdapter{platform: model.PlatformTwitter})

	w := doRequest(t, s, http.MethodGet, "/api/analytics?period=decade", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := newTestServer(&stubAdapter{platform: model.PlatformTwitter,
		posts: []model.UnifiedPost{{ID: "t1", Platform: model.PlatformTwitter}}})

	w := doRequest(t, s, http.MethodGet, "/api/analytics?period=month", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp model.AggregatedAnalytics
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Period != model.PeriodMonth || resp.TotalPosts != 1 {
		t.Errorf("analytics = %+v", resp)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(&stubAdapter{platform: model.PlatformTwitter})

	w := doRequest(t, s, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Status map[model.Platform]model.SyncStatus `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Status[model.PlatformTwitter].Status != model.SyncPending {
		t.Errorf("initial status = %+v", resp.Status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(&stubAdapter{platform: model.PlatformTwitter})

	w := doRequest(t, s, http.MethodGet, "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client value echoed", got)
	}
}
