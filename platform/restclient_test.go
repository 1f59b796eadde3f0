package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cityzenmag/socialhub/model"
)

func TestDoJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Write([]byte(`{"id":"42","name":"cityzen"}`))
	}))
	defer srv.Close()

	c := NewRESTClient(model.PlatformTwitter, 0)
	c.Header.Set("Authorization", "Bearer token123")

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, "", &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.ID != "42" || out.Name != "cityzen" {
		t.Errorf("decoded = %+v", out)
	}
}

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewRESTClient(model.PlatformFacebook, 0)
	if err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, "", nil); err != nil {
		t.Fatalf("DoJSON should succeed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusNotFound, KindNotFound},
	}

	for _, tc := range tests {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(tc.code)
		}))

		c := NewRESTClient(model.PlatformTwitter, 0)
		err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, "", nil)
		srv.Close()

		if !IsKind(err, tc.want) {
			t.Errorf("status %d: kind = %q, want %q", tc.code, KindOf(err), tc.want)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("status %d retried %d times, want a single attempt", tc.code, got)
		}
	}
}

func TestDoJSONMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewRESTClient(model.PlatformTwitter, 0)
	var out map[string]any
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, "", &out)
	if !IsKind(err, KindTransport) {
		t.Errorf("malformed body kind = %q, want %q", KindOf(err), KindTransport)
	}
}
