package platform

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cityzenmag/socialhub/model"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindTransport},
		{http.StatusBadGateway, KindTransport},
		{http.StatusBadRequest, KindTransport},
	}

	for _, tc := range tests {
		if got := ClassifyStatus(tc.code); got != tc.want {
			t.Errorf("ClassifyStatus(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	classified := Errorf(model.PlatformTwitter, "fetch_posts", KindRateLimit, "window exhausted")
	wrapped := fmt.Errorf("calling adapter: %w", classified)

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified error", classified, KindRateLimit},
		{"wrapped classified error", wrapped, KindRateLimit},
		{"plain error", errors.New("boom"), KindTransport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := NewError(model.PlatformYouTube, "publish", KindNotImplemented, errors.New("publish requires OAuth"))

	if !IsKind(err, KindNotImplemented) {
		t.Error("IsKind should match the error's own kind")
	}
	if IsKind(err, KindAuth) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindTransport) {
		t.Error("IsKind should not match unclassified errors")
	}
}

func TestErrorString(t *testing.T) {
	err := Errorf(model.PlatformFacebook, "delete_post", KindNotFound, "post %s gone", "123")
	want := "facebook: delete_post: not_found: post 123 gone"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewError(model.PlatformTwitter, "fetch_posts", KindTransport, inner)
	if !errors.Is(err, inner) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}
