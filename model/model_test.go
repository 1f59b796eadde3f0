package model

import (
	"testing"
	"time"
)

func TestPlatformValid(t *testing.T) {
	for _, p := range []Platform{PlatformTwitter, PlatformYouTube, PlatformFacebook} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Platform("myspace").Valid() {
		t.Error("unknown platform should be invalid")
	}
	if Platform("").Valid() {
		t.Error("empty platform should be invalid")
	}
}

func TestEngagementExcludesViews(t *testing.T) {
	post := UnifiedPost{Metrics: Metrics{Likes: 3, Shares: 2, Comments: 1, Views: 10000}}
	if got := post.Engagement(); got != 6 {
		t.Errorf("Engagement = %d, want 6 (views excluded)", got)
	}
}

func TestPeriodValid(t *testing.T) {
	for _, p := range []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Period("fortnight").Valid() {
		t.Error("unknown period should be invalid")
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodDay, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)},
		{PeriodWeek, time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)},
		{PeriodYear, time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		if got := tc.period.Start(now); !got.Equal(tc.want) {
			t.Errorf("%s.Start = %v, want %v", tc.period, got, tc.want)
		}
	}
}
