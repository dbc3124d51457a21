package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/cinelist/internal/domain"
)

func TestNewWatchlistItem(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	movie := domain.Movie{TmdbID: 550, Title: "Fight Club", PosterPath: "/p.jpg", ReleaseDate: "1999-10-15"}

	item := domain.NewWatchlistItem("i-1", "u-1", movie, domain.StatusPlanned, now)

	if item.TmdbID != 550 {
		t.Errorf("TmdbID = %d, want %d", item.TmdbID, 550)
	}
	if item.Title != "Fight Club" {
		t.Errorf("Title = %q, want %q", item.Title, "Fight Club")
	}
	if item.ReleaseYear != 1999 {
		t.Errorf("ReleaseYear = %d, want %d", item.ReleaseYear, 1999)
	}
	if item.Status != domain.StatusPlanned {
		t.Errorf("Status = %q, want %q", item.Status, domain.StatusPlanned)
	}
	if !item.AddedAt.Equal(now) || !item.UpdatedAt.Equal(now) {
		t.Errorf("AddedAt/UpdatedAt = %v/%v, want %v", item.AddedAt, item.UpdatedAt, now)
	}
	if item.WatchedAt != nil {
		t.Errorf("WatchedAt = %v, want nil", item.WatchedAt)
	}
}

func TestNewWatchlistItem_WatchedStampsWatchedAt(t *testing.T) {
	now := time.Now().UTC()
	item := domain.NewWatchlistItem("i-1", "u-1", domain.Movie{TmdbID: 1}, domain.StatusWatched, now)
	if item.WatchedAt == nil || !item.WatchedAt.Equal(now) {
		t.Errorf("WatchedAt = %v, want %v", item.WatchedAt, now)
	}
}

func TestMovie_ReleaseYear(t *testing.T) {
	cases := map[string]int{
		"2010-07-16": 2010,
		"":           0,
		"19":         0,
		"abcd-01-01": 0,
	}
	for date, want := range cases {
		if got := (domain.Movie{ReleaseDate: date}).ReleaseYear(); got != want {
			t.Errorf("ReleaseYear(%q) = %d, want %d", date, got, want)
		}
	}
}

func TestMovie_HasSupplemental(t *testing.T) {
	if (domain.Movie{}).HasSupplemental() {
		t.Error("movie without cast and videos should not have supplemental data")
	}
	if (domain.Movie{Cast: []domain.CastMember{}}).HasSupplemental() {
		t.Error("movie without videos should not have supplemental data")
	}
	if !(domain.Movie{Cast: []domain.CastMember{}, Videos: []domain.Video{}}).HasSupplemental() {
		t.Error("empty but fetched cast and videos should count as supplemental data")
	}
}

func TestStatusTransitions_AllEventsHaveEntries(t *testing.T) {
	events := []domain.StatusEvent{
		domain.EventStart,
		domain.EventFinish,
		domain.EventDrop,
		domain.EventRequeue,
	}

	for _, event := range events {
		found := false
		for _, tr := range domain.StatusTransitions {
			if tr.Event == event {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("event %q has no transition defined", event)
		}
	}
}

func TestStatusTransitions_InvalidPaths(t *testing.T) {
	invalid := []struct {
		event domain.StatusEvent
		src   domain.WatchStatus
	}{
		{domain.EventDrop, domain.StatusDropped},
		{domain.EventRequeue, domain.StatusPlanned},
		{domain.EventFinish, domain.StatusWatched},
		{domain.EventFinish, domain.StatusDropped},
		{domain.EventStart, domain.StatusWatching},
	}

	for _, tc := range invalid {
		for _, tr := range domain.StatusTransitions {
			if tr.Event == tc.event && tr.Src == tc.src {
				t.Errorf("unexpected transition: %q from %q should not exist", tc.event, tc.src)
			}
		}
	}
}

func TestEventTo(t *testing.T) {
	cases := map[domain.WatchStatus]domain.StatusEvent{
		domain.StatusWatching: domain.EventStart,
		domain.StatusWatched:  domain.EventFinish,
		domain.StatusDropped:  domain.EventDrop,
		domain.StatusPlanned:  domain.EventRequeue,
	}
	for status, want := range cases {
		got, ok := domain.EventTo(status)
		if !ok || got != want {
			t.Errorf("EventTo(%q) = %q, %v, want %q", status, got, ok, want)
		}
	}
	if _, ok := domain.EventTo("binged"); ok {
		t.Error("EventTo(binged) should not resolve")
	}
}

func TestWatchStatus_Valid(t *testing.T) {
	for _, s := range domain.WatchStatuses {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if domain.WatchStatus("binged").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestCountWatchlist(t *testing.T) {
	items := []domain.WatchlistItem{
		{Status: domain.StatusPlanned},
		{Status: domain.StatusPlanned},
		{Status: domain.StatusWatched},
		{Status: domain.StatusDropped},
	}
	got := domain.CountWatchlist(items)
	want := domain.WatchlistStats{Total: 4, Planned: 2, Watched: 1, Dropped: 1}
	if got != want {
		t.Errorf("CountWatchlist = %+v, want %+v", got, want)
	}
}

func TestRefreshToken_Active(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	cases := []struct {
		name  string
		token domain.RefreshToken
		want  bool
	}{
		{"valid", domain.RefreshToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", domain.RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"revoked", domain.RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}
	for _, tc := range cases {
		if got := tc.token.Active(now); got != tc.want {
			t.Errorf("%s: Active = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEventNames_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range domain.EventNames() {
		if seen[name] {
			t.Errorf("duplicate event name %q", name)
		}
		seen[name] = true
	}
	if len(seen) != 5 {
		t.Errorf("got %d event names, want 5", len(seen))
	}
}
