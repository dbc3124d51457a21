package domain

import (
	"strings"
	"time"
)

// WatchStatus is where a movie sits in a user's viewing lifecycle.
type WatchStatus string

const (
	StatusPlanned  WatchStatus = "planned"
	StatusWatching WatchStatus = "watching"
	StatusWatched  WatchStatus = "watched"
	StatusDropped  WatchStatus = "dropped"
)

// WatchStatuses lists every valid status in display order.
var WatchStatuses = []WatchStatus{StatusPlanned, StatusWatching, StatusWatched, StatusDropped}

// Valid reports whether s is a known status.
func (s WatchStatus) Valid() bool {
	for _, v := range WatchStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusEvent is an action that moves a watchlist item between statuses.
type StatusEvent string

const (
	EventStart   StatusEvent = "start"
	EventFinish  StatusEvent = "finish"
	EventDrop    StatusEvent = "drop"
	EventRequeue StatusEvent = "requeue"
)

// StatusTransition defines a valid change: an event moves an item from Src to Dst.
type StatusTransition struct {
	Event StatusEvent
	Src   WatchStatus
	Dst   WatchStatus
}

// StatusTransitions defines every valid status change.
// This is domain knowledge consumed by the FSM adapter.
var StatusTransitions = []StatusTransition{
	{Event: EventStart, Src: StatusPlanned, Dst: StatusWatching},
	{Event: EventStart, Src: StatusDropped, Dst: StatusWatching},
	{Event: EventStart, Src: StatusWatched, Dst: StatusWatching},
	{Event: EventFinish, Src: StatusPlanned, Dst: StatusWatched},
	{Event: EventFinish, Src: StatusWatching, Dst: StatusWatched},
	{Event: EventDrop, Src: StatusPlanned, Dst: StatusDropped},
	{Event: EventDrop, Src: StatusWatching, Dst: StatusDropped},
	{Event: EventDrop, Src: StatusWatched, Dst: StatusDropped},
	{Event: EventRequeue, Src: StatusWatching, Dst: StatusPlanned},
	{Event: EventRequeue, Src: StatusDropped, Dst: StatusPlanned},
	{Event: EventRequeue, Src: StatusWatched, Dst: StatusPlanned},
}

// EventTo returns the event whose transitions end in target.
func EventTo(target WatchStatus) (StatusEvent, bool) {
	for _, t := range StatusTransitions {
		if t.Dst == target {
			return t.Event, true
		}
	}
	return "", false
}

// WatchlistItem is a movie on a user's watchlist. Title, PosterPath and
// ReleaseYear are copied from the movie when the item is added.
type WatchlistItem struct {
	ID          string
	UserID      string
	TmdbID      int
	Title       string
	PosterPath  string
	ReleaseYear int
	Status      WatchStatus
	Rating      *int
	Notes       string
	AddedAt     time.Time
	UpdatedAt   time.Time
	WatchedAt   *time.Time
}

// NewWatchlistItem puts movie on a user's list with the given status.
func NewWatchlistItem(id, userID string, movie Movie, status WatchStatus, now time.Time) WatchlistItem {
	now = now.UTC()
	item := WatchlistItem{
		ID:          id,
		UserID:      userID,
		TmdbID:      movie.TmdbID,
		Title:       movie.Title,
		PosterPath:  movie.PosterPath,
		ReleaseYear: movie.ReleaseYear(),
		Status:      status,
		AddedAt:     now,
		UpdatedAt:   now,
	}
	if status == StatusWatched {
		item.WatchedAt = &now
	}
	return item
}

// WatchlistStats counts a user's items per status.
type WatchlistStats struct {
	Total    int
	Planned  int
	Watching int
	Watched  int
	Dropped  int
}

// CountWatchlist tallies items per status.
func CountWatchlist(items []WatchlistItem) WatchlistStats {
	var s WatchlistStats
	for _, item := range items {
		s.Total++
		switch item.Status {
		case StatusPlanned:
			s.Planned++
		case StatusWatching:
			s.Watching++
		case StatusWatched:
			s.Watched++
		case StatusDropped:
			s.Dropped++
		}
	}
	return s
}

// Watchlist fields understood by storage adapters.
const (
	FieldUserID      = "user_id"
	FieldTmdbID      = "tmdb_id"
	FieldStatus      = "status"
	FieldReleaseYear = "release_year"
	FieldTitle       = "title"
	FieldRating      = "rating"
)

// OwnedBy matches items belonging to userID.
func OwnedBy(userID string) Specification[WatchlistItem] {
	return NewSpecification(
		Predicate{Op: OpEquals, Field: FieldUserID, Value: userID},
		func(i WatchlistItem) bool { return i.UserID == userID },
	)
}

// ForMovie matches items referring to the given provider movie.
func ForMovie(tmdbID int) Specification[WatchlistItem] {
	return NewSpecification(
		Predicate{Op: OpEquals, Field: FieldTmdbID, Value: tmdbID},
		func(i WatchlistItem) bool { return i.TmdbID == tmdbID },
	)
}

// HasStatus matches items whose status is status.
func HasStatus(status WatchStatus) Specification[WatchlistItem] {
	return NewSpecification(
		Predicate{Op: OpEquals, Field: FieldStatus, Value: string(status)},
		func(i WatchlistItem) bool { return i.Status == status },
	)
}

// ReleasedBetween matches items released in [from, to]. A zero bound is open.
func ReleasedBetween(from, to int) Specification[WatchlistItem] {
	pred := Predicate{Op: OpRange, Field: FieldReleaseYear}
	if from != 0 {
		pred.Min = from
	}
	if to != 0 {
		pred.Max = to
	}
	return NewSpecification(pred, func(i WatchlistItem) bool {
		if from != 0 && i.ReleaseYear < from {
			return false
		}
		if to != 0 && i.ReleaseYear > to {
			return false
		}
		return true
	})
}

// TitleContains matches titles containing text, ignoring case.
func TitleContains(text string) Specification[WatchlistItem] {
	needle := strings.ToLower(text)
	return NewSpecification(
		Predicate{Op: OpContains, Field: FieldTitle, Value: text},
		func(i WatchlistItem) bool { return strings.Contains(strings.ToLower(i.Title), needle) },
	)
}

// RatedAtLeast matches rated items scoring at least score. Unrated items never match.
func RatedAtLeast(score int) Specification[WatchlistItem] {
	return NewSpecification(
		Predicate{Op: OpRange, Field: FieldRating, Min: score},
		func(i WatchlistItem) bool { return i.Rating != nil && *i.Rating >= score },
	)
}
