package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a state change, fanned out to subscribers
// after the change commits.
type Event interface {
	EventID() uuid.UUID
	OccurredAt() time.Time
	EventName() string
}

// EventHeader carries the identity shared by every event.
type EventHeader struct {
	ID uuid.UUID `json:"event_id"`
	At time.Time `json:"occurred_at"`
}

// NewEventHeader stamps a fresh event identity at the given time.
func NewEventHeader(at time.Time) EventHeader {
	return EventHeader{ID: uuid.New(), At: at.UTC()}
}

// EventID implements Event.
func (h EventHeader) EventID() uuid.UUID { return h.ID }

// OccurredAt implements Event.
func (h EventHeader) OccurredAt() time.Time { return h.At }

// UserRegistered is raised when an account is created.
type UserRegistered struct {
	EventHeader
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (UserRegistered) EventName() string { return "user.registered" }

// UserLoggedIn is raised on every successful login.
type UserLoggedIn struct {
	EventHeader
	UserID string `json:"user_id"`
}

func (UserLoggedIn) EventName() string { return "user.logged_in" }

// MovieAddedToWatchlist is raised when an item is created.
type MovieAddedToWatchlist struct {
	EventHeader
	ItemID string      `json:"item_id"`
	UserID string      `json:"user_id"`
	TmdbID int         `json:"tmdb_id"`
	Title  string      `json:"title"`
	Status WatchStatus `json:"status"`
}

func (MovieAddedToWatchlist) EventName() string { return "watchlist.item_added" }

// WatchlistItemUpdated is raised after any change to an item.
type WatchlistItemUpdated struct {
	EventHeader
	ItemID         string      `json:"item_id"`
	UserID         string      `json:"user_id"`
	PreviousStatus WatchStatus `json:"previous_status"`
	Status         WatchStatus `json:"status"`
	Rating         *int        `json:"rating,omitempty"`
}

func (WatchlistItemUpdated) EventName() string { return "watchlist.item_updated" }

// WatchlistItemRemoved is raised when an item is deleted.
type WatchlistItemRemoved struct {
	EventHeader
	ItemID string `json:"item_id"`
	UserID string `json:"user_id"`
	TmdbID int    `json:"tmdb_id"`
}

func (WatchlistItemRemoved) EventName() string { return "watchlist.item_removed" }

// Compile-time check: every domain event implements Event.
var (
	_ Event = UserRegistered{}
	_ Event = UserLoggedIn{}
	_ Event = MovieAddedToWatchlist{}
	_ Event = WatchlistItemUpdated{}
	_ Event = WatchlistItemRemoved{}
)

// EventNames lists the name of every event the domain raises.
func EventNames() []string {
	return []string{
		UserRegistered{}.EventName(),
		UserLoggedIn{}.EventName(),
		MovieAddedToWatchlist{}.EventName(),
		WatchlistItemUpdated{}.EventName(),
		WatchlistItemRemoved{}.EventName(),
	}
}
