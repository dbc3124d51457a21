package app

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/neomorfeo/cinelist/internal/domain"
)

const (
	MsgAlreadyInWatchlist = "Movie already in watchlist"
	MsgItemNotFound       = "Watchlist item not found"
	MsgInvalidStatus      = "Invalid watch status"
	MsgNotesTooLong       = "Notes must not exceed 2000 characters"

	notesMaxLength = 2000
)

// AddToWatchlist puts a movie on the principal's watchlist.
// Adding a movie that is already listed fails instead of updating it.
type AddToWatchlist struct {
	outboundCommand
	TmdbID int
	Status domain.WatchStatus
}

func (AddToWatchlist) RequestName() string { return "watchlist.add" }

// UpdateWatchlistItem changes the status, rating or notes of an item.
// Nil fields are left unchanged.
type UpdateWatchlistItem struct {
	command
	ItemID string
	Status *domain.WatchStatus
	Rating *int
	Notes  *string
}

func (UpdateWatchlistItem) RequestName() string { return "watchlist.update" }

// RemoveFromWatchlist deletes one of the principal's items.
type RemoveFromWatchlist struct {
	command
	ItemID string
}

func (RemoveFromWatchlist) RequestName() string { return "watchlist.remove" }

// GetMyWatchlist lists the principal's items. Zero-valued filters are ignored.
type GetMyWatchlist struct {
	Status   domain.WatchStatus
	YearFrom int
	YearTo   int
	Title    string
	MinScore int
}

func (GetMyWatchlist) RequestName() string { return "watchlist.mine" }

// GetWatchlistStats counts the principal's items per status.
type GetWatchlistStats struct{}

func (GetWatchlistStats) RequestName() string { return "watchlist.stats" }

// WatchlistHandlers implements the watchlist use cases.
type WatchlistHandlers struct {
	items       domain.WatchlistRepository
	catalog     *MovieHandlers
	transitions domain.TransitionValidator
	principal   domain.PrincipalAccessor
	clock       domain.Clock
	uow         domain.UnitOfWork
}

// NewWatchlistHandlers creates the watchlist handlers. catalog resolves movie
// metadata; uow scopes the writes of commands that call the provider.
func NewWatchlistHandlers(
	items domain.WatchlistRepository,
	catalog *MovieHandlers,
	transitions domain.TransitionValidator,
	principal domain.PrincipalAccessor,
	clock domain.Clock,
	uow domain.UnitOfWork,
) *WatchlistHandlers {
	return &WatchlistHandlers{
		items:       items,
		catalog:     catalog,
		transitions: transitions,
		principal:   principal,
		clock:       clock,
		uow:         uow,
	}
}

// Add resolves the movie before opening the unit of work, so a slow provider
// never holds a database transaction. A concurrent duplicate is caught by the
// unique constraint on create.
func (h *WatchlistHandlers) Add(ctx context.Context, req AddToWatchlist) (domain.Result[domain.WatchlistItem], error) {
	userID, ok := h.principal.CurrentUserID(ctx)
	if !ok {
		return domain.Unauthenticated[domain.WatchlistItem](MsgNotAuthenticated), nil
	}

	status := req.Status
	if status == "" {
		status = domain.StatusPlanned
	}
	if !status.Valid() {
		return domain.Failure[domain.WatchlistItem](MsgInvalidStatus), nil
	}

	exists, err := h.items.Exists(ctx, domain.OwnedBy(userID).And(domain.ForMovie(req.TmdbID)))
	if err != nil {
		return domain.Result[domain.WatchlistItem]{}, fmt.Errorf("checking watchlist: %w", err)
	}
	if exists {
		return domain.Conflict[domain.WatchlistItem](MsgAlreadyInWatchlist), nil
	}

	movie, err := h.catalog.Details(ctx, GetMovieDetails{TmdbID: req.TmdbID})
	if err != nil {
		return domain.Result[domain.WatchlistItem]{}, err
	}
	if movie.IsFailure() {
		return domain.FailureOf[domain.WatchlistItem](movie), nil
	}

	now := h.clock.Now()
	item := domain.NewWatchlistItem(newID(), userID, movie.Value(), status, now)
	err = h.uow.Do(ctx, func(ctx context.Context) error {
		return h.items.Create(ctx, item)
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return domain.Conflict[domain.WatchlistItem](MsgAlreadyInWatchlist), nil
		}
		return domain.Result[domain.WatchlistItem]{}, fmt.Errorf("creating watchlist item: %w", err)
	}

	Raise(ctx, domain.MovieAddedToWatchlist{
		EventHeader: domain.NewEventHeader(now),
		ItemID:      item.ID,
		UserID:      userID,
		TmdbID:      item.TmdbID,
		Title:       item.Title,
		Status:      item.Status,
	})
	return domain.Success(item), nil
}

// Update applies the non-nil fields of req. A status change must be a valid
// transition; becoming watched stamps WatchedAt.
func (h *WatchlistHandlers) Update(ctx context.Context, req UpdateWatchlistItem) (domain.Result[domain.WatchlistItem], error) {
	found, err := h.owned(ctx, req.ItemID)
	if err != nil || found.IsFailure() {
		return found, err
	}
	item := found.Value()
	previous := item.Status
	now := h.clock.Now()

	if req.Rating != nil {
		rating := domain.NewRating(*req.Rating)
		if rating.IsFailure() {
			return domain.FailureOf[domain.WatchlistItem](rating), nil
		}
		score := rating.Value().Value()
		item.Rating = &score
	}

	if req.Notes != nil {
		if utf8.RuneCountInString(*req.Notes) > notesMaxLength {
			return domain.Failure[domain.WatchlistItem](MsgNotesTooLong), nil
		}
		item.Notes = *req.Notes
	}

	if req.Status != nil && *req.Status != item.Status {
		event, ok := domain.EventTo(*req.Status)
		if !ok {
			return domain.Failure[domain.WatchlistItem](MsgInvalidStatus), nil
		}
		next, err := h.transitions.Apply(ctx, item.Status, event)
		var trErr *domain.TransitionError
		if errors.As(err, &trErr) {
			return domain.Failure[domain.WatchlistItem](trErr.Error()), nil
		}
		if err != nil {
			return domain.Result[domain.WatchlistItem]{}, fmt.Errorf("applying %q: %w", event, err)
		}
		item.Status = next
		if next == domain.StatusWatched {
			watchedAt := now.UTC()
			item.WatchedAt = &watchedAt
		}
	}

	item.UpdatedAt = now.UTC()
	if err := h.items.Update(ctx, item); err != nil {
		return domain.Result[domain.WatchlistItem]{}, fmt.Errorf("updating watchlist item: %w", err)
	}

	Raise(ctx, domain.WatchlistItemUpdated{
		EventHeader:    domain.NewEventHeader(now),
		ItemID:         item.ID,
		UserID:         item.UserID,
		PreviousStatus: previous,
		Status:         item.Status,
		Rating:         item.Rating,
	})
	return domain.Success(item), nil
}

// Remove deletes an owned item.
func (h *WatchlistHandlers) Remove(ctx context.Context, req RemoveFromWatchlist) (domain.Result[struct{}], error) {
	found, err := h.owned(ctx, req.ItemID)
	if err != nil {
		return domain.Result[struct{}]{}, err
	}
	if found.IsFailure() {
		return domain.FailureOf[struct{}](found), nil
	}
	item := found.Value()

	if err := h.items.Delete(ctx, item.ID); err != nil {
		return domain.Result[struct{}]{}, fmt.Errorf("deleting watchlist item: %w", err)
	}

	Raise(ctx, domain.WatchlistItemRemoved{
		EventHeader: domain.NewEventHeader(h.clock.Now()),
		ItemID:      item.ID,
		UserID:      item.UserID,
		TmdbID:      item.TmdbID,
	})
	return domain.Success(struct{}{}), nil
}

// Mine never fails in an expected way: without a principal it returns an
// empty list.
func (h *WatchlistHandlers) Mine(ctx context.Context, req GetMyWatchlist) ([]domain.WatchlistItem, error) {
	userID, ok := h.principal.CurrentUserID(ctx)
	if !ok {
		return []domain.WatchlistItem{}, nil
	}

	spec := domain.OwnedBy(userID)
	if req.Status != "" {
		spec = spec.And(domain.HasStatus(req.Status))
	}
	if req.YearFrom != 0 || req.YearTo != 0 {
		spec = spec.And(domain.ReleasedBetween(req.YearFrom, req.YearTo))
	}
	if req.Title != "" {
		spec = spec.And(domain.TitleContains(req.Title))
	}
	if req.MinScore != 0 {
		spec = spec.And(domain.RatedAtLeast(req.MinScore))
	}

	items, err := h.items.Find(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	if items == nil {
		items = []domain.WatchlistItem{}
	}
	return items, nil
}

// Stats returns zero counts without a principal.
func (h *WatchlistHandlers) Stats(ctx context.Context, _ GetWatchlistStats) (domain.WatchlistStats, error) {
	userID, ok := h.principal.CurrentUserID(ctx)
	if !ok {
		return domain.WatchlistStats{}, nil
	}
	items, err := h.items.Find(ctx, domain.OwnedBy(userID))
	if err != nil {
		return domain.WatchlistStats{}, fmt.Errorf("counting watchlist: %w", err)
	}
	return domain.CountWatchlist(items), nil
}

// owned loads an item belonging to the principal. Missing items and items
// of other users yield the same not-found failure.
func (h *WatchlistHandlers) owned(ctx context.Context, itemID string) (domain.Result[domain.WatchlistItem], error) {
	userID, ok := h.principal.CurrentUserID(ctx)
	if !ok {
		return domain.Unauthenticated[domain.WatchlistItem](MsgNotAuthenticated), nil
	}

	item, err := h.items.GetByID(ctx, itemID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && item.UserID != userID) {
		return domain.NotFound[domain.WatchlistItem](MsgItemNotFound), nil
	}
	if err != nil {
		return domain.Result[domain.WatchlistItem]{}, fmt.Errorf("loading watchlist item: %w", err)
	}
	return domain.Success(item), nil
}
