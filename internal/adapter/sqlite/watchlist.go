package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// Compile-time check: WatchlistRepository implements domain.WatchlistRepository.
var _ domain.WatchlistRepository = (*WatchlistRepository)(nil)

// WatchlistRepository implements domain.WatchlistRepository using SQLite.
// Specifications are translated to SQL through their predicate tree.
type WatchlistRepository struct {
	store *Store
}

const watchlistSelect = `SELECT id, user_id, tmdb_id, title, poster_path, release_year, status,
       rating, notes, added_at, updated_at, watched_at
FROM watchlist_items`

func (r *WatchlistRepository) Create(ctx context.Context, item domain.WatchlistItem) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO watchlist_items (id, user_id, tmdb_id, title, poster_path, release_year, status,
		                              rating, notes, added_at, updated_at, watched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.TmdbID, item.Title, item.PosterPath, item.ReleaseYear,
		string(item.Status), nullInt(item.Rating), item.Notes,
		formatTime(item.AddedAt), formatTime(item.UpdatedAt), formatNullTime(item.WatchedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Resource: "watchlist item", Field: "tmdb_id", Value: strconv.Itoa(item.TmdbID)}
		}
		return fmt.Errorf("inserting watchlist item: %w", err)
	}
	return nil
}

func (r *WatchlistRepository) GetByID(ctx context.Context, id string) (domain.WatchlistItem, error) {
	item, err := scanItem(r.store.conn(ctx).QueryRowContext(ctx, watchlistSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WatchlistItem{}, domain.ErrNotFound
	}
	return item, err
}

// Find returns the items satisfying spec, most recently added first.
func (r *WatchlistRepository) Find(ctx context.Context, spec domain.Specification[domain.WatchlistItem]) ([]domain.WatchlistItem, error) {
	where, args, err := whereClause(spec.Predicate(), watchlistColumns)
	if err != nil {
		return nil, err
	}

	rows, err := r.store.conn(ctx).QueryContext(ctx,
		watchlistSelect+` WHERE `+where+` ORDER BY added_at DESC, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist items: %w", err)
	}
	defer rows.Close()

	var items []domain.WatchlistItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *WatchlistRepository) Exists(ctx context.Context, spec domain.Specification[domain.WatchlistItem]) (bool, error) {
	where, args, err := whereClause(spec.Predicate(), watchlistColumns)
	if err != nil {
		return false, err
	}

	var exists bool
	err = r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlist_items WHERE `+where+`)`, args...,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking watchlist items: %w", err)
	}
	return exists, nil
}

func (r *WatchlistRepository) Update(ctx context.Context, item domain.WatchlistItem) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`UPDATE watchlist_items SET status = ?, rating = ?, notes = ?, updated_at = ?, watched_at = ?
		 WHERE id = ?`,
		string(item.Status), nullInt(item.Rating), item.Notes,
		formatTime(item.UpdatedAt), formatNullTime(item.WatchedAt), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating watchlist item: %w", err)
	}
	return expectRow(result)
}

func (r *WatchlistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.store.conn(ctx).ExecContext(ctx, `DELETE FROM watchlist_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting watchlist item: %w", err)
	}
	return expectRow(result)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domain.WatchlistItem, error) {
	var item domain.WatchlistItem
	var status, addedAt, updatedAt string
	var rating sql.NullInt64
	var watchedAt sql.NullString

	err := s.Scan(
		&item.ID, &item.UserID, &item.TmdbID, &item.Title, &item.PosterPath, &item.ReleaseYear,
		&status, &rating, &item.Notes, &addedAt, &updatedAt, &watchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WatchlistItem{}, err
	}
	if err != nil {
		return domain.WatchlistItem{}, fmt.Errorf("scanning watchlist item: %w", err)
	}

	item.Status = domain.WatchStatus(status)
	if rating.Valid {
		score := int(rating.Int64)
		item.Rating = &score
	}
	item.AddedAt = parseTime(addedAt)
	item.UpdatedAt = parseTime(updatedAt)
	item.WatchedAt = parseNullTime(watchedAt)
	return item, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func expectRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
