// Package sqlite provides the SQLite-backed item catalog.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/hotrank/internal/adapters/catalog/sqlite/migrations"
	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/internal/domain/ranking"
)

const summaryColumns = `id, title, original_title, year, genres, created_at, rating, rating_count, watched_count`

// Store persists catalog items, ratings and watches in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ ranking.CatalogReader = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite catalog at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Name identifies the backend in logs and stats.
func (s *Store) Name() string { return "sqlite" }

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// FetchByIDs returns the items among ids that exist, in no particular order.
func (s *Store) FetchByIDs(ctx context.Context, ids []model.ItemID) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = int64(id)
	}
	query := `SELECT ` + summaryColumns + ` FROM item_summaries WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch items by id: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0, len(ids))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// FetchTopByDurableCount returns up to limit items ordered by watch count,
// then rating count, then average rating, then id.
func (s *Store) FetchTopByDurableCount(ctx context.Context, limit int) ([]model.CountedItem, error) {
	if limit <= 0 {
		return []model.CountedItem{}, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM item_summaries
		 ORDER BY watched_count DESC, rating_count DESC, rating DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch most watched: %w", err)
	}
	defer rows.Close()

	out := make([]model.CountedItem, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, model.CountedItem{Item: it, Count: it.WatchedCount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return out, nil
}

// FetchByID returns one item or ErrNotFound.
func (s *Store) FetchByID(ctx context.Context, id model.ItemID) (model.Item, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM item_summaries WHERE id = ?`, int64(id))
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrNotFound
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("fetch item %d: %w", id, err)
	}
	return it, nil
}

// Count returns the number of items in the catalog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// InsertItem adds one item. Aggregate fields on it are ignored.
func (s *Store) InsertItem(ctx context.Context, it model.Item) error {
	if !it.ID.Valid() {
		return fmt.Errorf("%w: id must be positive", ErrInvalidItem)
	}
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidItem)
	}
	createdAt := it.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO items (id, title, original_title, year, genres, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		int64(it.ID),
		title,
		strings.TrimSpace(it.OriginalTitle),
		it.Year,
		strings.TrimSpace(it.Genres),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// AddRating records or replaces userID's rating of id.
func (s *Store) AddRating(ctx context.Context, id model.ItemID, userID string, score float64) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidItem)
	}
	if score < 0 || score > 10 {
		return fmt.Errorf("%w: rating must be within [0, 10]", ErrInvalidItem)
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO ratings (item_id, user_id, score, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (item_id, user_id) DO UPDATE SET score = excluded.score, created_at = excluded.created_at`,
		int64(id), userID, score, toMillis(time.Now()),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("add rating: %w", err)
	}
	return nil
}

// MarkWatched records that userID watched id. Repeat marks are ignored.
func (s *Store) MarkWatched(ctx context.Context, id model.ItemID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidItem)
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO watches (item_id, user_id, created_at) VALUES (?, ?, ?)`,
		int64(id), userID, toMillis(time.Now()),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("mark watched: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var (
		it        model.Item
		id        int64
		createdAt int64
	)
	if err := row.Scan(
		&id,
		&it.Title,
		&it.OriginalTitle,
		&it.Year,
		&it.Genres,
		&createdAt,
		&it.Rating,
		&it.RatingCount,
		&it.WatchedCount,
	); err != nil {
		return model.Item{}, err
	}
	it.ID = model.ItemID(id)
	it.CreatedAt = fromMillis(createdAt)
	return it, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
