package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	pos        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	UNIQUE (collection, id)
)`

// OpenSQLite opens (or creates) the database at path and prepares the
// records table. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only tolerates one writer; a single connection also keeps
	// ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, recordsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// SQLite keeps one collection as JSON rows of the shared records table.
type SQLite[T Record[T]] struct {
	mu         sync.Mutex
	db         *sql.DB
	collection string
	ids        IDGenerator
	log        zerolog.Logger
}

// NewSQLite binds collection to db and feeds existing ids to the generator.
func NewSQLite[T Record[T]](ctx context.Context, db *sql.DB, collection string, ids IDGenerator, logger zerolog.Logger) (*SQLite[T], error) {
	s := &SQLite[T]{db: db, collection: collection, ids: ids, log: logger}

	rows, err := db.QueryContext(ctx, `SELECT id FROM records WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("load ids for %s: %w", collection, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids.Observe(id)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.Info().Int("count", count).Msg("collection loaded")
	return s, nil
}

func (s *SQLite[T]) Create(ctx context.Context, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	id := s.ids.Next()
	for {
		taken, err := s.exists(ctx, id)
		if err != nil {
			return zero, err
		}
		if !taken {
			break
		}
		id = s.ids.Next()
	}

	item = item.WithID(id)
	body, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("encode record %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (collection, id, body) VALUES (?, ?, ?)`,
		s.collection, id, string(body))
	if err != nil {
		return zero, fmt.Errorf("insert record %s: %w", id, err)
	}
	return item, nil
}

func (s *SQLite[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM records WHERE collection = ? AND id = ?`,
		s.collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return item, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return item, fmt.Errorf("query record %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return item, fmt.Errorf("decode record %s: %w: %v", id, ErrParse, err)
	}
	return item, nil
}

func (s *SQLite[T]) List(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM records WHERE collection = ? ORDER BY pos`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collection, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var item T
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("skipping undecodable record row")
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLite[T]) Update(ctx context.Context, id string, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	item = item.WithID(id)
	body, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("encode record %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET body = ? WHERE collection = ? AND id = ?`,
		string(body), s.collection, id)
	if err != nil {
		return zero, fmt.Errorf("update record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zero, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	return item, nil
}

func (s *SQLite[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, s.collection, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite[T]) exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE collection = ? AND id = ?`, s.collection, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query record %s: %w", id, err)
	}
	return true, nil
}
