// Package store persists content blocks in SQLite.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"site-admin/pkg/models"
)

var ErrNotFound = errors.New("store: block not found")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath. ":memory:" works for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared and serializes writes
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS content_blocks (
			id TEXT NOT NULL UNIQUE,
			subtype TEXT NOT NULL,
			mode TEXT NOT NULL,
			block_key TEXT NOT NULL,
			block_values TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (subtype, mode, block_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_content_blocks_updated ON content_blocks(updated_at)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init tables: %w", err)
		}
	}
	return nil
}

// Get loads one block.
func (s *Store) Get(ctx context.Context, subtype, mode, key string) (*models.Block, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subtype, mode, block_key, block_values, created_at, updated_at
		 FROM content_blocks WHERE subtype = ? AND mode = ? AND block_key = ?`,
		subtype, mode, key)
	b, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// Put upserts a block, assigning an id on first save. The stored block is
// returned.
func (s *Store) Put(ctx context.Context, subtype, mode, key string, values interface{}) (*models.Block, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode values: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO content_blocks (id, subtype, mode, block_key, block_values, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subtype, mode, block_key) DO UPDATE SET
		   block_values = excluded.block_values,
		   updated_at = excluded.updated_at`,
		newID(), subtype, mode, key, string(data), now, now)
	if err != nil {
		return nil, fmt.Errorf("save block %s/%s/%s: %w", subtype, mode, key, err)
	}
	return s.Get(ctx, subtype, mode, key)
}

// Delete removes a block. A non-empty id must match the stored one.
func (s *Store) Delete(ctx context.Context, subtype, mode, key, id string) error {
	query := `DELETE FROM content_blocks WHERE subtype = ? AND mode = ? AND block_key = ?`
	args := []interface{}{subtype, mode, key}
	if id != "" {
		query += ` AND id = ?`
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every block without values, most recently updated first.
func (s *Store) List(ctx context.Context) ([]models.Block, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subtype, mode, block_key, created_at, updated_at
		 FROM content_blocks ORDER BY updated_at DESC, block_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		var b models.Block
		if err := rows.Scan(&b.ID, &b.Subtype, &b.Mode, &b.Key, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row scanner) (*models.Block, error) {
	var (
		b   models.Block
		raw string
	)
	if err := row.Scan(&b.ID, &b.Subtype, &b.Mode, &b.Key, &raw, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &b.Values); err != nil {
		return nil, fmt.Errorf("decode values of %s: %w", b.ID, err)
	}
	return &b, nil
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
