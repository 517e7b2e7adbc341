package client

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache keeps the last fetched item listing for offline viewing.
// Passwords are deliberately not cached; only the server holds those.
type SQLiteCache struct {
	db *sql.DB
}

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	cache := &SQLiteCache{db: db}
	if err := cache.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache tables: %w", err)
	}
	return cache, nil
}

func (s *SQLiteCache) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			domain TEXT NOT NULL,
			username TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			fetched_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_domain ON items(domain);
	`)
	return err
}

// ReplaceAll swaps the cached listing for a fresh one.
func (s *SQLiteCache) ReplaceAll(items []Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	now := time.Now()
	for _, item := range items {
		if item.DecryptError != "" {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO items (id, domain, username, created_at, updated_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.Domain, item.Username, item.CreatedAt, item.UpdatedAt, now)
		if err != nil {
			return fmt.Errorf("cache item: %w", err)
		}
	}

	return tx.Commit()
}

// List returns the cached listing, newest first.
func (s *SQLiteCache) List() ([]Item, error) {
	rows, err := s.db.Query(`
		SELECT id, domain, username, created_at, updated_at
		FROM items
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ID, &item.Domain, &item.Username,
			&item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan cached item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
