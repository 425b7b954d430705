package localstate

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

// Store persists client-side state between runs: the user's endpoint
// override list and the degraded-mode favorites cache.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens (and creates if needed) the state database in dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{
		db:      db,
		dataDir: dataDir,
	}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize state store: %w", err)
	}

	return s, nil
}

// init creates the database schema
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS endpoint_overrides (
		position INTEGER PRIMARY KEY,
		url TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS favorites_cache (
		position INTEGER PRIMARY KEY,
		item_id TEXT NOT NULL UNIQUE,
		item TEXT NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// DataDir returns the directory holding the database.
func (s *Store) DataDir() string {
	return s.dataDir
}

// EndpointOverrides returns the user-configured candidate URLs in priority
// order. An empty slice means no override is set.
func (s *Store) EndpointOverrides() ([]string, error) {
	rows, err := s.db.Query("SELECT url FROM endpoint_overrides ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// SetEndpointOverrides replaces the override list. Blank entries are dropped.
func (s *Store) SetEndpointOverrides(urls []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM endpoint_overrides"); err != nil {
		return err
	}

	now := time.Now()
	pos := 0
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO endpoint_overrides (position, url, updated_at) VALUES (?, ?, ?)",
			pos, u, now,
		); err != nil {
			return fmt.Errorf("insert override %s: %w", u, err)
		}
		pos++
	}

	return tx.Commit()
}

// ClearEndpointOverrides removes the override list.
func (s *Store) ClearEndpointOverrides() error {
	_, err := s.db.Exec("DELETE FROM endpoint_overrides")
	return err
}

// SaveFavorites replaces the cached favorites with items.
func (s *Store) SaveFavorites(items []models.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM favorites_cache"); err != nil {
		return err
	}

	now := time.Now()
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal favorite %s: %w", item.ID, err)
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO favorites_cache (position, item_id, item, saved_at) VALUES (?, ?, ?, ?)",
			i, item.ID, string(data), now,
		); err != nil {
			return fmt.Errorf("insert favorite %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// LoadFavorites returns the cached favorites. Entries that no longer decode
// are skipped.
func (s *Store) LoadFavorites() ([]models.Item, error) {
	rows, err := s.db.Query("SELECT item_id, item FROM favorites_cache ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var item models.Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping cached favorite %s: %v\n", id, err)
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Close closes the state database
func (s *Store) Close() error {
	return s.db.Close()
}
