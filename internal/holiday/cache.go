package holiday

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Cache persists fetched holiday years in SQLite so restarts do not refetch.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open holiday cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate holiday cache: %w", err)
	}
	return c, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS holiday_years (
		country TEXT NOT NULL,
		language TEXT NOT NULL,
		year INTEGER NOT NULL,
		fetched_at TEXT NOT NULL,
		holidays TEXT NOT NULL,
		PRIMARY KEY (country, language, year)
	);`)
	return err
}

// Load returns the cached holidays for a year. The boolean is false when the
// year has not been cached.
func (c *Cache) Load(ctx context.Context, country, language string, year int) ([]Holiday, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT holidays FROM holiday_years WHERE country = ? AND language = ? AND year = ?`,
		country, language, year,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var out []Holiday
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, fmt.Errorf("decode cached holidays: %w", err)
	}
	return out, true, nil
}

// Store replaces the cached holidays for a year.
func (c *Cache) Store(ctx context.Context, country, language string, year int, holidays []Holiday) error {
	raw, err := json.Marshal(holidays)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO holiday_years (country, language, year, fetched_at, holidays)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (country, language, year) DO UPDATE SET fetched_at = excluded.fetched_at, holidays = excluded.holidays`,
		country, language, year, time.Now().UTC().Format(time.RFC3339), string(raw),
	)
	return err
}
