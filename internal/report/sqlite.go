// Package report keeps a small sqlite tally of brick types that failed to
// map, accumulated across conversions. The per-run console listing
// disappears with the terminal; this survives, so the mapping table grows
// where builds actually need it.
package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB
}

// Open creates or opens the tally database, creating parent directories
// as needed.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS unknown_bricks (
			ui_name TEXT PRIMARY KEY,
			count INTEGER NOT NULL,
			last_seen TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// RecordUnknown adds one conversion's unknown-type tallies.
func (d *DB) RecordUnknown(counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, name := range names {
		_, err := tx.Exec(`INSERT INTO unknown_bricks (ui_name, count, last_seen) VALUES (?, ?, ?)
			ON CONFLICT(ui_name) DO UPDATE SET count = count + excluded.count, last_seen = excluded.last_seen;`,
			name, counts[name], now)
		if err != nil {
			return fmt.Errorf("record %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// Entry is one tallied brick type.
type Entry struct {
	UIName string
	Count  int
}

// Top returns up to n brick types ordered by how often they failed to map.
func (d *DB) Top(n int) ([]Entry, error) {
	rows, err := d.db.Query(`SELECT ui_name, count FROM unknown_bricks ORDER BY count DESC, ui_name ASC LIMIT ?;`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UIName, &e.Count); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
