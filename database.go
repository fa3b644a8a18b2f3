package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. It stores the leaderboard and
// small server settings.
type DB struct {
	conn *sql.DB
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS highscores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score >= 0),
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_highscores_score ON highscores(score DESC);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		Log.Errorf("DB migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Load returns the top scores, highest first
func (db *DB) Load() ([]HighScoreEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, score, created_at FROM highscores
		ORDER BY score DESC, created_at ASC LIMIT ?`, MaxHighScores)
	if err != nil {
		return nil, fmt.Errorf("query highscores: %w", err)
	}
	defer rows.Close()

	var result []HighScoreEntry
	for rows.Next() {
		var e HighScoreEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.Date); err != nil {
			return nil, fmt.Errorf("scan highscore: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Insert appends one entry, then re-reads the top list so the cache can
// reconcile with what the database holds
func (db *DB) Insert(entry HighScoreEntry, _ []HighScoreEntry) ([]HighScoreEntry, error) {
	if entry.Score < 0 {
		return nil, ErrNegativeScore
	}
	_, err := db.conn.Exec(
		"INSERT INTO highscores (id, name, score, created_at) VALUES (?, ?, ?, ?)",
		entry.ID, entry.Name, entry.Score, entry.Date.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert highscore: %w", err)
	}
	return db.Load()
}

// Prune deletes everything below the top entries. Returns the rows removed.
func (db *DB) Prune() (int64, error) {
	res, err := db.conn.Exec(
		`DELETE FROM highscores WHERE id NOT IN (
			SELECT id FROM highscores ORDER BY score DESC, created_at ASC LIMIT ?)`, MaxHighScores)
	if err != nil {
		return 0, fmt.Errorf("prune highscores: %w", err)
	}
	return res.RowsAffected()
}

// GetSetting returns a stored setting, or "" if absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			Log.Warnf("DB get setting %s: %v", key, err)
		}
		return ""
	}
	return value
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// pruneLoop trims the table periodically until stop is closed
func (db *DB) pruneLoop(every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, err := db.Prune(); err != nil {
				Log.Errorf("DB prune: %v", err)
			} else if n > 0 {
				Log.Debugf("DB pruned %d highscores", n)
			}
		case <-stop:
			return
		}
	}
}
