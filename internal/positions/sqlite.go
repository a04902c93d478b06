package positions

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/tlemoine/earshot/internal/db"
)

const (
	appName    = "earshot"
	dbFileName = "earshot.db"
)

// SQLiteStore is a durable Store backed by a SQLite database in the
// user's data directory.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the position database at the default
// XDG data path.
func Open() (*SQLiteStore, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens a position database at an explicit path.
func OpenPath(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the saved record for an episode, or nil if none exists.
func (s *SQLiteStore) Get(episodeID string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT position_ms, duration_ms, updated_at
		FROM playback_positions
		WHERE episode_id = ?
	`, episodeID)

	var positionMs, durationMs, updatedAt int64
	err := row.Scan(&positionMs, &durationMs, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &Record{
		Position:  time.Duration(positionMs) * time.Millisecond,
		Duration:  time.Duration(durationMs) * time.Millisecond,
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

// Put saves or replaces the record for an episode.
func (s *SQLiteStore) Put(episodeID string, rec Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playback_positions (episode_id, position_ms, duration_ms, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(episode_id) DO UPDATE SET
				position_ms = excluded.position_ms,
				duration_ms = excluded.duration_ms,
				updated_at = excluded.updated_at
		`, episodeID, rec.Position.Milliseconds(), rec.Duration.Milliseconds(), updatedAt.Unix())
		return err
	})
}

// Delete removes the record for an episode.
func (s *SQLiteStore) Delete(episodeID string) error {
	_, err := s.db.Exec(`DELETE FROM playback_positions WHERE episode_id = ?`, episodeID)
	return err
}
