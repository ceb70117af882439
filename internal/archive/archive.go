// Package archive provides SQLite-based storage for completed playthroughs.
// Each prestige appends one run row plus the final state snapshot, so past
// runs survive the in-place reset of the live save file.
package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/user/quiet-dominion/internal/types"
)

// RunRecord summarizes one completed playthrough.
type RunRecord struct {
	ID              int64     `db:"id" json:"id"`
	PrestigeNumber  int       `db:"prestige_number" json:"prestige_number"`
	EndingID        string    `db:"ending_id" json:"ending_id"`
	DayReached      int       `db:"day_reached" json:"day_reached"`
	Population      float64   `db:"population" json:"population"`
	TotalStructures int       `db:"total_structures" json:"total_structures"`
	Territories     int       `db:"territories" json:"territories"`
	Lore            int       `db:"lore" json:"lore"`
	LegacyEarned    int       `db:"legacy_earned" json:"legacy_earned"`
	CompletedAt     time.Time `db:"completed_at" json:"completed_at"`
}

// Store wraps a SQLite connection for run archival.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the archive database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	store := &Store{conn: conn}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prestige_number INTEGER NOT NULL,
		ending_id TEXT NOT NULL,
		day_reached INTEGER NOT NULL,
		population REAL NOT NULL,
		total_structures INTEGER NOT NULL,
		territories INTEGER NOT NULL,
		lore INTEGER NOT NULL,
		legacy_earned INTEGER NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		snapshot TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_prestige ON runs(prestige_number);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// RecordRun appends a completed run together with its final state snapshot.
func (s *Store) RecordRun(record RunRecord, state *types.GameState) error {
	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO runs (prestige_number, ending_id, day_reached, population,
			total_structures, territories, lore, legacy_earned, completed_at, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.PrestigeNumber, record.EndingID, record.DayReached, record.Population,
		record.TotalStructures, record.Territories, record.Lore, record.LegacyEarned,
		record.CompletedAt, string(snapshot))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns all archived runs, most recent first.
func (s *Store) ListRuns() ([]RunRecord, error) {
	var runs []RunRecord
	err := s.conn.Select(&runs, `
		SELECT id, prestige_number, ending_id, day_reached, population,
			total_structures, territories, lore, legacy_earned, completed_at
		FROM runs ORDER BY prestige_number DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// RunSnapshot returns the final state snapshot of an archived run.
func (s *Store) RunSnapshot(id int64) (*types.GameState, error) {
	var raw string
	if err := s.conn.Get(&raw, `SELECT snapshot FROM runs WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var state types.GameState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &state, nil
}
