// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/flipdrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Well-known keys in the kv table.
const (
	KeyShots       = "shots"
	KeySettings    = "settings"
	KeyLastHistory = "last-history"
)

// Store wraps SQLite access for session data and the key-value store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			drift_every INTEGER NOT NULL,
			drift_steps INTEGER NOT NULL,
			offset_steps INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			exact INTEGER NOT NULL,
			abs_error_sum INTEGER NOT NULL,
			adjust_correct INTEGER NOT NULL,
			adjust_incorrect INTEGER NOT NULL,
			adjust_nochange INTEGER NOT NULL,
			recall_total INTEGER NOT NULL,
			recall_correct INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_shot_stats (
			session_id INTEGER NOT NULL,
			label TEXT NOT NULL,
			side TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			exact INTEGER NOT NULL,
			abs_error_sum INTEGER NOT NULL,
			PRIMARY KEY (session_id, label, side)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_shot_stats_label ON session_shot_stats(label, side);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get reads a kv entry. A missing key returns ok=false, not an error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes a kv entry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// InsertSession stores a completed session and its per-shot stats.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, shots []model.ShotStats) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, mode, drift_every, drift_steps, offset_steps,
			attempts, exact, abs_error_sum, adjust_correct, adjust_incorrect, adjust_nochange,
			recall_total, recall_correct, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Mode.String(),
		stats.DriftEvery,
		stats.DriftSteps,
		stats.OffsetSteps,
		stats.Attempts,
		stats.Exact,
		stats.AbsErrorSum,
		stats.AdjustCorrect,
		stats.AdjustIncorrect,
		stats.AdjustNoChange,
		stats.RecallTotal,
		stats.RecallCorrect,
		stats.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(shots) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_shot_stats (session_id, label, side, attempts, exact, abs_error_sum)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ss := range shots {
			if _, err := stmt.ExecContext(ctx, id, ss.Label, ss.Side.String(), ss.Attempts, ss.Exact, ss.AbsErrorSum); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakShots aggregates shot stats over the most recent sessions.
func (s *Store) GetWeakShots(ctx context.Context, window int) ([]model.ShotAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ss.label, ss.side, SUM(ss.attempts) AS attempts, SUM(ss.exact) AS exact,
		SUM(ss.abs_error_sum) AS abs_error_sum
	FROM session_shot_stats ss
	JOIN recent_sessions r ON r.id = ss.session_id
	GROUP BY ss.label, ss.side`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanShotAggregates(rows)
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, attempts, exact, abs_error_sum, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Attempts, &agg.Exact, &agg.AbsErrorSum, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListShotAggregatesForSessions aggregates per-shot stats across sessions.
func (s *Store) ListShotAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.ShotAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT label, side, SUM(attempts) AS attempts, SUM(exact) AS exact,
		SUM(abs_error_sum) AS abs_error_sum
		FROM session_shot_stats
		WHERE session_id IN (%s)
		GROUP BY label, side`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanShotAggregates(rows)
}

// ListShotStatsForSessions returns per-session stats for selected shots,
// keyed by session id and then by "label/side".
func (s *Store) ListShotStatsForSessions(ctx context.Context, sessionIDs []int64, keys []string) (map[int64]map[string]model.ShotAggregate, error) {
	if len(sessionIDs) == 0 || len(keys) == 0 {
		return map[int64]map[string]model.ShotAggregate{}, nil
	}
	idPlaceholders := make([]string, len(sessionIDs))
	args := make([]any, 0, len(sessionIDs))
	for i, id := range sessionIDs {
		idPlaceholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`SELECT session_id, label, side, attempts, exact, abs_error_sum
		FROM session_shot_stats
		WHERE session_id IN (%s)`, strings.Join(idPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		wanted[key] = struct{}{}
	}
	result := map[int64]map[string]model.ShotAggregate{}
	for rows.Next() {
		var sessionID int64
		var side string
		var agg model.ShotAggregate
		if err := rows.Scan(&sessionID, &agg.Label, &side, &agg.Attempts, &agg.Exact, &agg.AbsErrorSum); err != nil {
			return nil, err
		}
		agg.Side = parseSide(side)
		if _, ok := wanted[agg.Key()]; !ok {
			continue
		}
		if _, ok := result[sessionID]; !ok {
			result[sessionID] = map[string]model.ShotAggregate{}
		}
		result[sessionID][agg.Key()] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanShotAggregates(rows *sql.Rows) ([]model.ShotAggregate, error) {
	var result []model.ShotAggregate
	for rows.Next() {
		var agg model.ShotAggregate
		var side string
		if err := rows.Scan(&agg.Label, &side, &agg.Attempts, &agg.Exact, &agg.AbsErrorSum); err != nil {
			return nil, err
		}
		agg.Side = parseSide(side)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseSide(s string) model.Side {
	if s == "right" {
		return model.Right
	}
	return model.Left
}
