package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Overview is the aggregate picture shown by the summary command.
type Overview struct {
	Games          int
	RegularSeason  int
	Playoff        int
	Overtime       int
	Events         int
	Slices         int
	OvertimeRows   int
	EarliestSeason int
	LatestSeason   int
	Teams          int
}

// SeasonCount is the number of stored games of one season.
type SeasonCount struct {
	Season        int
	Games         int
	OvertimeGames int
	HomeWins      int
}

// Run is one recorded batch job.
type Run struct {
	ID           string
	Kind         string
	StartedAt    string
	FinishedAt   string
	Games        int
	Slices       int
	OvertimeRows int
	Failed       int
	Status       string
	Error        string
}

// GetOverview returns store-wide counts.
func (db *DB) GetOverview() (Overview, error) {
	var ov Overview
	var earliest, latest sql.NullInt64
	err := db.conn.QueryRow(`
		SELECT COUNT(1),
			COALESCE(SUM(CASE WHEN is_playoff = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(is_playoff), 0),
			COALESCE(SUM(CASE WHEN period_final > 3 THEN 1 ELSE 0 END), 0),
			MIN(season), MAX(season)
		FROM games`).Scan(&ov.Games, &ov.RegularSeason, &ov.Playoff, &ov.Overtime, &earliest, &latest)
	if err != nil {
		return ov, fmt.Errorf("games overview: %w", err)
	}
	ov.EarliestSeason = int(earliest.Int64)
	ov.LatestSeason = int(latest.Int64)

	counts := []struct {
		dst   *int
		query string
	}{
		{&ov.Events, `SELECT COUNT(1) FROM events`},
		{&ov.Slices, `SELECT COUNT(1) FROM regulation_slices`},
		{&ov.OvertimeRows, `SELECT COUNT(1) FROM overtime_events`},
		{&ov.Teams, `SELECT COUNT(1) FROM (SELECT home_team FROM games UNION SELECT away_team FROM games)`},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dst); err != nil {
			return ov, fmt.Errorf("overview: %w", err)
		}
	}
	return ov, nil
}

// GetSeasonCounts returns per-season game counts, newest first.
func (db *DB) GetSeasonCounts() ([]SeasonCount, error) {
	rows, err := db.conn.Query(`
		SELECT season, COUNT(1),
			SUM(CASE WHEN period_final > 3 THEN 1 ELSE 0 END),
			SUM(CASE WHEN home_score > away_score THEN 1 ELSE 0 END)
		FROM games GROUP BY season ORDER BY season DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeasonCount
	for rows.Next() {
		var s SeasonCount
		if err := rows.Scan(&s.Season, &s.Games, &s.OvertimeGames, &s.HomeWins); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StartRun records the start of a batch job and returns its id.
func (db *DB) StartRun(kind string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`INSERT INTO runs(id, kind, started_at) VALUES (?, ?, ?)`,
		id, kind, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun stores a job's totals. A non-nil runErr marks the run failed.
func (db *DB) FinishRun(id string, games, slices, overtimeRows, failed int, runErr error) error {
	status, msg := "ok", ""
	if runErr != nil {
		status, msg = "failed", runErr.Error()
	}
	_, err := db.conn.Exec(`
		UPDATE runs SET finished_at = ?, games = ?, slices = ?, overtime_rows = ?,
			failed = ?, status = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), games, slices, overtimeRows, failed, status, msg, id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, kind, started_at, finished_at, games, slices, overtime_rows, failed, status, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &r.FinishedAt, &r.Games, &r.Slices,
			&r.OvertimeRows, &r.Failed, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and every value
// rendered as text. NULLs render as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
