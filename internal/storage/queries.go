package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
)

const gameColumns = `game_id, season, game_date, home_team, away_team, home_score, away_score,
	period_final, is_playoff, home_elo, away_elo`

// InsertGames bulk-inserts game records in a transaction. Existing games are
// updated in place; REPLACE would delete them and cascade to their events.
func (db *DB) InsertGames(games []model.Game) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO games(` + gameColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(game_id, season) DO UPDATE SET
			game_date = excluded.game_date, home_team = excluded.home_team, away_team = excluded.away_team,
			home_score = excluded.home_score, away_score = excluded.away_score,
			period_final = excluded.period_final, is_playoff = excluded.is_playoff,
			home_elo = excluded.home_elo, away_elo = excluded.away_elo`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range games {
		_, err = stmt.Exec(
			g.GameID, g.Season, g.Date, g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore,
			g.PeriodFinal, boolInt(g.IsPlayoff), g.HomeElo, g.AwayElo,
		)
		if err != nil {
			return fmt.Errorf("insert game %s: %w", g.Key(), err)
		}
	}
	return tx.Commit()
}

// InsertEvents bulk-inserts play-by-play rows in a transaction.
func (db *DB) InsertEvents(events []model.Event) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO events(
			game_id, season, seq, period, seconds_elapsed, event,
			ev_team, ev_zone, home_zone, strength, description
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err = stmt.Exec(
			e.GameID, e.Season, e.Seq, e.Period, e.SecondsElapsed, string(e.Type),
			e.ActingTeam, e.EventZone, e.HomeZone, e.Strength, e.Description,
		)
		if err != nil {
			return fmt.Errorf("insert event %s/%d: %w", e.Key(), e.Seq, err)
		}
	}
	return tx.Commit()
}

// GetGame returns one game, or ErrNotFound.
func (db *DB) GetGame(key model.GameKey) (*model.Game, error) {
	row := db.conn.QueryRow(`SELECT `+gameColumns+` FROM games WHERE game_id = ? AND season = ?`,
		key.GameID, key.Season)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// AllGames returns every stored game ordered by season then game id.
func (db *DB) AllGames() ([]model.Game, error) {
	return db.queryGames(`SELECT ` + gameColumns + ` FROM games ORDER BY season, game_id`)
}

// GamesBetween returns the games where home hosted away, newest first.
func (db *DB) GamesBetween(home, away string) ([]model.Game, error) {
	return db.queryGames(`SELECT `+gameColumns+` FROM games
		WHERE home_team = ? AND away_team = ?
		ORDER BY season DESC, game_id DESC`, home, away)
}

// Teams returns every team code that appears in the store, sorted.
func (db *DB) Teams() ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT home_team FROM games UNION SELECT away_team FROM games ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListGames returns stored games with event and slice counts, newest first.
func (db *DB) ListGames() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`
		SELECT g.game_id, g.season, g.game_date, g.home_team, g.away_team, g.home_score, g.away_score,
			g.period_final, g.is_playoff, g.home_elo, g.away_elo,
			(SELECT COUNT(1) FROM events e WHERE e.game_id = g.game_id AND e.season = g.season),
			(SELECT COUNT(1) FROM regulation_slices s WHERE s.game_id = g.game_id AND s.season = g.season)
		FROM games g
		ORDER BY g.season DESC, g.game_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		var s model.MatchSummary
		var playoff int
		if err := rows.Scan(&s.GameID, &s.Season, &s.Date, &s.HomeTeam, &s.AwayTeam,
			&s.HomeScore, &s.AwayScore, &s.PeriodFinal, &playoff, &s.HomeElo, &s.AwayElo,
			&s.Events, &s.Slices); err != nil {
			return nil, err
		}
		s.IsPlayoff = playoff != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// GameEvents returns a game's play-by-play in table order.
func (db *DB) GameEvents(key model.GameKey) ([]model.Event, error) {
	rows, err := db.conn.Query(`
		SELECT game_id, season, seq, period, seconds_elapsed, event,
			ev_team, ev_zone, home_zone, strength, description
		FROM events WHERE game_id = ? AND season = ?
		ORDER BY seq`, key.GameID, key.Season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		var typ string
		if err := rows.Scan(&e.GameID, &e.Season, &e.Seq, &e.Period, &e.SecondsElapsed, &typ,
			&e.ActingTeam, &e.EventZone, &e.HomeZone, &e.Strength, &e.Description); err != nil {
			return nil, err
		}
		e.Type = model.ParseEventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) queryGames(query string, args ...any) ([]model.Game, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (*model.Game, error) {
	var g model.Game
	var playoff int
	if err := s.Scan(&g.GameID, &g.Season, &g.Date, &g.HomeTeam, &g.AwayTeam,
		&g.HomeScore, &g.AwayScore, &g.PeriodFinal, &playoff, &g.HomeElo, &g.AwayElo); err != nil {
		return nil, err
	}
	g.IsPlayoff = playoff != 0
	return &g, nil
}
