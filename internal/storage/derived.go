package storage

import (
	"database/sql"
	"fmt"

	"github.com/pable/go-hockey-meter/internal/model"
)

const sliceColumns = `game_id, season, slice_index, time_remaining, away_elo, home_elo,
	away_score, home_score, away_pim, home_pim, away_hits, home_hits, away_shots, home_shots,
	strength, winner`

const overtimeColumns = `game_id, season, seq, regime, away_elo, home_elo,
	seconds_elapsed, time_remaining, event, team, event_zone, home_zone, strength, winner`

// InsertSlices bulk-inserts regulation slices in a transaction.
func (db *DB) InsertSlices(slices []model.RegulationSlice) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO regulation_slices(` + sliceColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range slices {
		_, err = stmt.Exec(
			s.GameID, s.Season, s.Index, s.TimeRemaining, s.AwayElo, s.HomeElo,
			s.AwayScore, s.HomeScore, s.AwayPIM, s.HomePIM, s.AwayHits, s.HomeHits,
			s.AwayShots, s.HomeShots, s.Strength, s.Winner.String(),
		)
		if err != nil {
			return fmt.Errorf("insert slice %d.%d/%d: %w", s.GameID, s.Season, s.Index, err)
		}
	}
	return tx.Commit()
}

// Slices returns a game's regulation slices in index order.
func (db *DB) Slices(key model.GameKey) ([]model.RegulationSlice, error) {
	return db.querySlices(`SELECT `+sliceColumns+` FROM regulation_slices
		WHERE game_id = ? AND season = ? ORDER BY slice_index`, key.GameID, key.Season)
}

// AllSlices returns every stored slice grouped by game.
func (db *DB) AllSlices() ([]model.RegulationSlice, error) {
	return db.querySlices(`SELECT ` + sliceColumns + ` FROM regulation_slices
		ORDER BY season, game_id, slice_index`)
}

func (db *DB) querySlices(query string, args ...any) ([]model.RegulationSlice, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RegulationSlice
	for rows.Next() {
		var s model.RegulationSlice
		var winner string
		if err := rows.Scan(&s.GameID, &s.Season, &s.Index, &s.TimeRemaining, &s.AwayElo, &s.HomeElo,
			&s.AwayScore, &s.HomeScore, &s.AwayPIM, &s.HomePIM, &s.AwayHits, &s.HomeHits,
			&s.AwayShots, &s.HomeShots, &s.Strength, &winner); err != nil {
			return nil, err
		}
		s.Winner = model.ParseSide(winner)
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertOvertimeRows bulk-inserts overtime rows in a transaction. Only the
// clock of each row's regime is stored; the other stays NULL.
func (db *DB) InsertOvertimeRows(rows []model.OvertimeRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO overtime_events(` + overtimeColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		regular := r.Regime == model.RegimeRegularOvertime
		_, err = stmt.Exec(
			r.GameID, r.Season, r.Seq, r.Regime.String(), r.AwayElo, r.HomeElo,
			nullInt(r.SecondsElapsed, !regular), nullInt(r.TimeRemaining, regular),
			string(r.Event), r.Team.String(), r.EventZone, r.HomeZone, r.Strength, r.Winner.String(),
		)
		if err != nil {
			return fmt.Errorf("insert overtime row %s/%d: %w", r.Key(), r.Seq, err)
		}
	}
	return tx.Commit()
}

// OvertimeRows returns a game's overtime rows in play order.
func (db *DB) OvertimeRows(key model.GameKey) ([]model.OvertimeRow, error) {
	return db.queryOvertime(`SELECT `+overtimeColumns+` FROM overtime_events
		WHERE game_id = ? AND season = ? ORDER BY seq`, key.GameID, key.Season)
}

// OvertimeRowsByRegime returns every row of one regime, grouped by game and in
// play order within a game.
func (db *DB) OvertimeRowsByRegime(regime model.Regime) ([]model.OvertimeRow, error) {
	return db.queryOvertime(`SELECT `+overtimeColumns+` FROM overtime_events
		WHERE regime = ? ORDER BY season, game_id, seq`, regime.String())
}

func (db *DB) queryOvertime(query string, args ...any) ([]model.OvertimeRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OvertimeRow
	for rows.Next() {
		var r model.OvertimeRow
		var regime, event, team, winner string
		var elapsed, remaining sql.NullInt64
		if err := rows.Scan(&r.GameID, &r.Season, &r.Seq, &regime, &r.AwayElo, &r.HomeElo,
			&elapsed, &remaining, &event, &team, &r.EventZone, &r.HomeZone, &r.Strength, &winner); err != nil {
			return nil, err
		}
		var ok bool
		if r.Regime, ok = model.ParseRegime(regime); !ok {
			return nil, fmt.Errorf("overtime row %s/%d: unknown regime %q", r.Key(), r.Seq, regime)
		}
		r.SecondsElapsed = int(elapsed.Int64)
		r.TimeRemaining = int(remaining.Int64)
		r.Event = model.ParseEventType(event)
		r.Team = model.ParseSide(team)
		r.Winner = model.ParseSide(winner)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClearDerived removes slices and overtime rows for the given games so a
// rerun does not leave stale rows behind.
func (db *DB) ClearDerived(keys []model.GameKey) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"regulation_slices", "overtime_events"} {
		stmt, err := tx.Prepare(`DELETE FROM ` + table + ` WHERE game_id = ? AND season = ?`)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := stmt.Exec(k.GameID, k.Season); err != nil {
				stmt.Close()
				return fmt.Errorf("clear %s for %s: %w", table, k, err)
			}
		}
		stmt.Close()
	}
	return tx.Commit()
}
