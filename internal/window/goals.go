package window

import "github.com/pable/go-hockey-meter/internal/model"

// GoalOptions controls PrecedingGoals.
type GoalOptions struct {
	// Plays is how many plays before each goal to keep.
	Plays int
	// IncludeGoal keeps the goal row itself at the end of its run.
	IncludeGoal bool
	// Relabel sets every row of a goal's run to the scoring side and gives the
	// run a negative game id of its own, so each goal forms a separate group.
	Relabel bool
}

// PrecedingGoals reduces overtime rows to the plays leading up to each goal.
// Runs never reach back past the start of the goal's game. Overlapping runs
// repeat the shared rows, once per goal.
func PrecedingGoals(rows []model.OvertimeRow, opts GoalOptions) []model.OvertimeRow {
	var out []model.OvertimeRow
	goal := 0
	gameStart := 0
	for i := range rows {
		if i > 0 && rows[i].Key() != rows[i-1].Key() {
			gameStart = i
		}
		if rows[i].Event != model.EventGoal {
			continue
		}

		start := max(i-opts.Plays, gameStart)
		end := i
		if opts.IncludeGoal {
			end = i + 1
		}
		goal++
		for _, r := range rows[start:end] {
			if opts.Relabel {
				r.Winner = rows[i].Team
				r.GameID = -goal
			}
			out = append(out, r)
		}
	}
	return out
}
