// Package teams resolves three-letter team codes to display metadata.
package teams

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrTeamNotFound is returned for codes missing from the table.
var ErrTeamNotFound = errors.New("team not found")

// placeholder black used by the source palette for unused slots
const filler = "010101"

//go:embed teams.json
var raw []byte

// Team is one franchise entry.
type Team struct {
	Code   string   `json:"team_code"`
	Name   string   `json:"name"`
	Colors []string `json:"colors"` // hex without '#'
}

var byCode map[string]Team

func init() {
	var list []Team
	if err := json.Unmarshal(raw, &list); err != nil {
		panic(fmt.Sprintf("teams: embedded table: %v", err))
	}
	byCode = make(map[string]Team, len(list))
	for _, t := range list {
		byCode[t.Code] = t
	}
}

// Lookup returns the team for a code such as "TOR" or "L.A".
func Lookup(code string) (Team, error) {
	t, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Team{}, fmt.Errorf("%w: %q", ErrTeamNotFound, code)
	}
	return t, nil
}

// Codes returns every known code, sorted.
func Codes() []string {
	out := make([]string, 0, len(byCode))
	for c := range byCode {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Color returns the idx-th usable color as "#rrggbb", skipping filler black.
// It wraps around when idx exceeds the palette.
func (t Team) Color(idx int) string {
	var usable []string
	for _, c := range t.Colors {
		if !strings.EqualFold(c, filler) {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return "#" + filler
	}
	return "#" + usable[idx%len(usable)]
}

// RGB splits Color(idx) into components.
func (t Team) RGB(idx int) (r, g, b int) {
	_, _ = fmt.Sscanf(t.Color(idx), "#%02x%02x%02x", &r, &g, &b)
	return r, g, b
}

// Matchup resolves both teams and picks an away color that differs from the
// home team's primary color.
func Matchup(home, away string) (h, a Team, homeColor, awayColor string, err error) {
	if h, err = Lookup(home); err != nil {
		return
	}
	if a, err = Lookup(away); err != nil {
		return
	}
	homeColor = h.Color(0)
	for i := 0; i < len(a.Colors); i++ {
		awayColor = a.Color(i)
		if awayColor != homeColor {
			break
		}
	}
	return
}
