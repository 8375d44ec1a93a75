package game

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Team groups players for scoring. In individual mode every player is a
// singleton team.
type Team struct {
	Index      int      `json:"index"`
	Members    []string `json:"members"` // player names
	RoundScore int      `json:"round_score"`
	TotalScore int      `json:"total_score"`
	Eliminated bool     `json:"eliminated"`
}

// TeamManager owns the team list and the player-name -> team-index map.
type TeamManager struct {
	Mode     string         `json:"mode"`
	Teams    []Team         `json:"teams"`
	ByPlayer map[string]int `json:"by_player"`
}

// ModeIndividual puts every player on their own team.
const ModeIndividual = "individual"

// NewTeamManager parses the mode ("individual" or "NvMvK") and assigns
// the named players round-robin by their order.
func NewTeamManager(mode string, playerNames []string) (*TeamManager, error) {
	teamCount := len(playerNames)
	if mode != ModeIndividual {
		sizes, err := parseTeamMode(mode)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, s := range sizes {
			total += s
		}
		if total != len(playerNames) {
			return nil, fmt.Errorf("team mode %q wants %d players, have %d", mode, total, len(playerNames))
		}
		teamCount = len(sizes)
	}

	tm := &TeamManager{
		Mode:     mode,
		Teams:    make([]Team, teamCount),
		ByPlayer: make(map[string]int, len(playerNames)),
	}
	for i := range tm.Teams {
		tm.Teams[i].Index = i
	}
	for i, name := range playerNames {
		idx := i % teamCount
		tm.Teams[idx].Members = append(tm.Teams[idx].Members, name)
		tm.ByPlayer[name] = idx
	}
	return tm, nil
}

func parseTeamMode(mode string) ([]int, error) {
	parts := strings.Split(strings.ToLower(mode), "v")
	if len(parts) < 2 {
		return nil, errors.New("invalid team mode")
	}
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid team mode %q", mode)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

// ValidTeamModes lists every mode usable for the given player-count
// range: "individual" plus each equal split of each playable count.
func ValidTeamModes(minPlayers, maxPlayers int) []string {
	modes := []string{ModeIndividual}
	seen := map[string]bool{}
	for n := minPlayers; n <= maxPlayers; n++ {
		for teams := 2; teams <= n; teams++ {
			if n%teams != 0 {
				continue
			}
			size := n / teams
			if size < 2 {
				// singleton teams are just individual mode
				continue
			}
			parts := make([]string, teams)
			for i := range parts {
				parts[i] = strconv.Itoa(size)
			}
			mode := strings.Join(parts, "v")
			if !seen[mode] {
				seen[mode] = true
				modes = append(modes, mode)
			}
		}
	}
	return modes
}

// TeamOf returns the player's team, or nil for unknown names.
func (tm *TeamManager) TeamOf(playerName string) *Team {
	idx, ok := tm.ByPlayer[playerName]
	if !ok {
		return nil
	}
	return &tm.Teams[idx]
}

// AddToRound adds points to the player's team round score.
func (tm *TeamManager) AddToRound(playerName string, points int) {
	if t := tm.TeamOf(playerName); t != nil {
		t.RoundScore += points
	}
}

// AddToTotal adds points directly to the team total.
func (tm *TeamManager) AddToTotal(playerName string, points int) {
	if t := tm.TeamOf(playerName); t != nil {
		t.TotalScore += points
	}
}

// CommitRoundScores folds round scores into totals and resets them.
func (tm *TeamManager) CommitRoundScores() {
	for i := range tm.Teams {
		tm.Teams[i].TotalScore += tm.Teams[i].RoundScore
		tm.Teams[i].RoundScore = 0
	}
}

// Eliminate marks the player's team out of the game.
func (tm *TeamManager) Eliminate(playerName string) {
	if t := tm.TeamOf(playerName); t != nil {
		t.Eliminated = true
	}
}

// Leading returns the non-eliminated team with the highest total, nil
// when everyone is out.
func (tm *TeamManager) Leading() *Team {
	var best *Team
	for i := range tm.Teams {
		t := &tm.Teams[i]
		if t.Eliminated {
			continue
		}
		if best == nil || t.TotalScore > best.TotalScore {
			best = t
		}
	}
	return best
}

// SortedByTotal returns a copy of the teams, highest total first.
func (tm *TeamManager) SortedByTotal() []Team {
	out := append([]Team(nil), tm.Teams...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})
	return out
}

// TeamName labels a team: the lone member's name, or "Team N".
func (tm *TeamManager) TeamName(idx int) string {
	if idx < 0 || idx >= len(tm.Teams) {
		return ""
	}
	t := tm.Teams[idx]
	if len(t.Members) == 1 {
		return t.Members[0]
	}
	return fmt.Sprintf("Team %d", idx+1)
}

// FormatBrief renders a single status line: "Alice: 5. Bob: 3."
func (tm *TeamManager) FormatBrief() string {
	parts := make([]string, 0, len(tm.Teams))
	for _, t := range tm.SortedByTotal() {
		parts = append(parts, fmt.Sprintf("%s: %d.", tm.TeamName(t.Index), t.TotalScore))
	}
	return strings.Join(parts, " ")
}

// FormatDetailed renders one line per team for status boxes.
func (tm *TeamManager) FormatDetailed() []string {
	lines := make([]string, 0, len(tm.Teams))
	for _, t := range tm.SortedByTotal() {
		line := fmt.Sprintf("%s: %d total, %d this round", tm.TeamName(t.Index), t.TotalScore, t.RoundScore)
		if len(t.Members) > 1 {
			line += " (" + strings.Join(t.Members, ", ") + ")"
		}
		if t.Eliminated {
			line += " [eliminated]"
		}
		lines = append(lines, line)
	}
	return lines
}
