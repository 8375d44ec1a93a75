package game

// TurnManager owns the turn-ordered player id list. The index is always
// interpreted modulo the list length, so callers may remove players
// without worrying about wraparound.
type TurnManager struct {
	PlayerIDs []string `json:"player_ids"`
	Index     int      `json:"index"`
	Direction int      `json:"direction"` // +1 or -1
	SkipCount int      `json:"skip_count"`

	// OnSkipped fires for each player passed over by a pending skip.
	// Rebound by rebuild_runtime_state after a restore.
	OnSkipped func(playerID string) `json:"-"`
}

func NewTurnManager(playerIDs []string) *TurnManager {
	return &TurnManager{
		PlayerIDs: append([]string(nil), playerIDs...),
		Direction: 1,
	}
}

// CurrentPlayerID returns the id whose turn it is, or "" when empty.
func (t *TurnManager) CurrentPlayerID() string {
	if len(t.PlayerIDs) == 0 {
		return ""
	}
	return t.PlayerIDs[t.normalized(t.Index)]
}

func (t *TurnManager) normalized(i int) int {
	n := len(t.PlayerIDs)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (t *TurnManager) step() {
	if len(t.PlayerIDs) == 0 {
		return
	}
	t.Index = t.normalized(t.Index + t.Direction)
}

// AdvanceTurn consumes pending skips (announcing each skipped player)
// and steps to the next player, returning the new current id.
func (t *TurnManager) AdvanceTurn() string {
	for t.SkipCount > 0 {
		t.SkipCount--
		t.step()
		if t.OnSkipped != nil {
			t.OnSkipped(t.CurrentPlayerID())
		}
	}
	t.step()
	return t.CurrentPlayerID()
}

// SkipNextPlayers queues k skips to be consumed by the next advance.
func (t *TurnManager) SkipNextPlayers(k int) {
	if k > 0 {
		t.SkipCount += k
	}
}

// ReverseDirection flips the turn direction. In 2-player games this is
// equivalent to a skip; games decide per their rule set.
func (t *TurnManager) ReverseDirection() {
	t.Direction = -t.Direction
}

// SetCurrent moves the turn to the given player if present.
func (t *TurnManager) SetCurrent(playerID string) bool {
	for i, id := range t.PlayerIDs {
		if id == playerID {
			t.Index = i
			return true
		}
	}
	return false
}

// AddPlayer appends a player to the end of the order.
func (t *TurnManager) AddPlayer(playerID string) {
	t.PlayerIDs = append(t.PlayerIDs, playerID)
}

// RemovePlayer compacts the list. If the removed seat was before the
// current index the index rotates back so the current player keeps the
// turn; removing the current player hands the turn to the next seat.
func (t *TurnManager) RemovePlayer(playerID string) bool {
	for i, id := range t.PlayerIDs {
		if id != playerID {
			continue
		}
		t.Index = t.normalized(t.Index)
		t.PlayerIDs = append(t.PlayerIDs[:i], t.PlayerIDs[i+1:]...)
		if len(t.PlayerIDs) == 0 {
			t.Index = 0
			return true
		}
		if i < t.Index {
			t.Index--
		}
		t.Index = t.normalized(t.Index)
		return true
	}
	return false
}

// Len reports the number of seats in the order.
func (t *TurnManager) Len() int { return len(t.PlayerIDs) }
