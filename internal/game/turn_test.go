package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnManagerRoundTrip(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c"})
	assert.Equal(t, "a", tm.CurrentPlayerID())
	assert.Equal(t, "b", tm.AdvanceTurn())
	assert.Equal(t, "c", tm.AdvanceTurn())
	assert.Equal(t, "a", tm.AdvanceTurn(), "order wraps around")
}

func TestTurnManagerReverse(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c"})
	tm.ReverseDirection()
	assert.Equal(t, "c", tm.AdvanceTurn())
	assert.Equal(t, "b", tm.AdvanceTurn())
}

func TestTurnManagerSkipConsumesAndAnnounces(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c", "d"})
	var skipped []string
	tm.OnSkipped = func(id string) { skipped = append(skipped, id) }

	tm.SkipNextPlayers(2)
	// Skips b and c, lands on d.
	assert.Equal(t, "d", tm.AdvanceTurn())
	assert.Equal(t, []string{"b", "c"}, skipped)
	assert.Equal(t, 0, tm.SkipCount, "skips are consumed")
}

func TestTurnManagerRemoveCurrentPlayer(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c"})
	tm.AdvanceTurn() // now b
	assert.True(t, tm.RemovePlayer("b"))
	assert.Equal(t, "c", tm.CurrentPlayerID(), "turn passes to the next seat")
	assert.Equal(t, 2, tm.Len())
}

func TestTurnManagerRemoveBeforeCurrentKeepsTurn(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c"})
	tm.AdvanceTurn()
	tm.AdvanceTurn() // now c
	assert.True(t, tm.RemovePlayer("a"))
	assert.Equal(t, "c", tm.CurrentPlayerID())
}

func TestTurnManagerRemoveLastPlayer(t *testing.T) {
	tm := NewTurnManager([]string{"a"})
	assert.True(t, tm.RemovePlayer("a"))
	assert.Equal(t, "", tm.CurrentPlayerID())
	assert.False(t, tm.RemovePlayer("a"))
}

func TestTurnManagerSetCurrent(t *testing.T) {
	tm := NewTurnManager([]string{"a", "b", "c"})
	assert.True(t, tm.SetCurrent("c"))
	assert.Equal(t, "c", tm.CurrentPlayerID())
	assert.False(t, tm.SetCurrent("zz"))
}
