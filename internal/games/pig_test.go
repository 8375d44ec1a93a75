package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioroom/backend/internal/game"
)

func pigTable(t *testing.T) (*Pig, []*game.Player, []*game.CaptureUser) {
	t.Helper()
	gg, players, users := startTable(t, "pig", []string{"Ann", "Ben"}, nil)
	return gg.(*Pig), players, users
}

func TestPigHoldBanksTurnTotal(t *testing.T) {
	g, players, _ := pigTable(t)
	ann, ben := players[0], players[1]
	g.TurnTotal = 12

	do(t, &g.base, ann, "pig_hold")
	team := g.base.Teams.TeamOf("Ann")
	require.NotNil(t, team)
	assert.Equal(t, 12, team.TotalScore)
	assert.Equal(t, 0, g.TurnTotal)
	assert.Equal(t, ben.ID, g.base.Turns.CurrentPlayerID())
}

func TestPigHoldNeedsPoints(t *testing.T) {
	g, players, users := pigTable(t)
	ann := players[0]

	do(t, &g.base, ann, "pig_hold")
	assert.Equal(t, ann.ID, g.base.Turns.CurrentPlayerID())
	assert.Equal(t, 0, g.base.Teams.TeamOf("Ann").TotalScore)
	assert.Contains(t, users[0].Messages, said(g.base.Catalog(), "pig_err_nothing_to_hold", nil))
}

func TestPigHoldOutOfTurnRefused(t *testing.T) {
	g, players, users := pigTable(t)
	ben := players[1]
	g.TurnTotal = 9

	do(t, &g.base, ben, "pig_hold")
	assert.Equal(t, 9, g.TurnTotal)
	assert.Contains(t, users[1].Messages, said(g.base.Catalog(), "pig_err_not_turn", nil))
}

func TestPigHoldWinsAtTarget(t *testing.T) {
	g, players, _ := pigTable(t)
	ann := players[0]
	g.base.Teams.AddToTotal("Ann", 95)
	g.TurnTotal = 10

	do(t, &g.base, ann, "pig_hold")
	assert.Equal(t, game.StatusFinished, g.base.Status)
	assert.Equal(t, "Ann", g.base.WinnerName)
	assert.Equal(t, 105, g.base.Teams.TeamOf("Ann").TotalScore)
}

func TestPigCustomTargetScore(t *testing.T) {
	gg, players, _ := startTable(t, "pig", []string{"Ann", "Ben"}, map[string]string{"target_score": "30"})
	g := gg.(*Pig)
	g.base.Teams.AddToTotal("Ann", 25)
	g.TurnTotal = 5

	do(t, &g.base, players[0], "pig_hold")
	assert.Equal(t, game.StatusFinished, g.base.Status)
}

func TestPigRollAccumulatesOrBusts(t *testing.T) {
	g, _, _ := pigTable(t)

	busted := false
	for i := 0; i < 200 && !busted; i++ {
		current := g.base.CurrentPlayer()
		require.NotNil(t, current)
		before := g.TurnTotal
		do(t, &g.base, current, "pig_roll")
		if g.TurnTotal == 0 {
			busted = true
			assert.NotEqual(t, current.ID, g.base.Turns.CurrentPlayerID(), "a bust passes the turn")
		} else {
			assert.Greater(t, g.TurnTotal, before)
			assert.Equal(t, current.ID, g.base.Turns.CurrentPlayerID())
		}
	}
	assert.True(t, busted, "a one must come up within 200 rolls")
}

func TestPigBotStrategy(t *testing.T) {
	g, players, _ := pigTable(t)
	ann, ben := players[0], players[1]

	assert.Equal(t, "", g.BotThink(ben), "bots wait for their turn")

	g.TurnTotal = 0
	assert.Equal(t, "pig_roll", g.BotThink(ann))

	g.TurnTotal = 20
	assert.Equal(t, "pig_hold", g.BotThink(ann), "hold at twenty")

	g.TurnTotal = 5
	g.base.Teams.AddToTotal("Ann", 96)
	assert.Equal(t, "pig_hold", g.BotThink(ann), "hold early when the bank would win")
}

func TestPigTurnMenuHidesHoldAtZero(t *testing.T) {
	g, players, _ := pigTable(t)

	ids := map[string]bool{}
	for _, it := range g.BuildTurnMenu(players[0]) {
		ids[it.ID] = true
	}
	assert.True(t, ids["pig_roll"])
	assert.False(t, ids["pig_hold"], "nothing to hold yet")

	g.TurnTotal = 8
	ids = map[string]bool{}
	for _, it := range g.BuildTurnMenu(players[0]) {
		ids[it.ID] = true
	}
	assert.True(t, ids["pig_hold"])
}
