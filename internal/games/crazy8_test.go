package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/protocol"
)

func c8Table(t *testing.T) (*CrazyEights, []*game.Player, []*game.CaptureUser) {
	t.Helper()
	gg, players, users := startTable(t, "crazy8", []string{"Ann", "Ben"}, nil)
	return gg.(*CrazyEights), players, users
}

// rig replaces the dealt state with a known position and rebuilds the
// dynamic hand actions.
func rig(g *CrazyEights, top c8Card, hands map[string][]c8Card, deck []c8Card) {
	g.Discard = []c8Card{top}
	g.CurrentSuit = top.Suit
	g.Deck = deck
	for id, hand := range hands {
		g.Hands[id] = hand
	}
	for _, p := range g.base.Players {
		g.refreshHandActions(p)
	}
}

func TestCrazyEightsDealAndStarter(t *testing.T) {
	g, players, _ := c8Table(t)
	for _, p := range players {
		assert.Len(t, g.Hands[p.ID], 5)
	}
	require.NotEmpty(t, g.Discard)
	assert.NotEqual(t, "8", g.top().Rank, "an eight never starts the discard")
	assert.Equal(t, g.top().Suit, g.CurrentSuit)
	assert.Len(t, g.Deck, 52-2*5-len(g.Discard))
}

func TestCrazyEightsSevenCardOption(t *testing.T) {
	gg, players, _ := startTable(t, "crazy8", []string{"Ann", "Ben"}, map[string]string{"hand_size": "7"})
	g := gg.(*CrazyEights)
	for _, p := range players {
		assert.Len(t, g.Hands[p.ID], 7)
	}
}

func TestCrazyEightsPlayMatchingCard(t *testing.T) {
	g, players, _ := c8Table(t)
	ann, ben := players[0], players[1]
	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "9", Suit: "hearts"}, {Rank: "3", Suit: "spades"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})

	do(t, &g.base, ann, "play_card_9_hearts")
	assert.Equal(t, c8Card{Rank: "9", Suit: "hearts"}, g.top())
	assert.Equal(t, "hearts", g.CurrentSuit)
	assert.Len(t, g.Hands[ann.ID], 1)
	assert.Equal(t, ben.ID, g.base.Turns.CurrentPlayerID())
}

func TestCrazyEightsMismatchRefused(t *testing.T) {
	g, players, users := c8Table(t)
	ann := players[0]
	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "3", Suit: "spades"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})

	do(t, &g.base, ann, "play_card_3_spades")
	assert.Len(t, g.Hands[ann.ID], 1)
	assert.Equal(t, ann.ID, g.base.Turns.CurrentPlayerID())
	assert.Contains(t, users[0].Messages, said(g.base.Catalog(), "crazy8_err_cannot_play", nil))
}

func TestCrazyEightsWildPromptThenClubsKey(t *testing.T) {
	g, players, users := c8Table(t)
	ann, ben := players[0], players[1]
	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "8", Suit: "spades"}, {Rank: "2", Suit: "hearts"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})

	do(t, &g.base, ann, "play_card_8_spades")
	assert.Equal(t, "play_card_8_spades", ann.AwaitingInput())
	assert.Equal(t, "prompt_play_card_8_spades", users[0].LastMenuID)

	// While the prompt is open the c key answers it with clubs.
	g.base.HandleKeybind(ann, &protocol.Keybind{Key: "c"})
	assert.Empty(t, ann.AwaitingInput())
	assert.Equal(t, "clubs", g.CurrentSuit)
	assert.Len(t, g.Hands[ann.ID], 1)
	assert.Equal(t, ben.ID, g.base.Turns.CurrentPlayerID())
}

func TestCrazyEightsClubsKeyReadsStatusWithoutPrompt(t *testing.T) {
	g, players, users := c8Table(t)
	ann := players[0]
	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "2", Suit: "hearts"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})
	g.CurrentSuit = "hearts" // a wild suit is in effect

	g.base.HandleKeybind(ann, &protocol.Keybind{Key: "c"})
	cat := g.base.Catalog()
	assert.Contains(t, users[0].Messages,
		said(cat, "crazy8_top_card", map[string]interface{}{"card": "5 of Clubs"}))
	assert.Contains(t, users[0].Messages,
		said(cat, "crazy8_wild_suit", map[string]interface{}{"suit": said(cat, "crazy8_suit_hearts", nil)}))
}

func TestCrazyEightsPromptMenuSelection(t *testing.T) {
	g, players, _ := c8Table(t)
	ann := players[0]
	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "8", Suit: "spades"}, {Rank: "2", Suit: "hearts"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})

	do(t, &g.base, ann, "play_card_8_spades")
	// Suit options follow the fixed clubs, diamonds, hearts, spades order.
	g.base.HandleMenuActivate(ann, &protocol.MenuActivate{MenuID: "prompt_play_card_8_spades", Selection: 3})
	assert.Equal(t, "hearts", g.CurrentSuit)
}

func TestCrazyEightsBotPicksLongestSuit(t *testing.T) {
	g, players, _ := c8Table(t)
	ann := players[0]
	g.base.SubstituteBot(ann)
	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "8", Suit: "spades"}, {Rank: "4", Suit: "hearts"}, {Rank: "7", Suit: "hearts"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})

	do(t, &g.base, ann, "play_card_8_spades")
	assert.Equal(t, "hearts", g.CurrentSuit, "the bot names its longest suit")
	assert.Len(t, g.Hands[ann.ID], 2)
}

func TestCrazyEightsDrawEndsTurnUnlessPlayable(t *testing.T) {
	g, players, _ := c8Table(t)
	ann, ben := players[0], players[1]

	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "2", Suit: "hearts"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})
	do(t, &g.base, ann, "crazy8_draw")
	assert.Len(t, g.Hands[ann.ID], 2)
	assert.Equal(t, ben.ID, g.base.Turns.CurrentPlayerID(), "an unplayable draw passes the turn")

	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ben.ID: {{Rank: "2", Suit: "hearts"}},
	}, []c8Card{{Rank: "5", Suit: "hearts"}})
	do(t, &g.base, ben, "crazy8_draw")
	assert.Equal(t, ben.ID, g.base.Turns.CurrentPlayerID(), "a playable draw keeps the turn")
}

func TestCrazyEightsEmptyHandWins(t *testing.T) {
	g, players, _ := c8Table(t)
	ann, ben := players[0], players[1]
	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "9", Suit: "hearts"}},
		ben.ID: {{Rank: "2", Suit: "spades"}, {Rank: "3", Suit: "spades"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})

	do(t, &g.base, ann, "play_card_9_hearts")
	assert.Equal(t, game.StatusFinished, g.base.Status)
	assert.Equal(t, "Ann", g.base.WinnerName)
	assert.Equal(t, -2, g.base.Teams.TeamOf("Ben").TotalScore, "losers score minus cards left")
}

func TestCrazyEightsBotThinkPrefersNonEight(t *testing.T) {
	g, players, _ := c8Table(t)
	ann := players[0]

	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "8", Suit: "clubs"}, {Rank: "5", Suit: "clubs"}},
	}, nil)
	assert.Equal(t, "play_card_5_clubs", g.BotThink(ann))

	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "8", Suit: "clubs"}, {Rank: "4", Suit: "diamonds"}},
	}, nil)
	assert.Equal(t, "play_card_8_clubs", g.BotThink(ann), "the eight goes only when stuck")

	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "4", Suit: "diamonds"}},
	}, nil)
	assert.Equal(t, "crazy8_draw", g.BotThink(ann))

	assert.Equal(t, "", g.BotThink(players[1]))
}

func TestCrazyEightsDeckRecyclesDiscard(t *testing.T) {
	g, players, _ := c8Table(t)
	ann := players[0]
	rig(g, c8Card{Rank: "5", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "2", Suit: "hearts"}},
	}, nil)
	g.Discard = []c8Card{{Rank: "9", Suit: "diamonds"}, {Rank: "5", Suit: "clubs"}}

	card := g.draw()
	assert.Equal(t, c8Card{Rank: "9", Suit: "diamonds"}, card, "the buried discard comes back")
	require.Len(t, g.Discard, 1)
	assert.Equal(t, c8Card{Rank: "5", Suit: "clubs"}, g.top(), "the top card stays in place")
}

func TestCrazyEightsSnapshotRoundTrip(t *testing.T) {
	g, players, _ := c8Table(t)
	ann := players[0]
	rig(g, c8Card{Rank: "9", Suit: "clubs"}, map[string][]c8Card{
		ann.ID: {{Rank: "9", Suit: "hearts"}, {Rank: "3", Suit: "spades"}},
	}, []c8Card{{Rank: "4", Suit: "diamonds"}})
	do(t, &g.base, ann, "play_card_9_hearts")

	data, err := g.base.Snapshot()
	require.NoError(t, err)

	restored, err := game.RestoreGame(data, g.base.Catalog())
	require.NoError(t, err)
	r := restored.(*CrazyEights)

	assert.Equal(t, g.CurrentSuit, r.CurrentSuit)
	assert.Equal(t, g.Hands, r.Hands)
	assert.Equal(t, g.top(), r.top())
	assert.Equal(t, g.base.Turns.CurrentPlayerID(), r.base.Turns.CurrentPlayerID())
	assert.Equal(t, game.StatusPlaying, r.base.Status)

	// Dynamic hand actions come back with the state.
	ben := r.base.PlayerByID(players[1].ID)
	require.NotNil(t, ben)
	for _, card := range r.Hands[ben.ID] {
		assert.NotNil(t, ben.FindAction("play_card_"+card.id()))
	}
	assert.Nil(t, ben.User(), "humans reconnect through the table layer")
}
