package games

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/protocol"
)

func init() {
	game.Register(game.Descriptor{
		TypeID:     "crazy8",
		NameID:     "game_crazy8_name",
		MinPlayers: 2,
		MaxPlayers: 5,
		DefaultOptions: map[string]string{
			"hand_size": "5",
			"team_mode": game.ModeIndividual,
		},
		New: func() game.Game { return &CrazyEights{} },
	})
}

var c8Suits = []string{"clubs", "diamonds", "hearts", "spades"}

var c8SuitNames = map[string]string{
	"clubs":    "crazy8_suit_clubs",
	"diamonds": "crazy8_suit_diamonds",
	"hearts":   "crazy8_suit_hearts",
	"spades":   "crazy8_suit_spades",
}

// c8Card is one playing card, e.g. {Rank: "8", Suit: "hearts"}.
type c8Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

func (c c8Card) id() string { return c.Rank + "_" + c.Suit }

func (c c8Card) label() string {
	suit := strings.ToUpper(c.Suit[:1]) + c.Suit[1:]
	return fmt.Sprintf("%s of %s", c.Rank, suit)
}

// CrazyEights: shed your hand by matching the top card's suit or rank.
// Eights are wild and name the next suit.
type CrazyEights struct {
	base game.Base

	Deck        []c8Card            `json:"deck"`
	Discard     []c8Card            `json:"discard"`
	Hands       map[string][]c8Card `json:"hands"` // player id -> hand
	CurrentSuit string              `json:"current_suit"`
}

func (g *CrazyEights) Base() *game.Base { return &g.base }

func (g *CrazyEights) PrestartValidate() []string { return nil }

func (g *CrazyEights) OnStart() {
	g.Deck = freshDeck()
	g.shuffle()
	g.Hands = make(map[string][]c8Card)
	handSize := 5
	if n := g.base.Options["hand_size"]; n == "7" {
		handSize = 7
	}
	for _, p := range g.base.ActivePlayers() {
		for i := 0; i < handSize; i++ {
			g.Hands[p.ID] = append(g.Hands[p.ID], g.draw())
		}
	}
	// Flip the starter; an eight goes back under the deck.
	for {
		top := g.draw()
		if top.Rank != "8" {
			g.Discard = append(g.Discard, top)
			g.CurrentSuit = top.Suit
			break
		}
		g.Deck = append([]c8Card{top}, g.Deck...)
	}

	for _, p := range g.base.ActivePlayers() {
		g.refreshHandActions(p)
	}
	g.base.BroadcastL("crazy8_top_card", map[string]interface{}{"card": g.top().label()})
	g.base.RebuildAllMenus()
}

func (g *CrazyEights) OnTick() {}

func freshDeck() []c8Card {
	ranks := []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "jack", "queen", "king", "ace"}
	deck := make([]c8Card, 0, len(ranks)*len(c8Suits))
	for _, suit := range c8Suits {
		for _, rank := range ranks {
			deck = append(deck, c8Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}

func (g *CrazyEights) shuffle() {
	rng := g.base.Rand()
	rng.Shuffle(len(g.Deck), func(i, j int) {
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	})
}

// draw takes the top deck card, recycling the discard pile under the
// top card when the deck runs dry.
func (g *CrazyEights) draw() c8Card {
	if len(g.Deck) == 0 && len(g.Discard) > 1 {
		top := g.Discard[len(g.Discard)-1]
		g.Deck = g.Discard[:len(g.Discard)-1]
		g.Discard = []c8Card{top}
		g.shuffle()
	}
	if len(g.Deck) == 0 {
		// Degenerate deck-out: duplicate a low card so play continues.
		return c8Card{Rank: "2", Suit: c8Suits[g.base.Rand().Intn(4)]}
	}
	card := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return card
}

func (g *CrazyEights) top() c8Card { return g.Discard[len(g.Discard)-1] }

func (g *CrazyEights) playable(c c8Card) bool {
	return c.Rank == "8" || c.Rank == g.top().Rank || c.Suit == g.CurrentSuit
}

func (g *CrazyEights) SetupKeybinds() {
	g.base.Keybinds.Bind("d", "kb_crazy8_draw", []string{"suit_diamonds", "crazy8_draw"}, game.KeybindFilter{ActiveOnly: true})
	g.base.Keybinds.Bind("h", "kb_crazy8_suit_hearts", []string{"suit_hearts"}, game.KeybindFilter{ActiveOnly: true})
	g.base.Keybinds.Bind("p", "kb_crazy8_suit_spades", []string{"suit_spades"}, game.KeybindFilter{ActiveOnly: true})
	// The same key answers an open suit prompt or, otherwise, reads the
	// discard pile: the first visible action in the list wins.
	g.base.Keybinds.Bind("c", "kb_crazy8_clubs_or_status", []string{"suit_clubs", "check_status"}, game.KeybindFilter{ActiveOnly: true, IncludeSpectators: true})
}

func (g *CrazyEights) SetupPlayer(p *game.Player) {
	myTurn := func(pl *game.Player) string {
		if g.base.Turns.CurrentPlayerID() != pl.ID {
			return "error_not_your_turn"
		}
		return ""
	}
	playingOnly := func(pl *game.Player) game.Visibility {
		if g.base.Status == game.StatusPlaying && !pl.IsSpectator {
			return game.Visible
		}
		return game.Hidden
	}

	set := p.ActionSet("crazy8")
	set.Add(&game.Action{
		ID:                "crazy8_draw",
		LabelID:           "crazy8_action_draw",
		ShowInActionsMenu: true,
		IsHidden:          playingOnly,
		IsEnabled:         myTurn,
		Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
			g.drawAction(pl)
		},
	})
	set.Add(&game.Action{
		ID:      "check_status",
		LabelID: "crazy8_action_status",
		IsHidden: func(*game.Player) game.Visibility {
			return game.Hidden
		},
		Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
			args := map[string]interface{}{"card": g.top().label()}
			g.base.SpeakTo(pl, "crazy8_top_card", args)
			if g.CurrentSuit != g.top().Suit {
				suit := g.base.Catalog().T(playerLocale(pl), c8SuitNames[g.CurrentSuit], nil)
				g.base.SpeakTo(pl, "crazy8_wild_suit", map[string]interface{}{"suit": suit})
			}
		},
	})

	// Suit shortcuts answer the wild-suit prompt; hidden whenever no
	// prompt is open, which lets their chords fall through.
	for _, suit := range c8Suits {
		suit := suit
		set.Add(&game.Action{
			ID:      "suit_" + suit,
			LabelID: c8SuitNames[suit],
			IsHidden: func(pl *game.Player) game.Visibility {
				if strings.HasPrefix(pl.AwaitingInput(), "play_card_8_") {
					return game.Visible
				}
				return game.Hidden
			},
			Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
				g.base.SubmitInput(pl, suit)
			},
		})
	}

	g.refreshHandActions(p)
}

// refreshHandActions rebuilds the dynamic play_card_<id> actions to
// mirror the player's hand.
func (g *CrazyEights) refreshHandActions(p *game.Player) {
	set := p.ActionSet("crazy8_hand")
	set.RemoveByPrefix("play_card_")
	for _, card := range g.Hands[p.ID] {
		card := card
		a := &game.Action{
			ID:      "play_card_" + card.id(),
			LabelID: "crazy8_action_play",
			GetLabel: func(pl *game.Player) string {
				return g.base.Catalog().T(playerLocale(pl), "crazy8_action_play",
					map[string]interface{}{"card": card.label()})
			},
			IsHidden: func(pl *game.Player) game.Visibility {
				if g.base.Status == game.StatusPlaying && !pl.IsSpectator {
					return game.Visible
				}
				return game.Hidden
			},
			IsEnabled: func(pl *game.Player) string {
				if g.base.Turns.CurrentPlayerID() != pl.ID {
					return "error_not_your_turn"
				}
				if !g.playable(card) {
					return "crazy8_err_cannot_play"
				}
				return ""
			},
			Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
				g.playCard(pl, card, input)
			},
		}
		if card.Rank == "8" {
			a.Input = &game.InputRequest{
				PromptID: "crazy8_choose_suit",
				Options:  g.suitOptions,
				BotChoose: func(pl *game.Player, options []protocol.MenuItem) string {
					return g.bestSuit(pl)
				},
			}
		}
		set.Add(a)
	}
}

func (g *CrazyEights) suitOptions(p *game.Player) []protocol.MenuItem {
	loc := playerLocale(p)
	items := make([]protocol.MenuItem, 0, len(c8Suits))
	for _, suit := range c8Suits {
		items = append(items, protocol.MenuItem{
			Text: g.base.Catalog().T(loc, c8SuitNames[suit], nil),
			ID:   suit,
		})
	}
	return items
}

// bestSuit picks the suit the player holds most of.
func (g *CrazyEights) bestSuit(p *game.Player) string {
	counts := map[string]int{}
	for _, c := range g.Hands[p.ID] {
		if c.Rank != "8" {
			counts[c.Suit]++
		}
	}
	best := c8Suits[0]
	for _, suit := range c8Suits {
		if counts[suit] > counts[best] {
			best = suit
		}
	}
	return best
}

func (g *CrazyEights) playCard(p *game.Player, card c8Card, suitChoice string) {
	hand := g.Hands[p.ID]
	idx := -1
	for i, c := range hand {
		if c == card {
			idx = i
			break
		}
	}
	if idx < 0 || !g.playable(card) {
		g.base.SpeakTo(p, "crazy8_err_cannot_play", nil)
		return
	}

	g.Hands[p.ID] = append(hand[:idx], hand[idx+1:]...)
	g.Discard = append(g.Discard, card)
	g.CurrentSuit = card.Suit
	g.base.PlaySoundAll("card_play.ogg", 1, 0, 1)
	g.base.BroadcastL("crazy8_played", map[string]interface{}{"player": p.Name, "card": card.label()})

	if card.Rank == "8" {
		valid := false
		for _, suit := range c8Suits {
			if suit == suitChoice {
				valid = true
			}
		}
		if !valid {
			suitChoice = g.bestSuit(p)
		}
		g.CurrentSuit = suitChoice
		for _, pl := range g.base.Players {
			suit := g.base.Catalog().T(playerLocale(pl), c8SuitNames[suitChoice], nil)
			g.base.SpeakTo(pl, "crazy8_wild_suit", map[string]interface{}{"suit": suit})
		}
	}

	g.refreshHandActions(p)
	if len(g.Hands[p.ID]) == 0 {
		for _, pl := range g.base.ActivePlayers() {
			g.base.Teams.AddToTotal(pl.Name, -len(g.Hands[pl.ID]))
		}
		g.base.Finish(p.Name, map[string]interface{}{"cards_left": g.cardsLeft()})
		return
	}
	g.base.BroadcastL("crazy8_hand_count", map[string]interface{}{"player": p.Name, "count": len(g.Hands[p.ID])})
	g.advance()
}

func (g *CrazyEights) drawAction(p *game.Player) {
	card := g.draw()
	g.Hands[p.ID] = append(g.Hands[p.ID], card)
	g.base.BroadcastL("crazy8_drew", map[string]interface{}{"player": p.Name})
	g.base.SpeakTo(p, "crazy8_drew_count", map[string]interface{}{"card": card.label()})
	g.base.PlaySoundAll("card_draw.ogg", 1, 0, 1)
	g.refreshHandActions(p)

	// Drawing ends the turn unless the drawn card is immediately playable.
	if !g.playable(card) {
		g.advance()
		return
	}
	g.base.RebuildAllMenus()
}

func (g *CrazyEights) cardsLeft() map[string]int {
	out := make(map[string]int, len(g.Hands))
	for _, p := range g.base.ActivePlayers() {
		out[p.Name] = len(g.Hands[p.ID])
	}
	return out
}

func (g *CrazyEights) advance() {
	g.base.AdvanceTurnAnnounced()
	g.base.RebuildAllMenus()
}

func (g *CrazyEights) BotThink(p *game.Player) string {
	if g.base.Turns.CurrentPlayerID() != p.ID {
		return ""
	}
	// Prefer a non-eight match, save eights for when stuck.
	var eight *c8Card
	for i, c := range g.Hands[p.ID] {
		if !g.playable(c) {
			continue
		}
		if c.Rank == "8" {
			eight = &g.Hands[p.ID][i]
			continue
		}
		return "play_card_" + c.id()
	}
	if eight != nil {
		return "play_card_" + eight.id()
	}
	return "crazy8_draw"
}

func (g *CrazyEights) BuildTurnMenu(p *game.Player) []protocol.MenuItem {
	loc := playerLocale(p)
	cat := g.base.Catalog()

	items := []protocol.MenuItem{}
	if g.base.Status == game.StatusPlaying {
		top := cat.T(loc, "crazy8_top_card", map[string]interface{}{"card": g.top().label()})
		items = append(items, protocol.MenuItem{Text: top, ID: "status_top"})
		if !p.IsSpectator {
			for _, card := range g.Hands[p.ID] {
				items = append(items, protocol.MenuItem{
					Text: card.label(),
					ID:   "play_card_" + card.id(),
				})
			}
			items = append(items, protocol.MenuItem{
				Text: cat.T(loc, "crazy8_action_draw", nil),
				ID:   "crazy8_draw",
			})
		}
	}
	items = append(items, lobbyItems(&g.base, p, loc)...)
	return items
}

func (g *CrazyEights) MarshalState() (json.RawMessage, error) { return json.Marshal(g) }

func (g *CrazyEights) UnmarshalState(data json.RawMessage) error { return json.Unmarshal(data, g) }

// RebuildRuntimeState re-creates the dynamic hand actions after a
// restore; SetupPlayer has already installed the static sets.
func (g *CrazyEights) RebuildRuntimeState() {
	for _, p := range g.base.Players {
		g.refreshHandActions(p)
	}
}
