package games

import (
	"encoding/json"
	"strconv"

	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/protocol"
)

func init() {
	game.Register(game.Descriptor{
		TypeID:     "pig",
		NameID:     "game_pig_name",
		MinPlayers: 2,
		MaxPlayers: 6,
		DefaultOptions: map[string]string{
			"target_score": "100",
			"team_mode":    game.ModeIndividual,
		},
		New: func() game.Game { return &Pig{} },
	})
}

// Pig is the jeopardy dice game: roll to grow the turn total, hold to
// bank it, a one wipes the turn. First to the target score wins.
type Pig struct {
	base game.Base

	TurnTotal int `json:"turn_total"`
}

func (g *Pig) Base() *game.Base { return &g.base }

func (g *Pig) targetScore() int {
	n, err := strconv.Atoi(g.base.Options["target_score"])
	if err != nil || n < 1 {
		return 100
	}
	return n
}

func (g *Pig) PrestartValidate() []string { return nil }

func (g *Pig) OnStart() {
	g.TurnTotal = 0
	g.announceTurn()
}

func (g *Pig) OnTick() {}

func (g *Pig) SetupKeybinds() {
	g.base.Keybinds.Bind("r", "kb_pig_roll", []string{"pig_roll"}, game.KeybindFilter{ActiveOnly: true})
	g.base.Keybinds.Bind("h", "kb_pig_hold", []string{"pig_hold"}, game.KeybindFilter{ActiveOnly: true})
}

func (g *Pig) SetupPlayer(p *game.Player) {
	myTurn := func(pl *game.Player) string {
		if g.base.Turns.CurrentPlayerID() != pl.ID {
			return "pig_err_not_turn"
		}
		return ""
	}
	playingOnly := func(pl *game.Player) game.Visibility {
		if g.base.Status == game.StatusPlaying && !pl.IsSpectator {
			return game.Visible
		}
		return game.Hidden
	}

	set := p.ActionSet("pig")
	set.Add(&game.Action{
		ID:                "pig_roll",
		LabelID:           "pig_action_roll",
		ShowInActionsMenu: true,
		IsHidden:          playingOnly,
		IsEnabled:         myTurn,
		Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
			g.roll(pl)
		},
	})
	set.Add(&game.Action{
		ID:                "pig_hold",
		LabelID:           "pig_action_hold",
		ShowInActionsMenu: true,
		IsHidden:          playingOnly,
		IsEnabled: func(pl *game.Player) string {
			if reason := myTurn(pl); reason != "" {
				return reason
			}
			if g.TurnTotal == 0 {
				return "pig_err_nothing_to_hold"
			}
			return ""
		},
		Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
			g.hold(pl)
		},
	})
}

// BotThink plays the classic hold-at-20 strategy, holding earlier when
// the bank would already win.
func (g *Pig) BotThink(p *game.Player) string {
	if g.base.Turns.CurrentPlayerID() != p.ID {
		return ""
	}
	banked := 0
	if t := g.base.Teams.TeamOf(p.Name); t != nil {
		banked = t.TotalScore
	}
	if g.TurnTotal > 0 && (g.TurnTotal >= 20 || banked+g.TurnTotal >= g.targetScore()) {
		return "pig_hold"
	}
	return "pig_roll"
}

func (g *Pig) roll(p *game.Player) {
	value := g.base.Rand().Intn(6) + 1
	g.base.PlaySoundAll("dice.ogg", 1, 0, 1)
	g.base.BroadcastL("pig_rolled", map[string]interface{}{"player": p.Name, "value": value})

	if value == 1 {
		g.TurnTotal = 0
		g.base.BroadcastL("pig_busted", map[string]interface{}{"player": p.Name})
		g.base.Sounds.Schedule("bust.ogg", 6, 1, 0, 1)
		g.advance()
		return
	}

	g.TurnTotal += value
	g.base.SpeakTo(p, "pig_turn_total", map[string]interface{}{"points": g.TurnTotal})
	g.base.RebuildAllMenus()
}

func (g *Pig) hold(p *game.Player) {
	points := g.TurnTotal
	g.TurnTotal = 0
	g.base.Teams.AddToTotal(p.Name, points)
	g.base.BroadcastL("pig_held", map[string]interface{}{"player": p.Name, "points": points})
	g.base.PlaySoundAll("bank.ogg", 1, 0, 1)

	if t := g.base.Teams.TeamOf(p.Name); t != nil && t.TotalScore >= g.targetScore() {
		g.base.Finish(p.Name, map[string]interface{}{"score": t.TotalScore})
		return
	}
	g.advance()
}

func (g *Pig) advance() {
	g.TurnTotal = 0
	g.base.AdvanceTurnAnnounced()
	g.base.RebuildAllMenus()
}

func (g *Pig) announceTurn() {
	if current := g.base.CurrentPlayer(); current != nil {
		g.base.BroadcastL("turn_announce", map[string]interface{}{"player": current.Name})
	}
	g.base.RebuildAllMenus()
}

func (g *Pig) BuildTurnMenu(p *game.Player) []protocol.MenuItem {
	loc := playerLocale(p)
	cat := g.base.Catalog()

	items := []protocol.MenuItem{}
	if g.base.Status == game.StatusPlaying {
		if g.base.Turns.CurrentPlayerID() == p.ID && !p.IsSpectator {
			items = append(items,
				protocol.MenuItem{Text: cat.T(loc, "pig_action_roll", nil), ID: "pig_roll"})
			if g.TurnTotal > 0 {
				items = append(items,
					protocol.MenuItem{Text: cat.T(loc, "pig_action_hold", nil), ID: "pig_hold"})
			}
		}
		items = append(items, protocol.MenuItem{
			Text: cat.T(loc, "pig_turn_total", map[string]interface{}{"points": g.TurnTotal}),
			ID:   "status_turn_total",
		})
	}
	items = append(items, lobbyItems(&g.base, p, loc)...)
	return items
}

func (g *Pig) MarshalState() (json.RawMessage, error) { return json.Marshal(g) }

func (g *Pig) UnmarshalState(data json.RawMessage) error { return json.Unmarshal(data, g) }

func (g *Pig) RebuildRuntimeState() {}
