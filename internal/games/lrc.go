package games

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/protocol"
)

func init() {
	game.Register(game.Descriptor{
		TypeID:     "lrc",
		NameID:     "game_lrc_name",
		MinPlayers: 3,
		MaxPlayers: 8,
		DefaultOptions: map[string]string{
			"starting_chips": "3",
			"team_mode":      game.ModeIndividual,
		},
		New: func() game.Game { return &LRC{} },
	})
}

// LRC die faces. Three dot faces make keeping twice as likely as any
// single pass direction.
const (
	faceLeft   = "L"
	faceRight  = "R"
	faceCenter = "C"
	faceDot    = "."
)

// LRC is Left, Right, Center: roll up to three dice, pass chips where
// they say, last player holding chips wins.
type LRC struct {
	base game.Base

	Chips map[string]int `json:"chips"` // player id -> chip count
	Pot   int            `json:"pot"`

	// forcedRolls overrides the dice for deterministic play; consumed
	// front to back.
	forcedRolls []string
}

func (g *LRC) Base() *game.Base { return &g.base }

func (g *LRC) startingChips() int {
	n, err := strconv.Atoi(g.base.Options["starting_chips"])
	if err != nil || n < 1 {
		return 3
	}
	return n
}

func (g *LRC) PrestartValidate() []string { return nil }

func (g *LRC) OnStart() {
	g.Chips = make(map[string]int)
	g.Pot = 0
	for _, p := range g.base.ActivePlayers() {
		g.Chips[p.ID] = g.startingChips()
	}
	g.base.PlayMusic("music/lrc_loop.ogg", true)
	g.announceTurn()
}

func (g *LRC) OnTick() {}

func (g *LRC) SetupKeybinds() {
	g.base.Keybinds.Bind("r", "kb_lrc_roll", []string{"lrc_roll"}, game.KeybindFilter{ActiveOnly: true})
}

func (g *LRC) SetupPlayer(p *game.Player) {
	set := p.ActionSet("lrc")
	set.Add(&game.Action{
		ID:                "lrc_roll",
		LabelID:           "lrc_action_roll",
		ShowInActionsMenu: true,
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
			return ""
		},
		Handler: func(pl *game.Player, ctx game.ActionContext, input string) {
			g.roll(pl)
		},
	})
}

func (g *LRC) BotThink(p *game.Player) string {
	if g.base.Turns.CurrentPlayerID() == p.ID {
		return "lrc_roll"
	}
	return ""
}

// ForceRolls queues dice faces for the next rolls, used by the simulate
// harness's scripted scenarios.
func (g *LRC) ForceRolls(faces ...string) {
	g.forcedRolls = append(g.forcedRolls, faces...)
}

func (g *LRC) rollFace() string {
	if len(g.forcedRolls) > 0 {
		face := g.forcedRolls[0]
		g.forcedRolls = g.forcedRolls[1:]
		return face
	}
	switch g.base.Rand().Intn(6) {
	case 0:
		return faceLeft
	case 1:
		return faceRight
	case 2:
		return faceCenter
	default:
		return faceDot
	}
}

func (g *LRC) roll(p *game.Player) {
	chips := g.Chips[p.ID]
	if chips == 0 {
		g.base.BroadcastL("lrc_no_chips", map[string]interface{}{"player": p.Name})
		g.advance()
		return
	}

	dice := chips
	if dice > 3 {
		dice = 3
	}
	faces := make([]string, dice)
	for i := range faces {
		faces[i] = g.rollFace()
	}
	g.base.PlaySoundAll("dice.ogg", 1, 0, 1)
	g.base.BroadcastL("lrc_rolled", map[string]interface{}{
		"player": p.Name,
		"dice":   strings.Join(faces, " "),
	})

	order := g.base.Turns.PlayerIDs
	kept := 0
	for _, face := range faces {
		switch face {
		case faceLeft:
			target := g.neighbor(order, p.ID, -1)
			g.transfer(p, target, "lrc_pass_left")
		case faceRight:
			target := g.neighbor(order, p.ID, +1)
			g.transfer(p, target, "lrc_pass_right")
		case faceCenter:
			g.Chips[p.ID]--
			g.Pot++
			g.base.BroadcastL("lrc_pass_center", map[string]interface{}{"player": p.Name})
			g.base.Sounds.Schedule("chip_center.ogg", 4, 1, 0, 1)
		default:
			kept++
		}
	}
	if kept == len(faces) {
		g.base.BroadcastL("lrc_keeps", map[string]interface{}{"player": p.Name})
	}
	g.base.BroadcastL("lrc_chips", map[string]interface{}{"player": p.Name, "count": g.Chips[p.ID]})

	if winner := g.winner(); winner != nil {
		g.finish(winner)
		return
	}
	g.advance()
}

func (g *LRC) neighbor(order []string, playerID string, dir int) string {
	for i, id := range order {
		if id == playerID {
			n := len(order)
			return order[((i+dir)%n+n)%n]
		}
	}
	return playerID
}

func (g *LRC) transfer(from *game.Player, toID, announceID string) {
	g.Chips[from.ID]--
	g.Chips[toID]++
	target := g.base.PlayerByID(toID)
	name := toID
	if target != nil {
		name = target.Name
	}
	g.base.BroadcastL(announceID, map[string]interface{}{"player": from.Name, "target": name})
	g.base.Sounds.Schedule("chip_pass.ogg", 4, 1, 0, 1)
}

// winner returns the last player holding chips, nil while two or more
// still have any.
func (g *LRC) winner() *game.Player {
	var last *game.Player
	for _, p := range g.base.ActivePlayers() {
		if g.Chips[p.ID] > 0 {
			if last != nil {
				return nil
			}
			last = p
		}
	}
	return last
}

func (g *LRC) finish(winner *game.Player) {
	// Winner collects the pot; totals double as final scores.
	g.Chips[winner.ID] += g.Pot
	g.Pot = 0
	for _, p := range g.base.ActivePlayers() {
		g.base.Teams.AddToTotal(p.Name, g.Chips[p.ID])
	}
	g.base.Finish(winner.Name, map[string]interface{}{"chips": g.Chips[winner.ID]})
}

func (g *LRC) advance() {
	g.base.AdvanceTurnAnnounced()
	g.base.RebuildAllMenus()
}

func (g *LRC) announceTurn() {
	if current := g.base.CurrentPlayer(); current != nil {
		g.base.BroadcastL("turn_announce", map[string]interface{}{"player": current.Name})
	}
	g.base.RebuildAllMenus()
}

func (g *LRC) BuildTurnMenu(p *game.Player) []protocol.MenuItem {
	loc := "en"
	if u := p.User(); u != nil {
		loc = u.Locale()
	}
	cat := g.base.Catalog()

	items := []protocol.MenuItem{}
	if g.base.Status == game.StatusPlaying {
		if g.base.Turns.CurrentPlayerID() == p.ID && !p.IsSpectator {
			items = append(items, protocol.MenuItem{
				Text: cat.T(loc, "lrc_action_roll", nil),
				ID:   "lrc_roll",
			})
		}
		items = append(items, protocol.MenuItem{
			Text: cat.T(loc, "lrc_status_chips", map[string]interface{}{"count": g.Chips[p.ID]}),
			ID:   "status_chips",
		})
		items = append(items, protocol.MenuItem{
			Text: cat.T(loc, "lrc_status_pot", map[string]interface{}{"count": g.Pot}),
			ID:   "status_pot",
		})
	}
	items = append(items, lobbyItems(&g.base, p, loc)...)
	return items
}

func (g *LRC) MarshalState() (json.RawMessage, error) { return json.Marshal(g) }

func (g *LRC) UnmarshalState(data json.RawMessage) error { return json.Unmarshal(data, g) }

func (g *LRC) RebuildRuntimeState() {}
