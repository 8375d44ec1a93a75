package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/protocol"
)

// stubGame is a minimal content plug-in exercising the base framework.
type stubGame struct {
	base Base

	Counter int `json:"counter"`

	startCalls   int
	botChoice    string
	prestartErrs []string
}

func (g *stubGame) Base() *Base              { return &g.base }
func (g *stubGame) OnStart()                 { g.startCalls++ }
func (g *stubGame) OnTick()                  {}
func (g *stubGame) PrestartValidate() []string { return g.prestartErrs }
func (g *stubGame) SetupKeybinds()           {}
func (g *stubGame) BotThink(p *Player) string { return g.botChoice }

func (g *stubGame) SetupPlayer(p *Player) {
	set := p.ActionSet("stub")
	set.Add(&Action{
		ID:                "bump",
		LabelID:           "stub_bump",
		ShowInActionsMenu: true,
		Handler: func(pl *Player, ctx ActionContext, input string) {
			g.Counter++
		},
	})
}

func (g *stubGame) BuildTurnMenu(p *Player) []protocol.MenuItem {
	return []protocol.MenuItem{{Text: "bump", ID: "bump"}}
}

func (g *stubGame) MarshalState() (json.RawMessage, error)   { return json.Marshal(g) }
func (g *stubGame) UnmarshalState(data json.RawMessage) error { return json.Unmarshal(data, g) }
func (g *stubGame) RebuildRuntimeState()                      {}

func init() {
	Register(Descriptor{
		TypeID:     "stubgame",
		NameID:     "stub_name",
		MinPlayers: 2,
		MaxPlayers: 4,
		New:        func() Game { return &stubGame{} },
	})
}

func newStub(t *testing.T) *stubGame {
	t.Helper()
	desc, ok := Lookup("stubgame")
	require.True(t, ok)
	g := &stubGame{}
	g.base.Init(g, desc, locale.New(), nil)
	g.base.SetSeed(42)
	return g
}

func seat(t *testing.T, g *stubGame, name string) (*Player, *CaptureUser) {
	t.Helper()
	u := NewCaptureUser(name)
	p, err := g.base.AddPlayer(u, false)
	require.NoError(t, err)
	return p, u
}

func TestAddPlayerHostAndCapacity(t *testing.T) {
	g := newStub(t)
	host, _ := seat(t, g, "Alice")
	assert.True(t, g.base.IsHost(host))

	seat(t, g, "Bob")
	seat(t, g, "Carmen")
	seat(t, g, "Dmitri")

	_, err := g.base.AddPlayer(NewCaptureUser("Elena"), false)
	assert.ErrorIs(t, err, ErrTableFull)

	// Spectators do not count against capacity.
	_, err = g.base.AddPlayer(NewCaptureUser("Felix"), true)
	assert.NoError(t, err)
}

func TestExecuteActionDisabledSpeaksReason(t *testing.T) {
	g := newStub(t)
	p, u := seat(t, g, "Alice")

	ran := false
	a := &Action{
		ID:        "guarded",
		IsEnabled: func(*Player) string { return "stub_reason" },
		Handler:   func(*Player, ActionContext, string) { ran = true },
	}
	p.ActionSet("stub").Add(a)

	g.base.ExecuteAction(p, a, ActionContext{}, "")
	assert.False(t, ran, "disabled actions must not run")
	require.NotEmpty(t, u.Messages)
	assert.Equal(t, "stub_reason", u.Messages[len(u.Messages)-1])
}

func TestExecuteActionPanicIsContained(t *testing.T) {
	g := newStub(t)
	p, u := seat(t, g, "Alice")

	a := &Action{
		ID:      "boom",
		Handler: func(*Player, ActionContext, string) { panic("kaboom") },
	}
	p.ActionSet("stub").Add(a)

	assert.NotPanics(t, func() {
		g.base.ExecuteAction(p, a, ActionContext{}, "")
	})
	require.NotEmpty(t, u.Messages)
	assert.Contains(t, u.Messages[len(u.Messages)-1], "Something went wrong")
	assert.NotEqual(t, StatusDestroyed, g.base.Status)
}

func TestHiddenActionInvisibleButKeybindable(t *testing.T) {
	g := newStub(t)
	p, _ := seat(t, g, "Alice")

	ran := false
	p.ActionSet("stub").Add(&Action{
		ID:       "secret",
		IsHidden: func(*Player) Visibility { return Hidden },
		Handler:  func(*Player, ActionContext, string) { ran = true },
	})
	g.base.Keybinds.Bind("x", "", []string{"secret"}, KeybindFilter{})

	for _, r := range g.base.GetAllVisibleActions(p) {
		assert.NotEqual(t, "secret", r.Action.ID)
	}

	g.base.HandleKeybind(p, &protocol.Keybind{Key: "x"})
	assert.True(t, ran, "hidden actions stay reachable by keybind")
}

func TestKeybindFirstVisibleActionWins(t *testing.T) {
	g := newStub(t)
	p, _ := seat(t, g, "Alice")

	visible := true
	var ran []string
	set := p.ActionSet("stub")
	set.Add(&Action{
		ID: "primary",
		IsHidden: func(*Player) Visibility {
			if visible {
				return Visible
			}
			return Hidden
		},
		Handler: func(*Player, ActionContext, string) { ran = append(ran, "primary") },
	})
	set.Add(&Action{
		ID:      "fallback",
		Handler: func(*Player, ActionContext, string) { ran = append(ran, "fallback") },
	})
	g.base.Keybinds.Bind("c", "", []string{"primary", "fallback"}, KeybindFilter{})

	g.base.HandleKeybind(p, &protocol.Keybind{Key: "c"})
	assert.Equal(t, []string{"primary"}, ran)

	visible = false
	g.base.HandleKeybind(p, &protocol.Keybind{Key: "c"})
	assert.Equal(t, []string{"primary", "fallback"}, ran, "hidden first entry falls through to the next")
}

func TestKeybindChordCanonicalization(t *testing.T) {
	assert.Equal(t, "k", Chord("K", false, false, false))
	assert.Equal(t, "ctrl+shift+f5", Chord("F5", true, false, true))
	assert.Equal(t, "alt+space", Chord("space", false, true, false))
}

func TestKeybindFiltersGateDispatch(t *testing.T) {
	g := newStub(t)
	host, _ := seat(t, g, "Alice")
	other, _ := seat(t, g, "Bob")
	spectator, err := g.base.AddPlayer(NewCaptureUser("Greta"), true)
	require.NoError(t, err)

	var ran []string
	for _, p := range []*Player{host, other, spectator} {
		p := p
		p.ActionSet("stub").Add(&Action{
			ID:      "gated",
			Handler: func(pl *Player, _ ActionContext, _ string) { ran = append(ran, pl.Name) },
		})
	}
	g.base.Keybinds.Bind("g", "", []string{"gated"}, KeybindFilter{ActiveOnly: true, HostOnly: true})

	// Not playing yet: filtered out entirely.
	g.base.HandleKeybind(host, &protocol.Keybind{Key: "g"})
	assert.Empty(t, ran)

	g.base.Status = StatusPlaying
	g.base.HandleKeybind(other, &protocol.Keybind{Key: "g"})
	g.base.HandleKeybind(spectator, &protocol.Keybind{Key: "g"})
	assert.Empty(t, ran, "non-hosts and spectators are filtered")

	g.base.HandleKeybind(host, &protocol.Keybind{Key: "g"})
	assert.Equal(t, []string{"Alice"}, ran)
}

func TestInputPromptMenuFlow(t *testing.T) {
	g := newStub(t)
	p, u := seat(t, g, "Alice")

	var got string
	p.ActionSet("stub").Add(&Action{
		ID: "pick",
		Input: &InputRequest{
			PromptID: "stub_prompt",
			Options: func(*Player) []protocol.MenuItem {
				return []protocol.MenuItem{{Text: "Red", ID: "red"}, {Text: "Blue", ID: "blue"}}
			},
		},
		Handler: func(_ *Player, _ ActionContext, input string) { got = input },
	})

	g.base.ExecuteAction(p, p.FindAction("pick"), ActionContext{}, "")
	assert.Equal(t, "pick", p.AwaitingInput())
	assert.Equal(t, "prompt_pick", u.LastMenuID)

	g.base.HandleMenuActivate(p, &protocol.MenuActivate{MenuID: "prompt_pick", Selection: 2})
	assert.Equal(t, "blue", got, "selection resolves to the option id")
	assert.Empty(t, p.AwaitingInput())
}

func TestInputPromptEscapeCancels(t *testing.T) {
	g := newStub(t)
	p, _ := seat(t, g, "Alice")

	ran := false
	p.ActionSet("stub").Add(&Action{
		ID: "pick",
		Input: &InputRequest{
			Options: func(*Player) []protocol.MenuItem {
				return []protocol.MenuItem{{Text: "Red", ID: "red"}}
			},
		},
		Handler: func(*Player, ActionContext, string) { ran = true },
	})

	g.base.ExecuteAction(p, p.FindAction("pick"), ActionContext{}, "")
	g.base.HandleEscape(p, &protocol.Escape{MenuID: "prompt_pick"})
	assert.Empty(t, p.AwaitingInput())
	assert.False(t, ran)
}

func TestInputBotChoosesSynchronously(t *testing.T) {
	g := newStub(t)
	bot, err := g.base.AddPlayer(NewBotUser("Bruno"), false)
	require.NoError(t, err)

	var got string
	bot.ActionSet("stub").Add(&Action{
		ID: "pick",
		Input: &InputRequest{
			Options: func(*Player) []protocol.MenuItem {
				return []protocol.MenuItem{{Text: "Red", ID: "red"}, {Text: "Blue", ID: "blue"}}
			},
			BotChoose: func(_ *Player, options []protocol.MenuItem) string {
				return options[1].ID
			},
		},
		Handler: func(_ *Player, _ ActionContext, input string) { got = input },
	})

	g.base.ExecuteAction(bot, bot.FindAction("pick"), ActionContext{}, "")
	assert.Equal(t, "blue", got)
	assert.Empty(t, bot.AwaitingInput(), "bots never leave a prompt pending")
}

func TestSubmitInputCompletesPrompt(t *testing.T) {
	g := newStub(t)
	p, _ := seat(t, g, "Alice")

	var got string
	p.ActionSet("stub").Add(&Action{
		ID: "pick",
		Input: &InputRequest{
			Options: func(*Player) []protocol.MenuItem {
				return []protocol.MenuItem{{Text: "Red", ID: "red"}}
			},
		},
		Handler: func(_ *Player, _ ActionContext, input string) { got = input },
	})

	g.base.ExecuteAction(p, p.FindAction("pick"), ActionContext{}, "")
	g.base.SubmitInput(p, "green")
	assert.Equal(t, "green", got)
	assert.Empty(t, p.AwaitingInput())
}

func TestEditboxInputFlow(t *testing.T) {
	g := newStub(t)
	p, _ := seat(t, g, "Alice")

	var got string
	p.ActionSet("stub").Add(&Action{
		ID: "rename",
		Input: &InputRequest{
			PromptID: "stub_prompt",
			Editbox:  true,
			Options:  func(*Player) []protocol.MenuItem { return nil },
		},
		Handler: func(_ *Player, _ ActionContext, input string) { got = input },
	})

	g.base.ExecuteAction(p, p.FindAction("rename"), ActionContext{}, "")
	assert.Equal(t, "rename", p.AwaitingInput())

	g.base.HandleEditbox(p, &protocol.Editbox{InputID: "input_rename", Text: "hello"})
	assert.Equal(t, "hello", got)
}

func TestPumpBotsExecutesAfterThinkDelay(t *testing.T) {
	g := newStub(t)
	bot, err := g.base.AddPlayer(NewBotUser("Bruno"), false)
	require.NoError(t, err)
	require.NotNil(t, bot)

	g.base.Status = StatusPlaying
	g.base.SetBotThinkRange(2, 2)
	g.botChoice = "bump"

	g.base.Tick() // decides, schedules think delay
	assert.Equal(t, 0, g.Counter)
	g.base.Tick()
	g.base.Tick()
	g.base.Tick() // delay elapsed, pending action runs
	assert.Equal(t, 1, g.Counter)
}

func TestFinishEmitsResultAndStopsTicking(t *testing.T) {
	g := newStub(t)
	seat(t, g, "Alice")
	seat(t, g, "Bob")

	var results []GameResult
	g.base.SetResultSink(func(r GameResult) { results = append(results, r) })

	var err error
	g.base.Teams, err = NewTeamManager(ModeIndividual, []string{"Alice", "Bob"})
	require.NoError(t, err)
	g.base.Teams.AddToTotal("Alice", 7)

	g.base.Status = StatusPlaying
	g.base.Finish("Alice", map[string]interface{}{"note": "test"})

	require.Len(t, results, 1)
	assert.Equal(t, "stubgame", results[0].GameType)
	require.Len(t, results[0].Players, 2)
	assert.Equal(t, 1, results[0].Players[0].Placement)
	assert.Equal(t, 7, results[0].Players[0].Score)

	before := g.base.TickCount
	g.base.Tick()
	assert.Equal(t, before, g.base.TickCount, "finished games do not tick")

	// Finishing twice emits one result.
	g.base.Finish("Bob", nil)
	assert.Len(t, results, 1)
}

// packetUser records every queued packet verbatim, for assertions on
// packet types CaptureUser does not track.
type packetUser struct {
	UserID      string
	DisplayName string
	Packets     []interface{}
}

func newPacketUser(name string) *packetUser {
	return &packetUser{UserID: "u-" + name, DisplayName: name}
}

func (p *packetUser) ID() string                { return p.UserID }
func (p *packetUser) Name() string              { return p.DisplayName }
func (p *packetUser) Locale() string            { return "en" }
func (p *packetUser) TrustLevel() string        { return "member" }
func (p *packetUser) IsBot() bool               { return false }
func (p *packetUser) Prefs() *Prefs             { return defaultBotPrefs }
func (p *packetUser) Queue(packet interface{})  { p.Packets = append(p.Packets, packet) }

func lastMenuUpdate(t *testing.T, u *packetUser) protocol.MenuUpdate {
	t.Helper()
	for i := len(u.Packets) - 1; i >= 0; i-- {
		if upd, ok := u.Packets[i].(protocol.MenuUpdate); ok {
			return upd
		}
	}
	t.Fatal("no menu update queued")
	return protocol.MenuUpdate{}
}

func menuItems(ids ...string) []protocol.MenuItem {
	out := make([]protocol.MenuItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, protocol.MenuItem{Text: "item " + id, ID: id})
	}
	return out
}

func TestPushMenuSelectionFollowsSurvivingID(t *testing.T) {
	g := newStub(t)
	u := newPacketUser("Alice")
	p, err := g.base.AddPlayer(u, false)
	require.NoError(t, err)

	pos := 1
	g.base.PushMenu(p, "hand", menuItems("a", "b", "c"), MenuOpts{Position: &pos})

	// The selected item is gone: the selection tracks the op stream and
	// is pushed as an explicit position.
	g.base.PushMenu(p, "hand", menuItems("a", "c"), MenuOpts{})
	upd := lastMenuUpdate(t, u)
	assert.Empty(t, upd.SelectionID)
	require.NotNil(t, upd.Position)
	assert.Equal(t, 1, *upd.Position)

	// The selected item survives a reshuffle: focus follows its id.
	g.base.PushMenu(p, "hand", menuItems("c", "x", "y"), MenuOpts{})
	upd = lastMenuUpdate(t, u)
	assert.Equal(t, "c", upd.SelectionID)
	assert.Nil(t, upd.Position)
}

func TestLobbyPlaylistLifecycle(t *testing.T) {
	g := newStub(t)
	u := newPacketUser("Alice")
	p, err := g.base.AddPlayer(u, false)
	require.NoError(t, err)

	var added, started bool
	for _, pkt := range u.Packets {
		switch pl := pkt.(type) {
		case protocol.AddPlaylist:
			added = true
			assert.Equal(t, "lobby", pl.PlaylistID)
			assert.NotEmpty(t, pl.Tracks)
		case protocol.StartPlaylist:
			started = true
			assert.Equal(t, "lobby", pl.PlaylistID)
		}
	}
	assert.True(t, added, "seated humans get the waiting-room playlist")
	assert.True(t, started)

	runAction(t, g, p, "add_bot")
	runAction(t, g, p, "start_game")
	require.Equal(t, StatusPlaying, g.base.Status)

	removed := false
	for _, pkt := range u.Packets {
		if rm, ok := pkt.(protocol.RemovePlaylist); ok && rm.PlaylistID == "lobby" {
			removed = true
		}
	}
	assert.True(t, removed, "start_game removes the waiting-room playlist")
}

func TestMusicTimeQueryRoundTrip(t *testing.T) {
	g := newStub(t)
	cat := g.base.Catalog()
	u := newPacketUser("Alice")
	p, err := g.base.AddPlayer(u, false)
	require.NoError(t, err)

	g.base.HandleKeybind(p, &protocol.Keybind{Key: "m", Shift: true})

	var query protocol.GetPlaylistDuration
	found := false
	for _, pkt := range u.Packets {
		if q, ok := pkt.(protocol.GetPlaylistDuration); ok {
			query = q
			found = true
		}
	}
	require.True(t, found, "shift+m asks the client for the remaining music time")
	assert.NotZero(t, query.RequestID)

	// A stale request id is dropped.
	before := len(u.Packets)
	g.base.HandlePlaylistDuration(p, &protocol.PlaylistDurationResponse{RequestID: query.RequestID + 99, Duration: 10})
	assert.Equal(t, before, len(u.Packets))

	g.base.HandlePlaylistDuration(p, &protocol.PlaylistDurationResponse{RequestID: query.RequestID, Duration: 42.7})
	want := cat.T("en", "music_time_left", map[string]interface{}{"seconds": 42})
	last := u.Packets[len(u.Packets)-1].(protocol.Speak)
	assert.Equal(t, want, last.Text)

	// The answer consumes the query; a duplicate is ignored.
	before = len(u.Packets)
	g.base.HandlePlaylistDuration(p, &protocol.PlaylistDurationResponse{RequestID: query.RequestID, Duration: 42.7})
	assert.Equal(t, before, len(u.Packets))
}

func TestEscapeCancelsEditboxAndRemovesInput(t *testing.T) {
	g := newStub(t)
	u := newPacketUser("Alice")
	p, err := g.base.AddPlayer(u, false)
	require.NoError(t, err)

	ran := false
	p.ActionSet("stub").Add(&Action{
		ID: "rename",
		Input: &InputRequest{
			PromptID: "stub_prompt",
			Editbox:  true,
			Options:  func(*Player) []protocol.MenuItem { return nil },
		},
		Handler: func(*Player, ActionContext, string) { ran = true },
	})

	g.base.ExecuteAction(p, p.FindAction("rename"), ActionContext{}, "")
	require.Equal(t, "rename", p.AwaitingInput())

	g.base.HandleEscape(p, &protocol.Escape{MenuID: "input_rename"})
	assert.Empty(t, p.AwaitingInput())
	assert.False(t, ran)

	removed := false
	for _, pkt := range u.Packets {
		if rm, ok := pkt.(protocol.RemoveInput); ok && rm.InputID == "input_rename" {
			removed = true
		}
	}
	assert.True(t, removed, "cancelling an editbox tells the client to drop it")
}

func TestSubstituteBotKeepsSeat(t *testing.T) {
	g := newStub(t)
	p, _ := seat(t, g, "Alice")
	id := p.ID

	g.base.SubstituteBot(p)
	assert.True(t, p.IsBot)
	assert.Equal(t, id, p.User().ID(), "the bot inherits the seat id")
	assert.Equal(t, "Alice", p.User().Name())
}
