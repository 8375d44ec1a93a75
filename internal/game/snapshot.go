package game

import (
	"encoding/json"
	"fmt"

	"github.com/audioroom/backend/internal/locale"
)

// snapshot is the wire form of a saved game: everything serializable in
// the base plus the game content's own opaque blob. Runtime hooks,
// action sets and menu caches are rebuilt on restore.
type snapshot struct {
	GameType        string            `json:"game_type"`
	Status          Status            `json:"status"`
	HostID          string            `json:"host_id"`
	Options         map[string]string `json:"options"`
	Players         []*Player         `json:"players"`
	Turns           *TurnManager      `json:"turns"`
	Teams           *TeamManager      `json:"teams,omitempty"`
	Sounds          *SoundScheduler   `json:"sounds"`
	TimerState      string            `json:"round_timer_state"`
	TimerTicks      int               `json:"round_timer_ticks"`
	TickCount       int64             `json:"tick_count"`
	Round           int               `json:"round"`
	WinnerName      string            `json:"winner,omitempty"`
	CurrentMusic    string            `json:"current_music,omitempty"`
	CurrentAmbience string            `json:"current_ambience,omitempty"`
	GameData        json.RawMessage   `json:"game_data"`
}

// Snapshot serializes the full game for persistence.
func (b *Base) Snapshot() ([]byte, error) {
	gameData, err := b.game.MarshalState()
	if err != nil {
		return nil, fmt.Errorf("marshal %s state: %w", b.desc.TypeID, err)
	}
	snap := snapshot{
		GameType:        b.desc.TypeID,
		Status:          b.Status,
		HostID:          b.HostID,
		Options:         b.Options,
		Players:         b.Players,
		Turns:           b.Turns,
		Teams:           b.Teams,
		Sounds:          b.Sounds,
		TimerState:      b.Timer.State,
		TimerTicks:      b.Timer.Ticks,
		TickCount:       b.TickCount,
		Round:           b.Round,
		WinnerName:      b.WinnerName,
		CurrentMusic:    b.CurrentMusic,
		CurrentAmbience: b.CurrentAmbience,
		GameData:        gameData,
	}
	return json.Marshal(snap)
}

// RestoreGame rebuilds a game instance from a Snapshot blob. Human
// players come back with nil user handles; the table layer rebinds them
// as their owners reconnect (or substitutes bots on resume).
func RestoreGame(data []byte, cat *locale.Catalog) (Game, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to restore: %w", err)
	}
	desc, ok := Lookup(snap.GameType)
	if !ok {
		return nil, fmt.Errorf("failed to restore: unknown game type %q", snap.GameType)
	}

	g := desc.New()
	b := g.Base()
	b.Init(g, desc, cat, snap.Options)

	b.Status = snap.Status
	b.HostID = snap.HostID
	b.Players = snap.Players
	b.Turns = snap.Turns
	if b.Turns == nil {
		b.Turns = NewTurnManager(nil)
	}
	b.Teams = snap.Teams
	if snap.Sounds != nil {
		b.Sounds = snap.Sounds
	}
	b.Timer.State = snap.TimerState
	if b.Timer.State == "" {
		b.Timer.State = TimerIdle
	}
	b.Timer.Ticks = snap.TimerTicks
	b.TickCount = snap.TickCount
	b.Round = snap.Round
	b.WinnerName = snap.WinnerName
	b.CurrentMusic = snap.CurrentMusic
	b.CurrentAmbience = snap.CurrentAmbience

	if err := g.UnmarshalState(snap.GameData); err != nil {
		return nil, fmt.Errorf("failed to restore at tick %d: %w", snap.TickCount, err)
	}

	b.bindRuntimeHooks()
	for _, p := range b.Players {
		if p.IsBot {
			p.user = NewBotUserWithID(p.ID, p.Name)
		}
		b.attachLobbyActions(p)
		b.attachStandardActions(p)
		g.SetupPlayer(p)
	}
	g.RebuildRuntimeState()
	return g, nil
}

// BindUser reattaches a live user handle to their restored seat. The
// sticky audio resumes and the player's UI is pushed fresh.
func (b *Base) BindUser(u User) *Player {
	p := b.PlayerByID(u.ID())
	if p == nil {
		return nil
	}
	p.user = u
	p.IsBot = false
	b.ResumeAudio(u)
	b.RebuildMenusFor(p)
	return p
}
