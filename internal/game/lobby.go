package game

import (
	"log"

	"github.com/audioroom/backend/internal/protocol"
)

// Action set names the base owns. Games add their own sets alongside.
const (
	SetLobby    = "lobby"
	SetStandard = "standard"
)

// The waiting room runs a client-managed playlist so seated players
// hear something while the table fills. start_game removes it and the
// game's own audio takes over.
const lobbyPlaylistID = "lobby"

var lobbyPlaylistTracks = []string{"lobby1.ogg", "lobby2.ogg", "lobby3.ogg"}

func (b *Base) setupBaseKeybinds() {
	b.Keybinds.Bind("t", "kb_whose_turn", []string{"whose_turn"}, KeybindFilter{ActiveOnly: true, IncludeSpectators: true})
	b.Keybinds.Bind("s", "kb_check_scores", []string{"check_scores"}, KeybindFilter{IncludeSpectators: true})
	b.Keybinds.Bind("shift+s", "kb_check_scores_detailed", []string{"check_scores_detailed"}, KeybindFilter{IncludeSpectators: true})
	b.Keybinds.Bind("f5", "kb_actions_menu", []string{"show_actions_menu"}, KeybindFilter{IncludeSpectators: true})
	b.Keybinds.Bind("ctrl+s", "kb_save_table", []string{"save_table"}, KeybindFilter{HostOnly: true})
	b.Keybinds.Bind("shift+m", "kb_music_time", []string{"music_time"}, KeybindFilter{IncludeSpectators: true})
}

// sendLobbyMusic starts the waiting-room playlist for one connected
// human.
func (b *Base) sendLobbyMusic(p *Player) {
	if p.user == nil || p.IsBot {
		return
	}
	p.user.Queue(protocol.NewAddPlaylist(lobbyPlaylistID, lobbyPlaylistTracks, "music", true, -1, false, false))
	p.user.Queue(protocol.NewStartPlaylist(lobbyPlaylistID))
}

// attachLobbyActions installs the pre-start table management actions.
// They hide themselves once the game is playing.
func (b *Base) attachLobbyActions(p *Player) {
	set := p.ActionSet(SetLobby)
	waitingOnly := func(*Player) Visibility {
		if b.Status == StatusWaiting {
			return Visible
		}
		return Hidden
	}

	set.Add(&Action{
		ID:                "start_game",
		LabelID:           "action_start_game",
		ShowInActionsMenu: true,
		IsHidden:          waitingOnly,
		IsEnabled: func(pl *Player) string {
			if !b.IsHost(pl) {
				return "error_host_only"
			}
			if b.ActiveCount() < b.desc.MinPlayers {
				return "error_min_players"
			}
			return ""
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			b.startGame(pl)
		},
	})

	set.Add(&Action{
		ID:                "add_bot",
		LabelID:           "action_add_bot",
		ShowInActionsMenu: true,
		IsHidden:          waitingOnly,
		IsEnabled: func(pl *Player) string {
			if !b.IsHost(pl) {
				return "error_host_only"
			}
			if b.ActiveCount() >= b.desc.MaxPlayers {
				return "error_table_full"
			}
			return ""
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			bot := NewBotUser(b.unusedBotName())
			if _, err := b.AddPlayer(bot, false); err != nil {
				b.SpeakTo(pl, "error_table_full", nil)
				return
			}
			b.BroadcastL("bot_added", map[string]interface{}{"player": bot.Name()})
			b.RebuildAllMenus()
		},
	})

	set.Add(&Action{
		ID:                "remove_bot",
		LabelID:           "action_remove_bot",
		ShowInActionsMenu: true,
		IsHidden:          waitingOnly,
		IsEnabled: func(pl *Player) string {
			if !b.IsHost(pl) {
				return "error_host_only"
			}
			if len(b.Bots()) == 0 {
				return "error_no_bots"
			}
			return ""
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			bots := b.Bots()
			if len(bots) == 0 {
				return
			}
			last := bots[len(bots)-1]
			b.RemovePlayer(last.ID)
			b.BroadcastL("bot_removed", map[string]interface{}{"player": last.Name})
			b.RebuildAllMenus()
		},
	})

	set.Add(&Action{
		ID:                "toggle_spectator",
		LabelID:           "action_become_spectator",
		ShowInActionsMenu: true,
		IsHidden:          waitingOnly,
		GetLabel: func(pl *Player) string {
			if pl.IsSpectator {
				return b.catalog.T(b.playerLocale(pl), "action_join_game", nil)
			}
			return b.catalog.T(b.playerLocale(pl), "action_become_spectator", nil)
		},
		IsEnabled: func(pl *Player) string {
			if pl.IsSpectator && b.ActiveCount() >= b.desc.MaxPlayers {
				return "error_table_full"
			}
			return ""
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			pl.IsSpectator = !pl.IsSpectator
			if pl.IsSpectator {
				b.BroadcastL("player_now_spectating", map[string]interface{}{"player": pl.Name})
			} else {
				b.BroadcastL("player_now_playing", map[string]interface{}{"player": pl.Name})
			}
			b.RebuildAllMenus()
		},
	})

	set.Add(&Action{
		ID:                "estimate_duration",
		LabelID:           "action_estimate_duration",
		ShowInActionsMenu: true,
		IsHidden:          waitingOnly,
		Handler: func(pl *Player, ctx ActionContext, input string) {
			b.StartDurationEstimate()
		},
	})

	set.Add(&Action{
		ID:                "table_options",
		LabelID:           "action_table_options",
		ShowInActionsMenu: true,
		IsHidden:          waitingOnly,
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if pl.user != nil {
				pl.user.Queue(protocol.NewOpenServerOptions(b.Options))
			}
		},
	})
}

// attachStandardActions installs the actions available through the
// whole table lifetime.
func (b *Base) attachStandardActions(p *Player) {
	set := p.ActionSet(SetStandard)

	set.Add(&Action{
		ID:                "leave_game",
		LabelID:           "action_leave_game",
		ShowInActionsMenu: true,
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if b.onLeave != nil {
				b.onLeave(pl)
			}
		},
	})

	// Keybind-only: bound to the host's ctrl+s chord, never listed in
	// the actions menu.
	set.Add(&Action{
		ID:      "save_table",
		LabelID: "action_save_table",
		IsHidden: func(*Player) Visibility {
			return Hidden
		},
		IsEnabled: func(pl *Player) string {
			if !b.IsHost(pl) {
				return "error_host_only"
			}
			return ""
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if b.onSaveTable != nil {
				b.onSaveTable(pl)
			}
		},
	})

	set.Add(&Action{
		ID:      "show_actions_menu",
		LabelID: "action_show_actions",
		Handler: func(pl *Player, ctx ActionContext, input string) {
			b.ShowActionsMenu(pl)
		},
	})

	set.Add(&Action{
		ID:      "whose_turn",
		LabelID: "action_whose_turn",
		IsHidden: func(*Player) Visibility {
			return Hidden
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if b.Status != StatusPlaying {
				b.SpeakTo(pl, "error_not_playing", nil)
				return
			}
			current := b.CurrentPlayer()
			if current == nil {
				return
			}
			if current.ID == pl.ID {
				b.SpeakTo(pl, "your_turn", nil)
				return
			}
			b.SpeakTo(pl, "whose_turn", map[string]interface{}{"player": current.Name})
		},
	})

	set.Add(&Action{
		ID:      "check_scores",
		LabelID: "action_check_scores",
		IsHidden: func(*Player) Visibility {
			return Hidden
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if b.Teams == nil {
				b.SpeakTo(pl, "error_no_scores", nil)
				return
			}
			b.SpeakRaw(pl, b.Teams.FormatBrief())
		},
	})

	set.Add(&Action{
		ID:      "check_scores_detailed",
		LabelID: "action_check_scores_detailed",
		IsHidden: func(*Player) Visibility {
			return Hidden
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if b.Teams == nil {
				b.SpeakTo(pl, "error_no_scores", nil)
				return
			}
			b.ShowStatusBox(pl, b.Teams.FormatDetailed())
		},
	})

	set.Add(&Action{
		ID:      "music_time",
		LabelID: "action_music_time",
		IsHidden: func(*Player) Visibility {
			return Hidden
		},
		Handler: func(pl *Player, ctx ActionContext, input string) {
			if pl.user == nil {
				return
			}
			b.musicQuerySeq++
			pl.musicQueryID = b.musicQuerySeq
			pl.user.Queue(protocol.NewGetPlaylistDuration(lobbyPlaylistID, "remaining", pl.musicQueryID))
		},
	})
}

// startGame runs the prestart gate and transitions waiting -> playing.
func (b *Base) startGame(host *Player) {
	if b.Status != StatusWaiting {
		b.SpeakTo(host, "error_already_started", nil)
		return
	}
	if errs := b.game.PrestartValidate(); len(errs) > 0 {
		for _, id := range errs {
			b.SpeakTo(host, id, nil)
		}
		return
	}

	active := b.ActivePlayers()
	ids := make([]string, 0, len(active))
	names := make([]string, 0, len(active))
	for _, p := range active {
		ids = append(ids, p.ID)
		names = append(names, p.Name)
	}
	b.Turns = NewTurnManager(ids)
	b.bindRuntimeHooks()

	mode := b.Options["team_mode"]
	if mode == "" {
		mode = ModeIndividual
	}
	teams, err := NewTeamManager(mode, names)
	if err != nil {
		log.Printf("[GAME] %s bad team mode %q: %v", b.desc.TypeID, mode, err)
		b.SpeakTo(host, "error_bad_team_mode", nil)
		return
	}
	b.Teams = teams

	b.Status = StatusPlaying
	b.QueueAll(protocol.NewRemovePlaylist(lobbyPlaylistID))
	b.BroadcastL("game_started", nil)
	b.PlaySoundAll("start.ogg", 1, 0, 1)
	b.game.OnStart()
	b.RebuildAllMenus()
}

func (b *Base) unusedBotName() string {
	used := make(map[string]bool, len(b.Players))
	for _, p := range b.Players {
		used[p.Name] = true
	}
	for _, name := range BotNames {
		if !used[name] {
			return name
		}
	}
	return BotNames[b.rng.Intn(len(BotNames))]
}
