package game

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/protocol"
)

// Status is the lifecycle state of a game instance.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
	StatusDestroyed Status = "destroyed"
)

// Game is the contract a game content plug-in implements around Base.
// All game logic runs on the owning table's single logical task, so
// implementations need no locking of their own.
type Game interface {
	Base() *Base
	OnStart()
	OnTick()
	// BotThink returns the action id the bot should execute next, or ""
	// when it has nothing to do yet.
	BotThink(p *Player) string
	// PrestartValidate returns localization ids of errors that block
	// start_game; empty means ready.
	PrestartValidate() []string
	SetupKeybinds()
	// SetupPlayer is called once per player at seat time to create the
	// per-game action sets.
	SetupPlayer(p *Player)
	// BuildTurnMenu renders the player's primary menu.
	BuildTurnMenu(p *Player) []protocol.MenuItem
	MarshalState() (json.RawMessage, error)
	UnmarshalState(data json.RawMessage) error
	// RebuildRuntimeState re-creates non-serializable game state after a
	// restore (dynamic actions, cached helpers).
	RebuildRuntimeState()
}

// RoundTimerReadyHandler is implemented by games that use the round
// timer.
type RoundTimerReadyHandler interface {
	OnRoundTimerReady()
}

// PlayerResult is one player's line in a GameResult.
type PlayerResult struct {
	Name      string `json:"name"`
	IsBot     bool   `json:"is_bot"`
	Placement int    `json:"placement"`
	Score     int    `json:"score"`
}

// GameResult is the structured record emitted when a game finishes.
type GameResult struct {
	GameType      string                 `json:"game_type"`
	FinishedAt    time.Time              `json:"finished_at"`
	DurationTicks int64                  `json:"duration_ticks"`
	Players       []PlayerResult         `json:"players"`
	Custom        map[string]interface{} `json:"custom,omitempty"`
}

// EstimatorConfig tells the base how to launch simulation workers.
type EstimatorConfig struct {
	Binary          string
	Workers         int
	Timeout         time.Duration
	SpeedMultiplier float64
}

// Base carries everything generic about a running game: membership,
// turn order, scheduled sounds, menus, keybinds, bot scheduling and the
// lobby actions. Game content composes it and forwards the hooks.
type Base struct {
	desc    Descriptor
	game    Game
	catalog *locale.Catalog
	rng     *rand.Rand

	Status     Status
	Players    []*Player
	HostID     string
	Options    map[string]string
	Turns      *TurnManager
	Teams      *TeamManager
	Sounds     *SoundScheduler
	Timer      *RoundTimer
	Keybinds   *KeybindTable
	TickCount  int64
	Round      int
	WinnerName string

	CurrentMusic    string
	CurrentAmbience string

	botThinkMin   int
	botThinkMax   int
	musicQuerySeq int
	estimator    *Estimator
	estimatorCfg EstimatorConfig
	onResult     func(GameResult)
	onSaveTable  func(p *Player)
	onLeave      func(p *Player)
}

// Init wires the base to its game and descriptor. Options overlay the
// descriptor defaults.
func (b *Base) Init(g Game, desc Descriptor, cat *locale.Catalog, options map[string]string) {
	b.game = g
	b.desc = desc
	b.catalog = cat
	b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	b.Status = StatusWaiting
	b.Sounds = NewSoundScheduler()
	b.Timer = NewRoundTimer()
	b.Keybinds = NewKeybindTable()
	b.Turns = NewTurnManager(nil)
	b.botThinkMin, b.botThinkMax = 15, 50
	b.estimatorCfg = EstimatorConfig{Binary: "./gamecli", Workers: 10, Timeout: 2 * time.Minute, SpeedMultiplier: 2.0}

	b.Options = make(map[string]string, len(desc.DefaultOptions))
	for k, v := range desc.DefaultOptions {
		b.Options[k] = v
	}
	for k, v := range options {
		b.Options[k] = v
	}

	b.bindRuntimeHooks()
	b.setupBaseKeybinds()
	g.SetupKeybinds()
}

// bindRuntimeHooks attaches the non-serializable callbacks; it runs at
// Init and again after a restore.
func (b *Base) bindRuntimeHooks() {
	b.Sounds.Dispatch = func(s ScheduledSound) {
		b.QueueAll(protocol.NewPlaySound(s.Name, s.Volume, s.Pan, s.Pitch))
	}
	b.Timer.OnReady = func() {
		if h, ok := b.game.(RoundTimerReadyHandler); ok {
			h.OnRoundTimerReady()
		}
	}
	b.Turns.OnSkipped = func(playerID string) {
		if p := b.PlayerByID(playerID); p != nil {
			b.BroadcastL("player_skipped", map[string]interface{}{"player": p.Name})
		}
	}
}

// Descriptor returns the registration metadata for this game.
func (b *Base) Descriptor() Descriptor { return b.desc }

// Catalog exposes the localization catalog to game content.
func (b *Base) Catalog() *locale.Catalog { return b.catalog }

// Rand is the game's random source. Seed it for deterministic tests.
func (b *Base) Rand() *rand.Rand { return b.rng }

// SetSeed makes the game deterministic.
func (b *Base) SetSeed(seed int64) { b.rng = rand.New(rand.NewSource(seed)) }

// SetBotThinkRange overrides the randomized bot latency window.
func (b *Base) SetBotThinkRange(min, max int) {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	b.botThinkMin, b.botThinkMax = min, max
}

// SetEstimatorConfig overrides how duration estimates run.
func (b *Base) SetEstimatorConfig(cfg EstimatorConfig) { b.estimatorCfg = cfg }

// SetResultSink registers the callback that persists GameResults.
func (b *Base) SetResultSink(fn func(GameResult)) { b.onResult = fn }

// SetSaveHook registers the table-layer handler for save_table.
func (b *Base) SetSaveHook(fn func(p *Player)) { b.onSaveTable = fn }

// SetLeaveHook registers the table-layer handler for leave_game.
func (b *Base) SetLeaveHook(fn func(p *Player)) { b.onLeave = fn }

var ErrTableFull = errors.New("table full")

// AddPlayer seats a user. The first seated player becomes host.
func (b *Base) AddPlayer(u User, spectator bool) (*Player, error) {
	if !spectator && b.ActiveCount() >= b.desc.MaxPlayers {
		return nil, ErrTableFull
	}
	p := &Player{
		ID:          u.ID(),
		Name:        u.Name(),
		IsBot:       u.IsBot(),
		IsSpectator: spectator,
		user:        u,
	}
	b.Players = append(b.Players, p)
	if b.HostID == "" {
		b.HostID = p.ID
	}
	b.attachLobbyActions(p)
	b.attachStandardActions(p)
	b.game.SetupPlayer(p)
	if b.Status == StatusWaiting {
		b.sendLobbyMusic(p)
	}
	return p, nil
}

// RemovePlayer drops the player outright (lobby leaves). Mid-game
// leaves go through SubstituteBot instead.
func (b *Base) RemovePlayer(playerID string) {
	for i, p := range b.Players {
		if p.ID == playerID {
			b.Players = append(b.Players[:i], b.Players[i+1:]...)
			break
		}
	}
	b.Turns.RemovePlayer(playerID)
	if b.HostID == playerID {
		b.HostID = ""
		if h := b.FirstHuman(); h != nil {
			b.HostID = h.ID
		}
	}
}

// SubstituteBot replaces a player's user handle with a bot of the same
// id and name, preserving turn order and per-game state tied to the id.
func (b *Base) SubstituteBot(p *Player) {
	p.user = NewBotUserWithID(p.ID, p.Name)
	p.IsBot = true
	p.BotThinkTicks = 0
	p.BotPendingAction = ""
	p.pendingInput = nil
}

// PlayerByID finds a player by id, nil when absent.
func (b *Base) PlayerByID(id string) *Player {
	for _, p := range b.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HostPlayer returns the current host, nil when the table is empty.
func (b *Base) HostPlayer() *Player { return b.PlayerByID(b.HostID) }

// IsHost reports whether the player is the table host.
func (b *Base) IsHost(p *Player) bool { return p != nil && p.ID == b.HostID }

// ActiveCount counts non-spectator seats.
func (b *Base) ActiveCount() int {
	n := 0
	for _, p := range b.Players {
		if !p.IsSpectator {
			n++
		}
	}
	return n
}

// HumanCount counts connected (non-bot) participants.
func (b *Base) HumanCount() int {
	n := 0
	for _, p := range b.Players {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// FirstHuman returns the earliest-seated human, used for host rotation.
func (b *Base) FirstHuman() *Player {
	for _, p := range b.Players {
		if !p.IsBot {
			return p
		}
	}
	return nil
}

// ActivePlayers returns the non-spectator players in seat order.
func (b *Base) ActivePlayers() []*Player {
	out := make([]*Player, 0, len(b.Players))
	for _, p := range b.Players {
		if !p.IsSpectator {
			out = append(out, p)
		}
	}
	return out
}

// Bots returns the seated bot players, earliest first.
func (b *Base) Bots() []*Player {
	out := []*Player{}
	for _, p := range b.Players {
		if p.IsBot {
			out = append(out, p)
		}
	}
	return out
}

// CurrentPlayer resolves the turn manager's current id.
func (b *Base) CurrentPlayer() *Player {
	return b.PlayerByID(b.Turns.CurrentPlayerID())
}

func (b *Base) playerLocale(p *Player) string {
	if p != nil && p.user != nil {
		return p.user.Locale()
	}
	return "en"
}

// QueueAll fans a packet out to every seated user, spectators included.
func (b *Base) QueueAll(packet interface{}) {
	for _, p := range b.Players {
		if p.user != nil {
			p.user.Queue(packet)
		}
	}
}

// SpeakTo speaks a localized line to one player.
func (b *Base) SpeakTo(p *Player, id string, args map[string]interface{}) {
	if p == nil || p.user == nil {
		return
	}
	p.user.Queue(protocol.NewSpeak(b.catalog.T(b.playerLocale(p), id, args), ""))
}

// SpeakRaw speaks already-formatted text to one player.
func (b *Base) SpeakRaw(p *Player, text string) {
	if p == nil || p.user == nil {
		return
	}
	p.user.Queue(protocol.NewSpeak(text, ""))
}

// BroadcastL speaks a localized line to every seated user, each in
// their own locale.
func (b *Base) BroadcastL(id string, args map[string]interface{}) {
	for _, p := range b.Players {
		b.SpeakTo(p, id, args)
	}
}

// PlaySoundAll plays a one-shot cue for the whole table.
func (b *Base) PlaySoundAll(name string, volume, pan, pitch float64) {
	b.QueueAll(protocol.NewPlaySound(name, volume, pan, pitch))
}

// PlayMusic starts table music. The name is remembered so reconnecting
// players resume it.
func (b *Base) PlayMusic(name string, looping bool) {
	b.CurrentMusic = name
	b.QueueAll(protocol.NewPlayMusic(name, looping))
}

// PlayAmbience starts a looped ambience, remembered like music.
func (b *Base) PlayAmbience(intro, loop, outro string) {
	b.CurrentAmbience = loop
	b.QueueAll(protocol.NewPlayAmbience(intro, loop, outro))
}

// StopAmbience stops and forgets the current ambience.
func (b *Base) StopAmbience() {
	b.CurrentAmbience = ""
	b.QueueAll(protocol.NewStopAmbience())
}

// ResumeAudio replays the sticky music/ambience for one user, used on
// reconnection.
func (b *Base) ResumeAudio(u User) {
	if b.CurrentMusic != "" {
		u.Queue(protocol.NewPlayMusic(b.CurrentMusic, true))
	}
	if b.CurrentAmbience != "" {
		u.Queue(protocol.NewPlayAmbience("", b.CurrentAmbience, ""))
	}
}

// Tick runs the fixed-rate duties in order: scheduled sounds, the round
// timer, bot scheduling, game logic, estimator polling. Finished and
// destroyed games tick no further.
func (b *Base) Tick() {
	if b.Status == StatusFinished || b.Status == StatusDestroyed {
		return
	}
	b.TickCount++
	b.Sounds.Process()
	b.Timer.OnTick()
	if b.Status == StatusPlaying {
		b.pumpBots()
	}
	b.game.OnTick()
	b.checkEstimator()
}

// pumpBots advances each bot's thinking clock and executes pending
// actions. A fresh decision gets a randomized latency so bots feel like
// humans rather than instant responders.
func (b *Base) pumpBots() {
	for _, p := range b.Players {
		if !p.IsBot || p.IsSpectator {
			continue
		}
		if b.Status != StatusPlaying {
			return
		}
		if p.BotThinkTicks > 0 {
			p.BotThinkTicks--
			continue
		}
		if p.BotPendingAction != "" {
			actionID := p.BotPendingAction
			p.BotPendingAction = ""
			if a := p.FindAction(actionID); a != nil {
				b.ExecuteAction(p, a, ActionContext{}, "")
			}
			continue
		}
		if actionID := b.game.BotThink(p); actionID != "" {
			p.BotPendingAction = actionID
			p.BotThinkTicks = b.randThinkTicks()
		}
	}
}

func (b *Base) randThinkTicks() int {
	if b.botThinkMax <= b.botThinkMin {
		return b.botThinkMin
	}
	return b.botThinkMin + b.rng.Intn(b.botThinkMax-b.botThinkMin+1)
}

// AdvanceTurnAnnounced advances the turn, plays the new player's turn
// sound (honoring their preference) and announces them.
func (b *Base) AdvanceTurnAnnounced() *Player {
	b.Turns.AdvanceTurn()
	current := b.CurrentPlayer()
	if current == nil {
		return nil
	}
	if current.user != nil && current.user.Prefs().PlayTurnSound {
		current.user.Queue(protocol.NewPlaySound("turn.ogg", 1, 0, 1))
	}
	b.BroadcastL("turn_announce", map[string]interface{}{"player": current.Name})
	return current
}

// StartDurationEstimate kicks off the background simulation workers.
func (b *Base) StartDurationEstimate() {
	if b.estimator != nil {
		b.BroadcastL("estimate_running", nil)
		return
	}
	bots := b.ActiveCount()
	if bots < b.desc.MinPlayers {
		bots = b.desc.MinPlayers
	}
	b.estimator = StartEstimate(b.estimatorCfg.Binary, b.desc.TypeID, bots, b.Options, b.estimatorCfg.Workers, b.estimatorCfg.Timeout)
	b.BroadcastL("estimate_started", nil)
}

func (b *Base) checkEstimator() {
	if b.estimator == nil {
		return
	}
	res, done := b.estimator.CheckCompletion()
	if !done {
		return
	}
	b.estimator = nil
	if res.Failed {
		b.BroadcastL("estimate_failed", map[string]interface{}{"error": res.FirstError})
		return
	}
	b.BroadcastL("estimate_result", map[string]interface{}{
		"mean":     int64(res.MeanTicks),
		"stddev":   int64(res.StdDevTicks),
		"outliers": res.Outliers,
		"human":    int64(res.MeanTicks * b.estimatorCfg.SpeedMultiplier),
	})
}

// Finish transitions the game to finished, announces the winner and
// emits the structured result record. Menus stop rebuilding and pending
// bot actions are dropped from here on.
func (b *Base) Finish(winnerName string, custom map[string]interface{}) {
	if b.Status == StatusFinished {
		return
	}
	b.Status = StatusFinished
	b.WinnerName = winnerName
	if winnerName != "" {
		b.BroadcastL("game_won", map[string]interface{}{"player": winnerName})
	} else {
		b.BroadcastL("game_over", nil)
	}
	b.PlaySoundAll("win.ogg", 1, 0, 1)

	result := GameResult{
		GameType:      b.desc.TypeID,
		FinishedAt:    time.Now().UTC(),
		DurationTicks: b.TickCount,
		Custom:        custom,
	}
	standings := b.standings(winnerName)
	result.Players = standings
	if b.onResult != nil {
		b.onResult(result)
	}
	log.Printf("[GAME] %s finished after %d ticks (winner=%s)", b.desc.TypeID, b.TickCount, winnerName)
}

func (b *Base) standings(winnerName string) []PlayerResult {
	out := make([]PlayerResult, 0, len(b.Players))
	place := 2
	for _, p := range b.Players {
		if p.IsSpectator {
			continue
		}
		res := PlayerResult{Name: p.Name, IsBot: p.IsBot}
		if b.Teams != nil {
			if t := b.Teams.TeamOf(p.Name); t != nil {
				res.Score = t.TotalScore
			}
		}
		if p.Name == winnerName {
			res.Placement = 1
		} else {
			res.Placement = place
			place++
		}
		out = append(out, res)
	}
	return out
}
