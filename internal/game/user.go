package game

import (
	"github.com/google/uuid"

	"github.com/audioroom/backend/internal/protocol"
)

// User is the capability handle a game holds on each seated participant.
// Network users queue packets toward a live connection; bots discard
// them; the simulation harness captures them.
type User interface {
	ID() string
	Name() string
	Locale() string
	TrustLevel() string
	IsBot() bool
	Prefs() *Prefs
	Queue(packet interface{})
}

// Prefs is the per-user client option snapshot games consult.
type Prefs struct {
	MuteGlobalChat  bool            `json:"mute_global_chat"`
	MuteTableChat   bool            `json:"mute_table_chat"`
	PlayTurnSound   bool            `json:"play_turn_sound"`
	SpeedMultiplier float64         `json:"speed_multiplier"`
	ChatLanguage    string          `json:"chat_language"`
	LanguageSubs    map[string]bool `json:"language_subscriptions"`
}

// DefaultPrefs returns the option set a fresh client starts with.
func DefaultPrefs() *Prefs {
	return &Prefs{
		PlayTurnSound:   true,
		SpeedMultiplier: 2.0,
		ChatLanguage:    "en",
		LanguageSubs:    map[string]bool{"en": true},
	}
}

// BotUser is a User with no connection. All output is discarded.
type BotUser struct {
	UserID      string
	DisplayName string
}

// NewBotUser seats a bot under the given name with a fresh stable id.
func NewBotUser(name string) *BotUser {
	return &BotUser{UserID: uuid.NewString(), DisplayName: name}
}

// NewBotUserWithID seats a bot reusing an existing player id, as happens
// when a human leaves mid-game and the bot takes over their seat.
func NewBotUserWithID(id, name string) *BotUser {
	return &BotUser{UserID: id, DisplayName: name}
}

func (b *BotUser) ID() string              { return b.UserID }
func (b *BotUser) Name() string            { return b.DisplayName }
func (b *BotUser) Locale() string          { return "en" }
func (b *BotUser) TrustLevel() string      { return "bot" }
func (b *BotUser) IsBot() bool             { return true }
func (b *BotUser) Prefs() *Prefs           { return defaultBotPrefs }
func (b *BotUser) Queue(packet interface{}) {}

var defaultBotPrefs = DefaultPrefs()

// CaptureUser records everything a game sends, so the simulate harness
// can report spoken lines and the final menu without a client.
type CaptureUser struct {
	UserID      string
	DisplayName string
	Messages    []string
	LastMenu    []protocol.MenuItem
	LastMenuID  string
	Sounds      []string
}

func NewCaptureUser(name string) *CaptureUser {
	return &CaptureUser{UserID: uuid.NewString(), DisplayName: name}
}

func (c *CaptureUser) ID() string         { return c.UserID }
func (c *CaptureUser) Name() string       { return c.DisplayName }
func (c *CaptureUser) Locale() string     { return "en" }
func (c *CaptureUser) TrustLevel() string { return "member" }
func (c *CaptureUser) IsBot() bool        { return false }
func (c *CaptureUser) Prefs() *Prefs      { return defaultBotPrefs }

func (c *CaptureUser) Queue(packet interface{}) {
	switch p := packet.(type) {
	case protocol.Speak:
		c.Messages = append(c.Messages, p.Text)
	case protocol.PlaySound:
		c.Sounds = append(c.Sounds, p.Name)
	case protocol.Menu:
		c.LastMenuID = p.MenuID
		c.LastMenu = append([]protocol.MenuItem(nil), p.Items...)
	case protocol.MenuUpdate:
		if p.MenuID == c.LastMenuID {
			c.LastMenu = applyOps(c.LastMenu, p.Ops)
		}
	}
}

// BotNames is the default roster used by the add_bot lobby action.
var BotNames = []string{
	"Alice", "Bruno", "Carmen", "Dmitri", "Elena", "Felix", "Greta",
	"Hugo", "Ingrid", "Jasper", "Katya", "Leon", "Marta", "Nico",
	"Olga", "Pablo", "Quinn", "Rosa", "Stefan", "Tania", "Ulf",
	"Vera", "Wanda", "Xavi", "Yuri", "Zelda",
}
