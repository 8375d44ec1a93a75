package game

import "github.com/audioroom/backend/internal/protocol"

// Player is a Game's entry for a seated participant. The id always
// equals the owning User's id; the User handle itself may be nil
// briefly while a human reconnects.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsBot       bool   `json:"is_bot"`
	IsSpectator bool   `json:"is_spectator"`

	// Bot scheduling state, serialized so a restored game resumes bot
	// timing where it left off.
	BotThinkTicks    int    `json:"bot_think_ticks"`
	BotPendingAction string `json:"bot_pending_action,omitempty"`

	// Runtime-only fields, rebuilt on rehydrate.
	user            User                  `json:"-"`
	sets            map[string]*ActionSet `json:"-"`
	setOrder        []string              `json:"-"`
	menus           map[string]*menuState `json:"-"`
	currentMenu     string                `json:"-"`
	pendingInput    *PendingInput         `json:"-"`
	actionCtx       ActionContext         `json:"-"`
	musicQueryID    int                   `json:"-"`
	StatusBoxOpen   bool                  `json:"-"`
	ActionsMenuOpen bool                  `json:"-"`
}

// PendingInput is a deferred action awaiting the player's choice.
type PendingInput struct {
	Action     *Action
	Ctx        ActionContext
	InputID    string
	Options    []protocol.MenuItem
	PrevMenuID string
}

// menuState is the server-side cache of one pushed menu, the "old" side
// of the next diff.
type menuState struct {
	items     []protocol.MenuItem
	selection int
}

// User returns the live capability handle, nil while disconnected.
func (p *Player) User() User { return p.user }

// SetUser rebinds the live handle (reconnection, bot substitution).
func (p *Player) SetUser(u User) { p.user = u }

// ActionSet returns the named set, creating it on first use.
func (p *Player) ActionSet(name string) *ActionSet {
	if p.sets == nil {
		p.sets = make(map[string]*ActionSet)
	}
	set, ok := p.sets[name]
	if !ok {
		set = NewActionSet()
		p.sets[name] = set
		p.setOrder = append(p.setOrder, name)
	}
	return set
}

// AllActionSets yields the player's sets in creation order.
func (p *Player) AllActionSets() []*ActionSet {
	out := make([]*ActionSet, 0, len(p.setOrder))
	for _, name := range p.setOrder {
		out = append(out, p.sets[name])
	}
	return out
}

// FindAction looks an id up across every set.
func (p *Player) FindAction(id string) *Action {
	for _, name := range p.setOrder {
		if a := p.sets[name].Get(id); a != nil {
			return a
		}
	}
	return nil
}

// AwaitingInput returns the id of the action whose input prompt is
// open, "" when none is pending.
func (p *Player) AwaitingInput() string {
	if p.pendingInput == nil {
		return ""
	}
	return p.pendingInput.Action.ID
}

func (p *Player) ensureMenus() map[string]*menuState {
	if p.menus == nil {
		p.menus = make(map[string]*menuState)
	}
	return p.menus
}
