package game

import (
	"strings"

	"github.com/audioroom/backend/internal/protocol"
)

// Visibility is the result of an action's is_hidden check. Hidden
// actions are excluded from menus but remain keybind targets.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

// ActionContext carries the menu focus a keybind was pressed on, so a
// handler can act on the focused item (e.g. play the focused card).
type ActionContext struct {
	MenuID     string
	MenuIndex  int
	MenuItemID string
}

// InputRequest defers a handler until the player picks from an option
// list (or types into an editbox). Bots choose synchronously through
// BotChoose, which receives the same options and returns the chosen
// option's id (or its text when it has no id).
type InputRequest struct {
	PromptID  string
	Editbox   bool
	Options   func(p *Player) []protocol.MenuItem
	BotChoose func(p *Player, options []protocol.MenuItem) string
}

// Action is an immutable descriptor. Its callbacks are bound when the
// owning ActionSet is built; a ResolvedAction carries only data across
// the menu-rebuild boundary.
type Action struct {
	ID                string
	LabelID           string
	ShowInActionsMenu bool

	// IsHidden nil means always visible.
	IsHidden func(p *Player) Visibility
	// IsEnabled nil or returning "" means enabled; a non-empty return is
	// the localization id of the disable reason.
	IsEnabled func(p *Player) string
	// GetLabel overrides the static LabelID with computed text.
	GetLabel func(p *Player) string

	Handler func(p *Player, ctx ActionContext, input string)
	Input   *InputRequest
}

// ResolvedAction is the per-player outcome of resolving one Action at
// menu-build time.
type ResolvedAction struct {
	Action         *Action
	Label          string
	Visible        bool
	DisabledReason string
}

func (r ResolvedAction) Enabled() bool { return r.DisabledReason == "" }

// ActionSet is an ordered collection of Actions keyed by id.
type ActionSet struct {
	order []string
	byID  map[string]*Action
}

func NewActionSet() *ActionSet {
	return &ActionSet{byID: make(map[string]*Action)}
}

// Add inserts the action; a duplicate id replaces in place keeping its
// position in the order.
func (s *ActionSet) Add(a *Action) {
	if _, exists := s.byID[a.ID]; !exists {
		s.order = append(s.order, a.ID)
	}
	s.byID[a.ID] = a
}

// Get returns the action with the given id, or nil.
func (s *ActionSet) Get(id string) *Action {
	return s.byID[id]
}

// Remove drops the action from the registry and the ordered list.
func (s *ActionSet) Remove(id string) {
	if _, exists := s.byID[id]; !exists {
		return
	}
	delete(s.byID, id)
	for i, aid := range s.order {
		if aid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// RemoveByPrefix drops every action whose id starts with prefix. Games
// use it to clear dynamic slots like play_card_<id> between turns.
func (s *ActionSet) RemoveByPrefix(prefix string) {
	kept := s.order[:0]
	for _, id := range s.order {
		if strings.HasPrefix(id, prefix) {
			delete(s.byID, id)
		} else {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// Actions yields the actions in insertion order.
func (s *ActionSet) Actions() []*Action {
	out := make([]*Action, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len reports the number of actions in the set.
func (s *ActionSet) Len() int { return len(s.order) }
