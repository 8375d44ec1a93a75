package game

import (
	"log"

	"github.com/audioroom/backend/internal/protocol"
)

// Menu ids the base owns.
const (
	MenuTurn    = "turn"
	MenuActions = "actions_menu"
	MenuStatus  = "status_box"
	menuPrompt  = "prompt_" // + action id
	inputPrefix = "input_"  // + action id
)

// Resolve computes one action's per-player outcome.
func (b *Base) Resolve(p *Player, a *Action) ResolvedAction {
	r := ResolvedAction{Action: a, Visible: true}
	if a.IsHidden != nil && a.IsHidden(p) == Hidden {
		r.Visible = false
	}
	if a.IsEnabled != nil {
		r.DisabledReason = a.IsEnabled(p)
	}
	if a.GetLabel != nil {
		r.Label = a.GetLabel(p)
	} else {
		r.Label = b.catalog.T(b.playerLocale(p), a.LabelID, nil)
	}
	return r
}

// GetAllVisibleActions resolves every action across the player's sets,
// excluding hidden ones. Hidden actions stay dispatchable by keybind.
func (b *Base) GetAllVisibleActions(p *Player) []ResolvedAction {
	var out []ResolvedAction
	for _, set := range p.AllActionSets() {
		for _, a := range set.Actions() {
			if r := b.Resolve(p, a); r.Visible {
				out = append(out, r)
			}
		}
	}
	return out
}

// GetAllEnabledActions additionally filters to enabled actions flagged
// for the actions menu.
func (b *Base) GetAllEnabledActions(p *Player) []ResolvedAction {
	var out []ResolvedAction
	for _, r := range b.GetAllVisibleActions(p) {
		if r.Enabled() && r.Action.ShowInActionsMenu {
			out = append(out, r)
		}
	}
	return out
}

// ExecuteAction runs the enablement gate and then either starts an
// input prompt or invokes the handler. A disabled action speaks its
// reason and mutates nothing. Handler panics are contained to the
// affected player; the game instance stays alive.
func (b *Base) ExecuteAction(p *Player, a *Action, ctx ActionContext, input string) {
	if b.Status == StatusFinished || b.Status == StatusDestroyed {
		return
	}
	if a.IsEnabled != nil {
		if reason := a.IsEnabled(p); reason != "" {
			b.SpeakTo(p, reason, nil)
			return
		}
	}
	if a.Input != nil && input == "" {
		b.beginInput(p, a, ctx)
		return
	}
	b.invokeHandler(p, a, ctx, input)
}

func (b *Base) invokeHandler(p *Player, a *Action, ctx ActionContext, input string) {
	if a.Handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[GAME] Handler panic: game=%s action=%s player=%s input=%q: %v",
				b.desc.TypeID, a.ID, p.Name, input, r)
			b.SpeakTo(p, "internal_error", nil)
		}
	}()
	p.actionCtx = ctx
	a.Handler(p, ctx, input)
}

// beginInput starts the action's menu-input prompt. Bots choose
// synchronously through the input request's selector.
func (b *Base) beginInput(p *Player, a *Action, ctx ActionContext) {
	options := a.Input.Options(p)
	if p.IsBot {
		choice := ""
		if a.Input.BotChoose != nil {
			choice = a.Input.BotChoose(p, options)
		}
		if choice == "" && len(options) > 0 {
			choice = optionValue(options[0])
		}
		if choice != "" {
			b.invokeHandler(p, a, ctx, choice)
		}
		return
	}

	pending := &PendingInput{
		Action:     a,
		Ctx:        ctx,
		Options:    options,
		PrevMenuID: p.currentMenu,
	}
	if a.Input.Editbox {
		pending.InputID = inputPrefix + a.ID
		p.pendingInput = pending
		if p.user != nil {
			p.user.Queue(protocol.NewRequestInput(pending.InputID, b.catalog.T(b.playerLocale(p), a.Input.PromptID, nil), ""))
		}
		return
	}
	p.pendingInput = pending
	b.PushMenu(p, menuPrompt+a.ID, options, MenuOpts{EscapeBehavior: protocol.EscapeEvent})
}

// optionValue prefers the canonical id over the display string so
// handlers never pattern-match locale-dependent text.
func optionValue(item protocol.MenuItem) string {
	if item.ID != "" {
		return item.ID
	}
	return item.Text
}

// HandleMenuActivate dispatches a client's menu selection.
func (b *Base) HandleMenuActivate(p *Player, pkt *protocol.MenuActivate) {
	if b.Status == StatusFinished || b.Status == StatusDestroyed {
		return
	}

	// A pending input prompt swallows the selection.
	if pend := p.pendingInput; pend != nil && pkt.MenuID == menuPrompt+pend.Action.ID {
		idx := pkt.Selection - 1
		var value string
		if pkt.SelectionID != "" {
			value = pkt.SelectionID
		} else if idx >= 0 && idx < len(pend.Options) {
			value = optionValue(pend.Options[idx])
		}
		p.pendingInput = nil
		if value != "" {
			b.invokeHandler(p, pend.Action, pend.Ctx, value)
		}
		b.RebuildMenusFor(p)
		return
	}

	st := p.ensureMenus()[pkt.MenuID]
	if st == nil {
		return
	}
	idx := pkt.Selection - 1
	itemID := pkt.SelectionID
	if itemID == "" && idx >= 0 && idx < len(st.items) {
		itemID = st.items[idx].ID
	}
	if itemID == "" {
		return
	}
	a := p.FindAction(itemID)
	if a == nil {
		return
	}
	b.ExecuteAction(p, a, ActionContext{MenuID: pkt.MenuID, MenuIndex: idx, MenuItemID: itemID}, "")
}

// HandleKeybind canonicalizes the chord and dispatches the first
// visible action in the bound list that the player owns. A hidden
// entry falls through to the next one; the last entry dispatches
// regardless, so keybind-only actions stay reachable. The chord's
// state filter applies before any action is considered.
func (b *Base) HandleKeybind(p *Player, pkt *protocol.Keybind) {
	if b.Status == StatusDestroyed {
		return
	}
	chord := Chord(pkt.Key, pkt.Control, pkt.Alt, pkt.Shift)
	entry := b.Keybinds.Lookup(chord)
	if entry == nil {
		return
	}
	if entry.Filter.ActiveOnly && b.Status != StatusPlaying {
		return
	}
	if p.IsSpectator && !entry.Filter.IncludeSpectators {
		return
	}
	if entry.Filter.HostOnly && !b.IsHost(p) {
		return
	}

	ctx := ActionContext{MenuID: pkt.MenuID, MenuIndex: pkt.MenuIndex, MenuItemID: pkt.MenuItemID}
	for i, actionID := range entry.ActionIDs {
		a := p.FindAction(actionID)
		if a == nil {
			continue
		}
		last := i == len(entry.ActionIDs)-1
		if !last && a.IsHidden != nil && a.IsHidden(p) == Hidden {
			continue
		}
		b.ExecuteAction(p, a, ctx, "")
		return
	}
}

// SubmitInput completes the player's pending input prompt with value,
// as if they had picked it from the prompt menu. Games use it to wire
// shortcut actions that answer an open prompt.
func (b *Base) SubmitInput(p *Player, value string) {
	pend := p.pendingInput
	if pend == nil {
		return
	}
	p.pendingInput = nil
	b.invokeHandler(p, pend.Action, pend.Ctx, value)
	b.RebuildMenusFor(p)
}

// HandleEditbox resolves a pending editbox prompt.
func (b *Base) HandleEditbox(p *Player, pkt *protocol.Editbox) {
	pend := p.pendingInput
	if pend == nil || pend.InputID == "" {
		return
	}
	if pkt.InputID != "" && pkt.InputID != pend.InputID {
		return
	}
	p.pendingInput = nil
	if pkt.Text != "" {
		b.invokeHandler(p, pend.Action, pend.Ctx, pkt.Text)
	}
	b.RebuildMenusFor(p)
}

// HandleEscape cancels a pending prompt and returns the player to
// their previous menu.
func (b *Base) HandleEscape(p *Player, pkt *protocol.Escape) {
	pend := p.pendingInput
	if pend == nil {
		if pkt.MenuID == MenuActions || pkt.MenuID == MenuStatus {
			p.ActionsMenuOpen = false
			p.StatusBoxOpen = false
			b.RebuildMenusFor(p)
		}
		return
	}
	if pkt.MenuID != "" && pkt.MenuID != menuPrompt+pend.Action.ID && pkt.MenuID != pend.InputID {
		return
	}
	p.pendingInput = nil
	if pend.InputID != "" && p.user != nil {
		p.user.Queue(protocol.NewRemoveInput(pend.InputID))
	}
	b.RebuildMenusFor(p)
}

// HandlePlaylistDuration speaks the client's answer to an outstanding
// music-time query. Stale or unsolicited responses are dropped.
func (b *Base) HandlePlaylistDuration(p *Player, pkt *protocol.PlaylistDurationResponse) {
	if p.musicQueryID == 0 || pkt.RequestID != p.musicQueryID {
		return
	}
	p.musicQueryID = 0
	b.SpeakTo(p, "music_time_left", map[string]interface{}{"seconds": int(pkt.Duration)})
}

// MenuOpts carries per-push menu presentation flags.
type MenuOpts struct {
	EscapeBehavior string
	Multiletter    bool
	Position       *int
	SelectionID    string
}

// PushMenu reflects a logical item list into the player's client. A
// changed menu id clears and replaces; the same id diffs against the
// cached copy so the screen reader only hears what actually changed.
func (b *Base) PushMenu(p *Player, menuID string, items []protocol.MenuItem, opts MenuOpts) {
	if b.Status == StatusFinished || b.Status == StatusDestroyed {
		return
	}
	if p.user == nil || p.IsBot {
		// keep the cache warm so reconnects diff correctly
		menus := p.ensureMenus()
		menus[menuID] = &menuState{items: append([]protocol.MenuItem(nil), items...)}
		p.currentMenu = menuID
		if p.user != nil {
			p.user.Queue(b.fullMenuPacket(menuID, items, opts))
		}
		return
	}

	menus := p.ensureMenus()
	st := menus[menuID]

	if p.currentMenu != menuID || st == nil {
		sel := 0
		if opts.Position != nil {
			sel = *opts.Position
		}
		menus[menuID] = &menuState{items: append([]protocol.MenuItem(nil), items...), selection: sel}
		p.currentMenu = menuID
		p.user.Queue(b.fullMenuPacket(menuID, items, opts))
		return
	}

	ops := ComputeMenuOps(st.items, items)
	if len(ops) == 0 && opts.Position == nil && opts.SelectionID == "" {
		st.items = append(st.items[:0], items...)
		return
	}

	update := protocol.MenuUpdate{Type: protocol.TypeMenuUpdate, MenuID: menuID, Ops: ops}
	selection := st.selection
	switch {
	case opts.Position != nil:
		selection = *opts.Position
		update.Position = opts.Position
	case opts.SelectionID != "":
		update.SelectionID = opts.SelectionID
		for i, it := range items {
			if it.ID == opts.SelectionID {
				selection = i
				break
			}
		}
	default:
		// Selection follows the previously selected item's id when it
		// survives the rebuild; otherwise it tracks the op stream.
		if st.selection >= 0 && st.selection < len(st.items) && st.items[st.selection].ID != "" {
			prevID := st.items[st.selection].ID
			found := -1
			for i, it := range items {
				if it.ID == prevID {
					found = i
					break
				}
			}
			if found >= 0 {
				selection = found
				update.SelectionID = prevID
			} else {
				selection = AdjustSelection(ops, st.selection, len(items))
				pos := selection
				update.Position = &pos
			}
		} else {
			selection = AdjustSelection(ops, st.selection, len(items))
		}
	}

	st.items = append(st.items[:0], items...)
	st.selection = selection
	p.user.Queue(update)
}

func (b *Base) fullMenuPacket(menuID string, items []protocol.MenuItem, opts MenuOpts) protocol.Menu {
	escape := opts.EscapeBehavior
	if escape == "" {
		escape = protocol.EscapeKeybind
	}
	return protocol.Menu{
		Type:               protocol.TypeMenuShow,
		MenuID:             menuID,
		Items:              append([]protocol.MenuItem(nil), items...),
		MultiletterEnabled: opts.Multiletter,
		EscapeBehavior:     escape,
		Position:           opts.Position,
		SelectionID:        opts.SelectionID,
	}
}

// RebuildMenusFor re-pushes the player's primary UI.
func (b *Base) RebuildMenusFor(p *Player) {
	if b.Status == StatusFinished || b.Status == StatusDestroyed {
		return
	}
	if p.IsBot {
		return
	}
	if pend := p.pendingInput; pend != nil && pend.InputID == "" {
		b.PushMenu(p, menuPrompt+pend.Action.ID, pend.Options, MenuOpts{EscapeBehavior: protocol.EscapeEvent})
		return
	}
	if p.ActionsMenuOpen {
		b.ShowActionsMenu(p)
		return
	}
	b.PushMenu(p, MenuTurn, b.game.BuildTurnMenu(p), MenuOpts{Multiletter: true})
}

// RebuildAllMenus re-pushes every human player's UI, typically after a
// state change or a restore.
func (b *Base) RebuildAllMenus() {
	for _, p := range b.Players {
		b.RebuildMenusFor(p)
	}
}

// ShowActionsMenu pushes the meta-menu of every currently enabled
// action, each labeled with its keybind suffix.
func (b *Base) ShowActionsMenu(p *Player) {
	resolved := b.GetAllEnabledActions(p)
	items := make([]protocol.MenuItem, 0, len(resolved))
	for _, r := range resolved {
		label := r.Label
		if suffix := b.Keybinds.SuffixFor(r.Action.ID); suffix != "" {
			label += " (" + suffix + ")"
		}
		items = append(items, protocol.MenuItem{Text: label, ID: r.Action.ID})
	}
	p.ActionsMenuOpen = true
	b.PushMenu(p, MenuActions, items, MenuOpts{EscapeBehavior: protocol.EscapeEvent})
}

// ShowStatusBox pushes plain text lines into the hidden status menu.
func (b *Base) ShowStatusBox(p *Player, lines []string) {
	items := make([]protocol.MenuItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, protocol.MenuItem{Text: line})
	}
	p.StatusBoxOpen = true
	b.PushMenu(p, MenuStatus, items, MenuOpts{EscapeBehavior: protocol.EscapeEvent})
}
