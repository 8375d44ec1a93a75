package game

import "strings"

// KeybindFilter restricts who may trigger a chord and when.
type KeybindFilter struct {
	// ActiveOnly dispatches only while the game status is playing.
	ActiveOnly bool
	// IncludeSpectators lets spectators trigger the chord.
	IncludeSpectators bool
	// HostOnly restricts the chord to the table host.
	HostOnly bool
}

// KeybindEntry binds one chord to an ordered action-id list. On
// dispatch the first visible and applicable action in the list wins;
// the order is the game author's contract for overloading a key by
// context.
type KeybindEntry struct {
	Chord         string
	DescriptionID string
	ActionIDs     []string
	Filter        KeybindFilter
}

// KeybindTable maps canonical chord strings to entries.
type KeybindTable struct {
	order   []string
	byChord map[string]*KeybindEntry
}

func NewKeybindTable() *KeybindTable {
	return &KeybindTable{byChord: make(map[string]*KeybindEntry)}
}

// Chord canonicalizes a key press to "[ctrl+][alt+][shift+]<key>".
func Chord(key string, ctrl, alt, shift bool) string {
	var b strings.Builder
	if ctrl {
		b.WriteString("ctrl+")
	}
	if alt {
		b.WriteString("alt+")
	}
	if shift {
		b.WriteString("shift+")
	}
	b.WriteString(strings.ToLower(key))
	return b.String()
}

// Bind registers a chord. Binding an existing chord replaces it.
func (t *KeybindTable) Bind(chord, descriptionID string, actionIDs []string, filter KeybindFilter) {
	if _, exists := t.byChord[chord]; !exists {
		t.order = append(t.order, chord)
	}
	t.byChord[chord] = &KeybindEntry{
		Chord:         chord,
		DescriptionID: descriptionID,
		ActionIDs:     append([]string(nil), actionIDs...),
		Filter:        filter,
	}
}

// Lookup returns the entry for a chord, or nil.
func (t *KeybindTable) Lookup(chord string) *KeybindEntry {
	return t.byChord[chord]
}

// Entries yields all entries in bind order.
func (t *KeybindTable) Entries() []*KeybindEntry {
	out := make([]*KeybindEntry, 0, len(t.order))
	for _, chord := range t.order {
		out = append(out, t.byChord[chord])
	}
	return out
}

// SuffixFor returns the first chord bound to the action id, used to
// append "(space)"-style hints in the actions menu. Empty when unbound.
func (t *KeybindTable) SuffixFor(actionID string) string {
	for _, chord := range t.order {
		for _, id := range t.byChord[chord].ActionIDs {
			if id == actionID {
				return chord
			}
		}
	}
	return ""
}
