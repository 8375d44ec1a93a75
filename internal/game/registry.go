package game

import (
	"fmt"
	"sort"
	"sync"
)

// Descriptor is the discovery metadata a game type registers under.
type Descriptor struct {
	TypeID         string
	NameID         string // localization id of the display name
	MinPlayers     int
	MaxPlayers     int
	DefaultOptions map[string]string
	New            func() Game
}

// The registry is write-once at startup: games register from init()
// and reads after that are lock-free in practice. The mutex only
// guards the registration phase.
var (
	registryMu sync.Mutex
	registry   = make(map[string]Descriptor)
)

// Register adds a game type. Duplicate type ids panic: that is a
// programming error caught at startup.
func Register(d Descriptor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[d.TypeID]; exists {
		panic(fmt.Sprintf("game type %q registered twice", d.TypeID))
	}
	if d.New == nil {
		panic(fmt.Sprintf("game type %q has no constructor", d.TypeID))
	}
	registry[d.TypeID] = d
}

// Lookup resolves a type id to its descriptor.
func Lookup(typeID string) (Descriptor, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	d, ok := registry[typeID]
	return d, ok
}

// AllGames lists every registered descriptor sorted by type id.
func AllGames() []Descriptor {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}
