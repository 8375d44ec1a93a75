// Package games holds the built-in game content. Each game registers
// itself from init(); importing this package for side effects is enough
// to populate the registry.
package games

import (
	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/protocol"
)

// lobbyItems renders the visible lobby and standard actions into menu
// rows, so every game's turn menu ends with the same table controls.
func lobbyItems(b *game.Base, p *game.Player, loc string) []protocol.MenuItem {
	items := []protocol.MenuItem{}
	for _, setName := range []string{game.SetLobby, game.SetStandard} {
		for _, a := range p.ActionSet(setName).Actions() {
			if !a.ShowInActionsMenu {
				continue
			}
			r := b.Resolve(p, a)
			if !r.Visible {
				continue
			}
			items = append(items, protocol.MenuItem{Text: r.Label, ID: a.ID})
		}
	}
	return items
}

func playerLocale(p *game.Player) string {
	if u := p.User(); u != nil {
		return u.Locale()
	}
	return "en"
}
