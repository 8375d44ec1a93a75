package games

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/locale"
)

// startTable seats the named players, starts the game through the host's
// start_game action and returns the running instance.
func startTable(t *testing.T, typeID string, names []string, opts map[string]string) (game.Game, []*game.Player, []*game.CaptureUser) {
	t.Helper()
	desc, ok := game.Lookup(typeID)
	require.True(t, ok)

	g := desc.New()
	b := g.Base()
	b.Init(g, desc, locale.New(), opts)
	b.SetSeed(7)

	players := make([]*game.Player, 0, len(names))
	users := make([]*game.CaptureUser, 0, len(names))
	for _, name := range names {
		u := game.NewCaptureUser(name)
		p, err := b.AddPlayer(u, false)
		require.NoError(t, err)
		players = append(players, p)
		users = append(users, u)
	}

	host := players[0]
	b.ExecuteAction(host, host.FindAction("start_game"), game.ActionContext{}, "")
	require.Equal(t, game.StatusPlaying, b.Status)
	return g, players, users
}

func do(t *testing.T, b *game.Base, p *game.Player, actionID string) {
	t.Helper()
	a := p.FindAction(actionID)
	require.NotNil(t, a, "action %s must exist", actionID)
	b.ExecuteAction(p, a, game.ActionContext{}, "")
}

func said(cat *locale.Catalog, id string, args map[string]interface{}) string {
	return cat.T("en", id, args)
}
