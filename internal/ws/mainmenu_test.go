package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioroom/backend/internal/config"
	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/table"
)

func newMenuServer() *Server {
	catalog := locale.New()
	cfg := &config.Config{MaxTables: 10}
	return &Server{
		hub:     NewHub(),
		tables:  table.NewManager(nil, nil, cfg, catalog),
		cfg:     cfg,
		catalog: catalog,
	}
}

func TestMainMenuSpeaksCatalogStrings(t *testing.T) {
	s := newMenuServer()
	c := connectClient(s, "1", "Ann", game.DefaultPrefs())

	s.openMainMenu(c)

	frames := drainFrames(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, "menu", frames[0]["type"])
	assert.Equal(t, "main", frames[0]["menu_id"])

	items := frames[0]["items"].([]interface{})
	require.Len(t, items, 4)
	wantIDs := []string{"menu_create_game", "menu_join_table", "menu_resume_saved", "menu_client_options"}
	for i, want := range wantIDs {
		require.True(t, s.catalog.Has(want), "missing catalog entry %s", want)
		item := items[i].(map[string]interface{})
		assert.Equal(t, s.catalog.T("en", want, nil), item["text"])
	}
}

func TestEmptyTableListFallsBackToMainMenu(t *testing.T) {
	s := newMenuServer()
	c := connectClient(s, "1", "Ann", game.DefaultPrefs())

	s.showTableList(c)

	frames := drainFrames(t, c)
	require.Len(t, frames, 2)
	require.True(t, s.catalog.Has("tables_none"))
	assert.Equal(t, "speak", frames[0]["type"])
	assert.Equal(t, s.catalog.T("en", "tables_none", nil), frames[0]["text"])
	assert.Equal(t, "main", frames[1]["menu_id"])
}

func TestTableErrorsSpeakLocalizedReasons(t *testing.T) {
	s := newMenuServer()

	cases := []struct {
		err error
		id  string
	}{
		{table.ErrTooManyTables, "table_error_too_many"},
		{table.ErrAlreadySeated, "table_error_already_seated"},
		{table.ErrUnknownTable, "table_error_unknown_table"},
		{table.ErrUnknownGame, "table_error_unknown_game"},
		{table.ErrNoSavedTable, "table_error_no_save"},
		{game.ErrTableFull, "table_error_full"},
		{assert.AnError, "table_error_generic"},
	}
	for _, tc := range cases {
		c := connectClient(s, "1", "Ann", game.DefaultPrefs())
		s.speakTableError(c, tc.err)

		frames := drainFrames(t, c)
		require.NotEmpty(t, frames, tc.id)
		require.True(t, s.catalog.Has(tc.id), "missing catalog entry %s", tc.id)
		assert.Equal(t, s.catalog.T("en", tc.id, nil), frames[0]["text"])
		assert.Equal(t, "main", frames[len(frames)-1]["menu_id"], "errors land back on the main menu")
	}
}
