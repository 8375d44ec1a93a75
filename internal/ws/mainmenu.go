package ws

import (
	"log"
	"strconv"

	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/protocol"
	"github.com/audioroom/backend/internal/table"
)

// Main-menu ids. These menus belong to the session, not to any table.
const (
	menuMain       = "main"
	menuGameSelect = "game_select"
	menuTableList  = "table_list"
	menuSavedList  = "saved_list"
)

// mainMenu is the pre-table state machine. It remembers what the open
// menu's rows refer to, since the client echoes only indices and ids.
type mainMenu struct {
	state     string
	gameTypes []string
	tableIDs  []string
	savedIDs  []int
}

func (s *Server) openMainMenu(c *Client) {
	c.menu = &mainMenu{state: menuMain}
	items := []protocol.MenuItem{
		{Text: s.catalog.T(c.locale, "menu_create_game", nil), ID: "create"},
		{Text: s.catalog.T(c.locale, "menu_join_table", nil), ID: "join"},
		{Text: s.catalog.T(c.locale, "menu_resume_saved", nil), ID: "resume"},
		{Text: s.catalog.T(c.locale, "menu_client_options", nil), ID: "options"},
	}
	c.Queue(protocol.Menu{
		Type:           protocol.TypeMenuShow,
		MenuID:         menuMain,
		Items:          items,
		EscapeBehavior: protocol.EscapeKeybind,
	})
}

func (s *Server) handleMainMenu(c *Client, pkt interface{}) {
	if c.menu == nil {
		s.openMainMenu(c)
	}
	switch p := pkt.(type) {
	case *protocol.MenuActivate:
		s.activateMainMenu(c, p)
	case *protocol.Escape:
		s.openMainMenu(c)
	}
}

func (s *Server) activateMainMenu(c *Client, pkt *protocol.MenuActivate) {
	idx := pkt.Selection - 1
	switch pkt.MenuID {
	case menuMain:
		switch pkt.SelectionID {
		case "create":
			s.showGameSelect(c)
		case "join":
			s.showTableList(c)
		case "resume":
			s.showSavedList(c)
		case "options":
			c.Queue(protocol.NewOpenClientOptions())
		}
	case menuGameSelect:
		if idx < 0 || idx >= len(c.menu.gameTypes) {
			return
		}
		s.createTable(c, c.menu.gameTypes[idx])
	case menuTableList:
		if idx < 0 || idx >= len(c.menu.tableIDs) {
			return
		}
		s.joinTable(c, c.menu.tableIDs[idx])
	case menuSavedList:
		if idx < 0 || idx >= len(c.menu.savedIDs) {
			return
		}
		s.resumeTable(c, c.menu.savedIDs[idx])
	}
}

func (s *Server) showGameSelect(c *Client) {
	descs := game.AllGames()
	c.menu = &mainMenu{state: menuGameSelect}
	items := make([]protocol.MenuItem, 0, len(descs))
	for _, d := range descs {
		c.menu.gameTypes = append(c.menu.gameTypes, d.TypeID)
		label := s.catalog.T(c.locale, "menu_game_entry", map[string]interface{}{
			"name": s.catalog.T(c.locale, d.NameID, nil),
			"min":  d.MinPlayers,
			"max":  d.MaxPlayers,
		})
		items = append(items, protocol.MenuItem{Text: label, ID: d.TypeID})
	}
	c.Queue(protocol.Menu{
		Type:           protocol.TypeMenuShow,
		MenuID:         menuGameSelect,
		Items:          items,
		EscapeBehavior: protocol.EscapeEvent,
	})
}

func (s *Server) showTableList(c *Client) {
	infos := s.tables.ListActive()
	c.menu = &mainMenu{state: menuTableList}
	items := make([]protocol.MenuItem, 0, len(infos))
	for _, info := range infos {
		c.menu.tableIDs = append(c.menu.tableIDs, info.ID)
		label := s.catalog.T(c.locale, "menu_table_entry", map[string]interface{}{
			"host":    info.HostName,
			"game":    info.GameName,
			"players": info.Players,
			"status":  info.Status,
		})
		items = append(items, protocol.MenuItem{Text: label, ID: info.ID})
	}
	if len(items) == 0 {
		c.Queue(protocol.NewSpeak(s.catalog.T(c.locale, "tables_none", nil), ""))
		s.openMainMenu(c)
		return
	}
	c.Queue(protocol.Menu{
		Type:           protocol.TypeMenuShow,
		MenuID:         menuTableList,
		Items:          items,
		EscapeBehavior: protocol.EscapeEvent,
	})
}

func (s *Server) showSavedList(c *Client) {
	accountID, err := strconv.Atoi(c.userID)
	if err != nil {
		return
	}
	saves, err := s.tables.SavedTables(accountID)
	if err != nil {
		log.Printf("[DB] Failed to list saves for %s: %v", c.name, err)
		c.Queue(protocol.NewSpeak(s.catalog.T(c.locale, "saves_load_failed", nil), ""))
		return
	}
	if len(saves) == 0 {
		c.Queue(protocol.NewSpeak(s.catalog.T(c.locale, "saves_none", nil), ""))
		s.openMainMenu(c)
		return
	}

	c.menu = &mainMenu{state: menuSavedList}
	items := make([]protocol.MenuItem, 0, len(saves))
	for _, row := range saves {
		c.menu.savedIDs = append(c.menu.savedIDs, row.ID)
		name := row.GameType
		if d, ok := game.Lookup(row.GameType); ok {
			name = s.catalog.T(c.locale, d.NameID, nil)
		}
		label := s.catalog.T(c.locale, "menu_saved_entry", map[string]interface{}{
			"name": name,
			"date": row.CreatedAt.Format("Jan 2 15:04"),
			"tick": row.SavedAtTick,
		})
		items = append(items, protocol.MenuItem{Text: label, ID: strconv.Itoa(row.ID)})
	}
	c.Queue(protocol.Menu{
		Type:           protocol.TypeMenuShow,
		MenuID:         menuSavedList,
		Items:          items,
		EscapeBehavior: protocol.EscapeEvent,
	})
}

func (s *Server) createTable(c *Client, gameType string) {
	t, err := s.tables.Create(c, gameType, nil)
	if err != nil {
		s.speakTableError(c, err)
		return
	}
	c.menu = nil
	s.hub.Each(func(other *Client) {
		if other != c {
			other.Queue(protocol.NewTableCreate(c.name, t.GameType))
		}
	})
}

func (s *Server) joinTable(c *Client, tableID string) {
	if _, err := s.tables.Join(c, tableID, false); err != nil {
		s.speakTableError(c, err)
		return
	}
	c.menu = nil
}

func (s *Server) resumeTable(c *Client, savedID int) {
	if _, err := s.tables.Resume(c, savedID); err != nil {
		s.speakTableError(c, err)
		return
	}
	c.menu = nil
}

func (s *Server) speakTableError(c *Client, err error) {
	id := "table_error_generic"
	switch err {
	case table.ErrTooManyTables:
		id = "table_error_too_many"
	case table.ErrAlreadySeated:
		id = "table_error_already_seated"
	case table.ErrUnknownTable:
		id = "table_error_unknown_table"
	case table.ErrUnknownGame:
		id = "table_error_unknown_game"
	case table.ErrNoSavedTable:
		id = "table_error_no_save"
	case game.ErrTableFull:
		id = "table_error_full"
	}
	c.Queue(protocol.NewSpeak(s.catalog.T(c.locale, id, nil), ""))
	s.openMainMenu(c)
}

// ReturnToMainMenu reopens the main menu for users whose table just
// closed. Wired into the table manager's closed hook at startup.
func (s *Server) ReturnToMainMenu(userIDs []string) {
	for _, id := range userIDs {
		if c := s.hub.Get(id); c != nil {
			s.openMainMenu(c)
		}
	}
}
