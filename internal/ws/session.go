package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/audioroom/backend/internal/auth"
	"github.com/audioroom/backend/internal/config"
	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/models"
	"github.com/audioroom/backend/internal/protocol"
	"github.com/audioroom/backend/internal/table"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // native clients connect from arbitrary origins
	},
}

// Server wires the websocket endpoint to the rest of the backend.
type Server struct {
	hub     *Hub
	tables  *table.Manager
	db      *sqlx.DB
	rdb     *redis.Client
	cfg     *config.Config
	catalog *locale.Catalog
	version string
}

func NewServer(hub *Hub, tables *table.Manager, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, catalog *locale.Catalog, version string) *Server {
	return &Server{
		hub:     hub,
		tables:  tables,
		db:      db,
		rdb:     rdb,
		cfg:     cfg,
		catalog: catalog,
		version: version,
	}
}

// Handle upgrades the connection and runs the session to completion.
func (s *Server) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade failed: %v", err)
			return
		}
		go s.runSession(conn)
	}
}

// runSession performs the authorize handshake, then pumps packets until
// the connection dies.
func (s *Server) runSession(conn *websocket.Conn) {
	client, err := s.handshake(conn)
	if err != nil {
		log.Printf("[WS] Handshake failed: %v", err)
		conn.Close()
		return
	}

	if displaced := s.hub.register(client); displaced != nil {
		displaced.Queue(protocol.NewDisconnect("logged in elsewhere", false))
		displaced.close()
	}
	go client.writePump()

	client.Queue(protocol.NewAuthorizeSuccess(s.version, client.token))
	s.sendOptionsLists(client)
	s.sendGameList(client)

	// A seat left behind by a dropped connection means this is a
	// reconnect; rebind it. Otherwise open the main menu.
	if t := s.tables.TableFor(client.userID); t != nil {
		t.Do(func() {
			b := t.Game().Base()
			if b.PlayerByID(client.userID) != nil {
				b.BindUser(client)
			}
		})
	} else {
		s.openMainMenu(client)
	}

	log.Printf("[WS] %s connected (%d online)", client.name, s.hub.Count())
	s.readLoop(client)
}

// handshake reads the authorize packet under a deadline, enforces the
// minimum client version and authenticates the account.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.AuthHandshakeSeconds) * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read authorize: %w", err)
	}
	pkt, err := protocol.Decode(data)
	if err != nil {
		return nil, err
	}
	authPkt, ok := pkt.(*protocol.Authorize)
	if !ok {
		return nil, fmt.Errorf("expected authorize, got %T", pkt)
	}

	if authPkt.Major < s.cfg.MinClientMajor ||
		(authPkt.Major == s.cfg.MinClientMajor && authPkt.Minor < s.cfg.MinClientMinor) {
		s.rejectWith(conn, fmt.Sprintf("client too old, need %d.%d or newer", s.cfg.MinClientMajor, s.cfg.MinClientMinor))
		return nil, fmt.Errorf("client version %d.%d below minimum", authPkt.Major, authPkt.Minor)
	}

	var (
		acct *models.Account
		err2 error
	)
	if authPkt.Token != "" {
		acct, err2 = auth.AuthenticateToken(s.db, s.cfg, authPkt.Token)
	} else {
		acct, err2 = auth.Authenticate(s.db, s.cfg, authPkt.Username, authPkt.Password)
	}
	if err2 != nil {
		s.rejectWith(conn, "invalid username or password")
		return nil, err2
	}

	token, err := auth.IssueToken(s.cfg, acct.ID)
	if err != nil {
		log.Printf("[AUTH] Failed to issue session token for %s: %v", acct.Username, err)
	}

	prefs := game.DefaultPrefs()
	if raw, err := auth.LoadPrefs(s.db, acct.ID); err == nil && raw != nil {
		if err := json.Unmarshal(raw, prefs); err != nil {
			log.Printf("[WS] Bad stored prefs for %s: %v", acct.Username, err)
			prefs = game.DefaultPrefs()
		}
	}

	conn.SetReadDeadline(time.Time{})
	loc := s.catalog.Match(acct.Locale)
	c := newClient(conn, s.hub, strconv.Itoa(acct.ID), acct.DisplayName, loc, acct.TrustLevel, prefs)
	c.token = token
	return c, nil
}

func (s *Server) rejectWith(conn *websocket.Conn, reason string) {
	data, _ := json.Marshal(protocol.NewDisconnect(reason, false))
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) sendOptionsLists(c *Client) {
	descs := game.AllGames()
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, s.catalog.T(c.locale, d.NameID, nil))
	}
	c.Queue(protocol.NewUpdateOptionsLists(names, []string{"en"}))
}

func (s *Server) sendGameList(c *Client) {
	descs := game.AllGames()
	infos := make([]protocol.GameInfo, 0, len(descs))
	for _, d := range descs {
		infos = append(infos, protocol.GameInfo{
			TypeID:     d.TypeID,
			Name:       s.catalog.T(c.locale, d.NameID, nil),
			MinPlayers: d.MinPlayers,
			MaxPlayers: d.MaxPlayers,
		})
	}
	c.Queue(protocol.NewGameList(infos))
}

// readLoop decodes inbound frames and routes them until the connection
// closes, then triggers the disconnect path.
func (s *Server) readLoop(c *Client) {
	defer func() {
		s.hub.unregister(c)
		c.close()
		s.tables.HandleDisconnect(c.userID)
		log.Printf("[WS] %s disconnected (%d online)", c.name, s.hub.Count())
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for %s: %v", c.name, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touch()

		pkt, err := protocol.Decode(data)
		if err != nil {
			log.Printf("[WS] Bad packet from %s: %v", c.name, err)
			continue
		}
		s.route(c, pkt)
	}
}

// route sends each packet where it belongs: session-level packets are
// handled here, UI packets go to the table loop or the main menu.
func (s *Server) route(c *Client, pkt interface{}) {
	switch p := pkt.(type) {
	case *protocol.Ping:
		c.Queue(protocol.NewPong())
		return
	case *protocol.Chat:
		s.handleChat(c, p)
		return
	case *protocol.ClientOptions:
		s.handleClientOptions(c, p)
		return
	}

	if t := s.tables.TableFor(c.userID); t != nil {
		s.routeToTable(c, t, pkt)
		return
	}
	s.handleMainMenu(c, pkt)
}

func (s *Server) routeToTable(c *Client, t *table.Table, pkt interface{}) {
	t.Do(func() {
		b := t.Game().Base()
		p := b.PlayerByID(c.userID)
		if p == nil {
			return
		}
		switch m := pkt.(type) {
		case *protocol.MenuActivate:
			b.HandleMenuActivate(p, m)
		case *protocol.Keybind:
			b.HandleKeybind(p, m)
		case *protocol.Editbox:
			b.HandleEditbox(p, m)
		case *protocol.Escape:
			b.HandleEscape(p, m)
		case *protocol.PlaylistDurationResponse:
			b.HandlePlaylistDuration(p, m)
		}
	})
}

func (s *Server) handleClientOptions(c *Client, pkt *protocol.ClientOptions) {
	prefs := game.DefaultPrefs()
	if err := json.Unmarshal(pkt.Options, prefs); err != nil {
		log.Printf("[WS] Bad client options from %s: %v", c.name, err)
		return
	}
	*c.prefs = *prefs

	accountID, err := strconv.Atoi(c.userID)
	if err != nil {
		return
	}
	if err := auth.SavePrefs(s.db, accountID, pkt.Options); err != nil {
		log.Printf("[DB] Failed to save prefs for %s: %v", c.name, err)
	}

	// A locale key in the snapshot switches the session language and
	// sticks to the account.
	var loc struct {
		Locale string `json:"locale"`
	}
	if json.Unmarshal(pkt.Options, &loc) == nil && loc.Locale != "" {
		c.locale = s.catalog.Match(loc.Locale)
		if err := auth.UpdateLocale(s.db, accountID, c.locale); err != nil {
			log.Printf("[DB] Failed to store locale for %s: %v", c.name, err)
		}
	}
}
