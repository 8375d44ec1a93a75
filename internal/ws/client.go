package ws

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/audioroom/backend/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Client is one authenticated websocket connection. It implements
// game.User, so a table can queue packets at it directly.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	userID     string
	name       string
	locale     string
	trustLevel string
	prefs      *game.Prefs

	// token is the session JWT minted at handshake, echoed to the
	// client for password-free reconnects.
	token string

	send       chan []byte
	closed     chan struct{}
	lastActive atomic.Int64

	// menu is the main-menu state machine, nil while seated at a table.
	menu *mainMenu
}

func newClient(conn *websocket.Conn, hub *Hub, userID, name, loc, trust string, prefs *game.Prefs) *Client {
	c := &Client{
		conn:       conn,
		hub:        hub,
		userID:     userID,
		name:       name,
		locale:     loc,
		trustLevel: trust,
		prefs:      prefs,
		send:       make(chan []byte, sendBuffer),
		closed:     make(chan struct{}),
	}
	c.touch()
	return c
}

func (c *Client) ID() string         { return c.userID }
func (c *Client) Name() string       { return c.name }
func (c *Client) Locale() string     { return c.locale }
func (c *Client) TrustLevel() string { return c.trustLevel }
func (c *Client) IsBot() bool        { return false }
func (c *Client) Prefs() *game.Prefs { return c.prefs }

// Queue marshals and enqueues a packet. A full buffer drops the packet
// rather than stalling the table loop.
func (c *Client) Queue(packet interface{}) {
	data, err := json.Marshal(packet)
	if err != nil {
		log.Printf("[WS] Failed to marshal packet for %s: %v", c.name, err)
		return
	}
	select {
	case c.send <- data:
	case <-c.closed:
	default:
		log.Printf("[WS] Send buffer full for %s, dropping packet", c.name)
	}
}

func (c *Client) touch() {
	c.lastActive.Store(time.Now().Unix())
}

// IdleSince reports the last inbound activity.
func (c *Client) IdleSince() time.Time {
	return time.Unix(c.lastActive.Load(), 0)
}

func (c *Client) close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
		c.conn.Close()
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[WS] Write error for %s: %v", c.name, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
