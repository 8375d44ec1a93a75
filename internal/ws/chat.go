package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/audioroom/backend/internal/protocol"
)

const globalChatChannel = "chat_events"

// nodeID distinguishes this process in the cross-node chat bridge so we
// do not re-deliver our own published messages.
var nodeID = uuid.NewString()

type chatEnvelope struct {
	Node     string `json:"node"`
	Sender   string `json:"sender"`
	Language string `json:"language"`
	Message  string `json:"message"`
}

// handleChat fans a chat message out. Local chat reaches the sender's
// table; global chat reaches every connected client on every node.
func (s *Server) handleChat(c *Client, pkt *protocol.Chat) {
	message := strings.TrimSpace(pkt.Message)
	if message == "" {
		return
	}
	lang := pkt.Language
	if lang == "" {
		lang = c.prefs.ChatLanguage
	}
	if lang == "" {
		lang = "en"
	}

	switch pkt.Convo {
	case "local":
		s.deliverTableChat(c, lang, message)
	case "global":
		if c.prefs.MuteGlobalChat {
			c.Queue(protocol.NewSpeak(s.catalog.T(c.locale, "chat_muted", nil), ""))
			return
		}
		s.deliverGlobalChat(c.name, lang, message)
		s.publishGlobalChat(c.name, lang, message)
	}
}

func (s *Server) deliverTableChat(c *Client, lang, message string) {
	t := s.tables.TableFor(c.userID)
	if t == nil {
		return
	}
	if c.prefs.MuteTableChat {
		c.Queue(protocol.NewSpeak(s.catalog.T(c.locale, "chat_muted", nil), ""))
		return
	}
	sender := c.name
	t.Do(func() {
		for _, p := range t.Game().Base().Players {
			u := p.User()
			if u == nil || u.IsBot() {
				continue
			}
			if u.Prefs().MuteTableChat {
				continue
			}
			text := s.catalog.T(u.Locale(), "chat_table",
				map[string]interface{}{"player": sender, "message": message})
			u.Queue(protocol.NewSpeak(text, "chat"))
			u.Queue(protocol.NewChat(sender, "local", lang, message))
			u.Queue(protocol.NewPlaySound("chatlocal.ogg", 1, 0, 1))
		}
	})
}

// deliverGlobalChat sends to every local client subscribed to the
// message's language and not muting global chat. The language filter
// never applies to the sender or to messages in the receiver's own
// chat-input language.
func (s *Server) deliverGlobalChat(sender, lang, message string) {
	s.hub.Each(func(c *Client) {
		if c.prefs.MuteGlobalChat {
			return
		}
		if c.name != sender && lang != c.prefs.ChatLanguage {
			if subs := c.prefs.LanguageSubs; len(subs) > 0 && !subs[lang] {
				return
			}
		}
		text := s.catalog.T(c.locale, "chat_global",
			map[string]interface{}{"player": sender, "message": message})
		c.Queue(protocol.NewSpeak(text, "chat"))
		c.Queue(protocol.NewChat(sender, "global", lang, message))
		c.Queue(protocol.NewPlaySound("chat.ogg", 1, 0, 1))
	})
}

func (s *Server) publishGlobalChat(sender, lang, message string) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(chatEnvelope{Node: nodeID, Sender: sender, Language: lang, Message: message})
	if err != nil {
		return
	}
	if err := s.rdb.Publish(context.Background(), globalChatChannel, payload).Err(); err != nil {
		log.Printf("[WS] Global chat publish failed: %v", err)
	}
}

// StartChatBridge subscribes to the cross-node global chat channel and
// re-delivers messages that originated elsewhere.
func (s *Server) StartChatBridge(ctx context.Context) {
	if s.rdb == nil {
		log.Println("[WS] Redis client not set; chat bridge not started")
		return
	}
	pubsub := s.rdb.Subscribe(ctx, globalChatChannel)
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] global chat bridge started")
		for msg := range ch {
			var env chatEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("[WS] Bad chat envelope: %v", err)
				continue
			}
			if env.Node == nodeID {
				continue
			}
			s.deliverGlobalChat(env.Sender, env.Language, env.Message)
		}
	}()
	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()
}
