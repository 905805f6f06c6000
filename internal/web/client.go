package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dungeonworks/storyteller/internal/engine"
	"github.com/dungeonworks/storyteller/internal/session"
)

// Client is one browser connection bound to one user's engine. The read pump
// dispatches commands; the write pump drains send so a slow socket never
// blocks the engine.
type Client struct {
	userID string
	conn   *websocket.Conn
	eng    *engine.Engine
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(conn *websocket.Conn, userID string, manager *engine.Manager, logger *slog.Logger) *Client {
	if userID == "" {
		userID = uuid.NewString()
	}
	c := &Client{
		userID: userID,
		conn:   conn,
		eng:    manager.Engine(userID),
		logger: logger.With("user", userID),
		send:   make(chan []byte, 64),
	}
	c.eng.SetUpdateHandler(c.pushSession)
	return c
}

func (c *Client) run(ctx context.Context) {
	go c.writePump()
	c.pushState()
	if doc := c.eng.Document(); len(doc.ChatHistory) > 0 {
		c.pushSession(doc)
	}
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.eng.SetUpdateHandler(nil)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.push(TypeError, textPayload{Text: "malformed message"})
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeStartGame:
		var p startGamePayload
		if !c.decode(env.Payload, &p) {
			return
		}
		if p.SessionID == "" {
			p.SessionID = session.DefaultSessionID
		}
		c.report(c.eng.StartGame(ctx, p.WorldSetting, p.SessionID))

	case TypeAction:
		var p textPayload
		if !c.decode(env.Payload, &p) {
			return
		}
		c.report(c.eng.Act(ctx, p.Text))

	case TypeMultiplayerSetup:
		c.report(c.eng.OpenMultiplayerSetup())

	case TypeCreateGame:
		var p startGamePayload
		if !c.decode(env.Payload, &p) {
			return
		}
		code, err := c.eng.CreateGame(ctx, p.WorldSetting)
		if err != nil {
			c.report(err)
			return
		}
		c.push(TypeGameCreated, textPayload{Text: code})
		c.pushState()

	case TypeJoinGame:
		var p joinGamePayload
		if !c.decode(env.Payload, &p) {
			return
		}
		c.report(c.eng.JoinGame(ctx, p.Code, p.WorldSetting))

	case TypeLeaveGame:
		c.report(c.eng.LeaveGame())

	case TypeWorldBuilder:
		var p textPayload
		if !c.decode(env.Payload, &p) {
			return
		}
		text, err := c.eng.GenerateWorldElement(ctx, p.Text)
		if err != nil {
			c.report(err)
			return
		}
		c.push(TypeGenerated, textPayload{Text: text})

	case TypeCreativeStory:
		var p textPayload
		if !c.decode(env.Payload, &p) {
			return
		}
		text, err := c.eng.GenerateCreativeStory(ctx, p.Text)
		if err != nil {
			c.report(err)
			return
		}
		c.push(TypeGenerated, textPayload{Text: text})

	default:
		c.push(TypeError, textPayload{Text: "unknown message type: " + env.Type})
	}
}

func (c *Client) decode(raw json.RawMessage, into any) bool {
	if err := json.Unmarshal(raw, into); err != nil {
		c.push(TypeError, textPayload{Text: "malformed payload"})
		return false
	}
	return true
}

// report sends the command outcome: a notice for player-visible errors, the
// refreshed state otherwise. Internal errors are logged and softened.
func (c *Client) report(err error) {
	if err == nil {
		c.pushState()
		return
	}
	if n, ok := engine.AsNotice(err); ok {
		c.push(TypeNotice, textPayload{Text: n.Message})
		c.pushState()
		return
	}
	c.logger.Error("handling command", "error", err)
	c.push(TypeError, textPayload{Text: "something went wrong"})
}

func (c *Client) pushSession(doc session.Document) {
	c.push(TypeSession, doc)
}

func (c *Client) pushState() {
	c.push(TypeState, textPayload{Text: string(c.eng.State())})
}

func (c *Client) push(typ string, payload any) {
	raw, err := envelope(typ, payload)
	if err != nil {
		c.logger.Error("encoding message", "type", typ, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- raw:
	default:
		c.logger.Warn("dropping message, send buffer full", "type", typ)
	}
}
