package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	"github.com/MmmDelicious/lovememory-sub007/internal/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Conn is the part of *websocket.Conn the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type Client struct {
	PlayerID int64
	Name     string
	Conn     Conn
	Send     chan []byte
	Hub      *Hub

	limiter   *rate.Limiter
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	room *Room
}

func NewClient(playerID int64, name string, conn Conn, hub *Hub) *Client {
	return &Client{
		PlayerID: playerID,
		Name:     name,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Hub:      hub,
		limiter:  rate.NewLimiter(hub.opts.MessageRate, hub.opts.MessageBurst),
		done:     make(chan struct{}),
	}
}

// Run starts the write pump and blocks in the read pump until the
// connection drops.
func (c *Client) Run() {
	connections.Inc()
	defer connections.Dec()

	go c.writePump()
	c.readPump()
}

// Resume reattaches the client to the seat named by a resumption credential.
func (c *Client) Resume(roomID string) {
	c.join(roomID, true)
}

// Room returns the room the client is attached to, if any.
func (c *Client) Room() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(r *Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

// clearRoom detaches the client from r unless it already moved on.
func (c *Client) clearRoom(r *Room) {
	c.mu.Lock()
	if c.room == r {
		c.room = nil
	}
	c.mu.Unlock()
}

// deliver queues data without blocking. A full buffer drops the message;
// the next state update carries the full snapshot anyway.
func (c *Client) deliver(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		messagesDropped.Inc()
		logger.Warn("client send buffer full, message dropped", "player", c.PlayerID)
		return false
	}
}

func (c *Client) send(msgType string, payload any) {
	c.deliver(encode(msgType, payload))
}

func (c *Client) sendError(err error) {
	c.send(MsgError, ErrorPayload{Message: err.Error()})
}

func (c *Client) readPump() {
	defer c.shutdown()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "player", c.PlayerID, "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "player", c.PlayerID, "error", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// shutdown runs once when the read side ends. The seat is kept; the room
// starts the grace period.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		if r := c.Room(); r != nil {
			_ = r.Detach(c)
		}
		_ = c.Conn.Close()
	})
}

func (c *Client) handle(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError(errors.New("malformed message"))
		return
	}
	if msg.Type == MsgPing {
		c.send(MsgPong, struct{}{})
		return
	}
	if !c.limiter.Allow() {
		messagesLimited.Inc()
		c.sendError(errors.New("rate limit exceeded"))
		return
	}

	switch msg.Type {
	case MsgJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomID == "" {
			c.sendError(errors.New("room_id required"))
			return
		}
		c.join(p.RoomID, false)
	case MsgMakeMove:
		var p MakeMovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Action == "" {
			c.send(MsgMoveRejected, MoveRejectedPayload{Code: game.CodeMalformedPayload, Reason: "action required"})
			return
		}
		c.submit(game.Move{PlayerID: c.PlayerID, Action: p.Action, Payload: p.Payload})
	case MsgBuyIn, MsgRebuy:
		var p AmountPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.send(MsgMoveRejected, MoveRejectedPayload{Code: game.CodeMalformedPayload, Reason: "amount required"})
			return
		}
		action := game.ActionBuyIn
		if msg.Type == MsgRebuy {
			action = game.ActionRebuy
		}
		payload, _ := json.Marshal(p)
		c.submit(game.Move{PlayerID: c.PlayerID, Action: action, Payload: payload})
	case MsgLeaveRoom:
		c.withRoom(func(r *Room) error { return r.Leave(c) })
	case MsgStartGame:
		c.withRoom(func(r *Room) error { return r.Start(c) })
	default:
		c.sendError(errors.New("unknown message type"))
	}
}

func (c *Client) join(roomID string, resume bool) {
	r, err := c.Hub.Room(roomID)
	if err != nil {
		if resume {
			err = ErrSeatVacated
		}
		c.sendError(err)
		return
	}
	if old := c.Room(); old != nil && old != r {
		_ = old.Detach(c)
	}
	if err := r.Join(c, resume); err != nil {
		c.replyTo(r, err)
	}
}

func (c *Client) submit(m game.Move) {
	c.withRoom(func(r *Room) error { return r.Submit(c, m) })
}

func (c *Client) withRoom(fn func(r *Room) error) {
	r := c.Room()
	if r == nil {
		c.sendError(ErrNotInRoom)
		return
	}
	if err := fn(r); err != nil {
		c.replyTo(r, err)
	}
}

func (c *Client) replyTo(r *Room, err error) {
	if errors.Is(err, ErrRoomClosed) {
		c.clearRoom(r)
		c.send(MsgRoomClosed, RoomClosedPayload{Reason: r.CloseReason()})
		return
	}
	c.sendError(err)
}
