package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120

	joinErrorText = "could not join room"
)

// Client represents a WebSocket connection. room is only touched by the
// read pump, and by the hub after the read pump has exited.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	room       *Room
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client with a fresh connection-scoped player id
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         GenerateID(6),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnf("ws error: %v", err)
			}
			break
		}

		if !c.allow(time.Now()) {
			Log.Infof("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage {
			if in, ok := DecodeBinaryInput(message); ok {
				c.applyInput(in)
			}
			continue
		}
		c.handleMessage(message)
	}
}

// allow counts one inbound frame against the per-second budget
func (c *Client) allow(now time.Time) bool {
	if now.After(c.msgResetAt) {
		c.msgCount = 0
		c.msgResetAt = now.Add(time.Second)
	}
	c.msgCount++
	return c.msgCount <= maxMessagesPerSec
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
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

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Errorf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		Log.Debugf("dropping malformed frame from %s: %v", c.remoteAddr, err)
		return
	}

	switch env.T {
	case MsgJoinGame:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env)
	case MsgTogglePause:
		if c.room != nil {
			c.room.TogglePause(c.id)
		}
	case MsgQuitGame:
		c.handleQuit()
	case MsgRequestHighScores:
		c.SendJSON(Envelope{T: MsgHighScores, Data: c.hub.board.Load()})
	case MsgRequestRooms:
		c.SendJSON(Envelope{T: MsgRoomList, Data: c.hub.rooms.ListPublic()})
	default:
		Log.Debugf("unknown message type %q from %s", env.T, c.remoteAddr)
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	req, err := ParseJoin(data)
	if err != nil {
		Log.Debugf("bad join_game from %s: %v", c.remoteAddr, err)
		c.SendJSON(Envelope{T: MsgJoinError, Data: JoinErrorMsg{Message: "invalid join request"}})
		return
	}

	// joining again leaves the current room first
	if c.room != nil {
		c.hub.rooms.Leave(c.room, c.id)
		c.room = nil
	}

	room, _, err := c.hub.rooms.Join(req, c.id, c)
	if err != nil {
		Log.Infof("join %q from %s refused: %v", req.Room, c.remoteAddr, err)
		c.SendJSON(Envelope{T: MsgJoinError, Data: JoinErrorMsg{Message: joinErrorText}})
		return
	}
	c.room = room
	c.SendJSON(Envelope{T: MsgHighScores, Data: c.hub.board.Load()})
}

func (c *Client) handleInput(env InEnvelope) {
	if c.room == nil {
		return
	}
	in, err := DecodePayload[PlayerInput](env)
	if err != nil {
		return
	}
	c.applyInput(in)
}

func (c *Client) applyInput(in PlayerInput) {
	if c.room == nil {
		return
	}
	c.room.SetInput(c.id, in)
}

func (c *Client) handleQuit() {
	if c.room == nil {
		return
	}
	c.hub.rooms.Quit(c.room, c.id)
	c.room = nil
}
