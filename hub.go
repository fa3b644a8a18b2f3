package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to rooms
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	rooms      *RoomRegistry
	board      *Leaderboard
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a hub and hooks it to registry and leaderboard changes
func NewHub(rooms *RoomRegistry, board *Leaderboard) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		stop:       make(chan struct{}),
		rooms:      rooms,
		board:      board,
		ipConns:    make(map[string]int),
	}
	rooms.OnChange = h.broadcastRooms
	board.OnUpdate = h.broadcastHighScores
	return h
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events until Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			// leave the room first so it stops writing to this client
			if client.room != nil {
				h.rooms.Leave(client.room, client.id)
				client.room = nil
			}
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case <-h.stop:
			return
		}
	}
}

// Stop ends Run
func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastJSON sends a message to every connected client
func (h *Hub) BroadcastJSON(msg Envelope) {
	data, err := EncodeJSON(msg)
	if err != nil {
		Log.Errorf("broadcast %s: %v", msg.T, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.SendRaw(data)
	}
}

func (h *Hub) broadcastRooms() {
	h.BroadcastJSON(Envelope{T: MsgRoomList, Data: h.rooms.ListPublic()})
}

func (h *Hub) broadcastHighScores(list []HighScoreEntry) {
	h.BroadcastJSON(Envelope{T: MsgHighScores, Data: list})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
