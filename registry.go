package main

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxRooms = 100

var ErrTooManyRooms = errors.New("too many active rooms")

// RoomRegistry maps room names to live rooms. Rooms are created on first
// join and removed once their last player is gone.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	scores ScoreRecorder
	seed   int64 // non-zero makes room RNGs reproducible

	// OnChange is called outside the lock whenever the public listing may differ
	OnChange func()
}

// NewRoomRegistry creates an empty registry
func NewRoomRegistry(scores ScoreRecorder) *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*Room),
		scores: scores,
	}
}

// Join puts a player into the named room, creating the room if needed. A room
// created by a join that then fails is discarded again.
func (g *RoomRegistry) Join(req JoinRequest, playerID string, conn Broadcaster) (*Room, *Player, error) {
	g.mu.Lock()
	room, ok := g.rooms[req.Room]
	created := false
	if !ok {
		if len(g.rooms) >= maxRooms {
			g.mu.Unlock()
			Metrics.IncJoinRejected()
			return nil, nil, ErrTooManyRooms
		}
		room = NewRoom(req.Room, req.Config, RoomDeps{Scores: g.scores, Seed: g.nextSeed()})
		g.rooms[req.Room] = room
		created = true
	}

	p, err := room.AddPlayer(playerID, req.Name, conn, req.Binary)
	if err != nil {
		if created {
			delete(g.rooms, req.Room)
		}
		g.mu.Unlock()
		Metrics.IncJoinRejected()
		Log.Infof("join rejected: room=%q player=%s: %v", req.Room, playerID, err)
		return nil, nil, err
	}
	g.mu.Unlock()

	if created {
		Metrics.IncRoomCreated()
		Log.Infof("room %q created: mode=%s tickRate=%d private=%v",
			req.Room, req.Config.Mode, req.Config.TickRate, req.Config.Private)
	}
	Metrics.IncJoin()
	g.changed()
	return room, p, nil
}

// Leave removes a disconnected player and destroys the room if it is empty
func (g *RoomRegistry) Leave(room *Room, playerID string) {
	if room == nil {
		return
	}
	if room.RemovePlayer(playerID) {
		if !g.RemoveIfEmpty(room) {
			g.changed()
		}
	}
}

// Quit ends a player's game and destroys the room if it is empty
func (g *RoomRegistry) Quit(room *Room, playerID string) {
	if room == nil {
		return
	}
	if room.Quit(playerID) {
		if !g.RemoveIfEmpty(room) {
			g.changed()
		}
	}
}

// RemoveIfEmpty destroys the room if it has no players. Returns true if it was removed.
func (g *RoomRegistry) RemoveIfEmpty(room *Room) bool {
	g.mu.Lock()
	if g.rooms[room.Name()] != room || !room.close() {
		g.mu.Unlock()
		return false
	}
	delete(g.rooms, room.Name())
	g.mu.Unlock()

	Metrics.IncRoomDestroyed()
	Log.Infof("room %q destroyed", room.Name())
	g.changed()
	return true
}

// Get returns a room by name
func (g *RoomRegistry) Get(name string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[name]
}

// Rooms returns the live rooms
func (g *RoomRegistry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	list := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		list = append(list, r)
	}
	return list
}

// ListPublic returns the non-private rooms sorted by name
func (g *RoomRegistry) ListPublic() []RoomInfo {
	all := g.Snapshot()
	list := all[:0]
	for _, info := range all {
		if !info.Private {
			list = append(list, info)
		}
	}
	return list
}

// Snapshot returns every room, private ones included, sorted by name
func (g *RoomRegistry) Snapshot() []RoomInfo {
	rooms := g.Rooms()
	list := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		list = append(list, r.Info())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Count returns the number of live rooms
func (g *RoomRegistry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

var seedCounter int64

func (g *RoomRegistry) nextSeed() int64 {
	if g.seed != 0 {
		return g.seed
	}
	return time.Now().UnixNano() + atomic.AddInt64(&seedCounter, 1)
}

func (g *RoomRegistry) changed() {
	if g.OnChange != nil {
		g.OnChange()
	}
}
