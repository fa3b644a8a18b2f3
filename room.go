package main

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"
)

const maxBubblesPerRoom = 200

var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room closed")
)

// Broadcaster is the per-connection sink a room writes to
type Broadcaster interface {
	SendJSON(msg interface{})
	SendRaw(data []byte)
	SendBinary(data []byte)
}

// ScoreRecorder finalizes a player's score. ok is false when nothing was stored.
type ScoreRecorder interface {
	Record(name string, score int) (id string, ok bool)
}

// RoomDeps are the collaborators injected into a room
type RoomDeps struct {
	Scores ScoreRecorder
	Seed   int64 // 0 picks a time-based seed
}

type member struct {
	conn   Broadcaster
	binary bool
}

// Room holds the full state of one match. Every exported method takes mu;
// advance and the helpers it calls expect mu to be held.
type Room struct {
	mu      sync.Mutex
	name    string
	cfg     RoomConfig
	step    time.Duration
	created time.Time
	rng     *rand.Rand
	scores  ScoreRecorder
	metrics RoomMetrics

	tick        int
	accumulator time.Duration
	paused      bool
	started     bool
	closed      bool
	wave        int
	mapIndex    int
	nextWaveIn  int // ticks until the next wave, 0 when none is scheduled

	players map[string]*Player
	members map[string]*member
	enemies []*Enemy
	bubbles []*Bubble
	items   []*Item
	slots   []bool
	sounds  []string
}

// NewRoom creates an empty room
func NewRoom(name string, cfg RoomConfig, deps RoomDeps) *Room {
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.MaxPlayers <= 0 || cfg.MaxPlayers > len(SlotColors) {
		cfg.MaxPlayers = len(SlotColors)
	}
	return &Room{
		name:    name,
		cfg:     cfg,
		step:    cfg.FixedStep(),
		created: time.Now(),
		rng:     rand.New(rand.NewSource(seed)),
		scores:  deps.Scores,
		players: make(map[string]*Player),
		members: make(map[string]*member),
		slots:   make([]bool, cfg.MaxPlayers),
	}
}

// Name returns the room name
func (r *Room) Name() string { return r.name }

// Config returns the settings fixed at creation
func (r *Room) Config() RoomConfig { return r.cfg }

// AddPlayer places a new player in the room and sends it the initial map and
// state. The first join spawns the first wave in modes with enemies.
func (r *Room) AddPlayer(id, name string, conn Broadcaster, binary bool) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}
	if _, ok := r.players[id]; ok {
		r.removePlayer(id)
	}
	slot := r.takeSlot()
	if slot < 0 {
		return nil, ErrRoomFull
	}

	p := NewPlayer(id, name, slot)
	r.players[id] = p
	if conn != nil {
		r.members[id] = &member{conn: conn, binary: binary}
	}

	if !r.started {
		r.started = true
		if r.cfg.HasEnemies() {
			r.spawnWave()
		}
	}

	if conn != nil {
		conn.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
			ID:       id,
			Room:     r.name,
			Mode:     string(r.cfg.Mode),
			TickRate: r.cfg.TickRate,
			Color:    p.Color,
		}})
		conn.SendJSON(Envelope{T: MsgMapUpdate, Data: r.mapUpdate()})
	}
	r.broadcastState()
	return p, nil
}

// RemovePlayer handles a disconnect: the max score is recorded, no game_over
// is sent. Returns false if the player was not in the room.
func (r *Room) RemovePlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return false
	}
	r.record(p)
	r.removePlayer(id)
	return true
}

// Quit records the player's score, sends it game_over and removes it
func (r *Room) Quit(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return false
	}
	r.finish(p)
	r.broadcastState()
	return true
}

// SetInput stores the latest input snapshot; it takes effect on the next tick
func (r *Room) SetInput(id string, in PlayerInput) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		r.metrics.IncIgnored()
		return
	}
	p.Input = in
	r.metrics.IncAccepted()
}

// TogglePause flips the pause flag for every member. Non-members are ignored.
func (r *Room) TogglePause(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return false
	}
	r.paused = !r.paused
	r.accumulator = 0
	Log.Infof("room %q paused=%v", r.name, r.paused)
	r.sendState(r.snapshot())
	return true
}

// Pump feeds elapsed real time into the accumulator, runs every whole fixed
// step and broadcasts once if anything advanced. Returns the steps taken.
func (r *Room) Pump(elapsed time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.paused || len(r.players) == 0 {
		r.accumulator = 0
		return 0
	}

	r.accumulator += elapsed
	steps := 0
	for r.accumulator >= r.step {
		start := time.Now()
		r.advance()
		r.metrics.AddTick(time.Since(start))
		r.accumulator -= r.step
		steps++
	}
	if steps > 0 {
		r.flushSounds()
		r.broadcastState()
	}
	return steps
}

// advance runs exactly one deterministic simulation step
func (r *Room) advance() {
	r.tick++

	targets := r.sortedPlayers()
	ctx := aiContext{
		Targets:   targets,
		Platforms: r.platforms(),
		Wave:      r.wave,
		Rng:       r.rng,
	}

	r.updatePlayers(targets)
	for _, b := range r.bubbles {
		b.Update()
	}
	for _, e := range r.enemies {
		e.Update(ctx)
	}
	for _, it := range r.items {
		it.Update()
	}

	r.resolveBubbleHits()
	if r.cfg.HasPVP() {
		r.resolveBubblePlayerHits()
		r.resolvePlayerPops()
	}
	r.resolveEnemyContacts()
	r.resolveItemPickups()

	hadEnemies := len(r.enemies) > 0
	r.sweep()
	r.progressWaves(hadEnemies)
}

func (r *Room) updatePlayers(players []*Player) {
	platforms := r.platforms()
	for _, p := range players {
		if p.gone {
			continue
		}
		if p.Update(platforms) {
			r.sound(SoundJump)
		}
		if p.FellOut() {
			r.playerFell(p)
			continue
		}
		if p.CanShoot(r.tick) && len(r.bubbles) < maxBubblesPerRoom {
			r.bubbles = append(r.bubbles, NewBubble(p))
			p.MarkShot(r.tick, r.cfg.TickRate)
			r.sound(SoundShoot)
		}
	}
}

// playerFell handles a drop below the arena
func (r *Room) playerFell(p *Player) {
	if p.LoseLife() {
		r.finish(p)
		return
	}
	p.Respawn(0)
}

// damagePlayer applies an enemy hit; a shield charge absorbs it
func (r *Room) damagePlayer(p *Player) {
	if p.Shield > 0 {
		p.Shield--
		p.Invincible = ShieldInvincibility
		return
	}
	if p.LoseLife() {
		r.finish(p)
		return
	}
	p.Respawn(RespawnInvincibility)
	r.sound(SoundBossHit)
}

// finish records the max score, tells the player the game is over and removes it
func (r *Room) finish(p *Player) {
	id, ok := r.record(p)
	msg := GameOverMsg{Score: p.MaxScore}
	if ok {
		msg.ID = &id
	}
	if m, exists := r.members[p.ID]; exists {
		m.conn.SendJSON(Envelope{T: MsgGameOver, Data: msg})
	}
	r.removePlayer(p.ID)
}

func (r *Room) record(p *Player) (string, bool) {
	if r.scores == nil {
		return "", false
	}
	return r.scores.Record(p.Name, p.MaxScore)
}

// removePlayer is the single exit path for a player; it always frees the slot
func (r *Room) removePlayer(id string) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	p.gone = true
	if p.Slot >= 0 && p.Slot < len(r.slots) {
		r.slots[p.Slot] = false
	}
	delete(r.players, id)
	delete(r.members, id)
}

func (r *Room) takeSlot() int {
	if len(r.players) >= r.cfg.MaxPlayers {
		return -1
	}
	for i, used := range r.slots {
		if !used {
			r.slots[i] = true
			return i
		}
	}
	return -1
}

// sweep drops everything marked for removal during the step
func (r *Room) sweep() {
	bubbles := r.bubbles[:0]
	for _, b := range r.bubbles {
		if b.Alive {
			bubbles = append(bubbles, b)
		}
	}
	r.bubbles = bubbles

	enemies := r.enemies[:0]
	for _, e := range r.enemies {
		if !e.Dead {
			enemies = append(enemies, e)
		}
	}
	r.enemies = enemies

	items := r.items[:0]
	for _, it := range r.items {
		if it.Alive {
			items = append(items, it)
		}
	}
	r.items = items
}

// sortedPlayers returns the players ordered by id
func (r *Room) sortedPlayers() []*Player {
	list := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *Room) platforms() []Platform {
	return Maps[r.mapIndex].Platforms
}

func (r *Room) mapUpdate() MapUpdateMsg {
	m := Maps[r.mapIndex]
	return MapUpdateMsg{Name: m.Name, Index: r.mapIndex, Platforms: m.Platforms}
}

// sound queues an audio cue for the end of the current pump
func (r *Room) sound(name string) {
	r.sounds = append(r.sounds, name)
}

func (r *Room) flushSounds() {
	for _, s := range r.sounds {
		r.broadcastMsg(Envelope{T: MsgSound, Data: SoundMsg{Type: s}})
	}
	r.sounds = r.sounds[:0]
}

// snapshot builds the outbound state
func (r *Room) snapshot() GameState {
	state := GameState{
		Players:    make(map[string]PlayerState, len(r.players)),
		Bubbles:    make([]BubbleState, 0, len(r.bubbles)),
		Enemies:    make([]EnemyState, 0, len(r.enemies)),
		Items:      make([]ItemState, 0, len(r.items)),
		GamePaused: r.paused,
		Wave:       r.wave,
		Tick:       r.tick,
	}
	for id, p := range r.players {
		state.Players[id] = p.ToState()
	}
	for _, b := range r.bubbles {
		state.Bubbles = append(state.Bubbles, b.ToState())
	}
	for _, e := range r.enemies {
		state.Enemies = append(state.Enemies, e.ToState())
	}
	for _, it := range r.items {
		state.Items = append(state.Items, it.ToState())
	}
	return state
}

// broadcastState sends the current state unless the room is paused
func (r *Room) broadcastState() {
	if r.paused {
		return
	}
	r.sendState(r.snapshot())
}

// sendState encodes the state once per wire format and fans it out
func (r *Room) sendState(state GameState) {
	if len(r.members) == 0 {
		return
	}
	env := Envelope{T: MsgState, Data: state}

	var text, bin []byte
	for _, m := range r.members {
		if m.binary {
			if bin == nil {
				data, err := EncodeMsgpack(env)
				if err != nil {
					Log.Errorf("room %q: msgpack state: %v", r.name, err)
					return
				}
				bin = data
			}
			m.conn.SendBinary(bin)
			continue
		}
		if text == nil {
			data, err := EncodeJSON(env)
			if err != nil {
				Log.Errorf("room %q: json state: %v", r.name, err)
				return
			}
			text = data
		}
		m.conn.SendRaw(text)
	}
	r.metrics.IncBroadcast()
}

// broadcastMsg sends a message to all members of the room
func (r *Room) broadcastMsg(msg Envelope) {
	for _, m := range r.members {
		m.conn.SendJSON(msg)
	}
}

// Snapshot returns the current state
func (r *Room) Snapshot() GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Info returns the listing entry for the room
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Name:    r.name,
		Mode:    string(r.cfg.Mode),
		Players: len(r.players),
		Max:     r.cfg.MaxPlayers,
		Private: r.cfg.Private,
		Wave:    r.wave,
		Speed:   r.cfg.TickRate,
	}
}

// PlayerCount returns the number of players
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// close marks the room as destroyed. Returns false if it still has players.
func (r *Room) close() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) > 0 {
		return false
	}
	r.closed = true
	r.enemies = nil
	r.bubbles = nil
	r.items = nil
	return true
}
