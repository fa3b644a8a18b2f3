package main

import "math"

const (
	PlayerSize           = 32.0
	PlayerLives          = 5
	JoinInvincibility    = 180 // ticks
	RespawnInvincibility = 120
	ShieldInvincibility  = 120
	JumpImpulse          = -16.0
	RunSpeed             = 4.0
	BoostedRunSpeed      = 6.0
	IdleFriction         = 0.9
	BuffDuration         = 600
	PlayerTrapDuration   = 180
	TrapEscapeInvincible = 60
	ShootCooldownMs      = 500
	FastShootCooldownMs  = 200
	KillsPerExtraLife    = 5
)

// PlayerStatus is a player's movement state
type PlayerStatus string

const (
	PlayerNormal  PlayerStatus = "normal"
	PlayerTrapped PlayerStatus = "trapped"
)

// PlayerInput is the latest full input snapshot sent by the client
type PlayerInput struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Up    bool `json:"up"`
	Shoot bool `json:"shoot"`
}

// Player represents a player in a room
type Player struct {
	ID    string
	Name  string
	Slot  int
	Color string
	Body
	Direction   float64 // +1 right, -1 left
	Invincible  int
	Lives       int
	Score       int
	MaxScore    int
	Kills       int
	SpeedBuff   int
	FireBuff    int
	Shield      int
	State       PlayerStatus
	TrappedTime int
	Input       PlayerInput
	nextShot    int  // earliest room tick the player may shoot again
	gone        bool // removed from its room during the current tick
}

// NewPlayer creates a player at the spawn point with join invincibility
func NewPlayer(id, name string, slot int) *Player {
	p := &Player{
		ID:        id,
		Name:      name,
		Slot:      slot,
		Color:     SlotColors[slot%len(SlotColors)],
		Body:      Body{X: SpawnX, Y: SpawnY, W: PlayerSize, H: PlayerSize},
		Direction: 1,
		Lives:     PlayerLives,
		State:     PlayerNormal,
	}
	p.Invincible = JoinInvincibility
	return p
}

// Update moves the player one tick. Returns whether it jumped this tick.
// Falling out of the arena is left to the room.
func (p *Player) Update(platforms []Platform) bool {
	jumped := false
	if p.State == PlayerTrapped {
		p.float()
	} else {
		if p.Input.Up && p.Grounded {
			p.DY = JumpImpulse
			p.Grounded = false
			jumped = true
		}
		p.ApplyGravity()
		p.Y += p.DY

		speed := RunSpeed
		if p.SpeedBuff > 0 {
			speed = BoostedRunSpeed
		}
		switch {
		case p.Input.Left:
			p.DX = -speed
			p.Direction = -1
		case p.Input.Right:
			p.DX = speed
			p.Direction = 1
		default:
			p.DX *= IdleFriction
		}
		p.X += p.DX
		p.ClampToArena()

		if !p.FellOut() {
			p.LandOn(platforms)
		}
	}

	if p.Invincible > 0 {
		p.Invincible--
	}
	if p.SpeedBuff > 0 {
		p.SpeedBuff--
	}
	if p.FireBuff > 0 {
		p.FireBuff--
	}
	return jumped
}

// float drifts a trapped player upward until it escapes
func (p *Player) float() {
	p.DX, p.DY = 0, 0
	p.Y -= 1
	p.X += math.Sin(float64(p.TrappedTime)/6) * 0.5
	if p.Y < 0 {
		p.Y = 0
	}
	p.ClampToArena()
	p.TrappedTime++
	if p.TrappedTime > PlayerTrapDuration {
		p.Release()
		p.Invincible = TrapEscapeInvincible
	}
}

// Trap puts the player in a bubble
func (p *Player) Trap() {
	p.State = PlayerTrapped
	p.TrappedTime = 0
	p.Grounded = false
}

// Release frees a trapped player
func (p *Player) Release() {
	p.State = PlayerNormal
	p.TrappedTime = 0
}

// CanShoot returns true if the player holds shoot and its cooldown has passed
func (p *Player) CanShoot(tick int) bool {
	return p.State == PlayerNormal && p.Input.Shoot && tick >= p.nextShot
}

// MarkShot starts the shoot cooldown, shorter while the fire buff is active
func (p *Player) MarkShot(tick, tickRate int) {
	ms := ShootCooldownMs
	if p.FireBuff > 0 {
		ms = FastShootCooldownMs
	}
	p.nextShot = tick + msToTicks(ms, tickRate)
}

// AddScore adds points and keeps MaxScore current
func (p *Player) AddScore(n int) {
	p.Score += n
	if p.Score > p.MaxScore {
		p.MaxScore = p.Score
	}
}

// AddKill counts a defeated enemy; every KillsPerExtraLife kills grants a life
func (p *Player) AddKill() {
	p.Kills++
	if p.Kills%KillsPerExtraLife == 0 {
		p.Lives++
	}
}

// LoseLife removes one life and returns true if none remain
func (p *Player) LoseLife() bool {
	p.Lives--
	return p.Lives <= 0
}

// Respawn puts the player back at the spawn point
func (p *Player) Respawn(invincible int) {
	p.X = SpawnX
	p.Y = SpawnY
	p.DX = 0
	p.DY = 0
	p.Grounded = false
	p.Release()
	p.Invincible = invincible
}

// Teleport moves the player to the spawn point without other changes
func (p *Player) Teleport() {
	p.X = SpawnX
	p.Y = SpawnY
	p.DY = 0
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:         p.ID,
		Name:       p.Name,
		X:          p.X,
		Y:          p.Y,
		DX:         p.DX,
		DY:         p.DY,
		Width:      p.W,
		Height:     p.H,
		Direction:  int(p.Direction),
		Grounded:   p.Grounded,
		Invincible: p.Invincible,
		Lives:      p.Lives,
		Score:      p.Score,
		MaxScore:   p.MaxScore,
		SpeedBuff:  p.SpeedBuff,
		FireBuff:   p.FireBuff,
		Shield:     p.Shield,
		State:      string(p.State),
		Color:      p.Color,
		Character:  p.Slot,
	}
}
