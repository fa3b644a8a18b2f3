package main

import (
	"math"
	"math/rand"
)

const (
	EnemySize         = 32.0
	BossSize          = 64.0
	BossHP            = 20
	EnemyJumpImpulse  = -18.0
	ChaseRange        = 200.0
	ChaseGiveUpRange  = ChaseRange * 1.5
	FleeRange         = 150.0
	FleeSpeedFactor   = 1.2
	ReactionDelay     = 20 // ticks before a chaser turns toward its target
	LookAheadDist     = 40.0
	ClimbThreshold    = 50.0
	WallPanicMargin   = 50.0
	PanicJumpLock     = 40
	BossLungeLock     = 60
	BossLungeSpeed    = 5.0
	BossJumpFactor    = 1.3
	BossSpeedFactor   = 0.8
	EnemyTrapDuration = 300
	SpawnDelayBase    = 60
	SpawnDelayStep    = 30
)

// EnemyKind selects the behavior profile
type EnemyKind string

const (
	EnemyChaser  EnemyKind = "chaser"
	EnemyFearful EnemyKind = "fearful"
	EnemyBoss    EnemyKind = "boss"
)

// EnemyStatus is the life-cycle state
type EnemyStatus string

const (
	EnemySpawning EnemyStatus = "spawning"
	EnemyNormal   EnemyStatus = "normal"
	EnemyTrapped  EnemyStatus = "trapped"
	EnemyFruit    EnemyStatus = "fruit"
)

// AIState is the behavior sub-state of a normal enemy
type AIState string

const (
	AIPatrol AIState = "PATROL"
	AIChase  AIState = "CHASE"
	AIFlee   AIState = "FLEE"
)

// PatrolSpeed is the cruise speed for a wave
func PatrolSpeed(wave int) float64 { return 1.5 + 0.2*float64(wave) }

// ChaseSpeed is the pursuit speed for a wave
func ChaseSpeed(wave int) float64 { return 2.0 + 0.2*float64(wave) }

// aiContext is what an enemy may observe when deciding its move.
// Targets must be sorted by player id so ties resolve to the lowest id.
type aiContext struct {
	Targets   []*Player
	Platforms []Platform
	Wave      int
	Rng       *rand.Rand
}

// Enemy is an AI-controlled monster
type Enemy struct {
	ID   string
	Kind EnemyKind
	Body
	Status        EnemyStatus
	AI            AIState
	Direction     float64
	Speed         float64 // speed assigned at spawn
	ReactionTimer int
	PanicTimer    int
	TrappedTime   int
	SpawnDelay    int
	HP            int
	MaxHP         int
	Dead          bool
}

// NewEnemy creates a regular enemy. A positive spawnDelay starts it in the
// spawning state for that many ticks.
func NewEnemy(kind EnemyKind, x, y, speed float64, dir float64, spawnDelay int) *Enemy {
	e := &Enemy{
		ID:         GenerateID(4),
		Kind:       kind,
		Body:       Body{X: x, Y: y, DX: dir * speed, W: EnemySize, H: EnemySize},
		Status:     EnemyNormal,
		AI:         AIPatrol,
		Direction:  dir,
		Speed:      speed,
		SpawnDelay: spawnDelay,
		HP:         1,
		MaxHP:      1,
	}
	if spawnDelay > 0 {
		e.Status = EnemySpawning
	}
	return e
}

// NewBoss creates the boss centered at the top of the arena
func NewBoss(speed, dir float64) *Enemy {
	speed *= BossSpeedFactor
	return &Enemy{
		ID:        GenerateID(4),
		Kind:      EnemyBoss,
		Body:      Body{X: CanvasWidth/2 - BossSize/2, Y: 100, DX: dir * speed, W: BossSize, H: BossSize},
		Status:    EnemyNormal,
		AI:        AIPatrol,
		Direction: dir,
		Speed:     speed,
		HP:        BossHP,
		MaxHP:     BossHP,
	}
}

// nearestTarget returns the closest player still in the room without
// invincibility. Only a strictly closer player replaces the current pick.
func (e *Enemy) nearestTarget(players []*Player) (*Player, float64) {
	var target *Player
	best := math.Inf(1)
	for _, p := range players {
		if p.gone || p.Invincible > 0 {
			continue
		}
		d := Distance(e.X, e.Y, p.X, p.Y)
		if d < best {
			best = d
			target = p
		}
	}
	return target, best
}

// Think runs the AI for one tick and sets the enemy's velocity
func (e *Enemy) Think(ctx aiContext) {
	target, dist := e.nearestTarget(ctx.Targets)

	if e.Kind == EnemyBoss {
		e.thinkBoss(ctx, target)
		return
	}

	// committed to a panic jump
	if e.PanicTimer > 0 {
		e.PanicTimer--
		return
	}

	patrol := PatrolSpeed(ctx.Wave)
	chase := ChaseSpeed(ctx.Wave)

	switch e.AI {
	case AIPatrol:
		e.DX = e.Direction * patrol
		if target != nil && dist < ChaseRange {
			e.AI = AIChase
		}
		if ctx.Rng.Float64() < 0.01 {
			e.Direction = -e.Direction
		}
	case AIChase:
		if target != nil {
			toward := Sign(target.X - e.X)
			if toward != 0 && toward != Sign(e.DX) {
				e.ReactionTimer++
				if e.ReactionTimer > ReactionDelay {
					e.Direction = toward
					e.ReactionTimer = 0
				}
			} else {
				e.ReactionTimer = 0
			}
			e.DX = e.Direction * chase

			if target.Y < e.Y-ClimbThreshold && e.Grounded && ctx.Rng.Float64() < 0.05 {
				e.jump(EnemyJumpImpulse)
			}
		}
		if target == nil || dist > ChaseGiveUpRange {
			e.AI = AIPatrol
		}
	case AIFlee:
		if target == nil || dist >= FleeRange {
			e.AI = AIPatrol
			e.DX = e.Direction * patrol
		}
	}

	if e.Kind == EnemyFearful && target != nil && dist < FleeRange {
		e.flee(target, chase)
		if e.PanicTimer > 0 {
			return
		}
	}

	e.lookAhead(ctx)
}

// flee runs away from the target, or jumps over it when cornered
func (e *Enemy) flee(target *Player, chase float64) {
	e.AI = AIFlee
	speed := chase * FleeSpeedFactor
	away := Sign(e.X - target.X)
	if away == 0 {
		away = e.Direction
	}

	cornered := e.X < WallPanicMargin || e.X+e.W > CanvasWidth-WallPanicMargin
	if cornered && e.Grounded {
		e.Direction = -away
		e.DX = e.Direction * speed
		e.jump(EnemyJumpImpulse)
		e.PanicTimer = PanicJumpLock
		return
	}
	e.Direction = away
	e.DX = away * speed
}

func (e *Enemy) thinkBoss(ctx aiContext, target *Player) {
	if e.PanicTimer > 0 {
		e.PanicTimer--
		return
	}
	e.DX = e.Direction * e.Speed
	if e.Grounded && ctx.Rng.Float64() < 0.01 {
		dir := e.Direction
		if target != nil {
			if s := Sign(target.X - e.X); s != 0 {
				dir = s
			}
		}
		e.Direction = dir
		e.DX = dir * BossLungeSpeed
		e.jump(EnemyJumpImpulse * BossJumpFactor)
		e.PanicTimer = BossLungeLock
	}
}

// lookAhead jumps or turns around at a ledge or wall
func (e *Enemy) lookAhead(ctx aiContext) {
	if !e.Grounded {
		return
	}
	x := e.X + e.Direction*LookAheadDist
	if x < 0 || x > CanvasWidth || !platformAt(ctx.Platforms, x, e.Y+e.H) {
		if ctx.Rng.Float64() < 0.8 {
			e.jump(EnemyJumpImpulse)
		} else {
			e.Direction = -e.Direction
		}
	}
}

func (e *Enemy) jump(impulse float64) {
	e.DY = impulse
	e.Grounded = false
}

// Update advances the enemy one tick according to its life-cycle state
func (e *Enemy) Update(ctx aiContext) {
	if e.Dead {
		return
	}
	switch e.Status {
	case EnemySpawning:
		e.SpawnDelay--
		if e.SpawnDelay <= 0 {
			e.SpawnDelay = 0
			e.Status = EnemyNormal
		}
	case EnemyNormal:
		e.Think(ctx)
		e.ApplyGravity()
		e.Integrate()
		if side := e.ClampToArena(); side != 0 {
			e.DX = -e.DX
			e.Direction = float64(-side)
		}
		e.LandOn(ctx.Platforms)
		if e.FellOut() {
			e.Dead = true
		}
	case EnemyTrapped:
		e.Y--
		e.X += math.Sin(float64(e.TrappedTime)/6) * 0.5
		if e.Y < 0 {
			e.Y = 0
		}
		e.TrappedTime++
		if e.TrappedTime > EnemyTrapDuration {
			e.Status = EnemyNormal
			e.AI = AIPatrol
			e.TrappedTime = 0
		}
	case EnemyFruit:
		e.ApplyGravity()
		e.Y += e.DY
		e.SettleOn(ctx.Platforms)
		if e.FellOut() {
			e.Dead = true
		}
	}
}

// Trap catches a normal enemy in a bubble. Returns false for any other state.
func (e *Enemy) Trap() bool {
	if e.Status != EnemyNormal || e.Kind == EnemyBoss {
		return false
	}
	e.Status = EnemyTrapped
	e.TrappedTime = 0
	e.DX, e.DY = 0, 0
	e.Grounded = false
	return true
}

// ToFruit turns a defeated enemy into a collectible
func (e *Enemy) ToFruit() {
	e.Status = EnemyFruit
	e.DX = 0
	e.DY = 0
	e.PanicTimer = 0
}

// Hit deals one point of damage to a boss. Returns true when it is defeated.
func (e *Enemy) Hit() bool {
	if e.Status != EnemyNormal {
		return false
	}
	e.HP--
	if e.HP <= 0 {
		e.HP = 0
		e.ToFruit()
		return true
	}
	return false
}

// Active reports whether the enemy takes part in collisions
func (e *Enemy) Active() bool {
	return !e.Dead && e.Status != EnemySpawning
}

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		ID:        e.ID,
		X:         e.X,
		Y:         e.Y,
		DX:        e.DX,
		DY:        e.DY,
		Width:     e.W,
		Height:    e.H,
		Direction: int(e.Direction),
		State:     string(e.Status),
		AIState:   string(e.AI),
		Type:      string(e.Kind),
		HP:        e.HP,
		MaxHP:     e.MaxHP,
	}
}
