package main

import (
	"math"
	"math/rand"
	"testing"
)

func testCtx(players ...*Player) aiContext {
	return aiContext{
		Targets:   players,
		Platforms: Maps[0].Platforms,
		Wave:      1,
		Rng:       rand.New(rand.NewSource(42)),
	}
}

func targetAt(id string, x, y float64) *Player {
	p := NewPlayer(id, id, 0)
	p.X, p.Y = x, y
	p.Invincible = 0
	return p
}

func TestEnemySpawningDelay(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 100, 2.2, 1, 3)
	if e.Status != EnemySpawning {
		t.Fatalf("expected spawning, got %s", e.Status)
	}
	ctx := testCtx()
	for i := 0; i < 2; i++ {
		e.Update(ctx)
	}
	if e.Status != EnemySpawning || e.X != 300 || e.Y != 100 {
		t.Error("spawning enemy should not move")
	}
	e.Update(ctx)
	if e.Status != EnemyNormal {
		t.Errorf("expected normal after delay, got %s", e.Status)
	}
}

func TestTrappedEnemyReverts(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	if !e.Trap() {
		t.Fatal("expected trap")
	}
	ctx := testCtx()
	for i := 0; i < EnemyTrapDuration; i++ {
		e.Update(ctx)
	}
	if e.Status != EnemyTrapped {
		t.Fatalf("should still be trapped after %d ticks", EnemyTrapDuration)
	}
	e.Update(ctx)
	if e.Status != EnemyNormal {
		t.Errorf("expected revert to normal, got %s", e.Status)
	}
}

func TestFruitCannotBeTrapped(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	e.Trap()
	e.ToFruit()
	if e.Trap() {
		t.Error("fruit must not re-enter trapped")
	}
	if e.Status != EnemyFruit {
		t.Errorf("expected fruit, got %s", e.Status)
	}
}

func TestFruitFallsAndSettles(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	e.ToFruit()
	ctx := testCtx()
	for i := 0; i < 100; i++ {
		e.Update(ctx)
	}
	if e.Y != 400-EnemySize {
		t.Errorf("expected fruit resting on platform, y=%v", e.Y)
	}
	if e.Dead {
		t.Error("fruit on a platform is not dead")
	}
}

func TestBossHitsToFruit(t *testing.T) {
	b := NewBoss(WaveSpeed(10), 1)
	if b.HP != BossHP || b.MaxHP != BossHP || b.W != BossSize || b.H != BossSize {
		t.Fatalf("unexpected boss %+v", b)
	}
	if b.Trap() {
		t.Error("boss cannot be trapped")
	}
	for i := 0; i < BossHP-1; i++ {
		if b.Hit() {
			t.Fatalf("defeated early at hit %d", i+1)
		}
	}
	if !b.Hit() {
		t.Fatal("expected defeat on last hit")
	}
	if b.Status != EnemyFruit || b.HP != 0 {
		t.Errorf("expected fruit with hp 0, got %s hp=%d", b.Status, b.HP)
	}
}

func TestEnemyStartsChase(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	p := targetAt("a", 400, 300)
	e.Think(testCtx(p))
	if e.AI != AIChase {
		t.Errorf("expected CHASE, got %s", e.AI)
	}
}

func TestEnemyIgnoresInvinciblePlayers(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	p := targetAt("a", 320, 300)
	p.Invincible = 10
	e.Think(testCtx(p))
	if e.AI != AIPatrol {
		t.Errorf("expected PATROL, got %s", e.AI)
	}
}

func TestEnemyIgnoresRemovedPlayers(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	p := targetAt("a", 320, 300)
	p.gone = true
	e.Think(testCtx(p))
	if e.AI != AIPatrol {
		t.Errorf("expected PATROL, got %s", e.AI)
	}
}

func TestEnemyGivesUpChase(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	e.AI = AIChase
	p := targetAt("a", 300+ChaseGiveUpRange+1, 300)
	e.Think(testCtx(p))
	if e.AI != AIPatrol {
		t.Errorf("expected PATROL, got %s", e.AI)
	}
}

func TestEnemyChaseReactionDelay(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	e.AI = AIChase
	p := targetAt("a", 200, 300) // behind the enemy
	ctx := testCtx(p)
	for i := 0; i < ReactionDelay; i++ {
		e.Think(ctx)
		if e.Direction != 1 {
			t.Fatalf("turned too early at tick %d", i)
		}
	}
	e.Think(ctx)
	if e.Direction != -1 {
		t.Error("expected turn after reaction delay")
	}
	if e.DX != -ChaseSpeed(1) {
		t.Errorf("expected chase speed, got %v", e.DX)
	}
}

func TestTargetTieBreaksOnLowestID(t *testing.T) {
	e := NewEnemy(EnemyChaser, 300, 300, 2.2, 1, 0)
	a := targetAt("a", 250, 300)
	b := targetAt("b", 350, 300)
	target, _ := e.nearestTarget([]*Player{a, b})
	if target != a {
		t.Errorf("expected player a, got %s", target.ID)
	}
}

func TestFearfulFlees(t *testing.T) {
	e := NewEnemy(EnemyFearful, 300, 300, 2.2, 1, 0)
	p := targetAt("a", 350, 300)
	e.Think(testCtx(p))
	if e.AI != AIFlee {
		t.Fatalf("expected FLEE, got %s", e.AI)
	}
	want := -ChaseSpeed(1) * FleeSpeedFactor
	if math.Abs(e.DX-want) > 1e-9 {
		t.Errorf("expected dx=%v, got %v", want, e.DX)
	}

	p.X = 300 + FleeRange + 10
	e.Think(testCtx(p))
	if e.AI == AIFlee {
		t.Error("expected to stop fleeing")
	}
}

func TestCorneredFearfulPanicJumps(t *testing.T) {
	e := NewEnemy(EnemyFearful, 10, 300, 2.2, -1, 0)
	e.Grounded = true
	p := targetAt("a", 100, 300)
	e.Think(testCtx(p))
	if e.PanicTimer != PanicJumpLock {
		t.Fatalf("expected panic lock %d, got %d", PanicJumpLock, e.PanicTimer)
	}
	if e.DY != EnemyJumpImpulse || e.Direction != 1 {
		t.Errorf("expected jump toward the threat, dy=%v dir=%v", e.DY, e.Direction)
	}

	dx := e.DX
	e.Think(testCtx(p))
	if e.DX != dx || e.PanicTimer != PanicJumpLock-1 {
		t.Error("panic jump should lock velocity")
	}
}

func TestBossLunge(t *testing.T) {
	b := NewBoss(WaveSpeed(10), 1)
	p := targetAt("a", 100, 300)
	ctx := testCtx(p)
	for i := 0; i < 10000 && b.PanicTimer == 0; i++ {
		b.Grounded = true
		b.Think(ctx)
	}
	if b.PanicTimer != BossLungeLock {
		t.Fatalf("boss never lunged")
	}
	if b.DX != -BossLungeSpeed {
		t.Errorf("expected lunge toward target, dx=%v", b.DX)
	}
	if b.DY != EnemyJumpImpulse*BossJumpFactor {
		t.Errorf("expected boss jump, dy=%v", b.DY)
	}
	if b.AI != AIPatrol {
		t.Errorf("boss AI should stay PATROL, got %s", b.AI)
	}
}

func TestEnemyWallBounce(t *testing.T) {
	e := NewEnemy(EnemyChaser, 0.5, 100, 2, -1, 0)
	e.PanicTimer = 5 // keep the AI from touching dx
	e.Update(testCtx())
	if e.X != 0 || e.DX != 2 || e.Direction != 1 {
		t.Errorf("expected bounce off left wall, x=%v dx=%v dir=%v", e.X, e.DX, e.Direction)
	}
}

func TestEnemyFallsOut(t *testing.T) {
	e := NewEnemy(EnemyChaser, 350, 590, 2, 1, 0)
	e.PanicTimer = 5
	e.DY = 20
	ctx := testCtx()
	ctx.Platforms = nil
	e.Update(ctx)
	if !e.Dead {
		t.Error("expected enemy below the arena to be dead")
	}
}
