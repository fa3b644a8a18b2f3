package main

const (
	TrapScore      = 1000 // popping a trapped enemy or rival
	FruitScore     = 500
	BossFruitLives = 3
	StompBounce    = -5.0
	BossLootCount  = 5
	BossLootSpread = 40.0
	LootDropChance = 0.5
)

// resolveBubbleHits traps normal enemies and damages bosses
func (r *Room) resolveBubbleHits() {
	for _, b := range r.bubbles {
		if !b.Alive {
			continue
		}
		for _, e := range r.enemies {
			if !e.Active() || e.Status != EnemyNormal {
				continue
			}
			if !Overlaps(b.Bounds(), e.Bounds()) {
				continue
			}
			b.Pop()
			if e.Kind == EnemyBoss {
				r.sound(SoundBossHit)
				if e.Hit() {
					r.sound(SoundBossDie)
					r.dropBossLoot(e)
				}
			} else if e.Trap() {
				r.sound(SoundPop)
			}
			break
		}
	}
}

// resolveBubblePlayerHits traps rival players in PVP modes
func (r *Room) resolveBubblePlayerHits() {
	players := r.sortedPlayers()
	for _, b := range r.bubbles {
		if !b.Alive {
			continue
		}
		for _, p := range players {
			if p.gone || p.ID == b.OwnerID || p.State != PlayerNormal || p.Invincible > 0 {
				continue
			}
			if Overlaps(b.Bounds(), p.Bounds()) {
				b.Pop()
				p.Trap()
				r.sound(SoundPop)
				break
			}
		}
	}
}

// resolvePlayerPops lets any free player pop a trapped rival
func (r *Room) resolvePlayerPops() {
	players := r.sortedPlayers()
	for _, victim := range players {
		if victim.gone || victim.State != PlayerTrapped {
			continue
		}
		for _, p := range players {
			if p == victim || p.gone || p.State != PlayerNormal {
				continue
			}
			if !Overlaps(p.Bounds(), victim.Bounds()) {
				continue
			}
			p.AddScore(TrapScore)
			r.sound(SoundPop)
			if victim.LoseLife() {
				r.finish(victim)
			} else {
				victim.Respawn(RespawnInvincibility)
			}
			break
		}
	}
}

// resolveEnemyContacts handles players touching enemies
func (r *Room) resolveEnemyContacts() {
	players := r.sortedPlayers()
	for _, e := range r.enemies {
		for _, p := range players {
			if !e.Active() {
				break
			}
			if p.gone || p.State != PlayerNormal {
				continue
			}
			if !Overlaps(p.Bounds(), e.Bounds()) {
				continue
			}

			switch e.Status {
			case EnemyTrapped:
				e.ToFruit()
				p.DY = StompBounce
				p.AddScore(TrapScore)
				p.AddKill()
				if r.rng.Float64() < LootDropChance {
					r.items = append(r.items, NewItem(e.X, e.Y, randomItemType(r.rng), r.cfg.TickRate))
				}
			case EnemyFruit:
				p.AddScore(FruitScore)
				if e.Kind == EnemyBoss {
					p.Lives += BossFruitLives
				}
				e.Dead = true
				r.sound(SoundCollect)
			case EnemyNormal:
				if p.Invincible == 0 {
					r.damagePlayer(p)
				}
			}
		}
	}
}

// resolveItemPickups grants the first touching player an item's effect
func (r *Room) resolveItemPickups() {
	players := r.sortedPlayers()
	for _, it := range r.items {
		if !it.Collectable() {
			continue
		}
		for _, p := range players {
			if p.gone || p.State != PlayerNormal {
				continue
			}
			if Overlaps(p.Bounds(), it.Bounds()) {
				it.Apply(p)
				it.Alive = false
				r.sound(SoundCollect)
				break
			}
		}
	}
}

// dropBossLoot scatters the boss loot burst; it can be picked up at once
func (r *Room) dropBossLoot(e *Enemy) {
	for i := 0; i < BossLootCount; i++ {
		x := e.X + r.rng.Float64()*BossLootSpread
		y := e.Y + r.rng.Float64()*BossLootSpread
		r.items = append(r.items, NewItem(x, y, randomItemType(r.rng), 0))
	}
}
