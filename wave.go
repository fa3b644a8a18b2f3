package main

const (
	MapRotateEvery = 3
	BossWaveEvery  = 10
	BossEscorts    = 2
	WaveBreakMs    = 2000
	EnemySpawnY    = 100.0
)

// WaveSize is the regular enemy count for a wave
func WaveSize(wave int) int { return 3 + wave/2 }

// WaveSpeed is the spawn speed for a wave
func WaveSpeed(wave int) float64 { return 2 + 0.2*float64(wave) }

// spawnWave starts the next wave, rotating the map when due
func (r *Room) spawnWave() {
	r.wave++
	r.enemies = r.enemies[:0]

	if r.wave%MapRotateEvery == 0 {
		r.rotateMap()
	}

	speed := WaveSpeed(r.wave)
	if r.wave%BossWaveEvery == 0 {
		r.enemies = append(r.enemies, NewBoss(speed, randomDir(r.rng)))
		for i := 0; i < BossEscorts; i++ {
			r.enemies = append(r.enemies, r.newWaveEnemy(EnemyChaser, speed, i))
		}
		Log.Infof("room %q: boss wave %d", r.name, r.wave)
		return
	}

	count := WaveSize(r.wave)
	for i := 0; i < count; i++ {
		kind := EnemyChaser
		if r.rng.Float64() < 0.5 {
			kind = EnemyFearful
		}
		r.enemies = append(r.enemies, r.newWaveEnemy(kind, speed, i))
	}
	Log.Debugf("room %q: wave %d, %d enemies at speed %.1f", r.name, r.wave, count, speed)
}

func (r *Room) newWaveEnemy(kind EnemyKind, speed float64, i int) *Enemy {
	x := r.rng.Float64()*(CanvasWidth-100) + 50
	delay := SpawnDelayBase + SpawnDelayStep*i
	return NewEnemy(kind, x, EnemySpawnY, speed, randomDir(r.rng), delay)
}

// rotateMap switches to the next layout and moves every player to the spawn point
func (r *Room) rotateMap() {
	r.mapIndex = (r.mapIndex + 1) % len(Maps)
	for _, p := range r.players {
		p.Teleport()
	}
	r.broadcastMsg(Envelope{T: MsgMapUpdate, Data: r.mapUpdate()})
	Log.Infof("room %q: map switched to %s", r.name, Maps[r.mapIndex].Name)
}

// progressWaves schedules and spawns the next wave once the arena is clear
func (r *Room) progressWaves(hadEnemies bool) {
	if !r.cfg.HasEnemies() || !r.started {
		return
	}
	if hadEnemies && len(r.enemies) == 0 && r.nextWaveIn == 0 {
		r.nextWaveIn = msToTicks(WaveBreakMs, r.cfg.TickRate)
		return
	}
	if r.nextWaveIn > 0 {
		r.nextWaveIn--
		if r.nextWaveIn == 0 {
			r.spawnWave()
		}
	}
}
