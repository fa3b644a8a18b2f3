package main

import (
	"sync/atomic"
	"time"
)

// RoomMetrics records per-room counters for monitoring
type RoomMetrics struct {
	TickCount      int64
	Broadcasts     int64
	InputsAccepted int64
	InputsIgnored  int64 // input for a player that is not in the room
	TotalTickNs    int64
}

func (m *RoomMetrics) IncBroadcast() {
	atomic.AddInt64(&m.Broadcasts, 1)
}

func (m *RoomMetrics) IncAccepted() {
	atomic.AddInt64(&m.InputsAccepted, 1)
}

func (m *RoomMetrics) IncIgnored() {
	atomic.AddInt64(&m.InputsIgnored, 1)
}

func (m *RoomMetrics) AddTick(d time.Duration) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, int64(d))
}

// Snapshot returns a read-only copy for HTTP output
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":      tick,
		"broadcasts":      atomic.LoadInt64(&m.Broadcasts),
		"inputs_accepted": atomic.LoadInt64(&m.InputsAccepted),
		"inputs_ignored":  atomic.LoadInt64(&m.InputsIgnored),
		"avg_tick_ms":     avgMs,
	}
}

// ServerMetrics records process-wide counters
type ServerMetrics struct {
	Wakes          int64
	Panics         int64
	RoomsCreated   int64
	RoomsDestroyed int64
	Joins          int64
	JoinsRejected  int64
	ScoresRecorded int64
	PersistErrors  int64
}

// Metrics is the process-wide counter set
var Metrics = &ServerMetrics{}

func (m *ServerMetrics) IncWake() {
	atomic.AddInt64(&m.Wakes, 1)
}

func (m *ServerMetrics) IncPanic() {
	atomic.AddInt64(&m.Panics, 1)
}

func (m *ServerMetrics) IncRoomCreated() {
	atomic.AddInt64(&m.RoomsCreated, 1)
}

func (m *ServerMetrics) IncRoomDestroyed() {
	atomic.AddInt64(&m.RoomsDestroyed, 1)
}

func (m *ServerMetrics) IncJoin() {
	atomic.AddInt64(&m.Joins, 1)
}

func (m *ServerMetrics) IncJoinRejected() {
	atomic.AddInt64(&m.JoinsRejected, 1)
}

func (m *ServerMetrics) IncScoreRecorded() {
	atomic.AddInt64(&m.ScoresRecorded, 1)
}

func (m *ServerMetrics) IncPersistError() {
	atomic.AddInt64(&m.PersistErrors, 1)
}


// Snapshot returns a read-only copy for HTTP output
func (m *ServerMetrics) Snapshot() map[string]any {
	return map[string]any{
		"wakes":           atomic.LoadInt64(&m.Wakes),
		"panics":          atomic.LoadInt64(&m.Panics),
		"rooms_created":   atomic.LoadInt64(&m.RoomsCreated),
		"rooms_destroyed": atomic.LoadInt64(&m.RoomsDestroyed),
		"joins":           atomic.LoadInt64(&m.Joins),
		"joins_rejected":  atomic.LoadInt64(&m.JoinsRejected),
		"scores_recorded": atomic.LoadInt64(&m.ScoresRecorded),
		"persist_errors":  atomic.LoadInt64(&m.PersistErrors),
	}
}
