package main

import (
	"errors"
	"sort"
	"sync"
	"time"
)

const (
	MaxHighScores  = 50
	writeQueueSize = 256
	anonymousName  = "Anonymous"
)

var ErrNegativeScore = errors.New("negative score")

// HighScoreEntry is one leaderboard record
type HighScoreEntry struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Score int       `json:"score"`
	Date  time.Time `json:"date"`
}

// ScoreStore persists the leaderboard. Insert stores a new entry given the
// current top list and returns the store's view of the top list afterwards.
type ScoreStore interface {
	Load() ([]HighScoreEntry, error)
	Insert(entry HighScoreEntry, top []HighScoreEntry) ([]HighScoreEntry, error)
}

type scoreWrite struct {
	entry HighScoreEntry
	top   []HighScoreEntry
}

// Leaderboard keeps the top scores in memory and persists them in the background.
// A failing store never affects the cache.
type Leaderboard struct {
	mu      sync.RWMutex
	entries []HighScoreEntry
	store   ScoreStore
	writes  chan scoreWrite
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	// OnUpdate receives a copy of the list after every change
	OnUpdate func([]HighScoreEntry)
}

// NewLeaderboard loads the stored list and starts the writer. A nil store keeps
// scores in memory only.
func NewLeaderboard(store ScoreStore) *Leaderboard {
	l := &Leaderboard{
		store:  store,
		writes: make(chan scoreWrite, writeQueueSize),
		stop:   make(chan struct{}),
	}
	if store != nil {
		entries, err := store.Load()
		if err != nil {
			Metrics.IncPersistError()
			Log.Errorf("leaderboard: load: %v", err)
		}
		l.entries = normalize(entries)
		l.wg.Add(1)
		go l.writer()
	}
	return l
}

// Record adds a score. Returns the new entry id, or false for a negative score.
func (l *Leaderboard) Record(name string, score int) (string, bool) {
	if score < 0 {
		return "", false
	}
	if name == "" {
		name = anonymousName
	}
	entry := HighScoreEntry{
		ID:    GenerateUUID(),
		Name:  name,
		Score: score,
		Date:  time.Now().UTC(),
	}

	l.mu.Lock()
	l.entries = normalize(append(l.entries, entry))
	top := l.copyLocked()
	l.mu.Unlock()

	Metrics.IncScoreRecorded()
	if l.store != nil {
		select {
		case l.writes <- scoreWrite{entry: entry, top: top}:
		default:
			Metrics.IncPersistError()
			Log.Warnf("leaderboard: write queue full, %q not persisted", entry.ID)
		}
	}
	l.notify(top)
	return entry.ID, true
}

// Load returns the current top list, highest first
func (l *Leaderboard) Load() []HighScoreEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.copyLocked()
}

// Close flushes queued writes and stops the writer
func (l *Leaderboard) Close() {
	if l.store == nil {
		return
	}
	l.once.Do(func() { close(l.stop) })
	l.wg.Wait()
}

func (l *Leaderboard) copyLocked() []HighScoreEntry {
	out := make([]HighScoreEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Leaderboard) notify(top []HighScoreEntry) {
	if l.OnUpdate != nil {
		l.OnUpdate(top)
	}
}

// writer is the background goroutine that persists recorded scores
func (l *Leaderboard) writer() {
	defer l.wg.Done()
	for {
		select {
		case w := <-l.writes:
			l.persist(w)
		case <-l.stop:
			for {
				select {
				case w := <-l.writes:
					l.persist(w)
				default:
					return
				}
			}
		}
	}
}

// persist writes one entry. When the store reports back its own top list the
// cache is reconciled with it; entries recorded since the write was queued are
// merged in so they never drop out of the cache.
func (l *Leaderboard) persist(w scoreWrite) {
	stored, err := l.store.Insert(w.entry, w.top)
	if err != nil {
		Metrics.IncPersistError()
		Log.Errorf("leaderboard: persist %q: %v", w.entry.ID, err)
		return
	}
	if stored == nil {
		return
	}

	l.mu.Lock()
	merged := normalize(mergeMissing(stored, l.entries))
	changed := !sameEntries(l.entries, merged)
	if changed {
		l.entries = merged
	}
	top := l.copyLocked()
	l.mu.Unlock()
	if changed {
		l.notify(top)
	}
}

// mergeMissing appends the cached entries the store has not reported yet
func mergeMissing(stored, cached []HighScoreEntry) []HighScoreEntry {
	seen := make(map[string]bool, len(stored))
	out := make([]HighScoreEntry, 0, len(stored)+len(cached))
	for _, e := range stored {
		seen[e.ID] = true
		out = append(out, e)
	}
	for _, e := range cached {
		if !seen[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// normalize drops negative scores, sorts highest first and keeps the top entries.
// Equal scores keep their insertion order.
func normalize(entries []HighScoreEntry) []HighScoreEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Score >= 0 {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > MaxHighScores {
		out = out[:MaxHighScores]
	}
	return out
}

func sameEntries(a, b []HighScoreEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Score != b[i].Score {
			return false
		}
	}
	return true
}
