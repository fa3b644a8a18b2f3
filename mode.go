package main

import (
	"strings"
	"time"
)

// GameMode defines the rule set of a room
type GameMode string

const (
	ModeCOOP  GameMode = "COOP"
	ModePVP   GameMode = "PVP"
	ModePVPVE GameMode = "PVPVE"
)

// Tick rates selectable by the room creator
const (
	TickRateSlow = 30
	TickRateFast = 60
)

// ParseMode normalizes a client-supplied mode, defaulting to COOP
func ParseMode(s string) GameMode {
	switch GameMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModePVP:
		return ModePVP
	case ModePVPVE:
		return ModePVPVE
	default:
		return ModeCOOP
	}
}

// ParseSpeed maps a speed preference to a tick rate ("fast" is 60 Hz, anything else 30 Hz)
func ParseSpeed(s string) int {
	if strings.EqualFold(strings.TrimSpace(s), "fast") {
		return TickRateFast
	}
	return TickRateSlow
}

// RoomConfig holds the settings fixed when a room is created
type RoomConfig struct {
	Mode       GameMode
	TickRate   int
	MaxPlayers int
	Private    bool
}

// DefaultConfig returns the config for a new room
func DefaultConfig(mode GameMode, tickRate int, private bool) RoomConfig {
	if tickRate != TickRateFast {
		tickRate = TickRateSlow
	}
	return RoomConfig{
		Mode:       mode,
		TickRate:   tickRate,
		MaxPlayers: len(SlotColors),
		Private:    private,
	}
}

// HasEnemies reports whether the mode runs enemy waves
func (c RoomConfig) HasEnemies() bool {
	return c.Mode == ModeCOOP || c.Mode == ModePVPVE
}

// HasPVP reports whether players can trap each other
func (c RoomConfig) HasPVP() bool {
	return c.Mode == ModePVP || c.Mode == ModePVPVE
}

// FixedStep is the simulated duration of one tick
func (c RoomConfig) FixedStep() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SlotColors are the fixed character colors; one slot per player in a room
var SlotColors = []string{
	"#00dd00", "#0055dd", "#dd0000", "#dd00dd", "#dddd00",
	"#00dddd", "#ff8800", "#ff88ff", "#aaaaaa", "#ffffff",
	"#005500", "#000088", "#880000", "#888800", "#008888",
}
