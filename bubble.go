package main

import (
	"math"
	"math/rand"
)

const (
	BubbleSize     = 32.0
	BubbleSpeed    = 6.0
	BubbleLifetime = 180 // ticks
	BubbleDrag     = 0.90
	BubbleRise     = -1.0
	BubbleTopLimit = -50.0
)

// Bubble is the trap projectile fired by players
type Bubble struct {
	ID      string
	OwnerID string
	X, Y    float64
	DX, DY  float64
	Life    int
	Alive   bool
	age     int
}

// NewBubble creates a bubble in front of the player's facing side
func NewBubble(owner *Player) *Bubble {
	x := owner.X - BubbleSize
	if owner.Direction > 0 {
		x = owner.X + owner.W
	}
	return &Bubble{
		ID:      GenerateID(3),
		OwnerID: owner.ID,
		X:       x,
		Y:       owner.Y,
		DX:      owner.Direction * BubbleSpeed,
		Life:    BubbleLifetime,
		Alive:   true,
	}
}

// Bounds returns the bubble rectangle
func (b *Bubble) Bounds() Rect {
	return Rect{X: b.X, Y: b.Y, W: BubbleSize, H: BubbleSize}
}

// Update moves the bubble one tick: it slows down, then floats upward
func (b *Bubble) Update() {
	if !b.Alive {
		return
	}
	b.X += b.DX
	b.DX *= BubbleDrag
	if math.Abs(b.DX) < 1 {
		b.DX = 0
		b.DY = BubbleRise
		b.X += math.Sin(float64(b.age)/5) * 0.5
	}
	b.Y += b.DY
	b.Life--
	b.age++

	if b.Life <= 0 || b.Y < BubbleTopLimit || b.X+BubbleSize < 0 || b.X > CanvasWidth {
		b.Alive = false
	}
}

// Pop removes the bubble after a hit
func (b *Bubble) Pop() {
	b.Alive = false
}

// ToState converts to protocol state
func (b *Bubble) ToState() BubbleState {
	return BubbleState{
		ID:     b.ID,
		X:      b.X,
		Y:      b.Y,
		DX:     b.DX,
		DY:     b.DY,
		Width:  BubbleSize,
		Height: BubbleSize,
		Life:   b.Life,
		Owner:  b.OwnerID,
	}
}

// randomDir returns -1 or 1
func randomDir(rng *rand.Rand) float64 {
	if rng.Float64() < 0.5 {
		return 1
	}
	return -1
}
