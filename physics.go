package main

const (
	Gravity        = 0.5
	CanvasWidth    = 800.0
	CanvasHeight   = 600.0
	LandTolerance  = 10.0 // how far the previous bottom edge may sit below a platform top and still land
	SpawnX, SpawnY = 100.0, 100.0
)

// Rect is an axis-aligned rectangle
type Rect struct {
	X, Y, W, H float64
}

// Overlaps reports whether two rectangles intersect (touching edges do not count)
func Overlaps(a, b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X &&
		a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// Body is the physical part shared by players and enemies
type Body struct {
	X, Y     float64
	DX, DY   float64
	W, H     float64
	Grounded bool
}

// Bounds returns the body's rectangle
func (b *Body) Bounds() Rect {
	return Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
}

// ApplyGravity accelerates the body downward by one step
func (b *Body) ApplyGravity() {
	b.DY += Gravity
}

// Integrate moves the body by its velocity
func (b *Body) Integrate() {
	b.X += b.DX
	b.Y += b.DY
}

// LandOn resolves one-sided platform collisions. A body lands only while moving
// down and only if its bottom edge before this step was no more than
// LandTolerance below the platform top. Returns the grounded flag.
func (b *Body) LandOn(platforms []Platform) bool {
	b.Grounded = false
	for _, p := range platforms {
		if !Overlaps(b.Bounds(), p.Rect()) {
			continue
		}
		if b.DY >= 0 && b.Y+b.H-b.DY <= p.Y+LandTolerance {
			b.Grounded = true
			b.DY = 0
			b.Y = p.Y - b.H
		}
	}
	return b.Grounded
}

// SettleOn is the reduced landing used by fruit: any overlap snaps the body on top
func (b *Body) SettleOn(platforms []Platform) bool {
	b.Grounded = false
	for _, p := range platforms {
		if Overlaps(b.Bounds(), p.Rect()) {
			b.Y = p.Y - b.H
			b.DY = 0
			b.Grounded = true
		}
	}
	return b.Grounded
}

// ClampToArena keeps the body inside [0, CanvasWidth-W].
// Returns -1 if it hit the left wall, 1 for the right wall, 0 otherwise.
func (b *Body) ClampToArena() int {
	side := 0
	if b.X <= 0 {
		side = -1
	} else if b.X+b.W >= CanvasWidth {
		side = 1
	}
	b.X = Clamp(b.X, 0, CanvasWidth-b.W)
	return side
}

// FellOut reports whether the body dropped below the arena
func (b *Body) FellOut() bool {
	return b.Y > CanvasHeight
}
