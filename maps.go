package main

// Platform is a static rectangle entities can stand on
type Platform struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Rect returns the platform as a Rect
func (p Platform) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// GameMap is a named platform layout
type GameMap struct {
	Name      string
	Platforms []Platform
}

// Maps is the fixed rotation of layouts, cycled every MapRotateEvery waves
var Maps = []GameMap{
	{
		Name: "Classic",
		Platforms: []Platform{
			{X: 0, Y: 550, Width: 800, Height: 50},
			{X: 200, Y: 400, Width: 400, Height: 20},
			{X: 50, Y: 250, Width: 200, Height: 20},
			{X: 550, Y: 250, Width: 200, Height: 20},
		},
	},
	{
		Name: "The Pit",
		Platforms: []Platform{
			{X: 0, Y: 550, Width: 300, Height: 50},
			{X: 500, Y: 550, Width: 300, Height: 50},
			{X: 100, Y: 350, Width: 100, Height: 20},
			{X: 600, Y: 350, Width: 100, Height: 20},
			{X: 250, Y: 150, Width: 300, Height: 20},
		},
	},
	{
		Name: "Stairs",
		Platforms: []Platform{
			{X: 0, Y: 550, Width: 800, Height: 50},
			{X: 50, Y: 450, Width: 150, Height: 20},
			{X: 250, Y: 350, Width: 150, Height: 20},
			{X: 450, Y: 250, Width: 150, Height: 20},
			{X: 650, Y: 150, Width: 100, Height: 20},
		},
	},
}

// platformAt reports whether some platform's top is exactly at y and spans x
func platformAt(platforms []Platform, x, y float64) bool {
	for _, p := range platforms {
		if x > p.X && x < p.X+p.Width && y == p.Y {
			return true
		}
	}
	return false
}
