package main

import "math/rand"

// ItemType identifies a power-up
type ItemType string

const (
	ItemShoe   ItemType = "SHOE"   // speed buff
	ItemCandy  ItemType = "CANDY"  // fire-rate buff
	ItemShield ItemType = "SHIELD" // one extra hit absorbed
)

const ItemSize = 32.0

var itemTypes = []ItemType{ItemShoe, ItemCandy, ItemShield}

// Item is a collectible power-up
type Item struct {
	ID    string
	X, Y  float64
	Type  ItemType
	Grace int // ticks left during which it cannot be picked up
	Alive bool
}

// NewItem creates an item; grace is the pickup-immunity window in ticks
func NewItem(x, y float64, t ItemType, grace int) *Item {
	return &Item{
		ID:    GenerateUUID(),
		X:     x,
		Y:     y,
		Type:  t,
		Grace: grace,
		Alive: true,
	}
}

// randomItemType picks a loot type uniformly
func randomItemType(rng *rand.Rand) ItemType {
	return itemTypes[rng.Intn(len(itemTypes))]
}

// Bounds returns the item rectangle
func (it *Item) Bounds() Rect {
	return Rect{X: it.X, Y: it.Y, W: ItemSize, H: ItemSize}
}

// Update ticks down the pickup grace window
func (it *Item) Update() {
	if it.Grace > 0 {
		it.Grace--
	}
}

// Collectable reports whether a player may pick the item up now
func (it *Item) Collectable() bool {
	return it.Alive && it.Grace <= 0
}

// Apply grants the item's effect to the player
func (it *Item) Apply(p *Player) {
	switch it.Type {
	case ItemShoe:
		p.SpeedBuff = BuffDuration
	case ItemCandy:
		p.FireBuff = BuffDuration
	case ItemShield:
		p.Shield++
	}
}

// ToState converts to protocol state
func (it *Item) ToState() ItemState {
	return ItemState{
		ID:     it.ID,
		X:      it.X,
		Y:      it.Y,
		Width:  ItemSize,
		Height: ItemSize,
		Type:   string(it.Type),
	}
}
