package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dogwalk/server/internal/geom"
)

// Process-wide monotonic id counters. Safe without locks: dogs and loots are
// only ever allocated on the game strand.
var (
	dogIDCounter  uint64
	lootIDCounter int
)

func nextDogID() uint64 {
	id := dogIDCounter
	dogIDCounter++
	return id
}

func nextLootID() int {
	id := lootIDCounter
	lootIDCounter++
	return id
}

// Dog is the in-world avatar moved by a player. Velocity stays zero until the
// player issues a move intent.
type Dog struct {
	Name      string
	Position  mgl64.Vec2
	Velocity  mgl64.Vec2
	Direction geom.Direction
	ID        uint64
}

func NewDog(name string, pos mgl64.Vec2) *Dog {
	return &Dog{Name: name, Position: pos, ID: nextDogID()}
}

// RestoreDog rebuilds a dog from snapshot state, keeping its original id and
// bumping the id counter past it so later joins cannot collide.
func RestoreDog(name string, pos, vel mgl64.Vec2, dir geom.Direction, id uint64) *Dog {
	if id >= dogIDCounter {
		dogIDCounter = id + 1
	}
	return &Dog{Name: name, Position: pos, Velocity: vel, Direction: dir, ID: id}
}

// Loot is a pickup. Once Collected it is garbage-collected from its session
// at the end of the tick that produced the event.
type Loot struct {
	ID        int
	Type      int
	Position  mgl64.Vec2
	Collected bool
}

func NewLoot(lootType int, pos mgl64.Vec2) *Loot {
	return &Loot{ID: nextLootID(), Type: lootType, Position: pos}
}
