// Package geom holds the integer map-authoring primitives and the
// floating-point walkable-area math shared by the world model.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point is an integer lattice point in map units.
type Point struct {
	X int
	Y int
}

// Size is the width/height of an authored rectangle.
type Size struct {
	W int
	H int
}

// Rectangle is an axis-aligned authored rectangle (buildings).
type Rectangle struct {
	Position Point
	Size     Size
}

// Offset is the authored visual offset of an office sprite.
type Offset struct {
	DX int
	DY int
}

// Direction is a cardinal heading. The zero value is North, matching the
// initial heading of a freshly spawned dog.
type Direction int

const (
	North Direction = iota
	South
	West
	East
)

// Letter returns the single-letter wire form used by the HTTP API.
func (d Direction) Letter() string {
	switch d {
	case North:
		return "U"
	case South:
		return "D"
	case West:
		return "L"
	case East:
		return "R"
	}
	return "U"
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return "unknown"
}

// Box is an axis-aligned box over float coordinates.
type Box struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// Contains reports whether p lies inside the box, borders included.
func (b Box) Contains(p mgl64.Vec2) bool {
	return b.Min.X() <= p.X() && p.X() <= b.Max.X() &&
		b.Min.Y() <= p.Y() && p.Y() <= b.Max.Y()
}

// Cell returns the lattice point nearest to p. A dog's current cell decides
// which roads constrain its movement.
func Cell(p mgl64.Vec2) Point {
	return Point{X: int(math.Round(p.X())), Y: int(math.Round(p.Y()))}
}

// Round2 rounds v to two decimal places, the precision of spawned positions.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
