package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dogwalk/server/internal/geom"
)

// RoadHalfWidth is half the corridor width: the walkable area of a road is
// its segment expanded by this much in every direction.
const RoadHalfWidth = 0.4

// Road is an axis-aligned segment. Start and End share one coordinate; the
// walkable area is precomputed on construction.
type Road struct {
	Start geom.Point
	End   geom.Point

	area geom.Box
}

// HorizontalRoad builds a road from start to (endX, start.Y).
func HorizontalRoad(start geom.Point, endX int) Road {
	r := Road{Start: start, End: geom.Point{X: endX, Y: start.Y}}
	r.computeArea()
	return r
}

// VerticalRoad builds a road from start to (start.X, endY).
func VerticalRoad(start geom.Point, endY int) Road {
	r := Road{Start: start, End: geom.Point{X: start.X, Y: endY}}
	r.computeArea()
	return r
}

func (r *Road) computeArea() {
	minX, maxX := minMax(r.Start.X, r.End.X)
	minY, maxY := minMax(r.Start.Y, r.End.Y)
	r.area = geom.Box{
		Min: mgl64.Vec2{float64(minX) - RoadHalfWidth, float64(minY) - RoadHalfWidth},
		Max: mgl64.Vec2{float64(maxX) + RoadHalfWidth, float64(maxY) + RoadHalfWidth},
	}
}

func (r Road) IsHorizontal() bool { return r.Start.Y == r.End.Y }

func (r Road) IsVertical() bool { return r.Start.X == r.End.X }

// Area returns the walkable box of the road.
func (r Road) Area() geom.Box { return r.area }

// Contains reports whether pos lies in the road's walkable area.
func (r Road) Contains(pos mgl64.Vec2) bool { return r.area.Contains(pos) }

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
