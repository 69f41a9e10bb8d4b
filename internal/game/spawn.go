package game

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/dogwalk/server/internal/geom"
)

// StartPos is the deterministic spawn: the start point of the map's first
// road.
func StartPos(m *Map) mgl64.Vec2 {
	start := m.Roads()[0].Start
	return mgl64.Vec2{float64(start.X), float64(start.Y)}
}

// RandomPos picks a uniform random road, a uniform position along it, and a
// uniform lateral offset within the corridor. Both coordinates are rounded to
// two decimal places.
func RandomPos(m *Map) mgl64.Vec2 {
	roads := m.Roads()
	road := roads[rand.IntN(len(roads))]

	lateral := geom.Round2(-RoadHalfWidth + rand.Float64()*2*RoadHalfWidth)

	var pos mgl64.Vec2
	if road.IsHorizontal() {
		lo, hi := minMax(road.Start.X, road.End.X)
		pos = mgl64.Vec2{
			float64(lo) + rand.Float64()*float64(hi-lo),
			float64(road.Start.Y) + lateral,
		}
	} else {
		lo, hi := minMax(road.Start.Y, road.End.Y)
		pos = mgl64.Vec2{
			float64(road.Start.X) + lateral,
			float64(lo) + rand.Float64()*float64(hi-lo),
		}
	}
	return mgl64.Vec2{geom.Round2(pos.X()), geom.Round2(pos.Y())}
}
