// Package collide implements the swept-circle detector used by the tick
// engine to find dog/loot pickups and dog/office deliveries.
package collide

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Gatherer is a circle moving in a straight line during one tick.
type Gatherer struct {
	Start mgl64.Vec2
	End   mgl64.Vec2
	Width float64
}

// Item is a static circle a gatherer may pass over.
type Item struct {
	Position mgl64.Vec2
	Width    float64
}

// Event records one gatherer/item crossing. Time is the parameter of closest
// approach along the gatherer's motion, in (0, 1].
type Event struct {
	ItemID     int
	GathererID int
	SqDistance float64
	Time       float64
}

// Set is the per-tick collision input. Item order is significant: the caller
// distinguishes loot from offices by index.
type Set struct {
	Gatherers []Gatherer
	Items     []Item
}

func (s *Set) AddGatherer(g Gatherer) {
	s.Gatherers = append(s.Gatherers, g)
}

func (s *Set) AddItem(it Item) {
	s.Items = append(s.Items, it)
}

// FindEvents returns every crossing whose swept disk passes within
// gatherer.Width+item.Width of the item, sorted ascending by Time. Ties keep
// the original (gatherer, item) pair order. A stationary gatherer yields no
// events.
func FindEvents(s Set) []Event {
	var events []Event
	for gi, g := range s.Gatherers {
		if g.Start == g.End {
			continue
		}
		for ii, it := range s.Items {
			sqDist, t := closestApproach(g.Start, g.End, it.Position)
			radius := g.Width + it.Width
			if t <= 0 || t > 1 || sqDist > radius*radius {
				continue
			}
			events = append(events, Event{
				ItemID:     ii,
				GathererID: gi,
				SqDistance: sqDist,
				Time:       t,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return events
}

// closestApproach projects point c onto segment a→b and returns the squared
// distance from c to the motion line together with the projection parameter.
func closestApproach(a, b, c mgl64.Vec2) (sqDist, t float64) {
	u := c.Sub(a)
	v := b.Sub(a)
	uDotV := u.Dot(v)
	t = uDotV / v.Dot(v)
	sqDist = u.Dot(u) - uDotV*uDotV/v.Dot(v)
	return sqDist, t
}
