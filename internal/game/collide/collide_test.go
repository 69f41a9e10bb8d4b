package collide

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFindEvents(t *testing.T) {
	Convey("Given a gatherer moving along the x axis", t, func() {
		set := Set{}
		set.AddGatherer(Gatherer{
			Start: mgl64.Vec2{0, 0},
			End:   mgl64.Vec2{2, 0},
			Width: 0.5,
		})

		Convey("When an item sits slightly off the path midway", func() {
			set.AddItem(Item{Position: mgl64.Vec2{1, 0.2}})
			events := FindEvents(set)

			Convey("Then one event is reported at the midpoint", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].GathererID, ShouldEqual, 0)
				So(events[0].ItemID, ShouldEqual, 0)
				So(events[0].Time, ShouldAlmostEqual, 0.5, 1e-9)
				So(events[0].SqDistance, ShouldAlmostEqual, 0.04, 1e-9)
			})
		})

		Convey("When two items lie along the path", func() {
			set.AddItem(Item{Position: mgl64.Vec2{4.0 / 3.0, 0}})
			set.AddItem(Item{Position: mgl64.Vec2{2.0 / 3.0, 0}})
			events := FindEvents(set)

			Convey("Then events come back ordered by time of approach", func() {
				So(events, ShouldHaveLength, 2)
				So(events[0].ItemID, ShouldEqual, 1)
				So(events[0].Time, ShouldAlmostEqual, 1.0/3.0, 1e-9)
				So(events[1].ItemID, ShouldEqual, 0)
				So(events[1].Time, ShouldAlmostEqual, 2.0/3.0, 1e-9)
			})
		})

		Convey("When an item lies too far from the path", func() {
			set.AddItem(Item{Position: mgl64.Vec2{1, 0.6}})

			Convey("Then no event is reported", func() {
				So(FindEvents(set), ShouldBeEmpty)
			})
		})

		Convey("When an item lies behind the start point", func() {
			set.AddItem(Item{Position: mgl64.Vec2{-0.5, 0}})

			Convey("Then no event is reported", func() {
				So(FindEvents(set), ShouldBeEmpty)
			})
		})

		Convey("When an item sits exactly at the end of the sweep", func() {
			set.AddItem(Item{Position: mgl64.Vec2{2, 0}})
			events := FindEvents(set)

			Convey("Then the crossing at t=1 is included", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Time, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})
	})

	Convey("Given a stationary gatherer on top of an item", t, func() {
		set := Set{}
		set.AddGatherer(Gatherer{
			Start: mgl64.Vec2{1, 1},
			End:   mgl64.Vec2{1, 1},
			Width: 0.5,
		})
		set.AddItem(Item{Position: mgl64.Vec2{1, 1}})

		Convey("Then it gathers nothing", func() {
			So(FindEvents(set), ShouldBeEmpty)
		})
	})

	Convey("Given two gatherers crossing the same item", t, func() {
		set := Set{}
		set.AddGatherer(Gatherer{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{2, 0}, Width: 0.5})
		set.AddGatherer(Gatherer{Start: mgl64.Vec2{0.5, 0}, End: mgl64.Vec2{1.5, 0}, Width: 0.5})
		set.AddItem(Item{Position: mgl64.Vec2{1, 0}})
		events := FindEvents(set)

		Convey("Then both crossings are reported, earliest first", func() {
			So(events, ShouldHaveLength, 2)
			So(events[0].Time, ShouldBeLessThanOrEqualTo, events[1].Time)
		})
	})
}
