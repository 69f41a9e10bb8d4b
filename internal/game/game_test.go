package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/dogwalk/server/internal/game/lootgen"
	"github.com/dogwalk/server/internal/geom"
)

// townMap builds a single east-west road from (0,0) to (5,0) with an office
// at the west end and two loot types worth 10 and 30.
func townMap(dogSpeed float64, bagCapacity int) *Map {
	m := NewMap("town", "Town", dogSpeed, bagCapacity)
	m.AddRoad(HorizontalRoad(geom.Point{X: 0, Y: 0}, 5))
	m.AddOffice(Office{ID: "o0", Position: geom.Point{X: 0, Y: 0}})
	m.SetLootTypes([]LootType{{Value: 10}, {Value: 30}})
	return m
}

type recordSink struct {
	names  []string
	scores []int
	playMs []uint64
	err    error
}

func (r *recordSink) SaveRecord(_ context.Context, name string, score int, playTimeMs uint64) error {
	r.names = append(r.names, name)
	r.scores = append(r.scores, score)
	r.playMs = append(r.playMs, playTimeMs)
	return r.err
}

func TestMapRegistry(t *testing.T) {
	Convey("Given a game", t, func() {
		g := New(nil)

		Convey("When two maps with the same id are added", func() {
			So(g.AddMap(townMap(1, 3)), ShouldBeNil)
			err := g.AddMap(townMap(2, 3))

			Convey("Then the second is rejected", func() {
				So(err, ShouldNotBeNil)
				So(len(g.Maps()), ShouldEqual, 1)
			})
		})

		Convey("When looking up an unknown map", func() {
			So(g.FindMap("nowhere"), ShouldBeNil)
		})
	})
}

func TestSessionAllocation(t *testing.T) {
	Convey("Given a game with one map", t, func() {
		g := New(nil)
		So(g.AddMap(townMap(1, 3)), ShouldBeNil)

		Convey("When players join", func() {
			s1 := g.GetSession("town")
			g.AddPlayer("first", s1)
			s2 := g.GetSession("town")

			Convey("Then they share the session while there is room", func() {
				So(s2, ShouldEqual, s1)
			})
		})

		Convey("When the session fills up", func() {
			for i := 0; i < MaxDogsPerSession; i++ {
				g.AddPlayer(fmt.Sprintf("dog-%d", i), g.GetSession("town"))
			}
			overflow := g.GetSession("town")

			Convey("Then the next join opens a sibling session", func() {
				So(overflow.DogCount(), ShouldEqual, 0)
				So(len(g.Sessions()["town"]), ShouldEqual, 2)
			})
		})
	})
}

func TestMovement(t *testing.T) {
	Convey("Given a dog on the road near its east end", t, func() {
		g := New(nil)
		So(g.AddMap(townMap(4, 3)), ShouldBeNil)
		s := g.GetSession("town")
		_, p := g.AddPlayer("runner", s)
		p.Dog().Position = mgl64.Vec2{4.9, 0}

		Convey("When it runs east past the corridor boundary", func() {
			p.SetDirection(geom.East)
			p.MakeMove(1000)

			Convey("Then it is clipped to the furthest walkable edge and stopped", func() {
				So(p.Position().X(), ShouldAlmostEqual, 5.4, 1e-9)
				So(p.Position().Y(), ShouldAlmostEqual, 0, 1e-9)
				So(p.Velocity(), ShouldResemble, mgl64.Vec2{})
			})
		})

		Convey("When it moves within the corridor", func() {
			p.Dog().Position = mgl64.Vec2{1, 0}
			p.SetDirection(geom.East)
			p.MakeMove(500)

			Convey("Then the full step is committed and it keeps moving", func() {
				So(p.Position().X(), ShouldAlmostEqual, 3, 1e-9)
				So(p.Velocity().X(), ShouldAlmostEqual, 4, 1e-9)
			})
		})

		Convey("When it noses off a side road it does not stand on", func() {
			m := NewMap("bend", "Bend", 1, 3)
			m.AddRoad(HorizontalRoad(geom.Point{X: 0, Y: 0}, 5))
			m.AddRoad(VerticalRoad(geom.Point{X: 5, Y: 0}, -10))
			m.SetLootTypes([]LootType{{Value: 1}})
			So(g.AddMap(m), ShouldBeNil)
			sb := g.GetSession("bend")
			_, pb := g.AddPlayer("nose", sb)
			pb.Dog().Position = mgl64.Vec2{4.55, -0.4}

			Convey("Then the far road's edge cannot pull it off the network", func() {
				// Cell (5,0) is covered by both roads, but only the
				// horizontal one contains (4.55,-0.4); the vertical
				// corridor starts at x=4.6.
				pb.SetDirection(geom.North)
				pb.MakeMove(1000)
				So(pb.Position(), ShouldResemble, mgl64.Vec2{4.55, -0.4})
				So(pb.Velocity(), ShouldResemble, mgl64.Vec2{})
			})
		})

		Convey("When it stands at a junction of two roads", func() {
			m := NewMap("cross", "Cross", 2, 3)
			m.AddRoad(HorizontalRoad(geom.Point{X: 0, Y: 0}, 4))
			m.AddRoad(VerticalRoad(geom.Point{X: 2, Y: 0}, 3))
			m.SetLootTypes([]LootType{{Value: 1}})
			So(g.AddMap(m), ShouldBeNil)
			sc := g.GetSession("cross")
			_, pc := g.AddPlayer("walker", sc)
			pc.Dog().Position = mgl64.Vec2{2, 0}

			Convey("Then it can turn onto the crossing road", func() {
				pc.SetDirection(geom.South)
				pc.MakeMove(1000)
				So(pc.Position().Y(), ShouldAlmostEqual, 2, 1e-9)
			})
		})
	})
}

func TestLootPickupAndDelivery(t *testing.T) {
	Convey("Given a dog with loot lying along the road", t, func() {
		g := New(nil)
		So(g.AddMap(townMap(1, 3)), ShouldBeNil)
		s := g.GetSession("town")
		_, p := g.AddPlayer("courier", s)
		s.AddExistingLoot(NewLoot(0, mgl64.Vec2{0.5, 0}))
		s.AddExistingLoot(NewLoot(1, mgl64.Vec2{1.5, 0}))

		Convey("When it walks over both loots", func() {
			p.SetDirection(geom.East)
			g.GameTick(2000)

			Convey("Then the bag holds them and the ground is clear", func() {
				So(p.Bag(), ShouldHaveLength, 2)
				So(s.LootCount(), ShouldEqual, 0)
				So(p.Score(), ShouldEqual, 0)
			})

			Convey("And when it returns to the office", func() {
				p.SetDirection(geom.West)
				g.GameTick(2000)

				Convey("Then the bag is cashed in for the catalog values", func() {
					So(p.Score(), ShouldEqual, 40)
					So(p.Bag(), ShouldBeEmpty)
				})
			})
		})
	})

	Convey("Given a dog whose bag holds a single item", t, func() {
		g := New(nil)
		So(g.AddMap(townMap(1, 1)), ShouldBeNil)
		s := g.GetSession("town")
		_, p := g.AddPlayer("hoarder", s)
		s.AddExistingLoot(NewLoot(0, mgl64.Vec2{0.5, 0}))
		s.AddExistingLoot(NewLoot(1, mgl64.Vec2{1.5, 0}))

		Convey("When it walks over two loots", func() {
			p.SetDirection(geom.East)
			g.GameTick(2000)

			Convey("Then the overflow stays on the ground", func() {
				So(p.Bag(), ShouldHaveLength, 1)
				So(p.Bag()[0].Type, ShouldEqual, 0)
				So(s.LootCount(), ShouldEqual, 1)
			})
		})
	})
}

func TestRetirement(t *testing.T) {
	Convey("Given a game with a scoreboard", t, func() {
		g := New(nil)
		So(g.AddMap(townMap(1, 3)), ShouldBeNil)
		sink := &recordSink{}
		g.SetScoreboard(sink)
		s := g.GetSession("town")
		token, idler := g.AddPlayer("idler", s)
		_, mover := g.AddPlayer("mover", s)
		mover.SetDirection(geom.East)

		Convey("When a whole threshold elapses in one tick", func() {
			g.GameTick(RetireAfterMs)

			Convey("Then every player goes to the scoreboard, mover included", func() {
				So(sink.names, ShouldResemble, []string{"idler", "mover"})
				So(sink.playMs, ShouldResemble,
					[]uint64{uint64(RetireAfterMs), uint64(RetireAfterMs)})
				So(g.FindPlayerByToken(token), ShouldBeNil)
				So(s.DogCount(), ShouldEqual, 0)
			})
		})

		Convey("When idle time accrues over several shorter ticks", func() {
			g.GameTick(10000)
			g.GameTick(6000)

			Convey("Then only the stopped player is retired", func() {
				So(sink.names, ShouldResemble, []string{"idler"})
				So(sink.playMs, ShouldResemble, []uint64{16000})
				So(g.FindByDogAndMap(mover.ID(), "town"), ShouldEqual, mover)
			})
		})

		Convey("When the player moves again before the threshold", func() {
			g.GameTick(10000)
			idler.SetDirection(geom.East)
			g.GameTick(10000)

			Convey("Then the idle clock was reset by the move", func() {
				So(g.FindPlayerByToken(token), ShouldNotBeNil)
			})
		})
	})
}

func TestLootSpawning(t *testing.T) {
	Convey("Given a game with a certain loot generator", t, func() {
		g := New(nil)
		So(g.AddMap(townMap(1, 3)), ShouldBeNil)
		g.SetLootGenerator(lootgen.New(time.Second, 1.0))
		s := g.GetSession("town")
		g.AddPlayer("scout", s)

		Convey("When a full period elapses with no loot on the ground", func() {
			g.GameTick(1000)

			Convey("Then one loot appears on the road", func() {
				So(s.LootCount(), ShouldEqual, 1)
				l := s.Loot(0)
				covering := s.Map().RoadsAt(geom.Cell(l.Position))
				So(covering, ShouldNotBeEmpty)
				So(l.Type, ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})
}
