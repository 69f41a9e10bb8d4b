package data

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
)

const gameJSON = `{
  "defaultDogSpeed": 3.0,
  "lootGeneratorConfig": {"period": 5.0, "probability": 0.5},
  "maps": [
    {
      "id": "map1",
      "name": "Map 1",
      "roads": [
        {"x0": 0, "y0": 0, "x1": 40},
        {"x0": 40, "y0": 0, "y1": 30}
      ],
      "buildings": [{"x": 5, "y": 5, "w": 30, "h": 20}],
      "offices": [{"id": "o0", "x": 40, "y": 30, "offsetX": 5, "offsetY": 0}],
      "lootTypes": [
        {"name": "key", "file": "assets/key.obj", "type": "obj", "rotation": 90, "color": "#338844", "scale": 0.03, "value": 10},
        {"name": "wallet", "file": "assets/wallet.obj", "type": "obj", "rotation": 0, "color": "#883344", "scale": 0.01, "value": 30}
      ]
    },
    {
      "id": "map2",
      "name": "Map 2",
      "dogSpeed": 6.5,
      "bagCapacity": 7,
      "roads": [{"x0": 0, "y0": 0, "x1": 10}],
      "lootTypes": [{"name": "coin", "value": 1}]
    }
  ]
}`

const gameYAML = `
defaultDogSpeed: 2.0
defaultBagCapacity: 5
lootGeneratorConfig:
  period: 1.5
  probability: 0.25
maps:
  - id: yard
    name: Yard
    roads:
      - {x0: 0, y0: 0, y1: 12}
    lootTypes:
      - {name: bone, value: 4}
`

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	Convey("Given a JSON game document", t, func() {
		g, err := Load(writeDoc(t, "game.json", gameJSON), zap.NewNop())
		So(err, ShouldBeNil)

		Convey("Then both maps are registered", func() {
			So(len(g.Maps()), ShouldEqual, 2)
			So(g.FindMap("map1"), ShouldNotBeNil)
			So(g.FindMap("map2"), ShouldNotBeNil)
		})

		Convey("Then document defaults apply where the map is silent", func() {
			m := g.FindMap("map1")
			So(m.DogSpeed(), ShouldEqual, 3.0)
			So(m.BagCapacity(), ShouldEqual, 3)
		})

		Convey("Then map-level settings win over defaults", func() {
			m := g.FindMap("map2")
			So(m.DogSpeed(), ShouldEqual, 6.5)
			So(m.BagCapacity(), ShouldEqual, 7)
		})

		Convey("Then roads, buildings and offices come through", func() {
			m := g.FindMap("map1")
			So(m.Roads(), ShouldHaveLength, 2)
			So(m.Roads()[0].IsHorizontal(), ShouldBeTrue)
			So(m.Roads()[1].IsVertical(), ShouldBeTrue)
			So(m.Buildings(), ShouldHaveLength, 1)
			So(m.Offices(), ShouldHaveLength, 1)
			So(m.Offices()[0].Offset.DX, ShouldEqual, 5)
		})

		Convey("Then loot values are extracted and the raw entries kept", func() {
			m := g.FindMap("map1")
			So(m.LootValue(0), ShouldEqual, 10)
			So(m.LootValue(1), ShouldEqual, 30)
			So(string(m.LootTypes()[0].Raw), ShouldContainSubstring, `"name":"key"`)
		})
	})
}

func TestLoadYAML(t *testing.T) {
	Convey("Given a YAML game document", t, func() {
		g, err := Load(writeDoc(t, "game.yaml", gameYAML), zap.NewNop())
		So(err, ShouldBeNil)

		Convey("Then the map loads with the YAML defaults", func() {
			m := g.FindMap("yard")
			So(m, ShouldNotBeNil)
			So(m.DogSpeed(), ShouldEqual, 2.0)
			So(m.BagCapacity(), ShouldEqual, 5)
			So(m.LootValue(0), ShouldEqual, 4)
		})
	})
}

func TestLoadRejectsBrokenDocuments(t *testing.T) {
	Convey("Given malformed game documents", t, func() {
		log := zap.NewNop()

		Convey("A missing file fails", func() {
			_, err := Load(filepath.Join(t.TempDir(), "absent.json"), log)
			So(err, ShouldNotBeNil)
		})

		Convey("Invalid JSON fails", func() {
			_, err := Load(writeDoc(t, "bad.json", `{"maps": [`), log)
			So(err, ShouldNotBeNil)
		})

		Convey("A document without maps fails", func() {
			_, err := Load(writeDoc(t, "empty.json",
				`{"lootGeneratorConfig": {"period": 5.0, "probability": 0.5}, "maps": []}`), log)
			So(err, ShouldNotBeNil)
		})

		Convey("A document without a loot generator fails", func() {
			_, err := Load(writeDoc(t, "nogen.json",
				`{"maps": [{"id": "m", "roads": [{"x0":0,"y0":0,"x1":5}], "lootTypes": [{"value":1}]}]}`), log)
			So(err, ShouldNotBeNil)
		})

		Convey("A road with neither x1 nor y1 fails", func() {
			_, err := Load(writeDoc(t, "road.json",
				`{"lootGeneratorConfig": {"period": 5.0, "probability": 0.5},
				  "maps": [{"id": "m", "roads": [{"x0":0,"y0":0}], "lootTypes": [{"value":1}]}]}`), log)
			So(err, ShouldNotBeNil)
		})

		Convey("A map without loot types fails", func() {
			_, err := Load(writeDoc(t, "noloot.json",
				`{"lootGeneratorConfig": {"period": 5.0, "probability": 0.5},
				  "maps": [{"id": "m", "roads": [{"x0":0,"y0":0,"x1":5}], "lootTypes": []}]}`), log)
			So(err, ShouldNotBeNil)
		})
	})
}
