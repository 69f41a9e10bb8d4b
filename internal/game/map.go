package game

import (
	"fmt"
	"math/rand/v2"

	jsoniter "github.com/json-iterator/go"

	"github.com/dogwalk/server/internal/geom"
)

// Building is a cosmetic rectangle; it does not block movement.
type Building struct {
	Bounds geom.Rectangle
}

// Office is a delivery base of radius 0.5 centered on Position.
type Office struct {
	ID       string
	Position geom.Point
	Offset   geom.Offset
}

// LootType is one entry of a map's loot catalog. Raw carries the authored
// document object so the map endpoint can echo it; Value is the score awarded
// when a loot of this type is delivered.
type LootType struct {
	Value int
	Raw   jsoniter.RawMessage
}

// Map is one game level. Roads, buildings and offices are appended during
// loading; the coord→roads index grows with every AddRoad so that movement
// lookups are O(1) per cell.
type Map struct {
	id          string
	name        string
	dogSpeed    float64
	bagCapacity int

	roads     []Road
	buildings []Building
	offices   []Office
	lootTypes []LootType

	officeIndex map[string]int
	roadIndex   map[geom.Point][]int
}

func NewMap(id, name string, dogSpeed float64, bagCapacity int) *Map {
	return &Map{
		id:          id,
		name:        name,
		dogSpeed:    dogSpeed,
		bagCapacity: bagCapacity,
		officeIndex: make(map[string]int),
		roadIndex:   make(map[geom.Point][]int),
	}
}

func (m *Map) ID() string            { return m.id }
func (m *Map) Name() string          { return m.name }
func (m *Map) DogSpeed() float64     { return m.dogSpeed }
func (m *Map) BagCapacity() int      { return m.bagCapacity }
func (m *Map) Roads() []Road         { return m.roads }
func (m *Map) Buildings() []Building { return m.buildings }
func (m *Map) Offices() []Office     { return m.offices }
func (m *Map) LootTypes() []LootType { return m.lootTypes }

// AddRoad appends the road and indexes every lattice cell it covers. A road
// covering |end-start|+1 cells contributes that many index entries.
func (m *Map) AddRoad(r Road) {
	idx := len(m.roads)
	m.roads = append(m.roads, r)

	if r.IsHorizontal() {
		lo, hi := minMax(r.Start.X, r.End.X)
		for x := lo; x <= hi; x++ {
			cell := geom.Point{X: x, Y: r.Start.Y}
			m.roadIndex[cell] = append(m.roadIndex[cell], idx)
		}
		return
	}
	lo, hi := minMax(r.Start.Y, r.End.Y)
	for y := lo; y <= hi; y++ {
		cell := geom.Point{X: r.Start.X, Y: y}
		m.roadIndex[cell] = append(m.roadIndex[cell], idx)
	}
}

func (m *Map) AddBuilding(b Building) {
	m.buildings = append(m.buildings, b)
}

// AddOffice rejects duplicate office ids within the map.
func (m *Map) AddOffice(o Office) error {
	if _, ok := m.officeIndex[o.ID]; ok {
		return fmt.Errorf("duplicate office %q on map %q", o.ID, m.id)
	}
	m.officeIndex[o.ID] = len(m.offices)
	m.offices = append(m.offices, o)
	return nil
}

func (m *Map) SetLootTypes(types []LootType) {
	m.lootTypes = types
}

// RoadsAt returns the roads covering the given cell, as indices into Roads().
// Dogs spawn on a road and cannot leave the road network, so the result is
// non-empty for every cell a dog can occupy.
func (m *Map) RoadsAt(cell geom.Point) []int {
	return m.roadIndex[cell]
}

// RandomLootType picks a uniform type index from the catalog.
func (m *Map) RandomLootType() int {
	return rand.IntN(len(m.lootTypes))
}

// LootValue returns the delivery score of the given type, or 0 for a type
// without an authored value.
func (m *Map) LootValue(lootType int) int {
	if lootType < 0 || lootType >= len(m.lootTypes) {
		return 0
	}
	return m.lootTypes[lootType].Value
}
