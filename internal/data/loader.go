// Package data loads game documents (maps, loot catalogs, generator settings)
// into a ready-to-run game. JSON and YAML documents carry the same schema.
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dogwalk/server/internal/game"
	"github.com/dogwalk/server/internal/game/lootgen"
	"github.com/dogwalk/server/internal/geom"
)

const (
	defaultDogSpeed    = 1.0
	defaultBagCapacity = 3
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type gameDoc struct {
	DefaultDogSpeed    *float64    `json:"defaultDogSpeed" yaml:"defaultDogSpeed"`
	DefaultBagCapacity *int        `json:"defaultBagCapacity" yaml:"defaultBagCapacity"`
	DogRetirementTime  *float64    `json:"dogRetirementTime" yaml:"dogRetirementTime"`
	LootGenerator      *lootGenDoc `json:"lootGeneratorConfig" yaml:"lootGeneratorConfig"`
	Maps               []mapDoc    `json:"maps" yaml:"maps"`
}

type lootGenDoc struct {
	PeriodSec   float64 `json:"period" yaml:"period"`
	Probability float64 `json:"probability" yaml:"probability"`
}

type mapDoc struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	DogSpeed    *float64         `json:"dogSpeed" yaml:"dogSpeed"`
	BagCapacity *int             `json:"bagCapacity" yaml:"bagCapacity"`
	Roads       []roadDoc        `json:"roads" yaml:"roads"`
	Buildings   []buildingDoc    `json:"buildings" yaml:"buildings"`
	Offices     []officeDoc      `json:"offices" yaml:"offices"`
	LootTypes   []map[string]any `json:"lootTypes" yaml:"lootTypes"`
}

type roadDoc struct {
	X0 int  `json:"x0" yaml:"x0"`
	Y0 int  `json:"y0" yaml:"y0"`
	X1 *int `json:"x1" yaml:"x1"`
	Y1 *int `json:"y1" yaml:"y1"`
}

type buildingDoc struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

type officeDoc struct {
	ID      string `json:"id" yaml:"id"`
	X       int    `json:"x" yaml:"x"`
	Y       int    `json:"y" yaml:"y"`
	OffsetX int    `json:"offsetX" yaml:"offsetX"`
	OffsetY int    `json:"offsetY" yaml:"offsetY"`
}

// Load reads the game document at path and builds the game. The document's
// extension picks the codec: .yaml/.yml is YAML, anything else JSON.
func Load(path string, log *zap.Logger) (*game.Game, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game document: %w", err)
	}

	var doc gameDoc
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse game document %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse game document %s: %w", path, err)
		}
	}

	return build(&doc, log)
}

func build(doc *gameDoc, log *zap.Logger) (*game.Game, error) {
	if len(doc.Maps) == 0 {
		return nil, fmt.Errorf("game document has no maps")
	}
	if doc.LootGenerator == nil {
		return nil, fmt.Errorf("game document has no lootGeneratorConfig")
	}

	dogSpeed := defaultDogSpeed
	if doc.DefaultDogSpeed != nil {
		dogSpeed = *doc.DefaultDogSpeed
	}
	bagCapacity := defaultBagCapacity
	if doc.DefaultBagCapacity == nil {
		log.Warn("defaultBagCapacity missing, using fallback",
			zap.Int("bagCapacity", defaultBagCapacity))
	} else {
		bagCapacity = *doc.DefaultBagCapacity
	}

	g := game.New(log)

	period := time.Duration(doc.LootGenerator.PeriodSec * float64(time.Second))
	g.SetLootGenerator(lootgen.New(period, doc.LootGenerator.Probability))

	if doc.DogRetirementTime != nil {
		g.SetDogRetirementTime(*doc.DogRetirementTime)
	}

	for i := range doc.Maps {
		m, err := buildMap(&doc.Maps[i], dogSpeed, bagCapacity)
		if err != nil {
			return nil, err
		}
		if err := g.AddMap(m); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func buildMap(md *mapDoc, dogSpeed float64, bagCapacity int) (*game.Map, error) {
	if md.ID == "" {
		return nil, fmt.Errorf("map without id")
	}
	if len(md.Roads) == 0 {
		return nil, fmt.Errorf("map %q has no roads", md.ID)
	}
	if len(md.LootTypes) == 0 {
		return nil, fmt.Errorf("map %q has no lootTypes", md.ID)
	}

	if md.DogSpeed != nil {
		dogSpeed = *md.DogSpeed
	}
	if md.BagCapacity != nil {
		bagCapacity = *md.BagCapacity
	}
	m := game.NewMap(md.ID, md.Name, dogSpeed, bagCapacity)

	for _, rd := range md.Roads {
		switch {
		case rd.X1 != nil:
			m.AddRoad(game.HorizontalRoad(geom.Point{X: rd.X0, Y: rd.Y0}, *rd.X1))
		case rd.Y1 != nil:
			m.AddRoad(game.VerticalRoad(geom.Point{X: rd.X0, Y: rd.Y0}, *rd.Y1))
		default:
			return nil, fmt.Errorf("map %q: road at (%d, %d) has neither x1 nor y1", md.ID, rd.X0, rd.Y0)
		}
	}

	for _, bd := range md.Buildings {
		m.AddBuilding(game.Building{Bounds: geom.Rectangle{
			Position: geom.Point{X: bd.X, Y: bd.Y},
			Size:     geom.Size{W: bd.W, H: bd.H},
		}})
	}

	for _, od := range md.Offices {
		err := m.AddOffice(game.Office{
			ID:       od.ID,
			Position: geom.Point{X: od.X, Y: od.Y},
			Offset:   geom.Offset{DX: od.OffsetX, DY: od.OffsetY},
		})
		if err != nil {
			return nil, err
		}
	}

	types := make([]game.LootType, 0, len(md.LootTypes))
	for i, lt := range md.LootTypes {
		raw, err := json.Marshal(lt)
		if err != nil {
			return nil, fmt.Errorf("map %q: encode loot type %d: %w", md.ID, i, err)
		}
		value := 0
		switch v := lt["value"].(type) {
		case float64:
			value = int(v)
		case int:
			value = v
		}
		types = append(types, game.LootType{Value: value, Raw: raw})
	}
	m.SetLootTypes(types)

	return m, nil
}
