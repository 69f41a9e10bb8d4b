package game

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/game/collide"
	"github.com/dogwalk/server/internal/game/lootgen"
)

// Collision widths of the world's circle kinds.
const (
	DogWidth    = 0.6
	OfficeWidth = 0.5
	LootWidth   = 0.0
)

// RetireAfterMs is the idle time after which a player is retired to the
// scoreboard and removed.
const RetireAfterMs = 15000

// Scoreboard receives records of retired players.
type Scoreboard interface {
	SaveRecord(ctx context.Context, name string, score int, playTimeMs uint64) error
}

// TickListener is notified at the end of every tick; the snapshot listener
// uses it to schedule periodic saves.
type TickListener interface {
	OnTick(deltaMs int64)
}

// Game is the aggregate root of the simulation. Every method that mutates
// game state must run on the game strand.
type Game struct {
	maps     []*Map
	mapIndex map[string]int
	sessions map[string][]*Session

	players *Players
	lootGen *lootgen.Generator

	internalTicker bool
	randomSpawn    bool
	retirementSec  float64

	listener   TickListener
	scoreboard Scoreboard
	log        *zap.Logger
}

func New(log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	return &Game{
		mapIndex:      make(map[string]int),
		sessions:      make(map[string][]*Session),
		players:       NewPlayers(),
		retirementSec: 60,
		log:           log,
	}
}

// AddMap registers a map; duplicate ids are rejected.
func (g *Game) AddMap(m *Map) error {
	if _, ok := g.mapIndex[m.ID()]; ok {
		return fmt.Errorf("map with id %q already exists", m.ID())
	}
	g.mapIndex[m.ID()] = len(g.maps)
	g.maps = append(g.maps, m)
	return nil
}

func (g *Game) Maps() []*Map { return g.maps }

func (g *Game) FindMap(id string) *Map {
	if i, ok := g.mapIndex[id]; ok {
		return g.maps[i]
	}
	return nil
}

// GetSession returns the first session of the map with room for another dog,
// opening a new one when all are full. Sessions are never destroyed.
func (g *Game) GetSession(mapID string) *Session {
	for _, s := range g.sessions[mapID] {
		if s.DogCount() < MaxDogsPerSession {
			return s
		}
	}
	s := NewSession(g.FindMap(mapID))
	g.sessions[mapID] = append(g.sessions[mapID], s)
	return s
}

// Sessions exposes the map→sessions table for snapshotting.
func (g *Game) Sessions() map[string][]*Session { return g.sessions }

// AddPlayer joins a player into the session and returns the issued token.
func (g *Game) AddPlayer(name string, s *Session) (Token, *Player) {
	return g.players.Add(name, s, g.randomSpawn)
}

// AddExistingPlayer re-registers a snapshot-restored player under its
// original token.
func (g *Game) AddExistingPlayer(p *Player, token Token) {
	g.players.AddExisting(p, token)
}

func (g *Game) FindPlayerByToken(token Token) *Player {
	return g.players.FindByToken(token)
}

func (g *Game) FindByDogAndMap(dogID uint64, mapID string) *Player {
	return g.players.FindByDogAndMap(dogID, mapID)
}

func (g *Game) Players() []*Player { return g.players.All() }

// TokenIndex exposes the token→player index for snapshotting.
func (g *Game) TokenIndex() map[Token]*Player { return g.players.ByToken() }

func (g *Game) SetLootGenerator(gen *lootgen.Generator) { g.lootGen = gen }

func (g *Game) SetInternalTicker()     { g.internalTicker = true }
func (g *Game) IsTickerInternal() bool { return g.internalTicker }

func (g *Game) SetRandomSpawn()    { g.randomSpawn = true }
func (g *Game) IsSpawnRandom() bool { return g.randomSpawn }

func (g *Game) SetListener(l TickListener) { g.listener = l }

func (g *Game) SetScoreboard(db Scoreboard) { g.scoreboard = db }

// SetDogRetirementTime records the configured retirement time. The inactivity
// sweep uses the fixed RetireAfterMs threshold; the configured value is kept
// so authored documents carrying it stay valid.
func (g *Game) SetDogRetirementTime(seconds float64) { g.retirementSec = seconds }

// GameTick advances the world by deltaMs. Order is fixed: inactivity sweep,
// then per-session movement, collisions, pickups/deliveries, loot GC and loot
// spawn, then the persistence listener.
func (g *Game) GameTick(deltaMs int64) {
	g.retireInactive(deltaMs)

	for _, sessions := range g.sessions {
		for _, s := range sessions {
			g.tickSession(s, deltaMs)
		}
	}

	if g.listener != nil {
		g.listener.OnTick(deltaMs)
	}
}

// retireInactive removes players whose accumulated idle time plus this tick
// reaches RetireAfterMs, writing each to the scoreboard first. A moving dog
// reads zero idle time, so it is retired only by a single tick of
// RetireAfterMs or more. Everyone else just accrues play time.
func (g *Game) retireInactive(deltaMs int64) {
	live := append([]*Player(nil), g.players.All()...)
	for _, p := range live {
		if p.IdleMs()+uint64(deltaMs) >= RetireAfterMs {
			p.AddPlayTime(uint64(deltaMs))
			g.saveRecord(p)
			p.Session().RemoveDog(p.ID())
			g.players.Remove(p)
			continue
		}
		p.AddPlayTime(uint64(deltaMs))
	}
}

func (g *Game) saveRecord(p *Player) {
	if g.scoreboard == nil {
		return
	}
	if err := g.scoreboard.SaveRecord(context.Background(), p.Name(), p.Score(), p.PlayTimeMs()); err != nil {
		g.log.Warn("save retired player record",
			zap.String("player", p.Name()), zap.Error(err))
	}
}

func (g *Game) tickSession(s *Session, deltaMs int64) {
	mapID := s.Map().ID()

	var set collide.Set
	for _, dog := range s.Dogs() {
		p := g.players.FindByDogAndMap(dog.ID, mapID)
		start := p.Position()
		p.MakeMove(deltaMs)
		set.AddGatherer(collide.Gatherer{Start: start, End: p.Position(), Width: DogWidth})
	}

	lootCount := s.LootCount()
	for _, l := range s.Loots() {
		set.AddItem(collide.Item{Position: l.Position, Width: LootWidth})
	}
	for _, o := range s.Map().Offices() {
		set.AddItem(collide.Item{
			Position: mgl64.Vec2{float64(o.Position.X), float64(o.Position.Y)},
			Width:    OfficeWidth,
		})
	}

	for _, ev := range collide.FindEvents(set) {
		p := g.players.FindByDogAndMap(s.DogID(ev.GathererID), mapID)
		if ev.ItemID < lootCount {
			l := s.Loot(ev.ItemID)
			if l.Collected {
				continue
			}
			// Overflowing loot is dropped, first come first served.
			if len(p.Bag()) < s.Map().BagCapacity() {
				p.TakeLoot(l)
			}
			continue
		}
		p.DeliverLoot()
	}

	s.CollectGarbage()

	if g.lootGen != nil {
		n := g.lootGen.Generate(time.Duration(deltaMs)*time.Millisecond, s.LootCount(), s.DogCount())
		for i := 0; i < n; i++ {
			s.SpawnLoot(s.Map().RandomLootType())
		}
	}
}
