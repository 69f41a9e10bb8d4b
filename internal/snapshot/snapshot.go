// Package snapshot saves and restores the whole game state to a single file.
// Writes go through a temp file and an atomic rename, so a crash mid-save
// leaves the previous snapshot intact.
package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/game"
	"github.com/dogwalk/server/internal/geom"
)

type dogRepr struct {
	Name      string
	Position  mgl64.Vec2
	Velocity  mgl64.Vec2
	Direction int
	ID        uint64
}

// Loot ids are not persisted; restored loots get fresh ids. Bags reference
// loot by value, so identity does not matter across restarts.
type lootRepr struct {
	Type      int
	Position  mgl64.Vec2
	Collected bool
}

type playerRepr struct {
	Token string
	DogID uint64
	MapID string
	Score int
	Bag   []lootRepr
}

type sessionRepr struct {
	Dogs  []dogRepr
	Loots []lootRepr
}

type stateRepr struct {
	Sessions map[string][]sessionRepr
	Players  []playerRepr
}

// Save writes the full game state to path atomically.
func Save(g *game.Game, path string) error {
	state := stateRepr{Sessions: make(map[string][]sessionRepr)}

	for mapID, sessions := range g.Sessions() {
		reprs := make([]sessionRepr, 0, len(sessions))
		for _, s := range sessions {
			var sr sessionRepr
			for _, d := range s.Dogs() {
				sr.Dogs = append(sr.Dogs, dogRepr{
					Name:      d.Name,
					Position:  d.Position,
					Velocity:  d.Velocity,
					Direction: int(d.Direction),
					ID:        d.ID,
				})
			}
			for _, l := range s.Loots() {
				sr.Loots = append(sr.Loots, lootRepr{Type: l.Type, Position: l.Position})
			}
			reprs = append(reprs, sr)
		}
		state.Sessions[mapID] = reprs
	}

	for token, p := range g.TokenIndex() {
		pr := playerRepr{
			Token: string(token),
			DogID: p.ID(),
			MapID: p.Session().Map().ID(),
			Score: p.Score(),
		}
		for _, l := range p.Bag() {
			pr.Bag = append(pr.Bag, lootRepr{Type: l.Type, Position: l.Position, Collected: true})
		}
		state.Players = append(state.Players, pr)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(&state); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Restore loads the snapshot at path into g. A missing file is not an error;
// a present but unreadable one is, so the caller can refuse to boot on a
// corrupt snapshot instead of silently losing state.
func Restore(g *game.Game, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var state stateRepr
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	dogs := make(map[string]map[uint64]*game.Dog)
	for mapID, reprs := range state.Sessions {
		if g.FindMap(mapID) == nil {
			return fmt.Errorf("snapshot references unknown map %q", mapID)
		}
		dogs[mapID] = make(map[uint64]*game.Dog)
		for _, sr := range reprs {
			s := g.GetSession(mapID)
			for _, dr := range sr.Dogs {
				d := game.RestoreDog(dr.Name, dr.Position, dr.Velocity,
					geom.Direction(dr.Direction), dr.ID)
				s.AddDog(d)
				dogs[mapID][d.ID] = d
			}
			for _, lr := range sr.Loots {
				s.AddExistingLoot(game.NewLoot(lr.Type, lr.Position))
			}
		}
	}

	for _, pr := range state.Players {
		d := dogs[pr.MapID][pr.DogID]
		if d == nil {
			return fmt.Errorf("snapshot player %q references unknown dog %d on map %q",
				pr.Token, pr.DogID, pr.MapID)
		}
		s := sessionOf(g, pr.MapID, d.ID)
		p := game.RestorePlayer(s, d, pr.Score)
		for _, lr := range pr.Bag {
			p.TakeLoot(game.NewLoot(lr.Type, lr.Position))
		}
		g.AddExistingPlayer(p, game.Token(pr.Token))
	}
	return nil
}

func sessionOf(g *game.Game, mapID string, dogID uint64) *game.Session {
	for _, s := range g.Sessions()[mapID] {
		for _, d := range s.Dogs() {
			if d.ID == dogID {
				return s
			}
		}
	}
	return nil
}

// Listener saves the game every savePeriod of accumulated tick time. A zero
// savePeriod disables periodic saves; SaveNow still works for the shutdown
// path.
type Listener struct {
	game       *game.Game
	path       string
	savePeriod int64
	sinceSave  int64
	log        *zap.Logger
}

func NewListener(g *game.Game, path string, savePeriodMs int64, log *zap.Logger) *Listener {
	return &Listener{game: g, path: path, savePeriod: savePeriodMs, log: log}
}

// OnTick accumulates simulated time and saves when the period elapses. Save
// failures are logged, not raised: one bad write must not kill the game loop.
func (l *Listener) OnTick(deltaMs int64) {
	if l.savePeriod <= 0 {
		return
	}
	l.sinceSave += deltaMs
	if l.sinceSave < l.savePeriod {
		return
	}
	l.sinceSave = 0
	l.SaveNow()
}

func (l *Listener) SaveNow() {
	if err := Save(l.game, l.path); err != nil {
		l.log.Error("save game state", zap.String("path", l.path), zap.Error(err))
	}
}
