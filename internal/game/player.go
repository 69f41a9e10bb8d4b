package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dogwalk/server/internal/geom"
)

// Player is a logical participant: a dog, a bag of carried loot, a score and
// the play/idle timers driving retirement.
//
// idleMs is nil exactly while the dog is moving; it is reset to zero when the
// player stops and accumulates tick time until the next move intent.
type Player struct {
	session *Session
	dog     *Dog
	bag     []*Loot
	score   int
	playMs  uint64
	idleMs  *uint64
}

// NewPlayer spawns a dog on the session's map (randomized or deterministic
// spawn), registers it with the session and wraps it in a player.
func NewPlayer(name string, s *Session, randomSpawn bool) *Player {
	var pos mgl64.Vec2
	if randomSpawn {
		pos = RandomPos(s.Map())
	} else {
		pos = StartPos(s.Map())
	}
	dog := NewDog(name, pos)
	s.AddDog(dog)

	idle := uint64(0)
	return &Player{session: s, dog: dog, idleMs: &idle}
}

// RestorePlayer rebuilds a player around an already-registered dog.
func RestorePlayer(s *Session, dog *Dog, score int) *Player {
	idle := uint64(0)
	return &Player{session: s, dog: dog, score: score, idleMs: &idle}
}

func (p *Player) Name() string              { return p.dog.Name }
func (p *Player) ID() uint64                { return p.dog.ID }
func (p *Player) Session() *Session         { return p.session }
func (p *Player) Dog() *Dog                 { return p.dog }
func (p *Player) Position() mgl64.Vec2      { return p.dog.Position }
func (p *Player) Velocity() mgl64.Vec2      { return p.dog.Velocity }
func (p *Player) Direction() geom.Direction { return p.dog.Direction }
func (p *Player) Bag() []*Loot              { return p.bag }
func (p *Player) Score() int                { return p.score }
func (p *Player) PlayTimeMs() uint64        { return p.playMs }

// SetDirection points the dog along d at the map's dog speed and marks the
// player active.
func (p *Player) SetDirection(d geom.Direction) {
	speed := p.session.Map().DogSpeed()
	switch d {
	case geom.North:
		p.dog.Velocity = mgl64.Vec2{0, -speed}
	case geom.South:
		p.dog.Velocity = mgl64.Vec2{0, speed}
	case geom.West:
		p.dog.Velocity = mgl64.Vec2{-speed, 0}
	case geom.East:
		p.dog.Velocity = mgl64.Vec2{speed, 0}
	}
	p.dog.Direction = d
	p.idleMs = nil
}

// Stop zeroes the velocity and starts the idle clock.
func (p *Player) Stop() {
	p.dog.Velocity = mgl64.Vec2{}
	idle := uint64(0)
	p.idleMs = &idle
}

// IdleMs returns the accumulated idle time, or 0 while the dog is moving.
func (p *Player) IdleMs() uint64 {
	if p.idleMs == nil {
		return 0
	}
	return *p.idleMs
}

// AddPlayTime advances the play clock, and the idle clock when it is running.
func (p *Player) AddPlayTime(deltaMs uint64) {
	p.playMs += deltaMs
	if p.idleMs != nil {
		*p.idleMs += deltaMs
	}
}

// MakeMove advances the dog by velocity·Δt. If the candidate position leaves
// the walkable area of every road covering the current cell, the dog is
// clipped to the furthest reachable road-area boundary along its heading and
// stopped.
func (p *Player) MakeMove(deltaMs int64) {
	dog := p.dog
	next := dog.Position.Add(dog.Velocity.Mul(float64(deltaMs) / 1000))

	m := p.session.Map()
	roadIdxs := m.RoadsAt(geom.Cell(dog.Position))
	roads := m.Roads()

	for _, i := range roadIdxs {
		if roads[i].Contains(next) {
			dog.Position = next
			return
		}
	}

	dog.Position = p.clipPosition(next, roadIdxs)
	dog.Velocity = mgl64.Vec2{}
}

// clipPosition finds the furthest walkable-area edge along the dog's heading
// among the covering roads whose area contains the current position. Only
// roads the dog actually stands on may extend its reach, so the clipped
// position stays inside one of their areas; it is also capped at the
// candidate position itself.
func (p *Player) clipPosition(next mgl64.Vec2, roadIdxs []int) mgl64.Vec2 {
	dog := p.dog
	roads := p.session.Map().Roads()
	pos := dog.Position

	switch dog.Direction {
	case geom.North:
		clip := pos.Y()
		for _, i := range roadIdxs {
			if !roads[i].Contains(pos) {
				continue
			}
			if edge := roads[i].Area().Min.Y(); edge < clip {
				clip = edge
			}
		}
		if clip < next.Y() {
			clip = next.Y()
		}
		return mgl64.Vec2{pos.X(), clip}
	case geom.South:
		clip := pos.Y()
		for _, i := range roadIdxs {
			if !roads[i].Contains(pos) {
				continue
			}
			if edge := roads[i].Area().Max.Y(); edge > clip {
				clip = edge
			}
		}
		if clip > next.Y() {
			clip = next.Y()
		}
		return mgl64.Vec2{pos.X(), clip}
	case geom.West:
		clip := pos.X()
		for _, i := range roadIdxs {
			if !roads[i].Contains(pos) {
				continue
			}
			if edge := roads[i].Area().Min.X(); edge < clip {
				clip = edge
			}
		}
		if clip < next.X() {
			clip = next.X()
		}
		return mgl64.Vec2{clip, pos.Y()}
	case geom.East:
		clip := pos.X()
		for _, i := range roadIdxs {
			if !roads[i].Contains(pos) {
				continue
			}
			if edge := roads[i].Area().Max.X(); edge > clip {
				clip = edge
			}
		}
		if clip > next.X() {
			clip = next.X()
		}
		return mgl64.Vec2{clip, pos.Y()}
	}
	return pos
}

// TakeLoot puts the loot in the bag and marks it collected so the session
// garbage-collects it at tick end. The caller checks bag capacity.
func (p *Player) TakeLoot(l *Loot) {
	l.Collected = true
	p.bag = append(p.bag, l)
}

// DeliverLoot empties the bag, crediting the catalog value of every carried
// loot. Returns the score gained.
func (p *Player) DeliverLoot() int {
	m := p.session.Map()
	gained := 0
	for _, l := range p.bag {
		gained += m.LootValue(l.Type)
	}
	p.score += gained
	p.bag = nil
	return gained
}
