package game

// MaxDogsPerSession caps one session; a full session causes a sibling to be
// opened for the same map.
const MaxDogsPerSession = 100

// Session groups up to MaxDogsPerSession dogs playing on one map, together
// with the loot currently on the ground. Sessions live for the process
// lifetime once created.
type Session struct {
	m     *Map
	dogs  []*Dog
	loots []*Loot
}

func NewSession(m *Map) *Session {
	return &Session{m: m}
}

func (s *Session) Map() *Map { return s.m }

func (s *Session) Dogs() []*Dog { return s.dogs }

func (s *Session) DogCount() int { return len(s.dogs) }

// DogID returns the id of the dog at the given position in the deque; the
// collision detector reports gatherers by this index.
func (s *Session) DogID(idx int) uint64 { return s.dogs[idx].ID }

func (s *Session) AddDog(d *Dog) {
	s.dogs = append(s.dogs, d)
}

func (s *Session) RemoveDog(id uint64) {
	for i, d := range s.dogs {
		if d.ID == id {
			s.dogs = append(s.dogs[:i], s.dogs[i+1:]...)
			return
		}
	}
}

func (s *Session) Loots() []*Loot { return s.loots }

func (s *Session) LootCount() int { return len(s.loots) }

func (s *Session) Loot(idx int) *Loot { return s.loots[idx] }

// SpawnLoot drops a fresh loot of the given type at a random road position.
func (s *Session) SpawnLoot(lootType int) {
	s.loots = append(s.loots, NewLoot(lootType, RandomPos(s.m)))
}

// AddExistingLoot reinserts a loot restored from a snapshot.
func (s *Session) AddExistingLoot(l *Loot) {
	s.loots = append(s.loots, l)
}

// CollectGarbage drops loots collected during this tick.
func (s *Session) CollectGarbage() {
	kept := s.loots[:0]
	for _, l := range s.loots {
		if !l.Collected {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(s.loots); i++ {
		s.loots[i] = nil
	}
	s.loots = kept
}
