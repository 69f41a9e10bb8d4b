package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Token is the 32-hex-digit secret bound 1:1 to a live player.
type Token string

// TokenGenerator emits tokens from two independent 64-bit generators, each
// contributing 16 lowercase hex digits. Both are seeded from the OS entropy
// source at construction.
type TokenGenerator struct {
	g1 *rand.Rand
	g2 *rand.Rand
}

func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{g1: newSeededRand(), g2: newSeededRand()}
}

func newSeededRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("seed token generator: %v", err))
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

func (t *TokenGenerator) Generate() Token {
	return Token(fmt.Sprintf("%016x%016x", t.g1.Uint64(), t.g2.Uint64()))
}

type mapDogKey struct {
	mapID string
	dogID uint64
}

// Players keeps three consistent indices over the live player set: by token,
// by (mapId, dogId), and in insertion order.
type Players struct {
	tokens   *TokenGenerator
	byToken  map[Token]*Player
	byMapDog map[mapDogKey]*Player
	ordered  []*Player
}

func NewPlayers() *Players {
	return &Players{
		tokens:   NewTokenGenerator(),
		byToken:  make(map[Token]*Player),
		byMapDog: make(map[mapDogKey]*Player),
	}
}

// Add spawns a new player into the session, issues a fresh token and updates
// all three indices.
func (ps *Players) Add(name string, s *Session, randomSpawn bool) (Token, *Player) {
	p := NewPlayer(name, s, randomSpawn)
	token := ps.tokens.Generate()
	ps.insert(p, token)
	return token, p
}

// AddExisting re-registers a restored player under its original token.
func (ps *Players) AddExisting(p *Player, token Token) {
	ps.insert(p, token)
}

func (ps *Players) insert(p *Player, token Token) {
	ps.byToken[token] = p
	ps.byMapDog[mapDogKey{mapID: p.Session().Map().ID(), dogID: p.ID()}] = p
	ps.ordered = append(ps.ordered, p)
}

// Remove erases the player from all three indices. Insertion order of the
// remaining players is preserved.
func (ps *Players) Remove(p *Player) {
	for token, candidate := range ps.byToken {
		if candidate == p {
			delete(ps.byToken, token)
		}
	}
	delete(ps.byMapDog, mapDogKey{mapID: p.Session().Map().ID(), dogID: p.ID()})
	for i, candidate := range ps.ordered {
		if candidate == p {
			ps.ordered = append(ps.ordered[:i], ps.ordered[i+1:]...)
			break
		}
	}
}

func (ps *Players) FindByToken(token Token) *Player {
	return ps.byToken[token]
}

func (ps *Players) FindByDogAndMap(dogID uint64, mapID string) *Player {
	return ps.byMapDog[mapDogKey{mapID: mapID, dogID: dogID}]
}

// All returns the live players in insertion order. The returned slice is the
// registry's own; callers iterating across removals must copy it first.
func (ps *Players) All() []*Player {
	return ps.ordered
}

// ByToken exposes the token index for snapshotting.
func (ps *Players) ByToken() map[Token]*Player {
	return ps.byToken
}
