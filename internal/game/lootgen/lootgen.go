// Package lootgen decides how much loot to drop on a map each tick.
package lootgen

import (
	"math"
	"time"
)

// RandomFunc yields a value in [0, 1] used to thin the spawn probability.
type RandomFunc func() float64

// Generator produces spawn counts such that, over a long run, each gatherer
// receives on average `probability` new loots per `period`. It is stateful:
// time accumulates across calls until a spawn happens.
type Generator struct {
	period      time.Duration
	probability float64
	random      RandomFunc

	timeWithoutLoot time.Duration
}

// New returns a generator with a deterministic (always 1.0) thinning
// function, so the spawn count depends only on elapsed time and shortage.
func New(period time.Duration, probability float64) *Generator {
	return NewWithRandom(period, probability, func() float64 { return 1.0 })
}

func NewWithRandom(period time.Duration, probability float64, random RandomFunc) *Generator {
	return &Generator{period: period, probability: probability, random: random}
}

// Generate returns the number of loots to spawn after dt has elapsed with
// lootCount loots on the ground and gathererCount gatherers present. It
// returns 0 whenever there is no shortage, in particular when
// gathererCount == 0.
func (g *Generator) Generate(dt time.Duration, lootCount, gathererCount int) int {
	g.timeWithoutLoot += dt

	shortage := gathererCount - lootCount
	if shortage <= 0 {
		return 0
	}

	ratio := float64(g.timeWithoutLoot) / float64(g.period)
	p := (1.0 - math.Pow(1.0-g.probability, ratio)) * g.random()
	p = math.Min(math.Max(p, 0.0), 1.0)

	n := int(math.Round(float64(shortage) * p))
	if n > 0 {
		g.timeWithoutLoot = 0
	}
	return n
}
