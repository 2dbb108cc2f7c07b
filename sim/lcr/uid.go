package lcr

import (
	"fmt"
	"math/rand"
	"strconv"
)

// UniqueID is a process identifier compared by the election.
type UniqueID int

func (u UniqueID) String() string { return strconv.Itoa(int(u)) }

// UIDGenerator hands out distinct ids.
type UIDGenerator interface {
	Generate() UniqueID
}

// SequentialUIDs generates first, first+1, ...
type SequentialUIDs struct {
	next UniqueID
}

// NewSequentialUIDs starts the sequence at first.
func NewSequentialUIDs(first UniqueID) *SequentialUIDs {
	return &SequentialUIDs{next: first}
}

func (g *SequentialUIDs) Generate() UniqueID {
	uid := g.next
	g.next++
	return uid
}

// RandomUIDs draws distinct ids uniformly from [0, max).
type RandomUIDs struct {
	max  int
	rng  *rand.Rand
	used map[UniqueID]bool
}

// NewRandomUIDs creates a generator over [0, max). Panics on max <= 0 or a nil rng.
func NewRandomUIDs(max int, rng *rand.Rand) *RandomUIDs {
	if max <= 0 {
		panic(fmt.Sprintf("NewRandomUIDs: max must be > 0, got %d", max))
	}
	if rng == nil {
		panic("NewRandomUIDs: nil rng")
	}
	return &RandomUIDs{max: max, rng: rng, used: make(map[UniqueID]bool)}
}

// Generate returns an id not handed out before. Panics once the range is exhausted.
func (g *RandomUIDs) Generate() UniqueID {
	if len(g.used) >= g.max {
		panic(fmt.Sprintf("RandomUIDs.Generate: all %d ids in use", g.max))
	}
	for {
		uid := UniqueID(g.rng.Intn(g.max))
		if !g.used[uid] {
			g.used[uid] = true
			return uid
		}
	}
}
