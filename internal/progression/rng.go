package progression

import (
	"math/rand"
	"sync"
)

// LockedRng wraps a rand.Rand behind a mutex so one seeded source can be
// shared by callers running on different goroutines. *rand.Rand itself is
// not safe for concurrent use.
type LockedRng struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRng returns a concurrency-safe rng seeded with the given value.
func NewLockedRng(seed int64) *LockedRng {
	return &LockedRng{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRng) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRng) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
