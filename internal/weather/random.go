package weather

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const mockDescription = "Teilweise bewölkt mit gelegentlichen Sonnenstrahlen"

// RandomSource stands in for a real weather API and draws every value from
// fixed ranges.
type RandomSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSource() *RandomSource {
	return NewSeededRandomSource(time.Now().UnixNano())
}

func NewSeededRandomSource(seed int64) *RandomSource {
	return &RandomSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandomSource) Name() string {
	return "random"
}

func (s *RandomSource) Current(ctx context.Context, location string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Temperature:     s.rnd.Intn(30) + 5,
		Condition:       Conditions[s.rnd.Intn(len(Conditions))],
		RainProbability: s.rnd.Intn(100),
		WindSpeed:       s.rnd.Intn(30) + 5,
		Description:     mockDescription,
		Humidity:        s.rnd.Intn(50) + 30,
		FeelsLike:       s.rnd.Intn(30) + 5,
	}, nil
}
