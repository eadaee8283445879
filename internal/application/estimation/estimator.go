package estimation

import (
	"math"
	"math/rand/v2"
	"sync"
)

const (
	// DaysPerAccessory is the lead time added per selected accessory
	DaysPerAccessory = 3
	// MaxJitterDays bounds the random part of an estimate, inclusive
	MaxJitterDays = 90
	// MinGoodClientDivisor and MaxGoodClientDivisor bound the speed-up of good clients, inclusive
	MinGoodClientDivisor = 2
	MaxGoodClientDivisor = 4
)

// Estimator computes delivery estimates in days
type Estimator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEstimator creates an estimator drawing randomness from src
func NewEstimator(src rand.Source) *Estimator {
	return &Estimator{rng: rand.New(src)}
}

// Estimate returns the delivery estimate for a set of accessory names.
// The base is DaysPerAccessory per accessory plus a uniform draw
// in [1, MaxJitterDays]. Good clients divide the result by a uniform draw in
// [MinGoodClientDivisor, MaxGoodClientDivisor], rounded to the nearest day.
func (e *Estimator) Estimate(accessories []string, goodClient bool) int {
	e.mu.Lock()
	jitter := e.rng.IntN(MaxJitterDays) + 1
	divisor := e.rng.IntN(MaxGoodClientDivisor-MinGoodClientDivisor+1) + MinGoodClientDivisor
	e.mu.Unlock()

	days := DaysPerAccessory*countAccessories(accessories) + jitter
	if goodClient {
		days = int(math.Round(float64(days) / float64(divisor)))
	}
	return days
}

// countAccessories skips blank-space placeholders, which clients send for
// empty selection slots.
func countAccessories(names []string) int {
	n := 0
	for _, name := range names {
		if name != " " {
			n++
		}
	}
	return n
}
