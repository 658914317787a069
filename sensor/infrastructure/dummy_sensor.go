// Package infrastructure provides concrete implementation of sensor domain entities.
package infrastructure

import (
	"math"
	"math/rand/v2"
	"sync"
)

// DummySensor is a sensor implementation that drifts randomly around its starting value.
type DummySensor struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	value float64
	step  float64
}

// GetValue moves the reading by at most step in either direction and returns it
// rounded to two decimals.
func (d *DummySensor) GetValue() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value += (d.rnd.Float64()*2 - 1) * d.step
	return math.Round(d.value*100) / 100, nil
}

// NewDummySensor creates a DummySensor starting at start. rnd may be nil.
func NewDummySensor(start, step float64, rnd *rand.Rand) *DummySensor {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DummySensor{rnd: rnd, value: start, step: step}
}
