package infrastructure

import (
	"slices"
	"sync"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// KnownSensors is the set of sensor ids that have a log. It is shared by every
// session and guarded by its own lock, independent of the per-sensor log locks.
type KnownSensors struct {
	mu  sync.RWMutex
	ids map[recorderDomain.SensorID]struct{}
}

// Add registers id and reports whether it was new.
func (k *KnownSensors) Add(id recorderDomain.SensorID) bool {
	k.mu.RLock()
	_, ok := k.ids[id]
	k.mu.RUnlock()
	if ok {
		return false
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.ids[id]; ok {
		return false
	}
	k.ids[id] = struct{}{}
	return true
}

// Has reports whether id is registered.
func (k *KnownSensors) Has(id recorderDomain.SensorID) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.ids[id]
	return ok
}

// Len returns the number of registered ids.
func (k *KnownSensors) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.ids)
}

// List returns the registered ids in lexical order.
func (k *KnownSensors) List() []recorderDomain.SensorID {
	k.mu.RLock()
	ids := make([]recorderDomain.SensorID, 0, len(k.ids))
	for id := range k.ids {
		ids = append(ids, id)
	}
	k.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// NewKnownSensors creates an empty set.
func NewKnownSensors() *KnownSensors {
	return &KnownSensors{ids: make(map[recorderDomain.SensorID]struct{})}
}
