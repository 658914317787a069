package infrastructure

import (
	"fmt"
	"math/rand/v2"

	sensorDomain "github.com/samoilenko/sensorlog/sensor/domain"
)

const fleetSuffixLen = 5 // "-" plus four hex digits

// FleetNames returns size distinct sensor names derived from base. A fleet of one
// keeps base as is; larger fleets get a random "-xxxx" suffix, with base shortened
// so every name still fits sensorDomain.MaxSensorNameLen.
func FleetNames(base sensorDomain.SensorName, size sensorDomain.FleetSize, rnd *rand.Rand) ([]sensorDomain.SensorName, error) {
	if size == 1 {
		return []sensorDomain.SensorName{base}, nil
	}
	if size > 0xffff {
		return nil, fmt.Errorf("fleet of %d sensors is too large", size)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	prefix := string(base)
	if len(prefix) > sensorDomain.MaxSensorNameLen-fleetSuffixLen {
		prefix = prefix[:sensorDomain.MaxSensorNameLen-fleetSuffixLen]
	}

	seen := make(map[sensorDomain.SensorName]bool, size)
	names := make([]sensorDomain.SensorName, 0, size)
	for len(names) < int(size) {
		name, err := sensorDomain.NewSensorName(fmt.Sprintf("%s-%04x", prefix, rnd.IntN(0x10000)))
		if err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
