package infrastructure

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	sensorDomain "github.com/samoilenko/sensorlog/sensor/domain"
)

func TestFleetNames_Single(t *testing.T) {
	names, err := FleetNames("temp", 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "temp" {
		t.Errorf("expected [temp], got %v", names)
	}
}

func TestFleetNames_Many(t *testing.T) {
	base := sensorDomain.SensorName(strings.Repeat("x", sensorDomain.MaxSensorNameLen))
	names, err := FleetNames(base, 50, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 50 {
		t.Fatalf("expected 50 names, got %d", len(names))
	}

	seen := map[sensorDomain.SensorName]bool{}
	for _, name := range names {
		if seen[name] {
			t.Errorf("duplicate name %q", name)
		}
		seen[name] = true
		if len(name) != sensorDomain.MaxSensorNameLen {
			t.Errorf("%q: expected %d bytes", name, sensorDomain.MaxSensorNameLen)
		}
		if !strings.HasPrefix(string(name), strings.Repeat("x", 26)+"-") {
			t.Errorf("%q: unexpected shape", name)
		}
	}
}

func TestDummySensor_RandomWalk(t *testing.T) {
	sensor := NewDummySensor(20, 0.5, rand.New(rand.NewPCG(7, 7)))

	prev := 20.0
	for i := 0; i < 100; i++ {
		v, err := sensor.GetValue()
		if err != nil {
			t.Fatal(err)
		}
		// rounding adds at most half a cent on each side
		if math.Abs(v-prev) > 0.5+0.01 {
			t.Fatalf("step %d moved from %v to %v", i, prev, v)
		}
		prev = v
	}
}

func TestAtomicIDGenerator(t *testing.T) {
	var g AtomicIDGenerator
	if g.Generate() != 1 || g.Generate() != 2 {
		t.Error("expected sequence to start at 1 and increase")
	}
}

func TestGetConfigParameters(t *testing.T) {
	fs := pflag.NewFlagSet("sensor", pflag.ContinueOnError)
	config, err := GetConfigParameters(fs, []string{"--name", "temp", "--rate", "5", "--count", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if config.SensorName != "temp" || config.Rate != 5 || config.Count != 3 || config.Address != DefaultAddress {
		t.Errorf("unexpected config %+v", config)
	}
}

func TestGetConfigParameters_Invalid(t *testing.T) {
	cases := map[string][]string{
		"missing name": {},
		"zero rate":    {"--name", "t", "--rate", "0"},
		"zero count":   {"--name", "t", "--count", "0"},
		"bad address":  {"--name", "t", "--address", "localhost"},
		"unknown flag": {"--name", "t", "--verbose"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			fs := pflag.NewFlagSet("sensor", pflag.ContinueOnError)
			fs.SetOutput(discard{})
			if _, err := GetConfigParameters(fs, args); err == nil {
				t.Error("expected an error")
			}
		})
	}

	fs := pflag.NewFlagSet("sensor", pflag.ContinueOnError)
	fs.SetOutput(discard{})
	if _, err := GetConfigParameters(fs, []string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("expected ErrHelp, got %v", err)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
