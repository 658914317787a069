package infrastructure

import (
	"github.com/spf13/pflag"

	sensorDomain "github.com/samoilenko/sensorlog/sensor/domain"
)

// DefaultAddress is where the emulator looks for a recorder when --address is not given.
const DefaultAddress = "127.0.0.1:9000"

// AppConfig holds the validated emulator configuration.
type AppConfig struct {
	Address    sensorDomain.Address
	SensorName sensorDomain.SensorName
	Rate       sensorDomain.Rate
	Count      sensorDomain.FleetSize
}

// GetConfigParameters parses args with fs and returns validated sensor configuration.
func GetConfigParameters(fs *pflag.FlagSet, args []string) (*AppConfig, error) {
	rawSensorName := fs.String("name", "", "sensor name, the fleet prefix when --count > 1")
	rawSinkAddress := fs.String("address", DefaultAddress, "host:port of the telemetry recorder")
	rawRate := fs.Int("rate", 1, "number of readings per second to send, greater than 0")
	rawCount := fs.Int("count", 1, "number of sensors to emulate")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	address, err := sensorDomain.NewAddress(*rawSinkAddress)
	if err != nil {
		return nil, err
	}

	rate, err := sensorDomain.NewRate(*rawRate)
	if err != nil {
		return nil, err
	}

	sensorName, err := sensorDomain.NewSensorName(*rawSensorName)
	if err != nil {
		return nil, err
	}

	count, err := sensorDomain.NewFleetSize(*rawCount)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		Address:    address,
		SensorName: sensorName,
		Rate:       rate,
		Count:      count,
	}, nil
}
