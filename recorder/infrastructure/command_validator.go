package infrastructure

import (
	"fmt"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// CommandValidator rejects LOG commands whose sensor id cannot name a log.
// GET commands pass through so that the store answers them as unknown sensors.
type CommandValidator struct {
}

// Apply validates the sensor id of cmd. Ids that are only too long pass: the store
// truncates them.
func (v CommandValidator) Apply(cmd recorderDomain.Command) error {
	if cmd.Keyword() != recorderDomain.KeywordLog {
		return nil
	}
	if _, err := recorderDomain.NewSensorID(cmd.Sensor()); err != nil {
		return fmt.Errorf("%s: %w", cmd.Keyword(), err)
	}
	return nil
}

// NewCommandValidator creates a new instance of CommandValidator.
func NewCommandValidator() *CommandValidator {
	return &CommandValidator{}
}
