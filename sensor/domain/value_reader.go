// Package domain provides core business logic for sensor data processing.
package domain

import (
	"context"
	"time"
)

// Sensor is a data source of values
type Sensor interface {
	GetValue() (float64, error)
}

// SensorValue is one reading together with the moment it was taken.
type SensorValue struct {
	Value     float64
	Timestamp time.Time
}

// ValueReader reads values from a sensor in a given time period
type ValueReader struct {
	maxCapacity uint32
	rate        Rate
	logger      Logger
}

// Read polls sensor rate times per second and publishes readings on the returned
// channel. Failed reads are logged and skipped. The channel is closed once ctx is done.
func (v *ValueReader) Read(ctx context.Context, sensor Sensor) <-chan *SensorValue {
	valueCH := make(chan *SensorValue, v.maxCapacity)
	delay := time.Second / time.Duration(v.rate)
	ticker := time.NewTicker(delay)

	go func() {
		defer close(valueCH)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				value, err := sensor.GetValue()
				if err != nil {
					v.logger.Error("error reading sensor: %s", err.Error())
					continue
				}
				select {
				case valueCH <- &SensorValue{Value: value, Timestamp: now}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return valueCH
}

// NewValueReader creates a ValueReader with the given rate and buffer size
func NewValueReader(rate Rate, maxCapacity uint32, logger Logger) *ValueReader {
	return &ValueReader{
		rate:        rate,
		maxCapacity: maxCapacity,
		logger:      logger,
	}
}
