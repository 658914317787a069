package domain

import (
	"context"
	"errors"
	"time"
)

// DefaultNotReadyDelay is how long the sender backs off when the transport is down.
const DefaultNotReadyDelay = time.Second

// Transport defines the contract for sending data to external systems.
type Transport interface {
	// Send transfers sensor data.
	Send(ctx context.Context, value float64, timestamp time.Time, sensorName SensorName) error
}

// SensorDataSender handles the transmission of sensor data using a configured transport.
type SensorDataSender struct {
	transport     Transport
	sensorName    SensorName
	logger        Logger
	notReadyDelay time.Duration
}

// Send processes sensor values from the channel and transmits them using the configured transport.
// Readings that arrive while the transport is not ready are dropped and the sender
// pauses before trying again. The method blocks until the context is cancelled or
// the input channel is closed.
func (s *SensorDataSender) Send(ctx context.Context, values <-chan *SensorValue) {
	for v := range values {
		err := s.transport.Send(ctx, v.Value, v.Timestamp, s.sensorName)
		if err == nil {
			continue
		}

		if errors.Is(err, ErrTransportNotReady) {
			s.logger.Error("transport is not ready, waiting for %s", s.notReadyDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.notReadyDelay):
			}
		} else {
			s.logger.Error("error sending data: %s", err.Error())
		}
	}
}

// NewSensorDataSender creates a new SensorDataSender with the specified transport, logger, and sensor name.
func NewSensorDataSender(transport Transport, logger Logger, sensorName SensorName) *SensorDataSender {
	return &SensorDataSender{
		transport:     transport,
		sensorName:    sensorName,
		logger:        logger,
		notReadyDelay: DefaultNotReadyDelay,
	}
}
