// Package domain contains the protocol, record format and session logic of the
// sensor recorder. It has no filesystem or network dependencies.
package domain

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// Store is the storage contract a session dispatches commands to.
type Store interface {
	// Append durably adds one reading to the sensor's log.
	Append(ctx context.Context, sensorID string, timestamp int64, value float64) error

	// Tail returns up to count newest readings, oldest first.
	// It returns ErrUnknownSensor for a sensor without a log.
	Tail(ctx context.Context, sensorID string, count int) ([]SensorRecord, error)
}

// SessionState is a position in the per-connection state machine.
type SessionState int32

// Session states. Closed is terminal.
const (
	StateConnected SessionState = iota
	StateReading
	StateDispatching
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session processes the frames of one connection strictly in order.
type Session struct {
	conn         io.ReadWriteCloser
	remote       string
	store        Store
	interceptors *Interceptors[Command]
	logger       Logger
	maxFrame     FrameSize
	state        atomic.Int32
}

// State returns the current state of the session.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// Run reads and dispatches frames until the peer closes the connection, a read or
// write fails, or ctx is cancelled. The connection is closed when Run returns.
// A clean EOF from the peer returns nil.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer func() {
		stop()
		_ = s.conn.Close()
		s.setState(StateClosed)
	}()

	s.setState(StateReading)
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, min(4096, int(s.maxFrame))), int(s.maxFrame))
	scanner.Split(ScanFrames)

	for scanner.Scan() {
		s.setState(StateDispatching)
		frame := scanner.Text()
		if err := SafeFunctionRun(func() error { return s.dispatch(ctx, frame) }, s.logger); err != nil {
			return err
		}
		s.setState(StateReading)
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("read error from %s: %s", s.remote, err.Error())
		return fmt.Errorf("read frame: %w", err)
	}

	s.logger.Info("connection closed by %s (EOF)", s.remote)
	return nil
}

// dispatch handles one frame. Only a failed reply write is returned as an error;
// everything else is logged and the session keeps reading.
func (s *Session) dispatch(ctx context.Context, frame string) error {
	cmd, err := ParseFrame(frame)
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) {
			s.logger.Error("unsupported message from %s: %s", s.remote, err.Error())
		} else {
			s.logger.Error("malformed message from %s: %s", s.remote, err.Error())
		}
		return nil
	}

	if err := s.interceptors.Apply(cmd); err != nil {
		var rateLimitError *RateLimitError
		if errors.As(err, &rateLimitError) {
			s.logger.Error("%s frame from %s dropped: %s, window resets in %s",
				cmd.Keyword(), s.remote, err.Error(), rateLimitError.Delay)
		} else {
			s.logger.Error("%s frame from %s rejected: %s", cmd.Keyword(), s.remote, err.Error())
		}
		return nil
	}

	switch c := cmd.(type) {
	case *LogCommand:
		if err := s.store.Append(ctx, c.SensorID, c.Timestamp, c.Value); err != nil {
			s.logger.Error("append for %s failed: %s", c.SensorID, err.Error())
		}
		return nil
	case *GetCommand:
		records, err := s.store.Tail(ctx, c.SensorID, c.Count)
		switch {
		case errors.Is(err, ErrUnknownSensor):
			s.logger.Info("%s is not a known sensor", c.SensorID)
			return s.write(EncodeError(ReasonInvalidSensorID))
		case err != nil:
			s.logger.Error("tail for %s failed: %s", c.SensorID, err.Error())
			return nil
		}
		return s.write(EncodeTailReply(records))
	default:
		s.logger.Error("no handler for %s frame", cmd.Keyword())
		return nil
	}
}

func (s *Session) write(reply []byte) error {
	if _, err := s.conn.Write(reply); err != nil {
		s.logger.Error("write to %s failed: %s", s.remote, err.Error())
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}

// ScanFrames is a bufio.SplitFunc yielding CRLF-terminated frames without the CRLF.
// Trailing bytes without a terminator at EOF are not a frame and are discarded.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte(frameTerminator)); i >= 0 {
		return i + len(frameTerminator), data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// NewSession creates a session for conn. remote is used in log messages only.
// A nil interceptor chain accepts every command.
func NewSession(
	conn io.ReadWriteCloser,
	remote string,
	store Store,
	interceptors *Interceptors[Command],
	maxFrame FrameSize,
	logger Logger,
) *Session {
	s := &Session{
		conn:         conn,
		remote:       remote,
		store:        store,
		interceptors: interceptors,
		logger:       logger,
		maxFrame:     maxFrame,
	}
	s.setState(StateConnected)
	return s
}
