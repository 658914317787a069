package infrastructure

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"time"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
	sensorDomain "github.com/samoilenko/sensorlog/sensor/domain"
)

const (
	defaultMinReconnectDelay = time.Second
	defaultMaxReconnectDelay = 10 * time.Second
	defaultWriteTimeout      = 5 * time.Second
)

// IDGenerator defines the contract for generating unique identifiers.
type IDGenerator interface {
	// Generate returns a unique int64 identifier.
	Generate() int64
}

// Dialer opens connections to the recorder. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// TCPSender keeps one connection to the recorder open and writes LOG frames on it,
// reconnecting with exponential backoff whenever the connection is lost.
type TCPSender struct {
	dialer      Dialer
	address     sensorDomain.Address
	logger      sensorDomain.Logger
	idGenerator IDGenerator

	minDelay     time.Duration
	maxDelay     time.Duration
	writeTimeout time.Duration

	connLock    sync.Mutex
	conn        net.Conn
	reconnectCh chan struct{}
	watchers    sync.WaitGroup
}

// Run dials the recorder and redials every time the connection drops, until ctx
// is cancelled. The delay between failed dials doubles from one to ten seconds.
func (s *TCPSender) Run(ctx context.Context) error {
	defer func() {
		s.dropConn(nil)
		s.watchers.Wait()
		s.logger.Info("tcp sender stopped")
	}()

	s.triggerReconnect()
	delay := s.minDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.reconnectCh:
			s.dropConn(nil)
			s.logger.Info("connecting to %s...", s.address)

			conn, err := s.dialer.DialContext(ctx, "tcp", string(s.address))
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("error on connecting to %s: %s, retry in %s", s.address, err.Error(), delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, s.maxDelay)
				s.triggerReconnect()
				continue
			}

			delay = s.minDelay
			s.connLock.Lock()
			s.conn = conn
			s.connLock.Unlock()
			s.logger.Info("connected to %s", s.address)

			s.watchers.Add(1)
			go func() {
				defer s.watchers.Done()
				s.watch(conn)
			}()
		}
	}
}

// watch drains conn until the peer closes it. The recorder never answers LOG,
// so a finished read means the connection is gone.
func (s *TCPSender) watch(conn net.Conn) {
	_, err := io.Copy(io.Discard, conn)
	if s.dropConn(conn) {
		if err == nil {
			err = io.EOF
		}
		s.logger.Error("connection to %s lost: %s", s.address, err.Error())
		s.triggerReconnect()
	}
}

// dropConn closes the current connection. When only is set the connection is
// dropped only if it is still current. It reports whether anything was closed.
func (s *TCPSender) dropConn(only net.Conn) bool {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	if s.conn == nil || (only != nil && s.conn != only) {
		return false
	}
	_ = s.conn.Close()
	s.conn = nil
	return true
}

// Ready reports whether a connection to the recorder is open.
func (s *TCPSender) Ready() bool {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	return s.conn != nil
}

// Send writes one LOG frame for the reading. It returns ErrTransportNotReady when
// no connection is open or the write fails; a failed write also starts a reconnect.
func (s *TCPSender) Send(ctx context.Context, value float64, timestamp time.Time, sensorName sensorDomain.SensorName) error {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	if s.conn == nil {
		return sensorDomain.ErrTransportNotReady
	}

	frame := recorderDomain.EncodeLog(string(sensorName), timestamp.Unix(), value)
	seq := s.idGenerator.Generate()

	deadline := time.Now().Add(s.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetWriteDeadline(deadline)

	if _, err := s.conn.Write(frame); err != nil {
		s.logger.Error("error sending frame #%d: %s", seq, err.Error())
		_ = s.conn.Close()
		s.conn = nil
		s.triggerReconnect()
		return sensorDomain.ErrTransportNotReady
	}
	s.logger.Info("frame #%d sent: %s", seq, bytes.TrimRight(frame, "\r\n"))

	return nil
}

// triggerReconnect signals Run to dial again.
func (s *TCPSender) triggerReconnect() {
	select {
	case s.reconnectCh <- struct{}{}:
	default:
	}
}

// NewTCPSender creates a TCPSender that dials address with dialer.
func NewTCPSender(dialer Dialer, address sensorDomain.Address, logger sensorDomain.Logger) *TCPSender {
	return &TCPSender{
		dialer:       dialer,
		address:      address,
		logger:       logger,
		idGenerator:  &AtomicIDGenerator{},
		minDelay:     defaultMinReconnectDelay,
		maxDelay:     defaultMaxReconnectDelay,
		writeTimeout: defaultWriteTimeout,
		reconnectCh:  make(chan struct{}, 1),
	}
}
