// Package infrastructure provides concrete implementations of domain abstractions.
//
// Key components:
//   - SensorStore: per-sensor append-only record logs on an afero filesystem
//   - TCPListener: accepts connections and runs one Session per connection
//   - RateLimiter: limits the frame volume of one connection
//   - CommandValidator: validates sensor ids of incoming LOG commands
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// ListenerOptions are the per-connection limits applied to every session.
type ListenerOptions struct {
	MaxFrameSize recorderDomain.FrameSize
	RateLimit    recorderDomain.RateLimit
}

// TCPListener accepts sensor connections and runs a Session for each of them.
type TCPListener struct {
	store    recorderDomain.Store
	logger   recorderDomain.Logger
	options  ListenerOptions
	sessions sync.WaitGroup
	active   atomic.Int64
}

// Serve binds addr and serves connections until ctx is cancelled.
// Failing to bind is the only error that ends Serve early.
func (l *TCPListener) Serve(ctx context.Context, addr recorderDomain.BindAddress) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", string(addr))
	if err != nil {
		return fmt.Errorf("error on binding %s: %w", addr, err)
	}
	return l.ServeListener(ctx, ln)
}

// ServeListener accepts connections from ln until ctx is cancelled. Accept errors
// are logged and accepting resumes immediately. When ctx is cancelled the listener
// and every open connection are closed and ServeListener waits for the sessions
// to finish. It returns an error only if ln is closed by someone else.
func (l *TCPListener) ServeListener(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer func() {
		stop()
		_ = ln.Close()
		l.sessions.Wait()
	}()

	l.logger.Info("listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("listener on %s stopped", ln.Addr())
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}
			l.logger.Error("error on accepting connection: %s", err.Error())
			continue
		}

		l.sessions.Add(1)
		go func() {
			defer l.sessions.Done()
			l.handle(ctx, conn)
		}()
	}
}

// ActiveSessions returns the number of sessions currently running.
func (l *TCPListener) ActiveSessions() int {
	return int(l.active.Load())
}

func (l *TCPListener) handle(ctx context.Context, conn net.Conn) {
	l.active.Add(1)
	defer l.active.Add(-1)

	remote := conn.RemoteAddr().String()
	l.logger.Info("new connection: %s", remote)

	interceptors := recorderDomain.WithInterceptors[recorderDomain.Command](
		NewCommandValidator(),
		NewRateLimiter[recorderDomain.Command](l.options.RateLimit, time.Second),
	)
	session := recorderDomain.NewSession(conn, remote, l.store, interceptors, l.options.MaxFrameSize, l.logger)
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		l.logger.Error("session %s ended: %s", remote, err.Error())
	}
	l.logger.Info("session %s closed", remote)
}

// NewTCPListener creates a listener dispatching every connection to store.
func NewTCPListener(store recorderDomain.Store, options ListenerOptions, logger recorderDomain.Logger) *TCPListener {
	if options.MaxFrameSize == 0 {
		options.MaxFrameSize = DefaultFrameSize
	}
	return &TCPListener{
		store:   store,
		logger:  logger,
		options: options,
	}
}
