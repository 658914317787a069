// Recorder is a telemetry service that stores sensor readings received over TCP
// and serves the most recent readings of a sensor on request.
//
// Usage: recorder --bind-address=:9000 --data-dir=./sensor_files --frame-size=1024 --rate-limit=0 --idle-timeout=1m
//
// Flags:
//
//	--config: TOML file with bind_address, data_dir, frame_size, rate_limit, idle_timeout
//	--bind-address: server bind address (e.g., :9000 or 0.0.0.0:9000)
//	--data-dir: directory holding one log file per sensor, created if missing
//	--frame-size: largest accepted frame in bytes
//	--rate-limit: maximum bytes per second accepted from one connection, 0 disables it
//	--idle-timeout: how long an unused sensor log stays open
//
// Flags given on the command line override the config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
	recorderInfrastructure "github.com/samoilenko/sensorlog/recorder/infrastructure"
)

func endWithError(fs *pflag.FlagSet, err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	fs.Usage()
	os.Exit(1)
}

func main() {
	ctx, finish := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer finish()

	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	config, err := recorderInfrastructure.GetFromCommandLineParameters(fs, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		endWithError(fs, err)
	}

	stdlibLogger := log.New(os.Stdout, "", log.LstdFlags)
	logger := recorderDomain.NewStdLogger(stdlibLogger, recorderDomain.IsTerminal(os.Stdout))

	if err := os.MkdirAll(string(config.DataDir), 0o755); err != nil {
		logger.Error("error on creating data directory: %s", err.Error())
		os.Exit(1)
	}

	lock, err := recorderInfrastructure.LockDataDir(config.DataDir)
	if err != nil {
		logger.Error("%s", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Error("%s", err.Error())
		}
	}()

	logger.Info("Opening sensor store in %s...", config.DataDir)
	store, err := recorderInfrastructure.OpenSensorStore(
		recorderInfrastructure.NewOsFs(config.DataDir),
		config.IdleTimeout,
		logger,
	)
	if err != nil {
		logger.Error("%s", err.Error())
		os.Exit(1)
	}

	listener := recorderInfrastructure.NewTCPListener(store, recorderInfrastructure.ListenerOptions{
		MaxFrameSize: config.MaxFrameSize,
		RateLimit:    config.RateLimit,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store.Start(gctx)
		logger.Info("Sensor store closed")
		return nil
	})
	g.Go(func() error {
		return listener.Serve(gctx, config.BindAddress)
	})

	if err := g.Wait(); err != nil {
		logger.Error("%s", err.Error())
		finish()
		os.Exit(1)
	}
	logger.Info("All components stopped gracefully")
}
