// This component emulates a fleet of sensors that send readings to a telemetry recorder
//
// Usage example: sensor --rate 5 --name TEMP2 --address=127.0.0.1:9000 --count 3
//
// Flags:
//
//	--rate: number of readings per second each sensor sends
//	--name: sensor name, used as the id prefix when --count > 1
//	--address: host:port of the telemetry recorder
//	--count: number of sensors to emulate, each on its own connection
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	sensorDomain "github.com/samoilenko/sensorlog/sensor/domain"
	sensorInfrastructure "github.com/samoilenko/sensorlog/sensor/infrastructure"
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
	config, err := sensorInfrastructure.GetConfigParameters(fs, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		endWithError(fs, err)
	}

	names, err := sensorInfrastructure.FleetNames(config.SensorName, config.Count, nil)
	if err != nil {
		endWithError(fs, err)
	}

	stdlibLogger := log.New(os.Stdout, "", log.LstdFlags)
	logger := sensorDomain.NewStdLogger(stdlibLogger)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		memberLogger := logger.With(name)
		transport := sensorInfrastructure.NewTCPSender(&net.Dialer{}, config.Address, memberLogger)
		g.Go(func() error {
			return sensorDomain.SafeFunctionRun(func() error {
				return transport.Run(gctx)
			}, memberLogger)
		})

		g.Go(func() error {
			return sensorDomain.SafeFunctionRun(func() error {
				reader := sensorDomain.NewValueReader(config.Rate, 2, memberLogger)
				sensor := sensorInfrastructure.NewDummySensor(rand.Float64()*40-10, 0.5, nil)
				sender := sensorDomain.NewSensorDataSender(transport, memberLogger, name)
				sender.Send(gctx, reader.Read(gctx, sensor))
				return nil
			}, memberLogger)
		})
	}

	logger.Info("Emulating %d sensor(s) against %s", len(names), config.Address)
	if err := g.Wait(); err != nil {
		logger.Error("%s", err.Error())
		finish()
		os.Exit(1)
	}
	logger.Info("All sensors stopped")
}
