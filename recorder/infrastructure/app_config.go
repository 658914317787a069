package infrastructure

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// Defaults used when neither the config file nor a flag sets a value.
const (
	DefaultBindAddress = ":9000"
	DefaultDataDir     = "./sensor_files"
	DefaultFrameSize   = 1024
	DefaultIdleTimeout = time.Minute
)

// AppConfig holds all validated configuration parameters for the recorder application.
type AppConfig struct {
	BindAddress  recorderDomain.BindAddress
	DataDir      recorderDomain.DataDir
	MaxFrameSize recorderDomain.FrameSize
	RateLimit    recorderDomain.RateLimit
	IdleTimeout  recorderDomain.IdleTimeout
}

// fileConfig is the TOML form of the configuration.
type fileConfig struct {
	BindAddress string        `toml:"bind_address"`
	DataDir     string        `toml:"data_dir"`
	FrameSize   int           `toml:"frame_size"`
	RateLimit   int           `toml:"rate_limit"`
	IdleTimeout time.Duration `toml:"idle_timeout"`
}

// GetFromCommandLineParameters parses args with fs and returns validated recorder
// configuration. Values come from the defaults, then the TOML file named by
// --config, then flags given explicitly on the command line.
func GetFromCommandLineParameters(fs *pflag.FlagSet, args []string) (*AppConfig, error) {
	configPath := fs.String("config", "", "Path to a TOML config file")
	rawBindAddress := fs.String("bind-address", DefaultBindAddress, "Bind address (e.g. 0.0.0.0:9000)")
	rawDataDir := fs.String("data-dir", DefaultDataDir, "Directory holding one log file per sensor")
	rawFrameSize := fs.Int("frame-size", DefaultFrameSize, "Largest accepted frame in bytes")
	rawRateLimit := fs.Int("rate-limit", 0, "Per-connection rate limit in bytes/sec, 0 disables it")
	rawIdleTimeout := fs.Duration("idle-timeout", DefaultIdleTimeout, "Close sensor log handles unused for this long")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	raw := fileConfig{
		BindAddress: DefaultBindAddress,
		DataDir:     DefaultDataDir,
		FrameSize:   DefaultFrameSize,
		IdleTimeout: DefaultIdleTimeout,
	}
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &raw); err != nil {
			return nil, fmt.Errorf("error on reading config file: %w", err)
		}
	}

	if fs.Changed("bind-address") {
		raw.BindAddress = *rawBindAddress
	}
	if fs.Changed("data-dir") {
		raw.DataDir = *rawDataDir
	}
	if fs.Changed("frame-size") {
		raw.FrameSize = *rawFrameSize
	}
	if fs.Changed("rate-limit") {
		raw.RateLimit = *rawRateLimit
	}
	if fs.Changed("idle-timeout") {
		raw.IdleTimeout = *rawIdleTimeout
	}

	return newAppConfig(raw)
}

func newAppConfig(raw fileConfig) (*AppConfig, error) {
	bindAddress, err := recorderDomain.NewBindAddress(raw.BindAddress)
	if err != nil {
		return nil, err
	}

	dataDir, err := recorderDomain.NewDataDir(raw.DataDir)
	if err != nil {
		return nil, err
	}

	frameSize, err := recorderDomain.NewFrameSize(raw.FrameSize)
	if err != nil {
		return nil, err
	}

	rateLimit, err := recorderDomain.NewRateLimit(raw.RateLimit)
	if err != nil {
		return nil, err
	}

	idleTimeout, err := recorderDomain.NewIdleTimeout(raw.IdleTimeout)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		BindAddress:  bindAddress,
		DataDir:      dataDir,
		MaxFrameSize: frameSize,
		RateLimit:    rateLimit,
		IdleTimeout:  idleTimeout,
	}

	return config, nil
}
