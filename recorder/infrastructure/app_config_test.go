package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

func parseArgs(t *testing.T, args ...string) (*AppConfig, error) {
	t.Helper()
	fs := pflag.NewFlagSet("recorder", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return GetFromCommandLineParameters(fs, args)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recorder.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetFromCommandLineParameters_Defaults(t *testing.T) {
	config, err := parseArgs(t)
	if err != nil {
		t.Fatal(err)
	}
	want := &AppConfig{
		BindAddress:  DefaultBindAddress,
		DataDir:      "sensor_files",
		MaxFrameSize: DefaultFrameSize,
		RateLimit:    0,
		IdleTimeout:  recorderDomain.IdleTimeout(DefaultIdleTimeout),
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestGetFromCommandLineParameters_Flags(t *testing.T) {
	config, err := parseArgs(t,
		"--bind-address=127.0.0.1:9100",
		"--data-dir=/var/lib/sensorlog",
		"--frame-size=2048",
		"--rate-limit=500",
		"--idle-timeout=30s",
	)
	if err != nil {
		t.Fatal(err)
	}
	want := &AppConfig{
		BindAddress:  "127.0.0.1:9100",
		DataDir:      "/var/lib/sensorlog",
		MaxFrameSize: 2048,
		RateLimit:    500,
		IdleTimeout:  recorderDomain.IdleTimeout(30 * time.Second),
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestGetFromCommandLineParameters_ConfigFileAndOverride(t *testing.T) {
	path := writeConfigFile(t, `
bind_address = ":9200"
data_dir = "/srv/sensors"
frame_size = 512
rate_limit = 100
idle_timeout = "5m"
`)

	config, err := parseArgs(t, "--config", path, "--rate-limit=0")
	if err != nil {
		t.Fatal(err)
	}
	want := &AppConfig{
		BindAddress:  ":9200",
		DataDir:      "/srv/sensors",
		MaxFrameSize: 512,
		RateLimit:    0,
		IdleTimeout:  recorderDomain.IdleTimeout(5 * time.Minute),
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestGetFromCommandLineParameters_Invalid(t *testing.T) {
	tests := [][]string{
		{"--bind-address=nonsense"},
		{"--data-dir="},
		{"--frame-size=10"},
		{"--rate-limit=-5"},
		{"--idle-timeout=0s"},
		{"--unknown-flag"},
		{"--config", "/does/not/exist.toml"},
	}
	for _, args := range tests {
		if _, err := parseArgs(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestGetFromCommandLineParameters_BadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `frame_size = "large"`)
	if _, err := parseArgs(t, "--config", path); err == nil {
		t.Error("expected error for mistyped config value")
	}
}
