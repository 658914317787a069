package infrastructure

import (
	"errors"
	"testing"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

func TestCommandValidator_Apply(t *testing.T) {
	validator := NewCommandValidator()
	tests := []struct {
		frame   string
		wantErr bool
	}{
		{frame: "LOG|temp-01|2024-01-01T00:00:00|1", wantErr: false},
		{frame: "LOG|a-very-long-sensor-identifier-that-gets-cut|2024-01-01T00:00:00|1", wantErr: false},
		{frame: "LOG||2024-01-01T00:00:00|1", wantErr: true},
		{frame: "LOG|caf\xc3\xa9|2024-01-01T00:00:00|1", wantErr: true},
		{frame: "GET||1", wantErr: false},
	}

	for _, tt := range tests {
		cmd, err := recorderDomain.ParseFrame(tt.frame)
		if err != nil {
			t.Fatalf("%q: %v", tt.frame, err)
		}
		err = validator.Apply(cmd)
		if tt.wantErr && !errors.Is(err, recorderDomain.ErrValidation) {
			t.Errorf("%q: expected ErrValidation, got %v", tt.frame, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%q: unexpected error %v", tt.frame, err)
		}
	}
}
