package domain

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestStdLogger_Plain(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(log.New(&buf, "", 0), false)

	logger.Info("listening on %s", ":9000")
	logger.Error("append for %s failed", "temp-01")

	want := "INFO: listening on :9000\nERROR: append for temp-01 failed\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestStdLogger_Colored(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(log.New(&buf, "", 0), true)

	logger.Error("boom")
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected ANSI colour codes, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "ERROR:") || !strings.HasSuffix(buf.String(), " boom\n") {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestSafeFunctionRun(t *testing.T) {
	logger := &mockLogger{}

	if err := SafeFunctionRun(func() error { return nil }, logger); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	want := errors.New("plain failure")
	if err := SafeFunctionRun(func() error { return want }, logger); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}

	err := SafeFunctionRun(func() error { panic("kaboom") }, logger)
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("expected panic to become an error, got %v", err)
	}
	if len(logger.GetErrors()) != 1 {
		t.Errorf("expected the panic to be logged once, got %v", logger.GetErrors())
	}
}

func TestInterceptors_Apply(t *testing.T) {
	var nilChain *Interceptors[Command]
	if err := nilChain.Apply(&GetCommand{}); err != nil {
		t.Errorf("nil chain must accept, got %v", err)
	}

	chain := WithInterceptors[Command](rejectAll{})
	if err := chain.Apply(&GetCommand{}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
