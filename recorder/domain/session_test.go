package domain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(_ string, _ ...interface{}) {}

func (m *mockLogger) Error(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(msg, args...))
}

func (m *mockLogger) GetErrors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.errors...)
}

type memStore struct {
	mu          sync.Mutex
	records     map[string][]SensorRecord
	appendErr   error
	tailErr     error
	panicOnTail bool
	appends     int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]SensorRecord)}
}

func (m *memStore) Append(_ context.Context, sensorID string, timestamp int64, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records[sensorID] = append(m.records[sensorID], SensorRecord{SensorID: SensorID(sensorID), Timestamp: timestamp, Value: value})
	return nil
}

func (m *memStore) Tail(_ context.Context, sensorID string, count int) ([]SensorRecord, error) {
	if m.panicOnTail {
		panic("tail exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tailErr != nil {
		return nil, m.tailErr
	}
	recs, ok := m.records[sensorID]
	if !ok {
		return nil, ErrUnknownSensor
	}
	k := min(max(count, 0), len(recs))
	return append([]SensorRecord{}, recs[len(recs)-k:]...), nil
}

func (m *memStore) Appends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appends
}

type rejectAll struct{}

func (rejectAll) Apply(_ Command) error {
	return fmt.Errorf("%w: rejected", ErrValidation)
}

// startSession runs a session over one end of a pipe and returns the other end.
func startSession(t *testing.T, ctx context.Context, store Store, chain *Interceptors[Command], logger Logger) (net.Conn, *Session, <-chan error) {
	t.Helper()
	server, client := net.Pipe()
	session := NewSession(server, "pipe", store, chain, 1024, logger)
	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx)
	}()
	t.Cleanup(func() { _ = client.Close() })
	return client, session, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop in time")
		return nil
	}
}

func send(t *testing.T, conn net.Conn, frame string) {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.WriteString(conn, frame); err != nil {
		t.Fatalf("write %q: %v", frame, err)
	}
}

func readReply(t *testing.T, r *bufio.Reader, conn net.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	return line
}

func TestSession_LogThenGet(t *testing.T) {
	store := newMemStore()
	client, _, done := startSession(t, context.Background(), store, nil, &mockLogger{})
	reader := bufio.NewReader(client)

	send(t, client, "LOG|temp-01|2024-01-01T00:00:00|21.5\r\n")
	send(t, client, "GET|temp-01|1\r\n")

	if got := readReply(t, reader, client); got != "1;2024-01-01T00:00:00|21.500000\r\n" {
		t.Errorf("unexpected reply %q", got)
	}

	_ = client.Close()
	if err := waitDone(t, done); err != nil {
		t.Errorf("expected clean close, got %v", err)
	}
}

func TestSession_TailWindow(t *testing.T) {
	store := newMemStore()
	client, _, _ := startSession(t, context.Background(), store, nil, &mockLogger{})
	reader := bufio.NewReader(client)

	for i := 1; i <= 10; i++ {
		send(t, client, fmt.Sprintf("LOG|s|2024-01-01T00:00:%02d|%d\r\n", i, i))
	}
	send(t, client, "GET|s|3\r\n")

	want := "3;2024-01-01T00:00:08|8.000000;2024-01-01T00:00:09|9.000000;2024-01-01T00:00:10|10.000000\r\n"
	if got := readReply(t, reader, client); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSession_UnknownSensor(t *testing.T) {
	client, _, _ := startSession(t, context.Background(), newMemStore(), nil, &mockLogger{})

	send(t, client, "GET|unknown-sensor|5\r\n")
	if got := readReply(t, bufio.NewReader(client), client); got != "ERROR|INVALID_SENSOR_ID\r\n" {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestSession_BadFramesAreDroppedWithoutReply(t *testing.T) {
	logger := &mockLogger{}
	store := newMemStore()
	client, session, _ := startSession(t, context.Background(), store, nil, logger)

	send(t, client, "\r\n")
	send(t, client, "PING\r\n")
	send(t, client, "LOG|a|yesterday|1\r\n")
	send(t, client, "GET|a|many\r\n")
	send(t, client, "GET|nobody|1\r\n")

	// the first reply on the wire belongs to the last frame
	if got := readReply(t, bufio.NewReader(client), client); got != "ERROR|INVALID_SENSOR_ID\r\n" {
		t.Errorf("unexpected reply %q", got)
	}
	if store.Appends() != 0 {
		t.Errorf("expected no appends, got %d", store.Appends())
	}
	if n := len(logger.GetErrors()); n != 4 {
		t.Errorf("expected 4 logged errors, got %d: %v", n, logger.GetErrors())
	}
	if session.State() == StateClosed {
		t.Error("session should stay open after bad frames")
	}
}

func TestSession_AppendFailureKeepsConnection(t *testing.T) {
	logger := &mockLogger{}
	store := newMemStore()
	store.appendErr = &StoreError{Op: "write", SensorID: "a", Err: errors.New("disk full")}
	client, _, _ := startSession(t, context.Background(), store, nil, logger)

	send(t, client, "LOG|a|2024-01-01T00:00:00|1\r\n")
	send(t, client, "GET|a|1\r\n")

	if got := readReply(t, bufio.NewReader(client), client); got != "ERROR|INVALID_SENSOR_ID\r\n" {
		t.Errorf("unexpected reply %q", got)
	}
	if len(logger.GetErrors()) == 0 {
		t.Error("expected append failure to be logged")
	}
}

func TestSession_InterceptorRejects(t *testing.T) {
	store := newMemStore()
	chain := WithInterceptors[Command](rejectAll{})
	client, _, done := startSession(t, context.Background(), store, chain, &mockLogger{})

	send(t, client, "LOG|a|2024-01-01T00:00:00|1\r\n")
	_ = client.Close()
	_ = waitDone(t, done)

	if store.Appends() != 0 {
		t.Errorf("expected rejected command not to reach the store, got %d appends", store.Appends())
	}
}

func TestSession_StatesAndEOF(t *testing.T) {
	server, client := net.Pipe()
	session := NewSession(server, "pipe", newMemStore(), nil, 1024, &mockLogger{})
	if session.State() != StateConnected {
		t.Fatalf("expected connected, got %s", session.State())
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()

	send(t, client, "LOG|a|2024-01-01T00:00:00|1\r\n")
	_ = client.Close()

	if err := waitDone(t, done); err != nil {
		t.Errorf("expected nil on peer close, got %v", err)
	}
	if session.State() != StateClosed {
		t.Errorf("expected closed, got %s", session.State())
	}
}

func TestSession_FrameTooLong(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = client.Close() }()
	session := NewSession(server, "pipe", newMemStore(), nil, MinFrameSize, &mockLogger{})

	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background()) }()

	go func() {
		_, _ = io.WriteString(client, "LOG|"+strings.Repeat("x", 200)+"\r\n")
	}()

	if err := waitDone(t, done); !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}

func TestSession_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, session, done := startSession(t, ctx, newMemStore(), nil, &mockLogger{})

	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := waitDone(t, done); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if session.State() != StateClosed {
		t.Errorf("expected closed, got %s", session.State())
	}
}

func TestSession_PanicEndsOnlyTheSession(t *testing.T) {
	logger := &mockLogger{}
	store := newMemStore()
	store.panicOnTail = true
	client, _, done := startSession(t, context.Background(), store, nil, logger)

	send(t, client, "GET|a|1\r\n")

	err := waitDone(t, done)
	if err == nil || !strings.Contains(err.Error(), "tail exploded") {
		t.Errorf("expected panic error, got %v", err)
	}
}

type failingConn struct {
	r io.Reader
}

func (c *failingConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *failingConn) Write(_ []byte) (int, error) { return 0, errors.New("broken pipe") }
func (c *failingConn) Close() error                { return nil }

func TestSession_WriteFailureCloses(t *testing.T) {
	conn := &failingConn{r: strings.NewReader("GET|a|1\r\nGET|a|1\r\n")}
	store := newMemStore()
	session := NewSession(conn, "fake", store, nil, 1024, &mockLogger{})

	err := session.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Errorf("expected write error, got %v", err)
	}
	if session.State() != StateClosed {
		t.Errorf("expected closed, got %s", session.State())
	}
}

func TestScanFrames(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("a\r\nb|c\r\n\r\nd\ne\r\ntrailing"))
	scanner.Split(ScanFrames)

	var frames []string
	for scanner.Scan() {
		frames = append(frames, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	want := []string{"a", "b|c", "", "d\ne"}
	if strings.Join(frames, ",") != strings.Join(want, ",") || len(frames) != len(want) {
		t.Errorf("expected %q, got %q", want, frames)
	}
}

func TestSessionState_String(t *testing.T) {
	states := map[SessionState]string{
		StateConnected:   "connected",
		StateReading:     "reading",
		StateDispatching: "dispatching",
		StateClosed:      "closed",
		SessionState(9):  "state(9)",
	}
	for state, want := range states {
		if state.String() != want {
			t.Errorf("expected %q, got %q", want, state.String())
		}
	}
}
