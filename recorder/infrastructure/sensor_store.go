package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"time"

	"github.com/spf13/afero"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

const storeRoot = "/"

// sensorLog is the append-only record file of one sensor. All access to the file goes
// through mu, so a reader never sees a record that is still being written and two
// appends never interleave. The handle stays open between calls and is closed by the
// idle sweep.
type sensorLog struct {
	mu       sync.Mutex
	id       recorderDomain.SensorID
	path     string
	fs       afero.Fs
	file     afero.File
	size     int64
	lastUsed time.Time
}

// openLocked opens the file if it is not open yet, creating it when missing.
func (l *sensorLog) openLocked() error {
	if l.file != nil {
		return nil
	}
	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return &recorderDomain.StoreError{Op: "open", SensorID: string(l.id), Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return &recorderDomain.StoreError{Op: "stat", SensorID: string(l.id), Err: err}
	}
	l.file = f
	l.size = info.Size()
	return nil
}

func (l *sensorLog) closeLocked() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return &recorderDomain.StoreError{Op: "close", SensorID: string(l.id), Err: err}
	}
	return nil
}

// append writes rec at the end of the last whole record and syncs it to stable storage.
// A torn trailing fragment left by a crash is overwritten.
func (l *sensorLog) append(rec recorderDomain.SensorRecord, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.openLocked(); err != nil {
		return err
	}
	l.lastUsed = now

	offset := l.size - l.size%recorderDomain.RecordSize
	buf := recorderDomain.EncodeRecord(rec)
	if _, err := l.file.WriteAt(buf[:], offset); err != nil {
		l.rollbackLocked(offset)
		return &recorderDomain.StoreError{Op: "write", SensorID: string(l.id), Err: err}
	}
	if err := l.file.Sync(); err != nil {
		l.rollbackLocked(offset)
		return &recorderDomain.StoreError{Op: "sync", SensorID: string(l.id), Err: err}
	}
	l.size = offset + recorderDomain.RecordSize
	return nil
}

// rollbackLocked cuts the file back to offset after a failed write. If even that fails
// the handle is dropped so the next call re-reads the real size.
func (l *sensorLog) rollbackLocked(offset int64) {
	if err := l.file.Truncate(offset); err != nil {
		_ = l.closeLocked()
		return
	}
	l.size = offset
}

// tail reads the newest count records. When the file ends in a partial record, or
// the read comes back short, the whole records read so far are returned together
// with an error wrapping ErrCorruption.
func (l *sensorLog) tail(count int, now time.Time) ([]recorderDomain.SensorRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.openLocked(); err != nil {
		return nil, err
	}
	l.lastUsed = now

	info, err := l.file.Stat()
	if err != nil {
		return nil, &recorderDomain.StoreError{Op: "stat", SensorID: string(l.id), Err: err}
	}
	size := info.Size()
	n := size / recorderDomain.RecordSize
	k := min(int64(max(count, 0)), n)
	records := make([]recorderDomain.SensorRecord, 0, k)
	if k == 0 {
		return records, nil
	}

	buf := make([]byte, k*recorderDomain.RecordSize)
	read, err := l.file.ReadAt(buf, (n-k)*recorderDomain.RecordSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &recorderDomain.StoreError{Op: "read", SensorID: string(l.id), Err: err}
	}

	for off := 0; off+recorderDomain.RecordSize <= read; off += recorderDomain.RecordSize {
		rec, err := recorderDomain.DecodeRecord(buf[off : off+recorderDomain.RecordSize])
		if err != nil {
			return records, fmt.Errorf("%w: %w", recorderDomain.ErrCorruption, err)
		}
		records = append(records, rec)
	}

	if read < len(buf) {
		return records, fmt.Errorf("%w: read %d of %d bytes", recorderDomain.ErrCorruption, read, len(buf))
	}
	if size%recorderDomain.RecordSize != 0 {
		return records, fmt.Errorf("%w: %d trailing bytes ignored", recorderDomain.ErrCorruption, size%recorderDomain.RecordSize)
	}
	return records, nil
}

// closeIfIdle closes the handle when it has not been used since before deadline.
func (l *sensorLog) closeIfIdle(deadline time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.lastUsed.After(deadline) {
		return false, nil
	}
	return true, l.closeLocked()
}

// SensorStore keeps one append-only log per sensor under the root of its filesystem
// and owns every handle to those files.
type SensorStore struct {
	fs          afero.Fs
	logger      recorderDomain.Logger
	idleTimeout recorderDomain.IdleTimeout
	known       *KnownSensors
	now         func() time.Time

	logsLock sync.Mutex
	logs     map[recorderDomain.SensorID]*sensorLog
}

// Append canonicalises sensorID, appends one record to its log and registers the
// sensor as known. The record is on stable storage when Append returns nil.
func (s *SensorStore) Append(ctx context.Context, sensorID string, timestamp int64, value float64) error {
	id, err := recorderDomain.NewSensorID(sensorID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := recorderDomain.SensorRecord{SensorID: id, Timestamp: timestamp, Value: value}
	if err := s.log(id).append(rec, s.now()); err != nil {
		return err
	}
	if s.known.Add(id) {
		s.logger.Info("new sensor %s", id)
	}
	return nil
}

// Tail returns up to count of the newest records of the sensor, oldest first.
// It fails with ErrUnknownSensor when the sensor has no log. A count of zero or
// less yields an empty result.
func (s *SensorStore) Tail(ctx context.Context, sensorID string, count int) ([]recorderDomain.SensorRecord, error) {
	id, err := recorderDomain.NewSensorID(sensorID)
	if err != nil || !s.known.Has(id) {
		return nil, fmt.Errorf("%w: %q", recorderDomain.ErrUnknownSensor, sensorID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.log(id).tail(count, s.now())
	if errors.Is(err, recorderDomain.ErrCorruption) {
		s.logger.Error("log of %s: %s", id, err.Error())
		return records, nil
	}
	return records, err
}

// Known reports whether sensorID has a log.
func (s *SensorStore) Known(sensorID string) bool {
	id, err := recorderDomain.NewSensorID(sensorID)
	if err != nil {
		return false
	}
	return s.known.Has(id)
}

// Sensors lists every known sensor id in lexical order.
func (s *SensorStore) Sensors() []recorderDomain.SensorID {
	return s.known.List()
}

// log returns the log of id, creating its in-memory entry on first use.
func (s *SensorStore) log(id recorderDomain.SensorID) *sensorLog {
	s.logsLock.Lock()
	defer s.logsLock.Unlock()

	l, ok := s.logs[id]
	if !ok {
		l = &sensorLog{
			id:   id,
			path: path.Join(storeRoot, LogFileName(id)),
			fs:   s.fs,
		}
		s.logs[id] = l
	}
	return l
}

func (s *SensorStore) snapshot() []*sensorLog {
	s.logsLock.Lock()
	defer s.logsLock.Unlock()
	logs := make([]*sensorLog, 0, len(s.logs))
	for _, l := range s.logs {
		logs = append(logs, l)
	}
	return logs
}

// CloseIdle closes every handle unused for at least the idle timeout and returns
// how many were closed.
func (s *SensorStore) CloseIdle() int {
	deadline := s.now().Add(-time.Duration(s.idleTimeout))
	closed := 0
	for _, l := range s.snapshot() {
		ok, err := l.closeIfIdle(deadline)
		if err != nil {
			s.logger.Error("error on closing idle log: %s", err.Error())
		}
		if ok {
			closed++
		}
	}
	return closed
}

// Start runs the idle handle sweep until ctx is cancelled, then closes every handle.
func (s *SensorStore) Start(ctx context.Context) {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("error on closing sensor store: %s", err.Error())
		}
	}()

	ticker := time.NewTicker(max(time.Duration(s.idleTimeout)/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CloseIdle(); n > 0 {
				s.logger.Info("closed %d idle sensor logs", n)
			}
		}
	}
}

// Close releases every open handle. The store reopens logs on demand afterwards.
func (s *SensorStore) Close() error {
	var errs []error
	for _, l := range s.snapshot() {
		l.mu.Lock()
		if err := l.closeLocked(); err != nil {
			errs = append(errs, err)
		}
		l.mu.Unlock()
	}
	return errors.Join(errs...)
}

// scan registers every sensor that already has a log file under the root.
func (s *SensorStore) scan() error {
	entries, err := afero.ReadDir(s.fs, storeRoot)
	if err != nil {
		return fmt.Errorf("error on scanning data directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := SensorIDFromFileName(entry.Name())
		if !ok {
			if path.Ext(entry.Name()) == LogFileExt {
				s.logger.Error("ignoring log file with undecodable name: %s", entry.Name())
			}
			continue
		}
		if entry.Size()%recorderDomain.RecordSize != 0 {
			s.logger.Error("log of %s ends with a partial record (%d bytes)", id, entry.Size())
		}
		s.known.Add(id)
	}
	return nil
}

// OpenSensorStore creates a store over fs, whose root holds the sensor logs, and
// registers the sensors whose logs already exist.
func OpenSensorStore(
	fs afero.Fs,
	idleTimeout recorderDomain.IdleTimeout,
	logger recorderDomain.Logger,
) (*SensorStore, error) {
	s := &SensorStore{
		fs:          fs,
		logger:      logger,
		idleTimeout: idleTimeout,
		known:       NewKnownSensors(),
		now:         time.Now,
		logs:        make(map[recorderDomain.SensorID]*sensorLog),
	}
	if err := s.scan(); err != nil {
		return nil, err
	}
	logger.Info("found %d sensor logs", s.known.Len())
	return s, nil
}

// NewOsFs returns the filesystem of the data directory on disk.
func NewOsFs(dir recorderDomain.DataDir) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), string(dir))
}
