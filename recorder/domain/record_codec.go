package domain

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Fixed record layout: sensor id (NUL padded), timestamp, value. No padding between
// fields, host byte order.
const (
	SensorIDSize    = 32
	timestampOffset = SensorIDSize
	valueOffset     = timestampOffset + 8
	RecordSize      = valueOffset + 8
)

// EncodeRecord serializes r into its fixed on-disk form. Ids longer than
// MaxSensorIDLen are cut so the field always ends with a NUL.
func EncodeRecord(r SensorRecord) [RecordSize]byte {
	var buf [RecordSize]byte
	id := r.SensorID
	if len(id) > MaxSensorIDLen {
		id = id[:MaxSensorIDLen]
	}
	copy(buf[:SensorIDSize], id)
	binary.NativeEndian.PutUint64(buf[timestampOffset:valueOffset], uint64(r.Timestamp))
	binary.NativeEndian.PutUint64(buf[valueOffset:], math.Float64bits(r.Value))
	return buf
}

// DecodeRecord parses one record. It fails with *DecodeError unless buf is exactly
// RecordSize bytes long.
func DecodeRecord(buf []byte) (SensorRecord, error) {
	if len(buf) != RecordSize {
		return SensorRecord{}, &DecodeError{Size: len(buf)}
	}

	id := buf[:SensorIDSize]
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}

	return SensorRecord{
		SensorID:  SensorID(id),
		Timestamp: int64(binary.NativeEndian.Uint64(buf[timestampOffset:valueOffset])),
		Value:     math.Float64frombits(binary.NativeEndian.Uint64(buf[valueOffset:])),
	}, nil
}
