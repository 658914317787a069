package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire keywords and reason codes.
const (
	KeywordLog = "LOG"
	KeywordGet = "GET"

	ReasonInvalidSensorID = "INVALID_SENSOR_ID"

	fieldSeparator  = "|"
	recordSeparator = ";"
	frameTerminator = "\r\n"
)

// TimestampLayout is the wire form of timestamps. It carries no zone: timestamps are
// read and written in the recorder host's local zone, so hosts in different zones
// disagree about the instant a frame names.
const TimestampLayout = "2006-01-02T15:04:05"

// Command is a decoded inbound frame.
type Command interface {
	// Keyword returns the frame keyword, LOG or GET.
	Keyword() string
	// Sensor returns the sensor id exactly as it appeared on the wire.
	Sensor() string
	// Size returns the length of the frame the command was decoded from.
	Size() int
}

// LogCommand appends one reading.
type LogCommand struct {
	SensorID  string
	Timestamp int64
	Value     float64
	frameSize int
}

func (c *LogCommand) Keyword() string { return KeywordLog }
func (c *LogCommand) Sensor() string  { return c.SensorID }
func (c *LogCommand) Size() int       { return c.frameSize }

// GetCommand requests the newest Count readings of a sensor.
type GetCommand struct {
	SensorID  string
	Count     int
	frameSize int
}

func (c *GetCommand) Keyword() string { return KeywordGet }
func (c *GetCommand) Sensor() string  { return c.SensorID }
func (c *GetCommand) Size() int       { return c.frameSize }

// ParseFrame decodes one frame with its CRLF already stripped.
// Errors wrap ErrUnsupportedType or ErrMalformedMessage.
func ParseFrame(frame string) (Command, error) {
	if frame == "" {
		return nil, fmt.Errorf("%w: empty frame", ErrUnsupportedType)
	}

	fields := strings.Split(frame, fieldSeparator)
	size := len(frame) + len(frameTerminator)

	switch fields[0] {
	case KeywordLog:
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: LOG needs 4 fields, got %d", ErrMalformedMessage, len(fields))
		}
		ts, err := ParseTimestamp(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		value, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad value %q", ErrMalformedMessage, fields[3])
		}
		return &LogCommand{SensorID: fields[1], Timestamp: ts, Value: value, frameSize: size}, nil
	case KeywordGet:
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: GET needs 3 fields, got %d", ErrMalformedMessage, len(fields))
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: bad count %q", ErrMalformedMessage, fields[2])
		}
		return &GetCommand{SensorID: fields[1], Count: count, frameSize: size}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fields[0])
	}
}

// ParseTimestamp reads a TimestampLayout string in the local zone and returns epoch seconds.
func ParseTimestamp(s string) (int64, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	return t.Unix(), nil
}

// FormatTimestamp renders epoch seconds in TimestampLayout in the local zone.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).In(time.Local).Format(TimestampLayout)
}

// FormatValue renders a reading with six decimal places.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// EncodeTailReply renders a GET reply: the record count, then one ts|value entry per
// record, oldest first, with ';' between the count and every entry.
func EncodeTailReply(records []SensorRecord) []byte {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(records)))
	b.WriteString(recordSeparator)
	for i, r := range records {
		if i > 0 {
			b.WriteString(recordSeparator)
		}
		b.WriteString(FormatTimestamp(r.Timestamp))
		b.WriteString(fieldSeparator)
		b.WriteString(FormatValue(r.Value))
	}
	b.WriteString(frameTerminator)
	return []byte(b.String())
}

// EncodeError renders an ERROR reply with the given reason code.
func EncodeError(reason string) []byte {
	return []byte("ERROR" + fieldSeparator + reason + frameTerminator)
}

// EncodeLog renders a LOG frame. Used by clients and tests.
func EncodeLog(sensorID string, ts int64, value float64) []byte {
	return []byte(KeywordLog + fieldSeparator + sensorID + fieldSeparator +
		FormatTimestamp(ts) + fieldSeparator + strconv.FormatFloat(value, 'f', -1, 64) + frameTerminator)
}

// EncodeGet renders a GET frame.
func EncodeGet(sensorID string, count int) []byte {
	return []byte(KeywordGet + fieldSeparator + sensorID + fieldSeparator + strconv.Itoa(count) + frameTerminator)
}
