package infrastructure

import (
	"strings"

	recorderDomain "github.com/samoilenko/sensorlog/recorder/domain"
)

// LogFileExt is the extension of every sensor log file.
const LogFileExt = ".bin"

const upperHex = "0123456789ABCDEF"

func isFileNameSafe(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.'
}

// LogFileName maps a sensor id to its log file name. Bytes outside [A-Za-z0-9._-]
// and a leading '.' are written as %XX, so the name never contains a path separator
// and never hides the file.
func LogFileName(id recorderDomain.SensorID) string {
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isFileNameSafe(c) && !(i == 0 && c == '.') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	b.WriteString(LogFileExt)
	return b.String()
}

// SensorIDFromFileName inverts LogFileName. It reports false for names LogFileName
// could not have produced.
func SensorIDFromFileName(name string) (recorderDomain.SensorID, bool) {
	escaped, ok := strings.CutSuffix(name, LogFileExt)
	if !ok || escaped == "" {
		return "", false
	}

	raw := make([]byte, 0, len(escaped))
	for i := 0; i < len(escaped); i++ {
		if escaped[i] != '%' {
			raw = append(raw, escaped[i])
			continue
		}
		if i+2 >= len(escaped) {
			return "", false
		}
		hi, lo := unhex(escaped[i+1]), unhex(escaped[i+2])
		if hi < 0 || lo < 0 {
			return "", false
		}
		raw = append(raw, byte(hi<<4|lo))
		i += 2
	}

	id, err := recorderDomain.NewSensorID(string(raw))
	if err != nil || string(id) != string(raw) || LogFileName(id) != name {
		return "", false
	}
	return id, true
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
