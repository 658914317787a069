package domain

import "errors"

// FrameSize is the largest inbound frame, in bytes and including CRLF, a session accepts.
type FrameSize uint32

// MinFrameSize leaves room for a LOG frame carrying a full-length sensor id.
const MinFrameSize = 64

// NewFrameSize creates a new FrameSize instance.
func NewFrameSize(size int) (FrameSize, error) {
	if size < MinFrameSize {
		return 0, errors.New("frame size must be at least 64 bytes")
	}

	return FrameSize(size), nil
}
