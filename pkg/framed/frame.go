package framed

import (
	"bytes"
	"time"
)

// Frame is one fixed-size record recovered from the stream. Its length is
// always Config.FrameSize and its trailing bytes always equal the marker.
type Frame []byte

// Config defines the framing convention of a stream. It is fixed at
// construction and shared by senders and receivers of the same link.
type Config struct {
	// FrameSize is the total frame length in bytes, marker included.
	FrameSize int
	// Marker is the exact byte sequence terminating every frame.
	Marker []byte
	// IdleWait bounds how long the framing loop sleeps when the ingress
	// buffer runs dry before re-checking. Zero selects DefaultIdleWait.
	IdleWait time.Duration
}

// DefaultIdleWait is the fallback re-check interval of the framing loop.
const DefaultIdleWait = 10 * time.Millisecond

// Validate checks the convention is usable.
func (c Config) Validate() error {
	if len(c.Marker) == 0 {
		return ErrMarkerEmpty
	}
	if c.FrameSize <= len(c.Marker) {
		return ErrFrameTooShort
	}
	return nil
}

// PayloadSize is the number of payload bytes preceding the marker.
func (c Config) PayloadSize() int {
	return c.FrameSize - len(c.Marker)
}

// EndsWithMarker reports whether b currently ends with the marker.
func (c Config) EndsWithMarker(b []byte) bool {
	if len(b) < len(c.Marker) {
		return false
	}
	return bytes.Equal(b[len(b)-len(c.Marker):], c.Marker)
}

// Payload returns the payload portion of a frame.
func (c Config) Payload(f Frame) []byte {
	return f[:c.PayloadSize()]
}

// Encode builds a well-formed frame from a payload of exactly PayloadSize
// bytes.
func (c Config) Encode(payload []byte) (Frame, error) {
	if len(payload) != c.PayloadSize() {
		return nil, ErrPayloadSize
	}
	f := make(Frame, 0, c.FrameSize)
	f = append(f, payload...)
	f = append(f, c.Marker...)
	return f, nil
}
