package framed

import (
	"errors"
)

var (
	// ErrMarkerEmpty indicates the config has no marker bytes.
	ErrMarkerEmpty = errors.New("marker is empty")
	// ErrFrameTooShort indicates the frame size leaves no room for payload.
	ErrFrameTooShort = errors.New("frame size must exceed marker size")
	// ErrPayloadSize indicates an encode with a wrong-size payload.
	ErrPayloadSize = errors.New("payload size mismatch")
)
