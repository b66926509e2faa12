package framed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name string
		conf Config
		err  error
	}{
		{name: "valid", conf: Config{FrameSize: 22, Marker: []byte("hi")}},
		{name: "no marker", conf: Config{FrameSize: 22}, err: ErrMarkerEmpty},
		{name: "marker fills frame", conf: Config{FrameSize: 2, Marker: []byte("hi")}, err: ErrFrameTooShort},
		{name: "marker exceeds frame", conf: Config{FrameSize: 2, Marker: []byte("hello")}, err: ErrFrameTooShort},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.err, tc.conf.Validate())
		})
	}
}

func TestConfigEncode(t *testing.T) {
	conf := Config{FrameSize: 6, Marker: []byte{0x68, 0x69}}
	require.Equal(t, 4, conf.PayloadSize())

	f, err := conf.Encode([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, []byte(f), conf.FrameSize)
	require.True(t, conf.EndsWithMarker(f))
	require.Equal(t, []byte{1, 2, 3, 4}, conf.Payload(f))

	_, err = conf.Encode([]byte{1, 2, 3})
	require.Equal(t, ErrPayloadSize, err)
}

func TestEndsWithMarker(t *testing.T) {
	conf := Config{FrameSize: 4, Marker: []byte{0x68, 0x69}}
	require.False(t, conf.EndsWithMarker(nil))
	require.False(t, conf.EndsWithMarker([]byte{0x69}))
	require.False(t, conf.EndsWithMarker([]byte{0x69, 0x68}))
	require.True(t, conf.EndsWithMarker([]byte{0x68, 0x69}))
	require.True(t, conf.EndsWithMarker([]byte{0, 0x68, 0x69}))
	require.False(t, conf.EndsWithMarker([]byte{0x68, 0x69, 0}))
}
