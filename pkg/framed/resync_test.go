package framed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testConf = Config{FrameSize: 22, Marker: []byte{0x68, 0x69}}

type resyncTestEnv struct {
	t      *testing.T
	buf    *Buffer
	resync *Resynchronizer
	frames chan Frame
	states chan State
	cancel func()
	doneCh chan error
}

func newResyncTestEnv(t *testing.T, conf Config) *resyncTestEnv {
	env := &resyncTestEnv{
		t:      t,
		buf:    NewBuffer(),
		frames: make(chan Frame, 64),
		states: make(chan State, 64),
	}
	env.resync = NewResynchronizer(conf, env.buf)
	env.resync.Handler = HandleFrameFunc(func(_ context.Context, f Frame) {
		env.frames <- f
	})
	env.resync.Notifier = StateChangedFunc(func(_ context.Context, s State) {
		env.states <- s
	})
	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	env.doneCh = make(chan error, 1)
	go func() { env.doneCh <- env.resync.Run(ctx) }()
	return env
}

func (e *resyncTestEnv) stop() {
	e.cancel()
	select {
	case err := <-e.doneCh:
		require.Equal(e.t, context.Canceled, err)
	case <-time.After(2 * time.Second):
		e.t.Fatal("framing loop did not stop")
	}
}

func (e *resyncTestEnv) push(bs ...byte) {
	e.buf.Push(bs)
}

// pushChunked pushes bs split into chunks of at most n bytes.
func (e *resyncTestEnv) pushChunked(n int, bs []byte) {
	for len(bs) > 0 {
		if n > len(bs) {
			n = len(bs)
		}
		e.buf.Push(bs[:n])
		bs = bs[n:]
	}
}

func (e *resyncTestEnv) expectFrame(want []byte) {
	select {
	case f := <-e.frames:
		require.Equal(e.t, want, []byte(f))
	case <-time.After(2 * time.Second):
		e.t.Fatalf("timed out waiting for frame %x", want)
	}
}

func (e *resyncTestEnv) expectNoFrame() {
	select {
	case f := <-e.frames:
		e.t.Fatalf("unexpected frame %x", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func (e *resyncTestEnv) expectState(want State) {
	for {
		select {
		case s := <-e.states:
			if s == want {
				return
			}
		case <-time.After(2 * time.Second):
			e.t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

// testFrame builds a well-formed frame with a payload derived from seq.
// Payload bytes stay in 0x20..0x5f so they can never collide with the
// markers used in these tests.
func testFrame(t *testing.T, conf Config, seq byte) []byte {
	payload := make([]byte, conf.PayloadSize())
	for i := range payload {
		payload[i] = 0x20 + byte((int(seq)+i)%0x40)
	}
	f, err := conf.Encode(payload)
	require.NoError(t, err)
	return f
}

func TestResyncFromArbitraryOffset(t *testing.T) {
	for k := 0; k < testConf.FrameSize; k++ {
		t.Run(fmt.Sprintf("offset-%d", k), func(t *testing.T) {
			env := newResyncTestEnv(t, testConf)
			defer env.stop()

			var stream []byte
			for i := 0; i < k; i++ {
				stream = append(stream, 0xaa)
			}
			const frameCount = 3
			var want [][]byte
			for n := 0; n < frameCount; n++ {
				f := testFrame(t, testConf, byte(n*20+1))
				stream = append(stream, f...)
				want = append(want, f)
			}
			env.push(stream...)
			for _, f := range want {
				env.expectFrame(f)
			}
			env.expectNoFrame()
		})
	}
}

func TestLossTolerance(t *testing.T) {
	for drop := 1; drop < testConf.PayloadSize(); drop++ {
		t.Run(fmt.Sprintf("drop-%d", drop), func(t *testing.T) {
			env := newResyncTestEnv(t, testConf)
			defer env.stop()

			truncated := testFrame(t, env.resync.Config, 1)[drop:]
			intact := testFrame(t, env.resync.Config, 101)
			env.push(append(truncated, intact...)...)
			env.expectFrame(intact)
			env.expectNoFrame()

			stats := env.resync.Stats()
			require.Equal(t, uint64(1), stats.Frames)
			require.Equal(t, uint64(1), stats.ShortWindows)
			require.Equal(t, uint64(testConf.FrameSize-drop), stats.Discarded)
		})
	}
}

func TestGarbageTolerance(t *testing.T) {
	env := newResyncTestEnv(t, testConf)
	defer env.stop()

	garbage := make([]byte, 100)
	for i := range garbage {
		garbage[i] = 0x55
	}
	frame := testFrame(t, testConf, 7)
	env.push(append(garbage, frame...)...)
	env.expectFrame(frame)

	stats := env.resync.Stats()
	require.Equal(t, uint64(len(garbage)), stats.Discarded)
}

func TestOrderPreservation(t *testing.T) {
	for _, chunk := range []int{1, 3, 7, 22, 1000} {
		t.Run(fmt.Sprintf("chunk-%d", chunk), func(t *testing.T) {
			env := newResyncTestEnv(t, testConf)
			defer env.stop()

			const frameCount = 8
			var stream []byte
			var want [][]byte
			for n := 0; n < frameCount; n++ {
				f := testFrame(t, testConf, byte(n*25+1))
				stream = append(stream, f...)
				want = append(want, f)
			}
			env.pushChunked(chunk, stream)
			for _, f := range want {
				env.expectFrame(f)
			}
			env.expectNoFrame()
		})
	}
}

func TestByteAtATimeEquivalence(t *testing.T) {
	zero, err := testConf.Encode(make([]byte, testConf.PayloadSize()))
	require.NoError(t, err)

	collect := func(push func(env *resyncTestEnv)) []byte {
		env := newResyncTestEnv(t, testConf)
		defer env.stop()
		push(env)
		select {
		case f := <-env.frames:
			return f
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for frame")
			return nil
		}
	}

	oneShot := collect(func(env *resyncTestEnv) {
		env.push(zero...)
	})
	byteWise := collect(func(env *resyncTestEnv) {
		for _, c := range zero {
			env.push(c)
		}
	})
	require.Equal(t, []byte(zero), oneShot)
	require.Equal(t, oneShot, byteWise)
}

func TestGarbageThenTwoFrames(t *testing.T) {
	env := newResyncTestEnv(t, testConf)
	defer env.stop()

	first := testFrame(t, testConf, 1)
	second := testFrame(t, testConf, 201)
	stream := append([]byte{0xde, 0xad, 0xbe, 0xef, 0x42}, first...)
	stream = append(stream, second...)
	env.push(stream...)
	env.expectFrame(first)
	env.expectFrame(second)
	env.expectNoFrame()
}

func TestLossThenIntactFrame(t *testing.T) {
	env := newResyncTestEnv(t, testConf)
	defer env.stop()

	// first 3 payload bytes lost in transit, 19 bytes arrive
	corrupted := testFrame(t, testConf, 1)[3:]
	intact := testFrame(t, testConf, 101)
	env.push(corrupted...)
	env.push(intact...)
	env.expectFrame(intact)
	env.expectNoFrame()
	require.Equal(t, uint64(1), env.resync.Stats().Frames)
}

func TestMarkerInsidePayload(t *testing.T) {
	// A payload containing the marker bytes is indistinguishable from a
	// boundary: the scanner matches early, abandons the rest of the frame
	// as short windows, and locks onto the next clean frame.
	env := newResyncTestEnv(t, testConf)
	defer env.stop()

	payload := make([]byte, testConf.PayloadSize())
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	payload[5], payload[6] = 0x68, 0x69
	poisoned, err := testConf.Encode(payload)
	require.NoError(t, err)
	clean := testFrame(t, testConf, 201)

	env.push(append(poisoned, clean...)...)
	env.expectFrame(clean)
	env.expectNoFrame()
	require.True(t, env.resync.Stats().ShortWindows >= 1)
}

func TestStateNotifications(t *testing.T) {
	env := newResyncTestEnv(t, testConf)
	defer env.stop()

	frame := testFrame(t, testConf, 1)
	env.push(frame...)
	env.expectState(StateScanning)
	env.expectState(StateSynced)
	env.expectFrame(frame)
	env.expectState(StateWaiting)
	require.Equal(t, StateWaiting, env.resync.State())
}

func TestCleanCancellation(t *testing.T) {
	env := newResyncTestEnv(t, testConf)
	// partial frame buffered, loop is mid-scan or waiting
	env.push(testFrame(t, testConf, 1)[:10]...)
	time.Sleep(20 * time.Millisecond)
	env.expectNoFrame()
	env.stop()
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	r := NewResynchronizer(Config{FrameSize: 8}, NewBuffer())
	require.Equal(t, ErrMarkerEmpty, r.Run(context.Background()))
}

func TestLongerMarker(t *testing.T) {
	conf := Config{FrameSize: 8, Marker: []byte{0x01, 0x02, 0x03}}
	env := newResyncTestEnv(t, conf)
	defer env.stop()

	frame := testFrame(t, conf, 0x10)
	env.push(append([]byte{0xff, 0xfe}, frame...)...)
	env.expectFrame(frame)
	env.expectNoFrame()
}

func TestStatsExactFrames(t *testing.T) {
	env := newResyncTestEnv(t, testConf)
	defer env.stop()

	first := testFrame(t, testConf, 1)
	second := testFrame(t, testConf, 31)
	env.push(append(append([]byte{}, first...), second...)...)
	env.expectFrame(first)
	env.expectFrame(second)

	stats := env.resync.Stats()
	require.Equal(t, uint64(2), stats.Frames)
	require.Equal(t, uint64(2*testConf.FrameSize), stats.Bytes)
	require.Equal(t, uint64(0), stats.Discarded)
	require.Equal(t, uint64(0), stats.ShortWindows)
}
