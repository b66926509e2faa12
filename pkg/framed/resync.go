package framed

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// FrameHandler is called when a frame is recovered.
type FrameHandler interface {
	HandleFrame(context.Context, Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame Frame) {
	f(ctx, frame)
}

// State indicates what the framing loop is doing.
type State int

const (
	// StateWaiting means less than one frame of data is buffered.
	StateWaiting State = iota
	// StateScanning means a marker search is in progress.
	StateScanning
	// StateSynced means the last search cycle emitted a frame.
	StateSynced
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateScanning:
		return "scanning"
	case StateSynced:
		return "synced"
	}
	return "unknown"
}

// StateNotifier is called when the framing loop state changed.
type StateNotifier interface {
	StateChanged(context.Context, State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state State) {
	f(ctx, state)
}

// Stats counts framing activity. All values are cumulative since Run
// started.
type Stats struct {
	// Frames is the number of frames emitted.
	Frames uint64
	// Bytes is the number of bytes consumed from the ingress buffer.
	Bytes uint64
	// Discarded is the number of bytes dropped to realign, both the
	// front-trim of long windows and entire short windows.
	Discarded uint64
	// ShortWindows is the number of windows abandoned because a marker
	// terminated them before a full frame accumulated.
	ShortWindows uint64
}

// Resynchronizer converts a byte stream with unknown alignment into
// marker-terminated fixed-size frames. It recovers from any amount of
// leading garbage and from lost bytes by discarding data up to the next
// marker occurrence.
type Resynchronizer struct {
	Buffer   *Buffer
	Handler  FrameHandler
	Notifier StateNotifier
	Config   Config

	state State
	stats Stats
	lock  sync.RWMutex
}

// NewResynchronizer creates a Resynchronizer over an ingress buffer.
func NewResynchronizer(conf Config, buf *Buffer) *Resynchronizer {
	return &Resynchronizer{Buffer: buf, Config: conf}
}

// State gets the current framing state.
func (r *Resynchronizer) State() State {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state
}

// Stats gets a snapshot of the counters.
func (r *Resynchronizer) Stats() Stats {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.stats
}

// Run executes the framing loop until ctx is canceled. It is the sole
// consumer of the ingress buffer. Cancellation takes effect between
// byte-level steps and discards any in-progress scan window; it is the
// only error ever returned after a valid Config.
func (r *Resynchronizer) Run(ctx context.Context) error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	idle := r.Config.IdleWait
	if idle <= 0 {
		idle = DefaultIdleWait
	}
	window := make([]byte, 0, 2*r.Config.FrameSize)
	for {
		// Scanning below is self-sufficient; waiting for a full frame of
		// buffered data just avoids search cycles that cannot complete yet.
		r.setState(ctx, StateWaiting)
		for r.Buffer.Len() < r.Config.FrameSize {
			if err := r.idle(ctx, idle); err != nil {
				return err
			}
		}

		r.setState(ctx, StateScanning)
		window = window[:0]
		for !r.Config.EndsWithMarker(window) {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, ok := r.Buffer.TryPop()
			if !ok {
				if err := r.idle(ctx, idle); err != nil {
					return err
				}
				continue
			}
			window = append(window, c)
		}

		switch {
		case len(window) < r.Config.FrameSize:
			// Marker arrived before a full payload: bytes were lost
			// upstream. The whole window is dropped, no partial recovery.
			glog.V(3).Infof("short window (%d < %d), discarded",
				len(window), r.Config.FrameSize)
			r.count(len(window), len(window), true)
			continue
		case len(window) > r.Config.FrameSize:
			// Garbage or a stale partial frame precedes the real one.
			// Realign to the most recent marker occurrence.
			excess := len(window) - r.Config.FrameSize
			glog.V(3).Infof("dropped %d leading bytes to realign", excess)
			r.count(len(window), excess, false)
			window = window[excess:]
		default:
			r.count(len(window), 0, false)
		}

		frame := make(Frame, r.Config.FrameSize)
		copy(frame, window)
		r.emit(ctx, frame)
	}
}

func (r *Resynchronizer) idle(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.Buffer.Wakeup():
	case <-time.After(d):
	}
	return nil
}

func (r *Resynchronizer) setState(ctx context.Context, state State) {
	var notifier StateNotifier
	r.lock.Lock()
	if r.state != state {
		r.state = state
		notifier = r.Notifier
	}
	r.lock.Unlock()
	if notifier != nil {
		notifier.StateChanged(ctx, state)
	}
}

func (r *Resynchronizer) count(consumed, discarded int, short bool) {
	r.lock.Lock()
	r.stats.Bytes += uint64(consumed)
	r.stats.Discarded += uint64(discarded)
	if short {
		r.stats.ShortWindows++
	}
	r.lock.Unlock()
}

func (r *Resynchronizer) emit(ctx context.Context, frame Frame) {
	r.lock.Lock()
	r.stats.Frames++
	r.lock.Unlock()
	r.setState(ctx, StateSynced)
	if h := r.Handler; h != nil {
		h.HandleFrame(ctx, frame)
	}
}
