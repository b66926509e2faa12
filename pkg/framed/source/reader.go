// Package source provides byte sources feeding an ingress buffer from
// various transports.
package source

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/framed.go/pkg/framed"
	fx "github.com/robotalks/framed.go/pkg/framework"
)

// DefaultChunkSize is the read buffer size of a Reader.
const DefaultChunkSize = 256

// Reader pumps bytes from an io.Reader into the ingress buffer. The
// reader's chunk boundaries carry no meaning: they never align with frame
// or marker boundaries.
type Reader struct {
	Source    io.Reader
	Buffer    *framed.Buffer
	ChunkSize int
}

// NewReader creates a Reader.
func NewReader(r io.Reader, buf *framed.Buffer) *Reader {
	return &Reader{Source: r, Buffer: buf}
}

// Run implements Runnable. It pumps until read error, EOF, or ctx cancel.
func (r *Reader) Run(ctx context.Context) error {
	size := r.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunk := make([]byte, size)
	fn := func() error {
		for {
			n, err := r.Source.Read(chunk)
			if n > 0 {
				glog.V(4).Infof("RCV %d bytes", n)
				r.Buffer.Push(chunk[:n])
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
	if closer, ok := r.Source.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, fn)
	}
	// Without a closer the blocked Read cannot be interrupted; leave it
	// behind on cancel instead of waiting for it.
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
