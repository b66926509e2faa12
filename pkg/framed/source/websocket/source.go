// Package websocket feeds an ingress buffer from a websocket connection.
package websocket

import (
	"context"
	"io"

	"golang.org/x/net/websocket"

	"github.com/robotalks/framed.go/pkg/framed"
	fx "github.com/robotalks/framed.go/pkg/framework"
)

// Source pushes each received websocket message into the ingress buffer
// as one byte burst.
type Source struct {
	Conn   *websocket.Conn
	Buffer *framed.Buffer
}

// New creates a Source over an established connection.
func New(conn *websocket.Conn, buf *framed.Buffer) *Source {
	return &Source{Conn: conn, Buffer: buf}
}

// Dial connects to a ws:// or wss:// URL and creates a Source.
func Dial(wsURL string, buf *framed.Buffer) (*Source, error) {
	conn, err := websocket.Dial(wsURL, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn, buf), nil
}

// Run implements Runnable. It receives until the peer closes, a receive
// fails, or ctx is canceled.
func (s *Source) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, s.Conn, func() error {
		for {
			var chunk []byte
			if err := websocket.Message.Receive(s.Conn, &chunk); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			s.Buffer.Push(chunk)
		}
	})
}
