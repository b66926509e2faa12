package source

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/robotalks/framed.go/pkg/framed"
	"github.com/robotalks/framed.go/pkg/framed/source/mqtt"
	"github.com/robotalks/framed.go/pkg/framed/source/websocket"
	fx "github.com/robotalks/framed.go/pkg/framework"
)

// Open creates a byte source for a URL:
//
//	-                        stdin
//	/dev/ttyUSB0, file:path  a device node or file
//	tcp://host:port          a TCP stream
//	mqtt://host:port/topic   payloads of an MQTT topic
//	ws://host:port/path      websocket messages
//
// The returned Runnable pumps into buf until canceled or the transport
// ends.
func Open(rawurl string, buf *framed.Buffer) (fx.Runnable, error) {
	if rawurl == "-" {
		return NewReader(os.Stdin, buf), nil
	}
	if !strings.Contains(rawurl, "://") && !strings.HasPrefix(rawurl, "file:") {
		return openFile(rawurl, buf)
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "file":
		return openFile(u.Path, buf)
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewReader(conn, buf), nil
	case "mqtt", "mqtts", "ssl":
		return mqtt.NewSourceFromURL(rawurl, buf)
	case "ws", "wss":
		return websocket.Dial(rawurl, buf)
	}
	return nil, fmt.Errorf("unsupported source URL %q", rawurl)
}

func openFile(path string, buf *framed.Buffer) (fx.Runnable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, buf), nil
}
