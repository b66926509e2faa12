package main

import (
	"encoding/hex"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robotalks/framed.go/pkg/framed"
	"github.com/robotalks/framed.go/pkg/framed/source/mqtt"
)

var (
	sinkURL   = "-"
	frameSize = 22
	marker    = "hi"
	markerHex = ""
	count     = 10
	garbage   = 0
	dropFrom  = -1
	dropBytes = 3
	chunkSize = 0
	interval  time.Duration
)

func init() {
	flag.StringVar(&sinkURL, "url", sinkURL, "Sink URL (-, file, tcp://, mqtt://).")
	flag.IntVar(&frameSize, "frame-size", frameSize, "Total frame length in bytes, marker included.")
	flag.StringVar(&marker, "marker", marker, "Marker byte sequence, literal.")
	flag.StringVar(&markerHex, "marker-hex", markerHex, "Marker byte sequence, hex (overrides -marker).")
	flag.IntVar(&count, "count", count, "Number of frames to emit.")
	flag.IntVar(&garbage, "garbage", garbage, "Leading garbage bytes before the first frame.")
	flag.IntVar(&dropFrom, "drop-frame", dropFrom, "Index of a frame to corrupt by dropping leading bytes, -1 disables.")
	flag.IntVar(&dropBytes, "drop-bytes", dropBytes, "Leading bytes to drop from the corrupted frame.")
	flag.IntVar(&chunkSize, "chunk", chunkSize, "Write chunk size, 0 writes the whole stream at once.")
	flag.DurationVar(&interval, "interval", 0, "Delay between chunks.")
}

type mqttWriter struct {
	queue *mqtt.Queue
	topic string
}

func (w *mqttWriter) Write(p []byte) (int, error) {
	token := w.queue.Pub(w.topic, append([]byte(nil), p...))
	token.Wait()
	return len(p), token.Error()
}

func (w *mqttWriter) Close() error {
	return w.queue.Close()
}

func openSink(rawurl string) (io.WriteCloser, error) {
	if rawurl == "-" {
		return os.Stdout, nil
	}
	if !strings.Contains(rawurl, "://") {
		return os.Create(rawurl)
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "mqtt", "mqtts", "ssl":
		opts, topic, err := mqtt.ClientOptionsFromURL(rawurl)
		if err != nil {
			return nil, err
		}
		q := mqtt.NewQueue(opts, "")
		token := q.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			return nil, err
		}
		return &mqttWriter{queue: q, topic: topic}, nil
	}
	log.Fatalf("unsupported sink URL %q", rawurl)
	return nil, nil
}

func markerBytes() ([]byte, error) {
	if markerHex != "" {
		return hex.DecodeString(markerHex)
	}
	return []byte(marker), nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	mk, err := markerBytes()
	if err != nil {
		log.Fatalln(err)
	}
	conf := framed.Config{FrameSize: frameSize, Marker: mk}
	if err = conf.Validate(); err != nil {
		log.Fatalln(err)
	}

	var stream []byte
	for i := 0; i < garbage; i++ {
		stream = append(stream, 0xa5)
	}
	for n := 0; n < count; n++ {
		payload := make([]byte, conf.PayloadSize())
		for i := range payload {
			// printable, never colliding with the default marker
			payload[i] = 0x30 + byte((n+i)%0x30)
		}
		frame, err := conf.Encode(payload)
		if err != nil {
			log.Fatalln(err)
		}
		if n == dropFrom && dropBytes > 0 && dropBytes < len(frame) {
			frame = frame[dropBytes:]
		}
		stream = append(stream, frame...)
	}

	sink, err := openSink(sinkURL)
	if err != nil {
		log.Fatalln(err)
	}
	defer sink.Close()

	chunk := chunkSize
	if chunk <= 0 {
		chunk = len(stream)
	}
	for off := 0; off < len(stream); off += chunk {
		end := off + chunk
		if end > len(stream) {
			end = len(stream)
		}
		if _, err := sink.Write(stream[off:end]); err != nil {
			log.Fatalln(err)
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}
