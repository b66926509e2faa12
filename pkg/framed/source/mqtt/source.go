package mqtt

import (
	"context"

	"github.com/robotalks/framed.go/pkg/framed"
)

// Source pushes each MQTT message payload into the ingress buffer as one
// byte burst. Message boundaries carry no framing meaning.
type Source struct {
	Queue  *Queue
	Topic  string
	Buffer *framed.Buffer

	ownQueue bool
}

// NewSource creates a Source over an existing Queue.
func NewSource(q *Queue, topic string, buf *framed.Buffer) *Source {
	return &Source{Queue: q, Topic: topic, Buffer: buf}
}

// NewSourceFromURL creates a Source with its own Queue. The URL path is
// the topic, e.g. mqtt://host:1883/device/telemetry.
func NewSourceFromURL(brokerURL string, buf *framed.Buffer) (*Source, error) {
	opts, topic, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Source{
		Queue:    NewQueue(opts, ""),
		Topic:    topic,
		Buffer:   buf,
		ownQueue: true,
	}, nil
}

// Run implements Runnable. It connects when the Source owns its Queue,
// subscribes, and pushes payloads until ctx is canceled.
func (s *Source) Run(ctx context.Context) error {
	if s.ownQueue {
		token := s.Queue.Connect()
		token.Wait()
		if err := token.Error(); err != nil {
			return err
		}
		defer s.Queue.Close()
	}
	sub := s.Queue.Sub(s.Topic, func(_ string, payload []byte) {
		s.Buffer.Push(payload)
	})
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}
