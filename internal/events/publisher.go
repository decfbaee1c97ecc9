package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is what the rig pipeline needs; the NATS implementation below
// is the real one, tests use a capture fake.
type Publisher interface {
	Publish(p *Payload) error
}

// NATSPublisher publishes validated payloads with a bounded linear-backoff
// retry, mirroring the control plane's event fan-out.
type NATSPublisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
}

func NewNATSPublisher(conn *nats.Conn, subject string, maxRetries int) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, maxRetries: maxRetries}
}

func (p *NATSPublisher) Publish(payload *Payload) error {
	if err := Validate(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	subject := p.subject + "." + payload.RigID
	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(subject, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}
	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}

// NopPublisher logs and drops payloads; used when the broker is down so
// the capture loop keeps running.
type NopPublisher struct{}

func (NopPublisher) Publish(p *Payload) error {
	log.Printf("[Events] broker unavailable, dropping frame %d (%d objects)", p.FrameID, len(p.Objects))
	return nil
}
