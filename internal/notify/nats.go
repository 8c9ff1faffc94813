package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/presencewatch/internal/config"
)

// Publisher is the subset of *nats.Conn used by NATSSender.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// TransitionEvent is the JSON document published for each alert.
type TransitionEvent struct {
	ID            string    `json:"id"`
	Identity      string    `json:"identity"`
	DisplayName   string    `json:"display_name"`
	PreviousState string    `json:"previous_state"`
	State         string    `json:"state"`
	Detail        string    `json:"detail,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NATSSender publishes transitions to a subject.
type NATSSender struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATSSender connects to the configured server.
func NewNATSSender(cfg config.NATSConfig) (*NATSSender, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("presencewatch"), nats.Timeout(cfg.TimeoutDuration()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSender{pub: conn, conn: conn, subject: cfg.Subject, timeout: cfg.TimeoutDuration()}, nil
}

// NewNATSSenderWithPublisher wraps an existing publisher.
func NewNATSSenderWithPublisher(pub Publisher, subject string, timeout time.Duration) *NATSSender {
	return &NATSSender{pub: pub, subject: subject, timeout: timeout}
}

func (n *NATSSender) Name() string { return "nats" }

// Send publishes the event and flushes so delivery failures surface here.
func (n *NATSSender) Send(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(TransitionEvent{
		ID:            uuid.NewString(),
		Identity:      alert.Identity,
		DisplayName:   alert.DisplayName,
		PreviousState: alert.PreviousState,
		State:         alert.State,
		Detail:        alert.Detail,
		Timestamp:     alert.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish transition: %w", err)
	}
	return n.pub.FlushTimeout(n.timeout)
}

// Close drains the connection when the sender owns it.
func (n *NATSSender) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
