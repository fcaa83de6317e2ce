package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
)

// subjectPrefix is where the notification subsystem listens.
const subjectPrefix = "notify.user."

// NATSNotifier delivers notifications by publishing to the notification
// subsystem's NATS subject, one subject per recipient.
type NATSNotifier struct {
	conn *nats.Conn
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("tidechat-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSNotifier{conn: conn}, nil
}

// Close drains and closes the connection.
func (n *NATSNotifier) Close() error {
	return n.conn.Drain()
}

type wireNotification struct {
	RecipientID int64           `json:"recipient_id"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	SentAt      int64           `json:"sent_at"`
}

// Notify publishes the notification to notify.user.{id}.
func (n *NATSNotifier) Notify(_ context.Context, recipientID int64, kind string, payload json.RawMessage) error {
	data, err := json.Marshal(wireNotification{
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
		SentAt:      time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	subject := subjectPrefix + strconv.FormatInt(recipientID, 10)
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
