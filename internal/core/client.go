package core

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousUserID is the sentinel identity for unauthenticated connections.
// Anonymous callers may use public rooms but never presence or durable writes.
const AnonymousUserID int64 = 0

// RoleAdmin marks users allowed into the admin room.
const RoleAdmin = "admin"

// Identity is the resolved identity of a connection.
type Identity struct {
	UserID      int64
	Username    string
	DisplayName string
	Role        string
	Anonymous   bool
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return !i.Anonymous && i.Role == RoleAdmin
}

// Client is one live transport session as seen by the core layer.
// It is the connection handle: owned by the registry for its lifetime
// and destroyed on transport close.
type Client struct {
	ID          string
	Identity    Identity
	ConnectedAt time.Time

	// Events carries outbound events to the transport write loop.
	// Broadcasts drop on a full buffer rather than block the sender.
	Events chan *Event
}

// NewClient constructs a connection handle for the given identity.
func NewClient(identity Identity) *Client {
	return &Client{
		ID:          uuid.NewString(),
		Identity:    identity,
		ConnectedAt: time.Now(),
		Events:      make(chan *Event, 32),
	}
}

// SendError queues an error acknowledgment scoped to this connection.
// Other room members never see another caller's failures.
func (c *Client) SendError(err *CoreError) {
	c.send(&Event{Kind: EventError, Error: err})
}

// send queues an event for the client, dropping it if the buffer is full.
func (c *Client) send(event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
