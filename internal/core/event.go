package core

import (
	"encoding/json"
	"time"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHello acknowledges a registered connection with its identity.
	EventHello EventKind = iota
	// EventMessageNew delivers the canonical persisted copy of a message.
	EventMessageNew
	// EventMessageRead notifies a room about a read receipt.
	EventMessageRead
	// EventTyping notifies a room about a typing indicator change.
	EventTyping
	// EventUserStatus notifies conversation rooms about presence changes.
	EventUserStatus
	// EventLive carries an ephemeral live-stream interaction.
	EventLive
	// EventCallSignal delivers a relayed call signaling payload.
	EventCallSignal
	// EventNotification pushes a realtime notification to its recipient.
	EventNotification
	// EventPong answers a liveness ping.
	EventPong
	// EventError notifies the offending caller about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room RoomKey

	Hello    *HelloEvent
	Message  *MessageEvent
	Read     *ReadEvent
	Typing   *TypingEvent
	Status   *StatusEvent
	Live     *LiveEvent
	Call     *CallSignalEvent
	Notified *NotificationEvent
	Error    *CoreError
}

// HelloEvent reports the identity the gateway resolved for the connection.
type HelloEvent struct {
	ConnectionID string
	UserID       int64
	DisplayName  string
	Anonymous    bool
}

// MessageEvent is the canonical copy of a persisted message.
type MessageEvent struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	SenderName     string
	Body           string
	CreatedAt      time.Time
}

// ReadEvent reports a read receipt.
type ReadEvent struct {
	MessageID      int64
	ConversationID int64
	ReaderID       int64
}

// TypingEvent reports a typing indicator change.
type TypingEvent struct {
	ConversationID int64
	UserID         int64
	DisplayName    string
	IsTyping       bool
}

// StatusEvent reports a presence change.
type StatusEvent struct {
	UserID      int64
	DisplayName string
	IsOnline    bool
	LastSeenAt  time.Time
}

// LiveEvent is an ephemeral live-stream interaction, never persisted.
type LiveEvent struct {
	PostID      string
	Kind        string // like, gift, poll, goal
	FromUserID  int64
	DisplayName string
	Data        json.RawMessage
}

// CallSignalEvent is an in-flight relay message, never persisted.
type CallSignalEvent struct {
	Signal     CallSignalKind
	CallID     string
	FromUserID int64
	FromName   string
	Payload    json.RawMessage
}

// NotificationEvent is the realtime copy of a dispatched notification.
type NotificationEvent struct {
	RecipientID int64
	Kind        string
	Payload     json.RawMessage
}
