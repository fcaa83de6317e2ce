package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string // "user" or "admin"
	Active       bool
	CreatedAt    time.Time
}

// Conversation represents a chat conversation between two or more users.
type Conversation struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Body           string
	CreatedAt      time.Time
}

// Presence is the persisted online/offline record for a user.
type Presence struct {
	UserID     int64
	IsOnline   bool
	LastSeenAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, displayName, passwordHash, role string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SetUserActive toggles the user's active flag.
	SetUserActive(ctx context.Context, id int64, active bool) error
}

// ConversationStore handles conversation persistence and membership queries.
type ConversationStore interface {
	// CreateConversation creates a conversation with the given participants.
	CreateConversation(ctx context.Context, title string, participantIDs []int64) (*Conversation, error)

	// AddParticipant adds a user to a conversation.
	AddParticipant(ctx context.Context, conversationID, userID int64) error

	// ListParticipants lists user IDs of all conversation participants.
	ListParticipants(ctx context.Context, conversationID int64) ([]int64, error)

	// IsParticipant checks whether the user belongs to the conversation.
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)

	// ListUserConversations lists IDs of conversations the user participates in.
	ListUserConversations(ctx context.Context, userID int64) ([]int64, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and returns it with the
	// server-assigned ID and timestamp.
	CreateMessage(ctx context.Context, conversationID, senderID int64, body string) (*Message, error)

	// GetMessageConversation returns the conversation a message belongs to.
	GetMessageConversation(ctx context.Context, messageID int64) (int64, error)

	// MarkMessageRead appends a read receipt for the user and returns the
	// conversation the message belongs to. Re-reading is a no-op.
	MarkMessageRead(ctx context.Context, messageID, userID int64) (conversationID int64, err error)
}

// PresenceStore persists user online/offline state.
type PresenceStore interface {
	// SetUserPresence records the user's presence. Last writer wins.
	SetUserPresence(ctx context.Context, userID int64, isOnline bool, lastSeenAt time.Time) error

	// GetUserPresence retrieves the persisted presence record.
	GetUserPresence(ctx context.Context, userID int64) (*Presence, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConversationStore
	MessageStore
	PresenceStore

	// Close closes the underlying database connection.
	Close() error
}
