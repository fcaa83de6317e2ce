package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundJoinConversation  = "join-conversation"
	InboundLeaveConversation = "leave-conversation"
	InboundMessageSend       = "message:send"
	InboundMessageRead       = "message:read"
	InboundTyping            = "typing"
	InboundJoinPost          = "join-post"
	InboundLeavePost         = "leave-post"
	InboundJoinProduct       = "join-product"
	InboundLeaveProduct      = "leave-product"
	InboundJoinMarketplace   = "join-marketplace"
	InboundLeaveMarketplace  = "leave-marketplace"
	InboundJoinAdmin         = "join-admin"
	InboundLiveEvent         = "live:event"
	InboundCallOffer         = "call:offer"
	InboundCallAnswer        = "call:answer"
	InboundCallICECandidate  = "call:ice-candidate"
	InboundPing              = "ping"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// ConversationData references a conversation room.
type ConversationData struct {
	ConversationID int64 `json:"conversationId"`
}

// MessageSendData is a chat message from the client.
type MessageSendData struct {
	ConversationID int64  `json:"conversationId"`
	Text           string `json:"text"`
}

// MessageReadData acknowledges a message as read.
type MessageReadData struct {
	MessageID int64 `json:"messageId"`
}

// TypingData toggles the typing indicator for a conversation.
type TypingData struct {
	ConversationID int64 `json:"conversationId"`
	IsTyping       bool  `json:"isTyping"`
}

// PostData references a post room.
type PostData struct {
	PostID string `json:"postId"`
}

// ProductData references a product room.
type ProductData struct {
	ProductID string `json:"productId"`
}

// LiveEventData is an ephemeral live-stream interaction.
type LiveEventData struct {
	PostID string          `json:"postId"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// CallSignalData carries a relayed signaling payload.
type CallSignalData struct {
	CallID       string          `json:"callId"`
	TargetUserID int64           `json:"targetUserId"`
	Payload      json.RawMessage `json:"payload"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventHello acknowledges the connection with its resolved identity.
type EventHello struct {
	ConnectionID string `json:"connectionId"`
	UserID       int64  `json:"userId,omitempty"`
	DisplayName  string `json:"displayName"`
	Anonymous    bool   `json:"anonymous"`
}

// EventMessage is the canonical persisted copy of a chat message.
type EventMessage struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	SenderName     string `json:"senderName"`
	Text           string `json:"text"`
	TS             int64  `json:"ts"`
}

// EventMessageRead notifies about a read receipt.
type EventMessageRead struct {
	MessageID      int64 `json:"messageId"`
	ConversationID int64 `json:"conversationId"`
	ReaderID       int64 `json:"readerId"`
}

// EventTyping notifies about a typing indicator change.
type EventTyping struct {
	ConversationID int64  `json:"conversationId"`
	UserID         int64  `json:"userId"`
	DisplayName    string `json:"displayName"`
	IsTyping       bool   `json:"isTyping"`
}

// EventUserStatus notifies about a presence change.
type EventUserStatus struct {
	UserID      int64  `json:"userId"`
	DisplayName string `json:"displayName"`
	IsOnline    bool   `json:"isOnline"`
	LastSeenAt  int64  `json:"lastSeenAt"`
}

// EventLive is an ephemeral live-stream interaction.
type EventLive struct {
	PostID      string          `json:"postId"`
	Kind        string          `json:"kind"`
	FromUserID  int64           `json:"fromUserId,omitempty"`
	DisplayName string          `json:"displayName"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// EventCallSignal delivers a relayed call signaling payload.
type EventCallSignal struct {
	CallID     string          `json:"callId"`
	FromUserID int64           `json:"fromUserId"`
	FromName   string          `json:"fromName"`
	Payload    json.RawMessage `json:"payload"`
}

// EventNotification pushes a realtime notification.
type EventNotification struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
