package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinConversation subscribes the client to a conversation room.
	CommandJoinConversation CommandKind = iota
	// CommandLeaveConversation unsubscribes the client from a conversation room.
	CommandLeaveConversation
	// CommandSendMessage persists a chat message and fans it out.
	CommandSendMessage
	// CommandMarkRead appends a read receipt and fans it out.
	CommandMarkRead
	// CommandTyping toggles the ephemeral typing indicator.
	CommandTyping
	// CommandJoinPost subscribes to a public post room.
	CommandJoinPost
	// CommandLeavePost unsubscribes from a public post room.
	CommandLeavePost
	// CommandJoinProduct subscribes to a public product room.
	CommandJoinProduct
	// CommandLeaveProduct unsubscribes from a public product room.
	CommandLeaveProduct
	// CommandJoinMarketplace subscribes to the marketplace room.
	CommandJoinMarketplace
	// CommandLeaveMarketplace unsubscribes from the marketplace room.
	CommandLeaveMarketplace
	// CommandJoinAdmin subscribes to the admin room, gated on role.
	CommandJoinAdmin
	// CommandLiveEvent broadcasts an ephemeral live-stream interaction
	// (like, gift, poll, goal) to a post room.
	CommandLiveEvent
	// CommandCallSignal relays a call signaling payload to a target user.
	CommandCallSignal
	// CommandPing answers with a pong for liveness probing.
	CommandPing
)

// CallSignalKind distinguishes the relayed signaling payloads.
type CallSignalKind string

const (
	CallOffer        CallSignalKind = "offer"
	CallAnswer       CallSignalKind = "answer"
	CallICECandidate CallSignalKind = "ice-candidate"
)

// Command is a validated inbound action. Each kind uses a fixed subset of
// fields; the transport mapper guarantees the subset is populated.
type Command struct {
	Kind CommandKind

	ConversationID int64
	MessageID      int64
	Text           string
	IsTyping       bool

	PostID    string
	ProductID string

	// Live events
	LiveKind string
	LiveData json.RawMessage

	// Call signaling
	Signal       CallSignalKind
	CallID       string
	TargetUserID int64
	Payload      json.RawMessage
}
