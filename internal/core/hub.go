package core

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/okravchenko/tidechat-server/internal/store"
	"github.com/rs/zerolog"
)

// Storage is the slice of the storage collaborator the hub needs.
type Storage interface {
	store.ConversationStore
	store.MessageStore
	store.PresenceStore
}

// NotificationSink accepts fire-and-forget notification deliveries.
// The hub never learns whether delivery succeeded.
type NotificationSink interface {
	Enqueue(recipientID int64, kind string, payload json.RawMessage)
}

// Hub owns the connection registry, room membership index, typing tracker
// and presence tracker, and routes every inbound command. It is constructed
// once at process start and injected where needed; the indices are shared
// mutable state guarded by their own locks, so commands from many
// connections' read loops may run concurrently. Storage calls block only
// the issuing connection.
type Hub struct {
	registry *Registry
	rooms    *RoomIndex
	typing   *TypingIndex
	presence *PresenceTracker

	storage Storage
	sink    NotificationSink
	log     *zerolog.Logger
}

// NewHub constructs the hub and its indices.
func NewHub(storage Storage, sink NotificationSink, logger *zerolog.Logger) *Hub {
	rooms := NewRoomIndex()
	return &Hub{
		registry: NewRegistry(logger),
		rooms:    rooms,
		typing:   NewTypingIndex(),
		presence: NewPresenceTracker(storage, storage, rooms, logger),
		storage:  storage,
		sink:     sink,
		log:      logger,
	}
}

// Registry exposes the connection registry for reachability queries.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Rooms exposes the room membership index.
func (h *Hub) Rooms() *RoomIndex {
	return h.rooms
}

// RegisterClient records a new live connection. Authenticated users are
// entered into the registry, joined to their notifications room, and
// trigger a presence transition when this is their first handle. The
// client receives a hello event describing its resolved identity.
func (h *Hub) RegisterClient(ctx context.Context, c *Client) {
	identity := c.Identity
	if !identity.Anonymous {
		first := h.registry.Register(c)
		h.rooms.Join(NotificationsRoom(identity.UserID), c)
		if first {
			h.presence.HandleOnline(ctx, identity)
		}
	}

	c.send(&Event{
		Kind: EventHello,
		Hello: &HelloEvent{
			ConnectionID: c.ID,
			UserID:       identity.UserID,
			DisplayName:  identity.DisplayName,
			Anonymous:    identity.Anonymous,
		},
	})

	h.log.Info().
		Str("conn_id", c.ID).
		Int64("user_id", identity.UserID).
		Bool("anonymous", identity.Anonymous).
		Msg("connection registered")
}

// UnregisterClient purges all state held through the handle. Disconnect is
// the universal cancellation signal: room memberships and typing entries go
// synchronously, typing removal actively broadcasts typing=false to each
// affected room, and the presence tracker runs when the last handle for the
// user is gone.
func (h *Hub) UnregisterClient(ctx context.Context, c *Client) {
	typingRooms := h.typing.PurgeClient(c)
	h.rooms.PurgeClient(c)

	for _, key := range typingRooms {
		conversationID := conversationIDFromRoom(key)
		h.rooms.Broadcast(key, &Event{
			Kind: EventTyping,
			Room: key,
			Typing: &TypingEvent{
				ConversationID: conversationID,
				UserID:         c.Identity.UserID,
				DisplayName:    c.Identity.DisplayName,
				IsTyping:       false,
			},
		}, nil)
	}

	if last := h.registry.Unregister(c); last {
		h.presence.HandleOffline(ctx, c.Identity)
	}

	h.log.Info().
		Str("conn_id", c.ID).
		Int64("user_id", c.Identity.UserID).
		Msg("connection unregistered")
}

// SendToUser delivers an event to every live handle of the user. Returns
// false when the user is unreachable.
func (h *Hub) SendToUser(userID int64, event *Event) bool {
	handles := h.registry.Handles(userID)
	if len(handles) == 0 {
		return false
	}
	for _, c := range handles {
		c.send(event)
	}
	return true
}

// Handle routes one validated inbound command for the client. A non-nil
// return is scoped to this command: the transport reports it to the caller
// and keeps the connection open.
func (h *Hub) Handle(ctx context.Context, c *Client, cmd *Command) *CoreError {
	switch cmd.Kind {
	case CommandJoinConversation:
		return h.joinConversation(ctx, c, cmd.ConversationID)
	case CommandLeaveConversation:
		return h.leaveConversation(c, cmd.ConversationID)
	case CommandSendMessage:
		return h.sendMessage(ctx, c, cmd.ConversationID, cmd.Text)
	case CommandMarkRead:
		return h.markRead(ctx, c, cmd.MessageID)
	case CommandTyping:
		return h.setTyping(c, cmd.ConversationID, cmd.IsTyping)
	case CommandJoinPost:
		h.rooms.Join(PostRoom(cmd.PostID), c)
		return nil
	case CommandLeavePost:
		h.rooms.Leave(PostRoom(cmd.PostID), c)
		return nil
	case CommandJoinProduct:
		h.rooms.Join(ProductRoom(cmd.ProductID), c)
		return nil
	case CommandLeaveProduct:
		h.rooms.Leave(ProductRoom(cmd.ProductID), c)
		return nil
	case CommandJoinMarketplace:
		h.rooms.Join(MarketplaceRoom, c)
		return nil
	case CommandLeaveMarketplace:
		h.rooms.Leave(MarketplaceRoom, c)
		return nil
	case CommandJoinAdmin:
		if !c.Identity.IsAdmin() {
			return coreError(ErrCodeForbidden, "admin role required")
		}
		h.rooms.Join(AdminRoom, c)
		return nil
	case CommandLiveEvent:
		return h.liveEvent(c, cmd)
	case CommandCallSignal:
		return h.callSignal(c, cmd)
	case CommandPing:
		c.send(&Event{Kind: EventPong})
		return nil
	default:
		return coreError(ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) joinConversation(ctx context.Context, c *Client, conversationID int64) *CoreError {
	if c.Identity.Anonymous {
		return coreError(ErrCodeUnauthorized, "authentication required")
	}
	ok, err := h.storage.IsParticipant(ctx, conversationID, c.Identity.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("participant check failed")
		return coreError(ErrCodeStorage, "participant check failed")
	}
	if !ok {
		return coreError(ErrCodeForbidden, "not a conversation participant")
	}
	h.rooms.Join(ConversationRoom(conversationID), c)
	return nil
}

func (h *Hub) leaveConversation(c *Client, conversationID int64) *CoreError {
	key := ConversationRoom(conversationID)
	if h.typing.Stop(key, c) {
		h.broadcastTyping(key, c, conversationID, false)
	}
	h.rooms.Leave(key, c)
	return nil
}

func (h *Hub) sendMessage(ctx context.Context, c *Client, conversationID int64, text string) *CoreError {
	if c.Identity.Anonymous {
		return coreError(ErrCodeUnauthorized, "authentication required")
	}
	ok, err := h.storage.IsParticipant(ctx, conversationID, c.Identity.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("participant check failed")
		return coreError(ErrCodeStorage, "participant check failed")
	}
	if !ok {
		return coreError(ErrCodeForbidden, "not a conversation participant")
	}

	// Durable events persist first; everyone, including the sender's other
	// connections, converges on the canonical persisted copy.
	msg, err := h.storage.CreateMessage(ctx, conversationID, c.Identity.UserID, text)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("message persist failed")
		return coreError(ErrCodeStorage, "message not saved")
	}

	key := ConversationRoom(conversationID)
	if h.typing.Stop(key, c) {
		h.broadcastTyping(key, c, conversationID, false)
	}

	h.rooms.Broadcast(key, &Event{
		Kind: EventMessageNew,
		Room: key,
		Message: &MessageEvent{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			SenderName:     c.Identity.DisplayName,
			Body:           msg.Body,
			CreatedAt:      msg.CreatedAt,
		},
	}, nil)

	h.notifyParticipants(ctx, c, msg)
	return nil
}

// notifyParticipants pushes a realtime notification to each non-sending
// participant's notifications room and enqueues delivery to the external
// notification subsystem. Both are fire-and-forget.
func (h *Hub) notifyParticipants(ctx context.Context, sender *Client, msg *store.Message) {
	participants, err := h.storage.ListParticipants(ctx, msg.ConversationID)
	if err != nil {
		h.log.Warn().Err(err).Int64("conversation_id", msg.ConversationID).Msg("failed to list participants for notification")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID,
		"from_user_id":    msg.SenderID,
		"from_name":       sender.Identity.DisplayName,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to marshal notification payload")
		return
	}

	for _, userID := range participants {
		if userID == msg.SenderID {
			continue
		}
		h.sink.Enqueue(userID, "message:new", payload)
		h.rooms.Broadcast(NotificationsRoom(userID), &Event{
			Kind: EventNotification,
			Room: NotificationsRoom(userID),
			Notified: &NotificationEvent{
				RecipientID: userID,
				Kind:        "message:new",
				Payload:     payload,
			},
		}, nil)
	}
}

func (h *Hub) markRead(ctx context.Context, c *Client, messageID int64) *CoreError {
	if c.Identity.Anonymous {
		return coreError(ErrCodeUnauthorized, "authentication required")
	}
	conversationID, err := h.storage.GetMessageConversation(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return coreError(ErrCodeNotFound, "message not found")
		}
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("message lookup failed")
		return coreError(ErrCodeStorage, "message lookup failed")
	}
	ok, err := h.storage.IsParticipant(ctx, conversationID, c.Identity.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("participant check failed")
		return coreError(ErrCodeStorage, "participant check failed")
	}
	if !ok {
		return coreError(ErrCodeForbidden, "not a conversation participant")
	}
	if _, err := h.storage.MarkMessageRead(ctx, messageID, c.Identity.UserID); err != nil {
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("read receipt failed")
		return coreError(ErrCodeStorage, "read receipt not saved")
	}

	key := ConversationRoom(conversationID)
	h.rooms.Broadcast(key, &Event{
		Kind: EventMessageRead,
		Room: key,
		Read: &ReadEvent{
			MessageID:      messageID,
			ConversationID: conversationID,
			ReaderID:       c.Identity.UserID,
		},
	}, nil)
	return nil
}

func (h *Hub) setTyping(c *Client, conversationID int64, isTyping bool) *CoreError {
	if c.Identity.Anonymous {
		return coreError(ErrCodeUnauthorized, "authentication required")
	}
	key := ConversationRoom(conversationID)
	if !h.rooms.Contains(key, c) {
		return coreError(ErrCodeForbidden, "join the conversation first")
	}

	var changed bool
	if isTyping {
		changed = h.typing.Start(key, c)
	} else {
		changed = h.typing.Stop(key, c)
	}
	if changed {
		h.broadcastTyping(key, c, conversationID, isTyping)
	}
	return nil
}

func (h *Hub) broadcastTyping(key RoomKey, c *Client, conversationID int64, isTyping bool) {
	h.rooms.Broadcast(key, &Event{
		Kind: EventTyping,
		Room: key,
		Typing: &TypingEvent{
			ConversationID: conversationID,
			UserID:         c.Identity.UserID,
			DisplayName:    c.Identity.DisplayName,
			IsTyping:       isTyping,
		},
	}, c)
}

func (h *Hub) liveEvent(c *Client, cmd *Command) *CoreError {
	key := PostRoom(cmd.PostID)
	h.rooms.Broadcast(key, &Event{
		Kind: EventLive,
		Room: key,
		Live: &LiveEvent{
			PostID:      cmd.PostID,
			Kind:        cmd.LiveKind,
			FromUserID:  c.Identity.UserID,
			DisplayName: c.Identity.DisplayName,
			Data:        cmd.LiveData,
		},
	}, nil)
	return nil
}

// callSignal relays a signaling payload verbatim to every live handle of
// the target. An unreachable target is a silent drop: the caller gets no
// error and implements its own timeout at the application layer.
func (h *Hub) callSignal(c *Client, cmd *Command) *CoreError {
	if c.Identity.Anonymous {
		return coreError(ErrCodeUnauthorized, "authentication required")
	}

	delivered := h.SendToUser(cmd.TargetUserID, &Event{
		Kind: EventCallSignal,
		Call: &CallSignalEvent{
			Signal:     cmd.Signal,
			CallID:     cmd.CallID,
			FromUserID: c.Identity.UserID,
			FromName:   c.Identity.DisplayName,
			Payload:    cmd.Payload,
		},
	})
	if !delivered {
		h.log.Debug().
			Str("call_id", cmd.CallID).
			Int64("target_user_id", cmd.TargetUserID).
			Msg("call signal target unreachable, dropping")
	}
	return nil
}
