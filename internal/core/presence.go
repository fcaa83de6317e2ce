package core

import (
	"context"
	"time"

	"github.com/okravchenko/tidechat-server/internal/store"
	"github.com/rs/zerolog"
)

// PresenceTracker derives online/offline/last-seen from registry transitions
// and tells conversation co-members about changes. Persistence and broadcast
// are both fire-and-forget: failures are logged, never propagated.
type PresenceTracker struct {
	presence store.PresenceStore
	convs    store.ConversationStore
	rooms    *RoomIndex
	log      *zerolog.Logger
}

// NewPresenceTracker constructs a presence tracker over the given collaborators.
func NewPresenceTracker(presence store.PresenceStore, convs store.ConversationStore, rooms *RoomIndex, logger *zerolog.Logger) *PresenceTracker {
	return &PresenceTracker{
		presence: presence,
		convs:    convs,
		rooms:    rooms,
		log:      logger,
	}
}

// HandleOnline runs when a user's first live handle appears: it persists
// online state and broadcasts the change to the user's conversation rooms.
func (p *PresenceTracker) HandleOnline(ctx context.Context, identity Identity) {
	p.transition(ctx, identity, true)
}

// HandleOffline runs when a user's last live handle disappears.
func (p *PresenceTracker) HandleOffline(ctx context.Context, identity Identity) {
	p.transition(ctx, identity, false)
}

func (p *PresenceTracker) transition(ctx context.Context, identity Identity, online bool) {
	if identity.Anonymous || identity.UserID <= AnonymousUserID {
		return
	}

	now := time.Now()
	if err := p.presence.SetUserPresence(ctx, identity.UserID, online, now); err != nil {
		p.log.Warn().Err(err).Int64("user_id", identity.UserID).Msg("failed to persist presence")
	}

	// The fan-out target set is recomputed here, not cached, so membership
	// changes between connect and disconnect are honored.
	conversations, err := p.convs.ListUserConversations(ctx, identity.UserID)
	if err != nil {
		p.log.Warn().Err(err).Int64("user_id", identity.UserID).Msg("failed to list conversations for presence broadcast")
		return
	}

	event := &Event{
		Kind: EventUserStatus,
		Status: &StatusEvent{
			UserID:      identity.UserID,
			DisplayName: identity.DisplayName,
			IsOnline:    online,
			LastSeenAt:  now,
		},
	}
	for _, conversationID := range conversations {
		key := ConversationRoom(conversationID)
		ev := *event
		ev.Room = key
		p.rooms.Broadcast(key, &ev, nil)
	}
}
