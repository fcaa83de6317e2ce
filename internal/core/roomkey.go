package core

import (
	"strconv"
	"strings"
)

// RoomKey names a dynamically-sized interest group. Rooms exist implicitly:
// the membership index creates them on first join and drops them at zero
// membership.
type RoomKey string

const (
	// MarketplaceRoom carries marketplace-wide live events.
	MarketplaceRoom RoomKey = "marketplace"
	// AdminRoom carries operational broadcasts for admin users.
	AdminRoom RoomKey = "admin"
)

// ConversationRoom keys the room backing a chat conversation.
func ConversationRoom(conversationID int64) RoomKey {
	return RoomKey("conversation:" + strconv.FormatInt(conversationID, 10))
}

// PostRoom keys the room for live interaction on a post or stream.
func PostRoom(postID string) RoomKey {
	return RoomKey("post:" + postID)
}

// ProductRoom keys the room for live interaction on a product listing.
func ProductRoom(productID string) RoomKey {
	return RoomKey("product:" + productID)
}

// NotificationsRoom keys the per-user notification channel. Authenticated
// connections join their own notifications room at registration time.
func NotificationsRoom(userID int64) RoomKey {
	return RoomKey("notifications:" + strconv.FormatInt(userID, 10))
}

// conversationIDFromRoom extracts the conversation ID from a conversation
// room key, or 0 for other namespaces.
func conversationIDFromRoom(key RoomKey) int64 {
	raw, ok := strings.CutPrefix(string(key), "conversation:")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
