package core

import "sync"

// TypingIndex tracks transient "is typing" state per room. A user may hold
// several handles at once; the user is visible as typing while at least one
// of their handles has an active entry. Entries are cleared explicitly: on
// stop, on room leave, or on disconnect. There is no time-based expiry.
type TypingIndex struct {
	mu     sync.Mutex
	rooms  map[RoomKey]map[int64]map[*Client]struct{}
	byConn map[*Client]map[RoomKey]struct{}
}

// NewTypingIndex constructs an empty typing tracker.
func NewTypingIndex() *TypingIndex {
	return &TypingIndex{
		rooms:  make(map[RoomKey]map[int64]map[*Client]struct{}),
		byConn: make(map[*Client]map[RoomKey]struct{}),
	}
}

// Start records the client as typing in the room. Returns true when this
// makes the user visible as typing (no other handle held an entry).
func (ti *TypingIndex) Start(key RoomKey, c *Client) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	users := ti.rooms[key]
	if users == nil {
		users = make(map[int64]map[*Client]struct{})
		ti.rooms[key] = users
	}
	handles := users[c.Identity.UserID]
	if handles == nil {
		handles = make(map[*Client]struct{})
		users[c.Identity.UserID] = handles
	}
	wasTyping := len(handles) > 0
	handles[c] = struct{}{}

	rooms := ti.byConn[c]
	if rooms == nil {
		rooms = make(map[RoomKey]struct{})
		ti.byConn[c] = rooms
	}
	rooms[key] = struct{}{}
	return !wasTyping
}

// Stop clears the client's typing entry for the room. Returns true when the
// user's last entry there is gone and they are no longer visible as typing.
// A handle with no active entry is a no-op, even if another handle of the
// same user is typing.
func (ti *TypingIndex) Stop(key RoomKey, c *Client) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.stopLocked(key, c)
}

func (ti *TypingIndex) stopLocked(key RoomKey, c *Client) bool {
	users, ok := ti.rooms[key]
	if !ok {
		return false
	}
	handles, ok := users[c.Identity.UserID]
	if !ok {
		return false
	}
	if _, ok := handles[c]; !ok {
		return false
	}
	delete(handles, c)
	cleared := len(handles) == 0
	if cleared {
		delete(users, c.Identity.UserID)
		if len(users) == 0 {
			delete(ti.rooms, key)
		}
	}
	if rooms, ok := ti.byConn[c]; ok {
		delete(rooms, key)
		if len(rooms) == 0 {
			delete(ti.byConn, c)
		}
	}
	return cleared
}

// IsTyping reports whether any handle of the user has an active entry in
// the room.
func (ti *TypingIndex) IsTyping(key RoomKey, userID int64) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return len(ti.rooms[key][userID]) > 0
}

// PurgeClient clears every typing entry held through the handle and returns
// the rooms where the user is no longer typing at all, so the caller can
// broadcast typing=false for each. Rooms where another handle of the same
// user still types are left untouched.
func (ti *TypingIndex) PurgeClient(c *Client) []RoomKey {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	rooms := ti.byConn[c]
	if len(rooms) == 0 {
		delete(ti.byConn, c)
		return nil
	}
	keys := make([]RoomKey, 0, len(rooms))
	for key := range rooms {
		keys = append(keys, key)
	}
	var cleared []RoomKey
	for _, key := range keys {
		if ti.stopLocked(key, c) {
			cleared = append(cleared, key)
		}
	}
	return cleared
}
