package core

import "sync"

// RoomIndex maps room keys to the set of handles currently interested in
// them. Rooms have no explicit lifecycle: the index creates them on first
// join and drops them at zero membership. Authorization is the caller's
// job; the index only tracks and fans out.
type RoomIndex struct {
	mu     sync.RWMutex
	rooms  map[RoomKey]map[*Client]struct{}
	byConn map[*Client]map[RoomKey]struct{}
}

// NewRoomIndex constructs an empty membership index.
func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms:  make(map[RoomKey]map[*Client]struct{}),
		byConn: make(map[*Client]map[RoomKey]struct{}),
	}
}

// Join adds the handle to the room. Idempotent.
func (ri *RoomIndex) Join(key RoomKey, c *Client) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	members := ri.rooms[key]
	if members == nil {
		members = make(map[*Client]struct{})
		ri.rooms[key] = members
	}
	members[c] = struct{}{}

	joined := ri.byConn[c]
	if joined == nil {
		joined = make(map[RoomKey]struct{})
		ri.byConn[c] = joined
	}
	joined[key] = struct{}{}
}

// Leave removes the handle from the room. Unknown memberships are a no-op.
func (ri *RoomIndex) Leave(key RoomKey, c *Client) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.leaveLocked(key, c)
}

func (ri *RoomIndex) leaveLocked(key RoomKey, c *Client) {
	if members, ok := ri.rooms[key]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(ri.rooms, key)
		}
	}
	if joined, ok := ri.byConn[c]; ok {
		delete(joined, key)
		if len(joined) == 0 {
			delete(ri.byConn, c)
		}
	}
}

// Contains reports whether the handle is currently joined to the room.
func (ri *RoomIndex) Contains(key RoomKey, c *Client) bool {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	_, ok := ri.rooms[key][c]
	return ok
}

// Size returns the current membership count of the room.
func (ri *RoomIndex) Size(key RoomKey) int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.rooms[key])
}

// Broadcast delivers the event to every handle currently in the room,
// best-effort: slow consumers are dropped, no acknowledgment, no retry.
// exclude may be nil.
func (ri *RoomIndex) Broadcast(key RoomKey, event *Event, exclude *Client) {
	ri.mu.RLock()
	members := ri.rooms[key]
	recipients := make([]*Client, 0, len(members))
	for c := range members {
		if c != exclude {
			recipients = append(recipients, c)
		}
	}
	ri.mu.RUnlock()

	for _, c := range recipients {
		c.send(event)
	}
}

// PurgeClient removes the handle from every room it belonged to and returns
// the affected room keys. Called on disconnect so the transport does not
// need to know which rooms the handle was in.
func (ri *RoomIndex) PurgeClient(c *Client) []RoomKey {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	joined := ri.byConn[c]
	if len(joined) == 0 {
		delete(ri.byConn, c)
		return nil
	}
	keys := make([]RoomKey, 0, len(joined))
	for key := range joined {
		keys = append(keys, key)
	}
	for _, key := range keys {
		ri.leaveLocked(key, c)
	}
	return keys
}
