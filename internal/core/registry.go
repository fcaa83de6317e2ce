package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps user identities to their live connection handles. It is the
// single source of truth for "is user X currently reachable". A user may hold
// several simultaneous handles; the multi-map is authoritative, the primary
// map only serves one-to-one lookups (last register wins).
type Registry struct {
	mu      sync.RWMutex
	byUser  map[int64]map[*Client]struct{}
	primary map[int64]*Client
	log     *zerolog.Logger
}

// NewRegistry constructs an empty connection registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		byUser:  make(map[int64]map[*Client]struct{}),
		primary: make(map[int64]*Client),
		log:     logger,
	}
}

// Register records a live handle for the client's user. Returns true when
// this is the user's first live handle. Anonymous identities are skipped:
// presence is meaningless for them.
func (r *Registry) Register(c *Client) (first bool) {
	userID := c.Identity.UserID
	if userID <= AnonymousUserID {
		r.log.Debug().Str("conn_id", c.ID).Msg("skipping registry for anonymous connection")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	handles := r.byUser[userID]
	if handles == nil {
		handles = make(map[*Client]struct{})
		r.byUser[userID] = handles
	}
	first = len(handles) == 0
	handles[c] = struct{}{}
	r.primary[userID] = c
	return first
}

// Unregister removes a handle. Idempotent: removing an unknown handle is a
// no-op. Returns true when the user's last live handle is gone.
func (r *Registry) Unregister(c *Client) (last bool) {
	userID := c.Identity.UserID
	if userID <= AnonymousUserID {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	handles, ok := r.byUser[userID]
	if !ok {
		return false
	}
	if _, ok := handles[c]; !ok {
		return false
	}
	delete(handles, c)
	if len(handles) == 0 {
		delete(r.byUser, userID)
		delete(r.primary, userID)
		return true
	}
	if r.primary[userID] == c {
		for other := range handles {
			r.primary[userID] = other
			break
		}
	}
	return false
}

// Lookup returns one live handle for the user, or nil if unreachable.
func (r *Registry) Lookup(userID int64) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.primary[userID]
}

// Handles returns every live handle for the user.
func (r *Registry) Handles(userID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// IsOnline reports whether the user has at least one live handle.
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}
