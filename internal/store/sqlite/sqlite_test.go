package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okravchenko/tidechat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedUsers(t *testing.T, st *SQLiteStore, names ...string) []int64 {
	t.Helper()
	ctx := context.Background()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		u, err := st.CreateUser(ctx, name, name, "hash", "user")
		if err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateUser(ctx, "alice", "Alice", "hash", "admin")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == 0 || !created.Active || created.Role != "admin" {
		t.Fatalf("unexpected user: %+v", created)
	}

	byName, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("username lookup mismatch: %d != %d", byName.ID, created.ID)
	}

	if err := st.SetUserActive(ctx, created.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := st.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Active {
		t.Fatal("user should be inactive after SetUserActive(false)")
	}

	if err := st.SetUserActive(ctx, 9999, false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	if _, err := st.GetUserByID(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationParticipants(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, st, "alice", "bob", "carol")

	conv, err := st.CreateConversation(ctx, "general", ids[:2])
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	for _, id := range ids[:2] {
		ok, err := st.IsParticipant(ctx, conv.ID, id)
		if err != nil {
			t.Fatalf("is participant: %v", err)
		}
		if !ok {
			t.Fatalf("user %d should be a participant", id)
		}
	}
	ok, err := st.IsParticipant(ctx, conv.ID, ids[2])
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if ok {
		t.Fatal("carol is not a participant yet")
	}

	if err := st.AddParticipant(ctx, conv.ID, ids[2]); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	participants, err := st.ListParticipants(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(participants))
	}

	convs, err := st.ListUserConversations(ctx, ids[0])
	if err != nil {
		t.Fatalf("list user conversations: %v", err)
	}
	if len(convs) != 1 || convs[0] != conv.ID {
		t.Fatalf("unexpected conversations for alice: %v", convs)
	}
}

func TestCreateMessageAssignsIDAndTimestamp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, st, "alice", "bob")
	conv, err := st.CreateConversation(ctx, "", ids)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	first, err := st.CreateMessage(ctx, conv.ID, ids[0], "hello")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("message must carry server-assigned id and timestamp: %+v", first)
	}
	if first.Body != "hello" || first.SenderID != ids[0] {
		t.Fatalf("unexpected message: %+v", first)
	}

	second, err := st.CreateMessage(ctx, conv.ID, ids[1], "hi")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids must be monotonic: %d then %d", first.ID, second.ID)
	}
}

func TestMarkMessageRead(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, st, "alice", "bob")
	conv, err := st.CreateConversation(ctx, "", ids)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	msg, err := st.CreateMessage(ctx, conv.ID, ids[0], "hello")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	conversationID, err := st.GetMessageConversation(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get message conversation: %v", err)
	}
	if conversationID != conv.ID {
		t.Fatalf("message resolved to conversation %d, want %d", conversationID, conv.ID)
	}
	if _, err := st.GetMessageConversation(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown message, got %v", err)
	}

	conversationID, err = st.MarkMessageRead(ctx, msg.ID, ids[1])
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if conversationID != conv.ID {
		t.Fatalf("mark read returned conversation %d, want %d", conversationID, conv.ID)
	}

	// Re-reading is a no-op, not an error.
	if _, err := st.MarkMessageRead(ctx, msg.ID, ids[1]); err != nil {
		t.Fatalf("repeated mark read: %v", err)
	}

	if _, err := st.MarkMessageRead(ctx, 9999, ids[1]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown message, got %v", err)
	}
}

func TestPresenceUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ids := seedUsers(t, st, "alice")

	if _, err := st.GetUserPresence(ctx, ids[0]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first set, got %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := st.SetUserPresence(ctx, ids[0], true, now); err != nil {
		t.Fatalf("set presence: %v", err)
	}
	p, err := st.GetUserPresence(ctx, ids[0])
	if err != nil {
		t.Fatalf("get presence: %v", err)
	}
	if !p.IsOnline {
		t.Fatal("presence should be online")
	}

	later := now.Add(time.Minute)
	if err := st.SetUserPresence(ctx, ids[0], false, later); err != nil {
		t.Fatalf("update presence: %v", err)
	}
	p, err = st.GetUserPresence(ctx, ids[0])
	if err != nil {
		t.Fatalf("get presence: %v", err)
	}
	if p.IsOnline {
		t.Fatal("last write should win")
	}
	if p.LastSeenAt.Before(now) {
		t.Fatalf("last seen not updated: %v", p.LastSeenAt)
	}
}
