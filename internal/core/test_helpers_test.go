package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/okravchenko/tidechat-server/internal/log"
	"github.com/okravchenko/tidechat-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// fakeStorage is an in-memory stand-in for the storage collaborator.
type fakeStorage struct {
	mu            sync.Mutex
	participants  map[int64][]int64 // conversationID -> userIDs
	messages      []*store.Message
	nextMessageID int64
	reads         int
	presence      map[int64]*store.Presence
	presenceSets  int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		participants:  make(map[int64][]int64),
		presence:      make(map[int64]*store.Presence),
		nextMessageID: 1,
	}
}

func (f *fakeStorage) addConversation(conversationID int64, userIDs ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[conversationID] = userIDs
}

func (f *fakeStorage) CreateConversation(_ context.Context, title string, participantIDs []int64) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.participants) + 1)
	f.participants[id] = participantIDs
	return &store.Conversation{ID: id, Title: title, CreatedAt: time.Now()}, nil
}

func (f *fakeStorage) AddParticipant(_ context.Context, conversationID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[conversationID] = append(f.participants[conversationID], userID)
	return nil
}

func (f *fakeStorage) ListParticipants(_ context.Context, conversationID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.participants[conversationID]...), nil
}

func (f *fakeStorage) IsParticipant(_ context.Context, conversationID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.participants[conversationID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStorage) ListUserConversations(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int64
	for conversationID, users := range f.participants {
		for _, id := range users {
			if id == userID {
				out = append(out, conversationID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStorage) CreateMessage(_ context.Context, conversationID, senderID int64, body string) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := &store.Message{
		ID:             f.nextMessageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now(),
	}
	f.nextMessageID++
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeStorage) GetMessageConversation(_ context.Context, messageID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages {
		if msg.ID == messageID {
			return msg.ConversationID, nil
		}
	}
	return 0, store.ErrNotFound
}

func (f *fakeStorage) MarkMessageRead(ctx context.Context, messageID, _ int64) (int64, error) {
	conversationID, err := f.GetMessageConversation(ctx, messageID)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return conversationID, nil
}

func (f *fakeStorage) SetUserPresence(_ context.Context, userID int64, isOnline bool, lastSeenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presenceSets++
	f.presence[userID] = &store.Presence{UserID: userID, IsOnline: isOnline, LastSeenAt: lastSeenAt}
	return nil
}

func (f *fakeStorage) GetUserPresence(_ context.Context, userID int64) (*store.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.presence[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStorage) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeStorage) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// fakeSink records enqueued notifications.
type fakeSink struct {
	mu      sync.Mutex
	entries []sinkEntry
}

type sinkEntry struct {
	recipientID int64
	kind        string
	payload     json.RawMessage
}

func (f *fakeSink) Enqueue(recipientID int64, kind string, payload json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, sinkEntry{recipientID, kind, payload})
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func newTestHub() (*Hub, *fakeStorage, *fakeSink) {
	storage := newFakeStorage()
	sink := &fakeSink{}
	return NewHub(storage, sink, log.Disabled()), storage, sink
}

func userClient(id int64, name string) *Client {
	return NewClient(Identity{UserID: id, Username: name, DisplayName: name})
}

func anonymousClient() *Client {
	return NewClient(Identity{UserID: AnonymousUserID, DisplayName: "guest-test", Anonymous: true})
}
