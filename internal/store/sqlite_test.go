package store

import (
	"context"
	"testing"
	"time"

	"homegrid/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store *SQLiteStore, id, username string) {
	t.Helper()
	err := store.CreateUser(context.Background(), &domain.User{
		UserID:       id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func seedChat(t *testing.T, store *SQLiteStore, chatID, userA, userB string) {
	t.Helper()
	err := store.CreateChat(context.Background(), &domain.Chat{
		ChatID:         chatID,
		ParticipantIDs: []string{userA, userB},
		SeenBy:         []string{userA},
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}
}

func TestSQLiteStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")

	got, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}

	byName, err := store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName == nil || byName.UserID != "u1" {
		t.Fatalf("unexpected user: %+v", byName)
	}

	missing, err := store.GetUser(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing user, got %+v, %v", missing, err)
	}

	err = store.CreateUser(ctx, &domain.User{
		UserID: "u2", Username: "alice", Email: "other@example.com",
		PasswordHash: "x", CreatedAt: time.Now().UTC(),
	})
	if err != domain.ErrConflict {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
}

func TestSQLiteStoreChatLookup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")
	seedChat(t, store, "c1", "u1", "u2")

	chat, err := store.GetChat(ctx, "c1")
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if chat == nil || len(chat.ParticipantIDs) != 2 {
		t.Fatalf("unexpected chat: %+v", chat)
	}
	if len(chat.SeenBy) != 1 || chat.SeenBy[0] != "u1" {
		t.Fatalf("expected seenBy {u1}, got %v", chat.SeenBy)
	}

	// Pair lookup works in both directions.
	forward, err := store.GetChatByParticipants(ctx, "u1", "u2")
	if err != nil || forward == nil || forward.ChatID != "c1" {
		t.Fatalf("forward pair lookup: %+v, %v", forward, err)
	}
	reverse, err := store.GetChatByParticipants(ctx, "u2", "u1")
	if err != nil || reverse == nil || reverse.ChatID != "c1" {
		t.Fatalf("reverse pair lookup: %+v, %v", reverse, err)
	}

	none, err := store.GetChatByParticipants(ctx, "u1", "u3")
	if err != nil || none != nil {
		t.Fatalf("expected nil for unknown pair, got %+v, %v", none, err)
	}
}

func TestSQLiteStoreAppendResetsSeen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")
	seedChat(t, store, "c1", "u1", "u2")

	// Both have seen the chat before the append.
	if _, err := store.MarkRead(ctx, "c1", "u2"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	msg := &domain.Message{
		MessageID: "m1", ChatID: "c1", SenderID: "u2",
		Text: "hello", CreatedAt: time.Now().UTC(),
	}
	if err := store.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if msg.Seq == 0 {
		t.Fatalf("expected Seq to be assigned")
	}

	chat, err := store.GetChat(ctx, "c1")
	if err != nil {
		t.Fatalf("GetChat failed: %v", err)
	}
	if len(chat.SeenBy) != 1 || chat.SeenBy[0] != "u2" {
		t.Fatalf("expected seenBy reset to sender, got %v", chat.SeenBy)
	}
	if chat.LastMessage != "hello" || chat.LastMessageAt == nil {
		t.Fatalf("last message summary not updated: %+v", chat)
	}
}

func TestSQLiteStoreMarkReadIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")
	seedChat(t, store, "c1", "u1", "u2")

	first, err := store.MarkRead(ctx, "c1", "u2")
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	second, err := store.MarkRead(ctx, "c1", "u2")
	if err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both participants seen, got %v then %v", first, second)
	}
}

func TestSQLiteStoreMessageOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")
	seedChat(t, store, "c1", "u1", "u2")

	// Identical timestamps; ordering must come from insertion, not clock.
	at := time.Now().UTC()
	for i, id := range []string{"m1", "m2", "m3"} {
		sender := "u1"
		if i%2 == 1 {
			sender = "u2"
		}
		err := store.AppendMessage(ctx, &domain.Message{
			MessageID: id, ChatID: "c1", SenderID: sender, Text: id, CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("AppendMessage %s failed: %v", id, err)
		}
	}

	messages, err := store.GetMessages(ctx, "c1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if messages[i].MessageID != want {
			t.Fatalf("message %d: expected %s, got %s", i, want, messages[i].MessageID)
		}
	}
}

func TestSQLiteStoreListChatsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")
	seedUser(t, store, "u3", "carol")
	seedChat(t, store, "c1", "u1", "u2")
	seedChat(t, store, "c2", "u1", "u3")

	// Activity in c1 makes it the most recent.
	err := store.AppendMessage(ctx, &domain.Message{
		MessageID: "m1", ChatID: "c1", SenderID: "u2",
		Text: "ping", CreatedAt: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	chats, err := store.ListChats(ctx, "u1")
	if err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}
	if chats[0].ChatID != "c1" {
		t.Fatalf("expected c1 first, got %s", chats[0].ChatID)
	}
	if chats[0].Receiver == nil || chats[0].Receiver.UserID != "u2" {
		t.Fatalf("expected receiver u2, got %+v", chats[0].Receiver)
	}
}

func TestSQLiteStorePostFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "alice")

	posts := []*domain.Post{
		{PostID: "p1", OwnerID: "u1", Title: "downtown flat", Price: 1200, City: "lyon", Bedroom: 2, Type: domain.PostTypeRent, Property: domain.PropertyApartment, CreatedAt: time.Now().UTC()},
		{PostID: "p2", OwnerID: "u1", Title: "country house", Price: 250000, City: "tours", Bedroom: 4, Type: domain.PostTypeBuy, Property: domain.PropertyHouse, CreatedAt: time.Now().UTC()},
	}
	for _, p := range posts {
		if err := store.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	got, err := store.ListPosts(ctx, domain.PostFilter{City: "lyon", Type: domain.PostTypeRent})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 1 || got[0].PostID != "p1" {
		t.Fatalf("unexpected filter result: %+v", got)
	}

	got, err = store.ListPosts(ctx, domain.PostFilter{MinPrice: 2000})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 1 || got[0].PostID != "p2" {
		t.Fatalf("unexpected price filter result: %+v", got)
	}

	saved, err := store.IsPostSaved(ctx, "u1", "p1")
	if err != nil || saved {
		t.Fatalf("expected not saved, got %v, %v", saved, err)
	}
	if err := store.SetPostSaved(ctx, "u1", "p1", true); err != nil {
		t.Fatalf("SetPostSaved failed: %v", err)
	}
	saved, err = store.IsPostSaved(ctx, "u1", "p1")
	if err != nil || !saved {
		t.Fatalf("expected saved, got %v, %v", saved, err)
	}
}
