package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"persona-service/internal/app"
	"persona-service/internal/domain"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := &app.Session{
		ID:        "s1",
		BankID:    "bank-1",
		Order:     []int{2, 0, 1},
		Responses: make([]int, 3),
		CreatedAt: time.Now(),
	}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SetResponse(ctx, "s1", 1, 5); err != nil {
		t.Fatalf("set response: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Responses[1] != 5 {
		t.Fatalf("expected response persisted, got %v", got.Responses)
	}

	// Mutating the returned session must not leak into the store.
	got.Responses[0] = 7
	again, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Responses[0] != 0 {
		t.Fatalf("store shares state with callers")
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSessionStoreRejectsUnknownSessionAndPosition(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if err := store.SetResponse(ctx, "missing", 0, 4); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	session := &app.Session{ID: "s1", Order: []int{0, 1}, Responses: make([]int, 2)}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetResponse(ctx, "s1", 9, 4); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}
