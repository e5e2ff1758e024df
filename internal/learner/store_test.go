package learner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := NewLedger("s1", time.Now())
	l.XP = 75
	if err := s.Put(ctx, l); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.XP != 75 || got.LearnerID != "s1" {
		t.Errorf("Get() = %+v, want XP 75 for s1", got)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorePutRequiresID(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(context.Background(), &Ledger{}); err == nil {
		t.Error("Put() expected error for empty learner id, got nil")
	}
}

func TestMemoryStoreListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"charlie", "alice", "bob"} {
		if err := s.Put(ctx, NewLedger(id, time.Now())); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"alice", "bob", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("List() returned %d ledgers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].LearnerID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got[i].LearnerID, want[i])
		}
	}
}

func TestMemoryStorePutStoresSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := NewLedger("s1", time.Now())
	if err := s.Put(ctx, l); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	l.XP = 999 // mutate after Put; the store must not see it

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.XP != 0 {
		t.Errorf("stored XP = %d, want the snapshot value 0", got.XP)
	}
}
