package learner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shiksha"),
		postgres.WithUsername("shiksha"),
		postgres.WithPassword("shiksha"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("creating pool: %v", err)
	}
	t.Cleanup(pool.Close)

	store, err := NewPostgresStore(ctx, pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	return store
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	store := newTestPostgresStore(t)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	l := NewLedger("s1", time.Now())
	l.XP = 120
	l.Mastery["anchor"] = 0.8
	if err := store.Put(ctx, l); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.XP != 120 || got.Mastery["anchor"] != 0.8 {
		t.Errorf("Get() = %+v, want XP 120 and anchor 0.8", got)
	}

	// Upsert overwrites.
	l.XP = 200
	if err := store.Put(ctx, l); err != nil {
		t.Fatalf("Put() upsert error = %v", err)
	}
	got, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.XP != 200 {
		t.Errorf("XP after upsert = %d, want 200", got.XP)
	}

	if err := store.Put(ctx, NewLedger("s2", time.Now())); err != nil {
		t.Fatalf("Put(s2) error = %v", err)
	}
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].LearnerID != "s1" || all[1].LearnerID != "s2" {
		t.Errorf("List() order = %v, want s1 then s2", []string{all[0].LearnerID, all[1].LearnerID})
	}
}
