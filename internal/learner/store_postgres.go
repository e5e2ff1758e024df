package learner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. The ledger is kept as one
// jsonb document per learner; last write wins, which is the documented
// consistency model for concurrent sessions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the store and ensures the ledgers table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	_, err := pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS ledgers (
		   learner_id TEXT PRIMARY KEY,
		   doc        JSONB NOT NULL,
		   updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`)
	if err != nil {
		return nil, fmt.Errorf("create ledgers table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, learnerID string) (*Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM ledgers WHERE learner_id = $1`,
		learnerID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, learnerID)
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return DecodeLedger(data)
}

func (s *PostgresStore) Put(ctx context.Context, l *Ledger) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if l.LearnerID == "" {
		return fmt.Errorf("learner id is required")
	}
	data, err := EncodeLedger(l)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ledgers (learner_id, doc, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (learner_id)
		 DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		l.LearnerID,
		data,
	)
	if err != nil {
		return fmt.Errorf("put ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM ledgers ORDER BY learner_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var out []*Ledger
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		l, err := DecodeLedger(data)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledgers: %w", err)
	}
	return out, nil
}
