package learner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "ledger:"

// RedisStore is a key-value Store implementation: one JSON ledger document
// per learner under "ledger:<id>".
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed ledger store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, learnerID string) (*Ledger, error) {
	data, err := s.client.Get(ctx, ledgerKeyPrefix+learnerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, learnerID)
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return DecodeLedger(data)
}

func (s *RedisStore) Put(ctx context.Context, l *Ledger) error {
	if l.LearnerID == "" {
		return fmt.Errorf("learner id is required")
	}
	data, err := EncodeLedger(l)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, ledgerKeyPrefix+l.LearnerID, data, 0).Err(); err != nil {
		return fmt.Errorf("put ledger: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Ledger, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, ledgerKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan ledgers: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)

	out := make([]*Ledger, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // deleted between scan and get
			}
			return nil, fmt.Errorf("get ledger %s: %w", key, err)
		}
		l, err := DecodeLedger(data)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
