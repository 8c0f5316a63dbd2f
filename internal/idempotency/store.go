package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the prefix for all idempotency keys
	keyPrefix = "idempotency:"
	// DefaultTTL is how long a completed response is replayed
	DefaultTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request keeps its key locked
	pendingTTL = time.Minute
)

var (
	ErrInProgress = errors.New("request with this idempotency key is in progress")
	ErrKeyReused  = errors.New("idempotency key was used with a different request")
)

type state string

const (
	statePending state = "pending"
	stateDone    state = "done"
)

// Record is a stored response for an idempotency key. Fingerprint is a hash
// of the request the key was first used with.
type Record struct {
	State       state           `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	StatusCode  int             `json:"status_code,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

func (r *Record) Done() bool { return r != nil && r.State == stateDone }

// Store keeps one record per caller-supplied key in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: DefaultTTL}
}

// buildKey builds the Redis key
// Format: idempotency:{scope}:{key}
func (s *Store) buildKey(scope, key string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, scope, key)
}

// Claim atomically reserves the key for the request identified by
// fingerprint. It returns (nil, nil) when the caller owns the key and should
// do the work, the stored record when a previous identical request completed,
// ErrKeyReused when the key belongs to a different request, or ErrInProgress
// when another request holds it.
func (s *Store) Claim(ctx context.Context, scope, key, fingerprint string) (*Record, error) {
	k := s.buildKey(scope, key)

	pending, _ := json.Marshal(Record{State: statePending, Fingerprint: fingerprint})
	acquired, err := s.client.SetNX(ctx, k, pending, pendingTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if acquired {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET, let the caller retry
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	if rec.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}
	if !rec.Done() {
		return nil, ErrInProgress
	}

	return &rec, nil
}

// Complete stores the final response for replay.
func (s *Store) Complete(ctx context.Context, scope, key, fingerprint string, statusCode int, body []byte) error {
	data, err := json.Marshal(Record{
		State:       stateDone,
		Fingerprint: fingerprint,
		StatusCode:  statusCode,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}

	if err := s.client.Set(ctx, s.buildKey(scope, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}

// Release drops a claim so the request can be retried with the same key.
func (s *Store) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.buildKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
