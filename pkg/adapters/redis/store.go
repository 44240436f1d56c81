package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "gazette:session:"

var (
	_ ports.SessionStore = (*Store)(nil)
	_ ports.DetailSink   = (*Store)(nil)
	_ ports.EventSink    = (*Store)(nil)
)

// Store implements ports.SessionStore using Redis. Records are JSON strings,
// indexed by a sorted set scored by expiry. Live decision events are pushed to
// a per-session list.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) eventsKey(sessionID string) string {
	return s.prefix + "events:" + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record to Redis.
func (s *Store) Save(ctx context.Context, detail *domain.SessionDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Score = Now + TTL, or far future when records never expire.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(detail.SessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: detail.SessionID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// WriteDetail implements ports.DetailSink.
func (s *Store) WriteDetail(ctx context.Context, detail domain.SessionDetail) error {
	return s.Save(ctx, &detail)
}

// Load retrieves the record from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var detail domain.SessionDetail
	if err := json.Unmarshal(val, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &detail, nil
}

// Delete removes the record and its event stream.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID), s.eventsKey(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored sessions, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Append pushes a live decision event. RPUSH is atomic per event, so
// concurrent sessions never interleave inside one entry.
func (s *Store) Append(ctx context.Context, sessionID string, event domain.DecisionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.eventsKey(sessionID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.eventsKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Events returns the live event stream of a session.
func (s *Store) Events(ctx context.Context, sessionID string) ([]domain.DecisionEvent, error) {
	raw, err := s.client.LRange(ctx, s.eventsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	events := make([]domain.DecisionEvent, 0, len(raw))
	for _, r := range raw {
		var e domain.DecisionEvent
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
