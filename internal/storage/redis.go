package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"purissima/internal"
	"purissima/internal/production"
)

const defaultRedisPrefix = "purissima:session:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// TTL is refreshed on every write; zero keeps keys until DropSession.
	TTL time.Duration
}

// RedisStore keeps session state in Redis. Production counters live in one hash
// per context, removals in one list per session, and a set tracks the context
// hashes so DropSession can find them without SCAN.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, keyPrefix: defaultRedisPrefix, ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) productionKey(session, contextKey string) string {
	return s.keyPrefix + session + ":production:" + contextKey
}

func (s *RedisStore) contextsKey(session string) string {
	return s.keyPrefix + session + ":contexts"
}

func (s *RedisStore) removalsKey(session string) string {
	return s.keyPrefix + session + ":removed"
}

// sessionKeys lists every key a session owns. Writes refresh the expiry of all
// of them together.
func (s *RedisStore) sessionKeys(ctx context.Context, session string, extra ...string) ([]string, error) {
	if s.ttl <= 0 {
		return nil, nil
	}
	contexts, err := s.client.SMembers(ctx, s.contextsKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session contexts: %w", err)
	}
	keys := []string{s.contextsKey(session), s.removalsKey(session)}
	for _, c := range append(contexts, extra...) {
		k := s.productionKey(session, c)
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if s.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, s.ttl)
	}
}

func (s *RedisStore) PutProduction(ctx context.Context, session string, rec internal.ProductionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.productionKey(session, rec.Context)
	keys, err := s.sessionKeys(ctx, session, rec.Context)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, rec.Item, payload)
		pipe.SAdd(ctx, s.contextsKey(session), rec.Context)
		s.expire(ctx, pipe, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store production record: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteProduction(ctx context.Context, session, contextKey, item string) error {
	keys, err := s.sessionKeys(ctx, session)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.productionKey(session, contextKey), item)
		s.expire(ctx, pipe, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete production record: %w", err)
	}
	return nil
}

func (s *RedisStore) ListProduction(ctx context.Context, session, contextKey string) ([]internal.ProductionRecord, error) {
	values, err := s.client.HGetAll(ctx, s.productionKey(session, contextKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list production records: %w", err)
	}
	out := make([]internal.ProductionRecord, 0, len(values))
	for _, v := range values {
		var rec internal.ProductionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("decode production record: %w", err)
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b internal.ProductionRecord) int {
		return strings.Compare(a.Item, b.Item)
	})
	return out, nil
}

func (s *RedisStore) AppendRemovals(ctx context.Context, session string, recs []internal.RemovalRecord) error {
	if len(recs) == 0 {
		return nil
	}
	values := make([]any, 0, len(recs))
	for _, r := range recs {
		payload, err := json.Marshal(r)
		if err != nil {
			return err
		}
		values = append(values, payload)
	}
	key := s.removalsKey(session)
	keys, err := s.sessionKeys(ctx, session)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		s.expire(ctx, pipe, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append removals: %w", err)
	}
	return nil
}

func (s *RedisStore) ListRemovals(ctx context.Context, session string) ([]internal.RemovalRecord, error) {
	return s.readRemovals(ctx, s.client, s.removalsKey(session))
}

type listReader interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

func (s *RedisStore) readRemovals(ctx context.Context, c listReader, key string) ([]internal.RemovalRecord, error) {
	values, err := c.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list removals: %w", err)
	}
	out := make([]internal.RemovalRecord, 0, len(values))
	for _, v := range values {
		var r internal.RemovalRecord
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("decode removal record: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) DeleteRemovals(ctx context.Context, session string, orderIDs []string) error {
	_, err := s.rewriteRemovals(ctx, session, func(r internal.RemovalRecord) bool {
		return slices.Contains(orderIDs, r.OrderID)
	})
	return err
}

func (s *RedisStore) PurgeRemovals(ctx context.Context, session string, before time.Time) (int, error) {
	return s.rewriteRemovals(ctx, session, func(r internal.RemovalRecord) bool {
		return r.RemovedAt.Before(before)
	})
}

const maxWatchRetries = 5

// rewriteRemovals drops matching records with an optimistic WATCH/MULTI so
// concurrent appends from other processes are not lost.
func (s *RedisStore) rewriteRemovals(ctx context.Context, session string, drop func(internal.RemovalRecord) bool) (int, error) {
	key := s.removalsKey(session)
	var dropped int
	txf := func(tx *redis.Tx) error {
		recs, err := s.readRemovals(ctx, tx, key)
		if err != nil {
			return err
		}
		kept := slices.DeleteFunc(slices.Clone(recs), drop)
		dropped = len(recs) - len(kept)
		if dropped == 0 {
			return nil
		}
		values := make([]any, 0, len(kept))
		for _, r := range kept {
			payload, err := json.Marshal(r)
			if err != nil {
				return err
			}
			values = append(values, payload)
		}
		keys, err := s.sessionKeys(ctx, session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(values) > 0 {
				pipe.RPush(ctx, key, values...)
			}
			s.expire(ctx, pipe, keys...)
			return nil
		})
		return err
	}

	for range maxWatchRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to rewrite removals: %w", err)
		}
		return dropped, nil
	}
	return 0, fmt.Errorf("failed to rewrite removals: %w", redis.TxFailedErr)
}

func (s *RedisStore) DropSession(ctx context.Context, session string) error {
	contexts, err := s.client.SMembers(ctx, s.contextsKey(session)).Result()
	if err != nil {
		return fmt.Errorf("failed to list session contexts: %w", err)
	}
	keys := []string{s.contextsKey(session), s.removalsKey(session)}
	for _, c := range contexts {
		keys = append(keys, s.productionKey(session, c))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to drop session: %w", err)
	}
	return nil
}

var _ production.StateStore = (*RedisStore)(nil)
