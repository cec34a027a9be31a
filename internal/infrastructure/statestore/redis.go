package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"agent-server/services/conversation-sync/internal/domain/conversation"
	"agent-server/services/conversation-sync/internal/infrastructure/metrics"
)

// RedisStore persists conversation state as JSON blobs in Redis, one key per
// conversation.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisStore connects to Redis and returns a store. A zero ttl keeps
// records until deleted.
func NewRedisStore(redisURL string, ttl time.Duration, log zerolog.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL must be provided")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "redis-state-store").Logger(),
	}, nil
}

// Get returns the stored record merged over defaults. Fields missing from an
// older partial record keep their default values.
func (s *RedisStore) Get(ctx context.Context, conversationID string) (conversation.LocalState, error) {
	return s.read(ctx, conversation.StateKey(conversationID))
}

// Merge applies the patch via read-modify-write. Redis writes for a single
// conversation are serialized by the callers being on one settlement path;
// unrelated fields survive because only the patch's named fields change.
func (s *RedisStore) Merge(ctx context.Context, conversationID string, patch conversation.StatePatch) (conversation.LocalState, error) {
	key := conversation.StateKey(conversationID)

	state, err := s.read(ctx, key)
	if err != nil {
		return conversation.LocalState{}, err
	}

	state = patch.Apply(state)

	payload, err := json.Marshal(state)
	if err != nil {
		return conversation.LocalState{}, fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return conversation.LocalState{}, fmt.Errorf("write state %s: %w", key, err)
	}
	metrics.StateWritesTotal.WithLabelValues("redis").Inc()
	return state, nil
}

// ClearTaskID nulls the task id under an optimistic WATCH transaction: the
// write aborts if another writer touches the key between the compare and the
// clear, and the attempt is retried.
func (s *RedisStore) ClearTaskID(ctx context.Context, conversationID, taskID string) (bool, error) {
	key := conversation.StateKey(conversationID)

	for attempt := 0; attempt < 3; attempt++ {
		cleared := false
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return nil
				}
				return err
			}

			state := conversation.DefaultState()
			if err := json.Unmarshal(data, &state); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("discarding corrupt state record")
				return nil
			}
			if state.SubConversationTaskID == nil || *state.SubConversationTaskID != taskID {
				return nil
			}

			payload, err := json.Marshal(conversation.ClearTaskIDPatch().Apply(state))
			if err != nil {
				return fmt.Errorf("marshal state: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.ttl)
				return nil
			})
			if err == nil {
				cleared = true
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("clear task id %s: %w", key, err)
		}
		if cleared {
			metrics.StateWritesTotal.WithLabelValues("redis").Inc()
		}
		return cleared, nil
	}
	return false, fmt.Errorf("clear task id %s: too many conflicting writes", key)
}

// Delete removes the stored record for a conversation.
func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	key := conversation.StateKey(conversationID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}

// InFlight scans stored records for unresolved task ids.
func (s *RedisStore) InFlight(ctx context.Context) (map[string]string, error) {
	inflight := make(map[string]string)

	iter := s.client.Scan(ctx, 0, conversation.StateKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		state, err := s.read(ctx, key)
		if err != nil {
			return nil, err
		}
		if state.SubConversationTaskID != nil {
			conversationID := strings.TrimPrefix(key, conversation.StateKeyPrefix)
			inflight[conversationID] = *state.SubConversationTaskID
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan state keys: %w", err)
	}
	return inflight, nil
}

func (s *RedisStore) read(ctx context.Context, key string) (conversation.LocalState, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return conversation.DefaultState(), nil
		}
		return conversation.LocalState{}, fmt.Errorf("read state %s: %w", key, err)
	}

	// Unmarshal over defaults so partial records from older writers merge
	// instead of zeroing unnamed fields.
	state := conversation.DefaultState()
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding corrupt state record")
		return conversation.DefaultState(), nil
	}
	return state, nil
}

var _ conversation.StateStore = (*RedisStore)(nil)
