package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/storyloom/guardrail/pkg/engine"
)

const (
	sessionKeyPrefix  = "session:"
	evidenceKeyPrefix = "evidence:"
	evidenceLogKey    = "evidence_log"

	sessionTTL = 24 * time.Hour
)

// RedisStorage implements Storage using Redis. Evidence records are keyed by
// ULID so the log reads back in creation order.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStorage) SaveSessionState(ctx context.Context, id uuid.UUID, state json.RawMessage) error {
	key := sessionKeyPrefix + id.String()
	if err := r.client.Set(ctx, key, string(state), sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session state", "session_id", id, "error", err)
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSessionState(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	key := sessionKeyPrefix + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Session state not found", "session_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load session state", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}
	return json.RawMessage(data), nil
}

func (r *RedisStorage) AppendEvidence(ctx context.Context, rec engine.EvidenceRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal evidence record: %w", err)
	}

	id := ulid.Make().String()
	key := evidenceKeyPrefix + id
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save evidence record", "record_id", id, "error", err)
		return "", fmt.Errorf("failed to save evidence record: %w", err)
	}
	if err := r.client.RPush(ctx, evidenceLogKey, id).Err(); err != nil {
		r.logger.Error("Failed to index evidence record", "record_id", id, "error", err)
		return "", fmt.Errorf("failed to index evidence record: %w", err)
	}
	return id, nil
}

func (r *RedisStorage) ListEvidence(ctx context.Context, limit int) ([]engine.EvidenceRecord, error) {
	start := int64(-limit)
	ids, err := r.client.LRange(ctx, evidenceLogKey, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence log: %w", err)
	}
	if len(ids) == 0 {
		return []engine.EvidenceRecord{}, nil
	}

	records := make([]engine.EvidenceRecord, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, evidenceKeyPrefix+id).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				r.logger.Warn("Evidence record missing for indexed ID", "record_id", id)
				continue
			}
			return nil, fmt.Errorf("failed to load evidence record %s: %w", id, err)
		}
		var rec engine.EvidenceRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence record %s: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
