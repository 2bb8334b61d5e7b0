package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"autolead-bot/internal/common/config"
	commonerrors "autolead-bot/internal/common/errors"
	"autolead-bot/internal/models"
)

// RedisStore keeps conversation contexts in redis so dialogs survive
// process restarts. Values are JSON, keys expire after the configured TTL
// of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient is used by tests to inject a prepared client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func conversationKey(userID int64) string {
	return fmt.Sprintf("conv:%d", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (*models.ConversationContext, error) {
	data, err := s.client.Get(ctx, conversationKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.New(commonerrors.ErrCodeContextLoadFailed,
			"Failed to load conversation context", err.Error(), true)
	}

	var conversation models.ConversationContext
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, commonerrors.New(commonerrors.ErrCodeContextLoadFailed,
			"Stored conversation context is corrupted", err.Error(), false)
	}
	if conversation.Slots == nil {
		conversation.Slots = models.Slots{}
	}
	return &conversation, nil
}

func (s *RedisStore) Put(ctx context.Context, conversation *models.ConversationContext) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return commonerrors.New(commonerrors.ErrCodeContextStoreFailed,
			"Failed to serialize conversation context", err.Error(), false)
	}
	if err := s.client.Set(ctx, conversationKey(conversation.UserID), data, s.ttl).Err(); err != nil {
		return commonerrors.New(commonerrors.ErrCodeContextStoreFailed,
			"Failed to store conversation context", err.Error(), true)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, conversationKey(userID)).Err(); err != nil {
		return commonerrors.New(commonerrors.ErrCodeContextStoreFailed,
			"Failed to delete conversation context", err.Error(), true)
	}
	return nil
}

// Close releases the underlying redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
