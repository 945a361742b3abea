package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutribot/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const keyPrefix = "sensor:"

// RedisStore 以 Redis 保存感測器讀值，多個實例可共用
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 創建 Redis 儲存並測試連線
func NewRedisStore(ctx context.Context, cfg config.SensorConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// Put 寫入讀值；ttl 為 0 時不過期
func (s *RedisStore) Put(ctx context.Context, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	data, err := encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(snap.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store sensor snapshot: %w", err)
	}
	return nil
}

// Get 讀取讀值
func (s *RedisStore) Get(ctx context.Context, userID string) (Snapshot, bool, error) {
	data, err := s.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("failed to get sensor snapshot: %w", err)
	}
	snap, err := decode(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Ping 健康檢查
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func key(userID string) string {
	return keyPrefix + userID
}

func encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sensor snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal sensor snapshot: %w", err)
	}
	return s, nil
}
