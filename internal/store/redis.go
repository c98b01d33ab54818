package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"raidsched/internal/model"
)

const scheduleKeyFormat = "%sschedule_v1:%s"

// RedisClient is the part of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps each schedule as a JSON string under
// <prefix>schedule_v1:<communityID>.
type RedisStore struct {
	client    RedisClient
	prefix    string
	defaultTZ string
}

func NewRedisStore(client RedisClient, prefix, defaultTZ string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, defaultTZ: defaultZone(defaultTZ)}
}

// NewRedisClient opens a client and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping %s: %v", ErrUnavailable, addr, err)
	}
	return client, nil
}

func (r *RedisStore) key(communityID string) string {
	return fmt.Sprintf(scheduleKeyFormat, r.prefix, communityID)
}

func (r *RedisStore) GetSchedule(ctx context.Context, communityID string) (model.Schedule, error) {
	str, err := r.client.Get(ctx, r.key(communityID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewSchedule(r.defaultTZ), nil
		}
		return model.Schedule{}, fmt.Errorf("%w: redis get: %v", ErrUnavailable, err)
	}
	return decode([]byte(str), r.defaultTZ)
}

func (r *RedisStore) UpdateSchedule(ctx context.Context, communityID string, s model.Schedule) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(communityID), string(data), 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrUnavailable, err)
	}
	return nil
}
