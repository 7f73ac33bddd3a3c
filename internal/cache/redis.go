package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "lingobot:tm"

// Redis stores hops in Redis under "<prefix>:<src>:<tgt>:<hash>". The value
// keeps the source text so hash collisions read as misses.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type redisValue struct {
	Source string `json:"src"`
	Text   string `json:"text"`
}

func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedis(client, cfg.Prefix, cfg.TTL), nil
}

func (r *Redis) key(k Key) string {
	return fmt.Sprintf("%s:%s:%s:%s", r.prefix, k.Source, k.Target,
		strconv.FormatUint(xxhash.Sum64String(k.Text), 16))
}

func (r *Redis) Get(ctx context.Context, k Key) (string, bool, error) {
	raw, err := r.client.Get(ctx, r.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var v redisValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	if v.Source != k.Text {
		return "", false, nil
	}
	return v.Text, true, nil
}

func (r *Redis) Set(ctx context.Context, k Key, value string) error {
	raw, err := json.Marshal(redisValue{Source: k.Text, Text: value})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(k), raw, r.ttl).Err()
}

// Clear deletes every key under the prefix and returns how many went.
func (r *Redis) Clear(ctx context.Context) (int64, error) {
	var deleted int64
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 500).Iterator()
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		deleted += n
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
