package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

const (
	redisKeyPrefix = "comedor:session:"
	fieldToken     = "token"
	fieldUser      = "user"
)

// RedisRepository хранит сессию как хэш с полями token и user.
// Простаивающие сессии удаляет сам Redis по TTL ключа.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository подключается к Redis по адресу addr.
func NewRedisRepository(addr string, ttl time.Duration) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRepository{client: client, ttl: ttl}, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Load возвращает сессию id или пустую сессию и продлевает TTL ключа.
func (r *RedisRepository) Load(ctx context.Context, id string) (model.Session, error) {
	key := redisKey(id)

	var get *redis.MapStringStringCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}

	fields := get.Val()
	return decodeEntries(fields[fieldToken], fields[fieldUser])
}

// Save записывает оба поля и продлевает TTL в одной транзакции.
func (r *RedisRepository) Save(ctx context.Context, id string, s model.Session) error {
	token, user, err := encodeEntries(s)
	if err != nil {
		return err
	}

	key := redisKey(id)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldToken, token, fieldUser, user)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete удаляет сессию id.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// encodeEntries представляет сессию двумя строками: токен и сериализованный профиль.
func encodeEntries(s model.Session) (string, string, error) {
	if s.User == nil {
		return s.Token, "", nil
	}
	b, err := json.Marshal(s.User)
	if err != nil {
		return "", "", fmt.Errorf("encode session user: %w", err)
	}
	return s.Token, string(b), nil
}

func decodeEntries(token, user string) (model.Session, error) {
	s := model.Session{Token: token}
	if user == "" {
		return s, nil
	}
	var u model.UserProfile
	if err := json.Unmarshal([]byte(user), &u); err != nil {
		return model.Session{}, fmt.Errorf("decode session user: %w", err)
	}
	s.User = &u
	return s, nil
}
