package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "headhash:v1"

// NewRedisStore 基于 redis 客户端构建共享缓存。条目写入 <prefix>:entry:<key>，
// 标签以集合 <prefix>:tag:<tag> 记录成员条目。
func NewRedisStore(client redis.UniversalClient, prefix string) (Store, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

func (s *redisStore) Load(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.entryKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *redisStore) Save(ctx context.Context, key, value string, tags []string) error {
	if key == "" {
		return errors.New("cache key required")
	}
	entryKey := s.entryKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey, value, 0)
		for _, tag := range tags {
			pipe.SAdd(ctx, s.tagKey(tag), entryKey)
		}
		return nil
	})
	return err
}

func (s *redisStore) Clean(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return s.deletePattern(ctx, s.prefix+":*")
	}

	var errs *multierror.Error
	for _, tag := range tags {
		tagKey := s.tagKey(tag)
		members, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("tag %s: %w", tag, err))
			continue
		}
		if err := s.client.Del(ctx, append(members, tagKey)...).Err(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("tag %s: %w", tag, err))
		}
	}
	return errs.ErrorOrNil()
}

func (s *redisStore) deletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *redisStore) entryKey(key string) string {
	return s.prefix + ":entry:" + key
}

func (s *redisStore) tagKey(tag string) string {
	return s.prefix + ":tag:" + tag
}

// Close 关闭底层 redis 连接。
func (s *redisStore) Close() error {
	return s.client.Close()
}
