package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 支持的缓存后端。
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options 描述如何打开缓存后端。
type Options struct {
	Backend       string
	StoragePath   string
	MaxEntries    int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DialTimeout   time.Duration
}

// Open 根据 Backend 创建 Store。
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewStore(opts.StoragePath)
	case BackendMemory:
		return NewMemoryStore(opts.MaxEntries)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        opts.RedisAddr,
			Password:    opts.RedisPassword,
			DB:          opts.RedisDB,
			DialTimeout: opts.DialTimeout,
		})
		return NewRedisStore(client, "")
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", opts.Backend)
	}
}
