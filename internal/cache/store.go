package cache

import (
	"context"
	"errors"
)

// Store 负责哈希 URL 的读写与按标签失效。
type Store interface {
	// Load 返回 key 对应的值。若不存在则返回 ErrNotFound。
	Load(ctx context.Context, key string) (string, error)

	// Save 写入 key 并将其登记到 tags 下，重复写入覆盖旧值。
	Save(ctx context.Context, key, value string, tags []string) error

	// Clean 删除登记在任一 tags 下的条目；不传 tags 时清空全部条目。
	Clean(ctx context.Context, tags ...string) error
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ErrStoreUnavailable 表示未注入缓存存储实例。
var ErrStoreUnavailable = errors.New("cache store unavailable")
