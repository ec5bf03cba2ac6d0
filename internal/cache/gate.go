package cache

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Gate 根据启用开关代理 Store：关闭时所有读写都被跳过，后端错误按未命中处理。
type Gate struct {
	store   Store
	enabled bool
	logger  *logrus.Logger
}

// NewGate 构造缓存门，enabled 在构造时确定，之后不再变化。
func NewGate(store Store, enabled bool, logger *logrus.Logger) Gate {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return Gate{
		store:   store,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled 返回当前是否具备缓存读写能力。
func (g Gate) Enabled() bool {
	return g.enabled && g.store != nil
}

// Load 读取缓存，命中且值非空时返回 true。
func (g Gate) Load(ctx context.Context, key string) (string, bool) {
	if !g.Enabled() {
		return "", false
	}
	value, err := g.store.Load(ctx, key)
	switch {
	case err == nil:
		return value, value != ""
	case errors.Is(err, ErrNotFound):
		return "", false
	default:
		g.logger.WithError(err).WithFields(logrus.Fields{"action": "cache_load", "key": key}).Warn("cache_load_failed")
		return "", false
	}
}

// Save 写入缓存，失败仅记录日志。
func (g Gate) Save(ctx context.Context, key, value string, tags ...string) {
	if !g.Enabled() {
		return
	}
	if err := g.store.Save(ctx, key, value, tags); err != nil {
		g.logger.WithError(err).WithFields(logrus.Fields{"action": "cache_save", "key": key}).Warn("cache_save_failed")
	}
}

// Clean 按标签清理缓存，未注入 Store 时返回 ErrStoreUnavailable。
func (g Gate) Clean(ctx context.Context, tags ...string) error {
	if g.store == nil {
		return ErrStoreUnavailable
	}
	return g.store.Clean(ctx, tags...)
}
