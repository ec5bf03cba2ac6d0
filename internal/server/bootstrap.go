package server

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/headhash/internal/cache"
	"github.com/any-hub/headhash/internal/config"
	"github.com/any-hub/headhash/internal/head"
	"github.com/any-hub/headhash/internal/merge"
	"github.com/any-hub/headhash/internal/site"
	"github.com/any-hub/headhash/internal/theme"
)

// Runtime 汇总由配置构建出的全部协作者，在进程内共享且只读。
type Runtime struct {
	Config    *config.Config
	Store     cache.Store
	Locations *site.Locations
	Theme     *theme.Resolver
	Hasher    *head.Hasher
	Merger    *merge.Service
	Pages     *PageRegistry

	gate   cache.Gate
	logger *logrus.Logger
}

// NewRuntime 根据配置打开缓存后端并构建 hasher、合并服务与页面表。
func NewRuntime(cfg *config.Config, logger *logrus.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	g := cfg.Global

	store, err := cache.Open(cache.Options{
		Backend:       g.CacheBackend,
		StoragePath:   g.StoragePath,
		MaxEntries:    g.MemoryCacheEntries,
		RedisAddr:     g.RedisAddr,
		RedisPassword: g.RedisPassword,
		RedisDB:       g.RedisDB,
		DialTimeout:   g.RedisDialTimeout.DurationValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return NewRuntimeWithStore(cfg, store, logger)
}

// NewRuntimeWithStore 与 NewRuntime 相同，但使用调用方提供的 Store。
func NewRuntimeWithStore(cfg *config.Config, store cache.Store, logger *logrus.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	g := cfg.Global

	loc, err := site.New(g.BaseDir, g.BaseURL, g.SecureBaseURL)
	if err != nil {
		return nil, fmt.Errorf("site locations: %w", err)
	}
	resolver, err := theme.NewResolver(loc, g.DesignArea, g.DesignPackage, g.DesignTheme)
	if err != nil {
		return nil, fmt.Errorf("theme resolver: %w", err)
	}
	hasher, err := head.NewHasher(head.Options{
		Store:        store,
		CacheEnabled: g.CacheEnabled,
		Theme:        resolver,
		Locations:    loc,
		Method:       head.HashMethod(g.HashMethod),
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("hasher: %w", err)
	}
	merger, err := merge.NewService(merge.Options{Locations: loc, Minify: g.MinifyMerged, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("merge service: %w", err)
	}
	pages, err := NewPageRegistry(cfg)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Config:    cfg,
		Store:     store,
		Locations: loc,
		Theme:     resolver,
		Hasher:    hasher,
		Merger:    merger,
		Pages:     pages,
		gate:      cache.NewGate(store, g.CacheEnabled, logger),
		logger:    logger,
	}, nil
}

// NewBlock 为单次请求构建页面的 head Block。
func (r *Runtime) NewBlock(page config.PageConfig) *head.Block {
	var opts head.BlockOptions
	if r.Config.Global.MergeJS {
		opts.Scripts = r.Merger.Scripts()
	}
	if r.Config.Global.MergeCSS {
		opts.Styles = r.Merger.Styles()
	}

	block := head.NewBlock(r.Hasher, opts)
	for _, item := range page.Items {
		block.AddItem(head.Item{
			Type:   head.ItemType(item.Type),
			Name:   item.Name,
			Params: item.Params,
			If:     item.If,
			Cond:   item.Cond,
		})
	}
	for _, flag := range page.Flags {
		block.SetFlag(flag, true)
	}
	return block
}

// RenderHead 渲染页面 head 的资源部分。
func (r *Runtime) RenderHead(ctx context.Context, page config.PageConfig, secure bool) string {
	return r.NewBlock(page).HTML(ctx, head.SecureRequest(secure))
}

// FlushCache 清理所有哈希 URL 缓存条目。
func (r *Runtime) FlushCache(ctx context.Context) error {
	if err := r.gate.Clean(ctx, head.CacheGroup); err != nil {
		return fmt.Errorf("flush %s: %w", head.CacheGroup, err)
	}
	r.logger.WithField("action", "cache_flush").Info("hash cache flushed")
	return nil
}

// Close 释放缓存后端持有的连接。
func (r *Runtime) Close() error {
	if closer, ok := r.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
