package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/any-hub/headhash/internal/config"
)

// PageRoute 将页面配置与规范化后的路径聚合在一起，供路由层直接复用。
type PageRoute struct {
	// Config 是 config.toml 中声明的页面字段副本。
	Config config.PageConfig
	// Path 是规范化后的请求路径。
	Path string
}

// PageRegistry 提供请求路径到 PageRoute 的查询能力。
type PageRegistry struct {
	routes  map[string]*PageRoute
	ordered []*PageRoute
}

// NewPageRegistry 根据配置构建路径映射。调用方应在启动阶段创建一次并复用。
func NewPageRegistry(cfg *config.Config) (*PageRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	registry := &PageRegistry{
		routes: make(map[string]*PageRoute, len(cfg.Pages)),
	}

	for _, page := range cfg.Pages {
		normalized := normalizePath(page.Path)
		if normalized == "" {
			return nil, fmt.Errorf("invalid path for page %q", page.Path)
		}
		if _, exists := registry.routes[normalized]; exists {
			return nil, fmt.Errorf("duplicate page path detected for %s", normalized)
		}

		route := &PageRoute{Config: page, Path: normalized}
		registry.routes[normalized] = route
		registry.ordered = append(registry.ordered, route)
	}

	return registry, nil
}

// Lookup 根据请求路径查找 PageRoute，末尾的 / 会被忽略。
func (r *PageRegistry) Lookup(path string) (*PageRoute, bool) {
	if r == nil {
		return nil, false
	}
	normalized := normalizePath(path)
	if normalized == "" {
		return nil, false
	}
	route, ok := r.routes[normalized]
	return route, ok
}

// List 按配置顺序返回页面，用于诊断输出。
func (r *PageRegistry) List() []PageRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}
	result := make([]PageRoute, len(r.ordered))
	for i, route := range r.ordered {
		result[i] = *route
	}
	return result
}

func normalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") {
		return ""
	}
	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
		if raw == "" {
			return "/"
		}
	}
	return raw
}
