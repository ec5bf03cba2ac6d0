package head

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/headhash/internal/cache"
	"github.com/any-hub/headhash/internal/logging"
)

// Options 汇总 Hasher 所需的协作者与固定配置。
type Options struct {
	Store        cache.Store
	CacheEnabled bool
	Theme        ThemeResolver
	Locations    Locations
	Method       HashMethod
	Logger       *logrus.Logger
}

// Hasher 为静态与皮肤资源生成带内容哈希的 URL，并通过 cache.Gate 记忆结果。
type Hasher struct {
	gate      cache.Gate
	theme     ThemeResolver
	locations Locations
	method    HashMethod
	logger    *logrus.Logger
}

// NewHasher 校验协作者并构造 Hasher，Method 为空时使用 version。
func NewHasher(opts Options) (*Hasher, error) {
	if opts.Theme == nil {
		return nil, errors.New("theme resolver is required")
	}
	if opts.Locations == nil {
		return nil, errors.New("locations are required")
	}
	method, err := ParseHashMethod(string(opts.Method))
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Hasher{
		gate:      cache.NewGate(opts.Store, opts.CacheEnabled, logger),
		theme:     opts.Theme,
		locations: opts.Locations,
		method:    method,
		logger:    logger,
	}, nil
}

// Method 返回当前生效的哈希方式。
func (h *Hasher) Method() HashMethod {
	return h.method
}

// CacheEnabled 表示缓存门是否打开。
func (h *Hasher) CacheEnabled() bool {
	return h.gate.Enabled()
}

// HashStatic 返回 js 目录下静态资源的带哈希 URL。缓存中保存相对名称，
// 基础 URL 在查找后按当前请求拼接。
func (h *Hasher) HashStatic(ctx context.Context, req Request, name string) string {
	baseURL := h.locations.BaseURL(LocationJS, isSecure(req))
	key := cacheKey(scopeStatic, name)

	if cached, ok := h.gate.Load(ctx, key); ok {
		h.logger.WithFields(logging.AssetFields("asset_hash", key, name, true)).Debug("cache hit")
		return baseURL + cached
	}

	file := h.staticFile(name)
	hashed, ok := h.appendFileHash(name, file)
	if ok {
		h.gate.Save(ctx, key, hashed, CacheGroup)
	}
	h.logger.WithFields(logging.AssetFields("asset_hash", key, name, false)).Debug("hashed static asset")
	return baseURL + hashed
}

// HashSkin 返回主题皮肤资源的带哈希 URL，安全与非安全请求分别缓存。
func (h *Hasher) HashSkin(ctx context.Context, req Request, name string) string {
	secure := isSecure(req)
	scope := scopeSkin
	if secure {
		scope = scopeSkinSecure
	}
	key := cacheKey(scope, name)

	if cached, ok := h.gate.Load(ctx, key); ok {
		h.logger.WithFields(logging.AssetFields("asset_hash", key, name, true)).Debug("cache hit")
		return cached
	}

	url, err := h.theme.SkinURL(name, secure)
	if err != nil {
		h.logger.WithError(err).WithFields(logging.AssetFields("asset_hash", key, name, false)).Warn("skin url lookup failed")
		return name
	}
	file, err := h.theme.Filename(strings.Trim(name, "/"), FileSkin)
	if err != nil {
		h.logger.WithError(err).WithFields(logging.AssetFields("asset_hash", key, name, false)).Warn("skin file lookup failed")
		return url
	}

	hashed, ok := h.appendFileHash(url, file)
	if ok {
		h.gate.Save(ctx, key, hashed, CacheGroup)
	}
	h.logger.WithFields(logging.AssetFields("asset_hash", key, name, false)).Debug("hashed skin asset")
	return hashed
}

// HashMerged 用合并产物本身的 CRC 改写 mergedURL。kind 未知或产物不存在时原样返回。
func (h *Hasher) HashMerged(ctx context.Context, req Request, mergedURL string, files []string, kind AssetKind) string {
	key := cacheKey(scopeMerged, mergedURL)
	if cached, ok := h.gate.Load(ctx, key); ok {
		h.logger.WithFields(logging.AssetFields("merged_hash", key, mergedURL, true)).Debug("cache hit")
		return cached
	}

	target, ok := ResolveMergedTarget(h.locations, kind, isSecure(req), files)
	if !ok {
		h.logger.WithFields(logging.AssetFields("merged_hash", key, mergedURL, false)).
			WithField("kind", string(kind)).
			Debug("unknown merge kind, hash skipped")
		return mergedURL
	}

	file := filepath.Join(h.locations.BaseDir(LocationMedia), target.Dir, target.Name)
	hashed, found := h.appendFileHash(mergedURL, file)
	if found {
		h.gate.Save(ctx, key, hashed, CacheGroup)
	}
	h.logger.WithFields(logging.AssetFields("merged_hash", key, mergedURL, false)).Debug("hashed merged asset")
	return hashed
}

func (h *Hasher) staticFile(name string) string {
	return filepath.Join(h.locations.BaseDir(LocationJS), filepath.FromSlash(name))
}

// appendFileHash 把 file 的 CRC 写入 url，文件不可读时返回原 url 与 false。
func (h *Hasher) appendFileHash(url, file string) (string, bool) {
	sum, err := FileChecksum(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"action": "asset_checksum",
				"file":   file,
			}).Warn("checksum failed")
		}
		return url, false
	}
	return EmbedHash(url, sum, h.method), true
}
