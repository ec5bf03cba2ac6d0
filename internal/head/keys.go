package head

// CacheGroup 是所有哈希 URL 缓存条目共享的标签，清理该标签即可整体失效。
const CacheGroup = "block_html"

const cacheKeyPrefix = "head_tag"

const (
	scopeStatic     = "js"
	scopeSkin       = "skin"
	scopeSkinSecure = "skin_secure"
	scopeMerged     = "url"
)

func cacheKey(scope, name string) string {
	return cacheKeyPrefix + "_" + scope + "_" + name
}
