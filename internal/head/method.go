package head

import (
	"fmt"
	"regexp"
	"strings"
)

// HashMethod 决定哈希嵌入 URL 的方式。
type HashMethod string

const (
	// MethodVersion 生成 %path%/%file%.%hash%.%ext%。
	MethodVersion HashMethod = "version"
	// MethodQuery 生成 %path%/%file%.%ext%?%hash%。
	MethodQuery HashMethod = "query"
)

var versionPattern = regexp.MustCompile(`^(.*)(\.[0-9A-Za-z]{2,5})$`)

// ParseHashMethod 解析配置中的哈希方式，空值回退到 version。
func ParseHashMethod(raw string) (HashMethod, error) {
	switch HashMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case "", MethodVersion:
		return MethodVersion, nil
	case MethodQuery:
		return MethodQuery, nil
	default:
		return "", fmt.Errorf("unsupported hash method: %s", raw)
	}
}

// EmbedHash 按照 method 将 hash 写入 url；无法改写时原样返回 url。
func EmbedHash(url, hash string, method HashMethod) string {
	if hash == "" {
		return url
	}
	if method == MethodQuery {
		return url + "?" + hash
	}

	path, query := url, ""
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		path, query = url[:idx], url[idx:]
	}
	if idx := strings.Index(path, "://"); idx >= 0 && !strings.Contains(path[idx+3:], "/") {
		return url
	}
	matches := versionPattern.FindStringSubmatch(path)
	if matches == nil || matches[1] == "" || strings.HasSuffix(matches[1], "/") {
		return url
	}
	return matches[1] + "." + hash + matches[2] + query
}
