package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var supportedItemTypes = map[string]struct{}{
	"js":       {},
	"js_css":   {},
	"skin_js":  {},
	"skin_css": {},
	"rss":      {},
	"link_rel": {},
}

const supportedItemTypeList = "js|js_css|skin_js|skin_css|rss|link_rel"

// reservedPrefixes 为静态资源与诊断接口保留，页面路径不得占用。
var reservedPrefixes = []string{"/-/", "/js/", "/skin/", "/media/"}

// Validate 针对语义级别做进一步校验，一次性返回全部字段错误。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	var errs *multierror.Error
	add := func(err error) {
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		add(newFieldError("Global.ListenPort", "必须在 1-65535"))
	}
	if strings.TrimSpace(g.BaseDir) == "" {
		add(newFieldError("Global.BaseDir", "不能为空"))
	}
	add(validateBaseURL("Global.BaseURL", g.BaseURL))
	if g.SecureBaseURL != "" {
		add(validateBaseURL("Global.SecureBaseURL", g.SecureBaseURL))
	}

	switch g.HashMethod {
	case "version", "query":
	default:
		add(newFieldError("Global.HashMethod", "仅支持 version/query"))
	}

	switch g.CacheBackend {
	case "file":
		if strings.TrimSpace(g.StoragePath) == "" {
			add(newFieldError("Global.StoragePath", "file 缓存需要 StoragePath"))
		}
	case "memory":
		if g.MemoryCacheEntries <= 0 {
			add(newFieldError("Global.MemoryCacheEntries", "必须大于 0"))
		}
	case "redis":
		if strings.TrimSpace(g.RedisAddr) == "" {
			add(newFieldError("Global.RedisAddr", "redis 缓存需要 RedisAddr"))
		}
		if g.RedisDB < 0 {
			add(newFieldError("Global.RedisDB", "不能为负数"))
		}
	default:
		add(newFieldError("Global.CacheBackend", "仅支持 file/memory/redis"))
	}

	add(validateSegment("Global.DesignArea", g.DesignArea))
	add(validateSegment("Global.DesignPackage", g.DesignPackage))
	add(validateSegment("Global.DesignTheme", g.DesignTheme))

	seenPaths := map[string]struct{}{}
	for _, page := range c.Pages {
		if err := validatePagePath(page.Path); err != nil {
			add(err)
			continue
		}
		if _, exists := seenPaths[page.Path]; exists {
			add(newFieldError(pageField(page.Path, "Path"), "重复"))
			continue
		}
		seenPaths[page.Path] = struct{}{}

		for idx, item := range page.Items {
			if _, ok := supportedItemTypes[item.Type]; !ok {
				add(newFieldError(itemField(page.Path, idx, "Type"), "仅支持 "+supportedItemTypeList))
			}
			if item.Name == "" {
				add(newFieldError(itemField(page.Path, idx, "Name"), "不能为空"))
			}
		}
	}

	return errs.ErrorOrNil()
}

func validateBaseURL(field, raw string) error {
	if raw == "" {
		return newFieldError(field, "不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return newFieldError(field, fmt.Sprintf("无法解析: %v", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return newFieldError(field, "仅支持 http/https")
	}
	if parsed.Host == "" {
		return newFieldError(field, "缺少主机名")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return newFieldError(field, "不允许包含查询参数或片段")
	}
	return nil
}

func validateSegment(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return newFieldError(field, "不能为空")
	}
	if strings.ContainsAny(raw, `/\`) || raw == "." || raw == ".." {
		return newFieldError(field, "必须是单级目录名")
	}
	return nil
}

func validatePagePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return newFieldError(pageField(path, "Path"), "必须以 / 开头")
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(path, prefix) || path+"/" == prefix {
			return newFieldError(pageField(path, "Path"), "与保留路径冲突: "+prefix)
		}
	}
	return nil
}
