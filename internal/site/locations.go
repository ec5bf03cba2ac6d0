// Package site resolves the public base URLs and filesystem roots of the
// storefront: the web root plus the js/, skin/ and media/ trees beneath it.
package site

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/any-hub/headhash/internal/head"
)

// Locations 实现 head.Locations，URL 与目录均在构造时解析完成。
type Locations struct {
	baseDir   string
	baseURL   string
	secureURL string
}

// New 根据站点根目录与（安全）基础 URL 构造 Locations，secureBaseURL 为空时复用 baseURL。
func New(baseDir, baseURL, secureBaseURL string) (*Locations, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("base dir is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}

	unsecure, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	secure := unsecure
	if strings.TrimSpace(secureBaseURL) != "" {
		if secure, err = normalizeBaseURL(secureBaseURL); err != nil {
			return nil, err
		}
	}

	return &Locations{baseDir: abs, baseURL: unsecure, secureURL: secure}, nil
}

// BaseURL 返回 kind 对应的公共 URL，始终以 / 结尾。
func (l *Locations) BaseURL(kind head.LocationKind, secure bool) string {
	base := l.baseURL
	if secure {
		base = l.secureURL
	}
	switch kind {
	case head.LocationWeb, head.LocationRoot:
		return base
	default:
		return base + string(kind) + "/"
	}
}

// BaseDir 返回 kind 对应的绝对目录。
func (l *Locations) BaseDir(kind head.LocationKind) string {
	switch kind {
	case head.LocationWeb, head.LocationRoot:
		return l.baseDir
	default:
		return filepath.Join(l.baseDir, string(kind))
	}
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", raw)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}
