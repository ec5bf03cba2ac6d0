// Package theme locates skin assets on disk following the design fallback chain
// (configured theme, the package's default theme, then base/default).
package theme

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/any-hub/headhash/internal/head"
)

// ErrInvalidName 表示资源名为空或试图跳出皮肤目录。
var ErrInvalidName = errors.New("invalid skin asset name")

const (
	fallbackPackage = "base"
	fallbackTheme   = "default"
)

// Resolver 实现 head.ThemeResolver。
type Resolver struct {
	loc   head.Locations
	area  string
	chain []string
}

// NewResolver 基于 area/package/theme 构造回退链，重复的候选会被折叠。
func NewResolver(loc head.Locations, area, pkg, theme string) (*Resolver, error) {
	if loc == nil {
		return nil, errors.New("locations are required")
	}
	area, pkg, theme = strings.TrimSpace(area), strings.TrimSpace(pkg), strings.TrimSpace(theme)
	if area == "" || pkg == "" || theme == "" {
		return nil, fmt.Errorf("design area/package/theme must be set, got %q/%q/%q", area, pkg, theme)
	}

	var chain []string
	for _, candidate := range []string{
		pkg + "/" + theme,
		pkg + "/" + fallbackTheme,
		fallbackPackage + "/" + fallbackTheme,
	} {
		if !contains(chain, candidate) {
			chain = append(chain, candidate)
		}
	}
	return &Resolver{loc: loc, area: area, chain: chain}, nil
}

// Chain 返回按优先级排列的 package/theme 候选。
func (r *Resolver) Chain() []string {
	return append([]string(nil), r.chain...)
}

// Filename 返回第一个存在的候选文件，全部不存在时返回最后一个候选。
func (r *Resolver) Filename(name string, kind head.FileKind) (string, error) {
	if kind != head.FileSkin {
		return "", fmt.Errorf("unsupported file kind: %s", kind)
	}
	_, file, err := r.locate(name)
	return file, err
}

// SkinURL 返回与 Filename 同一候选对应的公共 URL。
func (r *Resolver) SkinURL(name string, secure bool) (string, error) {
	rel, _, err := r.locate(name)
	if err != nil {
		return "", err
	}
	return r.loc.BaseURL(head.LocationSkin, secure) + rel, nil
}

// locate 返回命中候选的相对 URL 路径与绝对文件路径。
func (r *Resolver) locate(name string) (string, string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", "", err
	}

	root := r.loc.BaseDir(head.LocationSkin)
	var rel, file string
	for _, candidate := range r.chain {
		rel = r.area + "/" + candidate + "/" + clean
		file = filepath.Join(root, filepath.FromSlash(rel))
		if info, statErr := os.Stat(file); statErr == nil && info.Mode().IsRegular() {
			return rel, file, nil
		}
	}
	return rel, file, nil
}

func cleanName(name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return "", ErrInvalidName
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidName, name)
		}
	}
	return path.Clean(name), nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
