package server

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

const (
	cacheControlImmutable = "public, max-age=31536000, immutable"
	cacheControlNoCache   = "no-cache"
)

var (
	versionedName = regexp.MustCompile(`^(.*)\.[0-9a-f]{8}(\.[0-9A-Za-z]{2,5})$`)
	hashedQuery   = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

// staticHandler 从 root 提供文件；带版本段的名称在精确文件不存在时回退到原始文件。
func staticHandler(root string, logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		file, versioned, ok := resolveStatic(root, c.Params("*"))
		if !ok {
			return renderNotFound(c, logger, c.Path())
		}

		f, err := os.Open(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return renderNotFound(c, logger, c.Path())
			}
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		immutable := versioned || hashedQuery.Match(c.Request().URI().QueryString())
		if immutable {
			c.Set(fiber.HeaderCacheControl, cacheControlImmutable)
		} else {
			c.Set(fiber.HeaderCacheControl, cacheControlNoCache)
		}
		c.Type(strings.TrimPrefix(filepath.Ext(file), "."))
		c.Response().Header.SetContentLength(int(info.Size()))
		c.Status(fiber.StatusOK)

		if c.Method() == fiber.MethodHead {
			return nil
		}
		_, err = io.Copy(c.Response().BodyWriter(), f)
		return err
	}
}

// resolveStatic 将请求中的相对路径映射为 root 下的普通文件。
// 返回值 versioned 表示命中的是去除版本段后的文件。
func resolveStatic(root, rel string) (string, bool, bool) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", false, false
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", false, false
		}
	}

	clean := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if clean == "" {
		return "", false, false
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	if !within(root, full) {
		return "", false, false
	}
	if isRegular(full) {
		return full, false, true
	}

	matches := versionedName.FindStringSubmatch(full)
	if matches == nil {
		return "", false, false
	}
	original := matches[1] + matches[2]
	if isRegular(original) {
		return original, true, true
	}
	return "", false, false
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isRegular(file string) bool {
	info, err := os.Stat(file)
	return err == nil && info.Mode().IsRegular()
}
