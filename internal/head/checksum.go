package head

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"
	"net/url"
	"os"
	"strings"
)

// FileChecksum 计算文件完整内容的 CRC32 (IEEE)，返回 8 位小写十六进制。
func FileChecksum(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: not a regular file", file)
	}

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%08x", h.Sum32()), nil
}

// MergedTarget 定位一个合并产物：Dir 为 media 下的子目录，Name 为确定性文件名。
type MergedTarget struct {
	Dir  string
	Name string
}

// RelPath 返回相对 media 根目录的 URL 风格路径。
func (t MergedTarget) RelPath() string {
	return t.Dir + "/" + t.Name
}

// ResolveMergedTarget 计算 files 合并后的产物位置。样式表按安全上下文分别落盘，
// 脚本固定使用非安全 media 主机参与命名。未知类型返回 false。
func ResolveMergedTarget(loc Locations, kind AssetKind, secure bool, files []string) (MergedTarget, bool) {
	var dir, ext string
	switch kind {
	case KindScript:
		dir, ext, secure = "js", ".js", false
	case KindStylesheet:
		dir, ext = "css", ".css"
		if secure {
			dir = "css_secure"
		}
	default:
		return MergedTarget{}, false
	}

	host, port := hostPort(loc.BaseURL(LocationMedia, secure))
	return MergedTarget{Dir: dir, Name: MergedFilename(files, host, port) + ext}, true
}

// MergedFilename 返回 md5(files 以逗号拼接 + "|host|port") 的十六进制摘要。
func MergedFilename(files []string, host, port string) string {
	sum := md5.Sum([]byte(strings.Join(files, ",") + "|" + host + "|" + port))
	return hex.EncodeToString(sum[:])
}

func hostPort(raw string) (string, string) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	return parsed.Hostname(), parsed.Port()
}
