// Package merge concatenates head assets into the deterministic media/js and
// media/css[_secure] files whose names the hasher derives independently.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/any-hub/headhash/internal/head"
)

const (
	mimeCSS = "text/css"
	mimeJS  = "application/javascript"
)

// Options 描述合并服务的依赖。
type Options struct {
	Locations head.Locations
	Minify    bool
	Logger    *logrus.Logger
}

// Service 负责生成合并产物，按目标文件串行化写入。
type Service struct {
	loc      head.Locations
	minifier *minify.M
	logger   *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService 构造合并服务，Minify 为 false 时仅拼接。
func NewService(opts Options) (*Service, error) {
	if opts.Locations == nil {
		return nil, errors.New("locations are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var m *minify.M
	if opts.Minify {
		m = minify.New()
		m.AddFunc(mimeCSS, css.Minify)
		m.AddFunc(mimeJS, js.Minify)
	}
	return &Service{
		loc:      opts.Locations,
		minifier: m,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Scripts 返回脚本合并器。
func (s *Service) Scripts() head.Merger {
	return kindMerger{svc: s, kind: head.KindScript}
}

// Styles 返回样式表合并器。
func (s *Service) Styles() head.Merger {
	return kindMerger{svc: s, kind: head.KindStylesheet}
}

type kindMerger struct {
	svc  *Service
	kind head.AssetKind
}

func (m kindMerger) Merge(ctx context.Context, files []string, secure bool) (string, error) {
	return m.svc.Merge(ctx, m.kind, files, secure)
}

func (m kindMerger) Kind() head.AssetKind {
	return m.kind
}

// Merge 生成（或复用）files 的合并产物并返回其 media URL。
func (s *Service) Merge(ctx context.Context, kind head.AssetKind, files []string, secure bool) (string, error) {
	if len(files) == 0 {
		return "", errors.New("no files to merge")
	}
	target, ok := head.ResolveMergedTarget(s.loc, kind, secure, files)
	if !ok {
		return "", fmt.Errorf("unsupported merge kind: %s", kind)
	}
	dest := filepath.Join(s.loc.BaseDir(head.LocationMedia), target.Dir, target.Name)
	url := s.loc.BaseURL(head.LocationMedia, secure) + target.RelPath()

	newest, err := newestSource(files)
	if err != nil {
		return "", err
	}

	unlock := s.lockTarget(dest)
	defer unlock()

	if info, err := os.Stat(dest); err == nil && !info.ModTime().Before(newest) {
		return url, nil
	}

	data, err := s.build(ctx, kind, files)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(dest, data); err != nil {
		return "", fmt.Errorf("write merged file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"action": "asset_merge",
		"kind":   string(kind),
		"files":  len(files),
		"target": target.RelPath(),
	}).Info("merged assets written")
	return url, nil
}

func (s *Service) build(ctx context.Context, kind head.AssetKind, files []string) ([]byte, error) {
	var buf bytes.Buffer
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(content)
	}

	if s.minifier == nil {
		return buf.Bytes(), nil
	}
	mediaType := mimeJS
	if kind == head.KindStylesheet {
		mediaType = mimeCSS
	}
	minified, err := s.minifier.Bytes(mediaType, buf.Bytes())
	if err != nil {
		s.logger.WithError(err).WithField("kind", string(kind)).Warn("minify failed, keeping concatenated output")
		return buf.Bytes(), nil
	}
	return minified, nil
}

func (s *Service) lockTarget(dest string) func() {
	s.mu.Lock()
	lock, ok := s.locks[dest]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[dest] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// newestSource 返回所有源文件中最新的修改时间，任一源不可用即失败。
func newestSource(files []string) (time.Time, error) {
	var newest time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return time.Time{}, fmt.Errorf("merge source: %w", err)
		}
		if !info.Mode().IsRegular() {
			return time.Time{}, fmt.Errorf("merge source %s: not a regular file", file)
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest, nil
}

func writeFileAtomic(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".merge-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
