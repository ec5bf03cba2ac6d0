package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

const (
	entriesDir = "entries"
	tagsDir    = "tags"
)

var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// NewStore 以 basePath 为根目录构建磁盘缓存，整站复用一份实例。
//
//	<basePath>/entries/<sha1[:2]>/<sha1>   # 条目值
//	<basePath>/tags/<tag>/<sha1>           # 标签索引，内容为原始 key
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &fileStore{
		basePath: abs,
		locks:    make(map[string]*entryLock),
	}, nil
}

// fileStore 通过 entryLock 避免同一 key 并发写入，同时复用 basePath。
type fileStore struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Load(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (s *fileStore) Save(ctx context.Context, key, value string, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, tag := range tags {
		if !tagPattern.MatchString(tag) {
			return fmt.Errorf("invalid cache tag: %q", tag)
		}
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return err
	}
	digest := filepath.Base(filePath)

	unlock := s.lockEntry(digest)
	defer unlock()

	if err := writeFileAtomic(filePath, []byte(value)); err != nil {
		return err
	}

	for _, tag := range tags {
		marker := filepath.Join(s.basePath, tagsDir, tag, digest)
		if err := os.MkdirAll(filepath.Dir(marker), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(marker, []byte(key), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStore) Clean(ctx context.Context, tags ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(tags) == 0 {
		var errs *multierror.Error
		for _, dir := range []string{entriesDir, tagsDir} {
			if err := os.RemoveAll(filepath.Join(s.basePath, dir)); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		return errs.ErrorOrNil()
	}

	var errs *multierror.Error
	for _, tag := range tags {
		if !tagPattern.MatchString(tag) {
			errs = multierror.Append(errs, fmt.Errorf("invalid cache tag: %q", tag))
			continue
		}
		if err := s.cleanTag(tag); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (s *fileStore) cleanTag(tag string) error {
	dir := filepath.Join(s.basePath, tagsDir, tag)
	markers, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var errs *multierror.Error
	for _, marker := range markers {
		digest := marker.Name()
		if len(digest) < 2 {
			continue
		}
		unlock := s.lockEntry(digest)
		err := os.Remove(filepath.Join(s.basePath, entriesDir, digest[:2], digest))
		unlock()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierror.Append(errs, err)
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (s *fileStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// entryPath 将任意 key 映射为 entries 下的定长文件名，避免路径穿越。
func (s *fileStore) entryPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("cache key required")
	}
	sum := sha1.Sum([]byte(key))
	digest := hex.EncodeToString(sum[:])
	return filepath.Join(s.basePath, entriesDir, digest[:2], digest), nil
}

func writeFileAtomic(filePath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}
