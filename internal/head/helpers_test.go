package head

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/any-hub/headhash/internal/cache"
	"github.com/any-hub/headhash/internal/logging"
)

const themePath = "frontend/default/default/"

type fakeLocations struct {
	dir       string
	url       string
	secureURL string
}

func (l fakeLocations) BaseURL(kind LocationKind, secure bool) string {
	base := l.url
	if secure {
		base = l.secureURL
	}
	if kind == LocationWeb || kind == LocationRoot {
		return base
	}
	return base + string(kind) + "/"
}

func (l fakeLocations) BaseDir(kind LocationKind) string {
	if kind == LocationWeb || kind == LocationRoot {
		return l.dir
	}
	return filepath.Join(l.dir, string(kind))
}

type fakeTheme struct {
	loc   fakeLocations
	mu    sync.Mutex
	calls int
}

func (f *fakeTheme) Filename(name string, _ FileKind) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return filepath.Join(f.loc.BaseDir(LocationSkin), filepath.FromSlash(themePath+name)), nil
}

func (f *fakeTheme) SkinURL(name string, secure bool) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.loc.BaseURL(LocationSkin, secure) + themePath + name, nil
}

func (f *fakeTheme) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingStore 是记录读写次数与标签的内存 Store。
type countingStore struct {
	mu     sync.Mutex
	values map[string]string
	tags   map[string][]string
	loads  int
	saves  int
}

func newCountingStore() *countingStore {
	return &countingStore{values: map[string]string{}, tags: map[string][]string{}}
}

func (s *countingStore) Load(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	value, ok := s.values[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return value, nil
}

func (s *countingStore) Save(_ context.Context, key, value string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.values[key] = value
	s.tags[key] = append([]string(nil), tags...)
	return nil
}

func (s *countingStore) Clean(_ context.Context, _ ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	s.tags = map[string][]string{}
	return nil
}

func (s *countingStore) snapshot() (map[string]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]string, len(s.values))
	for k, v := range s.values {
		copied[k] = v
	}
	return copied, s.saves
}

type fixture struct {
	loc    fakeLocations
	theme  *fakeTheme
	store  *countingStore
	hasher *Hasher
}

func newFixture(t *testing.T, cacheEnabled bool, method HashMethod) *fixture {
	t.Helper()
	loc := fakeLocations{
		dir:       t.TempDir(),
		url:       "http://shop.local/",
		secureURL: "https://secure.shop.local:8443/",
	}
	theme := &fakeTheme{loc: loc}
	store := newCountingStore()
	hasher, err := NewHasher(Options{
		Store:        store,
		CacheEnabled: cacheEnabled,
		Theme:        theme,
		Locations:    loc,
		Method:       method,
		Logger:       logging.Discard(),
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return &fixture{loc: loc, theme: theme, store: store, hasher: hasher}
}

// writeJS 在 js 目录下写入文件并返回内容的 CRC。
func (f *fixture) writeJS(t *testing.T, name, content string) string {
	t.Helper()
	return writeAsset(t, filepath.Join(f.loc.BaseDir(LocationJS), filepath.FromSlash(name)), content)
}

func (f *fixture) writeSkin(t *testing.T, name, content string) string {
	t.Helper()
	return writeAsset(t, filepath.Join(f.loc.BaseDir(LocationSkin), filepath.FromSlash(themePath+name)), content)
}

func (f *fixture) writeMedia(t *testing.T, rel, content string) string {
	t.Helper()
	return writeAsset(t, filepath.Join(f.loc.BaseDir(LocationMedia), filepath.FromSlash(rel)), content)
}

func writeAsset(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return crcOf(content)
}

func crcOf(content string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(content)))
}

func countLines(s, substr string) int {
	return strings.Count(s, substr)
}
