package cache

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// NewMemoryStore 构建进程内 LRU 缓存，超过 maxEntries 时淘汰最久未用的条目。
func NewMemoryStore(maxEntries int) (Store, error) {
	if maxEntries <= 0 {
		return nil, errors.New("memory cache size must be positive")
	}

	s := &memoryStore{
		tags:    make(map[string]map[string]struct{}),
		keyTags: make(map[string][]string),
	}
	entries, err := lru.NewWithEvict(maxEntries, s.onEvict)
	if err != nil {
		return nil, err
	}
	s.entries = entries
	return s, nil
}

// memoryStore 的所有 lru 写操作都在 mu 内完成，onEvict 因此可以直接修改标签索引。
type memoryStore struct {
	mu      sync.Mutex
	entries *lru.Cache
	tags    map[string]map[string]struct{}
	keyTags map[string][]string
}

func (s *memoryStore) Load(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, ok := s.entries.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return value.(string), nil
}

func (s *memoryStore) Save(ctx context.Context, key, value string, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.New("cache key required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.untag(key)
	s.entries.Add(key, value)
	for _, tag := range tags {
		keys := s.tags[tag]
		if keys == nil {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	s.keyTags[key] = append([]string(nil), tags...)
	return nil
}

func (s *memoryStore) Clean(ctx context.Context, tags ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tags) == 0 {
		s.entries.Purge()
		s.tags = make(map[string]map[string]struct{})
		s.keyTags = make(map[string][]string)
		return nil
	}

	var victims []string
	for _, tag := range tags {
		for key := range s.tags[tag] {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		s.entries.Remove(key)
	}
	return nil
}

func (s *memoryStore) onEvict(key, _ interface{}) {
	if k, ok := key.(string); ok {
		s.untag(k)
	}
}

func (s *memoryStore) untag(key string) {
	for _, tag := range s.keyTags[key] {
		if keys := s.tags[tag]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
	delete(s.keyTags, key)
}
