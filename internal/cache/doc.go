// Package cache defines the tagged key-value store used to memoize hashed asset
// URLs. A Store maps string keys to string values and records every entry under
// one or more tags so a whole group can be invalidated at once. Three backends
// are provided: a disk store laid out under StoragePath (temp file + rename
// writes, per-key locks), an in-process LRU and a redis store for sharing one
// cache between several front ends. Callers go through Gate, which turns the
// cache off entirely when disabled and degrades backend failures to misses.
package cache
