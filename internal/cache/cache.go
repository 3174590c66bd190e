// Package cache 是客户端的简单键值缓存，按键存 JSON 值并落到单个文件。
// 它只用来避免重复的网络调用（上次媒合结果、已选择的夥伴），永远不是
// 事实来源；文件损坏时直接从空开始。
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// 固定键名。
const (
	KeyToken          = "token"
	KeyUser           = "user"
	KeyMatchRecommend = "match.recommend"
	KeySelectedBot    = "selected.bot"
	KeyStepMBTI       = "step1.mbti"
)

// Store is a best-effort file-backed key-value cache.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// Open loads the cache file when present. An unreadable or corrupted file
// yields an empty cache, never an error — the backend is the source of truth.
func Open(path string) *Store {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = make(map[string]json.RawMessage)
	}
	return s
}

// Get decodes the cached value for key into v, reporting whether it existed.
func (s *Store) Get(key string, v any) bool {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// Put stores the value under key and flushes the file.
func (s *Store) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.flushLocked()
}

// Delete removes key and flushes the file.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, raw, 0o600)
}
