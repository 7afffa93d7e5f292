package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"audio-archive/apperr"
)

// MemoryStore is an in-memory Store used by tests and by the reconcile
// dry-run tooling. Listing order is lexicographic, mirroring S3-style
// stores.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// One-shot failure injection for tests: the next matching operation
	// fails once and clears the trigger.
	FailPutContains    string
	FailCopyContains   string
	FailDeleteContains string
	FailListContains   string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return apperr.Storage("put "+key, err)
	}
	return m.store(key, data)
}

func (m *MemoryStore) PutFile(ctx context.Context, key, path, contentType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperr.Storage("put "+key, err)
	}
	return m.store(key, data)
}

func (m *MemoryStore) store(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPutContains != "" && strings.Contains(key, m.FailPutContains) {
		m.FailPutContains = ""
		return apperr.Storage("put "+key, fmt.Errorf("injected failure"))
	}
	m.objects[key] = data
	return nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCopyContains != "" && strings.Contains(srcKey, m.FailCopyContains) {
		m.FailCopyContains = ""
		return apperr.Storage("copy "+srcKey, fmt.Errorf("injected failure"))
	}
	data, ok := m.objects[srcKey]
	if !ok {
		return apperr.Storage("copy "+srcKey, fmt.Errorf("no such key"))
	}
	m.objects[dstKey] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeleteContains != "" && strings.Contains(key, m.FailDeleteContains) {
		m.FailDeleteContains = ""
		return apperr.Storage("delete "+key, fmt.Errorf("injected failure"))
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListContains != "" && strings.Contains(prefix, m.FailListContains) {
		m.FailListContains = ""
		return nil, apperr.Storage("list "+prefix, fmt.Errorf("injected failure"))
	}
	var listed []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			listed = append(listed, key)
		}
	}
	sort.Strings(listed)
	return listed, nil
}

func (m *MemoryStore) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", apperr.Storage("presign "+key, fmt.Errorf("no such key"))
	}
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return fmt.Sprintf("memory://%s?ttl=%d", key, int(ttl.Seconds())), nil
}

// ObjectSize returns the stored length of key, or -1 when absent.
func (m *MemoryStore) ObjectSize(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return -1
	}
	return len(data)
}

// Keys returns every stored key, sorted. Test helper.
func (m *MemoryStore) Keys() []string {
	keys, _ := m.ListPrefix(context.Background(), "")
	return keys
}
