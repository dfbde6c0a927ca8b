package storage

import (
	"context"
	"errors"
	"sync"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is one stored binary.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps images in process memory, for tests and local runs
// without MinIO.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	base    string
}

func NewMemoryStore(publicBase string) *MemoryStore {
	if publicBase == "" {
		publicBase = "memory://" + DefaultBucket
	}
	return &MemoryStore{objects: make(map[string]Object), base: publicBase}
}

func (m *MemoryStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: buf, ContentType: contentType}
	return nil
}

func (m *MemoryStore) PublicURL(key string) string { return publicURL(m.base, key) }

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Get returns a copy of the stored object.
func (m *MemoryStore) Get(key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	out := Object{Data: make([]byte, len(obj.Data)), ContentType: obj.ContentType}
	copy(out.Data, obj.Data)
	return out, nil
}

// Len is the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
