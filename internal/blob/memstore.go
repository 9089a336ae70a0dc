package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data    []byte
	modTime time.Time
}

// MemStore is an in-memory blob store for tests and the offline CLI.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	now     func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]memObject), now: time.Now}
}

func (s *MemStore) Download(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

func (s *MemStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[path] = memObject{data: stored, modTime: s.now()}
	return nil
}

func (s *MemStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var objects []ObjectInfo
	for path, obj := range s.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		objects = append(objects, ObjectInfo{Path: path, Size: int64(len(obj.data)), ModTime: obj.modTime})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

func (s *MemStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, path)
	return nil
}

// SetModTime backdates an object, used by pruning tests.
func (s *MemStore) SetModTime(path string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.objects[path]; ok {
		obj.modTime = t
		s.objects[path] = obj
	}
}
