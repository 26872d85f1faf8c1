package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownPreview = errors.New("unknown preview handle")

// Preview is a held image served back to the page while it is analysed and
// displayed.
type Preview struct {
	Data []byte
	MIME string
}

// PreviewStore hands out opaque handles for held images. Every Acquire must
// be paired with exactly one Release.
type PreviewStore struct {
	mu    sync.RWMutex
	items map[string]Preview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{items: make(map[string]Preview)}
}

func (s *PreviewStore) Acquire(data []byte, mime string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = Preview{Data: data, MIME: mime}
	s.mu.Unlock()
	return id
}

func (s *PreviewStore) Get(id string) (Preview, bool) {
	s.mu.RLock()
	p, ok := s.items[id]
	s.mu.RUnlock()
	return p, ok
}

// Release drops a handle. Releasing twice returns ErrUnknownPreview.
func (s *PreviewStore) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrUnknownPreview
	}
	delete(s.items, id)
	return nil
}

// Len is the number of live handles.
func (s *PreviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
