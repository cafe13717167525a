package slot

import (
	"context"
	"sync"
)

type MemSlot struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemSlot() *MemSlot {
	return &MemSlot{m: map[string][]byte{}}
}

func (s *MemSlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemSlot) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemSlot) Ping(context.Context) error { return nil }

func (s *MemSlot) Close() error { return nil }
