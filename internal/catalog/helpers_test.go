package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/slot"
)

var errSlotDown = errors.New("slot down")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingSlot counts writes and can be switched to fail them.
type recordingSlot struct {
	*slot.MemSlot
	mu     sync.Mutex
	writes int
	fail   bool
}

func newRecordingSlot() *recordingSlot {
	return &recordingSlot{MemSlot: slot.NewMemSlot()}
}

func (s *recordingSlot) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSlotDown
	}
	s.writes++
	return s.MemSlot.Set(ctx, key, value)
}

func (s *recordingSlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *recordingSlot) Fail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func newStore(t *testing.T, sl slot.Slot, c *clock) *catalog.Store {
	t.Helper()
	st := catalog.NewStore(catalog.StoreOptions{Slot: sl, Now: c.Now})
	require.NoError(t, st.Hydrate(context.Background()))
	return st
}

// emptyStore starts from a persisted empty catalog instead of the seed set.
func emptyStore(t *testing.T, c *clock) (*catalog.Store, *recordingSlot) {
	t.Helper()
	sl := newRecordingSlot()
	require.NoError(t, sl.MemSlot.Set(context.Background(), catalog.DefaultKey, []byte("[]")))
	return newStore(t, sl, c), sl
}

func validForm(name string) catalog.FormFields {
	return catalog.FormFields{
		Name:        name,
		Description: "",
		Price:       "5000000",
		Category:    "Elektronik",
		ReleaseDate: "2024-01-01",
		Stock:       "10",
		IsActive:    true,
	}
}
