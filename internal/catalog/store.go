package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ProductCatalog/internal/slot"
)

const DefaultKey = "products"

var errMalformed = errors.New("malformed catalog payload")

type StoreOptions struct {
	Slot      slot.Slot
	Key       string
	Validator *Validator
	Log       *zap.Logger
	Metrics   *Metrics
	Now       func() time.Time
}

// Store owns the ordered product list and mirrors every mutation into its
// slot. The list is only replaced after the slot write succeeds.
type Store struct {
	mu       sync.RWMutex
	products []Product

	slot     slot.Slot
	key      string
	ids      idGen
	validate *Validator
	log      *zap.Logger
	metrics  *Metrics
}

func NewStore(opts StoreOptions) *Store {
	if opts.Slot == nil {
		opts.Slot = slot.NewMemSlot()
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator(opts.Now)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return &Store{
		products: []Product{},
		slot:     opts.Slot,
		key:      opts.Key,
		ids:      idGen{now: opts.Now},
		validate: opts.Validator,
		log:      opts.Log,
		metrics:  opts.Metrics,
	}
}

// Hydrate loads the catalog from the slot. An absent or empty slot yields
// the seed set, which is written back. A malformed payload also yields the
// seed set but is left in place until the next mutation overwrites it.
func (s *Store) Hydrate(ctx context.Context) error {
	raw, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		seed := seedProducts()
		if err := s.persist(ctx, seed); err != nil {
			return err
		}
		s.commit(seed)
		s.log.Info("catalog seeded", zap.String("key", s.key), zap.Int("products", len(seed)))
		return nil
	}

	products, err := decodeProducts(raw)
	if err != nil {
		s.log.Error("stored catalog unreadable, using seed set",
			zap.String("key", s.key), zap.Error(err))
		s.commit(seedProducts())
		return nil
	}

	s.commit(products)
	s.log.Info("catalog hydrated", zap.String("key", s.key), zap.Int("products", len(products)))
	return nil
}

func decodeProducts(raw []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if products == nil {
		return nil, fmt.Errorf("%w: not an array", errMalformed)
	}

	seen := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("%w: invalid id %d", errMalformed, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", errMalformed, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}

func (s *Store) persist(ctx context.Context, next []Product) error {
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := s.slot.Set(ctx, s.key, b); err != nil {
		s.metrics.persistFailed()
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func (s *Store) commit(next []Product) {
	s.products = next
	s.ids.observe(next)
	s.metrics.setProducts(len(next))
}

func (s *Store) Ping(ctx context.Context) error {
	return s.slot.Ping(ctx)
}

// List returns newest-created first.
func (s *Store) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Get(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, false
	}
	return s.products[i], true
}

func (s *Store) indexOf(id int64) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Create(ctx context.Context, d Draft) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, d)
}

func (s *Store) createLocked(ctx context.Context, d Draft) (Product, error) {
	p := d.product(s.ids.next())

	next := make([]Product, 0, len(s.products)+1)
	next = append(next, p)
	next = append(next, s.products...)

	if err := s.persist(ctx, next); err != nil {
		return Product{}, err
	}
	s.commit(next)
	s.metrics.mutated("create")
	return p, nil
}

// Update overwrites every mutable field of the record in place. It reports
// false without writing when the id is unknown.
func (s *Store) Update(ctx context.Context, id int64, d Draft) (Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, d)
}

func (s *Store) updateLocked(ctx context.Context, id int64, d Draft) (Product, bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Product{}, false, nil
	}

	next := make([]Product, len(s.products))
	copy(next, s.products)
	next[i] = d.product(id)

	if err := s.persist(ctx, next); err != nil {
		return Product{}, true, err
	}
	s.commit(next)
	s.metrics.mutated("update")
	return next[i], true, nil
}

func (s *Store) Delete(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, false, nil
	}
	removed := s.products[i]

	next := make([]Product, 0, len(s.products)-1)
	next = append(next, s.products[:i]...)
	next = append(next, s.products[i+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return Product{}, true, err
	}
	s.commit(next)
	s.metrics.mutated("delete")
	return removed, true, nil
}

// Submit validates the form against the current catalog and applies it in
// one critical section: a create when editingID is 0, otherwise an update of
// that record. Rejected submissions return the field errors and write nothing.
func (s *Store) Submit(ctx context.Context, f FormFields, editingID int64) (Product, FieldErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := s.validate.Validate(f, s.products, editingID); len(errs) > 0 {
		s.metrics.rejected(errs)
		return Product{}, errs, nil
	}

	d := f.draft()
	if editingID == 0 {
		p, err := s.createLocked(ctx, d)
		return p, nil, err
	}

	p, found, err := s.updateLocked(ctx, editingID, d)
	if err != nil {
		return Product{}, nil, err
	}
	if !found {
		return Product{}, nil, ErrNotFound
	}
	return p, nil, nil
}
