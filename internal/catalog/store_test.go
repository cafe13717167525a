package catalog_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/slot"
)

func storedProducts(t *testing.T, sl slot.Slot) []catalog.Product {
	t.Helper()
	raw, ok, err := sl.Get(context.Background(), catalog.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "slot is empty")

	var out []catalog.Product
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHydrate_EmptySlotSeedsAndPersists(t *testing.T) {
	sl := newRecordingSlot()
	st := newStore(t, sl, newClock())

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, "Makanan", list[0].Name)
	assert.Equal(t, "Produk makanan siap saji", list[0].Description)
	assert.Equal(t, int64(2), list[1].ID)
	assert.Equal(t, "Minuman", list[1].Name)
	assert.Equal(t, "Aneka minuman dingin & hangat", list[1].Description)

	assert.Equal(t, list, storedProducts(t, sl))
	assert.Equal(t, 1, sl.Writes())
}

func TestHydrate_BlankPayloadSeeds(t *testing.T) {
	sl := newRecordingSlot()
	require.NoError(t, sl.MemSlot.Set(context.Background(), catalog.DefaultKey, []byte("  \n")))

	st := newStore(t, sl, newClock())
	assert.Len(t, st.List(), 2)
	assert.Len(t, storedProducts(t, sl), 2)
}

func TestHydrate_RestoresStoredOrder(t *testing.T) {
	stored := []catalog.Product{
		{ID: 30, Name: "Kemeja", Price: 120000, Category: catalog.CategoryClothing, ReleaseDate: "2024-03-01", Stock: 4, IsActive: true},
		{ID: 10, Name: "Radio", Price: 250000, Category: catalog.CategoryElectronics, ReleaseDate: "2023-11-11", Stock: 0, IsActive: false},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	sl := newRecordingSlot()
	require.NoError(t, sl.MemSlot.Set(context.Background(), catalog.DefaultKey, raw))

	st := newStore(t, sl, newClock())
	assert.Equal(t, stored, st.List())
	assert.Zero(t, sl.Writes())
}

func TestHydrate_EmptyArrayIsEmptyCatalog(t *testing.T) {
	st, sl := emptyStore(t, newClock())
	assert.Empty(t, st.List())
	assert.Zero(t, sl.Writes())
}

func TestHydrate_MalformedFallsBackWithoutOverwriting(t *testing.T) {
	payloads := []string{
		`{not json`,
		`null`,
		`{"id":1}`,
		`[{"id":0,"name":"zero"}]`,
		`[{"id":5,"name":"a"},{"id":5,"name":"b"}]`,
	}

	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			sl := newRecordingSlot()
			require.NoError(t, sl.MemSlot.Set(context.Background(), catalog.DefaultKey, []byte(payload)))

			st := newStore(t, sl, newClock())
			assert.Len(t, st.List(), 2)

			raw, _, err := sl.Get(context.Background(), catalog.DefaultKey)
			require.NoError(t, err)
			assert.Equal(t, payload, string(raw))
			assert.Zero(t, sl.Writes())
		})
	}
}

func TestHydrate_ReadErrorIsReturned(t *testing.T) {
	st := catalog.NewStore(catalog.StoreOptions{Slot: failingGetSlot{slot.NewMemSlot()}})
	assert.ErrorIs(t, st.Hydrate(context.Background()), errSlotDown)
}

type failingGetSlot struct{ *slot.MemSlot }

func (failingGetSlot) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errSlotDown
}

func TestStore_RoundTripThroughSlot(t *testing.T) {
	c := newClock()
	st, sl := emptyStore(t, c)
	ctx := context.Background()

	for _, name := range []string{"Laptop", "Kaos Polos", "Roti Tawar"} {
		_, errs, err := st.Submit(ctx, validForm(name), 0)
		require.NoError(t, err)
		require.Empty(t, errs)
		c.Advance(time.Second)
	}

	reopened := newStore(t, sl, c)
	assert.Equal(t, st.List(), reopened.List())
}

func TestStore_CreatePrependsWithUniqueIDs(t *testing.T) {
	c := newClock()
	st, _ := emptyStore(t, c)
	ctx := context.Background()

	first, err := st.Create(ctx, catalog.Draft{Name: "  Laptop  ", Description: " tipis ", Price: 1, Category: catalog.CategoryElectronics, ReleaseDate: "2024-01-01"})
	require.NoError(t, err)
	// Same millisecond: the id still has to move forward.
	second, err := st.Create(ctx, catalog.Draft{Name: "Mouse", Price: 1, Category: catalog.CategoryElectronics, ReleaseDate: "2024-01-01"})
	require.NoError(t, err)

	assert.Equal(t, "Laptop", first.Name)
	assert.Equal(t, "tipis", first.Description)
	assert.Equal(t, c.Now().UnixMilli(), first.ID)
	assert.Greater(t, second.ID, first.ID)

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestStore_IDsStayAboveHydratedOnes(t *testing.T) {
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	raw, err := json.Marshal([]catalog.Product{{ID: future, Name: "Jam", Category: catalog.CategoryElectronics}})
	require.NoError(t, err)

	sl := newRecordingSlot()
	require.NoError(t, sl.MemSlot.Set(context.Background(), catalog.DefaultKey, raw))
	st := newStore(t, sl, newClock())

	p, err := st.Create(context.Background(), catalog.Draft{Name: "Lampu", Category: catalog.CategoryElectronics})
	require.NoError(t, err)
	assert.Equal(t, future+1, p.ID)
}

func TestStore_UpdateInPlace(t *testing.T) {
	c := newClock()
	sl := newRecordingSlot()
	st := newStore(t, sl, c)
	ctx := context.Background()

	updated, found, err := st.Update(ctx, 2, catalog.Draft{
		Name:        "Minuman Segar",
		Price:       9000,
		Category:    catalog.CategoryFood,
		ReleaseDate: "2024-02-02",
		Stock:       7,
		IsActive:    false,
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), updated.ID)
	assert.False(t, updated.IsActive)

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, updated, list[1])
	assert.Equal(t, list, storedProducts(t, sl))
}

func TestStore_MissingIDsAreNoOps(t *testing.T) {
	sl := newRecordingSlot()
	st := newStore(t, sl, newClock())
	before := st.List()
	writes := sl.Writes()
	ctx := context.Background()

	_, found, err := st.Update(ctx, 99, catalog.Draft{Name: "Ghost"})
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = st.Delete(ctx, 99)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, before, st.List())
	assert.Equal(t, writes, sl.Writes())
}

func TestStore_Delete(t *testing.T) {
	sl := newRecordingSlot()
	st := newStore(t, sl, newClock())

	removed, found, err := st.Delete(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Makanan", removed.Name)

	list := st.List()
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, list, storedProducts(t, sl))

	_, ok := st.Get(1)
	assert.False(t, ok)
}

func TestStore_FailedWriteLeavesCatalogUnchanged(t *testing.T) {
	sl := newRecordingSlot()
	st := newStore(t, sl, newClock())
	before := st.List()
	ctx := context.Background()
	sl.Fail(true)

	_, err := st.Create(ctx, catalog.Draft{Name: "Laptop"})
	assert.ErrorIs(t, err, errSlotDown)

	_, _, err = st.Update(ctx, 1, catalog.Draft{Name: "Changed"})
	assert.ErrorIs(t, err, errSlotDown)

	_, _, err = st.Delete(ctx, 2)
	assert.ErrorIs(t, err, errSlotDown)

	_, _, err = st.Submit(ctx, validForm("Laptop"), 0)
	assert.ErrorIs(t, err, errSlotDown)

	assert.Equal(t, before, st.List())
	assert.Equal(t, before, storedProducts(t, sl))
}

func TestStore_ListIsACopy(t *testing.T) {
	st := newStore(t, newRecordingSlot(), newClock())

	list := st.List()
	list[0].Name = "mutated"
	assert.Equal(t, "Makanan", st.List()[0].Name)
}

func TestSubmit_CreateThenList(t *testing.T) {
	c := newClock()
	st, _ := emptyStore(t, c)

	p, errs, err := st.Submit(context.Background(), validForm("TV LED"), 0)
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.Equal(t, []catalog.Product{{
		ID:          c.Now().UnixMilli(),
		Name:        "TV LED",
		Price:       5000000,
		Category:    catalog.CategoryElectronics,
		ReleaseDate: "2024-01-01",
		Stock:       10,
		IsActive:    true,
	}}, st.List())
	assert.Equal(t, p, st.List()[0])
}

func TestSubmit_TwoLetterNameIsRejected(t *testing.T) {
	st, sl := emptyStore(t, newClock())

	_, errs, err := st.Submit(context.Background(), validForm("TV"), 0)
	require.NoError(t, err)
	assert.Contains(t, errs, catalog.FieldName)
	assert.Empty(t, st.List())
	assert.Zero(t, sl.Writes())
}

func TestSubmit_DuplicateNameWritesNothing(t *testing.T) {
	sl := newRecordingSlot()
	st := newStore(t, sl, newClock())
	writes := sl.Writes()

	_, errs, err := st.Submit(context.Background(), validForm("makanan"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Product name already exists.", errs[catalog.FieldName])
	assert.Len(t, st.List(), 2)
	assert.Equal(t, writes, sl.Writes())
}

func TestSubmit_EditKeepsOwnName(t *testing.T) {
	st := newStore(t, newRecordingSlot(), newClock())

	f := catalog.FormFromProduct(st.List()[0])
	f.Stock = "3"
	f.IsActive = false

	p, errs, err := st.Submit(context.Background(), f, 1)
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, 3, p.Stock)
	assert.False(t, p.IsActive)
	assert.Equal(t, p, st.List()[0])
}

func TestSubmit_EditOfVanishedRecord(t *testing.T) {
	st := newStore(t, newRecordingSlot(), newClock())

	_, _, err := st.Submit(context.Background(), validForm("Laptop"), 404)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Len(t, st.List(), 2)
}

func TestStore_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := catalog.NewMetrics(reg)
	st := catalog.NewStore(catalog.StoreOptions{Slot: slot.NewMemSlot(), Metrics: m, Now: newClock().Now})
	ctx := context.Background()
	require.NoError(t, st.Hydrate(ctx))
	assert.Equal(t, 2.0, gaugeValue(t, m.Products))

	_, _, err := st.Submit(ctx, validForm("Laptop"), 0)
	require.NoError(t, err)
	_, _, err = st.Submit(ctx, catalog.FormFields{Name: "Laptop"}, 0)
	require.NoError(t, err)

	assert.Equal(t, 3.0, gaugeValue(t, m.Products))
	assert.Equal(t, 1.0, counterValue(t, m.Mutations.WithLabelValues("create")))
	assert.Equal(t, 1.0, counterValue(t, m.ValidationFailures.WithLabelValues(catalog.FieldName)))
	assert.Equal(t, 1.0, counterValue(t, m.ValidationFailures.WithLabelValues(catalog.FieldPrice)))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
