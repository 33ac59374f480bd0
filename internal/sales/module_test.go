package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopdesk/internal/gateway"
	"github.com/angelmondragon/shopdesk/internal/notify"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

const today = types.Date("2024-12-20")

// fakeBackend keeps sales newest first and a single stock counter per product.
type fakeBackend struct {
	mu       sync.Mutex
	sales    []Sale
	stock    map[types.ID]int
	nextID   int
	requests []string
	// brokenUpdates makes PUT /sales/{id} answer delivered without a delivered_date.
	brokenUpdates bool
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{stock: map[types.ID]int{"1": 10, "2": 0}, nextID: n + 1}
	for i := n; i >= 1; i-- {
		b.sales = append(b.sales, Sale{
			ID: types.ID(fmt.Sprint(i)), CustomerID: "1", ProductID: "1", MeasurementID: "1",
			Qty: 1, Price: decimal.NewFromInt(50), TotalAmount: decimal.NewFromInt(50),
			Status: enums.SaleStatusPending, CreatedDate: "2024-12-01",
		})
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *fakeBackend) find(id types.ID) int {
	for i := range b.sales {
		if b.sales[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	line := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		line += "?" + r.URL.RawQuery
	}
	b.requests = append(b.requests, line)

	switch {
	case r.URL.Path == "/products":
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1, "name": "Jeera"}, {"id": 2, "name": "Chana"}}})
	case r.URL.Path == "/measurements":
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 1, "name": "100gm"}}})
	case r.URL.Path == "/customers/all":
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"id": 1, "shopName": "Keshav General Store"},
			{"id": 2, "shopName": "Kiran Trading Co."},
			{"id": 3, "shopName": "Ramesh Grocery"},
		}})
	case r.Method == http.MethodGet && r.URL.Path == "/sales":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		meta := pagination.NewMeta(page, limit, len(b.sales))
		items := append([]Sale{}, pagination.Slice(b.sales, page, limit)...)
		writeJSON(w, http.StatusOK, map[string]any{"sales": items, "pagination": meta})
	case r.Method == http.MethodPost && r.URL.Path == "/sales/add":
		var p Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		s := Sale{
			ID: types.ID(fmt.Sprint(b.nextID)), CustomerID: p.CustomerID, ProductID: p.ProductID, MeasurementID: p.MeasurementID,
			Qty: p.Qty, Price: p.Price, TotalAmount: Total(p.Qty, p.Price), Status: enums.SaleStatusPending, CreatedDate: today,
		}
		b.nextID++
		b.sales = append([]Sale{s}, b.sales...)
		writeJSON(w, http.StatusCreated, map[string]any{"data": s})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/sales/mark-delivered/"):
		i := b.find(types.ID(strings.TrimPrefix(r.URL.Path, "/sales/mark-delivered/")))
		s := b.sales[i]
		if b.stock[s.ProductID] < s.Qty {
			writeJSON(w, http.StatusConflict, map[string]string{
				"message": fmt.Sprintf("Insufficient stock for product %s: available %d, requested %d", s.ProductID, b.stock[s.ProductID], s.Qty),
			})
			return
		}
		b.stock[s.ProductID] -= s.Qty
		d := today
		s.Status, s.DeliveredDate = enums.SaleStatusDelivered, &d
		b.sales[i] = s
		writeJSON(w, http.StatusOK, map[string]any{"data": s})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/sales/revert-delivery/"):
		i := b.find(types.ID(strings.TrimPrefix(r.URL.Path, "/sales/revert-delivery/")))
		s := b.sales[i]
		b.stock[s.ProductID] += s.Qty
		s.Status, s.DeliveredDate = enums.SaleStatusPending, nil
		b.sales[i] = s
		writeJSON(w, http.StatusOK, map[string]any{"data": s})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/sales/"):
		i := b.find(types.ID(strings.TrimPrefix(r.URL.Path, "/sales/")))
		var p Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		s := b.sales[i]
		s.Qty, s.Price, s.TotalAmount = p.Qty, p.Price, Total(p.Qty, p.Price)
		if b.brokenUpdates {
			s.Status = enums.SaleStatusDelivered
		}
		b.sales[i] = s
		writeJSON(w, http.StatusOK, map[string]any{"data": s})
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/sales/"):
		i := b.find(types.ID(strings.TrimPrefix(r.URL.Path, "/sales/")))
		b.sales = append(b.sales[:i], b.sales[i+1:]...)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Sale deleted"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "route not found"})
	}
}

func (b *fakeBackend) requestLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func setup(t *testing.T, n int, confirm bool) (*Module, *fakeBackend, *notify.Recorder) {
	t.Helper()
	backend := newFakeBackend(n)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	client, err := gateway.New(gateway.Params{BaseURL: srv.URL})
	require.NoError(t, err)
	rec := &notify.Recorder{}
	m := New(Params{Client: client, Notifier: rec, Confirmer: notify.StaticConfirmer(confirm)})
	require.NoError(t, m.Load(context.Background()))
	return m, backend, rec
}

func createSale(t *testing.T, m *Module, product string, qty int) Sale {
	t.Helper()
	m.StartCreate()
	require.NoError(t, m.SelectCustomer("2"))
	m.Form().Update(func(f *Form) {
		f.ProductID = product
		f.MeasurementID = "1"
		f.Qty = qty
		f.Price = "45.50"
	})
	require.NoError(t, m.Submit(context.Background()))
	items := m.View().PageItems()
	require.NotEmpty(t, items)
	return items[0]
}

func TestServerPagedList(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := setup(t, 23, true)

	assert.Len(t, m.View().PageItems(), 10)
	assert.Equal(t, 3, m.View().PageInfo().TotalPages)
	require.NoError(t, m.View().GoToPage(ctx, 3))
	assert.Len(t, m.View().PageItems(), 3)

	log := backend.requestLog()
	assert.Contains(t, log, "GET /sales?limit=10&page=1")
	assert.Equal(t, "GET /sales?limit=10&page=3", log[len(log)-1])
}

func TestSaleLifecycle(t *testing.T) {
	ctx := context.Background()
	m, _, rec := setup(t, 0, true)

	created := createSale(t, m, "1", 2)
	assert.Equal(t, enums.SaleStatusPending, created.Status)
	assert.Nil(t, created.DeliveredDate)
	assert.Equal(t, "91", created.TotalAmount.String())
	assert.Len(t, m.View().PageItems(), 1)

	delivered, err := m.Deliver(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, delivered)
	s, _ := m.View().Find(created.ID)
	assert.Equal(t, enums.SaleStatusDelivered, s.Status)
	require.NotNil(t, s.DeliveredDate)
	assert.Equal(t, today, *s.DeliveredDate)

	require.NoError(t, m.Revert(ctx, created.ID))
	s, _ = m.View().Find(created.ID)
	assert.Equal(t, enums.SaleStatusPending, s.Status)
	assert.Nil(t, s.DeliveredDate)

	last, _ := rec.Last()
	assert.Equal(t, notify.KindSuccess, last.Kind)
}

func TestInsufficientStockKeepsPendingAndShowsServerMessage(t *testing.T) {
	ctx := context.Background()
	m, _, rec := setup(t, 0, true)
	created := createSale(t, m, "2", 3)

	delivered, err := m.Deliver(ctx, created.ID)
	require.Error(t, err)
	assert.False(t, delivered)
	assert.True(t, pkgerrors.IsServer(err))

	s, _ := m.View().Find(created.ID)
	assert.Equal(t, enums.SaleStatusPending, s.Status)
	assert.Nil(t, s.DeliveredDate)
	last, _ := rec.Last()
	assert.Equal(t, notify.Entry{Message: "Insufficient stock for product 2: available 0, requested 3", Kind: notify.KindError}, last)
}

func TestDisallowedTransitionsNeverCallServer(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := setup(t, 1, true)

	before := len(backend.requestLog())
	err := m.Revert(ctx, "1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Len(t, backend.requestLog(), before)

	_, err = m.Deliver(ctx, "1")
	require.NoError(t, err)
	before = len(backend.requestLog())
	_, err = m.Deliver(ctx, "1")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Len(t, backend.requestLog(), before)

	err = m.StartEdit("1")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.False(t, m.Form().IsOpen())
}

func TestDeliverNeedsConfirmation(t *testing.T) {
	m, backend, _ := setup(t, 1, false)
	before := len(backend.requestLog())

	delivered, err := m.Deliver(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Len(t, backend.requestLog(), before)
}

func TestEditPendingSale(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setup(t, 2, true)

	require.NoError(t, m.StartEdit("1"))
	m.Form().Update(func(f *Form) { f.Qty = 4 })
	assert.Equal(t, "200", m.Form().Values().Total().String())
	require.NoError(t, m.Submit(ctx))

	s, ok := m.View().Find("1")
	require.True(t, ok)
	assert.Equal(t, 4, s.Qty)
	assert.Equal(t, "200", s.TotalAmount.String())
}

func TestInconsistentUpdatedSaleIsRejected(t *testing.T) {
	ctx := context.Background()
	m, backend, rec := setup(t, 2, true)
	backend.mu.Lock()
	backend.brokenUpdates = true
	backend.mu.Unlock()
	before := len(backend.requestLog())

	require.NoError(t, m.StartEdit("1"))
	m.Form().Update(func(f *Form) { f.Qty = 4 })
	err := m.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDecode, pkgerrors.CodeOf(err))
	assert.True(t, m.Form().IsOpen())

	// No refetch: the view keeps the last consistent copy.
	assert.Len(t, backend.requestLog(), before+1)
	s, ok := m.View().Find("1")
	require.True(t, ok)
	assert.Equal(t, 1, s.Qty)
	assert.Equal(t, enums.SaleStatusPending, s.Status)
	last, _ := rec.Last()
	assert.Equal(t, notify.KindError, last.Kind)
}

func TestDeleteRefetchesPage(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setup(t, 11, true)
	require.Len(t, m.View().PageItems(), 10)

	deleted, err := m.Delete(ctx, "11")
	require.NoError(t, err)
	assert.True(t, deleted)
	items := m.View().PageItems()
	assert.Len(t, items, 10)
	for _, s := range items {
		assert.NotEqual(t, types.ID("11"), s.ID)
	}
	assert.Equal(t, 1, m.View().PageInfo().TotalPages)
}

func TestCustomerPicker(t *testing.T) {
	m, _, _ := setup(t, 0, true)

	found := m.SearchCustomers("ki")
	require.Len(t, found, 1)
	assert.Equal(t, "Kiran Trading Co.", found[0].ShopName)
	assert.Len(t, m.SearchCustomers(""), 3)
	assert.Equal(t, "Ramesh Grocery", m.CustomerName("3"))

	m.StartCreate()
	assert.Error(t, m.SelectCustomer("42"))
	require.NoError(t, m.SelectCustomer("3"))
	assert.Equal(t, "3", m.Form().Values().CustomerID)
}

func TestMissingCustomerBlocksSubmit(t *testing.T) {
	m, backend, rec := setup(t, 0, true)
	before := len(backend.requestLog())

	m.StartCreate()
	m.Form().Update(func(f *Form) { f.ProductID, f.MeasurementID = "1", "1" })
	require.Error(t, m.Submit(context.Background()))
	assert.Len(t, backend.requestLog(), before)
	last, _ := rec.Last()
	assert.Equal(t, "Please fill all required fields", last.Message)
}
