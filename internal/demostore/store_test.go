package demostore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/db"
	"github.com/angelmondragon/shopdesk/pkg/db/models"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

var fixedNow = func() time.Time { return time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC) }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := New(client, fixedNow)
	require.NoError(t, store.AutoMigrate(context.Background()))
	seeded, err := store.Seed(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)
	return store
}

type lookups struct {
	products     map[string]types.ID
	measurements map[string]types.ID
}

func loadLookups(t *testing.T, s *Store) lookups {
	t.Helper()
	ctx := context.Background()
	out := lookups{products: map[string]types.ID{}, measurements: map[string]types.ID{}}
	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	for _, p := range products {
		out.products[p.Name] = p.ID
	}
	measurements, err := s.ListMeasurements(ctx)
	require.NoError(t, err)
	for _, m := range measurements {
		out.measurements[m.Name] = m.ID
	}
	return out
}

func stockOf(t *testing.T, s *Store, product, measurement string) int {
	t.Helper()
	rows, err := s.ListStocks(context.Background())
	require.NoError(t, err)
	for _, row := range rows {
		if row.Product == product && row.Measurement == measurement {
			return row.Quantity
		}
	}
	return 0
}

func firstCustomer(t *testing.T, s *Store) CustomerDTO {
	t.Helper()
	customers, err := s.ListCustomers(context.Background(), CustomerFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, customers)
	return customers[0]
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.Equal(t, 45, stockOf(t, s, "Jeera", "1kg"))
	assert.Equal(t, 5, stockOf(t, s, "Tal", "1kg"))
}

func TestSeedYieldsToConcurrentSeeder(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:seed_race?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	s := New(client, fixedNow)
	require.NoError(t, s.AutoMigrate(ctx))

	// A second process got its measurements in before this one's products.
	require.NoError(t, client.DB().Create(&models.Measurement{Name: "1kg"}).Error)

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListCustomersFiltersCaseInsensitively(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		filter CustomerFilter
		want   int
	}{
		{CustomerFilter{}, 4},
		{CustomerFilter{City: "surat"}, 3},
		{CustomerFilter{Area: "VARACH"}, 2},
		{CustomerFilter{City: "Surat", Area: "adajan"}, 1},
		{CustomerFilter{City: "Mumbai"}, 0},
		{CustomerFilter{City: "   "}, 4},
	}
	for _, tc := range cases {
		got, err := s.ListCustomers(ctx, tc.filter)
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "filter %+v", tc.filter)
		assert.NotNil(t, got)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateCustomer(ctx, CustomerInput{
		ShopName:  "  Ketan Spices Hub ",
		OwnerName: "Ketan",
		City:      "Rajkot",
		Area:      "Kalawad",
	})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "Ketan Spices Hub", created.ShopName)
	assert.Equal(t, "", created.ContactNumber)

	updated, err := s.UpdateCustomer(ctx, created.ID, CustomerInput{
		ShopName:      "Ketan Spices Hub",
		OwnerName:     "Ketan Shah",
		City:          "Rajkot",
		Area:          "Kalawad",
		ContactNumber: "9000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ketan Shah", updated.OwnerName)

	require.NoError(t, s.DeleteCustomer(ctx, created.ID))
	err = s.DeleteCustomer(ctx, created.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = s.UpdateCustomer(ctx, "abc", CustomerInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDeleteCustomerWithSalesConflicts(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteCustomer(context.Background(), firstCustomer(t, s).ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Contains(t, pkgerrors.UserMessage(err), "Raj Electronics")
}

func TestCreateSaleDerivesTotalAndStartsPending(t *testing.T) {
	s := newTestStore(t)
	l := loadLookups(t, s)

	sale, err := s.CreateSale(context.Background(), SaleInput{
		CustomerID:    firstCustomer(t, s).ID,
		ProductID:     l.products["Chana"],
		MeasurementID: l.measurements["250gm"],
		Qty:           3,
		Price:         decimal.RequireFromString("12.50"),
		TotalAmount:   decimal.NewFromInt(999),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusPending, sale.Status)
	assert.Nil(t, sale.DeliveredDate)
	assert.Equal(t, types.Date("2025-01-10"), sale.CreatedDate)
	assert.True(t, decimal.RequireFromString("37.5").Equal(sale.TotalAmount), "total %s", sale.TotalAmount)
}

func TestCreateSaleRejectsUnknownReferences(t *testing.T) {
	s := newTestStore(t)
	l := loadLookups(t, s)

	_, err := s.CreateSale(context.Background(), SaleInput{
		CustomerID:    "999",
		ProductID:     l.products["Chana"],
		MeasurementID: l.measurements["250gm"],
		Qty:           1,
		Price:         decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, "customer 999 does not exist", pkgerrors.UserMessage(err))

	_, err = s.CreateSale(context.Background(), SaleInput{
		CustomerID:    firstCustomer(t, s).ID,
		ProductID:     l.products["Chana"],
		MeasurementID: l.measurements["250gm"],
		Qty:           1,
		Price:         decimal.NewFromInt(-1),
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDeliverAndRevertMoveStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)

	sale, err := s.CreateSale(ctx, SaleInput{
		CustomerID:    firstCustomer(t, s).ID,
		ProductID:     l.products["Jeera"],
		MeasurementID: l.measurements["1kg"],
		Qty:           5,
		Price:         decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	delivered, err := s.MarkDelivered(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredDate)
	assert.Equal(t, types.Date("2025-01-10"), *delivered.DeliveredDate)
	assert.Equal(t, 40, stockOf(t, s, "Jeera", "1kg"))

	_, err = s.MarkDelivered(ctx, sale.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, 40, stockOf(t, s, "Jeera", "1kg"))

	_, err = s.UpdateSale(ctx, sale.ID, SaleInput{
		CustomerID:    sale.CustomerID,
		ProductID:     sale.ProductID,
		MeasurementID: sale.MeasurementID,
		Qty:           1,
		Price:         decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, "Delivered sales cannot be edited", pkgerrors.UserMessage(err))

	err = s.DeleteSale(ctx, sale.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	reverted, err := s.RevertDelivery(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusPending, reverted.Status)
	assert.Nil(t, reverted.DeliveredDate)
	assert.Equal(t, 45, stockOf(t, s, "Jeera", "1kg"))

	_, err = s.RevertDelivery(ctx, sale.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	require.NoError(t, s.DeleteSale(ctx, sale.ID))
	_, err = s.MarkDelivered(ctx, sale.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeliverWithInsufficientStockLeavesSalePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)

	sale, err := s.CreateSale(ctx, SaleInput{
		CustomerID:    firstCustomer(t, s).ID,
		ProductID:     l.products["Tal"],
		MeasurementID: l.measurements["1kg"],
		Qty:           6,
		Price:         decimal.NewFromInt(90),
	})
	require.NoError(t, err)

	_, err = s.MarkDelivered(ctx, sale.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.CodeOf(err))
	assert.Equal(t, "Insufficient stock for Tal 1kg: available 5, requested 6", pkgerrors.UserMessage(err))
	assert.Equal(t, 5, stockOf(t, s, "Tal", "1kg"))

	page, _, err := s.ListSales(ctx, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, page)
	assert.Equal(t, sale.ID, page[0].ID)
	assert.Equal(t, enums.SaleStatusPending, page[0].Status)
	assert.Nil(t, page[0].DeliveredDate)
}

func TestDeliverWithoutAnyStockRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)

	sale, err := s.CreateSale(ctx, SaleInput{
		CustomerID:    firstCustomer(t, s).ID,
		ProductID:     l.products["Chana"],
		MeasurementID: l.measurements["100gm"],
		Qty:           1,
		Price:         decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	_, err = s.MarkDelivered(ctx, sale.ID)
	assert.Equal(t, "Insufficient stock for Chana 100gm: available 0, requested 1", pkgerrors.UserMessage(err))
}

func TestAdjustStockCreatesMissingRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)
	product, err := parseID(l.products["Chana"], "product")
	require.NoError(t, err)
	measurement, err := parseID(l.measurements["100gm"], "measurement")
	require.NoError(t, err)

	require.NoError(t, s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := adjustStock(tx, product, measurement, 7); err != nil {
			return err
		}
		return adjustStock(tx, product, measurement, 3)
	}))
	assert.Equal(t, 10, stockOf(t, s, "Chana", "100gm"))

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return adjustStock(tx, product, measurement, -11)
	})
	assert.Equal(t, "Insufficient stock for Chana 100gm: available 10, requested 11", pkgerrors.UserMessage(err))
	assert.Equal(t, 10, stockOf(t, s, "Chana", "100gm"))
}

func TestConcurrentDeliveriesNeverOversell(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)
	customer := firstCustomer(t, s)

	var ids []types.ID
	for i := 0; i < 3; i++ {
		sale, err := s.CreateSale(ctx, SaleInput{
			CustomerID:    customer.ID,
			ProductID:     l.products["Jeera"],
			MeasurementID: l.measurements["1kg"],
			Qty:           20,
			Price:         decimal.NewFromInt(400),
		})
		require.NoError(t, err)
		ids = append(ids, sale.ID)
	}
	// The same sale twice as well: only one of those may deduct.
	ids = append(ids, ids[0])

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.MarkDelivered(ctx, id)
		}()
	}
	wg.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
			continue
		}
		code := pkgerrors.CodeOf(err)
		assert.True(t, code == pkgerrors.CodeInsufficientStock || code == pkgerrors.CodeStateConflict, "unexpected %v", err)
	}
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 5, stockOf(t, s, "Jeera", "1kg"))
}

func TestListSalesPaginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)
	customer := firstCustomer(t, s)

	for i := 0; i < 10; i++ {
		_, err := s.CreateSale(ctx, SaleInput{
			CustomerID:    customer.ID,
			ProductID:     l.products["Methi"],
			MeasurementID: l.measurements["100gm"],
			Qty:           i + 1,
			Price:         decimal.NewFromInt(5),
		})
		require.NoError(t, err)
	}

	first, meta, err := s.ListSales(ctx, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Equal(t, pagination.Meta{CurrentPage: 1, TotalPages: 2, TotalCount: 13, Limit: 10, HasNext: true}, meta)
	assert.Equal(t, 10, first[0].Qty)

	second, meta, err := s.ListSales(ctx, pagination.Params{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.True(t, meta.HasPrev)
	assert.False(t, meta.HasNext)

	beyond, _, err := s.ListSales(ctx, pagination.Params{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestManufactureMovesStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)

	created, err := s.CreateManufacture(ctx, ManufactureInput{
		ProductID:       l.products["Chana"],
		MeasurementID:   l.measurements["100gm"],
		ManufactureDate: "2025-01-09",
		Quantity:        12,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, stockOf(t, s, "Chana", "100gm"))

	_, err = s.UpdateManufacture(ctx, created.ID, ManufactureInput{
		ProductID:       l.products["Chana"],
		MeasurementID:   l.measurements["500gm"],
		ManufactureDate: "2025-01-09",
		Quantity:        7,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, s, "Chana", "100gm"))
	assert.Equal(t, 7, stockOf(t, s, "Chana", "500gm"))

	require.NoError(t, s.DeleteManufacture(ctx, created.ID))
	assert.Equal(t, 0, stockOf(t, s, "Chana", "500gm"))

	_, err = s.CreateManufacture(ctx, ManufactureInput{
		ProductID:       "42",
		MeasurementID:   l.measurements["100gm"],
		ManufactureDate: "2025-01-09",
		Quantity:        1,
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDeleteManufactureAlreadySoldFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := loadLookups(t, s)

	batches, err := s.ListManufactures(ctx, ManufactureFilter{StartDate: "2024-12-16", EndDate: "2024-12-16"})
	require.NoError(t, err)
	var tal ManufactureDTO
	for _, b := range batches {
		if b.ProductID == l.products["Tal"] {
			tal = b
		}
	}
	require.False(t, tal.ID.IsZero())

	sale, err := s.CreateSale(ctx, SaleInput{
		CustomerID:    firstCustomer(t, s).ID,
		ProductID:     l.products["Tal"],
		MeasurementID: l.measurements["1kg"],
		Qty:           3,
		Price:         decimal.NewFromInt(90),
	})
	require.NoError(t, err)
	_, err = s.MarkDelivered(ctx, sale.ID)
	require.NoError(t, err)

	err = s.DeleteManufacture(ctx, tal.ID)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.CodeOf(err))
	assert.Equal(t, 2, stockOf(t, s, "Tal", "1kg"))
}

func TestListManufacturesFiltersByDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	all, err := s.ListManufactures(ctx, ManufactureFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 11)
	assert.Equal(t, types.Date("2024-12-19"), all[0].ManufactureDate)

	ranged, err := s.ListManufactures(ctx, ManufactureFilter{StartDate: "2024-12-16", EndDate: "2024-12-17"})
	require.NoError(t, err)
	assert.Len(t, ranged, 5)
	for _, r := range ranged {
		assert.False(t, r.ManufactureDate.Before("2024-12-16"))
		assert.False(t, types.Date("2024-12-17").Before(r.ManufactureDate))
	}

	page, meta, err := s.PageManufactures(ctx, ManufactureFilter{}, pagination.Params{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 3, meta.TotalPages)
}
