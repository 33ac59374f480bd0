package demostore

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopdesk/pkg/db"
	"github.com/angelmondragon/shopdesk/pkg/db/models"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

var (
	seedProducts     = []string{"Jeera", "Dhaniya", "Chana", "Tal", "Methi"}
	seedMeasurements = []string{"100gm", "250gm", "500gm", "1kg"}

	seedCustomers = []models.Customer{
		{ShopName: "Raj Electronics", OwnerName: "Rajesh Patel", City: "Surat", Area: "Varachha", ContactNumber: "9876543210"},
		{ShopName: "Modern Textiles", OwnerName: "Amit Shah", City: "Surat", Area: "Adajan", ContactNumber: "9876543211"},
		{ShopName: "City Mall", OwnerName: "Priya Sharma", City: "Ahmedabad", Area: "Satellite", ContactNumber: "9876543212"},
		{ShopName: "Tech Solutions", OwnerName: "Kiran Modi", City: "Surat", Area: "Varachha", ContactNumber: "9876543213"},
	}
)

type seedBatch struct {
	date        types.Date
	product     string
	measurement string
	quantity    int
}

var seedBatches = []seedBatch{
	{"2024-12-15", "Jeera", "1kg", 10},
	{"2024-12-15", "Dhaniya", "500gm", 20},
	{"2024-12-16", "Chana", "250gm", 50},
	{"2024-12-16", "Tal", "1kg", 5},
	{"2024-12-16", "Methi", "100gm", 100},
	{"2024-12-17", "Jeera", "500gm", 30},
	{"2024-12-17", "Dhaniya", "1kg", 15},
	{"2024-12-18", "Chana", "1kg", 25},
	{"2024-12-18", "Tal", "500gm", 40},
	{"2024-12-19", "Methi", "250gm", 60},
	{"2024-12-19", "Jeera", "1kg", 35},
}

type seedSale struct {
	customer    int
	product     string
	measurement string
	qty         int
	price       int64
	created     types.Date
}

var seedSales = []seedSale{
	{0, "Jeera", "1kg", 2, 450, "2024-12-20"},
	{1, "Dhaniya", "500gm", 5, 120, "2024-12-20"},
	{2, "Methi", "100gm", 10, 50, "2024-12-21"},
}

// Seed loads the sample catalog, customers, manufacturing batches and sales
// into an empty database. It reports whether anything was written.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	var products int64
	if err := s.conn(ctx).Model(&models.Product{}).Count(&products).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking seed state")
	}
	if products > 0 {
		return false, nil
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		productIDs := map[string]uint{}
		for _, name := range seedProducts {
			row := models.Product{Name: name}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			productIDs[name] = row.ID
		}
		measurementIDs := map[string]uint{}
		for _, name := range seedMeasurements {
			row := models.Measurement{Name: name}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			measurementIDs[name] = row.ID
		}

		customers := make([]models.Customer, len(seedCustomers))
		copy(customers, seedCustomers)
		if err := tx.Create(&customers).Error; err != nil {
			return err
		}

		for _, b := range seedBatches {
			row := models.Manufacture{
				ProductID:       productIDs[b.product],
				MeasurementID:   measurementIDs[b.measurement],
				ManufactureDate: b.date,
				Quantity:        b.quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if err := adjustStock(tx, row.ProductID, row.MeasurementID, row.Quantity); err != nil {
				return err
			}
		}

		for _, sl := range seedSales {
			price := decimal.NewFromInt(sl.price)
			row := models.Sale{
				CustomerID:    customers[sl.customer].ID,
				ProductID:     productIDs[sl.product],
				MeasurementID: measurementIDs[sl.measurement],
				Qty:           sl.qty,
				Price:         price,
				TotalAmount:   price.Mul(decimal.NewFromInt(int64(sl.qty))),
				Status:        enums.SaleStatusPending,
				CreatedDate:   sl.created,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if db.IsUniqueViolation(err, "") {
		// Another process seeded between the count and the insert.
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seeding demo data")
	}
	return true, nil
}
