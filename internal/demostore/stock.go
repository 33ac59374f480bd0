package demostore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
)

// ListStocks returns every stock row with its product and measurement names,
// ordered by product then measurement id.
func (s *Store) ListStocks(ctx context.Context) ([]StockDTO, error) {
	var rows []StockDTO
	err := s.conn(ctx).
		Table("stocks").
		Select("products.name AS product, measurements.name AS measurement, stocks.quantity AS quantity").
		Joins("JOIN products ON products.id = stocks.product_id").
		Joins("JOIN measurements ON measurements.id = stocks.measurement_id").
		Order("stocks.product_id ASC, stocks.measurement_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stocks")
	}
	if rows == nil {
		rows = []StockDTO{}
	}
	return rows, nil
}

// adjustStock moves the stock of one product/measurement by delta inside tx.
// The change is a single guarded UPDATE, so concurrent adjustments serialize on
// the row and stock never goes negative; a shortfall fails with
// INSUFFICIENT_STOCK and a message naming what was asked for.
func adjustStock(tx *gorm.DB, productID, measurementID uint, delta int) error {
	if delta >= 0 {
		seed := models.Stock{ProductID: productID, MeasurementID: measurementID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "measurement_id"}},
			DoNothing: true,
		}).Create(&seed).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating stock row")
		}
	}

	res := tx.Model(&models.Stock{}).
		Where("product_id = ? AND measurement_id = ? AND quantity + ? >= 0", productID, measurementID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "updating stock row")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	available, err := stockQuantity(tx, productID, measurementID)
	if err != nil {
		return err
	}
	return insufficientStock(tx, productID, measurementID, available, -delta)
}

// stockQuantity is the stored quantity, zero when no row exists.
func stockQuantity(tx *gorm.DB, productID, measurementID uint) (int, error) {
	var row models.Stock
	err := tx.Where("product_id = ? AND measurement_id = ?", productID, measurementID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock row")
	}
	return row.Quantity, nil
}

func insufficientStock(tx *gorm.DB, productID, measurementID uint, available, requested int) error {
	var product models.Product
	var measurement models.Measurement
	_ = tx.Select("name").First(&product, productID).Error
	_ = tx.Select("name").First(&measurement, measurementID).Error
	msg := fmt.Sprintf("Insufficient stock for %s %s: available %d, requested %d",
		product.Name, measurement.Name, available, requested)
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(map[string]any{
		"available": available,
		"requested": requested,
	})
}
