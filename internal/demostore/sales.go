package demostore

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopdesk/pkg/db/models"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// ListSales returns one page of sales, newest first.
func (s *Store) ListSales(ctx context.Context, params pagination.Params) ([]SaleDTO, pagination.Meta, error) {
	var total int64
	if err := s.conn(ctx).Model(&models.Sale{}).Count(&total).Error; err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting sales")
	}
	meta := pagination.NewMeta(params.Page, pagination.NormalizeLimit(params.Limit), int(total))

	var rows []models.Sale
	err := s.conn(ctx).
		Order("created_date DESC, id DESC").
		Offset(meta.Offset()).
		Limit(meta.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing sales")
	}
	out := make([]SaleDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSaleDTO(row))
	}
	return out, meta, nil
}

// CreateSale stores a pending sale dated today.
func (s *Store) CreateSale(ctx context.Context, in SaleInput) (SaleDTO, error) {
	row := models.Sale{
		Status:      enums.SaleStatusPending,
		CreatedDate: s.today(),
	}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := applySale(tx, &row, in); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating sale")
		}
		return nil
	})
	if err != nil {
		return SaleDTO{}, err
	}
	return toSaleDTO(row), nil
}

// UpdateSale edits a pending sale; delivered sales are frozen.
func (s *Store) UpdateSale(ctx context.Context, id types.ID, in SaleInput) (SaleDTO, error) {
	var row models.Sale
	err := s.withSale(ctx, id, &row, func(tx *gorm.DB) error {
		if !row.Status.Editable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Delivered sales cannot be edited")
		}
		if err := applySale(tx, &row, in); err != nil {
			return err
		}
		if err := tx.Save(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating sale")
		}
		return nil
	})
	if err != nil {
		return SaleDTO{}, err
	}
	return toSaleDTO(row), nil
}

// MarkDelivered deducts the sale from stock and stamps the delivery date. On
// a shortfall nothing changes.
func (s *Store) MarkDelivered(ctx context.Context, id types.ID) (SaleDTO, error) {
	var row models.Sale
	err := s.withSale(ctx, id, &row, func(tx *gorm.DB) error {
		next, err := row.Status.Apply(enums.SaleTransitionDeliver)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "Sale is already delivered")
		}
		delivered := s.today()
		prev := row.Status
		row.Status = next
		row.DeliveredDate = &delivered
		if err := saveStatus(tx, &row, prev); err != nil {
			return err
		}
		return adjustStock(tx, row.ProductID, row.MeasurementID, -row.Qty)
	})
	if err != nil {
		return SaleDTO{}, err
	}
	return toSaleDTO(row), nil
}

// RevertDelivery returns a delivered sale to pending and puts its quantity back in stock.
func (s *Store) RevertDelivery(ctx context.Context, id types.ID) (SaleDTO, error) {
	var row models.Sale
	err := s.withSale(ctx, id, &row, func(tx *gorm.DB) error {
		next, err := row.Status.Apply(enums.SaleTransitionRevert)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "Sale is not delivered")
		}
		prev := row.Status
		row.Status = next
		row.DeliveredDate = nil
		if err := saveStatus(tx, &row, prev); err != nil {
			return err
		}
		return adjustStock(tx, row.ProductID, row.MeasurementID, row.Qty)
	})
	if err != nil {
		return SaleDTO{}, err
	}
	return toSaleDTO(row), nil
}

func (s *Store) DeleteSale(ctx context.Context, id types.ID) error {
	var row models.Sale
	return s.withSale(ctx, id, &row, func(tx *gorm.DB) error {
		if row.Status == enums.SaleStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Delivered sales cannot be deleted; revert the delivery first")
		}
		return tx.Delete(&row).Error
	})
}

// withSale loads the sale into row and runs fn in the same transaction.
func (s *Store) withSale(ctx context.Context, id types.ID, row *models.Sale, fn func(tx *gorm.DB) error) error {
	key, err := parseID(id, "sale")
	if err != nil {
		return err
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(row, key).Error; err != nil {
			return notFound(err, "sale")
		}
		return fn(tx)
	})
}

// saveStatus writes the new status only if the stored one is still from. A
// concurrent transition that got there first leaves no row to update.
func saveStatus(tx *gorm.DB, row *models.Sale, from enums.SaleStatus) error {
	res := tx.Model(&models.Sale{}).
		Where("id = ? AND status = ?", row.ID, from).
		Updates(map[string]any{
			"status":         row.Status,
			"delivered_date": row.DeliveredDate,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "updating sale status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Sale status changed, reload and try again")
	}
	return nil
}

func applySale(tx *gorm.DB, row *models.Sale, in SaleInput) error {
	customerID, err := parseID(in.CustomerID, "customer")
	if err != nil {
		return err
	}
	productID, err := parseID(in.ProductID, "product")
	if err != nil {
		return err
	}
	measurementID, err := parseID(in.MeasurementID, "measurement")
	if err != nil {
		return err
	}
	if in.Qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	if in.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if err := requireRow(tx, &models.Customer{}, customerID, "customer"); err != nil {
		return err
	}
	if err := requireRow(tx, &models.Product{}, productID, "product"); err != nil {
		return err
	}
	if err := requireRow(tx, &models.Measurement{}, measurementID, "measurement"); err != nil {
		return err
	}
	row.CustomerID = customerID
	row.ProductID = productID
	row.MeasurementID = measurementID
	row.Qty = in.Qty
	row.Price = in.Price
	row.TotalAmount = in.Price.Mul(decimal.NewFromInt(int64(in.Qty)))
	return nil
}
