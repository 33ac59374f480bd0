package demostore

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/pagination"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

func (s *Store) manufactureQuery(ctx context.Context, filter ManufactureFilter) *gorm.DB {
	query := s.conn(ctx).Model(&models.Manufacture{})
	if !filter.StartDate.IsZero() {
		query = query.Where("manufacture_date >= ?", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("manufacture_date <= ?", filter.EndDate)
	}
	return query
}

// ListManufactures returns records in the date range, newest date first.
func (s *Store) ListManufactures(ctx context.Context, filter ManufactureFilter) ([]ManufactureDTO, error) {
	var rows []models.Manufacture
	if err := s.manufactureQuery(ctx, filter).Order("manufacture_date DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing manufactures")
	}
	return manufactureDTOs(rows), nil
}

// PageManufactures is ListManufactures restricted to one page.
func (s *Store) PageManufactures(ctx context.Context, filter ManufactureFilter, params pagination.Params) ([]ManufactureDTO, pagination.Meta, error) {
	var total int64
	if err := s.manufactureQuery(ctx, filter).Count(&total).Error; err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting manufactures")
	}
	meta := pagination.NewMeta(params.Page, pagination.NormalizeLimit(params.Limit), int(total))
	var rows []models.Manufacture
	err := s.manufactureQuery(ctx, filter).
		Order("manufacture_date DESC, id ASC").
		Offset(meta.Offset()).
		Limit(meta.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "paging manufactures")
	}
	return manufactureDTOs(rows), meta, nil
}

func manufactureDTOs(rows []models.Manufacture) []ManufactureDTO {
	out := make([]ManufactureDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toManufactureDTO(row))
	}
	return out
}

// CreateManufacture records a batch and adds it to stock.
func (s *Store) CreateManufacture(ctx context.Context, in ManufactureInput) (ManufactureDTO, error) {
	var row models.Manufacture
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := applyManufacture(tx, &row, in); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating manufacture")
		}
		return adjustStock(tx, row.ProductID, row.MeasurementID, row.Quantity)
	})
	if err != nil {
		return ManufactureDTO{}, err
	}
	return toManufactureDTO(row), nil
}

// UpdateManufacture takes the old batch out of stock and puts the new one in.
// It fails when the old quantity has already been sold.
func (s *Store) UpdateManufacture(ctx context.Context, id types.ID, in ManufactureInput) (ManufactureDTO, error) {
	key, err := parseID(id, "manufacture")
	if err != nil {
		return ManufactureDTO{}, err
	}
	var row models.Manufacture
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&row, key).Error; err != nil {
			return notFound(err, "manufacture")
		}
		if err := adjustStock(tx, row.ProductID, row.MeasurementID, -row.Quantity); err != nil {
			return err
		}
		if err := applyManufacture(tx, &row, in); err != nil {
			return err
		}
		if err := tx.Save(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating manufacture")
		}
		return adjustStock(tx, row.ProductID, row.MeasurementID, row.Quantity)
	})
	if err != nil {
		return ManufactureDTO{}, err
	}
	return toManufactureDTO(row), nil
}

func (s *Store) DeleteManufacture(ctx context.Context, id types.ID) error {
	key, err := parseID(id, "manufacture")
	if err != nil {
		return err
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var row models.Manufacture
		if err := tx.First(&row, key).Error; err != nil {
			return notFound(err, "manufacture")
		}
		if err := adjustStock(tx, row.ProductID, row.MeasurementID, -row.Quantity); err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
}

func applyManufacture(tx *gorm.DB, row *models.Manufacture, in ManufactureInput) error {
	productID, err := parseID(in.ProductID, "product")
	if err != nil {
		return err
	}
	measurementID, err := parseID(in.MeasurementID, "measurement")
	if err != nil {
		return err
	}
	if in.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	if err := requireRow(tx, &models.Product{}, productID, "product"); err != nil {
		return err
	}
	if err := requireRow(tx, &models.Measurement{}, measurementID, "measurement"); err != nil {
		return err
	}
	row.ProductID = productID
	row.MeasurementID = measurementID
	row.ManufactureDate = in.ManufactureDate
	row.Quantity = in.Quantity
	return nil
}
