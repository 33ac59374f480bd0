// Package demostore is the persistence layer of the demo backend. It owns the
// server-side rules the dashboard relies on but never performs itself: id
// assignment, stock movement on manufacture and delivery, and the sale
// status transitions.
package demostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopdesk/pkg/db"
	"github.com/angelmondragon/shopdesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Store handles demo backend persistence.
type Store struct {
	client *db.Client
	now    func() time.Time
}

// New binds a database client to the store. now stamps created and delivered
// dates and defaults to time.Now.
func New(client *db.Client, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{client: client, now: now}
}

// AutoMigrate creates the demo tables; postgres deployments use cmd/migrate instead.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(models.All()...)
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx)
}

func (s *Store) today() types.Date {
	return types.Today(s.now)
}

func parseID(id types.ID, entity string) (uint, error) {
	v, err := id.Int()
	if err != nil || v == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s id %q", entity, id.String()))
	}
	return v, nil
}

func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading "+entity)
}

func likePattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}

// ListCustomers returns customers matching filter, oldest first.
func (s *Store) ListCustomers(ctx context.Context, filter CustomerFilter) ([]CustomerDTO, error) {
	query := s.conn(ctx).Model(&models.Customer{})
	if strings.TrimSpace(filter.City) != "" {
		query = query.Where("LOWER(city) LIKE ?", likePattern(filter.City))
	}
	if strings.TrimSpace(filter.Area) != "" {
		query = query.Where("LOWER(area) LIKE ?", likePattern(filter.Area))
	}
	var rows []models.Customer
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customers")
	}
	out := make([]CustomerDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCustomerDTO(row))
	}
	return out, nil
}

func (s *Store) CreateCustomer(ctx context.Context, in CustomerInput) (CustomerDTO, error) {
	row := models.Customer{}
	applyCustomer(&row, in)
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return CustomerDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating customer")
	}
	return toCustomerDTO(row), nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id types.ID, in CustomerInput) (CustomerDTO, error) {
	key, err := parseID(id, "customer")
	if err != nil {
		return CustomerDTO{}, err
	}
	var row models.Customer
	if err := s.conn(ctx).First(&row, key).Error; err != nil {
		return CustomerDTO{}, notFound(err, "customer")
	}
	applyCustomer(&row, in)
	if err := s.conn(ctx).Save(&row).Error; err != nil {
		return CustomerDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating customer")
	}
	return toCustomerDTO(row), nil
}

// DeleteCustomer refuses customers that still have sales.
func (s *Store) DeleteCustomer(ctx context.Context, id types.ID) error {
	key, err := parseID(id, "customer")
	if err != nil {
		return err
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var row models.Customer
		if err := tx.First(&row, key).Error; err != nil {
			return notFound(err, "customer")
		}
		var sales int64
		if err := tx.Model(&models.Sale{}).Where("customer_id = ?", key).Count(&sales).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting customer sales")
		}
		if sales > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("Customer %s has %d sales and cannot be deleted", row.ShopName, sales))
		}
		return tx.Delete(&row).Error
	})
}

func applyCustomer(row *models.Customer, in CustomerInput) {
	row.ShopName = strings.TrimSpace(in.ShopName)
	row.OwnerName = strings.TrimSpace(in.OwnerName)
	row.City = strings.TrimSpace(in.City)
	row.Area = strings.TrimSpace(in.Area)
	row.ContactNumber = strings.TrimSpace(in.ContactNumber)
}

func (s *Store) ListProducts(ctx context.Context) ([]NamedDTO, error) {
	var rows []models.Product
	if err := s.conn(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	out := make([]NamedDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NamedDTO{ID: types.FormatUint(row.ID), Name: row.Name})
	}
	return out, nil
}

func (s *Store) ListMeasurements(ctx context.Context) ([]NamedDTO, error) {
	var rows []models.Measurement
	if err := s.conn(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing measurements")
	}
	out := make([]NamedDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NamedDTO{ID: types.FormatUint(row.ID), Name: row.Name})
	}
	return out, nil
}

// requireRow fails with a validation error naming field when no row of model has id.
func requireRow(tx *gorm.DB, model any, id uint, field string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking "+field)
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %d does not exist", field, id))
	}
	return nil
}
