package models

import "time"

// Stock is the quantity on hand for one product in one measurement.
type Stock struct {
	ID            uint      `gorm:"primaryKey"`
	ProductID     uint      `gorm:"column:product_id;not null;uniqueIndex:idx_stocks_product_measurement"`
	MeasurementID uint      `gorm:"column:measurement_id;not null;uniqueIndex:idx_stocks_product_measurement"`
	Quantity      int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// All lists every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Customer{},
		&Product{},
		&Measurement{},
		&Manufacture{},
		&Sale{},
		&Stock{},
	}
}
