package models

import (
	"time"

	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Manufacture is one batch produced on a date. Creating, editing and deleting
// batches moves the matching stock row.
type Manufacture struct {
	ID              uint       `gorm:"primaryKey"`
	ProductID       uint       `gorm:"column:product_id;not null;index"`
	MeasurementID   uint       `gorm:"column:measurement_id;not null"`
	ManufactureDate types.Date `gorm:"column:manufacture_date;type:date;not null;index"`
	Quantity        int        `gorm:"column:quantity;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
