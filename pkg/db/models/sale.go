package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopdesk/pkg/enums"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

type Sale struct {
	ID            uint             `gorm:"primaryKey"`
	CustomerID    uint             `gorm:"column:customer_id;not null;index"`
	ProductID     uint             `gorm:"column:product_id;not null"`
	MeasurementID uint             `gorm:"column:measurement_id;not null"`
	Qty           int              `gorm:"column:qty;not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status        enums.SaleStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	CreatedDate   types.Date       `gorm:"column:created_date;type:date;not null"`
	DeliveredDate *types.Date      `gorm:"column:delivered_date;type:date"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
