package models

import "time"

// Customer is a shop the business sells to.
type Customer struct {
	ID            uint      `gorm:"primaryKey"`
	ShopName      string    `gorm:"column:shop_name;not null"`
	OwnerName     string    `gorm:"column:owner_name;not null"`
	City          string    `gorm:"column:city;not null;index"`
	Area          string    `gorm:"column:area;not null;index"`
	ContactNumber string    `gorm:"column:contact_number;not null;default:''"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
