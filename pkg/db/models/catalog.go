package models

// Product is a sellable good such as a spice.
type Product struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

// Measurement is a package size a product is sold in.
type Measurement struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}
