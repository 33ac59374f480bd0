package demostore

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopdesk/pkg/db/models"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// CustomerDTO is the wire shape of a customer.
type CustomerDTO struct {
	ID            types.ID `json:"id"`
	ShopName      string   `json:"shopName"`
	OwnerName     string   `json:"ownerName"`
	City          string   `json:"city"`
	Area          string   `json:"area"`
	ContactNumber string   `json:"contactNumber"`
}

// CustomerInput is the create/update body for customers.
type CustomerInput struct {
	ShopName      string `json:"shopName" validate:"required"`
	OwnerName     string `json:"ownerName" validate:"required"`
	City          string `json:"city" validate:"required"`
	Area          string `json:"area" validate:"required"`
	ContactNumber string `json:"contactNumber" validate:"omitempty,len=10,numeric"`
}

// CustomerFilter matches city and area case-insensitively by substring.
type CustomerFilter struct {
	City string
	Area string
}

func toCustomerDTO(m models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:            types.FormatUint(m.ID),
		ShopName:      m.ShopName,
		OwnerName:     m.OwnerName,
		City:          m.City,
		Area:          m.Area,
		ContactNumber: m.ContactNumber,
	}
}

// NamedDTO is the wire shape of products and measurements.
type NamedDTO struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

// ManufactureDTO is the wire shape of a manufacturing record.
type ManufactureDTO struct {
	ID              types.ID   `json:"id"`
	ProductID       types.ID   `json:"product_id"`
	MeasurementID   types.ID   `json:"measurement_id"`
	ManufactureDate types.Date `json:"manufacture_date"`
	Quantity        int        `json:"quantity"`
}

type ManufactureInput struct {
	ProductID       types.ID   `json:"product_id" validate:"required"`
	MeasurementID   types.ID   `json:"measurement_id" validate:"required"`
	ManufactureDate types.Date `json:"manufacture_date" validate:"required"`
	Quantity        int        `json:"quantity" validate:"gt=0"`
}

// ManufactureFilter bounds manufacture_date inclusively; zero dates are open.
type ManufactureFilter struct {
	StartDate types.Date
	EndDate   types.Date
}

func toManufactureDTO(m models.Manufacture) ManufactureDTO {
	return ManufactureDTO{
		ID:              types.FormatUint(m.ID),
		ProductID:       types.FormatUint(m.ProductID),
		MeasurementID:   types.FormatUint(m.MeasurementID),
		ManufactureDate: m.ManufactureDate,
		Quantity:        m.Quantity,
	}
}

// SaleDTO is the wire shape of a sale. delivered_date is always present,
// null until delivery.
type SaleDTO struct {
	ID            types.ID         `json:"id"`
	CustomerID    types.ID         `json:"customer_id"`
	ProductID     types.ID         `json:"product_id"`
	MeasurementID types.ID         `json:"measurement_id"`
	Qty           int              `json:"qty"`
	Price         decimal.Decimal  `json:"price"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Status        enums.SaleStatus `json:"status"`
	CreatedDate   types.Date       `json:"created_date"`
	DeliveredDate *types.Date      `json:"delivered_date"`
}

// SaleInput is the create/update body. A total_amount sent by the client is
// ignored; the stored total is always qty × price.
type SaleInput struct {
	CustomerID    types.ID        `json:"customer_id" validate:"required"`
	ProductID     types.ID        `json:"product_id" validate:"required"`
	MeasurementID types.ID        `json:"measurement_id" validate:"required"`
	Qty           int             `json:"qty" validate:"gte=1"`
	Price         decimal.Decimal `json:"price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

func toSaleDTO(m models.Sale) SaleDTO {
	return SaleDTO{
		ID:            types.FormatUint(m.ID),
		CustomerID:    types.FormatUint(m.CustomerID),
		ProductID:     types.FormatUint(m.ProductID),
		MeasurementID: types.FormatUint(m.MeasurementID),
		Qty:           m.Qty,
		Price:         m.Price,
		TotalAmount:   m.TotalAmount,
		Status:        m.Status,
		CreatedDate:   m.CreatedDate,
		DeliveredDate: m.DeliveredDate,
	}
}

// StockDTO is one stock row with product and measurement names resolved.
type StockDTO struct {
	Product     string `json:"product"`
	Measurement string `json:"measurement"`
	Quantity    int    `json:"quantity"`
}
