package sales

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/enums"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Sale is one order line sold to a customer.
type Sale struct {
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

func saleID(s Sale) types.ID { return s.ID }

func (s Sale) Delivered() bool { return s.Status == enums.SaleStatusDelivered }

// Check verifies a sale read from the server: a known status, and a delivered
// date present exactly when the sale is delivered.
func (s Sale) Check() error {
	if !s.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeDecode, "sale "+s.ID.String()+" has unknown status "+string(s.Status))
	}
	hasDate := s.DeliveredDate != nil && !s.DeliveredDate.IsZero()
	if hasDate != s.Delivered() {
		return pkgerrors.New(pkgerrors.CodeDecode, "sale "+s.ID.String()+" has an inconsistent delivered_date for status "+string(s.Status))
	}
	return nil
}

// Total is qty × price.
func Total(qty int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// Form holds the sale form inputs. Price stays text until submit so a typed
// value is validated exactly as entered.
type Form struct {
	CustomerID    string `json:"customer_id" validate:"required"`
	ProductID     string `json:"product_id" validate:"required"`
	MeasurementID string `json:"measurement_id" validate:"required"`
	Qty           int    `json:"qty" validate:"required,gte=1"`
	Price         string `json:"price" validate:"required,nonneg_decimal"`
}

const (
	defaultQty   = 1
	defaultPrice = "50"
)

func DefaultForm() Form {
	return Form{Qty: defaultQty, Price: defaultPrice}
}

// Total is the amount the form would be billed at; zero while price is not a number.
func (f Form) Total() decimal.Decimal {
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return decimal.Zero
	}
	return Total(f.Qty, price)
}

// Payload is the create/update body. total_amount is derived here so the
// server never receives a total that disagrees with qty and price.
type Payload struct {
	CustomerID    types.ID        `json:"customer_id"`
	ProductID     types.ID        `json:"product_id"`
	MeasurementID types.ID        `json:"measurement_id"`
	Qty           int             `json:"qty"`
	Price         decimal.Decimal `json:"price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

func (f Form) Payload() Payload {
	price, _ := decimal.NewFromString(strings.TrimSpace(f.Price))
	return Payload{
		CustomerID:    types.ID(strings.TrimSpace(f.CustomerID)),
		ProductID:     types.ID(strings.TrimSpace(f.ProductID)),
		MeasurementID: types.ID(strings.TrimSpace(f.MeasurementID)),
		Qty:           f.Qty,
		Price:         price,
		TotalAmount:   Total(f.Qty, price),
	}
}

func FormFrom(s Sale) Form {
	return Form{
		CustomerID:    s.CustomerID.String(),
		ProductID:     s.ProductID.String(),
		MeasurementID: s.MeasurementID.String(),
		Qty:           s.Qty,
		Price:         s.Price.String(),
	}
}
