package manufacturing

import (
	"strings"
	"time"

	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Record is one manufactured batch of a product in one measurement.
type Record struct {
	ID              types.ID   `json:"id"`
	ProductID       types.ID   `json:"product_id"`
	MeasurementID   types.ID   `json:"measurement_id"`
	ManufactureDate types.Date `json:"manufacture_date"`
	Quantity        int        `json:"quantity"`
}

func recordID(r Record) types.ID { return r.ID }

// Group is the records manufactured on one date. It is derived from the flat
// list and never edited directly.
type Group struct {
	Date    types.Date
	Records []Record
}

// Quantity sums the group's records.
func (g Group) Quantity() int {
	total := 0
	for _, r := range g.Records {
		total += r.Quantity
	}
	return total
}

// GroupByDate partitions records by manufacture date. Groups come out in the
// order their date is first seen; records keep their relative order.
func GroupByDate(records []Record) []Group {
	groups := make([]Group, 0)
	index := make(map[types.Date]int)
	for _, r := range records {
		i, ok := index[r.ManufactureDate]
		if !ok {
			i = len(groups)
			index[r.ManufactureDate] = i
			groups = append(groups, Group{Date: r.ManufactureDate})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Form holds the manufacturing form inputs.
type Form struct {
	ManufactureDate string `json:"manufacture_date" validate:"required,date"`
	ProductID       string `json:"product_id" validate:"required"`
	MeasurementID   string `json:"measurement_id" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,gt=0"`
}

// DefaultForm is an empty form dated today.
func DefaultForm(now func() time.Time) Form {
	return Form{ManufactureDate: types.Today(now).String()}
}

// Payload is the create/update body; field names pass through unchanged.
type Payload struct {
	ProductID       types.ID   `json:"product_id"`
	MeasurementID   types.ID   `json:"measurement_id"`
	ManufactureDate types.Date `json:"manufacture_date"`
	Quantity        int        `json:"quantity"`
}

// Payload assumes the form has been validated.
func (f Form) Payload() Payload {
	date, _ := types.ParseDate(f.ManufactureDate)
	return Payload{
		ProductID:       types.ID(strings.TrimSpace(f.ProductID)),
		MeasurementID:   types.ID(strings.TrimSpace(f.MeasurementID)),
		ManufactureDate: date,
		Quantity:        f.Quantity,
	}
}

func FormFrom(r Record) Form {
	return Form{
		ManufactureDate: r.ManufactureDate.String(),
		ProductID:       r.ProductID.String(),
		MeasurementID:   r.MeasurementID.String(),
		Quantity:        r.Quantity,
	}
}
