package customers

import (
	"strings"

	"github.com/angelmondragon/shopdesk/internal/form"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// Customer is the server's customer record.
type Customer struct {
	ID            types.ID `json:"id"`
	ShopName      string   `json:"shopName"`
	OwnerName     string   `json:"ownerName"`
	City          string   `json:"city"`
	Area          string   `json:"area"`
	ContactNumber string   `json:"contactNumber,omitempty"`
}

func customerID(c Customer) types.ID { return c.ID }

// Form holds the values typed into the customer form, keyed like the form inputs.
type Form struct {
	ShopName  string `json:"shop_name" validate:"required"`
	Name      string `json:"name" validate:"required"`
	City      string `json:"city" validate:"required"`
	AreaName  string `json:"area_name" validate:"required"`
	ContactNo string `json:"contact_no" validate:"contact"`
}

// FieldMap translates form keys to server field names.
var FieldMap = map[string]string{
	"shop_name":  "shopName",
	"name":       "ownerName",
	"city":       "city",
	"area_name":  "area",
	"contact_no": "contactNumber",
}

// Payload is the request body for create and update.
type Payload struct {
	ShopName      string `json:"shopName"`
	OwnerName     string `json:"ownerName"`
	City          string `json:"city"`
	Area          string `json:"area"`
	ContactNumber string `json:"contactNumber"`
}

// Payload trims the entered text and strips the contact number to digits.
func (f Form) Payload() Payload {
	return Payload{
		ShopName:      strings.TrimSpace(f.ShopName),
		OwnerName:     strings.TrimSpace(f.Name),
		City:          strings.TrimSpace(f.City),
		Area:          strings.TrimSpace(f.AreaName),
		ContactNumber: form.SanitizeContact(f.ContactNo),
	}
}

// FormFrom fills the form for editing c.
func FormFrom(c Customer) Form {
	return Form{
		ShopName:  c.ShopName,
		Name:      c.OwnerName,
		City:      c.City,
		AreaName:  c.Area,
		ContactNo: c.ContactNumber,
	}
}

// Search returns the customers whose shop name contains fragment, ignoring
// case. An empty fragment matches everything.
func Search(list []Customer, fragment string) []Customer {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	out := make([]Customer, 0, len(list))
	for _, c := range list {
		if fragment == "" || strings.Contains(strings.ToLower(c.ShopName), fragment) {
			out = append(out, c)
		}
	}
	return out
}
