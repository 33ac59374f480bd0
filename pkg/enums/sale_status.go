package enums

import "fmt"

// SaleStatus tracks the delivery lifecycle of a sale.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusDelivered SaleStatus = "delivered"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusPending,
	SaleStatusDelivered,
}

// SaleTransition names the explicit operations that move a sale between statuses.
type SaleTransition string

const (
	SaleTransitionDeliver SaleTransition = "deliver"
	SaleTransitionRevert  SaleTransition = "revert"
)

var saleTransitions = map[SaleTransition]struct{ from, to SaleStatus }{
	SaleTransitionDeliver: {from: SaleStatusPending, to: SaleStatusDelivered},
	SaleTransitionRevert:  {from: SaleStatusDelivered, to: SaleStatusPending},
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Editable reports whether a sale in this status may be edited.
func (s SaleStatus) Editable() bool {
	return s == SaleStatusPending
}

// Apply returns the status reached by transition t, or an error when t is not allowed from s.
func (s SaleStatus) Apply(t SaleTransition) (SaleStatus, error) {
	edge, ok := saleTransitions[t]
	if !ok {
		return s, fmt.Errorf("unknown sale transition %q", t)
	}
	if edge.from != s {
		return s, fmt.Errorf("cannot %s a %s sale", t, s)
	}
	return edge.to, nil
}

// ParseSaleStatus converts raw input into a SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
