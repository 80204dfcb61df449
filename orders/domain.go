// Package orders is the order aggregate. Orders are partitioned by account
// and calendar month, so an account's recent history is a single-partition
// read while cross-month listings gather and sort.
package orders

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nexusware/customer-order/accounts"
)

// TaxRate is the flat sales-tax rate applied to the subtotal. A real system
// would derive this from the shipping address.
const TaxRate = 0.08

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusSubmitted  Status = "Submitted"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// ErrInvalidTransition is returned for a status change the lifecycle does
// not allow.
var ErrInvalidTransition = errors.New("orders: invalid status transition")

// ParseStatus maps a wire string onto a known Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("orders: unknown status %q", s)
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// The forward path is Draft → Submitted → Processing → Shipped → Delivered;
// Cancelled is reachable from every state except Delivered.
func (s Status) CanTransitionTo(next Status) bool {
	switch {
	case s == StatusDraft && next == StatusSubmitted:
		return true
	case s == StatusSubmitted && next == StatusProcessing:
		return true
	case s == StatusProcessing && next == StatusShipped:
		return true
	case s == StatusShipped && next == StatusDelivered:
		return true
	case next == StatusCancelled:
		return s != StatusDelivered
	}
	return false
}

// Line is one order line item.
type Line struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductSku  string    `json:"productSku"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
}

// LineTotal is the extended price of the line.
func (l Line) LineTotal() float64 { return float64(l.Quantity) * l.UnitPrice }

func (l Line) validate() error {
	if l.ProductSku == "" {
		return errors.New("orders: product sku is required")
	}
	if l.ProductName == "" {
		return errors.New("orders: product name is required")
	}
	if l.Quantity <= 0 {
		return errors.New("orders: quantity must be greater than zero")
	}
	if l.UnitPrice <= 0 {
		return errors.New("orders: unit price must be greater than zero")
	}
	return nil
}

// Order is a customer order with computed totals.
type Order struct {
	ID              uuid.UUID        `json:"id"`
	AccountID       uuid.UUID        `json:"accountId"`
	Status          Status           `json:"status"`
	Lines           []Line           `json:"lines"`
	ShippingAddress accounts.Address `json:"shippingAddress"`

	SubTotal float64 `json:"subTotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`

	OrderedUtc     time.Time  `json:"orderedUtc"`
	ShippedUtc     *time.Time `json:"shippedUtc,omitempty"`
	DeliveredUtc   *time.Time `json:"deliveredUtc,omitempty"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
}

// NewOrder builds an order, validating the lines and computing totals. New
// orders start Submitted.
func NewOrder(id, accountID uuid.UUID, lines []Line, shipping accounts.Address, orderedUtc time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, errors.New("orders: order must have at least one line item")
	}
	for _, l := range lines {
		if err := l.validate(); err != nil {
			return nil, err
		}
	}

	o := &Order{
		ID:              id,
		AccountID:       accountID,
		Status:          StatusSubmitted,
		Lines:           lines,
		ShippingAddress: shipping,
		OrderedUtc:      orderedUtc,
	}
	for _, l := range lines {
		o.SubTotal += l.LineTotal()
	}
	o.Tax = roundCents(o.SubTotal * TaxRate)
	o.Total = o.SubTotal + o.Tax
	return o, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
