package receipt

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Line struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Notes     string          `json:"notes,omitempty"`
}

type Receipt struct {
	ID             uuid.UUID           `json:"id"`
	OrderID        uuid.UUID           `json:"order_id"`
	CustomerID     uuid.NullUUID       `json:"customer_id"`
	StaffID        uuid.NullUUID       `json:"staff_id"`
	Items          []Line              `json:"items"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Tax            decimal.Decimal     `json:"tax"`
	Discount       decimal.Decimal     `json:"discount"`
	Tip            decimal.Decimal     `json:"tip"`
	Total          decimal.Decimal     `json:"total"`
	PaymentMethod  string              `json:"payment_method"`
	AmountTendered decimal.NullDecimal `json:"amount_tendered"`
	ChangeDue      decimal.Decimal     `json:"change_due"`
	PrintedAt      time.Time           `json:"printed_at"`
	EmailedAt      *time.Time          `json:"emailed_at"`
}

type ListFilter struct {
	OrderID    *uuid.UUID
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}
