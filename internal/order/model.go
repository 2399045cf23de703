package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether the order accepts no further changes.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
)

func (s ItemStatus) String() string {
	return string(s)
}

func (s ItemStatus) Valid() bool {
	_, ok := itemRank[s]
	return ok
}

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentDigital PaymentMethod = "digital"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigital:
		return true
	}
	return false
}

type Item struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Notes      string          `json:"notes"`
	Status     ItemStatus      `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	TableID       uuid.UUID       `json:"table_id"`
	CustomerID    uuid.NullUUID   `json:"customer_id"`
	ServerID      uuid.UUID       `json:"server_id"`
	Items         []Item          `json:"items"`
	Status        Status          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Tip           decimal.Decimal `json:"tip"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod *PaymentMethod  `json:"payment_method"`
	PaidAt        *time.Time      `json:"paid_at"`
	Notes         string          `json:"notes"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Read-side joins.
	TableNumber  string  `json:"table_number"`
	CustomerName *string `json:"customer_name"`
}

func (o *Order) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, pricing.Line{UnitPrice: it.Price, Quantity: it.Quantity})
	}
	return lines
}

// Reprice recomputes the money fields from the items, discount and tip.
func (o *Order) Reprice(taxRate decimal.Decimal) {
	t := pricing.Calculate(o.Lines(), o.Discount, o.Tip, taxRate)
	o.Subtotal = t.Subtotal
	o.Discount = t.Discount
	o.Tax = t.Tax
	o.Tip = t.Tip
	o.Total = t.Total
}

func (o *Order) item(id uuid.UUID) *Item {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

type ItemInput struct {
	MenuItemID uuid.UUID
	Quantity   int
	Notes      string
}

type SubmitOrderInput struct {
	TableID    uuid.UUID
	CustomerID *uuid.UUID
	ServerID   uuid.UUID
	Items      []ItemInput
	Discount   decimal.Decimal
	Notes      string
}

type UpdateOrderInput struct {
	ID            uuid.UUID
	Status        *Status
	Discount      *decimal.Decimal
	Tip           *decimal.Decimal
	PaymentMethod *PaymentMethod
	CashTendered  *decimal.Decimal
	Notes         *string
	Version       *int
	StaffID       uuid.NullUUID
}

type PaymentInput struct {
	OrderID      uuid.UUID
	Method       PaymentMethod
	Discount     *decimal.Decimal
	Tip          *decimal.Decimal
	CashTendered *decimal.Decimal
	StaffID      uuid.NullUUID
	Version      *int
}

type ListFilter struct {
	Statuses   []Status
	TableID    *uuid.UUID
	ServerID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	ActiveOnly bool
	Limit      int
}
