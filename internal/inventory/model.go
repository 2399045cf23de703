package inventory

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Item struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	MinStock      decimal.Decimal `json:"min_stock"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	Supplier      string          `json:"supplier"`
	LastRestocked *time.Time      `json:"last_restocked"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LowStock reports whether the quantity has fallen to the reorder threshold.
func (i Item) LowStock() bool {
	return i.Quantity.LessThanOrEqual(i.MinStock)
}

type ListFilter struct {
	Category string
	LowStock bool
}
