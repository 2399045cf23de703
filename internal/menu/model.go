package menu

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Availability string

const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
	Limited     Availability = "limited"
)

func (a Availability) Valid() bool {
	switch a {
	case Available, Unavailable, Limited:
		return true
	}
	return false
}

// Orderable reports whether new order lines may reference an item with this
// availability.
func (a Availability) Orderable() bool {
	return a == Available || a == Limited
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	CategoryID      uuid.NullUUID   `json:"category_id"`
	Image           string          `json:"image"`
	Availability    Availability    `json:"availability"`
	PreparationTime int             `json:"preparation_time"`
	Ingredients     []string        `json:"ingredients"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ItemFilter struct {
	CategoryID   *uuid.UUID
	Availability Availability
	Search       string
}

func (f ItemFilter) IsZero() bool {
	return f.CategoryID == nil && f.Availability == "" && f.Search == ""
}
