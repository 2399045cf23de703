package order

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
)

type CartLine struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes"`
}

// Cart is an order being composed before submission. It is never stored.
type Cart struct {
	TableID    uuid.UUID
	CustomerID *uuid.UUID
	Lines      []CartLine
}

func (c *Cart) find(menuItemID uuid.UUID) int {
	for i, l := range c.Lines {
		if l.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

// Add puts qty units of item in the cart, merging with an existing line for
// the same menu item.
func (c *Cart) Add(item menu.Item, qty int, notes string) error {
	if qty <= 0 {
		return apperror.Invalid("quantity", "must be greater than zero")
	}
	if !item.Availability.Orderable() {
		return fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Name)
	}

	if i := c.find(item.ID); i >= 0 {
		c.Lines[i].Quantity += qty
		if notes != "" {
			c.Lines[i].Notes = notes
		}
		return nil
	}
	c.Lines = append(c.Lines, CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
		Quantity:   qty,
		Notes:      notes,
	})
	return nil
}

func (c *Cart) Remove(menuItemID uuid.UUID) {
	if i := c.find(menuItemID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(menuItemID uuid.UUID, qty int) {
	if qty <= 0 {
		c.Remove(menuItemID)
		return
	}
	if i := c.find(menuItemID); i >= 0 {
		c.Lines[i].Quantity = qty
	}
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) Totals(discount, tip, taxRate decimal.Decimal) pricing.Totals {
	lines := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	return pricing.Calculate(lines, discount, tip, taxRate)
}

func (c *Cart) SubmitInput(serverID uuid.UUID, discount decimal.Decimal, notes string) (SubmitOrderInput, error) {
	if c.TableID == uuid.Nil {
		return SubmitOrderInput{}, apperror.Invalid("table_id", "is required")
	}
	if len(c.Lines) == 0 {
		return SubmitOrderInput{}, ErrEmptyOrder
	}

	items := make([]ItemInput, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, ItemInput{MenuItemID: l.MenuItemID, Quantity: l.Quantity, Notes: l.Notes})
	}
	return SubmitOrderInput{
		TableID:    c.TableID,
		CustomerID: c.CustomerID,
		ServerID:   serverID,
		Items:      items,
		Discount:   discount,
		Notes:      notes,
	}, nil
}
