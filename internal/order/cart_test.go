package order_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
)

func menuItem(name, price string, a menu.Availability) menu.Item {
	return menu.Item{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         name,
		Price:        decimal.RequireFromString(price),
		Availability: a,
	}
}

func TestCart_AddMergesAndPrices(t *testing.T) {
	burger := menuItem("Burger", "12.50", menu.Available)
	soup := menuItem("Soup", "6.00", menu.Limited)

	var c order.Cart
	require.NoError(t, c.Add(burger, 1, ""))
	require.NoError(t, c.Add(burger, 1, "no onions"))
	require.NoError(t, c.Add(soup, 1, ""))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Equal(t, "no onions", c.Lines[0].Notes)

	totals := c.Totals(decimal.Zero, decimal.Zero, decimal.RequireFromString("0.08"))
	assert.Equal(t, "31.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "2.48", totals.Tax.StringFixed(2))
	assert.Equal(t, "33.48", totals.Total.StringFixed(2))
}

func TestCart_RejectsUnavailableAndBadQuantity(t *testing.T) {
	var c order.Cart
	err := c.Add(menuItem("Lobster", "40.00", menu.Unavailable), 1, "")
	require.ErrorIs(t, err, order.ErrMenuItemUnavailable)
	require.ErrorIs(t, err, apperror.ErrValidation)

	err = c.Add(menuItem("Tea", "2.00", menu.Available), 0, "")
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, c.Lines)
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	tea := menuItem("Tea", "2.00", menu.Available)
	cake := menuItem("Cake", "5.00", menu.Available)

	var c order.Cart
	require.NoError(t, c.Add(tea, 1, ""))
	require.NoError(t, c.Add(cake, 1, ""))

	c.SetQuantity(tea.ID, 3)
	assert.Equal(t, 3, c.Lines[0].Quantity)

	c.SetQuantity(tea.ID, 0)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, cake.ID, c.Lines[0].MenuItemID)

	c.Remove(cake.ID)
	assert.Empty(t, c.Lines)
}

func TestCart_SubmitInput(t *testing.T) {
	server := uuid.Must(uuid.NewV4())
	var c order.Cart

	_, err := c.SubmitInput(server, decimal.Zero, "")
	require.ErrorIs(t, err, apperror.ErrValidation)

	c.TableID = uuid.Must(uuid.NewV4())
	_, err = c.SubmitInput(server, decimal.Zero, "")
	require.ErrorIs(t, err, order.ErrEmptyOrder)

	tea := menuItem("Tea", "2.00", menu.Available)
	require.NoError(t, c.Add(tea, 2, "hot"))
	in, err := c.SubmitInput(server, decimal.NewFromInt(1), "window seat")
	require.NoError(t, err)
	assert.Equal(t, c.TableID, in.TableID)
	assert.Equal(t, server, in.ServerID)
	assert.Equal(t, []order.ItemInput{{MenuItemID: tea.ID, Quantity: 2, Notes: "hot"}}, in.Items)
	assert.Equal(t, "window seat", in.Notes)
}
