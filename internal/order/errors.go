package order

import (
	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

var (
	ErrOrderNotFound = apperror.New(apperror.ErrNotFound, "order not found")
	ErrItemNotFound  = apperror.New(apperror.ErrNotFound, "order item not found")

	ErrEmptyOrder          = apperror.Invalid("items", "order must contain at least one item")
	ErrMenuItemUnavailable = apperror.New(apperror.ErrValidation, "order references an unavailable menu item")
	ErrUnknownMenuItem     = apperror.New(apperror.ErrValidation, "order references an unknown menu item")
	ErrUnknownReference    = apperror.New(apperror.ErrValidation, "order references an unknown server or customer")

	ErrInvalidTransition   = apperror.New(apperror.ErrUnprocessable, "invalid order status transition")
	ErrItemRegression      = apperror.New(apperror.ErrUnprocessable, "order item status cannot move backwards")
	ErrOrderTerminal       = apperror.New(apperror.ErrUnprocessable, "order is already paid or cancelled")
	ErrOrderNotEditable    = apperror.New(apperror.ErrUnprocessable, "items can only be added while the order is pending or preparing")
	ErrNotPayable          = apperror.New(apperror.ErrUnprocessable, "order must be ready or served to accept payment")
	ErrInsufficientPayment = apperror.New(apperror.ErrUnprocessable, "cash tendered is less than the total due")

	ErrVersionConflict = apperror.ErrVersionConflict
)
