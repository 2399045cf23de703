package staff

import (
	"time"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWaiter, RoleKitchen, RoleCashier:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	PinHash   string    `json:"-"`
	Avatar    string    `json:"avatar"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListFilter struct {
	Role       Role
	ActiveOnly bool
}

type CreateInput struct {
	Name   string
	Email  string
	Role   Role
	PIN    string
	Avatar string
}

type UpdateInput struct {
	ID     uuid.UUID
	Name   *string
	Email  *string
	Role   *Role
	PIN    *string
	Avatar *string
	Active *bool
}
