package table

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusReserved  Status = "reserved"
	StatusCleaning  Status = "cleaning"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusCleaning:
		return true
	}
	return false
}

type Table struct {
	ID             uuid.UUID     `json:"id"`
	Number         string        `json:"number"`
	Capacity       int           `json:"capacity"`
	Status         Status        `json:"status"`
	CurrentOrderID uuid.NullUUID `json:"current_order_id"`
	PositionX      int           `json:"position_x"`
	PositionY      int           `json:"position_y"`
	Version        int           `json:"version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type ListFilter struct {
	Status Status
}

type UpdateInput struct {
	ID        uuid.UUID
	Number    *string
	Capacity  *int
	PositionX *int
	PositionY *int
	Version   *int
}
