package customer

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// TierFor maps loyalty points to a tier.
func TierFor(points int64) Tier {
	switch {
	case points >= 1000:
		return TierPlatinum
	case points >= 500:
		return TierGold
	case points >= 100:
		return TierSilver
	default:
		return TierBronze
	}
}

type Customer struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         *string         `json:"email"`
	Phone         string          `json:"phone"`
	LoyaltyPoints int64           `json:"loyalty_points"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	VisitCount    int             `json:"visit_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (c Customer) Tier() Tier {
	return TierFor(c.LoyaltyPoints)
}

type SortBy string

const (
	SortByName   SortBy = "name"
	SortBySpent  SortBy = "spent"
	SortByVisits SortBy = "visits"
	SortByPoints SortBy = "points"
)

func (s SortBy) orderClause() (string, bool) {
	switch s {
	case "", SortByName:
		return "name ASC", true
	case SortBySpent:
		return "total_spent DESC, name ASC", true
	case SortByVisits:
		return "visit_count DESC, name ASC", true
	case SortByPoints:
		return "loyalty_points DESC, name ASC", true
	}
	return "", false
}

type ListFilter struct {
	Search string
	SortBy SortBy
}
