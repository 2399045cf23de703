package report

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodHourly  Period = "hourly"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type Query struct {
	Period Period
	Start  *time.Time
	End    *time.Time
}

type Summary struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalOrders   int             `json:"total_orders"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	TotalTips     decimal.Decimal `json:"total_tips"`
}

type Bucket struct {
	Name   string          `json:"name"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

type ItemSales struct {
	Name     string          `db:"name" json:"name"`
	Quantity int64           `db:"quantity" json:"quantity"`
	Revenue  decimal.Decimal `db:"revenue" json:"revenue"`
}

type MethodTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type HourTotal struct {
	Hour  string          `json:"hour"`
	Sales decimal.Decimal `json:"sales"`
}

type Sales struct {
	Start              time.Time     `json:"start"`
	End                time.Time     `json:"end"`
	Summary            Summary       `json:"summary"`
	SalesData          []Bucket      `json:"sales_data"`
	TopItems           []ItemSales   `json:"top_items"`
	PaymentMethods     []MethodTotal `json:"payment_methods"`
	HourlyDistribution []HourTotal   `json:"hourly_distribution"`
}

type Dashboard struct {
	Day            time.Time       `json:"day"`
	TodaySales     decimal.Decimal `json:"today_sales"`
	TodayOrders    int             `json:"today_orders"`
	TodayAverage   decimal.Decimal `json:"today_average"`
	PopularItems   []ItemSales     `json:"popular_items"`
	ActiveOrders   int             `json:"active_orders"`
	OccupiedTables int             `json:"occupied_tables"`
}

// OrderRow is the slice of an order the reports aggregate over.
type OrderRow struct {
	Total         decimal.Decimal `db:"total"`
	Tax           decimal.Decimal `db:"tax"`
	Tip           decimal.Decimal `db:"tip"`
	PaymentMethod sql.NullString  `db:"payment_method"`
	PaidAt        sql.NullTime    `db:"paid_at"`
	CreatedAt     time.Time       `db:"created_at"`
}
