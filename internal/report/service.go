// Package report aggregates paid orders into sales and dashboard figures.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
)

const (
	topItemsLimit     = 10
	popularItemsLimit = 5
)

var (
	paidOnly  = []string{"paid"}
	notVoided = []string{"pending", "preparing", "ready", "served", "paid"}
)

type Service interface {
	Sales(ctx context.Context, q Query) (*Sales, error)
	Dashboard(ctx context.Context, day time.Time) (*Dashboard, error)
}

type service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService buckets report figures in loc, the restaurant's local time.
func NewService(repo Repository, loc *time.Location) Service {
	if loc == nil {
		loc = time.Local
	}
	return &service{repo: repo, loc: loc, now: time.Now}
}

// defaultSpan is how far back a report reaches when no start is given.
func defaultSpan(p Period) time.Duration {
	switch p {
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

func (s *service) bucketKey(p Period, t time.Time) string {
	t = t.In(s.loc)
	switch p {
	case PeriodHourly:
		return t.Format("03 PM")
	case PeriodWeekly:
		return t.Format("Mon")
	default:
		return t.Format("Jan 2")
	}
}

func methodLabel(m string) string {
	if m == "" {
		return "Unknown"
	}
	return strings.ToUpper(m[:1]) + m[1:]
}

func (s *service) Sales(ctx context.Context, q Query) (*Sales, error) {
	if q.Period == "" {
		q.Period = PeriodDaily
	}
	if !q.Period.Valid() {
		return nil, apperror.Invalid("period", "must be one of hourly, daily, weekly, monthly")
	}

	end := s.now()
	if q.End != nil {
		end = *q.End
	}
	start := end.Add(-defaultSpan(q.Period))
	if q.Start != nil {
		start = *q.Start
	}
	if !start.Before(end) {
		return nil, apperror.Invalid("start_date", "must be before end_date")
	}

	window := Window{Statuses: paidOnly, Column: ColumnPaidAt, Start: start, End: end}
	orders, err := s.repo.Orders(ctx, window)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load orders for sales report")
		return nil, fmt.Errorf("service: failed to build sales report: %w", err)
	}
	top, err := s.repo.Items(ctx, window, RankRevenue, topItemsLimit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load top items for sales report")
		return nil, fmt.Errorf("service: failed to build sales report: %w", err)
	}

	report := &Sales{
		Start:              start,
		End:                end,
		SalesData:          []Bucket{},
		PaymentMethods:     []MethodTotal{},
		HourlyDistribution: make([]HourTotal, 24),
	}

	var (
		sales, tax, tips = decimal.Zero, decimal.Zero, decimal.Zero
		bucketIdx        = map[string]int{}
		methodIdx        = map[string]int{}
		hourly           [24]decimal.Decimal
	)
	for _, o := range orders {
		sales = sales.Add(o.Total)
		tax = tax.Add(o.Tax)
		tips = tips.Add(o.Tip)

		at := o.CreatedAt
		if o.PaidAt.Valid {
			at = o.PaidAt.Time
		}

		key := s.bucketKey(q.Period, at)
		i, ok := bucketIdx[key]
		if !ok {
			i = len(report.SalesData)
			bucketIdx[key] = i
			report.SalesData = append(report.SalesData, Bucket{Name: key, Sales: decimal.Zero})
		}
		report.SalesData[i].Sales = report.SalesData[i].Sales.Add(o.Total)
		report.SalesData[i].Orders++

		label := methodLabel(o.PaymentMethod.String)
		j, ok := methodIdx[label]
		if !ok {
			j = len(report.PaymentMethods)
			methodIdx[label] = j
			report.PaymentMethods = append(report.PaymentMethods, MethodTotal{Name: label, Value: decimal.Zero})
		}
		report.PaymentMethods[j].Value = report.PaymentMethods[j].Value.Add(o.Total)

		h := at.In(s.loc).Hour()
		hourly[h] = hourly[h].Add(o.Total)
	}

	for i := range report.SalesData {
		report.SalesData[i].Sales = pricing.RoundMoney(report.SalesData[i].Sales)
	}
	for i := range report.PaymentMethods {
		report.PaymentMethods[i].Value = pricing.RoundMoney(report.PaymentMethods[i].Value)
	}
	for h := range hourly {
		report.HourlyDistribution[h] = HourTotal{Hour: fmt.Sprintf("%d:00", h), Sales: pricing.RoundMoney(hourly[h])}
	}
	for i := range top {
		top[i].Revenue = pricing.RoundMoney(top[i].Revenue)
	}
	report.TopItems = top

	report.Summary = Summary{
		TotalSales:    pricing.RoundMoney(sales),
		TotalOrders:   len(orders),
		AvgOrderValue: average(sales, len(orders)),
		TotalTax:      pricing.RoundMoney(tax),
		TotalTips:     pricing.RoundMoney(tips),
	}

	log.Debug().Str("period", string(q.Period)).Int("orders", len(orders)).Msg("service: sales report built")
	return report, nil
}

func (s *service) Dashboard(ctx context.Context, day time.Time) (*Dashboard, error) {
	if day.IsZero() {
		day = s.now()
	}
	local := day.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	window := Window{Statuses: notVoided, Column: ColumnCreatedAt, Start: start, End: start.AddDate(0, 0, 1)}

	orders, err := s.repo.Orders(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}
	popular, err := s.repo.Items(ctx, window, RankQuantity, popularItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}
	floor, err := s.repo.FloorCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build dashboard: %w", err)
	}

	sales := decimal.Zero
	for _, o := range orders {
		sales = sales.Add(o.Total)
	}
	for i := range popular {
		popular[i].Revenue = pricing.RoundMoney(popular[i].Revenue)
	}

	return &Dashboard{
		Day:            start,
		TodaySales:     pricing.RoundMoney(sales),
		TodayOrders:    len(orders),
		TodayAverage:   average(sales, len(orders)),
		PopularItems:   popular,
		ActiveOrders:   floor.ActiveOrders,
		OccupiedTables: floor.OccupiedTables,
	}, nil
}

func average(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return pricing.RoundMoney(sum.Div(decimal.NewFromInt(int64(n))))
}
