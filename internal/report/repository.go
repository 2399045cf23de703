package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Column is the order timestamp a report window filters on.
type Column string

const (
	ColumnPaidAt    Column = "paid_at"
	ColumnCreatedAt Column = "created_at"
)

// Rank orders item sales.
type Rank string

const (
	RankRevenue  Rank = "revenue"
	RankQuantity Rank = "quantity"
)

// Window selects orders in the given statuses whose Column falls in
// [Start, End).
type Window struct {
	Statuses []string
	Column   Column
	Start    time.Time
	End      time.Time
}

type FloorCounts struct {
	ActiveOrders   int `db:"active_orders"`
	OccupiedTables int `db:"occupied_tables"`
}

type Repository interface {
	Orders(ctx context.Context, w Window) ([]OrderRow, error)
	Items(ctx context.Context, w Window, rank Rank, limit int) ([]ItemSales, error)
	FloorCounts(ctx context.Context) (FloorCounts, error)
}

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (w Window) column() (string, error) {
	switch w.Column {
	case ColumnPaidAt, ColumnCreatedAt:
		return string(w.Column), nil
	}
	return "", fmt.Errorf("repository: unsupported report column %q", w.Column)
}

func (r *sqlRepository) Orders(ctx context.Context, w Window) ([]OrderRow, error) {
	col, err := w.column()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT total, tax, tip, payment_method, paid_at, created_at
		FROM orders
		WHERE status = ANY($1) AND %[1]s >= $2 AND %[1]s < $3
		ORDER BY %[1]s
	`, col)

	rows := []OrderRow{}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(w.Statuses), w.Start, w.End); err != nil {
		return nil, fmt.Errorf("repository: failed to select report orders: %w", err)
	}
	return rows, nil
}

func (r *sqlRepository) Items(ctx context.Context, w Window, rank Rank, limit int) ([]ItemSales, error) {
	col, err := w.column()
	if err != nil {
		return nil, err
	}
	if rank != RankRevenue && rank != RankQuantity {
		return nil, fmt.Errorf("repository: unsupported item ranking %q", rank)
	}
	query := fmt.Sprintf(`
		SELECT oi.name, SUM(oi.quantity) AS quantity, SUM(oi.price * oi.quantity) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = ANY($1) AND o.%[1]s >= $2 AND o.%[1]s < $3
		GROUP BY oi.name
		ORDER BY %[2]s DESC, oi.name
		LIMIT $4
	`, col, rank)

	items := []ItemSales{}
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(w.Statuses), w.Start, w.End, limit); err != nil {
		return nil, fmt.Errorf("repository: failed to select item sales: %w", err)
	}
	return items, nil
}

func (r *sqlRepository) FloorCounts(ctx context.Context) (FloorCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE status NOT IN ('paid', 'cancelled')) AS active_orders,
			(SELECT COUNT(*) FROM tables WHERE status = 'occupied') AS occupied_tables
	`
	var fc FloorCounts
	if err := r.db.GetContext(ctx, &fc, query); err != nil {
		return FloorCounts{}, fmt.Errorf("repository: failed to count floor state: %w", err)
	}
	return fc, nil
}
