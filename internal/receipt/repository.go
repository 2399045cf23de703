package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
)

var ErrNotFound = apperror.New(apperror.ErrNotFound, "receipt not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	List(ctx context.Context, f ListFilter) ([]Receipt, error)
	MarkEmailed(ctx context.Context, id uuid.UUID) (*Receipt, error)
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(conn db.Querier) Repository {
	return &postgresRepository{db: conn}
}

const receiptColumns = `id, order_id, customer_id, staff_id, items, subtotal, tax, discount, tip, total,
	payment_method, amount_tendered, change_due, printed_at, emailed_at`

func scanReceipt(row pgx.Row) (*Receipt, error) {
	var rc Receipt
	err := row.Scan(
		&rc.ID,
		&rc.OrderID,
		&rc.CustomerID,
		&rc.StaffID,
		&rc.Items,
		&rc.Subtotal,
		&rc.Tax,
		&rc.Discount,
		&rc.Tip,
		&rc.Total,
		&rc.PaymentMethod,
		&rc.AmountTendered,
		&rc.ChangeDue,
		&rc.PrintedAt,
		&rc.EmailedAt,
	)
	if err != nil {
		return nil, err
	}
	if rc.Items == nil {
		rc.Items = []Line{}
	}
	return &rc, nil
}

// Insert stores a receipt. It runs on the caller's transaction so the receipt
// is written together with the payment.
func Insert(ctx context.Context, q db.Querier, rc *Receipt) error {
	if rc.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate receipt id: %w", err)
		}
		rc.ID = id
	}
	if rc.PrintedAt.IsZero() {
		rc.PrintedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := q.Exec(ctx, query,
		rc.ID,
		rc.OrderID,
		rc.CustomerID,
		rc.StaffID,
		rc.Items,
		rc.Subtotal,
		rc.Tax,
		rc.Discount,
		rc.Tip,
		rc.Total,
		rc.PaymentMethod,
		rc.AmountTendered,
		rc.ChangeDue,
		rc.PrintedAt,
		rc.EmailedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert receipt for order %s: %w", rc.OrderID, err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	rc, err := scanReceipt(r.db.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select receipt %s: %w", id, err)
	}
	return rc, nil
}

func (r *postgresRepository) List(ctx context.Context, f ListFilter) ([]Receipt, error) {
	var (
		where []string
		args  []any
	)
	if f.OrderID != nil {
		args = append(args, *f.OrderID)
		where = append(where, fmt.Sprintf("order_id = $%d", len(args)))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("printed_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("printed_at < $%d", len(args)))
	}

	query := `SELECT ` + receiptColumns + ` FROM receipts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY printed_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]Receipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan receipt: %w", err)
		}
		receipts = append(receipts, *rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating receipts: %w", err)
	}
	return receipts, nil
}

func (r *postgresRepository) MarkEmailed(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	query := `UPDATE receipts SET emailed_at = NOW() WHERE id = $1 RETURNING ` + receiptColumns
	rc, err := scanReceipt(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to mark receipt %s emailed: %w", id, err)
	}
	return rc, nil
}
