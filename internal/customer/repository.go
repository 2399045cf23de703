package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
)

var (
	ErrNotFound    = apperror.New(apperror.ErrNotFound, "customer not found")
	ErrEmailExists = apperror.New(apperror.ErrConflict, "customer email already exists")
	ErrInvalidSort = apperror.Invalid("sort_by", "must be one of name, spent, visits, points")
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, f ListFilter) ([]Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(conn db.Querier) Repository {
	return &postgresRepository{db: conn}
}

const customerColumns = `id, name, email, phone, loyalty_points, total_spent, visit_count, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.LoyaltyPoints,
		&c.TotalSpent,
		&c.VisitCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) Create(ctx context.Context, c *Customer) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate customer id: %w", err)
		}
		c.ID = id
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.LoyaltyPoints, c.VisitCount, c.TotalSpent = 0, 0, decimal.Zero

	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.LoyaltyPoints, c.TotalSpent, c.VisitCount, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert customer: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer %s: %w", id, err)
	}
	return c, nil
}

func (r *postgresRepository) List(ctx context.Context, f ListFilter) ([]Customer, error) {
	order, ok := f.SortBy.orderClause()
	if !ok {
		return nil, ErrInvalidSort
	}

	query := `SELECT ` + customerColumns + ` FROM customers`
	var args []any
	if f.Search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+f.Search+"%")
	}
	query += ` ORDER BY ` + order

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating customers: %w", err)
	}
	return customers, nil
}

func (r *postgresRepository) Update(ctx context.Context, c *Customer) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, c.Name, c.Email, c.Phone, c.UpdatedAt, c.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to update customer %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete customer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordVisit credits a paid order to the customer's lifetime stats.
func RecordVisit(ctx context.Context, q db.Querier, id uuid.UUID, amount decimal.Decimal, points int64) error {
	query := `
		UPDATE customers
		SET visit_count = visit_count + 1,
			total_spent = total_spent + $1,
			loyalty_points = loyalty_points + $2,
			updated_at = NOW()
		WHERE id = $3
	`
	tag, err := q.Exec(ctx, query, amount, points, id)
	if err != nil {
		return fmt.Errorf("repository: failed to record visit for customer %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
