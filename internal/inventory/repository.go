package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
)

var ErrNotFound = apperror.New(apperror.ErrNotFound, "inventory item not found")

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, f ListFilter) ([]Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error)
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(conn db.Querier) Repository {
	return &postgresRepository{db: conn}
}

const inventoryColumns = `id, name, category, quantity, unit, min_stock, cost_per_unit, supplier, last_restocked, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Category,
		&it.Quantity,
		&it.Unit,
		&it.MinStock,
		&it.CostPerUnit,
		&it.Supplier,
		&it.LastRestocked,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate inventory id: %w", err)
		}
		item.ID = id
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	query := `
		INSERT INTO inventory (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID, item.Name, item.Category, item.Quantity, item.Unit, item.MinStock,
		item.CostPerUnit, item.Supplier, item.LastRestocked, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert inventory item: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := scanItem(r.db.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select inventory item %s: %w", id, err)
	}
	return item, nil
}

func (r *postgresRepository) List(ctx context.Context, f ListFilter) ([]Item, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.LowStock {
		where = append(where, "quantity <= min_stock")
	}

	query := `SELECT ` + inventoryColumns + ` FROM inventory`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating inventory: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) Update(ctx context.Context, item *Item) error {
	item.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE inventory
		SET name = $1, category = $2, quantity = $3, unit = $4, min_stock = $5,
			cost_per_unit = $6, supplier = $7, updated_at = $8
		WHERE id = $9
	`
	tag, err := r.db.Exec(ctx, query,
		item.Name, item.Category, item.Quantity, item.Unit, item.MinStock,
		item.CostPerUnit, item.Supplier, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update inventory item %s: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete inventory item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error) {
	query := `
		UPDATE inventory
		SET quantity = quantity + $1, last_restocked = NOW(), updated_at = NOW()
		WHERE id = $2
		RETURNING ` + inventoryColumns
	item, err := scanItem(r.db.QueryRow(ctx, query, qty, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to restock inventory item %s: %w", id, err)
	}
	return item, nil
}
