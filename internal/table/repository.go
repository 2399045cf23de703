package table

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
)

var (
	ErrTableNotFound       = apperror.New(apperror.ErrNotFound, "table not found")
	ErrTableOccupied       = apperror.New(apperror.ErrConflict, "table already has an active order")
	ErrTableHasActiveOrder = apperror.New(apperror.ErrConflict, "table has an active order; settle or cancel it first")
	ErrNumberExists        = apperror.New(apperror.ErrConflict, "table number already exists")
	ErrTableInUse          = apperror.New(apperror.ErrConflict, "table is referenced by existing orders")
	ErrVersionConflict     = apperror.ErrVersionConflict
)

const activeOrderExists = `EXISTS (
	SELECT 1 FROM orders o
	WHERE o.table_id = tables.id AND o.status NOT IN ('paid', 'cancelled')
)`

type Repository interface {
	Create(ctx context.Context, t *Table) error
	GetByID(ctx context.Context, id uuid.UUID) (*Table, error)
	List(ctx context.Context, f ListFilter) ([]Table, error)
	Update(ctx context.Context, t *Table) error
	SetStatus(ctx context.Context, t *Table, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(conn db.Querier) Repository {
	return &postgresRepository{db: conn}
}

const tableColumns = `id, number, capacity, status, current_order_id, position_x, position_y, version, created_at, updated_at`

func scanTable(row pgx.Row) (*Table, error) {
	var t Table
	err := row.Scan(
		&t.ID,
		&t.Number,
		&t.Capacity,
		&t.Status,
		&t.CurrentOrderID,
		&t.PositionX,
		&t.PositionY,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepository) Create(ctx context.Context, t *Table) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate table id: %w", err)
		}
		t.ID = id
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	t.Version = 1
	t.CurrentOrderID = uuid.NullUUID{}

	query := `
		INSERT INTO tables (` + tableColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.Number, t.Capacity, string(t.Status), t.CurrentOrderID,
		t.PositionX, t.PositionY, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrNumberExists
		}
		return fmt.Errorf("repository: failed to insert table: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Table, error) {
	t, err := scanTable(r.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("repository: failed to select table %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresRepository) List(ctx context.Context, f ListFilter) ([]Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY NULLIF(regexp_replace(number, '\D', '', 'g'), '')::bigint NULLS LAST, number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan table: %w", err)
		}
		tables = append(tables, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating tables: %w", err)
	}
	return tables, nil
}

func (r *postgresRepository) Update(ctx context.Context, t *Table) error {
	t.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE tables
		SET number = $1, capacity = $2, position_x = $3, position_y = $4,
			version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`
	tag, err := r.db.Exec(ctx, query, t.Number, t.Capacity, t.PositionX, t.PositionY, t.UpdatedAt, t.ID, t.Version)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrNumberExists
		}
		return fmt.Errorf("repository: failed to update table %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, t.ID, false)
	}
	t.Version++
	return nil
}

// SetStatus applies a manual status override. It refuses while an active
// order is attached and clears the order link whenever the result is
// available.
func (r *postgresRepository) SetStatus(ctx context.Context, t *Table, status Status) error {
	now := time.Now().UTC()
	query := `
		UPDATE tables
		SET status = $1,
			current_order_id = CASE WHEN $1 = 'available' THEN NULL ELSE current_order_id END,
			version = version + 1,
			updated_at = $2
		WHERE id = $3 AND version = $4 AND NOT ` + activeOrderExists
	tag, err := r.db.Exec(ctx, query, string(status), now, t.ID, t.Version)
	if err != nil {
		return fmt.Errorf("repository: failed to set table %s status: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, t.ID, true)
	}

	t.Status = status
	if status == StatusAvailable {
		t.CurrentOrderID = uuid.NullUUID{}
	}
	t.Version++
	t.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tables WHERE id = $1 AND NOT `+activeOrderExists, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrTableInUse
		}
		return fmt.Errorf("repository: failed to delete table %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, id, true)
	}
	return nil
}

// classifyMiss explains why a guarded write touched no rows.
func (r *postgresRepository) classifyMiss(ctx context.Context, id uuid.UUID, activeGuard bool) error {
	var active bool
	query := `SELECT ` + activeOrderExists + ` FROM tables WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("repository: failed to inspect table %s: %w", id, err)
	}
	if activeGuard && active {
		return ErrTableHasActiveOrder
	}
	return ErrVersionConflict
}

// Occupy links orderID to the table and marks it occupied. It fails with
// ErrTableOccupied when another order is already linked. q is usually the
// transaction that inserted the order.
func Occupy(ctx context.Context, q db.Querier, tableID, orderID uuid.UUID) error {
	query := `
		UPDATE tables
		SET status = 'occupied', current_order_id = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND current_order_id IS NULL
	`
	tag, err := q.Exec(ctx, query, orderID, tableID)
	if err != nil {
		return fmt.Errorf("repository: failed to occupy table %s: %w", tableID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tables WHERE id = $1)`, tableID).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to inspect table %s: %w", tableID, err)
		}
		if !exists {
			return ErrTableNotFound
		}
		return ErrTableOccupied
	}
	return nil
}

// Release detaches any order from the table and sets its status.
func Release(ctx context.Context, q db.Querier, tableID uuid.UUID, status Status) error {
	query := `
		UPDATE tables
		SET status = $1, current_order_id = NULL, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := q.Exec(ctx, query, string(status), tableID)
	if err != nil {
		return fmt.Errorf("repository: failed to release table %s: %w", tableID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTableNotFound
	}
	return nil
}
