package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/customer"
	"github.com/vasiliy-maslov/restaurant-pos/internal/db"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

// Repository persists orders. Every write that changes the order row is
// guarded by its version and fails with ErrVersionConflict when another
// writer got there first.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	AddItems(ctx context.Context, o *Order, items []Item) error
	UpdateItemStatus(ctx context.Context, o *Order, item *Item) error
	Update(ctx context.Context, o *Order) error
	Pay(ctx context.Context, o *Order, rc *receipt.Receipt, points int64) error
	Cancel(ctx context.Context, o *Order) error
}

type postgresRepository struct {
	db db.TxBeginner
}

func NewRepository(conn db.TxBeginner) Repository {
	return &postgresRepository{db: conn}
}

const orderSelect = `
	SELECT o.id, o.table_id, o.customer_id, o.server_id, o.status,
		o.subtotal, o.tax, o.discount, o.tip, o.total,
		o.payment_method, o.paid_at, o.notes, o.version, o.created_at, o.updated_at,
		COALESCE(t.number, ''), c.name
	FROM orders o
	LEFT JOIN tables t ON t.id = o.table_id
	LEFT JOIN customers c ON c.id = o.customer_id
`

const itemColumns = `id, order_id, menu_item_id, name, quantity, price, notes, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		method *string
	)
	err := row.Scan(
		&o.ID,
		&o.TableID,
		&o.CustomerID,
		&o.ServerID,
		&o.Status,
		&o.Subtotal,
		&o.Tax,
		&o.Discount,
		&o.Tip,
		&o.Total,
		&method,
		&o.PaidAt,
		&o.Notes,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.TableNumber,
		&o.CustomerName,
	)
	if err != nil {
		return nil, err
	}
	if method != nil {
		pm := PaymentMethod(*method)
		o.PaymentMethod = &pm
	}
	o.Items = make([]Item, 0)
	return &o, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(
		&it.ID,
		&it.OrderID,
		&it.MenuItemID,
		&it.Name,
		&it.Quantity,
		&it.Price,
		&it.Notes,
		&it.Status,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	return it, err
}

func insertItems(ctx context.Context, q db.Querier, orderID uuid.UUID, items []Item) error {
	query := `
		INSERT INTO order_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i := range items {
		it := &items[i]
		if it.ID == uuid.Nil {
			id, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("repository: failed to generate order item id: %w", err)
			}
			it.ID = id
		}
		it.OrderID = orderID
		now := time.Now().UTC()
		it.CreatedAt, it.UpdatedAt = now, now

		_, err := q.Exec(ctx, query,
			it.ID,
			it.OrderID,
			it.MenuItemID,
			it.Name,
			it.Quantity,
			it.Price,
			it.Notes,
			string(it.Status),
			it.CreatedAt,
			it.UpdatedAt,
		)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: %s", ErrUnknownMenuItem, it.MenuItemID)
			}
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", orderID, err)
		}
	}
	return nil
}

// saveOrder writes the mutable order columns under the version guard and
// bumps o.Version on success.
func saveOrder(ctx context.Context, q db.Querier, o *Order) error {
	var method *string
	if o.PaymentMethod != nil {
		m := string(*o.PaymentMethod)
		method = &m
	}
	updatedAt := time.Now().UTC()

	query := `
		UPDATE orders
		SET status = $1, subtotal = $2, tax = $3, discount = $4, tip = $5, total = $6,
			payment_method = $7, paid_at = $8, notes = $9,
			version = version + 1, updated_at = $10
		WHERE id = $11 AND version = $12
	`
	tag, err := q.Exec(ctx, query,
		string(o.Status),
		o.Subtotal,
		o.Tax,
		o.Discount,
		o.Tip,
		o.Total,
		method,
		o.PaidAt,
		o.Notes,
		updatedAt,
		o.ID,
		o.Version,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to inspect order %s: %w", o.ID, err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		log.Warn().Stringer("order_id", o.ID).Int("version", o.Version).Msg("repository: stale order version")
		return ErrVersionConflict
	}
	o.Version++
	o.UpdatedAt = updatedAt
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("repository: failed to generate order ID")
			return fmt.Errorf("repository: failed to generate order id: %w", err)
		}
		o.ID = id
	}

	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		o.Version = 1
		query := `
			INSERT INTO orders (id, table_id, customer_id, server_id, status, subtotal, tax, discount, tip, total, notes, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		`
		_, err := tx.Exec(ctx, query,
			o.ID,
			o.TableID,
			o.CustomerID,
			o.ServerID,
			string(o.Status),
			o.Subtotal,
			o.Tax,
			o.Discount,
			o.Tip,
			o.Total,
			o.Notes,
			o.Version,
			now,
		)
		if err != nil {
			switch {
			case db.IsUniqueViolation(err):
				return table.ErrTableOccupied
			case db.IsForeignKeyViolation(err) && db.ConstraintName(err) == "orders_table_id_fkey":
				return table.ErrTableNotFound
			case db.IsForeignKeyViolation(err):
				return ErrUnknownReference
			}
			return fmt.Errorf("repository: failed to insert order: %w", err)
		}
		o.CreatedAt, o.UpdatedAt = now, now

		if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
			return err
		}
		return table.Occupy(ctx, tx, o.TableID, o.ID)
	})
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	orders := map[uuid.UUID]*Order{o.ID: o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orders map[uuid.UUID]*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id.String())
	}

	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := orders[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, f ListFilter) ([]Order, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		conds = append(conds, "o.status = ANY("+arg(statuses)+"::text[])")
	}
	if f.ActiveOnly {
		conds = append(conds, "o.status NOT IN ('paid', 'cancelled')")
	}
	if f.TableID != nil {
		conds = append(conds, "o.table_id = "+arg(*f.TableID))
	}
	if f.ServerID != nil {
		conds = append(conds, "o.server_id = "+arg(*f.ServerID))
	}
	if f.From != nil {
		conds = append(conds, "o.created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "o.created_at < "+arg(*f.To))
	}

	query := orderSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY o.created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	byID := make(map[uuid.UUID]*Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, *byID[id])
	}
	return orders, nil
}

func (r *postgresRepository) AddItems(ctx context.Context, o *Order, items []Item) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveOrder(ctx, tx, o); err != nil {
			return err
		}
		return insertItems(ctx, tx, o.ID, items)
	})
}

func (r *postgresRepository) UpdateItemStatus(ctx context.Context, o *Order, item *Item) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveOrder(ctx, tx, o); err != nil {
			return err
		}
		item.UpdatedAt = o.UpdatedAt
		tag, err := tx.Exec(ctx,
			`UPDATE order_items SET status = $1, updated_at = $2 WHERE id = $3 AND order_id = $4`,
			string(item.Status), item.UpdatedAt, item.ID, o.ID,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to update order item %s: %w", item.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

// Update saves the order row. When the order is served every item is
// marked served with it.
func (r *postgresRepository) Update(ctx context.Context, o *Order) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveOrder(ctx, tx, o); err != nil {
			return err
		}
		if o.Status != StatusServed {
			return nil
		}
		_, err := tx.Exec(ctx,
			`UPDATE order_items SET status = 'served', updated_at = $1 WHERE order_id = $2 AND status <> 'served'`,
			o.UpdatedAt, o.ID,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to serve items for order %s: %w", o.ID, err)
		}
		return nil
	})
}

// Pay settles the order in one transaction: the order row, the table
// (left for cleaning), the receipt and the customer's loyalty stats.
func (r *postgresRepository) Pay(ctx context.Context, o *Order, rc *receipt.Receipt, points int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveOrder(ctx, tx, o); err != nil {
			return err
		}
		if err := table.Release(ctx, tx, o.TableID, table.StatusCleaning); err != nil {
			return err
		}
		if err := receipt.Insert(ctx, tx, rc); err != nil {
			return err
		}
		if o.CustomerID.Valid {
			if err := customer.RecordVisit(ctx, tx, o.CustomerID.UUID, o.Total, points); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postgresRepository) Cancel(ctx context.Context, o *Order) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveOrder(ctx, tx, o); err != nil {
			return err
		}
		return table.Release(ctx, tx, o.TableID, table.StatusAvailable)
	})
}
