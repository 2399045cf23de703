package menu

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

var (
	ErrCategoryNotFound = apperror.New(apperror.ErrNotFound, "category not found")
	ErrItemNotFound     = apperror.New(apperror.ErrNotFound, "menu item not found")
	ErrItemInUse        = apperror.New(apperror.ErrConflict, "menu item is referenced by existing orders")
	ErrUnknownCategory  = apperror.Invalid("category_id", "category does not exist")
)

type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]Item, error)
	GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db db.Querier
}

func NewRepository(conn db.Querier) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate category id: %w", err)
		}
		c.ID = id
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `
		INSERT INTO categories (id, name, icon, color, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Icon, c.Color, c.SortOrder, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("repository: failed to insert category: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, icon, color, sort_order, created_at, updated_at
		FROM categories
		WHERE id = $1
	`
	var c Category
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("repository: failed to select category %s: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, icon, color, sort_order, created_at, updated_at
		FROM categories
		ORDER BY sort_order, name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating categories: %w", err)
	}
	return categories, nil
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, c *Category) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE categories
		SET name = $1, icon = $2, color = $3, sort_order = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query, c.Name, c.Icon, c.Color, c.SortOrder, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update category %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete category %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

const itemColumns = `id, name, description, price, category_id, image, availability, preparation_time, ingredients, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID,
		&it.Name,
		&it.Description,
		&it.Price,
		&it.CategoryID,
		&it.Image,
		&it.Availability,
		&it.PreparationTime,
		&it.Ingredients,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if it.Ingredients == nil {
		it.Ingredients = []string{}
	}
	return &it, nil
}

func (r *postgresRepository) CreateItem(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate menu item id: %w", err)
		}
		item.ID = id
	}
	if item.Ingredients == nil {
		item.Ingredients = []string{}
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	query := `
		INSERT INTO menu_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		item.CategoryID,
		item.Image,
		string(item.Availability),
		item.PreparationTime,
		item.Ingredients,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownCategory
		}
		return fmt.Errorf("repository: failed to insert menu item: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM menu_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select menu item %s: %w", id, err)
	}
	return item, nil
}

func (r *postgresRepository) ListItems(ctx context.Context, f ItemFilter) ([]Item, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Availability != "" {
		args = append(args, string(f.Availability))
		where = append(where, fmt.Sprintf("availability = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM menu_items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name`

	return r.queryItems(ctx, query, args...)
}

func (r *postgresRepository) GetItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	query := `SELECT ` + itemColumns + ` FROM menu_items WHERE id = ANY($1::uuid[])`
	return r.queryItems(ctx, query, strIDs)
}

func (r *postgresRepository) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating menu items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) UpdateItem(ctx context.Context, item *Item) error {
	if item.Ingredients == nil {
		item.Ingredients = []string{}
	}
	item.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, category_id = $4, image = $5,
			availability = $6, preparation_time = $7, ingredients = $8, updated_at = $9
		WHERE id = $10
	`
	tag, err := r.db.Exec(ctx, query,
		item.Name,
		item.Description,
		item.Price,
		item.CategoryID,
		item.Image,
		string(item.Availability),
		item.PreparationTime,
		item.Ingredients,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownCategory
		}
		return fmt.Errorf("repository: failed to update menu item %s: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrItemInUse
		}
		return fmt.Errorf("repository: failed to delete menu item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
