package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

type Service interface {
	Create(ctx context.Context, item *Item) (*Item, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, f ListFilter) ([]Item, error)
	Update(ctx context.Context, item *Item) (*Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validate(item *Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return apperror.Invalid("name", "is required")
	}
	if item.Quantity.IsNegative() {
		return apperror.Invalid("quantity", "cannot be negative")
	}
	if item.MinStock.IsNegative() {
		return apperror.Invalid("min_stock", "cannot be negative")
	}
	if item.CostPerUnit.IsNegative() {
		return apperror.Invalid("cost_per_unit", "cannot be negative")
	}
	if item.Unit == "" {
		item.Unit = "units"
	}
	return nil
}

func (s *service) Create(ctx context.Context, item *Item) (*Item, error) {
	if err := validate(item); err != nil {
		return nil, err
	}
	item.ID = uuid.Nil
	if err := s.repo.Create(ctx, item); err != nil {
		log.Error().Err(err).Msg("service: failed to create inventory item")
		return nil, fmt.Errorf("service: failed to create inventory item: %w", err)
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get inventory item: %w", err)
	}
	return item, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Item, error) {
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list inventory: %w", err)
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, item *Item) (*Item, error) {
	if err := validate(item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("service: failed to update inventory item: %w", err)
	}
	return s.repo.GetByID(ctx, item.ID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete inventory item: %w", err)
	}
	return nil
}

func (s *service) Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*Item, error) {
	if !qty.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be greater than zero")
	}
	item, err := s.repo.Restock(ctx, id, qty)
	if err != nil {
		return nil, fmt.Errorf("service: failed to restock inventory item: %w", err)
	}
	log.Info().Stringer("item_id", id).Str("added", qty.String()).Str("quantity", item.Quantity.String()).Msg("service: inventory restocked")
	return item, nil
}
