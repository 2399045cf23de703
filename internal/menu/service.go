package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

type Service interface {
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, item *Item) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]Item, error)
	UpdateItem(ctx context.Context, item *Item) (*Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// LookupItems returns the requested menu items keyed by id. Unknown ids
	// are absent from the result.
	LookupItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error)
}

type service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) Service {
	if cache == nil {
		cache = noCache{}
	}
	return &service{repo: repo, cache: cache}
}

func validateCategory(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperror.Invalid("name", "is required")
	}
	return nil
}

func validateItem(item *Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return apperror.Invalid("name", "is required")
	}
	if item.Price.IsNegative() {
		return apperror.Invalid("price", "cannot be negative")
	}
	if item.Availability == "" {
		item.Availability = Available
	}
	if !item.Availability.Valid() {
		return apperror.Invalid("availability", "must be one of available, unavailable, limited")
	}
	if item.PreparationTime < 0 {
		return apperror.Invalid("preparation_time", "cannot be negative")
	}
	item.Price = item.Price.Round(2)
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("service: failed to invalidate menu cache")
	}
}

func (s *service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	c.ID = uuid.Nil
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		log.Error().Err(err).Msg("service: failed to create category")
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}
	return c, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get category: %w", err)
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("service: failed to update category: %w", err)
	}
	return s.repo.GetCategory(ctx, c.ID)
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete category: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) CreateItem(ctx context.Context, item *Item) (*Item, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	item.ID = uuid.Nil
	if err := s.repo.CreateItem(ctx, item); err != nil {
		log.Error().Err(err).Str("name", item.Name).Msg("service: failed to create menu item")
		return nil, fmt.Errorf("service: failed to create menu item: %w", err)
	}
	s.invalidate(ctx)
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get menu item: %w", err)
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, f ItemFilter) ([]Item, error) {
	if f.Availability != "" && !f.Availability.Valid() {
		return nil, apperror.Invalid("availability", "must be one of available, unavailable, limited")
	}

	if !f.IsZero() {
		items, err := s.repo.ListItems(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("service: failed to list menu items: %w", err)
		}
		return items, nil
	}

	if items, ok, err := s.cache.Get(ctx); err != nil {
		log.Warn().Err(err).Msg("service: menu cache read failed")
	} else if ok {
		return items, nil
	}

	items, err := s.repo.ListItems(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list menu items: %w", err)
	}
	if err := s.cache.Set(ctx, items); err != nil {
		log.Warn().Err(err).Msg("service: failed to populate menu cache")
	}
	return items, nil
}

func (s *service) UpdateItem(ctx context.Context, item *Item) (*Item, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("service: failed to update menu item: %w", err)
	}
	s.invalidate(ctx)
	return s.repo.GetItem(ctx, item.ID)
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete menu item: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) LookupItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Item, error) {
	items, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service: failed to look up menu items: %w", err)
	}
	out := make(map[uuid.UUID]Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}
