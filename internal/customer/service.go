package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

type Service interface {
	Create(ctx context.Context, c *Customer) (*Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, f ListFilter) ([]Customer, error)
	Update(ctx context.Context, c *Customer) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) Service {
	return &service{repo: repo, validate: validator.New()}
}

func (s *service) normalize(c *Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperror.Invalid("name", "is required")
	}
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*c.Email))
		if email == "" {
			c.Email = nil
			return nil
		}
		if err := s.validate.Var(email, "email"); err != nil {
			return apperror.Invalid("email", "must be a valid email address")
		}
		c.Email = &email
	}
	return nil
}

func (s *service) Create(ctx context.Context, c *Customer) (*Customer, error) {
	if err := s.normalize(c); err != nil {
		return nil, err
	}
	c.ID = uuid.Nil
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrEmailExists) {
			log.Warn().Msg("service: customer email already exists")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create customer")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get customer: %w", err)
	}
	return c, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Customer, error) {
	f.Search = strings.TrimSpace(f.Search)
	customers, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *service) Update(ctx context.Context, c *Customer) (*Customer, error) {
	if err := s.normalize(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("service: failed to update customer: %w", err)
	}
	return s.repo.GetByID(ctx, c.ID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete customer: %w", err)
	}
	return nil
}
