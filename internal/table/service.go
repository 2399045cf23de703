package table

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

type Service interface {
	Create(ctx context.Context, t *Table) (*Table, error)
	Get(ctx context.Context, id uuid.UUID) (*Table, error)
	List(ctx context.Context, f ListFilter) ([]Table, error)
	Update(ctx context.Context, in UpdateInput) (*Table, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, version *int) (*Table, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, t *Table) (*Table, error) {
	t.Number = strings.TrimSpace(t.Number)
	if t.Number == "" {
		return nil, apperror.Invalid("number", "is required")
	}
	if t.Capacity <= 0 {
		return nil, apperror.Invalid("capacity", "must be greater than zero")
	}
	if t.Status == "" {
		t.Status = StatusAvailable
	}
	if !t.Status.Valid() {
		return nil, apperror.Invalid("status", "must be one of available, occupied, reserved, cleaning")
	}

	t.ID = uuid.Nil
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, ErrNumberExists) {
			log.Warn().Str("number", t.Number).Msg("service: table number already exists")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create table")
		return nil, fmt.Errorf("service: failed to create table: %w", err)
	}

	log.Info().Stringer("table_id", t.ID).Str("number", t.Number).Msg("service: table created")
	return t, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Table, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get table: %w", err)
	}
	return t, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Table, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.Invalid("status", "must be one of available, occupied, reserved, cleaning")
	}
	tables, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list tables: %w", err)
	}
	return tables, nil
}

func (s *service) Update(ctx context.Context, in UpdateInput) (*Table, error) {
	t, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get table for update: %w", err)
	}
	if in.Version != nil && *in.Version != t.Version {
		return nil, ErrVersionConflict
	}

	if in.Number != nil {
		t.Number = strings.TrimSpace(*in.Number)
		if t.Number == "" {
			return nil, apperror.Invalid("number", "is required")
		}
	}
	if in.Capacity != nil {
		if *in.Capacity <= 0 {
			return nil, apperror.Invalid("capacity", "must be greater than zero")
		}
		t.Capacity = *in.Capacity
	}
	if in.PositionX != nil {
		t.PositionX = *in.PositionX
	}
	if in.PositionY != nil {
		t.PositionY = *in.PositionY
	}

	if err := s.repo.Update(ctx, t); err != nil {
		log.Warn().Err(err).Stringer("table_id", in.ID).Msg("service: failed to update table")
		return nil, fmt.Errorf("service: failed to update table: %w", err)
	}
	return t, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status Status, version *int) (*Table, error) {
	if !status.Valid() {
		return nil, apperror.Invalid("status", "must be one of available, occupied, reserved, cleaning")
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get table for status change: %w", err)
	}
	if version != nil && *version != t.Version {
		return nil, ErrVersionConflict
	}

	old := t.Status
	if err := s.repo.SetStatus(ctx, t, status); err != nil {
		if errors.Is(err, ErrTableHasActiveOrder) {
			log.Warn().Stringer("table_id", id).Stringer("status", status).Msg("service: manual status change refused, active order attached")
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to set table status: %w", err)
	}

	log.Info().Stringer("table_id", id).Stringer("old_status", old).Stringer("new_status", status).Msg("service: table status changed")
	return t, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Stringer("table_id", id).Msg("service: failed to delete table")
		return fmt.Errorf("service: failed to delete table: %w", err)
	}
	return nil
}
