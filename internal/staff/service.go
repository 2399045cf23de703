package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
)

var (
	ErrInvalidPIN = apperror.New(apperror.ErrUnauthorized, "invalid PIN")
	ErrPINInUse   = apperror.New(apperror.ErrConflict, "PIN is already assigned to another active staff member")
)

// pinRule matches 4 to 6 ASCII digits; the login and staff request DTOs use
// the same tag.
const pinRule = "required,number,min=4,max=6"

type Service interface {
	Create(ctx context.Context, in CreateInput) (*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, f ListFilter) ([]User, error)
	Update(ctx context.Context, in UpdateInput) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Authenticate resolves a PIN to the active staff member it belongs to.
	Authenticate(ctx context.Context, pin string) (*User, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
	cost     int
}

func NewService(repo Repository) Service {
	return NewServiceWithCost(repo, bcrypt.DefaultCost)
}

// NewServiceWithCost lets tests use bcrypt.MinCost.
func NewServiceWithCost(repo Repository, cost int) Service {
	return &service{repo: repo, validate: validator.New(), cost: cost}
}

func (s *service) validPIN(pin string) bool {
	return s.validate.Var(pin, pinRule) == nil
}

func (s *service) hashPIN(pin string) (string, error) {
	if !s.validPIN(pin) {
		return "", apperror.Invalid("pin", "must be 4 to 6 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return "", fmt.Errorf("service: failed to hash pin: %w", err)
	}
	return string(hash), nil
}

func (s *service) validateUser(u *User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Name == "" {
		return apperror.Invalid("name", "is required")
	}
	if err := s.validate.Var(u.Email, "required,email"); err != nil {
		return apperror.Invalid("email", "must be a valid email address")
	}
	if !u.Role.Valid() {
		return apperror.Invalid("role", "must be one of admin, waiter, kitchen, cashier")
	}
	return nil
}

// pinTaken reports whether another active staff member already uses pin.
func (s *service) pinTaken(ctx context.Context, pin string, except uuid.UUID) (bool, error) {
	users, err := s.repo.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ID == except {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)) == nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*User, error) {
	u := &User{
		Name:   in.Name,
		Email:  in.Email,
		Role:   in.Role,
		Avatar: in.Avatar,
		Active: true,
	}
	if err := s.validateUser(u); err != nil {
		return nil, err
	}

	hash, err := s.hashPIN(in.PIN)
	if err != nil {
		return nil, err
	}
	taken, err := s.pinTaken(ctx, in.PIN, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check pin uniqueness: %w", err)
	}
	if taken {
		return nil, ErrPINInUse
	}
	u.PinHash = hash

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			log.Warn().Str("email", u.Email).Msg("service: staff email already exists")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create staff member")
		return nil, fmt.Errorf("service: failed to create staff member: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Str("role", string(u.Role)).Msg("service: staff member created")
	return u, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get staff member: %w", err)
	}
	return u, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]User, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, apperror.Invalid("role", "must be one of admin, waiter, kitchen, cashier")
	}
	users, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list staff: %w", err)
	}
	return users, nil
}

func (s *service) Update(ctx context.Context, in UpdateInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get staff member for update: %w", err)
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := s.validateUser(u); err != nil {
		return nil, err
	}

	if in.PIN != nil {
		hash, err := s.hashPIN(*in.PIN)
		if err != nil {
			return nil, err
		}
		taken, err := s.pinTaken(ctx, *in.PIN, u.ID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to check pin uniqueness: %w", err)
		}
		if taken {
			return nil, ErrPINInUse
		}
		u.PinHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("service: failed to update staff member: %w", err)
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete staff member: %w", err)
	}
	return nil
}

func (s *service) Authenticate(ctx context.Context, pin string) (*User, error) {
	if !s.validPIN(pin) {
		return nil, ErrInvalidPIN
	}

	users, err := s.repo.List(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("service: failed to load staff for login: %w", err)
	}
	for i := range users {
		if bcrypt.CompareHashAndPassword([]byte(users[i].PinHash), []byte(pin)) == nil {
			log.Info().Stringer("user_id", users[i].ID).Msg("service: staff member authenticated")
			return &users[i], nil
		}
	}

	log.Warn().Msg("service: login attempt with unknown PIN")
	return nil, ErrInvalidPIN
}
