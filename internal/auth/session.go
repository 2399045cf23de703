package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/staff"
)

var ErrInvalidSession = apperror.New(apperror.ErrUnauthorized, "session is missing or expired")

type Session struct {
	Token     string     `json:"token"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	Role      staff.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Authenticator resolves a PIN to a staff member.
type Authenticator interface {
	Authenticate(ctx context.Context, pin string) (*staff.User, error)
}

type Service interface {
	Login(ctx context.Context, pin string) (*Session, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*Session, error)
}

type RedisSessionService struct {
	client *redis.Client
	staff  Authenticator
	ttl    time.Duration
}

func NewRedisSessionService(client *redis.Client, staff Authenticator, ttl time.Duration) *RedisSessionService {
	return &RedisSessionService{client: client, staff: staff, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (s *RedisSessionService) Login(ctx context.Context, pin string) (*Session, error) {
	user, err := s.staff.Authenticate(ctx, pin)
	if err != nil {
		return nil, err
	}

	token, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("auth: failed to generate token: %w", err)
	}

	now := time.Now().UTC()
	sess := &Session{
		Token:     token.String(),
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.Token), raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("auth: failed to store session: %w", err)
	}

	log.Info().Stringer("user_id", user.ID).Msg("auth: session opened")
	return sess, nil
}

func (s *RedisSessionService) Logout(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("auth: failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionService) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	raw, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("auth: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("auth: failed to decode session: %w", err)
	}
	return &sess, nil
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
