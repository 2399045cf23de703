package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
	posHTTP "github.com/vasiliy-maslov/restaurant-pos/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
	"github.com/vasiliy-maslov/restaurant-pos/internal/staff"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Login(ctx context.Context, pin string) (*auth.Session, error) {
	args := m.Called(ctx, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessionService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockSessionService) Resolve(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func TestRequireSession(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	sess := &auth.Session{Token: "good", UserID: userID, Name: "Sam", Role: staff.RoleCashier, ExpiresAt: time.Now().Add(time.Hour)}

	testCases := []struct {
		name       string
		header     string
		setup      func(m *MockSessionService)
		wantStatus int
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			header:     "Basic Zm9vOmJhcg==",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "expired session",
			header: "Bearer stale",
			setup: func(m *MockSessionService) {
				m.On("Resolve", mock.Anything, "stale").Return(nil, auth.ErrInvalidSession).Once()
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "store failure",
			header: "Bearer good",
			setup: func(m *MockSessionService) {
				m.On("Resolve", mock.Anything, "good").Return(nil, errors.New("redis: connection refused")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "valid session",
			header: "Bearer good",
			setup: func(m *MockSessionService) {
				m.On("Resolve", mock.Anything, "good").Return(sess, nil).Once()
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := new(MockSessionService)
			if tc.setup != nil {
				tc.setup(sessions)
			}

			var seen *auth.Session
			router := chi.NewRouter()
			router.Use(posHTTP.RequireSession(sessions))
			router.Get("/", func(w http.ResponseWriter, r *http.Request) {
				seen, _ = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, userID, seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
			sessions.AssertExpectations(t)
		})
	}
}

func TestNewRouter_HealthAndAuthBoundary(t *testing.T) {
	sessions := new(MockSessionService)
	orders := new(MockOrderService)
	healthy := true

	router := posHTTP.NewRouter(posHTTP.Services{
		Auth:   sessions,
		Orders: orders,
		Health: func(ctx context.Context) error {
			if !healthy {
				return errors.New("db down")
			}
			return nil
		},
	}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeBody(t, rr)["status"])

	healthy = false
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)

	sess := &auth.Session{Token: "tok", UserID: uuid.Must(uuid.NewV4()), Role: staff.RoleWaiter}
	sessions.On("Resolve", mock.Anything, "tok").Return(sess, nil).Once()
	orders.On("ListOrders", mock.Anything, mock.Anything).Return([]order.Order{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	sessions.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestAuthHandler_login(t *testing.T) {
	sessions := new(MockSessionService)
	router := posHTTP.NewRouter(posHTTP.Services{Auth: sessions}, []string{"http://localhost:3000"})

	for _, pin := range []string{"12ab", "12.5", "-1234"} {
		t.Run("bad pin format "+pin, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"pin":"`+pin+`"}`)))
			require.Equal(t, http.StatusBadRequest, rr.Code)
			var resp posHTTP.ValidationErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "must contain only digits", resp.Details["pin"])
		})
	}

	t.Run("wrong pin", func(t *testing.T) {
		sessions.On("Login", mock.Anything, "0000").Return(nil, staff.ErrInvalidPIN).Once()
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"pin":"0000"}`)))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid PIN", decodeBody(t, rr)["error"])
	})

	t.Run("success", func(t *testing.T) {
		sess := &auth.Session{Token: "abc", UserID: uuid.Must(uuid.NewV4()), Name: "Robin", Role: staff.RoleAdmin}
		sessions.On("Login", mock.Anything, "1234").Return(sess, nil).Once()
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"pin":"1234"}`)))
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody(t, rr)
		assert.Equal(t, "abc", resp["token"])
		assert.Equal(t, "admin", resp["role"])
	})

	sessions.AssertExpectations(t)
}
