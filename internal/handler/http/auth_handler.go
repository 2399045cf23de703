package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
)

type AuthHandler struct {
	sessions auth.Service
	validate *validator.Validate
}

func NewAuthHandler(sessions auth.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions, validate: newValidator()}
}

type loginRequest struct {
	PIN string `json:"pin" validate:"required,number,min=4,max=6"`
}

// RegisterPublicRoutes mounts the routes reachable without a session.
func (h *AuthHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/auth/login", h.login)
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/logout", h.logout)
	router.Get("/auth/me", h.me)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.PIN)
	if err != nil {
		respondWithServiceError(w, err, "Failed to log in")
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), bearerToken(r)); err != nil {
		respondWithServiceError(w, err, "Failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing session token")
		return
	}
	respondWithJSON(w, http.StatusOK, sess)
}
