package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/staff"
)

type StaffHandler struct {
	service  staff.Service
	validate *validator.Validate
}

func NewStaffHandler(s staff.Service) *StaffHandler {
	return &StaffHandler{service: s, validate: newValidator()}
}

type createStaffRequest struct {
	Name   string     `json:"name" validate:"required,max=200"`
	Email  string     `json:"email" validate:"required,email"`
	Role   staff.Role `json:"role" validate:"required,oneof=admin waiter kitchen cashier"`
	PIN    string     `json:"pin" validate:"required,number,min=4,max=6"`
	Avatar string     `json:"avatar" validate:"max=500"`
}

type updateStaffRequest struct {
	Name   *string     `json:"name" validate:"omitempty,min=1,max=200"`
	Email  *string     `json:"email" validate:"omitempty,email"`
	Role   *staff.Role `json:"role" validate:"omitempty,oneof=admin waiter kitchen cashier"`
	PIN    *string     `json:"pin" validate:"omitempty,number,min=4,max=6"`
	Avatar *string     `json:"avatar" validate:"omitempty,max=500"`
	Active *bool       `json:"active"`
}

func (h *StaffHandler) RegisterRoutes(router chi.Router) {
	router.Route("/staff", func(r chi.Router) {
		r.Get("/", h.listStaff)
		r.Post("/", h.createStaff)
		r.Get("/{id}", h.getStaff)
		r.Patch("/{id}", h.updateStaff)
		r.Delete("/{id}", h.deleteStaff)
	})
}

func (h *StaffHandler) listStaff(w http.ResponseWriter, r *http.Request) {
	role := staff.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		respondWithServiceError(w, apperror.Invalid("role", "must be one of admin, waiter, kitchen, cashier"), "Invalid staff filter")
		return
	}
	activeOnly, err := queryBool(r, "active")
	if err != nil {
		respondWithServiceError(w, err, "Invalid staff filter")
		return
	}

	users, err := h.service.List(r.Context(), staff.ListFilter{Role: role, ActiveOnly: activeOnly})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list staff")
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *StaffHandler) createStaff(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), staff.CreateInput{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		PIN:    req.PIN,
		Avatar: req.Avatar,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create staff member")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *StaffHandler) getStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get staff member")
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *StaffHandler) updateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req updateStaffRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), staff.UpdateInput{
		ID:     id,
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		PIN:    req.PIN,
		Avatar: req.Avatar,
		Active: req.Active,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update staff member")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *StaffHandler) deleteStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete staff member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
