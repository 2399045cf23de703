package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

type TableHandler struct {
	service  table.Service
	validate *validator.Validate
}

func NewTableHandler(s table.Service) *TableHandler {
	return &TableHandler{service: s, validate: newValidator()}
}

type createTableRequest struct {
	Number    string `json:"number" validate:"required,max=20"`
	Capacity  int    `json:"capacity" validate:"required,min=1,max=50"`
	PositionX int    `json:"position_x" validate:"gte=0"`
	PositionY int    `json:"position_y" validate:"gte=0"`
}

type updateTableRequest struct {
	Number    *string `json:"number" validate:"omitempty,min=1,max=20"`
	Capacity  *int    `json:"capacity" validate:"omitempty,min=1,max=50"`
	PositionX *int    `json:"position_x" validate:"omitempty,gte=0"`
	PositionY *int    `json:"position_y" validate:"omitempty,gte=0"`
	Version   *int    `json:"version" validate:"omitempty,min=1"`
}

type tableStatusRequest struct {
	Status  table.Status `json:"status" validate:"required,oneof=available occupied reserved cleaning"`
	Version *int         `json:"version" validate:"omitempty,min=1"`
}

func (h *TableHandler) RegisterRoutes(router chi.Router) {
	router.Route("/tables", func(r chi.Router) {
		r.Get("/", h.listTables)
		r.Post("/", h.createTable)
		r.Get("/{id}", h.getTable)
		r.Patch("/{id}", h.updateTable)
		r.Patch("/{id}/status", h.setStatus)
		r.Delete("/{id}", h.deleteTable)
	})
}

func (h *TableHandler) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), &table.Table{
		Number:    req.Number,
		Capacity:  req.Capacity,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create table")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *TableHandler) listTables(w http.ResponseWriter, r *http.Request) {
	status := table.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondWithServiceError(w, apperror.Invalid("status", "must be one of available, occupied, reserved, cleaning"), "Invalid table filter")
		return
	}

	tables, err := h.service.List(r.Context(), table.ListFilter{Status: status})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list tables")
		return
	}
	respondWithJSON(w, http.StatusOK, tables)
}

func (h *TableHandler) getTable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get table")
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

func (h *TableHandler) updateTable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req updateTableRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), table.UpdateInput{
		ID:        id,
		Number:    req.Number,
		Capacity:  req.Capacity,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
		Version:   req.Version,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update table")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *TableHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req tableStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.SetStatus(r.Context(), id, req.Status, req.Version)
	if err != nil {
		respondWithServiceError(w, err, "Failed to change table status")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *TableHandler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete table")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
