package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
)

type MenuHandler struct {
	service  menu.Service
	validate *validator.Validate
}

func NewMenuHandler(s menu.Service) *MenuHandler {
	return &MenuHandler{service: s, validate: newValidator()}
}

type categoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Icon      string `json:"icon" validate:"max=50"`
	Color     string `json:"color" validate:"max=20"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type menuItemRequest struct {
	Name            string            `json:"name" validate:"required,max=200"`
	Description     string            `json:"description" validate:"max=1000"`
	Price           decimal.Decimal   `json:"price" validate:"gte=0"`
	CategoryID      *uuid.UUID        `json:"category_id"`
	Image           string            `json:"image" validate:"max=500"`
	Availability    menu.Availability `json:"availability" validate:"omitempty,oneof=available unavailable limited"`
	PreparationTime int               `json:"preparation_time" validate:"gte=0"`
	Ingredients     []string          `json:"ingredients" validate:"omitempty,dive,required,max=100"`
}

func (req menuItemRequest) toItem(id uuid.UUID) *menu.Item {
	item := &menu.Item{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Image:           req.Image,
		Availability:    req.Availability,
		PreparationTime: req.PreparationTime,
		Ingredients:     req.Ingredients,
	}
	if item.Availability == "" {
		item.Availability = menu.Available
	}
	if req.CategoryID != nil {
		item.CategoryID = uuid.NullUUID{UUID: *req.CategoryID, Valid: true}
	}
	return item
}

func (h *MenuHandler) RegisterRoutes(router chi.Router) {
	router.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Get("/{id}", h.getCategory)
		r.Put("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	router.Route("/menu", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
	})
}

func (h *MenuHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *MenuHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateCategory(r.Context(), &menu.Category{
		Name: req.Name, Icon: req.Icon, Color: req.Color, SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create category")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *MenuHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get category")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *MenuHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateCategory(r.Context(), &menu.Category{
		ID: id, Name: req.Name, Icon: req.Icon, Color: req.Color, SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update category")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *MenuHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MenuHandler) listItems(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryUUID(r, "category_id")
	if err != nil {
		respondWithServiceError(w, err, "Invalid menu filter")
		return
	}
	availability := menu.Availability(r.URL.Query().Get("availability"))
	if availability != "" && !availability.Valid() {
		respondWithServiceError(w, apperror.Invalid("availability", "must be one of available, unavailable, limited"), "Invalid menu filter")
		return
	}

	items, err := h.service.ListItems(r.Context(), menu.ItemFilter{
		CategoryID:   categoryID,
		Availability: availability,
		Search:       r.URL.Query().Get("search"),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list menu items")
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toMenuItemResponse(&items[i]))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *MenuHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateItem(r.Context(), req.toItem(uuid.Nil))
	if err != nil {
		respondWithServiceError(w, err, "Failed to create menu item")
		return
	}
	respondWithJSON(w, http.StatusCreated, toMenuItemResponse(created))
}

func (h *MenuHandler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get menu item")
		return
	}
	respondWithJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req menuItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateItem(r.Context(), req.toItem(id))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update menu item")
		return
	}
	respondWithJSON(w, http.StatusOK, toMenuItemResponse(updated))
}

func (h *MenuHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete menu item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
