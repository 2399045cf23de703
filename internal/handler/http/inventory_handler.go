package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
)

type InventoryHandler struct {
	service  inventory.Service
	validate *validator.Validate
}

func NewInventoryHandler(s inventory.Service) *InventoryHandler {
	return &InventoryHandler{service: s, validate: newValidator()}
}

type inventoryRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Category    string          `json:"category" validate:"max=100"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gte=0"`
	Unit        string          `json:"unit" validate:"max=20"`
	MinStock    decimal.Decimal `json:"min_stock" validate:"gte=0"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit" validate:"gte=0"`
	Supplier    string          `json:"supplier" validate:"max=200"`
}

func (req inventoryRequest) toItem(id uuid.UUID) *inventory.Item {
	return &inventory.Item{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		MinStock:    req.MinStock,
		CostPerUnit: req.CostPerUnit,
		Supplier:    req.Supplier,
	}
}

type restockRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
}

func (h *InventoryHandler) RegisterRoutes(router chi.Router) {
	router.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
		r.Post("/{id}/restock", h.restock)
	})
}

func (h *InventoryHandler) listItems(w http.ResponseWriter, r *http.Request) {
	lowStock, err := queryBool(r, "low_stock")
	if err != nil {
		respondWithServiceError(w, err, "Invalid inventory filter")
		return
	}

	items, err := h.service.List(r.Context(), inventory.ListFilter{
		Category: r.URL.Query().Get("category"),
		LowStock: lowStock,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list inventory")
		return
	}

	resp := make([]inventoryResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toInventoryResponse(&items[i]))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), req.toItem(uuid.Nil))
	if err != nil {
		respondWithServiceError(w, err, "Failed to create inventory item")
		return
	}
	respondWithJSON(w, http.StatusCreated, toInventoryResponse(created))
}

func (h *InventoryHandler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get inventory item")
		return
	}
	respondWithJSON(w, http.StatusOK, toInventoryResponse(item))
}

func (h *InventoryHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req inventoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), req.toItem(id))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update inventory item")
		return
	}
	respondWithJSON(w, http.StatusOK, toInventoryResponse(updated))
}

func (h *InventoryHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete inventory item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) restock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req restockRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	item, err := h.service.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to restock inventory item")
		return
	}
	respondWithJSON(w, http.StatusOK, toInventoryResponse(item))
}
