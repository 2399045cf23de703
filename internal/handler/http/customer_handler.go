package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/customer"
)

type CustomerHandler struct {
	service  customer.Service
	validate *validator.Validate
}

func NewCustomerHandler(s customer.Service) *CustomerHandler {
	return &CustomerHandler{service: s, validate: newValidator()}
}

type customerRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone string  `json:"phone" validate:"max=50"`
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
}

func (h *CustomerHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	sortBy := customer.SortBy(r.URL.Query().Get("sort"))
	switch sortBy {
	case "", customer.SortByName, customer.SortBySpent, customer.SortByVisits, customer.SortByPoints:
	default:
		respondWithServiceError(w, apperror.Invalid("sort", "must be one of name, spent, visits, points"), "Invalid customer filter")
		return
	}

	customers, err := h.service.List(r.Context(), customer.ListFilter{
		Search: r.URL.Query().Get("search"),
		SortBy: sortBy,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list customers")
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for i := range customers {
		resp = append(resp, toCustomerResponse(&customers[i]))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *CustomerHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), &customer.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create customer")
		return
	}
	respondWithJSON(w, http.StatusCreated, toCustomerResponse(created))
}

func (h *CustomerHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer")
		return
	}
	respondWithJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *CustomerHandler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req customerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), &customer.Customer{ID: id, Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update customer")
		return
	}
	respondWithJSON(w, http.StatusOK, toCustomerResponse(updated))
}

func (h *CustomerHandler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
