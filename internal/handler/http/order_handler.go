package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
)

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(s order.Service) *OrderHandler {
	return &OrderHandler{service: s, validate: newValidator()}
}

type orderItemRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1,max=99"`
	Notes      string    `json:"notes" validate:"max=255"`
}

type createOrderRequest struct {
	TableID    uuid.UUID          `json:"table_id" validate:"required"`
	CustomerID *uuid.UUID         `json:"customer_id"`
	ServerID   *uuid.UUID         `json:"server_id"`
	Items      []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount   decimal.Decimal    `json:"discount" validate:"gte=0"`
	Notes      string             `json:"notes" validate:"max=500"`
}

type previewRequest struct {
	Items    []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount decimal.Decimal    `json:"discount" validate:"gte=0"`
	Tip      decimal.Decimal    `json:"tip" validate:"gte=0"`
}

type updateOrderRequest struct {
	Status        *order.Status        `json:"status" validate:"omitempty,oneof=pending preparing ready served paid cancelled"`
	Discount      *decimal.Decimal     `json:"discount" validate:"omitempty,gte=0"`
	Tip           *decimal.Decimal     `json:"tip" validate:"omitempty,gte=0"`
	PaymentMethod *order.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=cash card digital"`
	CashTendered  *decimal.Decimal     `json:"cash_tendered" validate:"omitempty,gte=0"`
	Notes         *string              `json:"notes" validate:"omitempty,max=500"`
	Version       *int                 `json:"version" validate:"omitempty,min=1"`
}

type addItemsRequest struct {
	Items   []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Version *int               `json:"version" validate:"omitempty,min=1"`
}

type itemStatusRequest struct {
	Status order.ItemStatus `json:"status" validate:"required,oneof=pending preparing ready served"`
}

type paymentRequest struct {
	Method       order.PaymentMethod `json:"method" validate:"required,oneof=cash card digital"`
	Discount     *decimal.Decimal    `json:"discount" validate:"omitempty,gte=0"`
	Tip          *decimal.Decimal    `json:"tip" validate:"omitempty,gte=0"`
	CashTendered *decimal.Decimal    `json:"cash_tendered" validate:"omitempty,gte=0"`
	Version      *int                `json:"version" validate:"omitempty,min=1"`
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Post("/preview", h.previewOrder)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Patch("/", h.updateOrder)
			r.Post("/items", h.addItems)
			r.Patch("/items/{itemID}/status", h.advanceItem)
			r.Post("/payments", h.recordPayment)
			r.Post("/cancel", h.cancelOrder)
		})
	})
}

func toItemInputs(reqs []orderItemRequest) []order.ItemInput {
	items := make([]order.ItemInput, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, order.ItemInput{MenuItemID: it.MenuItemID, Quantity: it.Quantity, Notes: it.Notes})
	}
	return items
}

func sessionStaffID(r *http.Request) uuid.NullUUID {
	if sess, ok := auth.FromContext(r.Context()); ok {
		return uuid.NullUUID{UUID: sess.UserID, Valid: true}
	}
	return uuid.NullUUID{}
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	in := order.SubmitOrderInput{
		TableID:    req.TableID,
		CustomerID: req.CustomerID,
		Items:      toItemInputs(req.Items),
		Discount:   req.Discount,
		Notes:      req.Notes,
	}
	if req.ServerID != nil {
		in.ServerID = *req.ServerID
	} else if staff := sessionStaffID(r); staff.Valid {
		in.ServerID = staff.UUID
	}

	created, err := h.service.SubmitOrder(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}
	log.Info().Stringer("order_id", created.ID).Stringer("table_id", created.TableID).Msg("Order created via HTTP")
	respondWithJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *OrderHandler) previewOrder(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	cart, totals, err := h.service.Preview(r.Context(), toItemInputs(req.Items), req.Discount, req.Tip)
	if err != nil {
		respondWithServiceError(w, err, "Failed to price order")
		return
	}
	respondWithJSON(w, http.StatusOK, toPreviewResponse(cart, totals))
}

func parseOrderFilter(r *http.Request) (order.ListFilter, error) {
	var f order.ListFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := order.Status(strings.TrimSpace(s))
			if !status.Valid() {
				return f, apperror.Invalid("status", "unknown order status "+strconv.Quote(string(status)))
			}
			f.Statuses = append(f.Statuses, status)
		}
	}

	var err error
	if f.TableID, err = queryUUID(r, "table_id"); err != nil {
		return f, err
	}
	if f.ServerID, err = queryUUID(r, "server_id"); err != nil {
		return f, err
	}
	if f.From, err = queryTime(r, "from", false); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "to", true); err != nil {
		return f, err
	}
	if f.ActiveOnly, err = queryBool(r, "active"); err != nil {
		return f, err
	}
	if raw := q.Get("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 1 {
			return f, apperror.Invalid("limit", "must be a positive integer")
		}
		f.Limit = limit
	}
	return f, nil
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		respondWithServiceError(w, err, "Invalid order filter")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateOrder(r.Context(), order.UpdateOrderInput{
		ID:            id,
		Status:        req.Status,
		Discount:      req.Discount,
		Tip:           req.Tip,
		PaymentMethod: req.PaymentMethod,
		CashTendered:  req.CashTendered,
		Notes:         req.Notes,
		Version:       req.Version,
		StaffID:       sessionStaffID(r),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *OrderHandler) addItems(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req addItemsRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.AddItems(r.Context(), id, toItemInputs(req.Items), req.Version)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add items to order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *OrderHandler) advanceItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemID")
	if !ok {
		return
	}
	var req itemStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.AdvanceItemStatus(r.Context(), id, itemID, req.Status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update item status")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *OrderHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.service.RecordPayment(r.Context(), order.PaymentInput{
		OrderID:      id,
		Method:       req.Method,
		Discount:     req.Discount,
		Tip:          req.Tip,
		CashTendered: req.CashTendered,
		StaffID:      sessionStaffID(r),
		Version:      req.Version,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to record payment")
		return
	}
	log.Info().Stringer("order_id", id).Str("method", string(req.Method)).Msg("Payment recorded via HTTP")
	respondWithJSON(w, http.StatusOK, toPaymentResponse(res))
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	version, err := queryVersion(r)
	if err != nil {
		respondWithServiceError(w, err, "Invalid version")
		return
	}

	cancelled, err := h.service.CancelOrder(r.Context(), id, version)
	if err != nil {
		respondWithServiceError(w, err, "Failed to cancel order")
		return
	}
	respondWithJSON(w, http.StatusOK, toOrderResponse(cancelled))
}

// queryVersion reads the optional ?version= guard used by body-less writes.
func queryVersion(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, apperror.Invalid("version", "must be a positive integer")
	}
	return &v, nil
}
