package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
	posHTTP "github.com/vasiliy-maslov/restaurant-pos/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
	"github.com/vasiliy-maslov/restaurant-pos/internal/staff"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) SubmitOrder(ctx context.Context, in order.SubmitOrderInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Preview(ctx context.Context, items []order.ItemInput, discount, tip decimal.Decimal) (*order.Cart, pricing.Totals, error) {
	args := m.Called(ctx, items, discount, tip)
	if args.Get(0) == nil {
		return nil, pricing.Totals{}, args.Error(2)
	}
	return args.Get(0).(*order.Cart), args.Get(1).(pricing.Totals), args.Error(2)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) AddItems(ctx context.Context, orderID uuid.UUID, items []order.ItemInput, version *int) (*order.Order, error) {
	args := m.Called(ctx, orderID, items, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) AdvanceItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status order.ItemStatus) (*order.Order, error) {
	args := m.Called(ctx, orderID, itemID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, in order.UpdateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) RecordPayment(ctx context.Context, in order.PaymentInput) (*order.PaymentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PaymentResult), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id uuid.UUID, version *int) (*order.Order, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newOrderRouter(svc order.Service) chi.Router {
	router := chi.NewRouter()
	posHTTP.NewOrderHandler(svc).RegisterRoutes(router)
	return router
}

func sampleOrder(status order.Status) *order.Order {
	now := time.Now().UTC().Truncate(time.Second)
	o := &order.Order{
		ID:       uuid.Must(uuid.NewV4()),
		TableID:  uuid.Must(uuid.NewV4()),
		ServerID: uuid.Must(uuid.NewV4()),
		Status:   status,
		Items: []order.Item{{
			ID:         uuid.Must(uuid.NewV4()),
			MenuItemID: uuid.Must(uuid.NewV4()),
			Name:       "Caesar Salad",
			Quantity:   2,
			Price:      dec("12.5"),
			Status:     order.ItemPending,
		}},
		Version:     1,
		TableNumber: "T4",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.Reprice(pricing.DefaultTaxRate)
	return o
}

func withSession(req *http.Request, userID uuid.UUID) *http.Request {
	sess := &auth.Session{Token: "tok", UserID: userID, Name: "Alex", Role: staff.RoleWaiter}
	return req.WithContext(auth.WithSession(req.Context(), sess))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body), "Failed to decode response body")
	return body
}

func TestOrderHandler_createOrder_Success(t *testing.T) {
	mockService := new(MockOrderService)
	created := sampleOrder(order.StatusPending)
	serverID := uuid.Must(uuid.NewV4())
	menuItemID := created.Items[0].MenuItemID

	mockService.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(in order.SubmitOrderInput) bool {
		return in.TableID == created.TableID &&
			in.ServerID == serverID &&
			len(in.Items) == 1 &&
			in.Items[0].MenuItemID == menuItemID &&
			in.Items[0].Quantity == 2 &&
			in.Discount.IsZero()
	})).Return(created, nil).Once()

	body := fmt.Sprintf(`{"table_id":%q,"items":[{"menu_item_id":%q,"quantity":2}]}`, created.TableID, menuItemID)
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req = withSession(req, serverID)
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, created.ID.String(), resp["id"])
	assert.Equal(t, "25.00", resp["subtotal"])
	assert.Equal(t, "2.00", resp["tax"])
	assert.Equal(t, "27.00", resp["total"])
	assert.Equal(t, "T4", resp["table_number"])
	items := resp["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "25.00", items[0].(map[string]interface{})["line_total"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_createOrder_ValidationFailed(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{
			name:  "missing items",
			body:  fmt.Sprintf(`{"table_id":%q}`, uuid.Must(uuid.NewV4())),
			field: "items",
			msg:   "is required",
		},
		{
			name:  "negative discount",
			body:  fmt.Sprintf(`{"table_id":%q,"discount":-5,"items":[{"menu_item_id":%q,"quantity":1}]}`, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())),
			field: "discount",
			msg:   "must be greater than or equal to 0",
		},
		{
			name:  "zero quantity",
			body:  fmt.Sprintf(`{"table_id":%q,"items":[{"menu_item_id":%q,"quantity":0}]}`, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())),
			field: "quantity",
			msg:   "is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			newOrderRouter(mockService).ServeHTTP(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			var resp posHTTP.ValidationErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "Validation failed", resp.Error)
			assert.Equal(t, tc.msg, resp.Details[tc.field])
			mockService.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderHandler_createOrder_UnknownField(t *testing.T) {
	mockService := new(MockOrderService)
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"table":"x"}`))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "Invalid request payload")
}

func TestOrderHandler_createOrder_TableOccupied(t *testing.T) {
	mockService := new(MockOrderService)
	mockService.On("SubmitOrder", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("service: failed to create order: %w", table.ErrTableOccupied)).Once()

	body := fmt.Sprintf(`{"table_id":%q,"server_id":%q,"items":[{"menu_item_id":%q,"quantity":1}]}`,
		uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()))
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "table already has an active order", decodeBody(t, rr)["error"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_previewOrder(t *testing.T) {
	mockService := new(MockOrderService)
	menuItemID := uuid.Must(uuid.NewV4())
	cart := &order.Cart{Lines: []order.CartLine{{MenuItemID: menuItemID, Name: "Burger", UnitPrice: dec("11.5"), Quantity: 2}}}
	totals := pricing.Calculate([]pricing.Line{{UnitPrice: dec("11.5"), Quantity: 2}}, decimal.Zero, decimal.Zero, pricing.DefaultTaxRate)

	mockService.On("Preview", mock.Anything, []order.ItemInput{{MenuItemID: menuItemID, Quantity: 2}}, mock.Anything, mock.Anything).
		Return(cart, totals, nil).Once()

	body := fmt.Sprintf(`{"items":[{"menu_item_id":%q,"quantity":2}]}`, menuItemID)
	req := httptest.NewRequest(http.MethodPost, "/orders/preview", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	got := resp["totals"].(map[string]interface{})
	assert.Equal(t, "23.00", got["subtotal"])
	assert.Equal(t, "1.84", got["tax"])
	assert.Equal(t, "24.84", got["total"])
	assert.Equal(t, "11.50", resp["lines"].([]interface{})[0].(map[string]interface{})["unit_price"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_getOrder(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		mockService := new(MockOrderService)
		req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
		rr := httptest.NewRecorder()

		newOrderRouter(mockService).ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid id parameter", decodeBody(t, rr)["error"])
	})

	t.Run("not found", func(t *testing.T) {
		mockService := new(MockOrderService)
		id := uuid.Must(uuid.NewV4())
		mockService.On("GetOrder", mock.Anything, id).Return(nil, order.ErrOrderNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/orders/"+id.String(), nil)
		rr := httptest.NewRecorder()

		newOrderRouter(mockService).ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "order not found", decodeBody(t, rr)["error"])
	})

	t.Run("internal error hides details", func(t *testing.T) {
		mockService := new(MockOrderService)
		id := uuid.Must(uuid.NewV4())
		mockService.On("GetOrder", mock.Anything, id).Return(nil, fmt.Errorf("repository: dial tcp: refused")).Once()

		req := httptest.NewRequest(http.MethodGet, "/orders/"+id.String(), nil)
		rr := httptest.NewRecorder()

		newOrderRouter(mockService).ServeHTTP(rr, req)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Failed to get order", decodeBody(t, rr)["error"])
	})
}

func TestOrderHandler_listOrders_Filters(t *testing.T) {
	mockService := new(MockOrderService)
	tableID := uuid.Must(uuid.NewV4())

	mockService.On("ListOrders", mock.Anything, mock.MatchedBy(func(f order.ListFilter) bool {
		return len(f.Statuses) == 2 &&
			f.Statuses[0] == order.StatusPending &&
			f.Statuses[1] == order.StatusReady &&
			f.TableID != nil && *f.TableID == tableID &&
			f.ActiveOnly &&
			f.Limit == 20
	})).Return([]order.Order{*sampleOrder(order.StatusPending)}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/orders?status=pending,ready&table_id="+tableID.String()+"&active=true&limit=20", nil)
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp, 1)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_listOrders_BadStatus(t *testing.T) {
	mockService := new(MockOrderService)
	req := httptest.NewRequest(http.MethodGet, "/orders?status=lost", nil)
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "status")
	mockService.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestOrderHandler_updateOrder_VersionConflict(t *testing.T) {
	mockService := new(MockOrderService)
	id := uuid.Must(uuid.NewV4())
	staffID := uuid.Must(uuid.NewV4())

	mockService.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(in order.UpdateOrderInput) bool {
		return in.ID == id &&
			in.Status != nil && *in.Status == order.StatusServed &&
			in.Version != nil && *in.Version == 2 &&
			in.StaffID.Valid && in.StaffID.UUID == staffID
	})).Return(nil, fmt.Errorf("service: failed to update order: %w", order.ErrVersionConflict)).Once()

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+id.String(), strings.NewReader(`{"status":"served","version":2}`))
	req = withSession(req, staffID)
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "modified by another request")
	mockService.AssertExpectations(t)
}

func TestOrderHandler_updateOrder_InvalidTransition(t *testing.T) {
	mockService := new(MockOrderService)
	id := uuid.Must(uuid.NewV4())
	mockService.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil, order.ErrInvalidTransition).Once()

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+id.String(), strings.NewReader(`{"status":"pending"}`))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "invalid order status transition", decodeBody(t, rr)["error"])
}

func TestOrderHandler_advanceItem(t *testing.T) {
	mockService := new(MockOrderService)
	o := sampleOrder(order.StatusPreparing)
	itemID := o.Items[0].ID
	o.Items[0].Status = order.ItemPreparing

	mockService.On("AdvanceItemStatus", mock.Anything, o.ID, itemID, order.ItemPreparing).Return(o, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+o.ID.String()+"/items/"+itemID.String()+"/status", strings.NewReader(`{"status":"preparing"}`))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "preparing", decodeBody(t, rr)["status"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_recordPayment_Cash(t *testing.T) {
	mockService := new(MockOrderService)
	paid := sampleOrder(order.StatusPaid)
	paid.Tip = dec("3")
	paid.Reprice(pricing.DefaultTaxRate)
	method := order.PaymentCash
	paid.PaymentMethod = &method
	rc := &receipt.Receipt{
		ID:             uuid.Must(uuid.NewV4()),
		OrderID:        paid.ID,
		Total:          paid.Total,
		PaymentMethod:  "cash",
		AmountTendered: decimal.NewNullDecimal(dec("40")),
		ChangeDue:      dec("10"),
	}

	mockService.On("RecordPayment", mock.Anything, mock.MatchedBy(func(in order.PaymentInput) bool {
		return in.OrderID == paid.ID &&
			in.Method == order.PaymentCash &&
			in.Tip != nil && in.Tip.Equal(dec("3")) &&
			in.CashTendered != nil && in.CashTendered.Equal(dec("40"))
	})).Return(&order.PaymentResult{Order: paid, Receipt: rc, Change: dec("10")}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/orders/"+paid.ID.String()+"/payments",
		strings.NewReader(`{"method":"cash","tip":"3.00","cash_tendered":40}`))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "10.00", resp["change"])
	assert.Equal(t, "30.00", resp["order"].(map[string]interface{})["total"])
	assert.Equal(t, "40.00", resp["receipt"].(map[string]interface{})["amount_tendered"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_recordPayment_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "insufficient cash",
			body:       `{"method":"cash","cash_tendered":5}`,
			serviceErr: fmt.Errorf("service: %w", order.ErrInsufficientPayment),
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "cash tendered is less than the total due",
		},
		{
			name:       "not payable",
			body:       `{"method":"card"}`,
			serviceErr: order.ErrNotPayable,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "order must be ready or served to accept payment",
		},
		{
			name:       "unknown method rejected before service",
			body:       `{"method":"cheque"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			id := uuid.Must(uuid.NewV4())
			if tc.serviceErr != nil {
				mockService.On("RecordPayment", mock.Anything, mock.Anything).Return(nil, tc.serviceErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/orders/"+id.String()+"/payments", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			newOrderRouter(mockService).ServeHTTP(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantError, decodeBody(t, rr)["error"])
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_cancelOrder(t *testing.T) {
	mockService := new(MockOrderService)
	cancelled := sampleOrder(order.StatusCancelled)
	version := 4

	mockService.On("CancelOrder", mock.Anything, cancelled.ID, &version).Return(cancelled, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/orders/"+cancelled.ID.String()+"/cancel?version=4", nil)
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cancelled", decodeBody(t, rr)["status"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_addItems(t *testing.T) {
	mockService := new(MockOrderService)
	o := sampleOrder(order.StatusPending)
	menuItemID := uuid.Must(uuid.NewV4())

	mockService.On("AddItems", mock.Anything, o.ID, []order.ItemInput{{MenuItemID: menuItemID, Quantity: 1, Notes: "no onions"}}, (*int)(nil)).
		Return(o, nil).Once()

	body := fmt.Sprintf(`{"items":[{"menu_item_id":%q,"quantity":1,"notes":"no onions"}]}`, menuItemID)
	req := httptest.NewRequest(http.MethodPost, "/orders/"+o.ID.String()+"/items", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newOrderRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}
