package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	posHTTP "github.com/vasiliy-maslov/restaurant-pos/internal/handler/http"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
	"github.com/vasiliy-maslov/restaurant-pos/internal/report"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Sales(ctx context.Context, q report.Query) (*report.Sales, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Sales), args.Error(1)
}

func (m *MockReportService) Dashboard(ctx context.Context, day time.Time) (*report.Dashboard, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Dashboard), args.Error(1)
}

type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) Get(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *MockReceiptService) List(ctx context.Context, f receipt.ListFilter) ([]receipt.Receipt, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]receipt.Receipt), args.Error(1)
}

func (m *MockReceiptService) QRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockReceiptService) MarkEmailed(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func TestReportHandler_sales(t *testing.T) {
	mockService := new(MockReportService)
	sales := &report.Sales{
		Summary: report.Summary{
			TotalSales:    dec("57"),
			TotalOrders:   3,
			AvgOrderValue: dec("19"),
			TotalTax:      dec("4"),
			TotalTips:     dec("3"),
		},
		SalesData:          []report.Bucket{{Name: "Mar 1", Sales: dec("46.2"), Orders: 2}},
		TopItems:           []report.ItemSales{{Name: "Salad", Quantity: 4, Revenue: dec("40")}},
		PaymentMethods:     []report.MethodTotal{{Name: "Cash", Value: dec("35.4")}},
		HourlyDistribution: []report.HourTotal{{Hour: "9:00", Sales: decimal.Zero}},
	}

	mockService.On("Sales", mock.Anything, mock.MatchedBy(func(q report.Query) bool {
		return q.Period == report.PeriodWeekly &&
			q.Start != nil && q.Start.Format("2006-01-02") == "2024-03-01" &&
			q.End != nil && q.End.Format("2006-01-02") == "2024-03-08"
	})).Return(sales, nil).Once()

	router := chi.NewRouter()
	posHTTP.NewReportHandler(mockService).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/reports/sales?period=weekly&start_date=2024-03-01&end_date=2024-03-07", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	summary := resp["summary"].(map[string]interface{})
	assert.Equal(t, "57.00", summary["total_sales"])
	assert.Equal(t, "19.00", summary["avg_order_value"])
	assert.EqualValues(t, 3, summary["total_orders"])
	assert.Equal(t, "46.20", resp["sales_data"].([]interface{})[0].(map[string]interface{})["sales"])
	assert.Equal(t, "35.40", resp["payment_methods"].([]interface{})[0].(map[string]interface{})["value"])
	assert.Equal(t, "0.00", resp["hourly_distribution"].([]interface{})[0].(map[string]interface{})["sales"])
	mockService.AssertExpectations(t)
}

func TestReportHandler_sales_BadDate(t *testing.T) {
	mockService := new(MockReportService)
	router := chi.NewRouter()
	posHTTP.NewReportHandler(mockService).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/sales?start_date=yesterday", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "start_date")
	mockService.AssertNotCalled(t, "Sales", mock.Anything, mock.Anything)
}

func TestReportHandler_dashboard(t *testing.T) {
	mockService := new(MockReportService)
	mockService.On("Dashboard", mock.Anything, mock.MatchedBy(func(day time.Time) bool {
		return day.Format("2006-01-02") == "2024-03-01"
	})).Return(&report.Dashboard{
		TodaySales:     dec("46.2"),
		TodayOrders:    2,
		TodayAverage:   dec("23.1"),
		PopularItems:   []report.ItemSales{{Name: "Burger", Quantity: 6, Revenue: dec("75")}},
		ActiveOrders:   3,
		OccupiedTables: 2,
	}, nil).Once()

	router := chi.NewRouter()
	posHTTP.NewReportHandler(mockService).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/dashboard?date=2024-03-01", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody(t, rr)
	assert.Equal(t, "46.20", resp["today_sales"])
	assert.Equal(t, "23.10", resp["today_average"])
	assert.EqualValues(t, 3, resp["active_orders"])
	assert.Equal(t, "75.00", resp["popular_items"].([]interface{})[0].(map[string]interface{})["revenue"])
	mockService.AssertExpectations(t)
}

func TestReceiptHandler_qrCode(t *testing.T) {
	mockService := new(MockReceiptService)
	id := uuid.Must(uuid.NewV4())
	png := []byte{0x89, 'P', 'N', 'G'}
	mockService.On("QRCode", mock.Anything, id).Return(png, nil).Once()

	router := chi.NewRouter()
	posHTTP.NewReceiptHandler(mockService).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/receipts/"+id.String()+"/qrcode", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, png, rr.Body.Bytes())
	mockService.AssertExpectations(t)
}

func TestReceiptHandler_getReceipt_NotFound(t *testing.T) {
	mockService := new(MockReceiptService)
	id := uuid.Must(uuid.NewV4())
	mockService.On("Get", mock.Anything, id).Return(nil, receipt.ErrNotFound).Once()

	router := chi.NewRouter()
	posHTTP.NewReceiptHandler(mockService).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/receipts/"+id.String(), nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "receipt not found", decodeBody(t, rr)["error"])
}

func TestReceiptHandler_listReceipts_ByOrder(t *testing.T) {
	mockService := new(MockReceiptService)
	orderID := uuid.Must(uuid.NewV4())
	mockService.On("List", mock.Anything, mock.MatchedBy(func(f receipt.ListFilter) bool {
		return f.OrderID != nil && *f.OrderID == orderID && f.CustomerID == nil
	})).Return([]receipt.Receipt{{ID: uuid.Must(uuid.NewV4()), OrderID: orderID, Total: dec("21.6"), PaymentMethod: "card"}}, nil).Once()

	router := chi.NewRouter()
	posHTTP.NewReceiptHandler(mockService).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/receipts?order_id="+orderID.String(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total":"21.60"`)
	assert.Contains(t, rr.Body.String(), `"amount_tendered":null`)
	mockService.AssertExpectations(t)
}
