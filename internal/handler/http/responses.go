package http

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/customer"
	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
	"github.com/vasiliy-maslov/restaurant-pos/internal/report"
)

// money renders an amount as a fixed two-place string, e.g. "21.60".
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricing.Format(decimal.Decimal(m)))
}

func optionalMoney(d decimal.NullDecimal) *money {
	if !d.Valid {
		return nil
	}
	m := money(d.Decimal)
	return &m
}

type orderItemResponse struct {
	ID         uuid.UUID        `json:"id"`
	MenuItemID uuid.UUID        `json:"menu_item_id"`
	Name       string           `json:"name"`
	Quantity   int              `json:"quantity"`
	Price      money            `json:"price"`
	LineTotal  money            `json:"line_total"`
	Notes      string           `json:"notes"`
	Status     order.ItemStatus `json:"status"`
}

type orderResponse struct {
	ID            uuid.UUID            `json:"id"`
	TableID       uuid.UUID            `json:"table_id"`
	TableNumber   string               `json:"table_number"`
	CustomerID    uuid.NullUUID        `json:"customer_id"`
	CustomerName  *string              `json:"customer_name"`
	ServerID      uuid.UUID            `json:"server_id"`
	Status        order.Status         `json:"status"`
	Items         []orderItemResponse  `json:"items"`
	Subtotal      money                `json:"subtotal"`
	Discount      money                `json:"discount"`
	Tax           money                `json:"tax"`
	Tip           money                `json:"tip"`
	Total         money                `json:"total"`
	PaymentMethod *order.PaymentMethod `json:"payment_method"`
	PaidAt        *time.Time           `json:"paid_at"`
	Notes         string               `json:"notes"`
	Version       int                  `json:"version"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      money(it.Price),
			LineTotal:  money(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
			Notes:      it.Notes,
			Status:     it.Status,
		})
	}
	return orderResponse{
		ID:            o.ID,
		TableID:       o.TableID,
		TableNumber:   o.TableNumber,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		ServerID:      o.ServerID,
		Status:        o.Status,
		Items:         items,
		Subtotal:      money(o.Subtotal),
		Discount:      money(o.Discount),
		Tax:           money(o.Tax),
		Tip:           money(o.Tip),
		Total:         money(o.Total),
		PaymentMethod: o.PaymentMethod,
		PaidAt:        o.PaidAt,
		Notes:         o.Notes,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrderResponses(orders []order.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

type totalsResponse struct {
	Subtotal money `json:"subtotal"`
	Discount money `json:"discount"`
	Tax      money `json:"tax"`
	Tip      money `json:"tip"`
	Total    money `json:"total"`
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	return totalsResponse{
		Subtotal: money(t.Subtotal),
		Discount: money(t.Discount),
		Tax:      money(t.Tax),
		Tip:      money(t.Tip),
		Total:    money(t.Total),
	}
}

type cartLineResponse struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	UnitPrice  money     `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	Notes      string    `json:"notes"`
}

type previewResponse struct {
	Lines  []cartLineResponse `json:"lines"`
	Totals totalsResponse     `json:"totals"`
}

func toPreviewResponse(cart *order.Cart, totals pricing.Totals) previewResponse {
	lines := make([]cartLineResponse, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, cartLineResponse{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			UnitPrice:  money(l.UnitPrice),
			Quantity:   l.Quantity,
			Notes:      l.Notes,
		})
	}
	return previewResponse{Lines: lines, Totals: toTotalsResponse(totals)}
}

type receiptLineResponse struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice money  `json:"unit_price"`
	LineTotal money  `json:"line_total"`
	Notes     string `json:"notes,omitempty"`
}

type receiptResponse struct {
	ID             uuid.UUID             `json:"id"`
	OrderID        uuid.UUID             `json:"order_id"`
	CustomerID     uuid.NullUUID         `json:"customer_id"`
	StaffID        uuid.NullUUID         `json:"staff_id"`
	Items          []receiptLineResponse `json:"items"`
	Subtotal       money                 `json:"subtotal"`
	Discount       money                 `json:"discount"`
	Tax            money                 `json:"tax"`
	Tip            money                 `json:"tip"`
	Total          money                 `json:"total"`
	PaymentMethod  string                `json:"payment_method"`
	AmountTendered *money                `json:"amount_tendered"`
	ChangeDue      money                 `json:"change_due"`
	PrintedAt      time.Time             `json:"printed_at"`
	EmailedAt      *time.Time            `json:"emailed_at"`
}

func toReceiptResponse(rc *receipt.Receipt) receiptResponse {
	lines := make([]receiptLineResponse, 0, len(rc.Items))
	for _, l := range rc.Items {
		lines = append(lines, receiptLineResponse{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			LineTotal: money(l.LineTotal),
			Notes:     l.Notes,
		})
	}
	return receiptResponse{
		ID:             rc.ID,
		OrderID:        rc.OrderID,
		CustomerID:     rc.CustomerID,
		StaffID:        rc.StaffID,
		Items:          lines,
		Subtotal:       money(rc.Subtotal),
		Discount:       money(rc.Discount),
		Tax:            money(rc.Tax),
		Tip:            money(rc.Tip),
		Total:          money(rc.Total),
		PaymentMethod:  rc.PaymentMethod,
		AmountTendered: optionalMoney(rc.AmountTendered),
		ChangeDue:      money(rc.ChangeDue),
		PrintedAt:      rc.PrintedAt,
		EmailedAt:      rc.EmailedAt,
	}
}

type paymentResponse struct {
	Order   orderResponse    `json:"order"`
	Receipt *receiptResponse `json:"receipt"`
	Change  money            `json:"change"`
}

func toPaymentResponse(res *order.PaymentResult) paymentResponse {
	out := paymentResponse{Order: toOrderResponse(res.Order), Change: money(res.Change)}
	if res.Receipt != nil {
		rc := toReceiptResponse(res.Receipt)
		out.Receipt = &rc
	}
	return out
}

type menuItemResponse struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Price           money             `json:"price"`
	CategoryID      uuid.NullUUID     `json:"category_id"`
	Image           string            `json:"image"`
	Availability    menu.Availability `json:"availability"`
	PreparationTime int               `json:"preparation_time"`
	Ingredients     []string          `json:"ingredients"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func toMenuItemResponse(it *menu.Item) menuItemResponse {
	ingredients := it.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return menuItemResponse{
		ID:              it.ID,
		Name:            it.Name,
		Description:     it.Description,
		Price:           money(it.Price),
		CategoryID:      it.CategoryID,
		Image:           it.Image,
		Availability:    it.Availability,
		PreparationTime: it.PreparationTime,
		Ingredients:     ingredients,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

type customerResponse struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Email         *string       `json:"email"`
	Phone         string        `json:"phone"`
	LoyaltyPoints int64         `json:"loyalty_points"`
	Tier          customer.Tier `json:"tier"`
	TotalSpent    money         `json:"total_spent"`
	VisitCount    int           `json:"visit_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func toCustomerResponse(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		Tier:          c.Tier(),
		TotalSpent:    money(c.TotalSpent),
		VisitCount:    c.VisitCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type inventoryResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	MinStock      decimal.Decimal `json:"min_stock"`
	CostPerUnit   money           `json:"cost_per_unit"`
	Supplier      string          `json:"supplier"`
	LowStock      bool            `json:"low_stock"`
	LastRestocked *time.Time      `json:"last_restocked"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toInventoryResponse(it *inventory.Item) inventoryResponse {
	return inventoryResponse{
		ID:            it.ID,
		Name:          it.Name,
		Category:      it.Category,
		Quantity:      it.Quantity,
		Unit:          it.Unit,
		MinStock:      it.MinStock,
		CostPerUnit:   money(it.CostPerUnit),
		Supplier:      it.Supplier,
		LowStock:      it.LowStock(),
		LastRestocked: it.LastRestocked,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

type itemSalesResponse struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Revenue  money  `json:"revenue"`
}

func toItemSales(items []report.ItemSales) []itemSalesResponse {
	out := make([]itemSalesResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemSalesResponse{Name: it.Name, Quantity: it.Quantity, Revenue: money(it.Revenue)})
	}
	return out
}

type summaryResponse struct {
	TotalSales    money `json:"total_sales"`
	TotalOrders   int   `json:"total_orders"`
	AvgOrderValue money `json:"avg_order_value"`
	TotalTax      money `json:"total_tax"`
	TotalTips     money `json:"total_tips"`
}

type bucketResponse struct {
	Name   string `json:"name"`
	Sales  money  `json:"sales"`
	Orders int    `json:"orders"`
}

type methodTotalResponse struct {
	Name  string `json:"name"`
	Value money  `json:"value"`
}

type hourTotalResponse struct {
	Hour  string `json:"hour"`
	Sales money  `json:"sales"`
}

type salesResponse struct {
	Start              time.Time             `json:"start"`
	End                time.Time             `json:"end"`
	Summary            summaryResponse       `json:"summary"`
	SalesData          []bucketResponse      `json:"sales_data"`
	TopItems           []itemSalesResponse   `json:"top_items"`
	PaymentMethods     []methodTotalResponse `json:"payment_methods"`
	HourlyDistribution []hourTotalResponse   `json:"hourly_distribution"`
}

func toSalesResponse(s *report.Sales) salesResponse {
	out := salesResponse{
		Start: s.Start,
		End:   s.End,
		Summary: summaryResponse{
			TotalSales:    money(s.Summary.TotalSales),
			TotalOrders:   s.Summary.TotalOrders,
			AvgOrderValue: money(s.Summary.AvgOrderValue),
			TotalTax:      money(s.Summary.TotalTax),
			TotalTips:     money(s.Summary.TotalTips),
		},
		SalesData:          make([]bucketResponse, 0, len(s.SalesData)),
		TopItems:           toItemSales(s.TopItems),
		PaymentMethods:     make([]methodTotalResponse, 0, len(s.PaymentMethods)),
		HourlyDistribution: make([]hourTotalResponse, 0, len(s.HourlyDistribution)),
	}
	for _, b := range s.SalesData {
		out.SalesData = append(out.SalesData, bucketResponse{Name: b.Name, Sales: money(b.Sales), Orders: b.Orders})
	}
	for _, m := range s.PaymentMethods {
		out.PaymentMethods = append(out.PaymentMethods, methodTotalResponse{Name: m.Name, Value: money(m.Value)})
	}
	for _, h := range s.HourlyDistribution {
		out.HourlyDistribution = append(out.HourlyDistribution, hourTotalResponse{Hour: h.Hour, Sales: money(h.Sales)})
	}
	return out
}

type dashboardResponse struct {
	Day            time.Time           `json:"day"`
	TodaySales     money               `json:"today_sales"`
	TodayOrders    int                 `json:"today_orders"`
	TodayAverage   money               `json:"today_average"`
	PopularItems   []itemSalesResponse `json:"popular_items"`
	ActiveOrders   int                 `json:"active_orders"`
	OccupiedTables int                 `json:"occupied_tables"`
}

func toDashboardResponse(d *report.Dashboard) dashboardResponse {
	return dashboardResponse{
		Day:            d.Day,
		TodaySales:     money(d.TodaySales),
		TodayOrders:    d.TodayOrders,
		TodayAverage:   money(d.TodayAverage),
		PopularItems:   toItemSales(d.PopularItems),
		ActiveOrders:   d.ActiveOrders,
		OccupiedTables: d.OccupiedTables,
	}
}
