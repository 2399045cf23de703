package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/events"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/pricing"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
)

// MenuCatalog resolves menu items for pricing. menu.Service satisfies it.
type MenuCatalog interface {
	LookupItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]menu.Item, error)
}

type Config struct {
	TaxRate              decimal.Decimal
	LoyaltyPointsPerUnit int64
}

type PaymentResult struct {
	Order   *Order           `json:"order"`
	Receipt *receipt.Receipt `json:"receipt"`
	Change  decimal.Decimal  `json:"change"`
}

type Service interface {
	SubmitOrder(ctx context.Context, in SubmitOrderInput) (*Order, error)
	Preview(ctx context.Context, items []ItemInput, discount, tip decimal.Decimal) (*Cart, pricing.Totals, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]Order, error)
	AddItems(ctx context.Context, orderID uuid.UUID, items []ItemInput, version *int) (*Order, error)
	AdvanceItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status ItemStatus) (*Order, error)
	UpdateOrder(ctx context.Context, in UpdateOrderInput) (*Order, error)
	RecordPayment(ctx context.Context, in PaymentInput) (*PaymentResult, error)
	CancelOrder(ctx context.Context, id uuid.UUID, version *int) (*Order, error)
}

type service struct {
	repo      Repository
	menu      MenuCatalog
	publisher events.Publisher
	cfg       Config
	now       func() time.Time
}

func NewService(repo Repository, catalog MenuCatalog, publisher events.Publisher, cfg Config) Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = pricing.DefaultTaxRate
	}
	return &service{
		repo:      repo,
		menu:      catalog,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// resolveItems prices the requested lines from the current menu.
func (s *service) resolveItems(ctx context.Context, inputs []ItemInput) ([]Item, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyOrder
	}

	ids := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, in := range inputs {
		if in.MenuItemID == uuid.Nil {
			return nil, apperror.Invalid("menu_item_id", "is required")
		}
		if in.Quantity <= 0 {
			return nil, apperror.Invalid("quantity", "must be greater than zero")
		}
		if !seen[in.MenuItemID] {
			seen[in.MenuItemID] = true
			ids = append(ids, in.MenuItemID)
		}
	}

	catalog, err := s.menu.LookupItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve menu items: %w", err)
	}

	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		mi, ok := catalog[in.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMenuItem, in.MenuItemID)
		}
		if !mi.Availability.Orderable() {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, mi.Name)
		}
		items = append(items, Item{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			Quantity:   in.Quantity,
			Price:      mi.Price,
			Notes:      in.Notes,
			Status:     ItemPending,
		})
	}
	return items, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID, version *int) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found")
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to get order: %w", err)
	}
	if version != nil && *version != o.Version {
		log.Warn().Stringer("order_id", id).Int("expected", *version).Int("actual", o.Version).Msg("service: stale order version")
		return nil, ErrVersionConflict
	}
	if o.Status.Terminal() {
		return nil, ErrOrderTerminal
	}
	return o, nil
}

func (s *service) SubmitOrder(ctx context.Context, in SubmitOrderInput) (*Order, error) {
	if in.TableID == uuid.Nil {
		return nil, apperror.Invalid("table_id", "is required")
	}
	if in.ServerID == uuid.Nil {
		return nil, apperror.Invalid("server_id", "is required")
	}
	items, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		TableID:  in.TableID,
		ServerID: in.ServerID,
		Items:    items,
		Status:   StatusPending,
		Discount: in.Discount,
		Notes:    in.Notes,
	}
	if in.CustomerID != nil && *in.CustomerID != uuid.Nil {
		o.CustomerID = uuid.NullUUID{UUID: *in.CustomerID, Valid: true}
	}
	o.Reprice(s.cfg.TaxRate)

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			log.Warn().Err(err).Stringer("table_id", in.TableID).Msg("service: order rejected")
			return nil, err
		}
		log.Error().Err(err).Stringer("table_id", in.TableID).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Stringer("table_id", o.TableID).Str("total", pricing.Format(o.Total)).Msg("service: order submitted")

	// Re-read for the joined table number and customer name.
	if fresh, err := s.repo.GetByID(ctx, o.ID); err == nil {
		o = fresh
	} else {
		log.Warn().Err(err).Stringer("order_id", o.ID).Msg("service: failed to reload submitted order")
	}
	events.PublishLogged(ctx, s.publisher, s.event(events.OrderCreated, o, o.Items))
	return o, nil
}

func (s *service) Preview(ctx context.Context, inputs []ItemInput, discount, tip decimal.Decimal) (*Cart, pricing.Totals, error) {
	items, err := s.resolveItems(ctx, inputs)
	if err != nil {
		return nil, pricing.Totals{}, err
	}
	cart := &Cart{}
	for _, it := range items {
		mi := menu.Item{ID: it.MenuItemID, Name: it.Name, Price: it.Price, Availability: menu.Available}
		if err := cart.Add(mi, it.Quantity, it.Notes); err != nil {
			return nil, pricing.Totals{}, err
		}
	}
	return cart, cart.Totals(discount, tip, s.cfg.TaxRate), nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to get order: %w", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) ([]Order, error) {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, apperror.Invalid("status", fmt.Sprintf("unknown order status %q", st))
		}
	}
	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) AddItems(ctx context.Context, orderID uuid.UUID, inputs []ItemInput, version *int) (*Order, error) {
	o, err := s.load(ctx, orderID, version)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending && o.Status != StatusPreparing {
		return nil, ErrOrderNotEditable
	}

	added, err := s.resolveItems(ctx, inputs)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, added...)
	o.Reprice(s.cfg.TaxRate)

	if err := s.repo.AddItems(ctx, o, added); err != nil {
		return nil, s.writeErr(err, o.ID, "add items to order")
	}
	// Reflect generated ids and timestamps in the returned order.
	copy(o.Items[len(o.Items)-len(added):], added)

	log.Info().Stringer("order_id", o.ID).Int("added", len(added)).Msg("service: items added to order")
	events.PublishLogged(ctx, s.publisher, s.event(events.OrderItemsAdded, o, added))
	return o, nil
}

func (s *service) AdvanceItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status ItemStatus) (*Order, error) {
	if !status.Valid() {
		return nil, apperror.Invalid("status", "must be one of pending, preparing, ready, served")
	}
	o, err := s.load(ctx, orderID, nil)
	if err != nil {
		return nil, err
	}
	it := o.item(itemID)
	if it == nil {
		return nil, ErrItemNotFound
	}
	if it.Status == status {
		return o, nil
	}
	if !CanAdvanceItem(it.Status, status) {
		log.Warn().Stringer("order_id", orderID).Stringer("item_id", itemID).
			Str("from", string(it.Status)).Str("to", string(status)).Msg("service: item status regression rejected")
		return nil, ErrItemRegression
	}

	previous := o.Status
	it.Status = status
	o.Status = deriveStatus(o.Status, o.Items)

	if err := s.repo.UpdateItemStatus(ctx, o, it); err != nil {
		return nil, s.writeErr(err, o.ID, "update order item status")
	}

	log.Info().Stringer("order_id", o.ID).Stringer("item_id", it.ID).Str("status", string(status)).Msg("service: order item status changed")
	events.PublishLogged(ctx, s.publisher, s.event(events.OrderItemStatus, o, []Item{*it}))
	if o.Status != previous {
		log.Info().Stringer("order_id", o.ID).Str("from", string(previous)).Str("to", string(o.Status)).Msg("service: order status derived from items")
		events.PublishLogged(ctx, s.publisher, s.event(events.OrderStatusChange, o, nil))
	}
	return o, nil
}

func (s *service) UpdateOrder(ctx context.Context, in UpdateOrderInput) (*Order, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperror.Invalid("status", fmt.Sprintf("unknown order status %q", *in.Status))
	}

	paying := in.PaymentMethod != nil || (in.Status != nil && *in.Status == StatusPaid)
	if paying {
		if in.Status != nil && *in.Status != StatusPaid {
			return nil, apperror.Invalid("payment_method", "only allowed when the order is being paid")
		}
		if in.PaymentMethod == nil {
			return nil, apperror.Invalid("payment_method", "is required to mark an order paid")
		}
		res, err := s.RecordPayment(ctx, PaymentInput{
			OrderID:      in.ID,
			Method:       *in.PaymentMethod,
			Discount:     in.Discount,
			Tip:          in.Tip,
			CashTendered: in.CashTendered,
			StaffID:      in.StaffID,
			Version:      in.Version,
		})
		if err != nil {
			return nil, err
		}
		return res.Order, nil
	}
	if in.Status != nil && *in.Status == StatusCancelled {
		return s.CancelOrder(ctx, in.ID, in.Version)
	}

	o, err := s.load(ctx, in.ID, in.Version)
	if err != nil {
		return nil, err
	}

	previous := o.Status
	if in.Status != nil && *in.Status != o.Status {
		if !CanTransition(o.Status, *in.Status) {
			log.Warn().Stringer("order_id", o.ID).Str("from", string(o.Status)).Str("to", string(*in.Status)).Msg("service: invalid order transition")
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, *in.Status)
		}
		o.Status = *in.Status
		if o.Status == StatusServed {
			for i := range o.Items {
				o.Items[i].Status = ItemServed
			}
		}
	}
	if in.Discount != nil {
		o.Discount = *in.Discount
	}
	if in.Tip != nil {
		o.Tip = *in.Tip
	}
	if in.Notes != nil {
		o.Notes = *in.Notes
	}
	o.Reprice(s.cfg.TaxRate)

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, s.writeErr(err, o.ID, "update order")
	}

	log.Info().Stringer("order_id", o.ID).Str("status", string(o.Status)).Msg("service: order updated")
	if o.Status != previous {
		events.PublishLogged(ctx, s.publisher, s.event(events.OrderStatusChange, o, nil))
	}
	return o, nil
}

func (s *service) RecordPayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	if !in.Method.Valid() {
		return nil, apperror.Invalid("payment_method", "must be one of cash, card, digital")
	}
	o, err := s.load(ctx, in.OrderID, in.Version)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusReady && o.Status != StatusServed {
		return nil, ErrNotPayable
	}

	if in.Discount != nil {
		o.Discount = *in.Discount
	}
	if in.Tip != nil {
		o.Tip = *in.Tip
	}
	o.Reprice(s.cfg.TaxRate)

	var (
		tendered decimal.NullDecimal
		change   = decimal.Zero
	)
	if in.Method == PaymentCash {
		amount := o.Total
		if in.CashTendered != nil {
			amount = *in.CashTendered
		}
		change, err = pricing.Change(o.Total, amount)
		if err != nil {
			log.Warn().Stringer("order_id", o.ID).Str("due", pricing.Format(o.Total)).Str("tendered", pricing.Format(amount)).Msg("service: insufficient cash tendered")
			return nil, fmt.Errorf("%w: due %s, tendered %s", ErrInsufficientPayment, pricing.Format(o.Total), pricing.Format(amount))
		}
		tendered = decimal.NullDecimal{Decimal: amount, Valid: true}
	}

	paidAt := s.now()
	method := in.Method
	o.Status = StatusPaid
	o.PaymentMethod = &method
	o.PaidAt = &paidAt

	rc := buildReceipt(o, in.StaffID, tendered, change, paidAt)
	points := s.loyaltyPoints(o)

	if err := s.repo.Pay(ctx, o, rc, points); err != nil {
		return nil, s.writeErr(err, o.ID, "record payment")
	}

	log.Info().Stringer("order_id", o.ID).Stringer("receipt_id", rc.ID).Str("method", string(method)).
		Str("total", pricing.Format(o.Total)).Int64("loyalty_points", points).Msg("service: order paid")
	events.PublishLogged(ctx, s.publisher, s.event(events.OrderPaid, o, nil))
	return &PaymentResult{Order: o, Receipt: rc, Change: change}, nil
}

func (s *service) CancelOrder(ctx context.Context, id uuid.UUID, version *int) (*Order, error) {
	o, err := s.load(ctx, id, version)
	if err != nil {
		return nil, err
	}
	o.Status = StatusCancelled

	if err := s.repo.Cancel(ctx, o); err != nil {
		return nil, s.writeErr(err, o.ID, "cancel order")
	}

	log.Info().Stringer("order_id", o.ID).Stringer("table_id", o.TableID).Msg("service: order cancelled")
	events.PublishLogged(ctx, s.publisher, s.event(events.OrderCancelled, o, o.Items))
	return o, nil
}

func (s *service) loyaltyPoints(o *Order) int64 {
	if !o.CustomerID.Valid {
		return 0
	}
	return o.Total.Floor().IntPart() * s.cfg.LoyaltyPointsPerUnit
}

func (s *service) writeErr(err error, orderID uuid.UUID, action string) error {
	switch {
	case errors.Is(err, ErrVersionConflict):
		log.Warn().Stringer("order_id", orderID).Msg("service: concurrent order modification")
		return ErrVersionConflict
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrUnknownMenuItem):
		return err
	}
	log.Error().Err(err).Stringer("order_id", orderID).Msgf("service: failed to %s", action)
	return fmt.Errorf("service: failed to %s: %w", action, err)
}

func (s *service) event(t events.Type, o *Order, items []Item) events.Event {
	e := events.Event{
		Type:        t,
		OrderID:     o.ID,
		TableID:     o.TableID,
		TableNumber: o.TableNumber,
		Status:      string(o.Status),
		Total:       pricing.Format(o.Total),
	}
	for _, it := range items {
		e.Items = append(e.Items, events.Item{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Notes:    it.Notes,
			Status:   string(it.Status),
		})
	}
	return e
}

func buildReceipt(o *Order, staffID uuid.NullUUID, tendered decimal.NullDecimal, change decimal.Decimal, printedAt time.Time) *receipt.Receipt {
	lines := make([]receipt.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, receipt.Line{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
			Notes:     it.Notes,
		})
	}
	method := ""
	if o.PaymentMethod != nil {
		method = string(*o.PaymentMethod)
	}
	return &receipt.Receipt{
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		StaffID:        staffID,
		Items:          lines,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		Discount:       o.Discount,
		Tip:            o.Tip,
		Total:          o.Total,
		PaymentMethod:  method,
		AmountTendered: tendered,
		ChangeDue:      change,
		PrintedAt:      printedAt,
	}
}
