package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/invoice"
	"github.com/zahrat-boutique/api/internal/model"
)

// The booking ID space is ZS-1000..ZS-9999, so collisions are expected once
// the boutique accumulates orders. Retries with a fresh draw, then gives up.
const maxOrderIDRetries = 5

const (
	seedHistoryNote    = "Initial booking created."
	defaultHistoryNote = "Phase update."
	defaultCustomerPin = "1234"
)

// Errors returned by the order service.
var (
	ErrEmptyItems       = errors.New("items are required")
	ErrCustomerRequired = errors.New("customer name and phone are required")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrNegativeAmount   = errors.New("amounts must be non-negative")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrOrderNotFound    = errors.New("order not found")
	ErrIDSpaceExhausted = errors.New("could not allocate a unique order id")
)

// OrderStore defines the persistence methods the service needs.
// Satisfied by *postgres.Store; narrow interface for testability.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	SaveOrder(ctx context.Context, order model.Order) error
	DeleteOrder(ctx context.Context, id string) error
	SaveAdminLog(ctx context.Context, entry model.AdminLogEntry) error
}

// SettingsStore provides the process-wide VAT rate snapshotted onto new
// orders. Satisfied by *postgres.Store.
type SettingsStore interface {
	GetVatRate(ctx context.Context) (decimal.Decimal, error)
}

// EventPublisher pushes order events to connected dashboards. Optional.
type EventPublisher interface {
	PublishOrder(eventType string, order model.Order)
}

// TransitionPolicy decides whether a status change is permitted.
// The boutique runs with AllowAll so staff can correct mis-clicked statuses;
// a stricter policy can be injected without touching call sites.
type TransitionPolicy func(current, next string) bool

func AllowAll(current, next string) bool { return true }

// ErrTransitionDenied is returned when the injected policy rejects a change.
var ErrTransitionDenied = errors.New("transition not permitted")

// OrderService owns the order lifecycle: creation, status transitions,
// payment toggling, invoice edits and deletion. Every financial mutation
// recomputes the derived amounts synchronously before saving, and every
// status or payment change prepends a history entry.
type OrderService struct {
	store    OrderStore
	settings SettingsStore
	policy   TransitionPolicy
	events   EventPublisher
	logger   *logrus.Logger

	// Overridable for tests.
	now     func() time.Time
	randID  func() string
	entryID func() string
}

func NewOrderService(store OrderStore, settings SettingsStore, events EventPublisher, logger *logrus.Logger) *OrderService {
	return &OrderService{
		store:    store,
		settings: settings,
		policy:   AllowAll,
		events:   events,
		logger:   logger,
		now:      time.Now,
		randID:   randomOrderID,
		entryID:  uuid.NewString,
	}
}

// SetTransitionPolicy swaps the status-change policy.
func (s *OrderService) SetTransitionPolicy(p TransitionPolicy) {
	s.policy = p
}

// randomOrderID draws a ZS-#### id with four digits, matching the id format
// of existing records.
func randomOrderID() string {
	return fmt.Sprintf("ZS-%04d", 1000+rand.Intn(9000))
}

// --- Requests ---

type ItemInput struct {
	ItemName string
	Price    decimal.Decimal
	Quantity int32
	ImageURL string
}

type FeeInput struct {
	Delivery   decimal.Decimal
	Alteration decimal.Decimal
	Cutting    decimal.Decimal
}

type CreateOrderRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	CustomerPin     string
	Items           []ItemInput
	Fees            FeeInput
	IncludeVat      bool
	VatInPrice      bool
}

type UpdateInvoiceRequest struct {
	Items      []ItemInput
	Fees       FeeInput
	IncludeVat bool
	VatInPrice bool
}

// --- Operations ---

// Create validates the request, allocates a unique booking id, snapshots the
// current VAT rate onto the order, computes its financials and saves it with
// a seed history entry.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest, actorName string) (*model.Order, error) {
	if req.CustomerName == "" || req.CustomerPhone == "" {
		return nil, ErrCustomerRequired
	}
	items, err := validateItems(req.Items)
	if err != nil {
		return nil, err
	}
	fees, err := validateFees(req.Fees)
	if err != nil {
		return nil, err
	}

	vatRate, err := s.settings.GetVatRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("get vat rate: %w", err)
	}

	id, err := s.uniqueOrderID(ctx)
	if err != nil {
		return nil, err
	}

	pin := req.CustomerPin
	if pin == "" {
		pin = defaultCustomerPin
	}

	now := s.now()
	order := model.Order{
		ID:              id,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		CustomerPin:     pin,
		Items:           items,
		AdditionalFees:  fees,
		VatRate:         vatRate,
		IncludeVat:      req.IncludeVat,
		VatInPrice:      req.VatInPrice,
		PaymentStatus:   enum.PaymentStatusUnpaid,
		OrderStatus:     enum.OrderStatusCreated,
		CreatedAt:       now,
		History: []model.HistoryEntry{{
			Status:    enum.OrderStatusCreated,
			Timestamp: now,
			UpdatedBy: actorName,
			Note:      seedHistoryNote,
		}},
	}
	invoice.Apply(&order)

	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.logAction(ctx, actorName, enum.ActionCreateOrder, fmt.Sprintf("Created order %s", order.ID), order.ID)
	s.publish("order.created", order)

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"total":    order.TotalAmount.StringFixed(3),
		"actor":    actorName,
	}).Info("order created")

	return &order, nil
}

// Transition moves the order to next and prepends a history entry. Calling
// it with the order's current status is not deduplicated: the entry is
// appended anyway, matching how the history trail has always behaved.
func (s *OrderService) Transition(ctx context.Context, id, next, actorName, note string) (*model.Order, error) {
	if !enum.ValidOrderStatus(next) {
		return nil, ErrInvalidStatus
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy(order.OrderStatus, next) {
		return nil, ErrTransitionDenied
	}

	if note == "" {
		note = defaultHistoryNote
	}
	order.OrderStatus = next
	s.prependHistory(order, model.HistoryEntry{
		Status:    next,
		Timestamp: s.now(),
		UpdatedBy: actorName,
		Note:      note,
	})

	if err := s.store.SaveOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.logAction(ctx, actorName, enum.ActionUpdateStatus, fmt.Sprintf("Order %s moved to %s", id, next), id)
	s.publish("order.status_updated", *order)

	return order, nil
}

// TogglePayment flips Paid/Unpaid. Payment changes never touch the order
// status; the history entry is tagged with the status current at the time of
// the toggle.
func (s *OrderService) TogglePayment(ctx context.Context, id, actorName string) (*model.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == enum.PaymentStatusPaid {
		order.PaymentStatus = enum.PaymentStatusUnpaid
	} else {
		order.PaymentStatus = enum.PaymentStatusPaid
	}
	s.prependHistory(order, model.HistoryEntry{
		Status:    order.OrderStatus,
		Timestamp: s.now(),
		UpdatedBy: actorName,
		Note:      fmt.Sprintf("Payment marked %s.", order.PaymentStatus),
	})

	if err := s.store.SaveOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.logAction(ctx, actorName, enum.ActionTogglePayment, fmt.Sprintf("Order %s payment set to %s", id, order.PaymentStatus), id)
	s.publish("order.payment_toggled", *order)

	return order, nil
}

// UpdateInvoice replaces the order's items, fees and VAT flags, then
// recomputes the derived amounts before the save. The VAT *rate* stays
// frozen at the value snapshotted when the order was created.
func (s *OrderService) UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest, actorName string) (*model.Order, error) {
	items, err := validateItems(req.Items)
	if err != nil {
		return nil, err
	}
	fees, err := validateFees(req.Fees)
	if err != nil {
		return nil, err
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items
	order.AdditionalFees = fees
	order.IncludeVat = req.IncludeVat
	order.VatInPrice = req.VatInPrice
	invoice.Apply(order)

	if err := s.store.SaveOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.logAction(ctx, actorName, enum.ActionUpdateInvoice,
		fmt.Sprintf("Order %s invoice updated, total %s", id, order.TotalAmount.StringFixed(3)), id)
	s.publish("order.invoice_updated", *order)

	return order, nil
}

// Delete removes the order and its entire history irrecoverably. The
// confirmation step lives at the UI boundary; this call is unconditional.
func (s *OrderService) Delete(ctx context.Context, id, actorName string) error {
	if _, err := s.getOrder(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	s.logAction(ctx, actorName, enum.ActionDeleteOrder, fmt.Sprintf("Deleted order %s", id), id)

	s.logger.WithFields(logrus.Fields{"order_id": id, "actor": actorName}).Info("order deleted")
	return nil
}

// --- Helpers ---

func (s *OrderService) getOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) uniqueOrderID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxOrderIDRetries; attempt++ {
		id := s.randID()
		existing, err := s.store.GetOrderByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check order id: %w", err)
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}

func (s *OrderService) prependHistory(o *model.Order, entry model.HistoryEntry) {
	o.History = append([]model.HistoryEntry{entry}, o.History...)
}

func (s *OrderService) logAction(ctx context.Context, actorName, action, details, orderID string) {
	entry := model.AdminLogEntry{
		ID:        s.entryID(),
		Timestamp: s.now(),
		AdminName: actorName,
		Action:    action,
		Details:   details,
		OrderID:   orderID,
	}
	if err := s.store.SaveAdminLog(ctx, entry); err != nil {
		// The activity trail is best-effort; losing a line must not fail
		// the order operation itself.
		s.logger.WithError(err).Warn("failed to write admin log entry")
	}
}

func (s *OrderService) publish(eventType string, order model.Order) {
	if s.events != nil {
		s.events.PublishOrder(eventType, order)
	}
}

func validateItems(inputs []ItemInput) ([]model.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyItems
	}
	items := make([]model.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrNegativeAmount)
		}
		items = append(items, model.OrderItem{
			ID:       uuid.NewString(),
			ItemName: in.ItemName,
			Price:    in.Price,
			Quantity: in.Quantity,
			ImageURL: in.ImageURL,
		})
	}
	return items, nil
}

func validateFees(in FeeInput) (model.Fees, error) {
	if in.Delivery.IsNegative() || in.Alteration.IsNegative() || in.Cutting.IsNegative() {
		return model.Fees{}, ErrNegativeAmount
	}
	return model.Fees{
		Delivery:   in.Delivery,
		Alteration: in.Alteration,
		Cutting:    in.Cutting,
	}, nil
}
