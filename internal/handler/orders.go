package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/middleware"
	"github.com/zahrat-boutique/api/internal/model"
	"github.com/zahrat-boutique/api/internal/service"
)

// OrderManager is the lifecycle surface the handler drives.
// Satisfied by *service.OrderService.
type OrderManager interface {
	Create(ctx context.Context, req service.CreateOrderRequest, actorName string) (*model.Order, error)
	Transition(ctx context.Context, id, next, actorName, note string) (*model.Order, error)
	TogglePayment(ctx context.Context, id, actorName string) (*model.Order, error)
	UpdateInvoice(ctx context.Context, id string, req service.UpdateInvoiceRequest, actorName string) (*model.Order, error)
	Delete(ctx context.Context, id, actorName string) error
}

// OrderReader serves the read endpoints directly from the store.
type OrderReader interface {
	GetOrders(ctx context.Context) ([]model.Order, error)
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
}

// Adviser supplies a next-step suggestion for an order's current status.
// Satisfied by *advisor.Client.
type Adviser interface {
	GetStatusAdvice(ctx context.Context, status string) string
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc     OrderManager
	reader  OrderReader
	adviser Adviser
}

func NewOrderHandler(svc OrderManager, reader OrderReader, adviser Adviser) *OrderHandler {
	return &OrderHandler{svc: svc, reader: reader, adviser: adviser}
}

// --- Request types ---

// Monetary amounts travel as JSON strings ("4.500") and are parsed into
// decimals; an empty string means zero.

type orderItemRequest struct {
	ItemName string `json:"item_name"`
	Price    string `json:"price"`
	Quantity int32  `json:"quantity"`
	ImageURL string `json:"image_url"`
}

type feesRequest struct {
	Delivery   string `json:"delivery"`
	Alteration string `json:"alteration"`
	Cutting    string `json:"cutting"`
}

type createOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerAddress string             `json:"customer_address"`
	CustomerPin     string             `json:"customer_pin"`
	Items           []orderItemRequest `json:"items"`
	Fees            feesRequest        `json:"additional_fees"`
	IncludeVat      bool               `json:"include_vat"`
	VatInPrice      bool               `json:"vat_included_in_price"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type updateInvoiceRequest struct {
	Items      []orderItemRequest `json:"items"`
	Fees       feesRequest        `json:"additional_fees"`
	IncludeVat bool               `json:"include_vat"`
	VatInPrice bool               `json:"vat_included_in_price"`
}

type adviceResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Advice  string `json:"advice"`
}

// --- Handlers ---

// Create books a new order.
// Endpoint: POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items, err := parseItems(req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	fees, err := parseFees(req.Fees)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())

	order, err := h.svc.Create(r.Context(), service.CreateOrderRequest{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		CustomerPin:     req.CustomerPin,
		Items:           items,
		Fees:            fees,
		IncludeVat:      req.IncludeVat,
		VatInPrice:      req.VatInPrice,
	}, claims.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List returns orders visible to the caller. Staff see everything;
// customers see only the orders booked under their phone number.
// Endpoint: GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	orders, err := h.reader.GetOrders(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch orders"})
		return
	}

	if claims.Role == enum.RoleCustomer {
		mine := make([]model.Order, 0)
		for _, o := range orders {
			if o.CustomerPhone == claims.Phone {
				mine = append(mine, o)
			}
		}
		orders = mine
	}

	writeJSON(w, http.StatusOK, orders)
}

// Get returns a single order.
// Endpoint: GET /orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id := chi.URLParam(r, "id")
	order, err := h.reader.GetOrderByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch order"})
		return
	}
	// Customers only ever learn about their own orders.
	if order == nil || (claims.Role == enum.RoleCustomer && order.CustomerPhone != claims.Phone) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus moves an order to a new lifecycle status.
// Endpoint: PATCH /orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())

	order, err := h.svc.Transition(r.Context(), chi.URLParam(r, "id"), req.Status, claims.Name, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// TogglePayment flips an order between Paid and Unpaid.
// Endpoint: POST /orders/{id}/payment-toggle
func (h *OrderHandler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	order, err := h.svc.TogglePayment(r.Context(), chi.URLParam(r, "id"), claims.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateInvoice replaces an order's line items, fees and VAT flags and
// recomputes the totals.
// Endpoint: PUT /orders/{id}/invoice
func (h *OrderHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req updateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items, err := parseItems(req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	fees, err := parseFees(req.Fees)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())

	order, err := h.svc.UpdateInvoice(r.Context(), chi.URLParam(r, "id"), service.UpdateInvoiceRequest{
		Items:      items,
		Fees:       fees,
		IncludeVat: req.IncludeVat,
		VatInPrice: req.VatInPrice,
	}, claims.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Delete removes an order permanently.
// Endpoint: DELETE /orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), claims.Name); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Advice returns a suggested next step for the order's current status.
// Endpoint: GET /orders/{id}/advice
func (h *OrderHandler) Advice(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	id := chi.URLParam(r, "id")
	order, err := h.reader.GetOrderByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch order"})
		return
	}
	if order == nil || (claims.Role == enum.RoleCustomer && order.CustomerPhone != claims.Phone) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	writeJSON(w, http.StatusOK, adviceResponse{
		OrderID: order.ID,
		Status:  order.OrderStatus,
		Advice:  h.adviser.GetStatusAdvice(r.Context(), order.OrderStatus),
	})
}

// --- Helpers ---

func (h *OrderHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrCustomerRequired),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTransitionDenied):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func parseItems(items []orderItemRequest) ([]service.ItemInput, error) {
	parsed := make([]service.ItemInput, 0, len(items))
	for _, item := range items {
		price, err := parseAmount(item.Price)
		if err != nil {
			return nil, errors.New("invalid item price: " + item.Price)
		}
		parsed = append(parsed, service.ItemInput{
			ItemName: item.ItemName,
			Price:    price,
			Quantity: item.Quantity,
			ImageURL: item.ImageURL,
		})
	}
	return parsed, nil
}

func parseFees(fees feesRequest) (service.FeeInput, error) {
	delivery, err := parseAmount(fees.Delivery)
	if err != nil {
		return service.FeeInput{}, errors.New("invalid delivery fee: " + fees.Delivery)
	}
	alteration, err := parseAmount(fees.Alteration)
	if err != nil {
		return service.FeeInput{}, errors.New("invalid alteration fee: " + fees.Alteration)
	}
	cutting, err := parseAmount(fees.Cutting)
	if err != nil {
		return service.FeeInput{}, errors.New("invalid cutting fee: " + fees.Cutting)
	}
	return service.FeeInput{Delivery: delivery, Alteration: alteration, Cutting: cutting}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
