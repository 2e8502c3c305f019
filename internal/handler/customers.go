package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/zahrat-boutique/api/internal/model"
)

// CustomerSource provides the orders a customer directory is derived from.
type CustomerSource interface {
	GetOrders(ctx context.Context) ([]model.Order, error)
}

// CustomerHandler serves the customer directory. Customers are not stored
// anywhere; they are derived on demand from the order book, keyed by
// phone + PIN so two people sharing a phone stay distinct.
type CustomerHandler struct {
	source CustomerSource
}

func NewCustomerHandler(source CustomerSource) *CustomerHandler {
	return &CustomerHandler{source: source}
}

type customerResponse struct {
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Pin        string    `json:"pin"`
	Address    string    `json:"address"`
	OrderCount int       `json:"order_count"`
	FirstOrder time.Time `json:"first_order"`
	LastOrder  time.Time `json:"last_order"`
}

// List returns the unique customers seen across all orders, most recently
// active first.
// Endpoint: GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.source.GetOrders(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch orders"})
		return
	}

	type key struct{ phone, pin string }
	byIdentity := make(map[key]*customerResponse)
	for _, o := range orders {
		k := key{o.CustomerPhone, o.CustomerPin}
		c, ok := byIdentity[k]
		if !ok {
			byIdentity[k] = &customerResponse{
				Name:       o.CustomerName,
				Phone:      o.CustomerPhone,
				Pin:        o.CustomerPin,
				Address:    o.CustomerAddress,
				OrderCount: 1,
				FirstOrder: o.CreatedAt,
				LastOrder:  o.CreatedAt,
			}
			continue
		}
		c.OrderCount++
		if o.CreatedAt.Before(c.FirstOrder) {
			c.FirstOrder = o.CreatedAt
		}
		if o.CreatedAt.After(c.LastOrder) {
			// The most recent booking wins for name and address too.
			c.LastOrder = o.CreatedAt
			c.Name = o.CustomerName
			c.Address = o.CustomerAddress
		}
	}

	customers := make([]customerResponse, 0, len(byIdentity))
	for _, c := range byIdentity {
		customers = append(customers, *c)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].LastOrder.After(customers[j].LastOrder)
	})

	writeJSON(w, http.StatusOK, customers)
}
