package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is a single garment line on a booking.
type OrderItem struct {
	ID       string          `json:"id"`
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int32           `json:"quantity"`
	ImageURL string          `json:"image_url,omitempty"`
}

// Fees are the three named surcharges a booking may carry.
// Absent fees are zero.
type Fees struct {
	Delivery   decimal.Decimal `json:"delivery"`
	Alteration decimal.Decimal `json:"alteration"`
	Cutting    decimal.Decimal `json:"cutting"`
}

// HistoryEntry records one status or payment change. History is prepended
// (most recent first) and never edited or truncated.
type HistoryEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedBy string    `json:"updated_by"`
	Note      string    `json:"note,omitempty"`
}

// Order is the central aggregate.
//
// VatAmount and TotalAmount are always derived from the other financial
// fields and are recomputed inside every mutation that touches an input;
// they are stored for read convenience only.
type Order struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	CustomerPin     string          `json:"customer_pin"`
	Items           []OrderItem     `json:"items"`
	AdditionalFees  Fees            `json:"additional_fees"`
	VatRate         decimal.Decimal `json:"vat_rate"`
	IncludeVat      bool            `json:"include_vat"`
	VatInPrice      bool            `json:"vat_included_in_price"`
	VatAmount       decimal.Decimal `json:"vat_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentStatus   string          `json:"payment_status"`
	OrderStatus     string          `json:"order_status"`
	CreatedAt       time.Time       `json:"created_at"`
	History         []HistoryEntry  `json:"history"`
}

// User is a persisted staff/admin/viewer identity. Customers are not users;
// they are synthesized from order data at authentication time.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Pin       string    `json:"pin"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLogEntry is one line of the append-only activity trail.
type AdminLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AdminName string    `json:"admin_name"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	OrderID   string    `json:"order_id,omitempty"`
}

// Settings is the process-wide configuration mutated only by admins.
// Orders snapshot VatRate at creation time; changing it never touches
// existing orders.
type Settings struct {
	VatRate   decimal.Decimal `json:"vat_rate"`
	ShopPhone string          `json:"shop_phone"`
}
