package enum

// ── Order lifecycle (stored verbatim in order records) ──

const (
	OrderStatusCreated          = "Created"
	OrderStatusInShop           = "In Shop"
	OrderStatusReadyToPickup    = "Ready to Pick Up"
	OrderStatusCustomerReceived = "Customer Received"
	OrderStatusCompleted        = "Completed"
)

// OrderStatuses lists the lifecycle states in their conventional forward
// order. The lifecycle is deliberately loose: any state is reachable from
// any other, so the ordering here is presentational only.
var OrderStatuses = []string{
	OrderStatusCreated,
	OrderStatusInShop,
	OrderStatusReadyToPickup,
	OrderStatusCustomerReceived,
	OrderStatusCompleted,
}

func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const (
	PaymentStatusPaid   = "Paid"
	PaymentStatusUnpaid = "Unpaid"
)

// ── Actor roles ──

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleViewer   = "viewer"
	RoleCustomer = "customer"
)

// ValidUserRole reports whether s is a role a persisted user may hold.
// Customers are synthesized from order data and never stored as users.
func ValidUserRole(s string) bool {
	switch s {
	case RoleAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// ── Admin log actions ──

const (
	ActionCreateOrder   = "CREATE_ORDER"
	ActionUpdateStatus  = "UPDATE_STATUS"
	ActionTogglePayment = "TOGGLE_PAYMENT"
	ActionUpdateInvoice = "UPDATE_INVOICE"
	ActionDeleteOrder   = "DELETE_ORDER"
	ActionCreateUser    = "CREATE_USER"
	ActionUpdateUser    = "UPDATE_USER"
	ActionDeleteUser    = "DELETE_USER"
	ActionUpdateSetting = "UPDATE_SETTINGS"
)
