package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/zahrat-boutique/api/internal/model"
)

// ErrNoMatch is returned for every failed authentication. It deliberately
// carries no detail about which field was wrong, so identifiers cannot be
// enumerated through the login endpoint.
var ErrNoMatch = errors.New("invalid credentials")

// UserSource lists persisted users. Satisfied by *postgres.Store.
type UserSource interface {
	GetUsers(ctx context.Context) ([]model.User, error)
}

// OrderSource lists orders for the customer resolution path.
// Satisfied by *postgres.Store.
type OrderSource interface {
	GetOrders(ctx context.Context) ([]model.Order, error)
}

// Resolver authenticates a single (identifier, pin) credential pair against
// two disjoint identity universes: stable staff usernames first, then ad hoc
// customer lookup across orders by order ID, name or phone.
//
// PINs are stored and compared in plaintext. They are low-entropy 4-digit
// codes that only gate booking lookups within one boutique; hashing them
// would break the source system's data and is left as a deployment decision.
type Resolver struct {
	users  UserSource
	orders OrderSource
}

func NewResolver(users UserSource, orders OrderSource) *Resolver {
	return &Resolver{users: users, orders: orders}
}

// Resolve returns the matching actor, or ErrNoMatch. First match wins:
// staff/admin/viewer users shadow customers on identifier collisions.
func (r *Resolver) Resolve(ctx context.Context, identifier, pin string) (Actor, error) {
	users, err := r.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, identifier) && u.Pin == pin {
			return StaffActor{User: u}, nil
		}
	}

	orders, err := r.orders.GetOrders(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.CustomerPin != pin {
			continue
		}
		if strings.EqualFold(o.ID, identifier) ||
			strings.EqualFold(o.CustomerName, identifier) ||
			o.CustomerPhone == identifier {
			return CustomerActor{
				CustomerName: o.CustomerName,
				Phone:        o.CustomerPhone,
				Pin:          o.CustomerPin,
				FirstOrderAt: o.CreatedAt,
			}, nil
		}
	}

	return nil, ErrNoMatch
}
