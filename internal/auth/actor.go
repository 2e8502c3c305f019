package auth

import (
	"time"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/model"
)

// Actor is whoever is performing an action: a persisted staff/admin/viewer
// user, or a customer synthesized from order data. The two identity
// universes stay separate types so each resolution path can be reasoned
// about (and tested) on its own.
type Actor interface {
	ActorID() string
	Name() string
	Username() string
	Role() string
	CreatedAt() time.Time
}

// StaffActor wraps a persisted User record.
type StaffActor struct {
	User model.User
}

func (a StaffActor) ActorID() string      { return a.User.ID }
func (a StaffActor) Name() string         { return a.User.Name }
func (a StaffActor) Username() string     { return a.User.Username }
func (a StaffActor) Role() string         { return a.User.Role }
func (a StaffActor) CreatedAt() time.Time { return a.User.CreatedAt }

// CustomerActor is a transient identity built from a matching order. It has
// no standalone record: the phone doubles as username and the id is derived
// from it.
type CustomerActor struct {
	CustomerName string
	Phone        string
	Pin          string
	FirstOrderAt time.Time
}

func (a CustomerActor) ActorID() string      { return "cust-" + a.Phone }
func (a CustomerActor) Name() string         { return a.CustomerName }
func (a CustomerActor) Username() string     { return a.Phone }
func (a CustomerActor) Role() string         { return enum.RoleCustomer }
func (a CustomerActor) CreatedAt() time.Time { return a.FirstOrderAt }
