package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/middleware"
	"github.com/zahrat-boutique/api/internal/model"
)

type mockUserStore struct {
	users     map[string]model.User
	logs      []model.AdminLogEntry
	lastAdmin bool
	err       error
}

func newMockUserStore(users ...model.User) *mockUserStore {
	m := &mockUserStore{users: make(map[string]model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) GetUsers(_ context.Context) ([]model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockUserStore) SaveUser(_ context.Context, u model.User) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for id, existing := range m.users {
		if existing.Username == u.Username && id != u.ID {
			return false, nil
		}
	}
	m.users[u.ID] = u
	return true, nil
}

func (m *mockUserStore) DeleteUser(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.lastAdmin {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockUserStore) SaveAdminLog(_ context.Context, e model.AdminLogEntry) error {
	m.logs = append(m.logs, e)
	return nil
}

func userRouter(store *mockUserStore) chi.Router {
	h := NewUserHandler(store)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.ContextWithClaims(req.Context(), staffClaims())))
		})
	})
	r.Route("/users", h.RegisterRoutes)
	return r
}

func TestCreateUser(t *testing.T) {
	store := newMockUserStore()
	r := userRouter(store)

	rec := doRequest(t, r, http.MethodPost, "/users", createUserRequest{
		Name:     "Aisha",
		Username: "aisha",
		Pin:      "5566",
		Role:     enum.RoleStaff,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created model.User
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated user id")
	}
	if _, ok := store.users[created.ID]; !ok {
		t.Error("user not persisted")
	}
	if len(store.logs) != 1 || store.logs[0].Action != enum.ActionCreateUser {
		t.Errorf("expected one CREATE_USER log, got %v", store.logs)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	store := newMockUserStore(model.User{ID: "u1", Name: "Aisha", Username: "aisha", Pin: "5566", Role: enum.RoleStaff})
	r := userRouter(store)

	rec := doRequest(t, r, http.MethodPost, "/users", createUserRequest{
		Name:     "Other Aisha",
		Username: "aisha",
		Pin:      "7788",
		Role:     enum.RoleViewer,
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateUserInvalidRole(t *testing.T) {
	r := userRouter(newMockUserStore())

	rec := doRequest(t, r, http.MethodPost, "/users", createUserRequest{
		Name:     "Aisha",
		Username: "aisha",
		Pin:      "5566",
		Role:     "superuser",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateUserMissingFields(t *testing.T) {
	r := userRouter(newMockUserStore())

	rec := doRequest(t, r, http.MethodPost, "/users", createUserRequest{Name: "Aisha", Role: enum.RoleStaff})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateUser(t *testing.T) {
	store := newMockUserStore(model.User{
		ID: "u1", Name: "Aisha", Username: "aisha", Pin: "5566",
		Role: enum.RoleStaff, CreatedAt: time.Now(),
	})
	r := userRouter(store)

	rec := doRequest(t, r, http.MethodPut, "/users/u1", updateUserRequest{Role: enum.RoleAdmin})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if store.users["u1"].Role != enum.RoleAdmin {
		t.Errorf("role = %s, want %s", store.users["u1"].Role, enum.RoleAdmin)
	}
	// Untouched fields keep their values.
	if store.users["u1"].Pin != "5566" {
		t.Errorf("pin = %s, want 5566", store.users["u1"].Pin)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	r := userRouter(newMockUserStore())

	rec := doRequest(t, r, http.MethodPut, "/users/missing", updateUserRequest{Name: "X"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	store := newMockUserStore(model.User{ID: "u1", Name: "Aisha", Username: "aisha", Role: enum.RoleStaff})
	r := userRouter(store)

	rec := doRequest(t, r, http.MethodDelete, "/users/u1", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, ok := store.users["u1"]; ok {
		t.Error("user still present after delete")
	}
	if len(store.logs) != 1 || store.logs[0].Action != enum.ActionDeleteUser {
		t.Errorf("expected one DELETE_USER log, got %v", store.logs)
	}
}

func TestDeleteLastAdminRejected(t *testing.T) {
	store := newMockUserStore(model.User{ID: "u1", Name: "Fatma", Username: "fatma", Role: enum.RoleAdmin})
	store.lastAdmin = true
	r := userRouter(store)

	rec := doRequest(t, r, http.MethodDelete, "/users/u1", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, ok := store.users["u1"]; !ok {
		t.Error("last admin should not have been deleted")
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	r := userRouter(newMockUserStore())

	rec := doRequest(t, r, http.MethodDelete, "/users/missing", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
