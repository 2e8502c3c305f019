package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zahrat-boutique/api/internal/auth"
	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/model"
)

const testSecret = "test-secret"

type mockResolver struct {
	actor auth.Actor
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, identifier, pin string) (auth.Actor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.actor, nil
}

type mockAuthStore struct {
	users map[string]model.User
	err   error
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func testStaffUser() model.User {
	return model.User{
		ID:        "user-1",
		Name:      "Fatma",
		Username:  "fatma",
		Pin:       "4821",
		Role:      enum.RoleAdmin,
		CreatedAt: time.Now(),
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLoginStaff(t *testing.T) {
	h := NewAuthHandler(&mockResolver{actor: auth.StaffActor{User: testStaffUser()}}, &mockAuthStore{}, testSecret)

	rec := postJSON(t, h.Login, loginRequest{Identifier: "fatma", Pin: "4821"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens in response")
	}
	if resp.Actor.Role != enum.RoleAdmin {
		t.Errorf("actor role = %s, want %s", resp.Actor.Role, enum.RoleAdmin)
	}

	claims, err := auth.ValidateToken(testSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.ActorID != "user-1" {
		t.Errorf("actor id in claims = %s", claims.ActorID)
	}
}

func TestLoginCustomer(t *testing.T) {
	h := NewAuthHandler(&mockResolver{actor: auth.CustomerActor{
		CustomerName: "Mariam",
		Phone:        "99887766",
		Pin:          "1234",
	}}, &mockAuthStore{}, testSecret)

	rec := postJSON(t, h.Login, loginRequest{Identifier: "99887766", Pin: "1234"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	claims, err := auth.ValidateToken(testSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Role != enum.RoleCustomer {
		t.Errorf("role = %s, want %s", claims.Role, enum.RoleCustomer)
	}
	if claims.Phone != "99887766" {
		t.Errorf("phone = %s, want 99887766", claims.Phone)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockResolver{err: auth.ErrNoMatch}, &mockAuthStore{}, testSecret)

	rec := postJSON(t, h.Login, loginRequest{Identifier: "nobody", Pin: "0000"})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	h := NewAuthHandler(&mockResolver{}, &mockAuthStore{}, testSecret)

	rec := postJSON(t, h.Login, loginRequest{Identifier: "fatma"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginResolverError(t *testing.T) {
	h := NewAuthHandler(&mockResolver{err: errors.New("db down")}, &mockAuthStore{}, testSecret)

	rec := postJSON(t, h.Login, loginRequest{Identifier: "fatma", Pin: "4821"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRefreshStaff(t *testing.T) {
	user := testStaffUser()
	store := &mockAuthStore{users: map[string]model.User{user.ID: user}}
	h := NewAuthHandler(&mockResolver{}, store, testSecret)

	refreshToken, err := auth.GenerateRefreshToken(testSecret, auth.StaffActor{User: user})
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rec := postJSON(t, h.Refresh, refreshRequest{RefreshToken: refreshToken})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Actor.ID != user.ID {
		t.Errorf("actor id = %s, want %s", resp.Actor.ID, user.ID)
	}
}

func TestRefreshDeletedUser(t *testing.T) {
	user := testStaffUser()
	// The store no longer has the user: the refresh must fail.
	h := NewAuthHandler(&mockResolver{}, &mockAuthStore{users: map[string]model.User{}}, testSecret)

	refreshToken, err := auth.GenerateRefreshToken(testSecret, auth.StaffActor{User: user})
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rec := postJSON(t, h.Refresh, refreshRequest{RefreshToken: refreshToken})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshCustomer(t *testing.T) {
	h := NewAuthHandler(&mockResolver{}, &mockAuthStore{}, testSecret)

	refreshToken, err := auth.GenerateRefreshToken(testSecret, auth.CustomerActor{
		CustomerName: "Mariam",
		Phone:        "99887766",
	})
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rec := postJSON(t, h.Refresh, refreshRequest{RefreshToken: refreshToken})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := auth.ValidateToken(testSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Phone != "99887766" {
		t.Errorf("phone = %s, want 99887766", claims.Phone)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	h := NewAuthHandler(&mockResolver{}, &mockAuthStore{}, testSecret)

	rec := postJSON(t, h.Refresh, refreshRequest{RefreshToken: "not-a-token"})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthRoutesRegistered(t *testing.T) {
	h := NewAuthHandler(&mockResolver{err: auth.ErrNoMatch}, &mockAuthStore{}, testSecret)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{"identifier":"x","pin":"y"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
