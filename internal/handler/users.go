package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/middleware"
	"github.com/zahrat-boutique/api/internal/model"
)

// UserStore is the persistence surface for staff account management.
type UserStore interface {
	GetUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	SaveUser(ctx context.Context, u model.User) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	SaveAdminLog(ctx context.Context, e model.AdminLogEntry) error
}

// UserHandler handles staff account endpoints. Admin only.
type UserHandler struct {
	store UserStore
}

func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes registers user endpoints on the given Chi router.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Pin      string `json:"pin"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Pin      string `json:"pin"`
	Role     string `json:"role"`
}

// List returns every staff account.
// Endpoint: GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.GetUsers(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch users"})
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create adds a staff account. Usernames are unique; a clash returns 409.
// Endpoint: POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Username == "" || req.Pin == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, username and pin are required"})
		return
	}
	if !enum.ValidUserRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role: " + req.Role})
		return
	}

	user := model.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Username:  req.Username,
		Pin:       req.Pin,
		Role:      req.Role,
		CreatedAt: time.Now(),
	}

	saved, err := h.store.SaveUser(r.Context(), user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save user"})
		return
	}
	if !saved {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
		return
	}

	h.logAction(r, enum.ActionCreateUser, fmt.Sprintf("Created user %q with role %s.", user.Username, user.Role))
	writeJSON(w, http.StatusCreated, user)
}

// Update modifies an existing staff account.
// Endpoint: PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Pin != "" {
		user.Pin = req.Pin
	}
	if req.Role != "" {
		if !enum.ValidUserRole(req.Role) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role: " + req.Role})
			return
		}
		user.Role = req.Role
	}

	saved, err := h.store.SaveUser(r.Context(), *user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save user"})
		return
	}
	if !saved {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
		return
	}

	h.logAction(r, enum.ActionUpdateUser, fmt.Sprintf("Updated user %q.", user.Username))
	writeJSON(w, http.StatusOK, user)
}

// Delete removes a staff account. The last remaining admin cannot be
// deleted; the store refuses and we answer 400.
// Endpoint: DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	deleted, err := h.store.DeleteUser(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete user"})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot delete the last admin account"})
		return
	}

	h.logAction(r, enum.ActionDeleteUser, fmt.Sprintf("Deleted user %q.", user.Username))
	w.WriteHeader(http.StatusNoContent)
}

// logAction records the admin action; failures never fail the request.
func (h *UserHandler) logAction(r *http.Request, action, details string) {
	claims := middleware.ClaimsFromContext(r.Context())
	adminName := ""
	if claims != nil {
		adminName = claims.Name
	}
	_ = h.store.SaveAdminLog(r.Context(), model.AdminLogEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		AdminName: adminName,
		Action:    action,
		Details:   details,
	})
}
