package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zahrat-boutique/api/internal/auth"
	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/model"
)

// ActorResolver authenticates a credential pair. Satisfied by *auth.Resolver.
type ActorResolver interface {
	Resolve(ctx context.Context, identifier, pin string) (auth.Actor, error)
}

// AuthStore looks up persisted users for token refresh.
// Satisfied by *postgres.Store; narrow interface for testability.
type AuthStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	resolver  ActorResolver
	store     AuthStore
	jwtSecret string
}

func NewAuthHandler(resolver ActorResolver, store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{resolver: resolver, store: store, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

// --- Request / Response types ---

type loginRequest struct {
	Identifier string `json:"identifier"`
	Pin        string `json:"pin"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Actor        actorResponse `json:"actor"`
}

type actorResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// --- Handlers ---

// Login authenticates a single identifier + PIN pair. The identifier may be
// a staff username, or — for customers — an order ID, customer name or
// phone number.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Identifier == "" || req.Pin == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "identifier and pin are required"})
		return
	}

	actor, err := h.resolver.Resolve(r.Context(), req.Identifier, req.Pin)
	if err != nil {
		if errors.Is(err, auth.ErrNoMatch) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithTokens(w, actor)
}

// Refresh exchanges a valid refresh token for a new token pair. Staff are
// re-read from the store so revoked users lose access; customer actors are
// rebuilt from the claims since they have no persisted record.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "refresh_token is required"})
		return
	}

	claims, err := auth.ValidateToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}

	if claims.Role == enum.RoleCustomer {
		h.respondWithTokens(w, auth.CustomerActor{
			CustomerName: claims.Name,
			Phone:        claims.Phone,
		})
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.ActorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
		return
	}

	h.respondWithTokens(w, auth.StaffActor{User: *user})
}

// --- Helpers ---

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, actor auth.Actor) {
	accessToken, err := auth.GenerateToken(h.jwtSecret, actor)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	refreshToken, err := auth.GenerateRefreshToken(h.jwtSecret, actor)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Actor: actorResponse{
			ID:       actor.ActorID(),
			Name:     actor.Name(),
			Username: actor.Username(),
			Role:     actor.Role(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
