package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/middleware"
	"github.com/zahrat-boutique/api/internal/model"
)

// SettingsStore is the persistence surface for shop settings.
type SettingsStore interface {
	GetVatRate(ctx context.Context) (decimal.Decimal, error)
	SaveVatRate(ctx context.Context, rate decimal.Decimal) error
	GetShopPhone(ctx context.Context) (string, error)
	SaveShopPhone(ctx context.Context, phone string) error
	SaveAdminLog(ctx context.Context, e model.AdminLogEntry) error
}

// SettingsHandler handles shop settings endpoints. Admin only.
type SettingsHandler struct {
	store SettingsStore
}

func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

type updateSettingsRequest struct {
	VatRate   string `json:"vat_rate"`
	ShopPhone string `json:"shop_phone"`
}

// Get returns the current shop settings.
// Endpoint: GET /settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rate, err := h.store.GetVatRate(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch settings"})
		return
	}
	phone, err := h.store.GetShopPhone(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch settings"})
		return
	}

	writeJSON(w, http.StatusOK, model.Settings{VatRate: rate, ShopPhone: phone})
}

// Update changes the VAT rate and shop phone. The new rate applies to
// orders booked after the change; existing orders keep their snapshot.
// Endpoint: PUT /settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.VatRate != "" {
		rate, err := decimal.NewFromString(req.VatRate)
		if err != nil || rate.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vat_rate: " + req.VatRate})
			return
		}
		if err := h.store.SaveVatRate(r.Context(), rate); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
			return
		}
		h.logAction(r, fmt.Sprintf("Set VAT rate to %s%%.", rate.String()))
	}

	if req.ShopPhone != "" {
		if err := h.store.SaveShopPhone(r.Context(), req.ShopPhone); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
			return
		}
		h.logAction(r, fmt.Sprintf("Set shop phone to %s.", req.ShopPhone))
	}

	h.Get(w, r)
}

func (h *SettingsHandler) logAction(r *http.Request, details string) {
	claims := middleware.ClaimsFromContext(r.Context())
	adminName := ""
	if claims != nil {
		adminName = claims.Name
	}
	_ = h.store.SaveAdminLog(r.Context(), model.AdminLogEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		AdminName: adminName,
		Action:    enum.ActionUpdateSetting,
		Details:   details,
	})
}
