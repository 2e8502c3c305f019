// Package advisor asks an external text-completion service for a short
// next-step suggestion about a booking's current status. The advice is
// cosmetic: any failure falls back to a built-in message and is never
// surfaced to the caller.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zahrat-boutique/api/internal/enum"
)

const fallbackAdvice = "Proceed with the next stage of garment preparation and quality assurance."

// defaultAdvice keys a static suggestion on each lifecycle status, used
// whenever the remote service is unconfigured, slow, or unhelpful.
var defaultAdvice = map[string]string{
	enum.OrderStatusCreated:          "Confirm measurements and fabric selection with the client.",
	enum.OrderStatusInShop:           "Begin tailoring work and schedule the first fitting.",
	enum.OrderStatusReadyToPickup:    "Finalize the garment quality check and prepare for client fitting.",
	enum.OrderStatusCustomerReceived: "Follow up on fit satisfaction and note any alteration requests.",
	enum.OrderStatusCompleted:        "Archive the booking details and invite the client back.",
}

type adviceRequest struct {
	Status string `json:"status"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

// Client calls the advisory service. A zero base URL disables remote calls
// entirely and every lookup resolves from the default table.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetStatusAdvice returns a suggestion string for the given status. It never
// returns an error: timeouts, transport failures, bad responses and empty
// replies all degrade to the static default for that status.
func (c *Client) GetStatusAdvice(ctx context.Context, status string) string {
	if c.baseURL == "" {
		return fallback(status)
	}

	body, err := json.Marshal(adviceRequest{Status: status})
	if err != nil {
		return fallback(status)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/advice", bytes.NewReader(body))
	if err != nil {
		return fallback(status)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("advisor unreachable, using fallback")
		return fallback(status)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status_code", resp.StatusCode).Debug("advisor returned non-OK, using fallback")
		return fallback(status)
	}

	var out adviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fallback(status)
	}
	if advice := strings.TrimSpace(out.Advice); advice != "" {
		return advice
	}
	return fallback(status)
}

func fallback(status string) string {
	if advice, ok := defaultAdvice[status]; ok {
		return advice
	}
	return fallbackAdvice
}
