package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/logger"
)

// Webhook payloads are small JSON documents; anything larger is hostile.
const maxWebhookBody = 1 << 20

type handlers struct {
	svc       billing.Service
	sigHeader string
	log       *slog.Logger
}

// handleWebhook ingests one processor event. Response codes drive the
// processor's redelivery: 200 stops it, 400 marks the delivery bad, and 5xx
// makes it retry.
func (h *handlers) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	err = h.svc.HandleWebhook(r.Context(), payload, r.Header.Get(h.sigHeader))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	case errors.Is(err, billing.ErrInvalidSignature), errors.Is(err, billing.ErrMissingPayload):
		writeError(w, http.StatusBadRequest, "invalid webhook")
	default:
		h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "webhook processing failed")
	}
}

type checkoutRequest struct {
	TeamID       uuid.UUID    `json:"team_id"`
	UserID       uuid.UUID    `json:"user_id"`
	Tier         billing.Tier `json:"tier"`
	SwimmerCount int64        `json:"swimmer_count"`
	Email        string       `json:"email"`
}

func (h *handlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.StartCheckout(r.Context(), billing.CheckoutParams{
		TeamID:       req.TeamID,
		UserID:       req.UserID,
		Tier:         req.Tier,
		SwimmerCount: req.SwimmerCount,
		Email:        req.Email,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"url": session.URL, "session_id": session.SessionID})
	case errors.Is(err, billing.ErrMissingField), errors.Is(err, billing.ErrInvalidTier):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrPriceNotConfigured):
		h.log.ErrorContext(r.Context(), "checkout with unconfigured price", logger.Tier(req.Tier))
		writeError(w, http.StatusInternalServerError, "billing is not configured for this plan")
	default:
		h.log.ErrorContext(r.Context(), "checkout failed", logger.TeamID(req.TeamID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start checkout")
	}
}

type portalRequest struct {
	TeamID uuid.UUID `json:"team_id"`
	UserID uuid.UUID `json:"user_id"`
}

func (h *handlers) handlePortal(w http.ResponseWriter, r *http.Request) {
	var req portalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.StartPortal(r.Context(), billing.PortalParams{
		TeamID: req.TeamID,
		UserID: req.UserID,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"url": session.URL})
	case errors.Is(err, billing.ErrMissingField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrNoCustomer):
		writeError(w, http.StatusNotFound, "team has no billing customer")
	default:
		h.log.ErrorContext(r.Context(), "portal session failed", logger.TeamID(req.TeamID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to open billing portal")
	}
}

type subscriptionResponse struct {
	TeamID             uuid.UUID      `json:"team_id"`
	Status             billing.Status `json:"status"`
	Tier               billing.Tier   `json:"tier"`
	TrialEnd           *time.Time     `json:"trial_end,omitempty"`
	CurrentPeriodStart *time.Time     `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time     `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool           `json:"cancel_at_period_end"`
}

func (h *handlers) handleSubscription(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	sub, err := h.svc.Subscription(r.Context(), teamID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, subscriptionResponse{
			TeamID:             sub.TeamID,
			Status:             sub.Status,
			Tier:               sub.Tier,
			TrialEnd:           sub.TrialEnd,
			CurrentPeriodStart: sub.CurrentPeriodStart,
			CurrentPeriodEnd:   sub.CurrentPeriodEnd,
			CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		})
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "no subscription record")
	default:
		h.log.ErrorContext(r.Context(), "subscription lookup failed", logger.TeamID(teamID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load subscription")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
