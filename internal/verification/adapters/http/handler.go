package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/app"
)

const (
	ActionVerifyOrder      = "verify_order"
	ActionVerifyUsername   = "verify_username"
	ActionRegisterDelivery = "register_delivery"
)

// Handler exposes the single verification endpoint.
type Handler struct {
	service app.VerificationService
	budget  time.Duration
}

// NewHandler constructs a Handler. budget is the overall wall-clock ceiling
// applied to each request so internal fallback loops stay below the platform
// timeout.
func NewHandler(service app.VerificationService, budget time.Duration) *Handler {
	return &Handler{service: service, budget: budget}
}

// Register binds the endpoint to the router.
func (h *Handler) Register(r chi.Router) {
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Options("/v1/verify", h.preflight)
	r.Post("/v1/verify", h.verify)
}

func (h *Handler) preflight(w http.ResponseWriter, _ *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// request is the inbound envelope. An explicit action wins; otherwise the
// action is inferred from which field group is present, and ambiguous bodies
// are rejected rather than guessed at.
type request struct {
	Action      string                     `json:"action"`
	OrderNumber string                     `json:"orderNumber"`
	Email       string                     `json:"email"`
	Username    string                     `json:"username"`
	Delivery    *app.RegisterDeliveryInput `json:"deliveryData"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	action, err := resolveAction(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch action {
	case ActionVerifyOrder:
		h.verifyOrder(ctx, w, req)
	case ActionVerifyUsername:
		h.verifyUsername(ctx, w, req)
	case ActionRegisterDelivery:
		h.registerDelivery(ctx, w, req)
	}
}

// resolveAction applies the dispatch precedence: explicit action tag first,
// else structural inference from mutually exclusive field patterns.
func resolveAction(req request) (string, error) {
	if req.Action != "" {
		switch req.Action {
		case ActionVerifyOrder, ActionVerifyUsername, ActionRegisterDelivery:
			return req.Action, nil
		}
		return "", errors.New("unknown action; expected verify_order, verify_username or register_delivery")
	}

	var matched []string
	if strings.TrimSpace(req.OrderNumber) != "" || strings.TrimSpace(req.Email) != "" {
		matched = append(matched, ActionVerifyOrder)
	}
	if strings.TrimSpace(req.Username) != "" {
		matched = append(matched, ActionVerifyUsername)
	}
	if req.Delivery != nil {
		matched = append(matched, ActionRegisterDelivery)
	}

	switch len(matched) {
	case 1:
		return matched[0], nil
	case 0:
		return "", errors.New("unrecognized request: expected orderNumber+email, username, or deliveryData")
	default:
		return "", errors.New("ambiguous request: fields for " + strings.Join(matched, " and ") + " were both present")
	}
}

func (h *Handler) verifyOrder(ctx context.Context, w http.ResponseWriter, req request) {
	order, err := h.service.VerifyOrder(ctx, app.VerifyOrderInput{
		OrderNumber: req.OrderNumber,
		Email:       req.Email,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) verifyUsername(ctx context.Context, w http.ResponseWriter, req request) {
	identity, err := h.service.VerifyUsername(ctx, req.Username)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *Handler) registerDelivery(ctx context.Context, w http.ResponseWriter, req request) {
	// Reachable with a nil payload when the action tag was explicit.
	if req.Delivery == nil {
		writeError(w, http.StatusBadRequest, "deliveryData is required")
		return
	}

	result, err := h.service.RegisterDelivery(ctx, *req.Delivery)
	if err != nil {
		if errors.Is(err, apperr.ErrSinkFailure) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":       "failed to record registration",
				"canContinue": true,
			})
			return
		}
		respondServiceError(w, err)
		return
	}

	if !result.Synced {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success":        true,
			"registrationId": result.RegistrationID,
			"data":           result.Record,
			"warning":        "registration accepted, sync to the datastore is pending",
			"canContinue":    true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"registrationId": result.RegistrationID,
		"data":           result.Record,
	})
}

// respondServiceError maps use-case errors onto the endpoint contract.
// Server-side faults get a generic message so configuration details never
// leak to the caller.
func respondServiceError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)

	var inel *apperr.IneligibleError
	if errors.As(err, &inel) {
		writeJSON(w, status, map[string]any{
			"error":  inel.Detail,
			"reason": inel.Reason,
		})
		return
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
