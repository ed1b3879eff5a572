package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bmsinventoryspace-netizen/BMS/internal/order"
	"github.com/bmsinventoryspace-netizen/BMS/internal/session"
)

type OrderHandler struct {
	sessions  *session.Registry
	submitter *order.Submitter
	timeout   time.Duration
}

func NewOrderHandler(sessions *session.Registry, submitter *order.Submitter, timeout time.Duration) *OrderHandler {
	return &OrderHandler{sessions: sessions, submitter: submitter, timeout: timeout}
}

// Submit posts the session's cart as an order. Submissions are serialized
// per session, and the cart is emptied only after the submitter returns
// successfully, so a failed submission leaves it exactly as it was and the
// user can retry by clicking again. Only the submitted snapshot is deducted:
// units added while the order was in flight stay in the cart.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	sess := h.sessions.Get(sessionID)
	ledger := sess.Ledger

	sess.SubmitMu.Lock()
	defer sess.SubmitMu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snapshot := ledger.Snapshot()
	receipt, err := h.submitter.Submit(ctx, snapshot)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
		case errors.Is(err, order.ErrSubmissionFailed):
			respondError(w, http.StatusBadGateway, "submission_failed", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	ledger.Deduct(snapshot)
	respondJSON(w, http.StatusCreated, receipt)
}
