package httpapi

import (
	"net/http"
	"time"

	"github.com/bmsinventoryspace-netizen/BMS/internal/notify"
	"github.com/bmsinventoryspace-netizen/BMS/internal/unseen"
)

// PushStater reports the current push subscription state for the badge
// endpoint; nil when no push backend is configured.
type PushStater interface {
	State() notify.State
}

type NotificationsHandler struct {
	hub  *unseen.Hub
	push PushStater
}

func NewNotificationsHandler(hub *unseen.Hub, push PushStater) *NotificationsHandler {
	return &NotificationsHandler{hub: hub, push: push}
}

type unseenResponse struct {
	HasUnseen          bool   `json:"has_unseen"`
	LastAcknowledgedAt string `json:"last_acknowledged_at,omitempty"`
	PushState          string `json:"push_state,omitempty"`
}

func (h *NotificationsHandler) Unseen(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	state := h.hub.Marker(sessionID).State()
	resp := unseenResponse{HasUnseen: state.HasUnseen}
	if !state.LastAcknowledgedAt.IsZero() {
		resp.LastAcknowledgedAt = state.LastAcknowledgedAt.Format(time.RFC3339Nano)
	}
	if h.push != nil {
		resp.PushState = h.push.State().String()
	}

	respondJSON(w, http.StatusOK, resp)
}

// Acknowledge clears the badge for this browser. Called when the user opens
// the deals view, not on mere badge rendering.
func (h *NotificationsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	state := h.hub.Marker(sessionID).Acknowledge()
	respondJSON(w, http.StatusOK, unseenResponse{
		HasUnseen:          state.HasUnseen,
		LastAcknowledgedAt: state.LastAcknowledgedAt.Format(time.RFC3339Nano),
	})
}
