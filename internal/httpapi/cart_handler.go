package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bmsinventoryspace-netizen/BMS/internal/cart"
	"github.com/bmsinventoryspace-netizen/BMS/internal/session"
)

type CartHandler struct {
	sessions *session.Registry
}

func NewCartHandler(sessions *session.Registry) *CartHandler {
	return &CartHandler{sessions: sessions}
}

type AddItemRequestDTO struct {
	ArticleID int64 `json:"article_id"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) ledger(w http.ResponseWriter, r *http.Request) *cart.Ledger {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return nil
	}
	return h.sessions.Get(sessionID).Ledger
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ledger := h.ledger(w, r)
	if ledger == nil {
		return
	}
	respondJSON(w, http.StatusOK, ledger.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ledger := h.ledger(w, r)
	if ledger == nil {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ArticleID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "article_id must be positive")
		return
	}

	if err := ledger.Add(req.ArticleID); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, ledger.Snapshot())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ledger := h.ledger(w, r)
	if ledger == nil {
		return
	}

	articleID, err := strconv.ParseInt(chi.URLParam(r, "article_id"), 10, 64)
	if err != nil || articleID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "article_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero")
		return
	}

	if err := ledger.SetQuantity(articleID, req.Delta); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ledger.Snapshot())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ledger := h.ledger(w, r)
	if ledger == nil {
		return
	}

	articleID, err := strconv.ParseInt(chi.URLParam(r, "article_id"), 10, 64)
	if err != nil || articleID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "article_id must be a positive integer")
		return
	}

	ledger.Remove(articleID)
	respondJSON(w, http.StatusOK, ledger.Snapshot())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ledger := h.ledger(w, r)
	if ledger == nil {
		return
	}

	ledger.Clear()
	respondJSON(w, http.StatusOK, ledger.Snapshot())
}

// handleCartError maps ledger validation failures onto HTTP statuses. These
// are resolved entirely client-side; nothing here ever reached the network.
func handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, cart.ErrQuantityExceeded):
		respondError(w, http.StatusConflict, "quantity_exceeded", err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "not_in_cart", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
