package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bmsinventoryspace-netizen/BMS/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Client
	timeout time.Duration
}

func NewCatalogHandler(c *catalog.Client, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: c, timeout: timeout}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Items())
}

func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.Refresh(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrFetch) {
			respondError(w, http.StatusBadGateway, "fetch_failed", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// TrackView forwards the view counter bump and answers immediately; the
// upstream result is discarded by contract.
func (h *CatalogHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	articleID, err := strconv.ParseInt(chi.URLParam(r, "article_id"), 10, 64)
	if err != nil || articleID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_article_id", "article_id must be a positive integer")
		return
	}

	h.catalog.TrackView(articleID)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
