package handler

import (
	"net/http"

	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/go-chi/chi/v5"
)

// PriceStore defines the store methods needed by the price-list handler.
// Satisfied by *store.Store; narrow interface for testability.
type PriceStore interface {
	PriceList(companyID, branchID string) []catalog.PriceEntry
}

// PriceHandler serves the per-branch price list.
type PriceHandler struct {
	store PriceStore
}

func NewPriceHandler(store PriceStore) *PriceHandler {
	return &PriceHandler{store: store}
}

func (h *PriceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/price-list", h.List)
}

// List handles GET /price-list?CompanyId=&BranchID=.
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("CompanyId")
	branchID := r.URL.Query().Get("BranchID")
	if companyID == "" || branchID == "" {
		writeMessage(w, http.StatusBadRequest, "CompanyId and BranchID are required")
		return
	}

	rows := h.store.PriceList(companyID, branchID)
	if len(rows) == 0 {
		writeMessage(w, http.StatusNotFound, "no price details found for this branch")
		return
	}

	writeJSON(w, http.StatusOK, rows)
}
