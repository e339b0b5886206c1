package handler

import (
	"net/http"

	"github.com/dhobi-app/ordering/internal/schedule"
	"github.com/go-chi/chi/v5"
)

// ScheduleStore defines the store methods needed by the schedule handlers.
// Satisfied by *store.Store; narrow interface for testability.
type ScheduleStore interface {
	Schedules() []schedule.Definition
	Slots(companyID string) []schedule.Slot
}

// ScheduleHandler serves schedule definitions and pickup slots.
type ScheduleHandler struct {
	store ScheduleStore
}

func NewScheduleHandler(store ScheduleStore) *ScheduleHandler {
	return &ScheduleHandler{store: store}
}

func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/schedules", h.ListSchedules)
	r.Get("/slots", h.ListSlots)
}

// ListSchedules handles GET /schedules.
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	defs := h.store.Schedules()
	if defs == nil {
		defs = []schedule.Definition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

// ListSlots handles GET /slots?CompanyID=.
func (h *ScheduleHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("CompanyID")
	if companyID == "" {
		writeMessage(w, http.StatusBadRequest, "CompanyID is required")
		return
	}

	slots := h.store.Slots(companyID)
	if slots == nil {
		slots = []schedule.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}
