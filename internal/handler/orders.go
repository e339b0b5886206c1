package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/dhobi-app/ordering/internal/middleware"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/service"
	"github.com/dhobi-app/ordering/internal/store"
	"github.com/dhobi-app/ordering/internal/ws"
	"github.com/go-chi/chi/v5"
)

// RequestKeyHeader mirrors the client's submission idempotency header.
const RequestKeyHeader = "X-Request-Key"

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(draft *order.Draft, requestKey string) (*store.StoredOrder, error)
	CancelOrder(orderID string) (*store.StoredOrder, error)
	UpdateStatus(orderID string, newCode int) (*store.StoredOrder, error)
}

// OrderStore defines the store methods needed by the order read handlers.
// Satisfied by *store.Store.
type OrderStore interface {
	GetOrder(orderID string) (*store.StoredOrder, error)
	OrdersByUser(userID string) []*store.StoredOrder
}

// Broadcaster pushes status events to ws watchers. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToOrder(orderID string, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/summary", h.Summary)
	r.Put("/{id}/cancel", h.Cancel)
	r.Patch("/{id}/status", h.UpdateStatus)
}

type cancelRequest struct {
	OrderStatus int `json:"OrderStatus"`
}

type updateStatusRequest struct {
	OrderStatus int `json:"OrderStatus"`
}

type summaryResponse struct {
	Orders []order.SummaryLine `json:"orders"`
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var draft order.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.UserID != claims.UserID {
		writeMessage(w, http.StatusForbidden, "cannot place orders for another user")
		return
	}

	created, err := h.svc.PlaceOrder(&draft, r.Header.Get(RequestKeyHeader))
	if err != nil {
		if isValidationError(err) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ERROR: place order: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, created.Order)
}

// List handles GET /orders?userId=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}
	if userID != claims.UserID {
		writeMessage(w, http.StatusForbidden, "cannot read another user's orders")
		return
	}

	stored := h.store.OrdersByUser(userID)
	orders := make([]order.Order, len(stored))
	for i, o := range stored {
		orders[i] = o.Order
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o.Order)
}

// Summary handles GET /orders/{id}/summary.
func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	o, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}
	lines := o.Summary
	if lines == nil {
		lines = []order.SummaryLine{}
	}
	writeJSON(w, http.StatusOK, summaryResponse{Orders: lines})
}

// Cancel handles PUT /orders/{id}/cancel. Cancelling an already-cancelled
// order succeeds with the unchanged record.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := chi.URLParam(r, "id")

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderStatus != enum.StatusCancelled {
		writeMessage(w, http.StatusBadRequest, "cancel must set OrderStatus to 5")
		return
	}

	cancelled, err := h.svc.CancelOrder(orderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			writeMessage(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrNotCancellable):
			writeMessage(w, http.StatusConflict, "order can no longer be cancelled")
		default:
			log.Printf("ERROR: cancel order: %v", err)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.broadcastStatus(cancelled)
	writeJSON(w, http.StatusOK, cancelled.Order)
}

// UpdateStatus handles PATCH /orders/{id}/status, used by the laundry side
// to move an order along the lifecycle.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.UpdateStatus(orderID, req.OrderStatus)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			writeMessage(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrInvalidTransition):
			writeMessage(w, http.StatusConflict, err.Error())
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.broadcastStatus(updated)
	writeJSON(w, http.StatusOK, updated.Order)
}

// fetchOwned loads the order and enforces that it belongs to the caller.
func (h *OrderHandler) fetchOwned(w http.ResponseWriter, r *http.Request) (*store.StoredOrder, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}

	o, err := h.store.GetOrder(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeMessage(w, http.StatusNotFound, "order not found")
			return nil, false
		}
		log.Printf("ERROR: get order: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if o.UserID != claims.UserID {
		writeMessage(w, http.StatusForbidden, "cannot read another user's orders")
		return nil, false
	}
	return o, true
}

func (h *OrderHandler) broadcastStatus(o *store.StoredOrder) {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":    o.ID,
		"status":      o.Status,
		"status_name": o.StatusName,
	})
	if err != nil {
		log.Printf("ERROR: marshal status event: %v", err)
		return
	}
	h.hub.BroadcastToOrder(o.ID, ws.Event{Type: "order.status", Payload: payload})
}

// isValidationError checks if the error is a known validation error from
// the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidPickupDate) ||
		errors.Is(err, service.ErrUnknownPriceEntry) ||
		errors.Is(err, service.ErrPriceMismatch) ||
		errors.Is(err, service.ErrTotalMismatch)
}
