package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhobi-app/ordering/internal/auth"
	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/dhobi-app/ordering/internal/handler"
	"github.com/dhobi-app/ordering/internal/middleware"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/service"
	"github.com/dhobi-app/ordering/internal/store"
	"github.com/dhobi-app/ordering/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// --- Mock OrderServicer ---

type mockOrderServicer struct {
	placeFn  func(draft *order.Draft, requestKey string) (*store.StoredOrder, error)
	cancelFn func(orderID string) (*store.StoredOrder, error)
	updateFn func(orderID string, newCode int) (*store.StoredOrder, error)
}

func (m *mockOrderServicer) PlaceOrder(draft *order.Draft, requestKey string) (*store.StoredOrder, error) {
	return m.placeFn(draft, requestKey)
}

func (m *mockOrderServicer) CancelOrder(orderID string) (*store.StoredOrder, error) {
	return m.cancelFn(orderID)
}

func (m *mockOrderServicer) UpdateStatus(orderID string, newCode int) (*store.StoredOrder, error) {
	return m.updateFn(orderID, newCode)
}

// --- Mock OrderStore ---

type mockOrderReader struct {
	getFn  func(orderID string) (*store.StoredOrder, error)
	listFn func(userID string) []*store.StoredOrder
}

func (m *mockOrderReader) GetOrder(orderID string) (*store.StoredOrder, error) {
	if m.getFn != nil {
		return m.getFn(orderID)
	}
	return nil, store.ErrOrderNotFound
}

func (m *mockOrderReader) OrdersByUser(userID string) []*store.StoredOrder {
	if m.listFn != nil {
		return m.listFn(userID)
	}
	return nil
}

// --- Mock Broadcaster ---

type mockBroadcaster struct {
	events []ws.Event
}

func (m *mockBroadcaster) BroadcastToOrder(orderID string, event ws.Event) {
	m.events = append(m.events, event)
}

// --- Test helpers ---

const testJWTSecret = "test-secret-for-orders"

func setupOrderRouter(svc handler.OrderServicer, st handler.OrderStore, hub handler.Broadcaster) *chi.Mux {
	h := handler.NewOrderHandler(svc, st, hub)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/orders", h.RegisterRoutes)
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, userID, "b1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func storedOrder(id, userID string, status int) *store.StoredOrder {
	s, name := status, ""
	switch status {
	case enum.StatusOrderPlaced:
		name = enum.StatusNameOrderPlaced
	case enum.StatusCancelled:
		name = enum.StatusNameCancelled
	case enum.StatusPickedUp:
		name = enum.StatusNamePickedUp
	}
	return &store.StoredOrder{
		Order: order.Order{
			ID:          id,
			CompanyID:   "c1",
			Status:      s,
			StatusName:  name,
			TotalAmount: decimal.NewFromInt(40),
		},
		UserID: userID,
	}
}

// --- Create ---

func TestCreateOrder_RequiresOwnUser(t *testing.T) {
	svc := &mockOrderServicer{placeFn: func(draft *order.Draft, requestKey string) (*store.StoredOrder, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	router := setupOrderRouter(svc, &mockOrderReader{}, &mockBroadcaster{})

	draft := order.Draft{UserID: "someone-else"}
	rr := doAuthRequest(t, router, http.MethodPost, "/orders", draft, "u1")
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestCreateOrder_ValidationErrorIs400(t *testing.T) {
	svc := &mockOrderServicer{placeFn: func(draft *order.Draft, requestKey string) (*store.StoredOrder, error) {
		return nil, service.ErrTotalMismatch
	}}
	router := setupOrderRouter(svc, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodPost, "/orders", order.Draft{UserID: "u1"}, "u1")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] == "" {
		t.Error("expected an error message in the envelope")
	}
}

func TestCreateOrder_PassesRequestKey(t *testing.T) {
	var gotKey string
	svc := &mockOrderServicer{placeFn: func(draft *order.Draft, requestKey string) (*store.StoredOrder, error) {
		gotKey = requestKey
		return storedOrder("o1", draft.UserID, enum.StatusOrderPlaced), nil
	}}
	router := setupOrderRouter(svc, &mockOrderReader{}, &mockBroadcaster{})

	token, _ := auth.GenerateToken(testJWTSecret, "u1", "b1")
	b, _ := json.Marshal(order.Draft{UserID: "u1"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(handler.RequestKeyHeader, "key-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusCreated)
	}
	if gotKey != "key-1" {
		t.Errorf("request key: got %q, want key-1", gotKey)
	}
}

// --- List ---

func TestListOrders_RejectsOtherUsers(t *testing.T) {
	router := setupOrderRouter(&mockOrderServicer{}, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders?userId=u2", nil, "u1")
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestListOrders_RequiresUserID(t *testing.T) {
	router := setupOrderRouter(&mockOrderServicer{}, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders", nil, "u1")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Get / Summary ---

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	st := &mockOrderReader{getFn: func(orderID string) (*store.StoredOrder, error) {
		return storedOrder(orderID, "u2", enum.StatusOrderPlaced), nil
	}}
	router := setupOrderRouter(&mockOrderServicer{}, st, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders/o1", nil, "u1")
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	router := setupOrderRouter(&mockOrderServicer{}, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders/missing", nil, "u1")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSummary_EmptyReceiptIsEmptyArray(t *testing.T) {
	st := &mockOrderReader{getFn: func(orderID string) (*store.StoredOrder, error) {
		return storedOrder(orderID, "u1", enum.StatusOrderPlaced), nil
	}}
	router := setupOrderRouter(&mockOrderServicer{}, st, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders/o1/summary", nil, "u1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Orders []order.SummaryLine `json:"orders"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Orders == nil {
		t.Error("summary must serialize as an empty array, not null")
	}
}

// --- Cancel ---

func TestCancel_RequiresCancelledStatusInBody(t *testing.T) {
	svc := &mockOrderServicer{cancelFn: func(orderID string) (*store.StoredOrder, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	router := setupOrderRouter(svc, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodPut, "/orders/o1/cancel", map[string]int{"OrderStatus": 4}, "u1")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCancel_OutsideWindowIs409(t *testing.T) {
	svc := &mockOrderServicer{cancelFn: func(orderID string) (*store.StoredOrder, error) {
		return nil, service.ErrNotCancellable
	}}
	router := setupOrderRouter(svc, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodPut, "/orders/o1/cancel", map[string]int{"OrderStatus": enum.StatusCancelled}, "u1")
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCancel_BroadcastsStatusEvent(t *testing.T) {
	svc := &mockOrderServicer{cancelFn: func(orderID string) (*store.StoredOrder, error) {
		return storedOrder(orderID, "u1", enum.StatusCancelled), nil
	}}
	hub := &mockBroadcaster{}
	router := setupOrderRouter(svc, &mockOrderReader{}, hub)

	rr := doAuthRequest(t, router, http.MethodPut, "/orders/o1/cancel", map[string]int{"OrderStatus": enum.StatusCancelled}, "u1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	if len(hub.events) != 1 {
		t.Fatalf("expected 1 broadcast event, got %d", len(hub.events))
	}
	ev := hub.events[0]
	if ev.Type != "order.status" {
		t.Errorf("event type: got %q", ev.Type)
	}
	var payload struct {
		OrderID string `json:"order_id"`
		Status  int    `json:"status"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != "o1" || payload.Status != enum.StatusCancelled {
		t.Errorf("payload: %+v", payload)
	}
}

// --- UpdateStatus ---

func TestUpdateStatus_InvalidTransitionIs409(t *testing.T) {
	svc := &mockOrderServicer{updateFn: func(orderID string, newCode int) (*store.StoredOrder, error) {
		return nil, service.ErrInvalidTransition
	}}
	router := setupOrderRouter(svc, &mockOrderReader{}, &mockBroadcaster{})

	rr := doAuthRequest(t, router, http.MethodPatch, "/orders/o1/status", map[string]int{"OrderStatus": enum.StatusDelivered}, "u1")
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestUpdateStatus_BroadcastsStatusEvent(t *testing.T) {
	svc := &mockOrderServicer{updateFn: func(orderID string, newCode int) (*store.StoredOrder, error) {
		return storedOrder(orderID, "u1", enum.StatusPickedUp), nil
	}}
	hub := &mockBroadcaster{}
	router := setupOrderRouter(svc, &mockOrderReader{}, hub)

	rr := doAuthRequest(t, router, http.MethodPatch, "/orders/o1/status", map[string]int{"OrderStatus": enum.StatusPickedUp}, "u1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if len(hub.events) != 1 {
		t.Fatalf("expected 1 broadcast event, got %d", len(hub.events))
	}
}

// --- Auth ---

func TestOrders_RequireAuthentication(t *testing.T) {
	router := setupOrderRouter(&mockOrderServicer{}, &mockOrderReader{}, &mockBroadcaster{})

	req := httptest.NewRequest(http.MethodGet, "/orders?userId=u1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
