package service

import (
	"errors"
	"testing"
	"time"

	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/store"
	"github.com/shopspring/decimal"
)

// newTestService creates an OrderService over a seeded store with a fixed
// clock.
func newTestService() (*OrderService, *store.Store) {
	st := store.New()
	st.SeedPrices("c1", "b1", []catalog.PriceEntry{
		{ID: 1, GarmentTypeID: 1, GarmentTypeName: "Shirt", ServiceID: 1, ServiceName: "Wash & Iron", Price: decimal.NewFromInt(10), Currency: "INR"},
		{ID: 2, GarmentTypeID: 2, GarmentTypeName: "Trousers", ServiceID: 1, ServiceName: "Wash & Iron", Price: decimal.NewFromInt(20), Currency: "INR"},
	})
	svc := NewOrderService(st)
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	}
	return svc, st
}

func validDraft() *order.Draft {
	return &order.Draft{
		UserID:        "u1",
		BranchID:      "b1",
		CompanyID:     "c1",
		PickupSlot:    2,
		PickupDate:    "2026-03-12",
		TotalAmount:   decimal.NewFromInt(40),
		PaymentMethod: enum.PaymentMethodPrepaid,
		Lines: []order.Line{
			{GarmentTypeID: 1, ServiceID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10), IsActive: 1},
			{GarmentTypeID: 2, ServiceID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(20), IsActive: 1},
		},
	}
}

// =====================
// Validation tests
// =====================

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.Lines = nil

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got: %v", err)
	}
}

func TestPlaceOrder_InvalidPaymentMethod(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.PaymentMethod = "cash"

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got: %v", err)
	}
}

func TestPlaceOrder_InvalidPickupDate(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.PickupDate = "12/03/2026"

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrInvalidPickupDate) {
		t.Fatalf("expected ErrInvalidPickupDate, got: %v", err)
	}
}

func TestPlaceOrder_ZeroQuantity(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.Lines[0].Quantity = 0

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestPlaceOrder_UnknownPriceEntry(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.Lines[0].GarmentTypeID = 99

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrUnknownPriceEntry) {
		t.Fatalf("expected ErrUnknownPriceEntry, got: %v", err)
	}
}

func TestPlaceOrder_PriceMismatch(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.Lines[0].UnitPrice = decimal.NewFromInt(5) // list price is 10

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrPriceMismatch) {
		t.Fatalf("expected ErrPriceMismatch, got: %v", err)
	}
}

func TestPlaceOrder_TotalMismatch(t *testing.T) {
	svc, _ := newTestService()
	draft := validDraft()
	draft.TotalAmount = decimal.NewFromInt(100)

	_, err := svc.PlaceOrder(draft, "")
	if !errors.Is(err, ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch, got: %v", err)
	}
}

// =====================
// Happy path
// =====================

func TestPlaceOrder_Success(t *testing.T) {
	svc, st := newTestService()

	created, err := svc.PlaceOrder(validDraft(), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Status != enum.StatusOrderPlaced || created.StatusName != enum.StatusNameOrderPlaced {
		t.Errorf("new order status: %d %q", created.Status, created.StatusName)
	}
	if !created.TotalAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("total: got %v, want 40", created.TotalAmount)
	}
	if created.DueDate == nil {
		t.Fatal("due date should be set")
	}
	wantDue := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !created.DueDate.Equal(wantDue) {
		t.Errorf("due date: got %v, want pickup + 3 days (%v)", created.DueDate, wantDue)
	}
	if created.UserID != "u1" {
		t.Errorf("owner: got %q, want u1", created.UserID)
	}

	// The receipt is derived from the price list, one row per line.
	if len(created.Summary) != 2 {
		t.Fatalf("expected 2 summary lines, got %d", len(created.Summary))
	}
	first := created.Summary[0]
	if first.GarmentTypeName != "Shirt" || first.ServiceName != "Wash & Iron" {
		t.Errorf("summary names come from the price list: %+v", first)
	}
	if !first.TotalPrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("summary line total: got %v, want 20", first.TotalPrice)
	}

	// The stored record matches what was returned.
	stored, err := st.GetOrder(created.ID)
	if err != nil {
		t.Fatalf("stored order not found: %v", err)
	}
	if stored.Status != created.Status {
		t.Errorf("stored status: got %d, want %d", stored.Status, created.Status)
	}
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.PlaceOrder(validDraft(), "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.PlaceOrder(validDraft(), "key-1")
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("replayed submit created a second order: %q vs %q", second.ID, first.ID)
	}

	// A different key is a genuinely new order.
	third, err := svc.PlaceOrder(validDraft(), "key-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.ID == first.ID {
		t.Error("a new request key must create a new order")
	}
}

// =====================
// Cancellation tests
// =====================

func TestCancelOrder_WithinWindow(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := svc.CancelOrder(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != enum.StatusCancelled || cancelled.StatusName != enum.StatusNameCancelled {
		t.Errorf("status after cancel: %d %q", cancelled.Status, cancelled.StatusName)
	}
}

func TestCancelOrder_AlreadyCancelled(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CancelOrder(created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A retried cancel succeeds and leaves the record unchanged.
	again, err := svc.CancelOrder(created.ID)
	if err != nil {
		t.Fatalf("retried cancel should succeed, got: %v", err)
	}
	if again.Status != enum.StatusCancelled {
		t.Errorf("status: got %d, want %d", again.Status, enum.StatusCancelled)
	}
}

func TestCancelOrder_OutsideWindow(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Picked-up orders are past the cancellation window even though the
	// status renders before InProgress.
	if _, err := svc.UpdateStatus(created.ID, enum.StatusPickedUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.CancelOrder(created.ID)
	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected ErrNotCancellable, got: %v", err)
	}
}

func TestCancelOrder_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CancelOrder("missing")
	if !errors.Is(err, store.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

// =====================
// Status transition tests
// =====================

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, step := range []struct {
		code int
		name string
	}{
		{enum.StatusPickedUp, enum.StatusNamePickedUp},
		{enum.StatusInProgress, enum.StatusNameInProgress},
		{enum.StatusOutForDelivery, enum.StatusNameOutForDelivery},
		{enum.StatusDelivered, enum.StatusNameDelivered},
	} {
		updated, err := svc.UpdateStatus(created.ID, step.code)
		if err != nil {
			t.Fatalf("transition to %d: %v", step.code, err)
		}
		if updated.Status != step.code || updated.StatusName != step.name {
			t.Errorf("after transition: %d %q, want %d %q", updated.Status, updated.StatusName, step.code, step.name)
		}
	}
}

func TestUpdateStatus_RejectsSkipsAndReversals(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// OrderPlaced -> InProgress skips PickedUp.
	if _, err := svc.UpdateStatus(created.ID, enum.StatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip should be rejected, got: %v", err)
	}

	if _, err := svc.UpdateStatus(created.ID, enum.StatusPickedUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// PickedUp -> OrderPlaced reverses.
	if _, err := svc.UpdateStatus(created.ID, enum.StatusOrderPlaced); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reversal should be rejected, got: %v", err)
	}
}

func TestUpdateStatus_CancelledNotReachableHere(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.UpdateStatus(created.ID, enum.StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancellation must go through CancelOrder, got: %v", err)
	}
}

func TestUpdateStatus_UnknownCode(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.PlaceOrder(validDraft(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.UpdateStatus(created.ID, 42); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown code should be rejected, got: %v", err)
	}
}
