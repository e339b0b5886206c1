// Package service holds the reference backend's order logic: it enforces
// server-side the same invariants the client engine assumes (recomputed
// totals, forward-only status transitions, idempotent cancellation).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/dhobi-app/ordering/internal/store"
	"github.com/dhobi-app/ordering/internal/track"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("order must contain at least one item")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidPickupDate    = errors.New("invalid pickup date")
	ErrUnknownPriceEntry    = errors.New("item does not match any price entry")
	ErrPriceMismatch        = errors.New("item unit price does not match the price list")
	ErrTotalMismatch        = errors.New("total amount does not match the order items")
	ErrNotCancellable       = errors.New("order can no longer be cancelled")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

const turnaroundDays = 3

// allowedTransitions defines valid forward status transitions.
// Cancellation is not listed here; it goes through CancelOrder which
// enforces the cancellation window.
var allowedTransitions = map[int][]int{
	enum.StatusOrderPlaced:    {enum.StatusPickedUp},
	enum.StatusPickedUp:       {enum.StatusInProgress},
	enum.StatusInProgress:     {enum.StatusOutForDelivery},
	enum.StatusOutForDelivery: {enum.StatusDelivered},
}

// OrderService validates and executes order operations against the store.
type OrderService struct {
	store *store.Store
	now   func() time.Time
}

func NewOrderService(st *store.Store) *OrderService {
	return &OrderService{store: st, now: time.Now}
}

// PlaceOrder validates a submitted draft against the price list, recomputes
// its total, and stores the new order. A request key already seen replays
// the originally created order instead of creating a second one.
func (s *OrderService) PlaceOrder(draft *order.Draft, requestKey string) (*store.StoredOrder, error) {
	if existing, ok := s.store.OrderByRequestKey(requestKey); ok && requestKey != "" {
		return existing, nil
	}

	if len(draft.Lines) == 0 {
		return nil, ErrEmptyItems
	}
	if draft.PaymentMethod != enum.PaymentMethodPrepaid && draft.PaymentMethod != enum.PaymentMethodPostpaid {
		return nil, ErrInvalidPaymentMethod
	}
	pickup, err := time.Parse(order.PickupDateLayout, draft.PickupDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPickupDate, err)
	}

	prices := s.store.PriceList(draft.CompanyID, draft.BranchID)

	// Recompute the total from the submitted lines; a client-side total
	// that disagrees is rejected rather than silently trusted.
	total := decimal.Zero
	summary := make([]order.SummaryLine, 0, len(draft.Lines))
	for i, line := range draft.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		entry, ok := findEntry(prices, line.GarmentTypeID, line.ServiceID)
		if !ok {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrUnknownPriceEntry)
		}
		if !entry.Price.Equal(line.UnitPrice) {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrPriceMismatch)
		}

		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		summary = append(summary, order.SummaryLine{
			GarmentTypeID:   entry.GarmentTypeID,
			GarmentTypeName: entry.GarmentTypeName,
			ServiceName:     entry.ServiceName,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			TotalPrice:      lineTotal,
		})
	}
	if !total.Equal(draft.TotalAmount) {
		return nil, ErrTotalMismatch
	}

	now := s.now()
	due := pickup.AddDate(0, 0, turnaroundDays)
	stored := &store.StoredOrder{
		Order: order.Order{
			ID:            uuid.New().String(),
			CompanyID:     draft.CompanyID,
			Status:        enum.StatusOrderPlaced,
			StatusName:    enum.StatusNameOrderPlaced,
			OrderDateTime: now,
			DueDate:       &due,
			PickupSlot:    draft.PickupSlot,
			PickupDate:    draft.PickupDate,
			PaymentMethod: draft.PaymentMethod,
			TotalAmount:   total,
		},
		UserID:  draft.UserID,
		Summary: summary,
	}

	if err := s.store.CreateOrder(stored, requestKey); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return stored, nil
}

// CancelOrder cancels an order while it is still within the cancellation
// window. Cancelling an already-cancelled order returns it unchanged so
// retried cancels are harmless.
func (s *OrderService) CancelOrder(orderID string) (*store.StoredOrder, error) {
	current, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == enum.StatusCancelled {
		return current, nil
	}
	if !track.CanCancel(current.Status) {
		return nil, ErrNotCancellable
	}
	return s.store.UpdateStatus(orderID, enum.StatusCancelled, enum.StatusNameCancelled)
}

// UpdateStatus advances an order along the lifecycle. Only the forward
// transitions of the display sequence are allowed; status never reverts.
func (s *OrderService) UpdateStatus(orderID string, newCode int) (*store.StoredOrder, error) {
	next, ok := track.ByCode(newCode)
	if !ok || newCode == enum.StatusCancelled {
		return nil, ErrInvalidTransition
	}

	current, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, code := range allowedTransitions[current.Status] {
		if code == newCode {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidTransition, current.Status, newCode)
	}

	return s.store.UpdateStatus(orderID, next.Code, next.Label)
}

func findEntry(rows []catalog.PriceEntry, garmentTypeID, serviceID int64) (catalog.PriceEntry, bool) {
	for _, r := range rows {
		if r.GarmentTypeID == garmentTypeID && r.ServiceID == serviceID {
			return r, true
		}
	}
	return catalog.PriceEntry{}, false
}
