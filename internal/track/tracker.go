package track

import (
	"context"
	"fmt"
	"sync"

	"github.com/dhobi-app/ordering/internal/enum"
	"github.com/dhobi-app/ordering/internal/order"
	"github.com/shopspring/decimal"
)

// CancellationError is a failed cancel call. The service's message is kept
// verbatim when it provided one.
type CancellationError struct {
	Message string
}

func (e *CancellationError) Error() string {
	if e.Message == "" {
		return "failed to cancel order"
	}
	return e.Message
}

// OrderService is the part of the external order service the tracker talks
// to. Satisfied by *client.Client.
type OrderService interface {
	CancelOrder(ctx context.Context, orderID string) (*order.Order, error)
}

// Tracker follows one order through its lifecycle. The status is
// authoritative from the order service; the tracker never invents
// transitions except the optimistic local one on a successful cancel.
type Tracker struct {
	svc     OrderService
	orderID string

	mu   sync.Mutex
	code int
}

// NewTracker starts tracking an order at its current status.
func NewTracker(svc OrderService, o *order.Order) *Tracker {
	return &Tracker{svc: svc, orderID: o.ID, code: o.Status}
}

// Code is the current status code.
func (t *Tracker) Code() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.code
}

// Status is the current Status; unknown service codes degrade to
// OrderPlaced so the display never breaks.
func (t *Tracker) Status() Status {
	s, ok := ByCode(t.Code())
	if !ok {
		return OrderPlaced
	}
	return s
}

// Apply records a status update from the order service. Status only moves
// forward: an update that would step back in the display sequence is
// dropped, and nothing overrides a cancellation.
func (t *Tracker) Apply(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.code == enum.StatusCancelled {
		return
	}
	if code == enum.StatusCancelled {
		t.code = code
		return
	}
	if sequenceIndex(code) < sequenceIndex(t.code) {
		return
	}
	t.code = code
}

// Percentage is the display progress for the current status; 0 when
// cancelled.
func (t *Tracker) Percentage() int {
	return Percentage(t.Code())
}

// IsCancelled reports whether the order ended in the cancelled branch.
func (t *Tracker) IsCancelled() bool {
	return t.Code() == enum.StatusCancelled
}

// CanCancel reports whether a cancel action should be offered right now.
func (t *Tracker) CanCancel() bool {
	c := t.Code()
	return c != enum.StatusCancelled && CanCancel(c)
}

// Cancel asks the order service to cancel the order. On success the tracker
// transitions to Cancelled immediately; on failure the status is left
// untouched and the service's message is surfaced. Cancelling an
// already-cancelled order is a no-op success.
func (t *Tracker) Cancel(ctx context.Context) error {
	if t.IsCancelled() {
		return nil
	}

	if _, err := t.svc.CancelOrder(ctx, t.orderID); err != nil {
		if cerr, ok := err.(*CancellationError); ok {
			return cerr
		}
		return &CancellationError{Message: err.Error()}
	}

	t.Apply(enum.StatusCancelled)
	return nil
}

// SummaryGroup is the receipt rows for one garment type.
type SummaryGroup struct {
	Key             string
	GarmentTypeID   int64
	GarmentTypeName string
	Lines           []order.SummaryLine
}

// GroupByGarmentType groups receipt lines for display, preserving
// first-seen group order and insertion order within a group. The key pairs
// the garment type's ID with its name so a renamed type never merges with
// an old one.
func GroupByGarmentType(lines []order.SummaryLine) []SummaryGroup {
	var groups []SummaryGroup
	index := make(map[string]int)

	for _, l := range lines {
		key := fmt.Sprintf("%d-%s", l.GarmentTypeID, l.GarmentTypeName)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SummaryGroup{
				Key:             key,
				GarmentTypeID:   l.GarmentTypeID,
				GarmentTypeName: l.GarmentTypeName,
			})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}

	return groups
}

// GrandTotal sums the line totals across the whole receipt.
func GrandTotal(lines []order.SummaryLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}
